package entity

import "github.com/TeamExile/psychic-waddle/internal/protocol"

// Avatar is a participant-controlled entity. Position and facing are
// owner-driven (the owner predicts locally and reports per tick); identity
// and health only ever originate on the authority.
type Avatar struct {
	*Entity
	Identity  *Var[string]
	Position  *Var[protocol.Vec]
	Facing    *Var[float64]
	Health    *Var[int]
	MaxHealth int
}

// NewAvatar builds an avatar with the standard variable set. Both sides
// must call this so the variable order matches on the wire.
func NewAvatar(id, owner string, spawn protocol.Vec, maxHealth int, authoritative bool) *Avatar {
	e := New(id, protocol.KindAvatar, owner, spawn, authoritative)
	return &Avatar{
		Entity:    e,
		Identity:  Define(e, protocol.VarIdentity, WriterAuthority, ""),
		Position:  Define(e, protocol.VarPosition, WriterOwner, spawn),
		Facing:    Define(e, protocol.VarFacing, WriterOwner, 0.0),
		Health:    Define(e, protocol.VarHealth, WriterAuthority, maxHealth),
		MaxHealth: maxHealth,
	}
}

// Beacon is an authority-owned hazard entity. Its only variable is the
// machine state, so every transition reaches holders as a VarChanged frame.
type Beacon struct {
	*Entity
	State  *Var[string]
	Radius float64
}

// NewBeacon builds a hazard entity at a fixed position.
func NewBeacon(id string, spawn protocol.Vec, radius float64, initialState string, authoritative bool) *Beacon {
	e := New(id, protocol.KindHazard, "", spawn, authoritative)
	return &Beacon{
		Entity: e,
		State:  Define(e, protocol.VarState, WriterAuthority, initialState),
		Radius: radius,
	}
}
