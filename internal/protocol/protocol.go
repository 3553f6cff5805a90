// Package protocol defines the wire messages exchanged between the
// authority and its participants: Commands travel participant -> authority
// and request privileged mutations, Broadcasts travel authority -> everyone
// and describe state that has already committed. Both are JSON text frames.
package protocol

import "encoding/json"

// Vec is a 2D position or direction on the arena plane.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EntityKind tells a holder which variable set to build for a spawned entity.
type EntityKind string

const (
	KindAvatar EntityKind = "avatar"
	KindHazard EntityKind = "hazard"
)

// Replicated variable names shared by both sides of the connection.
const (
	VarIdentity = "identity"
	VarPosition = "position"
	VarFacing   = "facing"
	VarHealth   = "health"
	VarState    = "state"
)

type CommandType string

const (
	// CmdIdentify asks the authority to assign this participant's display
	// name. The authority never replies directly; the answer arrives as a
	// write to the avatar's identity variable.
	CmdIdentify CommandType = "Identify"
	// CmdMove reports the owner's locally computed position for this tick.
	// Re-issued every prediction tick, so a dropped frame self-heals.
	CmdMove CommandType = "Move"
	// CmdShoot reports a locally predicted shot for relay to other holders.
	CmdShoot CommandType = "Shoot"
	// CmdAction reports a discrete trigger (jump, crouch) for cosmetic relay.
	CmdAction CommandType = "Action"
)

// Command is the participant -> authority envelope. Delivery is
// at-most-once with no dedup, so every command must be safe to drop.
type Command struct {
	Type     CommandType `json:"type"`
	EntityID string      `json:"entity_id,omitempty"`
	Name     string      `json:"name,omitempty"`
	Pos      *Vec        `json:"pos,omitempty"`
	Facing   float64     `json:"facing,omitempty"`
	Dir      *Vec        `json:"dir,omitempty"`
	Action   string      `json:"action,omitempty"`
}

type BroadcastType string

const (
	// EvtWelcome is the first frame a joining participant receives. It
	// carries its participant id and owned entity id; the entity population
	// follows as ordinary EvtSpawned frames.
	EvtWelcome BroadcastType = "Welcome"
	// EvtRejected is sent instead of EvtWelcome when the session is full.
	EvtRejected  BroadcastType = "Rejected"
	EvtSpawned   BroadcastType = "Spawned"
	EvtDespawned BroadcastType = "Despawned"
	// EvtVarChanged publishes one committed variable write. Frames for a
	// single entity arrive in commit order; no ordering holds across
	// entities.
	EvtVarChanged BroadcastType = "VarChanged"
	// EvtOwnerChanged announces a completed ownership transfer. Holders
	// must apply it before trusting any later owner-written variable.
	EvtOwnerChanged BroadcastType = "OwnerChanged"
	EvtShot         BroadcastType = "Shot"
	EvtAction       BroadcastType = "Action"
	// Cosmetic health feedback. The authoritative value rides the health
	// variable; these exist so holders can flash/shake without diffing it.
	EvtDamaged   BroadcastType = "Damaged"
	EvtDied      BroadcastType = "Died"
	EvtRespawned BroadcastType = "Respawned"
)

// VarSnapshot is one variable's committed value at spawn time.
type VarSnapshot struct {
	Name    string          `json:"name"`
	Version uint64          `json:"version"`
	Value   json.RawMessage `json:"value"`
}

// Broadcast is the authority -> holders envelope. Fire-and-forget: the
// authority never waits on a holder.
type Broadcast struct {
	Type       BroadcastType   `json:"type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Kind       EntityKind      `json:"kind,omitempty"`
	Owner      string          `json:"owner,omitempty"`
	Pos        *Vec            `json:"pos,omitempty"`
	Radius     float64         `json:"radius,omitempty"`
	Vars       []VarSnapshot   `json:"vars,omitempty"`
	Var        string          `json:"var,omitempty"`
	Version    uint64          `json:"version,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
	Origin     *Vec            `json:"origin,omitempty"`
	Dir        *Vec            `json:"dir,omitempty"`
	Action     string          `json:"action,omitempty"`
	Amount     int             `json:"amount,omitempty"`
	Current    int             `json:"current,omitempty"`
	Max        int             `json:"max,omitempty"`
	You        string          `json:"you,omitempty"`
	YourEntity string          `json:"your_entity,omitempty"`
	Error      string          `json:"error,omitempty"`
}
