// Package entity implements the replicated-entity model. An entity is a
// bag of versioned variables, each with exactly one designated writer
// (authority or owner). On the authority, writes commit through Set and
// publish via a commit hook; on every other holder the only mutation path
// is ApplyChange, which is idempotent per version.
package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// ErrMissingAuthority means a write was attempted on a replica. Replicas
// never commit; this is a programming defect, not a runtime condition to
// recover from.
var ErrMissingAuthority = errors.New("variable write without authority")

var ErrUnknownVariable = errors.New("unknown variable")

// Writer names the side allowed to originate updates for a variable.
// Owner-written variables still commit on the authority (the owner issues
// them as commands); the distinction gates which commands the authority
// accepts, and from whom.
type Writer int

const (
	WriterAuthority Writer = iota
	WriterOwner
)

// CommitFunc receives every committed variable write, in commit order.
// The world loop installs one to fan writes out as broadcasts.
type CommitFunc func(entityID, name string, version uint64, value json.RawMessage)

// Entity is one replicated object. The zero value is not usable; build
// with New or the Avatar/Beacon constructors.
type Entity struct {
	ID    string
	Kind  protocol.EntityKind
	Spawn protocol.Vec

	owner         string
	authoritative bool
	vars          []replicated
	byName        map[string]replicated
	commit        CommitFunc
}

// replicated is the untyped face of a Var, used for wire application and
// snapshots.
type replicated interface {
	varName() string
	varWriter() Writer
	varVersion() uint64
	applyRaw(version uint64, raw json.RawMessage) (bool, error)
	rawSnapshot() (protocol.VarSnapshot, error)
	dropObservers()
}

// New builds an entity. authoritative marks the single process whose
// copy is the source of truth; every variable Set elsewhere fails with
// ErrMissingAuthority.
func New(id string, kind protocol.EntityKind, owner string, spawn protocol.Vec, authoritative bool) *Entity {
	return &Entity{
		ID:            id,
		Kind:          kind,
		Spawn:         spawn,
		owner:         owner,
		authoritative: authoritative,
		byName:        make(map[string]replicated),
	}
}

// Owner returns the owning participant id, or "" for authority-owned
// entities.
func (e *Entity) Owner() string { return e.owner }

// TransferOwner atomically reassigns ownership. It runs inside the
// authority loop, so there is never an instant with zero or two owners.
func (e *Entity) TransferOwner(newOwner string) error {
	if !e.authoritative {
		return fmt.Errorf("transfer owner of %s: %w", e.ID, ErrMissingAuthority)
	}
	e.owner = newOwner
	return nil
}

// ApplyOwner folds an authority-announced ownership change into a
// replica. The counterpart of ApplyChange for the owner field; the
// authority itself reassigns through TransferOwner.
func (e *Entity) ApplyOwner(newOwner string) { e.owner = newOwner }

// OnCommit installs the commit hook. Authority side only; replicas never
// commit so the hook would never fire.
func (e *Entity) OnCommit(fn CommitFunc) { e.commit = fn }

// ApplyChange feeds one VarChanged notification into a replica. Returns
// whether the value was newly applied: an already-seen version is a no-op
// with no error, per the idempotency contract.
func (e *Entity) ApplyChange(name string, version uint64, raw json.RawMessage) (bool, error) {
	v, ok := e.byName[name]
	if !ok {
		return false, fmt.Errorf("apply %s on %s: %w", name, e.ID, ErrUnknownVariable)
	}
	return v.applyRaw(version, raw)
}

// Snapshot returns every variable's committed value in definition order,
// for inclusion in a spawn broadcast.
func (e *Entity) Snapshot() ([]protocol.VarSnapshot, error) {
	out := make([]protocol.VarSnapshot, 0, len(e.vars))
	for _, v := range e.vars {
		s, err := v.rawSnapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Teardown drops every observer so no notification outlives the entity.
// Subscribers never unsubscribe individually; teardown is the single
// removal point.
func (e *Entity) Teardown() {
	for _, v := range e.vars {
		v.dropObservers()
	}
	e.commit = nil
}

// Var is one replicated variable. Observers run synchronously, in
// registration order, on every value change.
type Var[T any] struct {
	ent       *Entity
	name      string
	writer    Writer
	version   uint64
	value     T
	observers []func(T)
}

// Define registers a variable on an entity. Definition order is the
// snapshot order, so both sides must define identically.
func Define[T any](e *Entity, name string, w Writer, initial T) *Var[T] {
	v := &Var[T]{ent: e, name: name, writer: w, value: initial}
	e.vars = append(e.vars, v)
	e.byName[name] = v
	return v
}

func (v *Var[T]) Get() T          { return v.value }
func (v *Var[T]) Version() uint64 { return v.version }
func (v *Var[T]) Writer() Writer  { return v.writer }
func (v *Var[T]) Name() string    { return v.name }

// Observe appends a change observer. There is no unsubscribe; observers
// live until entity teardown.
func (v *Var[T]) Observe(fn func(T)) {
	v.observers = append(v.observers, fn)
}

// Set commits a new value: bumps the version, notifies local observers
// and publishes through the entity's commit hook. Only legal on the
// authority's copy.
func (v *Var[T]) Set(val T) error {
	if !v.ent.authoritative {
		return fmt.Errorf("set %s on %s: %w", v.name, v.ent.ID, ErrMissingAuthority)
	}
	v.version++
	v.value = val
	v.notify()
	if v.ent.commit != nil {
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("set %s on %s: %w", v.name, v.ent.ID, err)
		}
		v.ent.commit(v.ent.ID, v.name, v.version, raw)
	}
	return nil
}

func (v *Var[T]) notify() {
	for _, fn := range v.observers {
		fn(v.value)
	}
}

func (v *Var[T]) varName() string    { return v.name }
func (v *Var[T]) varWriter() Writer  { return v.writer }
func (v *Var[T]) varVersion() uint64 { return v.version }

func (v *Var[T]) applyRaw(version uint64, raw json.RawMessage) (bool, error) {
	if version <= v.version {
		// Duplicate or out-of-date notification: already applied.
		return false, nil
	}
	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return false, fmt.Errorf("apply %s on %s: %w", v.name, v.ent.ID, err)
	}
	v.version = version
	v.value = val
	v.notify()
	return true, nil
}

func (v *Var[T]) rawSnapshot() (protocol.VarSnapshot, error) {
	raw, err := json.Marshal(v.value)
	if err != nil {
		return protocol.VarSnapshot{}, fmt.Errorf("snapshot %s on %s: %w", v.name, v.ent.ID, err)
	}
	return protocol.VarSnapshot{Name: v.name, Version: v.version, Value: raw}, nil
}

func (v *Var[T]) dropObservers() { v.observers = nil }
