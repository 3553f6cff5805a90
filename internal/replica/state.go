// Package replica is the participant side of the session: a read-only
// holder of every entity's state plus the owner's local prediction for
// its own avatar. Broadcasts mutate it, versioned and idempotent; the
// prediction loop emits per-tick commands and trusts the authority for
// everything it does not own.
package replica

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/entity"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// Presentation receives cosmetic callbacks. All fields are optional; the
// core never reads anything back from the presentation side.
type Presentation struct {
	HealthChanged func(current, max int)
	Damaged       func()
	Death         func()
	HazardState   func(state string, elapsedInState time.Duration)
	ShotReplayed  func(entityID string, origin, dir protocol.Vec)
	ActionReplay  func(entityID, action string)
}

const (
	// moveSpeed integrates the input vector into the predicted position.
	moveSpeed = 4.0
	// lerpRate pulls displayed remote positions toward the confirmed
	// value; it hides latency without being physically authoritative.
	lerpRate = 10.0
)

type remoteAvatar struct {
	av      *entity.Avatar
	display protocol.Vec
}

type remoteHazard struct {
	beacon *entity.Beacon
	since  time.Duration
}

// State is the holder's replica. Not safe for concurrent use; the Client
// actor is its single writer.
type State struct {
	log  *zap.Logger
	pres Presentation

	you       string
	ownEntity string

	avatars map[string]*remoteAvatar
	hazards map[string]*remoteHazard

	predicted  protocol.Vec
	predFacing float64
	input      protocol.Vec
}

func NewState(pres Presentation, log *zap.Logger) *State {
	return &State{
		log:     log,
		pres:    pres,
		avatars: make(map[string]*remoteAvatar),
		hazards: make(map[string]*remoteHazard),
	}
}

// You returns this holder's participant id once welcomed.
func (s *State) You() string { return s.you }

// OwnEntity returns the id of the avatar this holder owns.
func (s *State) OwnEntity() string { return s.ownEntity }

// SetInput stores the per-tick movement vector from the input collaborator.
func (s *State) SetInput(v protocol.Vec) { s.input = v }

// Apply folds one broadcast into the replica. Frames about unknown
// entities are dropped: they raced a despawn and the authority will not
// repeat them.
func (s *State) Apply(b protocol.Broadcast) error {
	switch b.Type {
	case protocol.EvtWelcome:
		s.you = b.You
		s.ownEntity = b.YourEntity

	case protocol.EvtSpawned:
		return s.applySpawn(b)

	case protocol.EvtDespawned:
		if ra, ok := s.avatars[b.EntityID]; ok {
			ra.av.Teardown()
			delete(s.avatars, b.EntityID)
		}
		if rh, ok := s.hazards[b.EntityID]; ok {
			rh.beacon.Teardown()
			delete(s.hazards, b.EntityID)
		}

	case protocol.EvtVarChanged:
		return s.applyVar(b)

	case protocol.EvtOwnerChanged:
		s.applyOwner(b)

	case protocol.EvtDamaged:
		if b.EntityID == s.ownEntity {
			call0(s.pres.Damaged)
		}

	case protocol.EvtDied:
		if b.EntityID == s.ownEntity {
			call0(s.pres.Death)
		}

	case protocol.EvtRespawned:
		// Health itself arrives as a variable write; nothing extra here.

	case protocol.EvtShot:
		if b.Owner == s.you {
			break // the owner already played its own shot
		}
		if s.pres.ShotReplayed != nil && b.Origin != nil && b.Dir != nil {
			s.pres.ShotReplayed(b.EntityID, *b.Origin, *b.Dir)
		}

	case protocol.EvtAction:
		if b.Owner != s.you && s.pres.ActionReplay != nil {
			s.pres.ActionReplay(b.EntityID, b.Action)
		}

	default:
		return fmt.Errorf("apply broadcast: unknown type %q", b.Type)
	}
	return nil
}

func (s *State) applySpawn(b protocol.Broadcast) error {
	pos := protocol.Vec{}
	if b.Pos != nil {
		pos = *b.Pos
	}
	switch b.Kind {
	case protocol.KindAvatar:
		if _, ok := s.avatars[b.EntityID]; ok {
			return nil // duplicate spawn frame
		}
		av := entity.NewAvatar(b.EntityID, b.Owner, pos, b.Max, false)
		ra := &remoteAvatar{av: av, display: pos}
		s.avatars[b.EntityID] = ra
		// Guarded on the current owned entity, not the one at spawn
		// time, so the hook follows ownership transfers.
		max := av.MaxHealth
		av.Health.Observe(func(h int) {
			if av.ID == s.ownEntity {
				call2(s.pres.HealthChanged, h, max)
			}
		})
		if b.EntityID == s.ownEntity {
			s.predicted = pos
		}
		return s.restore(av.Entity, b.Vars)

	case protocol.KindHazard:
		if _, ok := s.hazards[b.EntityID]; ok {
			return nil
		}
		beacon := entity.NewBeacon(b.EntityID, pos, b.Radius, "", false)
		rh := &remoteHazard{beacon: beacon}
		s.hazards[b.EntityID] = rh
		beacon.State.Observe(func(state string) {
			rh.since = 0
			if s.pres.HazardState != nil {
				s.pres.HazardState(state, 0)
			}
		})
		return s.restore(beacon.Entity, b.Vars)

	default:
		return fmt.Errorf("spawn %s: unknown kind %q", b.EntityID, b.Kind)
	}
}

func (s *State) restore(e *entity.Entity, vars []protocol.VarSnapshot) error {
	for _, v := range vars {
		if _, err := e.ApplyChange(v.Name, v.Version, v.Value); err != nil {
			return err
		}
	}
	return nil
}

// applyOwner folds an announced ownership transfer into the replica.
// Gaining an avatar restarts prediction from its last confirmed state;
// losing one stops the per-tick command stream until the next grant.
func (s *State) applyOwner(b protocol.Broadcast) {
	ra, ok := s.avatars[b.EntityID]
	if !ok {
		s.log.Debug("owner change for unknown entity", zap.String("entity", b.EntityID))
		return
	}
	ra.av.ApplyOwner(b.Owner)
	switch {
	case b.Owner == s.you && b.EntityID != s.ownEntity:
		s.ownEntity = b.EntityID
		s.predicted = ra.av.Position.Get()
		s.predFacing = ra.av.Facing.Get()
	case b.Owner != s.you && b.EntityID == s.ownEntity:
		s.ownEntity = ""
	}
}

func (s *State) applyVar(b protocol.Broadcast) error {
	if ra, ok := s.avatars[b.EntityID]; ok {
		if b.EntityID == s.ownEntity && ra.av.Owner() == s.you {
			if b.Var == protocol.VarPosition || b.Var == protocol.VarFacing {
				// This holder is the designated writer: the authority's
				// echo of our own reports never drives the prediction.
				return nil
			}
		}
		_, err := ra.av.ApplyChange(b.Var, b.Version, b.Value)
		return err
	}
	if rh, ok := s.hazards[b.EntityID]; ok {
		_, err := rh.beacon.ApplyChange(b.Var, b.Version, b.Value)
		return err
	}
	s.log.Debug("variable for unknown entity", zap.String("entity", b.EntityID))
	return nil
}

// Step advances the local clock by dt: integrates the owner's prediction,
// eases every remote avatar toward its confirmed position and returns the
// commands to re-issue this tick.
func (s *State) Step(dt time.Duration) []protocol.Command {
	sec := dt.Seconds()

	for id, ra := range s.avatars {
		if id == s.ownEntity {
			continue
		}
		target := ra.av.Position.Get()
		f := lerpRate * sec
		if f > 1 {
			f = 1
		}
		ra.display.X += (target.X - ra.display.X) * f
		ra.display.Y += (target.Y - ra.display.Y) * f
	}
	for _, rh := range s.hazards {
		rh.since += dt
	}

	if s.ownEntity == "" {
		return nil
	}
	s.predicted.X += s.input.X * moveSpeed * sec
	s.predicted.Y += s.input.Y * moveSpeed * sec

	pos := s.predicted
	return []protocol.Command{{
		Type:   protocol.CmdMove,
		Pos:    &pos,
		Facing: s.predFacing,
	}}
}

// Shoot builds the shot command from the predicted position. The caller
// plays the local effect itself; only other holders get the replay.
func (s *State) Shoot(dir protocol.Vec) protocol.Command {
	origin := s.predicted
	return protocol.Command{
		Type: protocol.CmdShoot,
		Pos:  &origin,
		Dir:  &dir,
	}
}

// DisplayPosition is what the presentation layer should draw for an
// entity: the prediction for the owned avatar, the eased position for
// everyone else.
func (s *State) DisplayPosition(entityID string) (protocol.Vec, bool) {
	if entityID == s.ownEntity {
		return s.predicted, s.ownEntity != ""
	}
	if ra, ok := s.avatars[entityID]; ok {
		return ra.display, true
	}
	if rh, ok := s.hazards[entityID]; ok {
		return rh.beacon.Spawn, true
	}
	return protocol.Vec{}, false
}

// HazardDisplay reports a hazard's replicated machine state and how long
// the local clock has been in it. The elapsed time drives presentation
// that scales with dwell, like a warning flash ramping up.
func (s *State) HazardDisplay(entityID string) (string, time.Duration, bool) {
	rh, ok := s.hazards[entityID]
	if !ok {
		return "", 0, false
	}
	return rh.beacon.State.Get(), rh.since, true
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func call2(fn func(int, int), a, b int) {
	if fn != nil {
		fn(a, b)
	}
}
