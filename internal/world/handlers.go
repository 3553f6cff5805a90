package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/entity"
	"github.com/TeamExile/psychic-waddle/internal/health"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

func (w *World) handleJoin(msg Join) {
	spawn, err := w.dir.Join(msg.ParticipantID, time.Now())
	if err != nil {
		w.log.Info("join rejected",
			zap.String("participant", msg.ParticipantID),
			zap.Error(err))
		msg.Reply <- JoinReply{Err: err}
		return
	}

	entityID := uuid.NewString()
	av := entity.NewAvatar(entityID, msg.ParticipantID, spawn, w.cfg.MaxHealth, true)
	av.OnCommit(w.commitVar)
	w.avatars[entityID] = av
	w.owners[msg.ParticipantID] = entityID
	w.healths[entityID] = health.NewRecord(w.cfg.MaxHealth, w.cfg.InvulnWindow, w.cfg.RespawnDelay)
	w.dir.BindEntity(msg.ParticipantID, entityID)
	w.holders[msg.ParticipantID] = msg.Outbox

	w.log.Info("participant joined",
		zap.String("participant", msg.ParticipantID),
		zap.String("entity", entityID),
		zap.Int("participants", w.dir.Len()))

	// Welcome first, then the existing population, then the new avatar's
	// spawn to everyone at once. The joiner sees its own entity exactly
	// once, via that last frame.
	w.sendTo(msg.ParticipantID, protocol.Broadcast{
		Type:       protocol.EvtWelcome,
		You:        msg.ParticipantID,
		YourEntity: entityID,
	})
	for _, h := range w.hazards {
		if b, err := w.spawnFrame(h.beacon.Entity); err == nil {
			w.sendTo(msg.ParticipantID, b)
		}
	}
	for id, other := range w.avatars {
		if id == entityID {
			continue
		}
		if b, err := w.spawnFrame(other.Entity); err == nil {
			w.sendTo(msg.ParticipantID, b)
		}
	}
	if b, err := w.spawnFrame(av.Entity); err == nil {
		w.broadcast(b)
	}

	msg.Reply <- JoinReply{EntityID: entityID}
}

func (w *World) spawnFrame(e *entity.Entity) (protocol.Broadcast, error) {
	vars, err := e.Snapshot()
	if err != nil {
		w.log.Error("snapshot failed", zap.String("entity", e.ID), zap.Error(err))
		return protocol.Broadcast{}, err
	}
	b := protocol.Broadcast{
		Type:     protocol.EvtSpawned,
		EntityID: e.ID,
		Kind:     e.Kind,
		Owner:    e.Owner(),
		Pos:      &protocol.Vec{X: e.Spawn.X, Y: e.Spawn.Y},
		Vars:     vars,
	}
	switch e.Kind {
	case protocol.KindAvatar:
		b.Max = w.cfg.MaxHealth
	case protocol.KindHazard:
		for _, h := range w.hazards {
			if h.beacon.Entity == e {
				b.Radius = h.beacon.Radius
			}
		}
	}
	return b, nil
}

func (w *World) handleLeave(participantID string) {
	entityID, owned := w.owners[participantID]
	if owned {
		if av := w.avatars[entityID]; av != nil {
			av.Teardown()
		}
		delete(w.avatars, entityID)
		delete(w.healths, entityID)
		delete(w.owners, participantID)
	}
	w.dir.Leave(participantID)
	if ch, ok := w.holders[participantID]; ok {
		close(ch)
		delete(w.holders, participantID)
	}
	if owned {
		w.broadcast(protocol.Broadcast{Type: protocol.EvtDespawned, EntityID: entityID})
	}
	w.log.Info("participant left",
		zap.String("participant", participantID),
		zap.Int("participants", w.dir.Len()))
}

// handleCommand applies one participant command. Anything that cannot be
// applied — sender gone, entity torn down, wrong owner — is dropped
// without a reply; owners re-issue per-tick state, so drops self-heal.
func (w *World) handleCommand(participantID string, cmd protocol.Command) {
	entityID, ok := w.owners[participantID]
	if !ok {
		w.log.Debug("dropping command from unknown participant",
			zap.String("participant", participantID),
			zap.String("type", string(cmd.Type)))
		return
	}
	av := w.avatars[entityID]
	if av == nil {
		w.log.Debug("dropping command for torn-down entity",
			zap.String("entity", entityID))
		return
	}
	if cmd.EntityID != "" && cmd.EntityID != entityID {
		w.log.Debug("dropping command for non-owned entity",
			zap.String("participant", participantID),
			zap.String("entity", cmd.EntityID))
		return
	}

	switch cmd.Type {
	case protocol.CmdIdentify:
		// The reply is the identity write itself; it reaches the owner
		// through the ordinary replication path.
		_ = av.Identity.Set(cmd.Name)

	case protocol.CmdMove:
		if cmd.Pos == nil {
			return
		}
		_ = av.Position.Set(*cmd.Pos)
		if cmd.Facing != av.Facing.Get() {
			_ = av.Facing.Set(cmd.Facing)
		}

	case protocol.CmdShoot:
		// The owner already played the shot locally; relay to everyone
		// else for cosmetic replay. No fire-rate or range checks here.
		w.broadcastExcept(participantID, protocol.Broadcast{
			Type:     protocol.EvtShot,
			EntityID: entityID,
			Owner:    participantID,
			Origin:   cmd.Pos,
			Dir:      cmd.Dir,
		})

	case protocol.CmdAction:
		w.broadcastExcept(participantID, protocol.Broadcast{
			Type:     protocol.EvtAction,
			EntityID: entityID,
			Owner:    participantID,
			Action:   cmd.Action,
		})

	default:
		w.log.Debug("dropping unknown command", zap.String("type", string(cmd.Type)))
	}
}

// handleTransfer reassigns an avatar to another participant. When the
// target already owns one, the two participants swap, so each keeps
// exactly one avatar and no entity is ever left without an authorized
// owner. Every reassignment is announced so holders update the owner
// they use for echo suppression.
func (w *World) handleTransfer(entityID, to string) error {
	av, ok := w.avatars[entityID]
	if !ok {
		return fmt.Errorf("transfer %s: no such entity", entityID)
	}
	if _, ok := w.holders[to]; !ok {
		return fmt.Errorf("transfer %s: no such participant %q", entityID, to)
	}
	prev := av.Owner()
	if prev == to {
		return nil
	}

	var counterpart *entity.Avatar
	if otherID, owned := w.owners[to]; owned {
		counterpart = w.avatars[otherID]
	}

	if err := av.TransferOwner(to); err != nil {
		return err
	}
	delete(w.owners, prev)
	w.owners[to] = entityID
	w.dir.BindEntity(to, entityID)
	if counterpart != nil {
		if err := counterpart.TransferOwner(prev); err != nil {
			return err
		}
		w.owners[prev] = counterpart.ID
		w.dir.BindEntity(prev, counterpart.ID)
	}

	w.broadcast(protocol.Broadcast{
		Type:     protocol.EvtOwnerChanged,
		EntityID: entityID,
		Owner:    to,
	})
	if counterpart != nil {
		w.broadcast(protocol.Broadcast{
			Type:     protocol.EvtOwnerChanged,
			EntityID: counterpart.ID,
			Owner:    prev,
		})
	}

	w.log.Info("ownership transferred",
		zap.String("entity", entityID),
		zap.String("from", prev),
		zap.String("to", to))
	return nil
}
