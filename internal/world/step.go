package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/entity"
	"github.com/TeamExile/psychic-waddle/internal/hazard"
	"github.com/TeamExile/psychic-waddle/internal/health"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// step advances the simulation clock by dt: hazards first, then respawn
// timers. Every state transition commits (and therefore broadcasts)
// before the next one is considered.
func (w *World) step(dt time.Duration) {
	w.clock += dt

	targets := w.targets()
	for _, h := range w.hazards {
		for _, s := range h.machine.Advance(dt, targets) {
			w.applyDamage(s.TargetID, s.Amount, h.machine.Name())
		}
	}

	for entityID, hr := range w.healths {
		if events := hr.Advance(w.clock); len(events) > 0 {
			w.publishHealth(entityID, hr, events)
		}
	}
}

func (w *World) targets() []hazard.Target {
	out := make([]hazard.Target, 0, len(w.avatars))
	for id, av := range w.avatars {
		hr := w.healths[id]
		out = append(out, hazard.Target{
			ID:    id,
			Pos:   av.Position.Get(),
			Alive: hr.Alive,
		})
	}
	return out
}

// applyDamage routes a strike through the target's health record and
// publishes whatever transitions it produced.
func (w *World) applyDamage(entityID string, amount int, source string) {
	hr, ok := w.healths[entityID]
	if !ok {
		return
	}
	events := hr.ApplyDamage(w.clock, amount, source)
	if len(events) == 0 {
		return
	}
	w.publishHealth(entityID, hr, events)
}

// publishHealth turns health events into the replicated health write plus
// the cosmetic broadcast each event calls for.
func (w *World) publishHealth(entityID string, hr *health.Record, events []health.Event) {
	av := w.avatars[entityID]
	if av == nil {
		return
	}
	for _, e := range events {
		switch e.Type {
		case health.EvtDamaged:
			w.setHealth(av, e.Current)
			w.broadcast(protocol.Broadcast{
				Type:     protocol.EvtDamaged,
				EntityID: entityID,
				Amount:   e.Amount,
				Current:  e.Current,
				Max:      hr.Max,
			})
		case health.EvtHealed:
			w.setHealth(av, e.Current)
		case health.EvtDied:
			w.broadcast(protocol.Broadcast{Type: protocol.EvtDied, EntityID: entityID})
			w.log.Info("entity died",
				zap.String("entity", entityID),
				zap.String("source", e.Source))
		case health.EvtRespawned:
			w.setHealth(av, e.Current)
			w.broadcast(protocol.Broadcast{
				Type:     protocol.EvtRespawned,
				EntityID: entityID,
				Current:  e.Current,
				Max:      hr.Max,
			})
		}
	}
}

func (w *World) setHealth(av *entity.Avatar, current int) {
	if err := av.Health.Set(current); err != nil {
		w.log.Error("health write failed", zap.String("entity", av.ID), zap.Error(err))
	}
}
