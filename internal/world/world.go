// Package world runs the authoritative simulation. A single goroutine
// owns every server-side mutation: participant lifecycle, entity spawns,
// variable commits, hazard advancement and health transitions. Everything
// reaches it as a message on its inbox, so no locking exists anywhere in
// the mutation path.
package world

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/entity"
	"github.com/TeamExile/psychic-waddle/internal/hazard"
	"github.com/TeamExile/psychic-waddle/internal/health"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
	"github.com/TeamExile/psychic-waddle/internal/session"
)

// Config fixes the simulation parameters at construction.
type Config struct {
	Capacity     int
	SpawnRadius  float64
	SpawnPoints  []protocol.Vec
	TickInterval time.Duration
	MaxHealth    int
	InvulnWindow time.Duration
	RespawnDelay time.Duration
	Cycles       []hazard.CycleConfig
	Zones        []hazard.ZoneConfig
}

type hazardUnit struct {
	machine hazard.Machine
	beacon  *entity.Beacon
}

type World struct {
	inbox chan Msg
	cfg   Config
	log   *zap.Logger

	dir     *session.Directory
	avatars map[string]*entity.Avatar // by entity id
	owners  map[string]string         // participant id -> entity id
	healths map[string]*health.Record // by entity id
	hazards []*hazardUnit
	holders map[string]chan protocol.Broadcast // participant id -> outbox

	clock time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the world and starts its loop.
func New(parent context.Context, cfg Config, log *zap.Logger) *World {
	ctx, cancel := context.WithCancel(parent)
	w := &World{
		inbox:   make(chan Msg, 64),
		cfg:     cfg,
		log:     log,
		dir:     session.New(cfg.Capacity, cfg.SpawnRadius, cfg.SpawnPoints),
		avatars: make(map[string]*entity.Avatar),
		owners:  make(map[string]string),
		healths: make(map[string]*health.Record),
		holders: make(map[string]chan protocol.Broadcast),
		ctx:     ctx,
		cancel:  cancel,
	}
	w.spawnHazards()
	go w.loop()
	return w
}

func (w *World) Inbox() chan<- Msg { return w.inbox }

func (w *World) spawnHazards() {
	for _, cfg := range w.cfg.Cycles {
		b := entity.NewBeacon(uuid.NewString(), cfg.Center, cfg.Radius, hazard.StateDormant, true)
		b.OnCommit(w.commitVar)
		// Commit the initial state so spawn snapshots carry version 1;
		// version 0 is "never written" and replicas would skip it.
		_ = b.State.Set(hazard.StateDormant)
		state := b.State
		m := hazard.NewCycle(cfg, func(s string) {
			_ = state.Set(s)
		})
		w.hazards = append(w.hazards, &hazardUnit{machine: m, beacon: b})
	}
	for _, cfg := range w.cfg.Zones {
		b := entity.NewBeacon(uuid.NewString(), cfg.Center, cfg.Radius, hazard.StateActive, true)
		b.OnCommit(w.commitVar)
		_ = b.State.Set(hazard.StateActive)
		w.hazards = append(w.hazards, &hazardUnit{machine: hazard.NewZone(cfg), beacon: b})
	}
}

func (w *World) loop() {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.shutdown()
			return

		case <-ticker.C:
			w.step(w.cfg.TickInterval)

		case m := <-w.inbox:
			switch msg := m.(type) {
			case Join:
				w.handleJoin(msg)
			case Leave:
				w.handleLeave(msg.ParticipantID)
			case FromParticipant:
				w.handleCommand(msg.ParticipantID, msg.Cmd)
			case TransferOwnership:
				msg.Reply <- w.handleTransfer(msg.EntityID, msg.To)
			case Tick:
				w.step(msg.DT)
			case GetView:
				msg.Reply <- w.view()
			case Shutdown:
				w.shutdown()
				return
			}
		}
	}
}

func (w *World) shutdown() {
	for id, ch := range w.holders {
		close(ch)
		delete(w.holders, id)
	}
	w.cancel()
}

// commitVar is the entity commit hook: every committed variable write
// fans out as a VarChanged frame. All Sets happen inside the loop, so
// frames for one entity leave in commit order.
func (w *World) commitVar(entityID, name string, version uint64, value json.RawMessage) {
	w.broadcast(protocol.Broadcast{
		Type:     protocol.EvtVarChanged,
		EntityID: entityID,
		Var:      name,
		Version:  version,
		Value:    value,
	})
}

func (w *World) broadcast(b protocol.Broadcast) {
	w.broadcastExcept("", b)
}

// broadcastExcept fans out to every holder but the named one. A holder
// whose outbox is full is dropped on the spot rather than ever blocking
// the loop; its entity is torn down when the transport layer notices and
// sends Leave.
func (w *World) broadcastExcept(exempt string, b protocol.Broadcast) {
	for id, ch := range w.holders {
		if id == exempt {
			continue
		}
		select {
		case ch <- b:
		default:
			w.log.Warn("dropping slow holder", zap.String("participant", id))
			close(ch)
			delete(w.holders, id)
		}
	}
}

func (w *World) sendTo(participantID string, b protocol.Broadcast) {
	ch, ok := w.holders[participantID]
	if !ok {
		return
	}
	select {
	case ch <- b:
	default:
		w.log.Warn("dropping slow holder", zap.String("participant", participantID))
		close(ch)
		delete(w.holders, participantID)
	}
}

func (w *World) view() View {
	v := View{
		Clock:        w.clock,
		Participants: w.dir.Len(),
		Capacity:     w.dir.Capacity(),
	}
	for _, h := range w.hazards {
		state, elapsed := h.machine.State()
		v.Hazards = append(v.Hazards, HazardView{Name: h.machine.Name(), State: state, Elapsed: elapsed})
		v.Entities = append(v.Entities, EntityView{
			ID:    h.beacon.ID,
			Kind:  h.beacon.Kind,
			Pos:   h.beacon.Spawn,
			Alive: true,
		})
	}
	for id, av := range w.avatars {
		hr := w.healths[id]
		v.Entities = append(v.Entities, EntityView{
			ID:        id,
			Kind:      av.Kind,
			Owner:     av.Owner(),
			Identity:  av.Identity.Get(),
			Pos:       av.Position.Get(),
			Health:    hr.Current,
			MaxHealth: hr.Max,
			Alive:     hr.Alive,
		})
	}
	return v
}
