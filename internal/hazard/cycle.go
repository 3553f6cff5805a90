package hazard

import (
	"time"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// Cyclic machine states, in transition order.
const (
	StateDormant  = "dormant"
	StateWarning  = "warning"
	StateErupting = "erupting"
	StateActive   = "active"
)

var cycleOrder = []string{StateDormant, StateWarning, StateErupting, StateActive}

// CycleConfig times one full pass through the machine.
type CycleConfig struct {
	Name     string
	Center   protocol.Vec
	Radius   float64
	Damage   int
	Dormant  time.Duration
	Warning  time.Duration
	Erupting time.Duration
	Active   time.Duration
}

// Cycle is the periodic variant: dormant -> warning -> erupting -> active
// and back around, each state on its own countdown. While active it damages
// each target in range at most once per activation.
type Cycle struct {
	cfg       CycleConfig
	stateIdx  int
	remaining time.Duration
	elapsed   time.Duration
	struck    map[string]struct{}

	// onTransition fires once per state entered, in order, so the owner
	// can replicate the state variable before strikes land.
	onTransition func(state string)
}

func NewCycle(cfg CycleConfig, onTransition func(state string)) *Cycle {
	return &Cycle{
		cfg:          cfg,
		remaining:    cfg.Dormant,
		struck:       make(map[string]struct{}),
		onTransition: onTransition,
	}
}

func (c *Cycle) Name() string { return c.cfg.Name }

func (c *Cycle) State() (string, time.Duration) {
	return cycleOrder[c.stateIdx], c.elapsed
}

func (c *Cycle) duration(idx int) time.Duration {
	switch cycleOrder[idx] {
	case StateWarning:
		return c.cfg.Warning
	case StateErupting:
		return c.cfg.Erupting
	case StateActive:
		return c.cfg.Active
	default:
		return c.cfg.Dormant
	}
}

func (c *Cycle) Advance(dt time.Duration, targets []Target) []Strike {
	c.remaining -= dt
	c.elapsed += dt
	for c.remaining <= 0 {
		c.stateIdx = (c.stateIdx + 1) % len(cycleOrder)
		c.remaining += c.duration(c.stateIdx)
		c.elapsed = 0
		if cycleOrder[c.stateIdx] == StateActive {
			// Cleared exactly once per activation: whatever happens during
			// this active window, nobody in the set is hit again.
			c.struck = make(map[string]struct{})
		}
		if c.onTransition != nil {
			c.onTransition(cycleOrder[c.stateIdx])
		}
	}

	if cycleOrder[c.stateIdx] != StateActive {
		return nil
	}
	var strikes []Strike
	for _, tg := range targets {
		if !tg.Alive || !inRange(c.cfg.Center, c.cfg.Radius, tg.Pos) {
			continue
		}
		if _, done := c.struck[tg.ID]; done {
			continue
		}
		c.struck[tg.ID] = struct{}{}
		strikes = append(strikes, Strike{TargetID: tg.ID, Amount: c.cfg.Damage})
	}
	return strikes
}
