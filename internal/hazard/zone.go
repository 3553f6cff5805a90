package hazard

import (
	"time"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// ZoneConfig describes a persistent damage area.
type ZoneConfig struct {
	Name     string
	Center   protocol.Vec
	Radius   float64
	Damage   int
	Interval time.Duration
}

// Zone is the duration-based variant: no discrete activation. Each
// occupant accumulates time inside independently and takes damage every
// Interval of continuous presence. Leaving forfeits the accumulated time;
// re-entry starts from zero.
type Zone struct {
	cfg     ZoneConfig
	acc     map[string]time.Duration
	elapsed time.Duration
}

func NewZone(cfg ZoneConfig) *Zone {
	return &Zone{cfg: cfg, acc: make(map[string]time.Duration)}
}

func (z *Zone) Name() string { return z.cfg.Name }

// State is constant for a zone; elapsed is the zone's lifetime.
func (z *Zone) State() (string, time.Duration) {
	return StateActive, z.elapsed
}

func (z *Zone) Advance(dt time.Duration, targets []Target) []Strike {
	z.elapsed += dt

	inside := make(map[string]struct{}, len(targets))
	var strikes []Strike
	for _, tg := range targets {
		if !tg.Alive || !inRange(z.cfg.Center, z.cfg.Radius, tg.Pos) {
			continue
		}
		inside[tg.ID] = struct{}{}
		a := z.acc[tg.ID] + dt
		if a >= z.cfg.Interval {
			strikes = append(strikes, Strike{TargetID: tg.ID, Amount: z.cfg.Damage})
			a = 0
		}
		z.acc[tg.ID] = a
	}

	// Anyone no longer inside loses their accumulator entirely.
	for id := range z.acc {
		if _, ok := inside[id]; !ok {
			delete(z.acc, id)
		}
	}
	return strikes
}
