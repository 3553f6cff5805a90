// Package hazard implements the arena's threat machines. Both variants
// advance only on the authority; holders see transitions as replicated
// state writes and must never feed rendered state back into logic.
package hazard

import (
	"time"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// Target is a damageable entity as seen by a hazard for one tick.
type Target struct {
	ID    string
	Pos   protocol.Vec
	Alive bool
}

// Strike is one damage application decided this tick.
type Strike struct {
	TargetID string
	Amount   int
}

// Machine is the capability set shared by hazard variants. Advance moves
// the machine by dt against the current target picture and returns the
// strikes to apply; State reports the visual state and time spent in it.
type Machine interface {
	Name() string
	Advance(dt time.Duration, targets []Target) []Strike
	State() (string, time.Duration)
}

func inRange(center protocol.Vec, radius float64, pos protocol.Vec) bool {
	dx, dy := pos.X-center.X, pos.Y-center.Y
	return dx*dx+dy*dy <= radius*radius
}
