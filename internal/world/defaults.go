package world

import (
	"time"

	"github.com/TeamExile/psychic-waddle/internal/hazard"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

// DefaultCycles is the stock arena's periodic hazard: a geyser at the
// center of the spawn circle.
func DefaultCycles() []hazard.CycleConfig {
	return []hazard.CycleConfig{{
		Name:     "geyser",
		Center:   protocol.Vec{},
		Radius:   2,
		Damage:   25,
		Dormant:  6 * time.Second,
		Warning:  2 * time.Second,
		Erupting: time.Second,
		Active:   3 * time.Second,
	}}
}

// DefaultZones is the stock arena's persistent hazard: a miasma pocket
// off to one side.
func DefaultZones() []hazard.ZoneConfig {
	return []hazard.ZoneConfig{{
		Name:     "miasma",
		Center:   protocol.Vec{X: 10, Y: 10},
		Radius:   3,
		Damage:   5,
		Interval: time.Second,
	}}
}
