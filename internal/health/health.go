// Package health holds the per-entity damage state machine: damage with an
// invulnerability window, single-shot death, and timer-driven respawn.
// All times are simulation-clock durations fed in by the caller, so the
// package never reads the wall clock.
package health

import "time"

type EventType string

const (
	EvtDamaged   EventType = "Damaged"
	EvtHealed    EventType = "Healed"
	EvtDied      EventType = "Died"
	EvtRespawned EventType = "Respawned"
)

// Event describes one committed health transition. The world loop turns
// these into variable writes and cosmetic broadcasts.
type Event struct {
	Type    EventType
	Amount  int
	Current int
	Source  string
}

// Record is one entity's health. Mutated only by the authority loop.
type Record struct {
	Current int
	Max     int
	Alive   bool

	invulnWindow time.Duration
	respawnDelay time.Duration

	damagedOnce  bool
	lastDamageAt time.Duration
	respawnDue   bool
	respawnAt    time.Duration
}

// NewRecord starts at full health.
func NewRecord(max int, invulnWindow, respawnDelay time.Duration) *Record {
	return &Record{
		Current:      max,
		Max:          max,
		Alive:        true,
		invulnWindow: invulnWindow,
		respawnDelay: respawnDelay,
	}
}

// ApplyDamage commits a hit at simulation time now. No-op when already
// dead, or when the last hit was under the invulnerability window ago —
// that window is what keeps two overlapping sources in one tick from both
// landing. Death fires at most once per life.
func (r *Record) ApplyDamage(now time.Duration, amount int, source string) []Event {
	if !r.Alive {
		return nil
	}
	if r.damagedOnce && now-r.lastDamageAt < r.invulnWindow {
		return nil
	}

	r.Current -= amount
	if r.Current < 0 {
		r.Current = 0
	}
	r.damagedOnce = true
	r.lastDamageAt = now

	events := []Event{{Type: EvtDamaged, Amount: amount, Current: r.Current, Source: source}}
	if r.Current == 0 {
		r.Alive = false
		r.respawnDue = true
		r.respawnAt = now + r.respawnDelay
		events = append(events, Event{Type: EvtDied, Source: source})
	}
	return events
}

// Heal restores health, clamped to max. No-op on the dead.
func (r *Record) Heal(amount int) []Event {
	if !r.Alive || amount <= 0 {
		return nil
	}
	before := r.Current
	r.Current += amount
	if r.Current > r.Max {
		r.Current = r.Max
	}
	if r.Current == before {
		return nil
	}
	return []Event{{Type: EvtHealed, Amount: r.Current - before, Current: r.Current}}
}

// Advance runs the respawn timer. Respawn restores full health and clears
// the dead flag; it deliberately does not move the entity.
func (r *Record) Advance(now time.Duration) []Event {
	if !r.respawnDue || now < r.respawnAt {
		return nil
	}
	r.respawnDue = false
	r.Alive = true
	r.Current = r.Max
	r.damagedOnce = false
	return []Event{{Type: EvtRespawned, Current: r.Current}}
}
