package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	invuln  = 500 * time.Millisecond
	respawn = 3 * time.Second
)

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDamageDecrementsAndEmitsOnce(t *testing.T) {
	r := NewRecord(100, invuln, respawn)

	events := r.ApplyDamage(0, 30, "geyser")
	require.Equal(t, []EventType{EvtDamaged}, eventTypes(events))
	require.Equal(t, 70, r.Current)
	require.Equal(t, 30, events[0].Amount)
}

func TestInvulnerabilityWindowBlocksSecondHit(t *testing.T) {
	r := NewRecord(100, invuln, respawn)

	r.ApplyDamage(time.Second, 30, "a")
	// A second source landing in the same window is absorbed.
	events := r.ApplyDamage(time.Second+invuln/2, 30, "b")
	require.Empty(t, events)
	require.Equal(t, 70, r.Current)

	// Once the window passes, damage lands again.
	events = r.ApplyDamage(time.Second+invuln, 30, "b")
	require.Equal(t, []EventType{EvtDamaged}, eventTypes(events))
	require.Equal(t, 40, r.Current)
}

func TestFirstEverHitIsNotAbsorbed(t *testing.T) {
	// The window measures time since the last hit; a record that has never
	// been hit must take damage even at simulation time zero.
	r := NewRecord(100, invuln, respawn)
	events := r.ApplyDamage(0, 10, "zone")
	require.Len(t, events, 1)
	require.Equal(t, 90, r.Current)
}

func TestDeathExactlyOnceThenRespawn(t *testing.T) {
	r := NewRecord(100, invuln, respawn)

	now := time.Duration(0)
	var died int
	for i := 0; i < 10 && r.Alive; i++ {
		for _, e := range r.ApplyDamage(now, 40, "geyser") {
			if e.Type == EvtDied {
				died++
			}
		}
		now += invuln
	}
	require.Equal(t, 1, died)
	require.False(t, r.Alive)
	require.Equal(t, 0, r.Current)

	// Further damage while dead is ignored.
	require.Empty(t, r.ApplyDamage(now, 40, "geyser"))

	// Nothing before the deadline.
	require.Empty(t, r.Advance(now))
	deadline := now - invuln + respawn

	events := r.Advance(deadline)
	require.Equal(t, []EventType{EvtRespawned}, eventTypes(events))
	require.True(t, r.Alive)
	require.Equal(t, 100, r.Current)

	// Advance is single-shot per death.
	require.Empty(t, r.Advance(deadline+time.Second))
}

func TestHealClampsAndIgnoresDead(t *testing.T) {
	r := NewRecord(100, invuln, respawn)
	r.ApplyDamage(0, 30, "x")

	events := r.Heal(50)
	require.Equal(t, []EventType{EvtHealed}, eventTypes(events))
	require.Equal(t, 100, r.Current)
	require.Equal(t, 30, events[0].Amount)

	// Already full: nothing to report.
	require.Empty(t, r.Heal(10))

	r.ApplyDamage(time.Hour, 200, "x")
	require.False(t, r.Alive)
	require.Empty(t, r.Heal(50))
	require.Equal(t, 0, r.Current)
}
