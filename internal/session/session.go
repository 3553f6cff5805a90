// Package session tracks who is in the arena: capacity enforcement, join
// and leave bookkeeping, and deterministic spawn point assignment.
package session

import (
	"errors"
	"math"
	"time"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

var ErrCapacityExceeded = errors.New("session at capacity")

// Member is one connected participant as the directory sees it.
type Member struct {
	ID       string
	EntityID string
	SpawnIdx int
	JoinedAt time.Time
}

// Directory owns the participant roster for a single session. It is plain
// state with no goroutine of its own; the world loop is its only writer.
type Directory struct {
	capacity int
	radius   float64
	points   []protocol.Vec
	cursor   int
	members  map[string]*Member
}

// New builds a directory for at most capacity participants. points may be
// empty, in which case spawns fall on a circle of the given radius.
func New(capacity int, radius float64, points []protocol.Vec) *Directory {
	return &Directory{
		capacity: capacity,
		radius:   radius,
		points:   points,
		members:  make(map[string]*Member),
	}
}

// Join admits a participant and assigns it the next spawn position. The
// spawn cursor is monotonic: it advances on every successful join and is
// never rewound when someone leaves.
func (d *Directory) Join(id string, now time.Time) (protocol.Vec, error) {
	if len(d.members) >= d.capacity {
		return protocol.Vec{}, ErrCapacityExceeded
	}
	idx := d.cursor
	d.cursor++
	d.members[id] = &Member{ID: id, SpawnIdx: idx, JoinedAt: now}
	return d.SpawnPosition(idx), nil
}

// Leave removes a participant. Unknown ids are ignored so transport
// teardown can call this unconditionally.
func (d *Directory) Leave(id string) {
	delete(d.members, id)
}

// BindEntity records which entity a participant owns.
func (d *Directory) BindEntity(id, entityID string) {
	if m, ok := d.members[id]; ok {
		m.EntityID = entityID
	}
}

// Member returns the roster entry for id, or nil.
func (d *Directory) Member(id string) *Member {
	return d.members[id]
}

// Len is the number of active participants.
func (d *Directory) Len() int { return len(d.members) }

// Capacity is the configured maximum.
func (d *Directory) Capacity() int { return d.capacity }

// SpawnPosition maps a spawn index to a position. With explicit points
// configured it wraps over them round-robin; otherwise index i lands on a
// circle at angle i * (360° / capacity).
func (d *Directory) SpawnPosition(index int) protocol.Vec {
	if len(d.points) > 0 {
		return d.points[index%len(d.points)]
	}
	angle := float64(index) * (2 * math.Pi / float64(d.capacity))
	return protocol.Vec{
		X: d.radius * math.Cos(angle),
		Y: d.radius * math.Sin(angle),
	}
}
