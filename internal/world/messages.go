package world

import (
	"time"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

type Msg interface{ isWorldMsg() }

// Join registers a participant. Reply carries the owned entity id, or the
// rejection error; on rejection nothing is spawned and no holder is
// registered.
type Join struct {
	ParticipantID string
	Outbox        chan protocol.Broadcast
	Reply         chan JoinReply
}

type JoinReply struct {
	EntityID string
	Err      error
}

// Leave tears down a participant: its entity despawns and any of its
// commands still in the inbox are dropped when they surface.
type Leave struct{ ParticipantID string }

// FromParticipant delivers one command. At-most-once: the world never
// acknowledges and freely drops what it cannot apply.
type FromParticipant struct {
	ParticipantID string
	Cmd           protocol.Command
}

// TransferOwnership reassigns an entity to another joined participant.
// If the target already owns an avatar the two participants swap.
// Processed in the loop, so the swap is atomic for everyone.
type TransferOwnership struct {
	EntityID string
	To       string
	Reply    chan error
}

// Tick advances the simulation clock. The run loop feeds these from its
// ticker; tests inject them directly for determinism.
type Tick struct{ DT time.Duration }

// GetView exposes a consistent read of the world for /status and tests.
type GetView struct{ Reply chan View }

type Shutdown struct{}

func (Join) isWorldMsg()              {}
func (Leave) isWorldMsg()             {}
func (FromParticipant) isWorldMsg()   {}
func (TransferOwnership) isWorldMsg() {}
func (Tick) isWorldMsg()              {}
func (GetView) isWorldMsg()           {}
func (Shutdown) isWorldMsg()          {}

type View struct {
	Clock        time.Duration `json:"clock"`
	Participants int           `json:"participants"`
	Capacity     int           `json:"capacity"`
	Entities     []EntityView  `json:"entities"`
	Hazards      []HazardView  `json:"hazards"`
}

type EntityView struct {
	ID        string              `json:"id"`
	Kind      protocol.EntityKind `json:"kind"`
	Owner     string              `json:"owner,omitempty"`
	Identity  string              `json:"identity,omitempty"`
	Pos       protocol.Vec        `json:"pos"`
	Health    int                 `json:"health,omitempty"`
	MaxHealth int                 `json:"max_health,omitempty"`
	Alive     bool                `json:"alive"`
}

type HazardView struct {
	Name    string        `json:"name"`
	State   string        `json:"state"`
	Elapsed time.Duration `json:"elapsed"`
}
