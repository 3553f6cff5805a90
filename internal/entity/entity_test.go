package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
)

func TestSetCommitsInOrderWithVersions(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, true)
	v := Define(e, "score", WriterAuthority, 0)

	var commits []protocol.VarSnapshot
	e.OnCommit(func(entityID, name string, version uint64, value json.RawMessage) {
		require.Equal(t, "e1", entityID)
		commits = append(commits, protocol.VarSnapshot{Name: name, Version: version, Value: value})
	})

	require.NoError(t, v.Set(10))
	require.NoError(t, v.Set(20))

	require.Len(t, commits, 2)
	require.Equal(t, uint64(1), commits[0].Version)
	require.Equal(t, uint64(2), commits[1].Version)
	require.JSONEq(t, "20", string(commits[1].Value))
	require.Equal(t, 20, v.Get())
}

func TestReplicaSetIsRejected(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, false)
	v := Define(e, "score", WriterAuthority, 0)

	err := v.Set(10)
	require.True(t, errors.Is(err, ErrMissingAuthority))
	require.Equal(t, 0, v.Get())
	require.Equal(t, uint64(0), v.Version())
}

func TestApplyChangeIsIdempotentPerVersion(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, false)
	v := Define(e, "score", WriterAuthority, 0)

	var seen []int
	v.Observe(func(val int) { seen = append(seen, val) })

	applied, err := e.ApplyChange("score", 1, json.RawMessage("10"))
	require.NoError(t, err)
	require.True(t, applied)

	// Same version again: no-op, no re-notification.
	applied, err = e.ApplyChange("score", 1, json.RawMessage("10"))
	require.NoError(t, err)
	require.False(t, applied)

	// An older version arriving late is also dropped.
	applied, err = e.ApplyChange("score", 0, json.RawMessage("5"))
	require.NoError(t, err)
	require.False(t, applied)

	require.Equal(t, []int{10}, seen)
	require.Equal(t, 10, v.Get())
}

func TestApplyChangeUnknownVariable(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, false)
	_, err := e.ApplyChange("nope", 1, json.RawMessage("1"))
	require.True(t, errors.Is(err, ErrUnknownVariable))
}

func TestObserversRunInRegistrationOrder(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, true)
	v := Define(e, "score", WriterAuthority, 0)

	var order []string
	v.Observe(func(int) { order = append(order, "first") })
	v.Observe(func(int) { order = append(order, "second") })

	require.NoError(t, v.Set(1))
	require.Equal(t, []string{"first", "second"}, order)
}

func TestTeardownDropsObservers(t *testing.T) {
	e := New("e1", protocol.KindAvatar, "p1", protocol.Vec{}, false)
	v := Define(e, "score", WriterAuthority, 0)

	calls := 0
	v.Observe(func(int) { calls++ })

	e.Teardown()

	_, err := e.ApplyChange("score", 1, json.RawMessage("10"))
	require.NoError(t, err)
	require.Equal(t, 0, calls)
}

func TestSnapshotPreservesDefinitionOrder(t *testing.T) {
	a := NewAvatar("e1", "p1", protocol.Vec{X: 3}, 100, true)
	require.NoError(t, a.Identity.Set("rook"))

	snaps, err := a.Snapshot()
	require.NoError(t, err)

	names := make([]string, len(snaps))
	for i, s := range snaps {
		names[i] = s.Name
	}
	require.Equal(t, []string{
		protocol.VarIdentity, protocol.VarPosition, protocol.VarFacing, protocol.VarHealth,
	}, names)
	require.Equal(t, uint64(1), snaps[0].Version)
	require.JSONEq(t, `"rook"`, string(snaps[0].Value))
	require.JSONEq(t, "100", string(snaps[3].Value))
}

func TestAvatarFacingHoldsFractionalAngles(t *testing.T) {
	a := NewAvatar("e1", "p1", protocol.Vec{}, 100, true)
	require.Zero(t, a.Facing.Get())

	require.NoError(t, a.Facing.Set(1.25))
	require.Equal(t, 1.25, a.Facing.Get())

	snaps, err := a.Snapshot()
	require.NoError(t, err)
	require.JSONEq(t, "1.25", string(snaps[2].Value))
}

func TestTransferOwnerIsExclusive(t *testing.T) {
	a := NewAvatar("e1", "p1", protocol.Vec{}, 100, true)
	require.Equal(t, "p1", a.Owner())

	require.NoError(t, a.TransferOwner("p2"))
	require.Equal(t, "p2", a.Owner())

	// Replicas cannot transfer.
	r := NewAvatar("e1", "p1", protocol.Vec{}, 100, false)
	err := r.TransferOwner("p2")
	require.True(t, errors.Is(err, ErrMissingAuthority))
	require.Equal(t, "p1", r.Owner())
}
