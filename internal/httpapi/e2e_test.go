package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
	"github.com/TeamExile/psychic-waddle/internal/replica"
	"github.com/TeamExile/psychic-waddle/internal/world"
)

func startAuthority(t *testing.T, capacity int) (string, int, *world.World) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w := world.New(ctx, world.Config{
		Capacity:     capacity,
		SpawnRadius:  6,
		TickInterval: 10 * time.Millisecond,
		MaxHealth:    100,
		InvulnWindow: 500 * time.Millisecond,
		RespawnDelay: 3 * time.Second,
	}, zap.NewNop())

	srv := httptest.NewServer(SetupRoutes(w, zap.NewNop()))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, w
}

func TestParticipantsSeeEachOther(t *testing.T) {
	host, port, _ := startAuthority(t, 4)
	ctx := context.Background()
	log := zap.NewNop()

	c1, err := replica.Dial(ctx, host, port, "alice", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c1.Close()

	c2, err := replica.Dial(ctx, host, port, "bob", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c2.Close()

	for _, c := range []*replica.Client{c1, c2} {
		require.Eventually(t, func() bool {
			s, err := c.Inspect()
			return err == nil && s.You != "" && s.OwnEntity != "" && s.Avatars == 2
		}, 2*time.Second, 10*time.Millisecond)
	}
}

func TestJoinBeyondCapacityIsRejectedAtDial(t *testing.T) {
	host, port, _ := startAuthority(t, 1)
	ctx := context.Background()
	log := zap.NewNop()

	c1, err := replica.Dial(ctx, host, port, "alice", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c1.Close()

	_, err = replica.Dial(ctx, host, port, "late", replica.Presentation{}, log)
	require.True(t, errors.Is(err, replica.ErrRejected))
}

func TestShotReplaysOnTheOtherHolder(t *testing.T) {
	host, port, _ := startAuthority(t, 4)
	ctx := context.Background()
	log := zap.NewNop()

	c1, err := replica.Dial(ctx, host, port, "alice", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c1.Close()

	replays := make(chan string, 8)
	c2, err := replica.Dial(ctx, host, port, "bob", replica.Presentation{
		ShotReplayed: func(id string, _, _ protocol.Vec) { replays <- id },
	}, log)
	require.NoError(t, err)
	defer c2.Close()

	require.Eventually(t, func() bool {
		s, err := c2.Inspect()
		return err == nil && s.Avatars == 2
	}, 2*time.Second, 10*time.Millisecond)

	s1, err := c1.Inspect()
	require.NoError(t, err)
	c1.Shoot(protocol.Vec{X: 1})

	select {
	case id := <-replays:
		require.Equal(t, s1.OwnEntity, id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shot replay")
	}
}

func TestStatusReportsLiveSession(t *testing.T) {
	host, port, _ := startAuthority(t, 4)
	ctx := context.Background()
	log := zap.NewNop()

	c1, err := replica.Dial(ctx, host, port, "alice", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c1.Close()

	resp, err := http.Get("http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v world.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	require.Equal(t, 1, v.Participants)
	require.Equal(t, 4, v.Capacity)
}

func TestDisconnectDespawnsForRemainingHolders(t *testing.T) {
	host, port, _ := startAuthority(t, 4)
	ctx := context.Background()
	log := zap.NewNop()

	c1, err := replica.Dial(ctx, host, port, "alice", replica.Presentation{}, log)
	require.NoError(t, err)

	c2, err := replica.Dial(ctx, host, port, "bob", replica.Presentation{}, log)
	require.NoError(t, err)
	defer c2.Close()

	require.Eventually(t, func() bool {
		s, err := c2.Inspect()
		return err == nil && s.Avatars == 2
	}, 2*time.Second, 10*time.Millisecond)

	c1.Close()

	require.Eventually(t, func() bool {
		s, err := c2.Inspect()
		return err == nil && s.Avatars == 1
	}, 2*time.Second, 10*time.Millisecond)
}
