package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:4207", cfg.Addr())
	require.Equal(t, 4, cfg.Capacity)
	require.Equal(t, 100, cfg.MaxHealth)
	require.Equal(t, time.Second/30, cfg.TickInterval())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CAPACITY", "2")
	t.Setenv("RESPAWN_DELAY", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr())
	require.Equal(t, 2, cfg.Capacity)
	require.Equal(t, 5*time.Second, cfg.RespawnDelay)
}

func TestInvalidValuesRejected(t *testing.T) {
	t.Setenv("CAPACITY", "0")
	_, err := Load()
	require.Error(t, err)
}
