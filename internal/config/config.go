// Package config loads process configuration from the environment, with a
// .env file picked up when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Bind string `env:"BIND" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"4207"`

	Capacity    int     `env:"CAPACITY" envDefault:"4"`
	SpawnRadius float64 `env:"SPAWN_RADIUS" envDefault:"6"`
	TickHz      int     `env:"TICK_HZ" envDefault:"30"`

	MaxHealth    int           `env:"MAX_HEALTH" envDefault:"100"`
	InvulnWindow time.Duration `env:"INVULN_WINDOW" envDefault:"500ms"`
	RespawnDelay time.Duration `env:"RESPAWN_DELAY" envDefault:"3s"`
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Capacity < 1 {
		return Config{}, fmt.Errorf("parse config: capacity must be at least 1")
	}
	if cfg.TickHz < 1 {
		return Config{}, fmt.Errorf("parse config: tick rate must be at least 1Hz")
	}
	return cfg, nil
}

// TickInterval is the simulation step the configured rate implies.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

// Addr is the host:port the authority binds, or a participant dials.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
