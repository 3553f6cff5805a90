// The client binary runs a headless participant: it joins the session,
// wanders the arena on its prediction loop and logs what the authority
// replicates to it. Useful for smoke-testing a running authority.
package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/config"
	"github.com/TeamExile/psychic-waddle/internal/protocol"
	"github.com/TeamExile/psychic-waddle/internal/replica"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("participant exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	name := os.Getenv("NAME")
	if name == "" {
		name = "wanderer"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pres := replica.Presentation{
		HealthChanged: func(cur, max int) {
			log.Info("health", zap.Int("current", cur), zap.Int("max", max))
		},
		Damaged: func() { log.Info("ouch") },
		Death:   func() { log.Info("down") },
		HazardState: func(state string, _ time.Duration) {
			log.Info("hazard", zap.String("state", state))
		},
		ShotReplayed: func(id string, _, _ protocol.Vec) {
			log.Info("shot replay", zap.String("entity", id))
		},
	}

	c, err := replica.Dial(ctx, cfg.Bind, cfg.Port, name, pres, log)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Info("joined", zap.String("target", cfg.Addr()))

	// Wander in a slow circle and fire ahead every few seconds.
	steer := time.NewTicker(200 * time.Millisecond)
	defer steer.Stop()
	fire := time.NewTicker(4 * time.Second)
	defer fire.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return nil
		case <-steer.C:
			a := time.Since(start).Seconds() / 4
			c.SetInput(protocol.Vec{X: math.Cos(a), Y: math.Sin(a)})
		case <-fire.C:
			a := time.Since(start).Seconds() / 4
			c.Shoot(protocol.Vec{X: math.Cos(a), Y: math.Sin(a)})
		}
	}
}
