// The server binary runs the authority: the single process whose
// committed state is the source of truth for every participant.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TeamExile/psychic-waddle/internal/config"
	"github.com/TeamExile/psychic-waddle/internal/httpapi"
	"github.com/TeamExile/psychic-waddle/internal/world"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("authority exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := world.New(ctx, world.Config{
		Capacity:     cfg.Capacity,
		SpawnRadius:  cfg.SpawnRadius,
		TickInterval: cfg.TickInterval(),
		MaxHealth:    cfg.MaxHealth,
		InvulnWindow: cfg.InvulnWindow,
		RespawnDelay: cfg.RespawnDelay,
		Cycles:       world.DefaultCycles(),
		Zones:        world.DefaultZones(),
	}, log)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: httpapi.SetupRoutes(w, log)}

	log.Info("authority listening",
		zap.String("addr", cfg.Addr()),
		zap.Int("capacity", cfg.Capacity))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
