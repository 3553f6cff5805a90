package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/world"
	"github.com/TeamExile/psychic-waddle/internal/ws"
)

func SetupRoutes(w *world.World, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/status", Status(w))
	r.Get("/ws", ws.Handler(w, log))
	return r
}
