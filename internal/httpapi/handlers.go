package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/TeamExile/psychic-waddle/internal/world"
)

// Status returns an operator view of the live session. It reads through
// the world loop, so the snapshot is always internally consistent.
func Status(w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		reply := make(chan world.View, 1)
		w.Inbox() <- world.GetView{Reply: reply}

		select {
		case v := <-reply:
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(v)
		case <-time.After(2 * time.Second):
			http.Error(rw, "world loop unresponsive", http.StatusServiceUnavailable)
		case <-r.Context().Done():
		}
	}
}

func Healthz(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusOK)
}
