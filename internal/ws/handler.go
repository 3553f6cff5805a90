// Package ws terminates participant websocket connections on the
// authority: one reader goroutine feeding commands into the world, one
// writer goroutine draining the holder's broadcast outbox.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TeamExile/psychic-waddle/internal/protocol"
	"github.com/TeamExile/psychic-waddle/internal/session"
	"github.com/TeamExile/psychic-waddle/internal/world"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 60 * time.Second
)

func Handler(w *world.World, log *zap.Logger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(rw, r, nil)
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		participantID := uuid.NewString()
		out := make(chan protocol.Broadcast, 64)
		reply := make(chan world.JoinReply, 1)
		w.Inbox() <- world.Join{ParticipantID: participantID, Outbox: out, Reply: reply}
		joined := <-reply
		if joined.Err != nil {
			writeOne(r.Context(), conn, protocol.Broadcast{
				Type:  protocol.EvtRejected,
				Error: joined.Err.Error(),
			})
			if errors.Is(joined.Err, session.ErrCapacityExceeded) {
				conn.Close(websocket.StatusTryAgainLater, "session full")
			}
			return
		}
		defer func() { w.Inbox() <- world.Leave{ParticipantID: participantID} }()

		// Writer: drains the outbox until the world closes it (leave,
		// slow-holder drop or shutdown), then closes the socket so the
		// reader unblocks.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for b := range out {
				if !writeOne(writeCtx, conn, b) {
					return
				}
			}
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		// Reader: every decoded frame becomes a command message. Any
		// transport error, clean or not, means this participant is gone.
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("connection lost",
						zap.String("participant", participantID),
						zap.Error(err))
				}
				return
			}

			cmd, err := protocol.DecodeCommand(data)
			if err != nil {
				// Garbage frames are dropped like any other bad command.
				log.Debug("undecodable command",
					zap.String("participant", participantID),
					zap.Error(err))
				continue
			}
			w.Inbox() <- world.FromParticipant{ParticipantID: participantID, Cmd: cmd}
		}
	}
}

func writeOne(ctx context.Context, conn *websocket.Conn, b protocol.Broadcast) bool {
	payload, err := protocol.EncodeBroadcast(b)
	if err != nil {
		return true // skip the frame, keep the connection
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload) == nil
}
