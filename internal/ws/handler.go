package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/hub"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
	"github.com/DoyleJ11/whack-a-mole-backend/pkg/types"
)

const (
	writeTimeout = 3 * time.Second

	// DefaultKeepAlive is how often an idle connection is pinged.
	DefaultKeepAlive = 30 * time.Second
)

// Handler serves one websocket per player. Reads never time out, since a
// player may watch a whole round without sending anything; dead peers are
// found by pinging every keepAlive instead (0 disables pings).
func Handler(h *hub.Hub, log *zap.Logger, keepAlive time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb := h.Lookup(r.Context(), code)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		log := log.With(zap.String("lobby", code), zap.String("client", clientID))

		if !lb.Send(r.Context(), lobby.Join{ClientID: clientID, Outbox: out}) {
			return
		}
		defer lb.Send(context.Background(), lobby.Leave{ClientID: clientID})
		log.Debug("client joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				if err := writeJSON(writeCtx, conn, types.StateSnapshot(snap.Version, snap.State)); err != nil {
					return
				}
				if snap.RoundEnded {
					_ = writeJSON(writeCtx, conn, types.RoundEnded(snap.State.Score))
				}
			}
			// Lobby closed our outbox: either it shut down or we were too slow.
			conn.Close(websocket.StatusGoingAway, "lobby closed")
		}()

		if keepAlive > 0 {
			go ping(writeCtx, conn, keepAlive, log)
		}

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client left")
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeJSON(r.Context(), conn, types.Error("bad json"))
				continue
			}

			msg, ok := toLobbyMsg(cm)
			if !ok {
				_ = writeJSON(r.Context(), conn, types.Error("unknown type"))
				continue
			}

			if !lb.Send(r.Context(), msg) {
				return
			}
		}
	}
}

// toLobbyMsg filters client input; a SelectCell without a cell id is rejected here.
func toLobbyMsg(m types.ClientMessage) (lobby.Msg, bool) {
	switch m.Type {
	case types.MsgStart:
		return lobby.Start{}, true
	case types.MsgSelectCell:
		if m.CellID == nil {
			return nil, false
		}
		return lobby.Select{CellID: *m.CellID}, true
	default:
		return nil, false
	}
}

// ping closes the connection once a ping goes unanswered for a full interval.
// Pongs are read by the reader loop, which is always running.
func ping(ctx context.Context, conn *websocket.Conn, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, every)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Debug("ping failed", zap.Error(err))
					conn.Close(websocket.StatusPolicyViolation, "ping timeout")
				}
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
