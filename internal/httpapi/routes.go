package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/hub"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/ws"
)

// SetupRoutes wires the API. keepAlive is the websocket ping interval.
func SetupRoutes(h *hub.Hub, log *zap.Logger, keepAlive time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log, keepAlive))

	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", CreateLobby(h, log))
		r.Get("/{code}", GetLobby(h))
		r.Delete("/{code}", DeleteLobby(h))
		r.Post("/{code}/start", StartRound(h))
		r.Post("/{code}/cells/{id}", SelectCell(h))
	})
	return r
}

// requestLogger logs one line per request. Websocket upgrades are logged when
// the connection ends.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
