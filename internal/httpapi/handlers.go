package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/hub"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
	"github.com/DoyleJ11/whack-a-mole-backend/pkg/types"
)

const maxCodeAttempts = 8

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return createLobby(h, log, GenerateCode)
}

func createLobby(h *hub.Hub, log *zap.Logger, generate func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < maxCodeAttempts; i++ {
			code, err := generate()
			if err != nil {
				log.Error("generate lobby code", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}

			_, err = h.Create(r.Context(), code)
			if errors.Is(err, hub.ErrCodeTaken) {
				log.Debug("collision on code, regenerating", zap.String("code", code))
				continue
			}
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "failed to create lobby")
				return
			}

			writeJSON(w, http.StatusCreated, struct {
				Code string `json:"code"`
			}{Code: code})
			return
		}
		writeError(w, http.StatusServiceUnavailable, "no free lobby code")
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb, ok := lookup(w, r, h, code)
		if !ok {
			return
		}
		view, ok := lb.View(r.Context())
		if !ok {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		writeJSON(w, http.StatusOK, types.Snapshot{Version: view.Version, Code: code, State: view.State})
	}
}

// StartRound is the one-shot start trigger; it also restarts a running round.
func StartRound(h *hub.Hub) http.HandlerFunc {
	return sendAndView(h, func(r *http.Request) (lobby.Msg, bool) {
		return lobby.Start{}, true
	})
}

// SelectCell rejects ids that are not integers; unknown integer ids are a harmless miss.
func SelectCell(h *hub.Hub) http.HandlerFunc {
	return sendAndView(h, func(r *http.Request) (lobby.Msg, bool) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			return nil, false
		}
		return lobby.Select{CellID: id}, true
	})
}

func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, ok := lookup(w, r, h, code); !ok {
			return
		}
		if !h.Remove(r.Context(), code) {
			writeError(w, http.StatusServiceUnavailable, "hub unavailable")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// sendAndView delivers one message to the lobby and answers with the state
// the lobby holds right after handling it.
func sendAndView(h *hub.Hub, parse func(*http.Request) (lobby.Msg, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, ok := parse(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid cell id")
			return
		}
		code := chi.URLParam(r, "code")
		lb, ok := lookup(w, r, h, code)
		if !ok {
			return
		}
		if !lb.Send(r.Context(), msg) {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		view, ok := lb.View(r.Context())
		if !ok {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		writeJSON(w, http.StatusOK, types.Snapshot{Version: view.Version, Code: code, State: view.State})
	}
}

func lookup(w http.ResponseWriter, r *http.Request, h *hub.Hub, code string) (*lobby.Lobby, bool) {
	lb := h.Lookup(r.Context(), code)
	if lb == nil {
		writeError(w, http.StatusNotFound, "lobby not found")
		return nil, false
	}
	return lb, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.Error(msg))
}
