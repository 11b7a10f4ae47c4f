package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/engine"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/hub"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
	"github.com/DoyleJ11/whack-a-mole-backend/pkg/types"
)

type firstEmpty struct{}

func (firstEmpty) IntN(int) int { return 0 }

func newRouter(t *testing.T, opts lobby.Options) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRoutes(hub.NewHub(ctx, opts), zap.NewNop(), 0)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) types.Snapshot {
	t.Helper()
	var snap types.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func createLobbyViaAPI(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/lobbies")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Code, 6)
	return body.Code
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
}

func TestHealthz(t *testing.T) {
	r := newRouter(t, lobby.Options{})
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz").Code)
}

func TestLobbyLifecycle(t *testing.T) {
	r := newRouter(t, lobby.Options{TimerInterval: time.Hour, SpawnInterval: time.Hour})
	code := createLobbyViaAPI(t, r)

	rec := do(t, r, http.MethodGet, "/lobbies/"+code)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, code, snap.Code)
	assert.False(t, snap.State.Active)

	rec = do(t, r, http.MethodPost, "/lobbies/"+code+"/start")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	assert.True(t, snap.State.Active)
	assert.Equal(t, engine.DefaultRoundSeconds, snap.State.Remaining)
	assert.Equal(t, 1, snap.Version)

	// miss on an empty cell
	rec = do(t, r, http.MethodPost, "/lobbies/"+code+"/cells/3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeSnapshot(t, rec).State.Score)

	// unknown id is a miss too
	rec = do(t, r, http.MethodPost, "/lobbies/"+code+"/cells/400")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/lobbies/"+code+"/cells/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodDelete, "/lobbies/"+code)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.Eventually(t, func() bool {
		return do(t, r, http.MethodGet, "/lobbies/"+code).Code == http.StatusNotFound
	}, time.Second, 5*time.Millisecond)
}

func TestSelectCell_WhacksSpawnedMole(t *testing.T) {
	r := newRouter(t, lobby.Options{
		Rand:          firstEmpty{},
		TimerInterval: time.Hour,
		SpawnInterval: 5 * time.Millisecond,
	})
	code := createLobbyViaAPI(t, r)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/lobbies/"+code+"/start").Code)

	require.Eventually(t, func() bool {
		var snap types.Snapshot
		if err := json.Unmarshal(do(t, r, http.MethodGet, "/lobbies/"+code).Body.Bytes(), &snap); err != nil {
			return false
		}
		return len(snap.State.Cells) > 0 && snap.State.Cells[0].Status == engine.StatusMole
	}, time.Second, 5*time.Millisecond)

	rec := do(t, r, http.MethodPost, "/lobbies/"+code+"/cells/0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeSnapshot(t, rec).State.Score)
}

func TestUnknownLobby(t *testing.T) {
	r := newRouter(t, lobby.Options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/lobbies/NOPE00"},
		{http.MethodPost, "/lobbies/NOPE00/start"},
		{http.MethodPost, "/lobbies/NOPE00/cells/1"},
		{http.MethodDelete, "/lobbies/NOPE00"},
	} {
		rec := do(t, r, tc.method, tc.path)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)

		var msg types.ServerMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.Equal(t, types.MsgError, msg.Type)
	}
}

func codes(list ...string) func() (string, error) {
	return func() (string, error) {
		c := list[0]
		if len(list) > 1 {
			list = list[1:]
		}
		return c, nil
	}
}

func TestCreateLobby_RetriesOnTakenCode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, lobby.Options{})
	create := createLobby(h, zap.NewNop(), codes("AAAAAA", "AAAAAA", "BBBBBB"))

	rec := httptest.NewRecorder()
	create(rec, httptest.NewRequest(http.MethodPost, "/lobbies", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"code":"AAAAAA"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	create(rec, httptest.NewRequest(http.MethodPost, "/lobbies", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"code":"BBBBBB"}`, rec.Body.String())

	assert.NotNil(t, h.Lookup(ctx, "BBBBBB"))
}

func TestCreateLobby_GivesUpWhenEveryCodeIsTaken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, lobby.Options{})
	_, err := h.Create(ctx, "SAME00")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	createLobby(h, zap.NewNop(), codes("SAME00"))(rec, httptest.NewRequest(http.MethodPost, "/lobbies", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
