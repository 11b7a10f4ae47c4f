package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, lobby.Options{})
	reply := make(chan *lobby.Lobby, 1)

	h.Inbox() <- CreateLobby{Code: "ZED123", Reply: reply}
	lb1 := <-reply

	h.Inbox() <- GetLobby{Code: "ZED123", Reply: reply}
	lb2 := <-reply

	if lb1 == nil || lb2 == nil || lb1 != lb2 {
		t.Fatalf("expected same lobby pointer")
	}
}

func TestHub_Create_RejectsTakenCode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, lobby.Options{})

	lb, err := h.Create(ctx, "MOLE02")
	require.NoError(t, err)
	require.NotNil(t, lb)

	again, err := h.Create(ctx, "MOLE02")
	assert.ErrorIs(t, err, ErrCodeTaken)
	assert.Nil(t, again)
	assert.Same(t, lb, h.Lookup(ctx, "MOLE02"))
}

func TestHub_Create_AfterShutdown(t *testing.T) {
	h := NewHub(context.Background(), lobby.Options{})
	h.Inbox() <- ShutdownHub{}
	<-h.ctx.Done()

	_, err := h.Create(context.Background(), "LATE01")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_EnsureCreatesOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, lobby.Options{})

	assert.Nil(t, h.Lookup(ctx, "MOLE01"))

	lb1 := h.Ensure(ctx, "MOLE01")
	lb2 := h.Ensure(ctx, "MOLE01")
	require.NotNil(t, lb1)
	assert.Same(t, lb1, lb2)
	assert.Same(t, lb1, h.Lookup(ctx, "MOLE01"))
}

func TestHub_Remove_ShutsLobbyDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, lobby.Options{})

	lb := h.Ensure(ctx, "GONE42")
	require.NotNil(t, lb)

	require.True(t, h.Remove(ctx, "GONE42"))

	select {
	case <-lb.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("removed lobby is still running")
	}
	assert.Nil(t, h.Lookup(ctx, "GONE42"))
}

func TestHub_Shutdown_StopsLobbies(t *testing.T) {
	h := NewHub(context.Background(), lobby.Options{})
	lb := h.Ensure(context.Background(), "BYE999")
	require.NotNil(t, lb)

	h.Inbox() <- ShutdownHub{}

	select {
	case <-lb.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("lobby outlived the hub")
	}
	assert.Nil(t, h.Lookup(context.Background(), "BYE999"))
}

func TestHub_Remove_ReturnsOnceHubIsGone(t *testing.T) {
	h := NewHub(context.Background(), lobby.Options{})
	h.Inbox() <- ShutdownHub{}
	<-h.ctx.Done()

	// fill the inbox so a bare send would block forever
	for i := 0; i < cap(h.inbox); i++ {
		h.inbox <- GetLobby{Code: "X", Reply: make(chan *lobby.Lobby, 1)}
	}

	done := make(chan bool, 1)
	go func() { done <- h.Remove(context.Background(), "ANY000") }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("Remove blocked on a stopped hub")
	}
}
