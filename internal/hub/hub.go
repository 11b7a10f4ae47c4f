package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
)

var ErrCodeTaken = errors.New("lobby code already in use")
var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

// CreateLobby replies nil when Code is already taken.
type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby shuts the lobby down and forgets its code.
type RemoveLobby struct {
	Code string
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    lobby.Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// NewHub starts the registry. Every lobby it creates is built from opts.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Lookup fetches a lobby by code; nil when unknown or the hub is gone.
func (h *Hub) Lookup(ctx context.Context, code string) *lobby.Lobby {
	return h.ask(ctx, func(reply chan *lobby.Lobby) HubMsg { return GetLobby{Code: code, Reply: reply} })
}

// Create registers a new lobby under code. It fails with ErrCodeTaken
// instead of handing back an existing lobby.
func (h *Hub) Create(ctx context.Context, code string) (*lobby.Lobby, error) {
	lb := h.ask(ctx, func(reply chan *lobby.Lobby) HubMsg { return CreateLobby{Code: code, Reply: reply} })
	if lb != nil {
		return lb, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.ctx.Err() != nil {
		return nil, ErrHubClosed
	}
	return nil, ErrCodeTaken
}

// Remove asks the hub to shut down and forget the lobby for code. It reports
// false when the request could not be delivered.
func (h *Hub) Remove(ctx context.Context, code string) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- RemoveLobby{Code: code}:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// Ensure returns the lobby for code, creating it when missing.
func (h *Hub) Ensure(ctx context.Context, code string) *lobby.Lobby {
	return h.ask(ctx, func(reply chan *lobby.Lobby) HubMsg { return EnsureLobby{Code: code, Reply: reply} })
}

func (h *Hub) ask(ctx context.Context, build func(chan *lobby.Lobby) HubMsg) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- build(reply):
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.lobbies[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.create(msg.Code)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.create(msg.Code)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Send(h.ctx, lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("code", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string) *lobby.Lobby {
	opts := h.opts
	opts.Logger = h.log.With(zap.String("lobby", code))
	lb := lobby.NewLobby(h.ctx, opts)
	h.lobbies[code] = lb
	h.log.Info("lobby created", zap.String("code", code))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Send(context.Background(), lobby.Shutdown{})
	}
	clear(h.lobbies)
	h.cancel()
}
