package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/engine"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/schedule"
)

type Msg interface{ isLobbyMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Start begins a new round, abandoning the current one if it is still running.
type Start struct{}

func (Start) isLobbyMsg() {}

type Select struct{ CellID int }

func (Select) isLobbyMsg() {}

// TimerFired and SpawnFired are posted by the round's periodic triggers.
// Gen identifies the round that registered them.
type TimerFired struct{ Gen int }

func (TimerFired) isLobbyMsg() {}

type SpawnFired struct{ Gen int }

func (SpawnFired) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is a full copy of the round; clients redraw from scratch on each one.
type Snapshot struct {
	Version    int
	State      engine.Round
	RoundEnded bool
}

type View struct {
	Version    int
	Gen        int
	NumClients int
	Rules      engine.Rules
	State      engine.Round
}

type Options struct {
	Rules         engine.Rules
	Rand          engine.RandSource
	Scheduler     schedule.Scheduler
	TimerInterval time.Duration
	SpawnInterval time.Duration
	Logger        *zap.Logger
}

type Lobby struct {
	inbox   chan Msg
	engine  *engine.Engine
	version int
	gen     int
	clients map[string]chan Snapshot

	sched         schedule.Scheduler
	timerInterval time.Duration
	spawnInterval time.Duration
	timerTick     schedule.Handle
	spawnTick     schedule.Handle

	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if opts.TimerInterval <= 0 {
		opts.TimerInterval = time.Second
	}
	if opts.SpawnInterval <= 0 {
		opts.SpawnInterval = time.Second
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewTickerScheduler(ctx)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Lobby{
		inbox:         make(chan Msg, 64), // Small buffer
		engine:        engine.NewEngine(opts.Rules, opts.Rand),
		clients:       make(map[string]chan Snapshot),
		sched:         opts.Scheduler,
		timerInterval: opts.TimerInterval,
		spawnInterval: opts.SpawnInterval,
		log:           opts.Logger,
		ctx:           ctx,
		cancel:        cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: l.version, State: l.engine.State()}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch) // releases the client's writer
					delete(l.clients, msg.ClientID)
				}

			case Start:
				l.startRound()

			case Select:
				l.apply(engine.Command{Type: engine.CmdSelectCell, CellID: msg.CellID})

			case TimerFired:
				if msg.Gen != l.gen {
					break // left over from a superseded round
				}
				l.apply(engine.Command{Type: engine.CmdTimerTick})

			case SpawnFired:
				if msg.Gen != l.gen {
					break
				}
				l.apply(engine.Command{Type: engine.CmdSpawnTick})

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					Gen:        l.gen,
					NumClients: len(l.clients),
					Rules:      l.engine.Rules(),
					State:      l.engine.State(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// startRound cancels the old round's triggers before touching the board, so
// nothing registered for the previous round can land on the new one.
func (l *Lobby) startRound() {
	l.stopTicks()
	l.gen++
	gen := l.gen

	l.apply(engine.Command{Type: engine.CmdStartRound})

	l.timerTick = l.sched.Every(l.timerInterval, func() { l.post(TimerFired{Gen: gen}) })
	l.spawnTick = l.sched.Every(l.spawnInterval, func() { l.post(SpawnFired{Gen: gen}) })
	rules := l.engine.Rules()
	l.log.Info("round started",
		zap.Int("gen", gen),
		zap.Int("round_seconds", rules.RoundSeconds),
		zap.Int("max_moles", rules.MaxMoles),
	)
}

func (l *Lobby) apply(cmd engine.Command) {
	events, err := l.engine.Apply(cmd)
	if err != nil {
		l.log.Error("engine rejected command", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	ended := engine.ContainsEvent(events, engine.EvtRoundEnded)
	if ended {
		l.stopTicks()
		l.gen++
		l.log.Info("round ended", zap.Int("score", l.engine.State().Score))
	}

	l.version++
	l.broadcast(Snapshot{Version: l.version, State: l.engine.State(), RoundEnded: ended})
}

// post delivers a trigger fire without blocking forever once the lobby is gone.
func (l *Lobby) post(m Msg) { l.Send(l.ctx, m) }

func (l *Lobby) stopTicks() {
	if l.timerTick != nil {
		l.timerTick.Stop()
		l.timerTick = nil
	}
	if l.spawnTick != nil {
		l.spawnTick.Stop()
		l.spawnTick = nil
	}
}

func (l *Lobby) shutdown() {
	l.stopTicks()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.log.Warn("dropping slow client", zap.String("client", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send is Inbox() <- m that gives up once the lobby or ctx is done.
func (l *Lobby) Send(ctx context.Context, m Msg) bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// View asks the lobby loop for its current state.
func (l *Lobby) View(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !l.Send(ctx, GetState{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-l.ctx.Done():
		return View{}, false
	case <-ctx.Done():
		return View{}, false
	}
}

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
