package engine

import (
	"errors"
)

var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusEmpty Status = "empty"
	StatusMole  Status = "mole"
)

type Cell struct {
	ID     int    `json:"id"`
	Status Status `json:"status"`
}

// Round is one timed play session. Engine.State hands out copies of it.
type Round struct {
	Cells     []Cell `json:"cells"`
	Score     int    `json:"score"`
	Remaining int    `json:"remaining_sec"`
	Active    bool   `json:"active"`
}

// Engine holds a single round and the transitions on it. It never schedules
// anything itself and is not safe for concurrent use; the owner serializes calls.
type Engine struct {
	rules Rules
	rnd   RandSource
	round Round
}

func NewEngine(rules Rules, rnd RandSource) *Engine {
	if rnd == nil {
		rnd = NewRandSource(0)
	}
	e := &Engine{rules: rules.normalized(), rnd: rnd}
	e.round = Round{
		Cells:     newBoard(e.rules.BoardSize),
		Remaining: e.rules.RoundSeconds,
	}
	return e
}

func (e *Engine) Rules() Rules { return e.rules }

// Reset starts a fresh round, replacing the whole board.
func (e *Engine) Reset() {
	e.round = Round{
		Cells:     newBoard(e.rules.BoardSize),
		Score:     0,
		Remaining: e.rules.RoundSeconds,
		Active:    true,
	}
}

// AdvanceTimer counts one second down. It reports true exactly once per round,
// on the call that brings the timer to zero.
func (e *Engine) AdvanceTimer() bool {
	if !e.round.Active || e.round.Remaining <= 0 {
		return false
	}
	e.round.Remaining--
	if e.round.Remaining == 0 {
		e.round.Active = false
		return true
	}
	return false
}

// SpawnMole occupies one empty cell chosen uniformly at random, as long as the
// round is active and fewer than MaxMoles cells are occupied.
func (e *Engine) SpawnMole() (int, bool) {
	if !e.round.Active {
		return 0, false
	}
	if countMoles(e.round.Cells) >= e.rules.MaxMoles {
		return 0, false
	}

	empty := make([]int, 0, len(e.round.Cells))
	for i, c := range e.round.Cells {
		if c.Status == StatusEmpty {
			empty = append(empty, i)
		}
	}
	if len(empty) == 0 {
		return 0, false
	}

	idx := empty[e.rnd.IntN(len(empty))]
	e.round.Cells[idx].Status = StatusMole
	return e.round.Cells[idx].ID, true
}

// SelectCell whacks the mole in cell id, if there is one. Misses and unknown
// ids change nothing. The current score is returned either way.
func (e *Engine) SelectCell(id int) (int, bool) {
	if !e.round.Active {
		return e.round.Score, false
	}
	i, ok := cellIndex(e.round.Cells, id)
	if !ok || e.round.Cells[i].Status != StatusMole {
		return e.round.Score, false
	}
	e.round.Cells[i].Status = StatusEmpty
	e.round.Score++
	return e.round.Score, true
}

func (e *Engine) State() Round {
	s := e.round
	s.Cells = append([]Cell(nil), e.round.Cells...)
	return s
}

type CommandType string

const (
	CmdStartRound CommandType = "StartRound"
	CmdTimerTick  CommandType = "TimerTick"
	CmdSpawnTick  CommandType = "SpawnTick"
	CmdSelectCell CommandType = "SelectCell"
)

/*
	CmdStartRound -> EvtRoundStarted
	CmdTimerTick  -> EvtTimerTicked, plus EvtRoundEnded on the last second
	CmdSpawnTick  -> EvtMoleSpawned, or nothing when capped / board full / inactive
	CmdSelectCell -> EvtMoleWhacked, or nothing on a miss
*/

type Command struct {
	Type   CommandType
	CellID int
}

type EventType string

const (
	EvtRoundStarted EventType = "RoundStarted"
	EvtTimerTicked  EventType = "TimerTicked"
	EvtRoundEnded   EventType = "RoundEnded"
	EvtMoleSpawned  EventType = "MoleSpawned"
	EvtMoleWhacked  EventType = "MoleWhacked"
)

type Event struct {
	Type      EventType
	CellID    int
	Score     int
	Remaining int
}

// Apply runs cmd against the engine and reports what changed. A command that
// turns out to be a no-op yields no events and no error.
func (e *Engine) Apply(cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdStartRound:
		e.Reset()
		return []Event{{Type: EvtRoundStarted, Remaining: e.round.Remaining}}, nil

	case CmdTimerTick:
		before := e.round.Remaining
		ended := e.AdvanceTimer()
		if e.round.Remaining == before {
			return nil, nil
		}
		events := []Event{{Type: EvtTimerTicked, Remaining: e.round.Remaining}}
		if ended {
			events = append(events, Event{Type: EvtRoundEnded, Score: e.round.Score})
		}
		return events, nil

	case CmdSpawnTick:
		id, ok := e.SpawnMole()
		if !ok {
			return nil, nil
		}
		return []Event{{Type: EvtMoleSpawned, CellID: id}}, nil

	case CmdSelectCell:
		score, hit := e.SelectCell(cmd.CellID)
		if !hit {
			return nil, nil
		}
		return []Event{{Type: EvtMoleWhacked, CellID: cmd.CellID, Score: score}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// Reduce replays a round's events from a fresh board.
func Reduce(rules Rules, events []Event) Round {
	rules = rules.normalized()
	s := Round{Cells: newBoard(rules.BoardSize), Remaining: rules.RoundSeconds}
	for _, event := range events {
		switch event.Type {
		case EvtRoundStarted:
			s = Round{Cells: newBoard(rules.BoardSize), Remaining: rules.RoundSeconds, Active: true}
		case EvtTimerTicked:
			s.Remaining = event.Remaining
		case EvtRoundEnded:
			s.Active = false
		case EvtMoleSpawned:
			if i, ok := cellIndex(s.Cells, event.CellID); ok {
				s.Cells[i].Status = StatusMole
			}
		case EvtMoleWhacked:
			if i, ok := cellIndex(s.Cells, event.CellID); ok {
				s.Cells[i].Status = StatusEmpty
			}
			s.Score = event.Score
		}
	}
	return s
}
