package engine

import (
	"math/rand/v2"
)

const (
	DefaultBoardSize    = 12
	DefaultMaxMoles     = 3
	DefaultRoundSeconds = 30
)

type Rules struct {
	BoardSize    int
	MaxMoles     int
	RoundSeconds int
}

func DefaultRules() Rules {
	return Rules{
		BoardSize:    DefaultBoardSize,
		MaxMoles:     DefaultMaxMoles,
		RoundSeconds: DefaultRoundSeconds,
	}
}

// normalized replaces non-positive values with the defaults.
func (r Rules) normalized() Rules {
	d := DefaultRules()
	if r.BoardSize <= 0 {
		r.BoardSize = d.BoardSize
	}
	if r.MaxMoles <= 0 {
		r.MaxMoles = d.MaxMoles
	}
	if r.RoundSeconds <= 0 {
		r.RoundSeconds = d.RoundSeconds
	}
	return r
}

// RandSource picks an int in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewRandSource returns a PCG source for a non-zero seed, or the runtime's
// global source for seed 0.
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		return globalRand{}
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func CountMoles(s Round) int { return countMoles(s.Cells) }

func newBoard(n int) []Cell {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{ID: i, Status: StatusEmpty}
	}
	return cells
}

func countMoles(cells []Cell) int {
	n := 0
	for _, c := range cells {
		if c.Status == StatusMole {
			n++
		}
	}
	return n
}

// cellIndex maps an id to its slot. IDs equal their index for the whole round.
func cellIndex(cells []Cell, id int) (int, bool) {
	if id < 0 || id >= len(cells) {
		return 0, false
	}
	return id, true
}
