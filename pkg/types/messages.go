package types

import "github.com/DoyleJ11/whack-a-mole-backend/internal/engine"

// Client -> Server
// Start: {}
//   begins a new round, abandoning any round in progress
//
// SelectCell:
//   cell_id: number

// Server -> Client
// StateSnapshot:
//   version: number
//   state: Snapshot (see snapshot.go)
//
// RoundEnded:
//   score: number
//
// Error:
//   error: string

const (
	MsgStart      = "Start"
	MsgSelectCell = "SelectCell"

	MsgStateSnapshot = "StateSnapshot"
	MsgRoundEnded    = "RoundEnded"
	MsgError         = "Error"
)

type ClientMessage struct {
	Type   string `json:"type"`
	CellID *int   `json:"cell_id,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"` // "StateSnapshot" | "RoundEnded" | "Error"
	Version int           `json:"version"`
	State   *engine.Round `json:"state,omitempty"`
	Score   *int          `json:"score,omitempty"`
	Error   string        `json:"error,omitempty"`
}
