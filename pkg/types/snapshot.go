package types

import "github.com/DoyleJ11/whack-a-mole-backend/internal/engine"

// Snapshot:
//   version: number
//   code: string
//   state:
//     cells: [{ id: number, status: "empty" | "mole" }]
//     score: number
//     remaining_sec: number
//     active: boolean
type Snapshot struct {
	Version int          `json:"version"`
	Code    string       `json:"code"`
	State   engine.Round `json:"state"`
}

func StateSnapshot(version int, state engine.Round) ServerMessage {
	return ServerMessage{Type: MsgStateSnapshot, Version: version, State: &state}
}

func RoundEnded(score int) ServerMessage {
	return ServerMessage{Type: MsgRoundEnded, Score: &score}
}

func Error(msg string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: msg}
}
