package server

import (
	"fmt"

	"github.com/brensch/lightcycle/game"
)

// Frame types exchanged over /ws.
const (
	TypeNewGame = "new_game"
	TypeTurn    = "turn"
	TypeWelcome = "welcome"
	TypeMove    = "move"
	TypeError   = "error"
)

// PlayerFrame is one player's line of a turn record.
type PlayerFrame struct {
	StartX int `json:"start_x"`
	StartY int `json:"start_y"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// ClientFrame is anything a client sends. new_game resets the session,
// optionally resizing the grid; turn carries one referee record.
type ClientFrame struct {
	Type    string        `json:"type"`
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
	MyIdx   int           `json:"my_idx"`
	Players []PlayerFrame `json:"players,omitempty"`
}

func (f ClientFrame) TurnInput() (game.TurnInput, error) {
	if len(f.Players) == 0 {
		return game.TurnInput{}, fmt.Errorf("turn without players: %w", game.ErrBadInput)
	}
	in := game.TurnInput{MyIdx: f.MyIdx}
	for _, p := range f.Players {
		in.Starts = append(in.Starts, game.Point{X: p.StartX, Y: p.StartY})
		in.Positions = append(in.Positions, game.Point{X: p.X, Y: p.Y})
	}
	return in, nil
}

// ServerFrame is anything the server sends.
type ServerFrame struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`

	Turn       int     `json:"turn,omitempty"`
	Move       string  `json:"move,omitempty"`
	Depth      int     `json:"depth,omitempty"`
	Results    int     `json:"results,omitempty"`
	Iterations int64   `json:"iterations,omitempty"`
	ElapsedMs  float64 `json:"elapsed_ms,omitempty"`

	Error string `json:"error,omitempty"`
}
