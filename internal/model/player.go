package model

import (
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

type Player struct {
	ID   string
	Side checkers.Player
}

type ClientPlayer struct {
	ID       string          `json:"name"`
	Color    checkers.Player `json:"color"`
	TimeUsed int64           `json:"timeUsed"` // milliseconds
	Thinking bool            `json:"thinking"`
}

// Conn is the part of a websocket connection the game needs to push state.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type seat struct {
	playerID string
	clock    *Clock
}

func newSeats(now func() time.Time) map[checkers.Player]*seat {
	return map[checkers.Player]*seat{
		checkers.Player1: {clock: NewClock(now)},
		checkers.Player2: {clock: NewClock(now)},
	}
}
