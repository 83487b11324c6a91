package model

import (
	"errors"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameExists      = errors.New("game already exists")
	ErrGameFull        = errors.New("game is full")
	ErrNotSeated       = errors.New("player not in game")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrWaitingOpponent = errors.New("waiting for an opponent")
	ErrAlreadyQueued   = errors.New("player already in queue")
	ErrOffBoard        = errors.New("click outside the board")
	ErrInvalidClick    = errors.New("click needs rank and file or x and y")
	ErrInvalidMode     = errors.New("unknown game mode")
)

// WSClick is a click on the board sent by the browser. Either a board
// square (rank/file) or a pixel on the rendered board image (x/y).
type WSClick struct {
	Rank *int     `json:"rank,omitempty"`
	File *int     `json:"file,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Flip bool     `json:"flip,omitempty"`
}

// IsPixel reports whether the click carries image coordinates rather than
// a square.
func (c WSClick) IsPixel() bool {
	return c.Rank == nil && c.File == nil && c.X != nil && c.Y != nil
}

func (c WSClick) Square() (checkers.Position, bool) {
	if c.Rank == nil || c.File == nil {
		return checkers.Position{}, false
	}
	return checkers.Position{Rank: *c.Rank, File: *c.File}, true
}

type Sound string

const (
	SoundNone    Sound = ""
	SoundMove    Sound = "move"
	SoundCapture Sound = "capture"
	SoundPromote Sound = "promote"
)

// HistoryEntry is a completed ply with its sequence number (1-based).
type HistoryEntry struct {
	Number int           `json:"number"`
	Ply    checkers.Ply  `json:"ply"`
	At     time.Time     `json:"at"`
	Took   time.Duration `json:"took"`
}

type ClickResult struct {
	Outcome checkers.Outcome `json:"outcome"`
	Entry   *HistoryEntry    `json:"entry,omitempty"`
}

type MatchFoundEvent struct {
	GameID string          `json:"gameId"`
	Color  checkers.Player `json:"color"`
}

const (
	MatchStatusIdle    = "idle"
	MatchStatusQueued  = "queued"
	MatchStatusMatched = "matched"
)

// MatchStatus answers a client polling matchmaking without a socket.
type MatchStatus struct {
	Status string          `json:"status"`
	GameID string          `json:"gameId,omitempty"`
	Color  checkers.Player `json:"color,omitempty"`
}

func soundFor(ply checkers.Ply) Sound {
	switch {
	case ply.Promoted:
		return SoundPromote
	case ply.Jump:
		return SoundCapture
	default:
		return SoundMove
	}
}
