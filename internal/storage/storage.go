// Package storage records played games so their move history outlives the
// in-memory game sessions.
package storage

import (
	"errors"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

var ErrNotFound = errors.New("record not found")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveGame inserts the game or updates its seats.
	SaveGame(g *GameRecord) error
	GetGame(id string) (*GameRecord, error)

	// RecordPly appends one completed move; plies of a game are returned in
	// Number order.
	RecordPly(p *PlyRecord) error
	ListPlies(gameID string) ([]PlyRecord, error)
}

type GameRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Mode      string    `json:"mode" gorm:"size:16"`
	Player1   string    `json:"player1" gorm:"size:64"`
	Player2   string    `json:"player2" gorm:"size:64"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (GameRecord) TableName() string { return "games" }

type PlyRecord struct {
	ID           uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	GameID       string    `json:"gameId" gorm:"size:36;index:idx_plies_game_number,priority:1"`
	Number       int       `json:"number" gorm:"index:idx_plies_game_number,priority:2"`
	Player       string    `json:"player" gorm:"size:16"`
	FromRank     int       `json:"fromRank"`
	FromFile     int       `json:"fromFile"`
	ToRank       int       `json:"toRank"`
	ToFile       int       `json:"toFile"`
	Jump         bool      `json:"jump"`
	CapturedRank *int      `json:"capturedRank,omitempty"`
	CapturedFile *int      `json:"capturedFile,omitempty"`
	Promoted     bool      `json:"promoted"`
	PlayedAt     time.Time `json:"playedAt"`
	TookMs       int64     `json:"tookMs"`
}

func (PlyRecord) TableName() string { return "plies" }

// NewPlyRecord flattens a completed ply for storage.
func NewPlyRecord(gameID string, number int, ply checkers.Ply, at time.Time, took time.Duration) *PlyRecord {
	rec := &PlyRecord{
		GameID:   gameID,
		Number:   number,
		Player:   ply.Player.String(),
		FromRank: ply.From.Rank,
		FromFile: ply.From.File,
		ToRank:   ply.To.Rank,
		ToFile:   ply.To.File,
		Jump:     ply.Jump,
		Promoted: ply.Promoted,
		PlayedAt: at,
		TookMs:   took.Milliseconds(),
	}
	if ply.Captured != nil {
		r, f := ply.Captured.Rank, ply.Captured.File
		rec.CapturedRank, rec.CapturedFile = &r, &f
	}
	return rec
}

// Ply rebuilds the engine ply from a stored row.
func (r PlyRecord) Ply() checkers.Ply {
	var player checkers.Player
	_ = player.UnmarshalText([]byte(r.Player))
	ply := checkers.Ply{
		Player:   player,
		From:     checkers.Position{Rank: r.FromRank, File: r.FromFile},
		To:       checkers.Position{Rank: r.ToRank, File: r.ToFile},
		Jump:     r.Jump,
		Promoted: r.Promoted,
	}
	if r.CapturedRank != nil && r.CapturedFile != nil {
		ply.Captured = &checkers.Position{Rank: *r.CapturedRank, File: *r.CapturedFile}
	}
	return ply
}
