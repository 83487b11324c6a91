package model

import (
	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

// GameState is the JSON view of a game sent to browsers after every change.
type GameState struct {
	ID             string              `json:"id"`
	Mode           Mode                `json:"mode"`
	Sound          Sound               `json:"sound"`
	Board          [][]checkers.Cell   `json:"board"`
	ToMove         checkers.Player     `json:"toMove"`
	SelectedSquare *checkers.Position  `json:"selectedSquare"`
	LegalMoves     []checkers.Position `json:"legalMoves"`
	Pieces         PieceCounts         `json:"pieces"`
	MoveHistory    []HistoryEntry      `json:"moveHistory"`
	LastMove       *checkers.Ply       `json:"lastMove"`
	Players        struct {
		Player1 ClientPlayer `json:"player1"`
		Player2 ClientPlayer `json:"player2"`
	} `json:"players"`
}

type PieceCounts struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// snapshot builds the JSON view. Called with mu held.
func (g *Game) snapshot() GameState {
	board := g.state.Board()
	gs := GameState{
		ID:          g.ID,
		Mode:        g.Mode,
		Sound:       g.sound,
		Board:       board.Rows(),
		ToMove:      g.state.Turn(),
		LegalMoves:  g.state.Candidates(),
		MoveHistory: append([]HistoryEntry{}, g.history...),
		Pieces: PieceCounts{
			Player1: g.state.PieceCount(checkers.Player1),
			Player2: g.state.PieceCount(checkers.Player2),
		},
	}
	if gs.LegalMoves == nil {
		gs.LegalMoves = []checkers.Position{}
	}
	if sel, ok := g.state.Selected(); ok {
		gs.SelectedSquare = &sel
	}
	if n := len(g.history); n > 0 {
		last := g.history[n-1].Ply
		gs.LastMove = &last
	}
	gs.Players.Player1 = g.clientPlayer(checkers.Player1)
	gs.Players.Player2 = g.clientPlayer(checkers.Player2)
	return gs
}

func (g *Game) clientPlayer(side checkers.Player) ClientPlayer {
	s := g.seats[side]
	return ClientPlayer{
		ID:       s.playerID,
		Color:    side,
		TimeUsed: s.clock.GetTimeUsed().Milliseconds(),
		Thinking: s.clock.Running(),
	}
}
