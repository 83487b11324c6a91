package checkers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_Accessors(t *testing.T) {
	var empty Cell
	assert.True(t, empty.IsEmpty())
	_, ok := empty.Piece()
	assert.False(t, ok)
	_, ok = empty.Candidate()
	assert.False(t, ok)

	king := OccupiedCell(Player2, true)
	piece, ok := king.Piece()
	require.True(t, ok)
	assert.Equal(t, Piece{Owner: Player2, King: true}, piece)
	assert.True(t, king.OwnedBy(Player2))
	assert.False(t, king.OwnedBy(Player1))

	move := MoveCandidate(LowerLeft)
	cand, ok := move.Candidate()
	require.True(t, ok)
	_, hasCapture := cand.CapturedAt()
	assert.False(t, hasCapture)
	assert.False(t, move.OwnedBy(Player1))
}

func TestCell_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Cell{}, `{"kind":"empty"}`},
		{"man", OccupiedCell(Player1, false), `{"kind":"occupied","owner":"player1"}`},
		{"king", OccupiedCell(Player2, true), `{"kind":"occupied","owner":"player2","king":true}`},
		{"move", MoveCandidate(UpperLeft), `{"kind":"candidate","move":"move","direction":"upperLeft"}`},
		{"jump", JumpCandidate(LowerRight, Position{Rank: 3, File: 4}),
			`{"kind":"candidate","move":"jump","direction":"lowerRight","captured":{"rank":3,"file":4}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.cell)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestBoard_String(t *testing.T) {
	s := NewState()
	s.SelectPiece(Position{Rank: 2, File: 0})

	want := "" +
		"8  o o o o\n" +
		"7 o o o o \n" +
		"6  o o o o\n" +
		"5 . . . . \n" +
		"4  * . . .\n" +
		"3 x x x x \n" +
		"2  x x x x\n" +
		"1 x x x x \n" +
		"  abcdefgh\n"
	assert.Equal(t, want, s.String())
}

func TestBoard_OutOfBounds(t *testing.T) {
	b := NewBoard()
	assert.True(t, b.At(Position{Rank: 8, File: 0}).IsEmpty())
	b.Set(Position{Rank: -1, File: 3}, OccupiedCell(Player1, false))
	assert.Equal(t, 12, b.PieceCount(Player1))
}

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "a1", Position{Rank: 0, File: 0}.String())
	assert.Equal(t, "h8", Position{Rank: 7, File: 7}.String())
	assert.Equal(t, "(8,0)", Position{Rank: 8, File: 0}.String())
}
