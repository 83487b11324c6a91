package checkers

import "strings"

// Board is indexed [rank][file]. It is a value type: assigning a Board
// copies every square.
type Board [BoardSize][BoardSize]Cell

// IsDark reports whether the square is one of the playing squares.
func IsDark(pos Position) bool {
	return (pos.Rank+pos.File)%2 == 0
}

// NewBoard returns the opening layout: Player1 men on the dark squares of
// ranks 0-2, Player2 men on the dark squares of ranks 5-7.
func NewBoard() Board {
	var b Board
	for r := 0; r < BoardSize; r++ {
		for f := 0; f < BoardSize; f++ {
			pos := Position{Rank: r, File: f}
			if !IsDark(pos) {
				continue
			}
			switch {
			case r < 3:
				b.Set(pos, OccupiedCell(Player1, false))
			case r > 4:
				b.Set(pos, OccupiedCell(Player2, false))
			}
		}
	}
	return b
}

// At returns the cell at pos; out-of-bounds positions read as empty.
func (b *Board) At(pos Position) Cell {
	if !pos.InBounds() {
		return Cell{}
	}
	return b[pos.Rank][pos.File]
}

func (b *Board) Set(pos Position, c Cell) {
	if !pos.InBounds() {
		return
	}
	b[pos.Rank][pos.File] = c
}

// ClearCandidates resets every candidate annotation back to empty.
func (b *Board) ClearCandidates() {
	for r := range b {
		for f := range b[r] {
			if b[r][f].kind == CellCandidate {
				b[r][f] = Cell{}
			}
		}
	}
}

// Candidates returns the annotated squares in rank-major order.
func (b *Board) Candidates() []Position {
	var out []Position
	for r := range b {
		for f := range b[r] {
			if b[r][f].kind == CellCandidate {
				out = append(out, Position{Rank: r, File: f})
			}
		}
	}
	return out
}

func (b *Board) PieceCount(p Player) int {
	n := 0
	for r := range b {
		for f := range b[r] {
			if b[r][f].OwnedBy(p) {
				n++
			}
		}
	}
	return n
}

// Rows returns the board as nested slices, rank 0 first, for encoding.
func (b *Board) Rows() [][]Cell {
	rows := make([][]Cell, BoardSize)
	for r := range b {
		rows[r] = append([]Cell(nil), b[r][:]...)
	}
	return rows
}

// String draws the board with rank 7 on top:
// 'x'/'o' are Player1/Player2 men, 'X'/'O' kings, '*' candidates.
func (b *Board) String() string {
	var sb strings.Builder
	for r := BoardSize - 1; r >= 0; r-- {
		sb.WriteByte(byte('1' + r))
		sb.WriteByte(' ')
		for f := 0; f < BoardSize; f++ {
			sb.WriteByte(cellRune(b[r][f], Position{Rank: r, File: f}))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh\n")
	return sb.String()
}

func cellRune(c Cell, pos Position) byte {
	switch c.kind {
	case CellOccupied:
		ch := byte('x')
		if c.piece.Owner == Player2 {
			ch = 'o'
		}
		if c.piece.King {
			ch -= 'a' - 'A'
		}
		return ch
	case CellCandidate:
		return '*'
	}
	if IsDark(pos) {
		return '.'
	}
	return ' '
}
