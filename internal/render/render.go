// Package render draws a checkers position as an image and maps pixels on
// that image back to board squares.
//
// The board is drawn with rank 7 at the top and file 0 on the left, as
// Player1 sees it. Flipped rendering shows the board from Player2's side.
// PositionAt always uses the same orientation as the image it is asked about.
package render

import (
	"fmt"
	"io"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/gogpu/gg"
)

const (
	DefaultCellSize = 64

	pieceRadius = 0.38
	kingOffset  = 0.07
	outlineFrac = 0.04
)

// Theme holds hex colours for every element of the board.
type Theme struct {
	SquareDark  string `mapstructure:"squareDark" json:"squareDark"`
	SquareLight string `mapstructure:"squareLight" json:"squareLight"`
	Player1     string `mapstructure:"player1" json:"player1"`
	Player2     string `mapstructure:"player2" json:"player2"`
	Outline     string `mapstructure:"outline" json:"outline"`
	Selected    string `mapstructure:"selected" json:"selected"`
	Candidate   string `mapstructure:"candidate" json:"candidate"`
}

var DefaultTheme = Theme{
	SquareDark:  "#769656",
	SquareLight: "#eeeed2",
	Player1:     "#c0392b",
	Player2:     "#1c1c1c",
	Outline:     "#f5d76e",
	Selected:    "#3498db",
	Candidate:   "#f1c40f",
}

// withDefaults fills unset colours from DefaultTheme.
func (t Theme) withDefaults() Theme {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.SquareDark, DefaultTheme.SquareDark)
	fill(&t.SquareLight, DefaultTheme.SquareLight)
	fill(&t.Player1, DefaultTheme.Player1)
	fill(&t.Player2, DefaultTheme.Player2)
	fill(&t.Outline, DefaultTheme.Outline)
	fill(&t.Selected, DefaultTheme.Selected)
	fill(&t.Candidate, DefaultTheme.Candidate)
	return t
}

type Renderer struct {
	CellSize int
	Theme    Theme
}

func New(cellSize int, theme Theme) *Renderer {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Renderer{CellSize: cellSize, Theme: theme.withDefaults()}
}

// Size is the width and height of the rendered board in pixels.
func (r *Renderer) Size() int {
	return r.CellSize * checkers.BoardSize
}

// Render draws the position. The caller owns the returned context and
// should Close it.
func (r *Renderer) Render(s checkers.State, flip bool) (*gg.Context, error) {
	size := r.Size()
	dc := gg.NewContext(size, size)
	dc.ClearWithColor(gg.Hex(r.Theme.SquareLight))

	board := s.Board()
	selected, hasSelected := s.Selected()
	cell := float64(r.CellSize)

	for rank := 0; rank < checkers.BoardSize; rank++ {
		for file := 0; file < checkers.BoardSize; file++ {
			pos := checkers.Position{Rank: rank, File: file}
			x, y := r.squareOrigin(pos, flip)
			c := board.At(pos)

			bg := r.Theme.SquareLight
			if checkers.IsDark(pos) {
				bg = r.Theme.SquareDark
			}
			if c.Kind() == checkers.CellCandidate {
				bg = r.Theme.Candidate
			}
			dc.SetHexColor(bg)
			dc.DrawRectangle(x, y, cell, cell)
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("fill square %s: %w", pos, err)
			}

			piece, ok := c.Piece()
			if !ok {
				continue
			}
			color := r.Theme.Player1
			if piece.Owner == checkers.Player2 {
				color = r.Theme.Player2
			}
			if hasSelected && selected == pos {
				color = r.Theme.Selected
			}
			if err := r.drawPiece(dc, x+cell/2, y+cell/2, color, piece.King); err != nil {
				return nil, fmt.Errorf("draw piece %s: %w", pos, err)
			}
		}
	}
	return dc, nil
}

// drawPiece draws a man as one disc and a king as two stacked discs.
func (r *Renderer) drawPiece(dc *gg.Context, cx, cy float64, color string, king bool) error {
	cell := float64(r.CellSize)
	radius := cell * pieceRadius
	dc.SetLineWidth(cell * outlineFrac)

	discs := []float64{cy}
	if king {
		discs = []float64{cy + cell*kingOffset, cy - cell*kingOffset}
	}
	for _, dy := range discs {
		dc.SetHexColor(color)
		dc.DrawCircle(cx, dy, radius)
		if err := dc.Fill(); err != nil {
			return err
		}
		if king {
			dc.SetHexColor(r.Theme.Outline)
			dc.DrawCircle(cx, dy, radius)
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
	}
	return nil
}

// EncodePNG renders the position and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, s checkers.State, flip bool) error {
	dc, err := r.Render(s, flip)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// squareOrigin returns the top-left pixel of a square.
func (r *Renderer) squareOrigin(pos checkers.Position, flip bool) (float64, float64) {
	col, row := pos.File, checkers.BoardSize-1-pos.Rank
	if flip {
		col, row = checkers.BoardSize-1-pos.File, pos.Rank
	}
	return float64(col * r.CellSize), float64(row * r.CellSize)
}

// PositionAt maps a pixel of a rendered board to the square under it.
func (r *Renderer) PositionAt(x, y float64, flip bool) (checkers.Position, bool) {
	size := float64(r.Size())
	if x < 0 || y < 0 || x >= size || y >= size {
		return checkers.Position{}, false
	}
	col := int(x) / r.CellSize
	row := int(y) / r.CellSize
	if flip {
		return checkers.Position{Rank: row, File: checkers.BoardSize - 1 - col}, true
	}
	return checkers.Position{Rank: checkers.BoardSize - 1 - row, File: col}, true
}
