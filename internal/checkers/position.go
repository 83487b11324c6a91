package checkers

import "fmt"

const BoardSize = 8

type Position struct {
	Rank int `json:"rank"`
	File int `json:"file"`
}

func (p Position) InBounds() bool {
	return p.Rank >= 0 && p.Rank < BoardSize && p.File >= 0 && p.File < BoardSize
}

func (p Position) Step(d Direction, n int) Position {
	dr, df := d.Delta()
	return Position{Rank: p.Rank + dr*n, File: p.File + df*n}
}

// String renders the position in draughts-board notation, file letter first.
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.Rank, p.File)
	}
	return fmt.Sprintf("%c%d", 'a'+p.File, p.Rank+1)
}

type Player int

const (
	NoPlayer Player = iota
	Player1
	Player2
)

func (p Player) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "none"
	}
}

func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// Forward is the rank delta a man of this player is allowed to move along.
func (p Player) Forward() int {
	if p == Player2 {
		return -1
	}
	return 1
}

// FarRank is the opponent's home rank, where this player's men are crowned.
func (p Player) FarRank() int {
	if p == Player2 {
		return 0
	}
	return BoardSize - 1
}

func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player1":
		*p = Player1
	case "player2":
		*p = Player2
	case "none", "":
		*p = NoPlayer
	default:
		return fmt.Errorf("unknown player %q", string(b))
	}
	return nil
}

type Direction int

const (
	UpperLeft Direction = iota
	UpperRight
	LowerLeft
	LowerRight
)

// Directions lists every diagonal in candidate generation order.
var Directions = [...]Direction{UpperLeft, UpperRight, LowerLeft, LowerRight}

var directionDeltas = [...][2]int{
	UpperLeft:  {1, -1},
	UpperRight: {1, 1},
	LowerLeft:  {-1, -1},
	LowerRight: {-1, 1},
}

func (d Direction) Delta() (dRank, dFile int) {
	delta := directionDeltas[d]
	return delta[0], delta[1]
}

func (d Direction) String() string {
	switch d {
	case UpperLeft:
		return "upperLeft"
	case UpperRight:
		return "upperRight"
	case LowerLeft:
		return "lowerLeft"
	case LowerRight:
		return "lowerRight"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// allows reports whether a piece of owner may travel along d.
func (d Direction) allows(owner Player, king bool) bool {
	if king {
		return true
	}
	dr, _ := d.Delta()
	return dr == owner.Forward()
}
