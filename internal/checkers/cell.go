package checkers

import "encoding/json"

type CellKind int

const (
	CellEmpty CellKind = iota
	CellOccupied
	CellCandidate
)

func (k CellKind) String() string {
	switch k {
	case CellOccupied:
		return "occupied"
	case CellCandidate:
		return "candidate"
	default:
		return "empty"
	}
}

type CandidateKind int

const (
	Move CandidateKind = iota
	Jump
)

func (k CandidateKind) String() string {
	if k == Jump {
		return "jump"
	}
	return "move"
}

type Piece struct {
	Owner Player `json:"owner"`
	King  bool   `json:"king"`
}

// Candidate marks a square the selected piece can reach. Captured is only
// meaningful for jumps; use CapturedAt to read it.
type Candidate struct {
	Kind      CandidateKind
	Direction Direction
	captured  Position
}

func (c Candidate) CapturedAt() (Position, bool) {
	return c.captured, c.Kind == Jump
}

// Cell is one square of the board. The zero value is an empty square.
// Non-empty cells come from OccupiedCell, MoveCandidate and JumpCandidate,
// so the payload always matches the kind. Cells are comparable with ==.
type Cell struct {
	kind      CellKind
	piece     Piece
	candidate Candidate
}

func OccupiedCell(owner Player, king bool) Cell {
	return Cell{kind: CellOccupied, piece: Piece{Owner: owner, King: king}}
}

func MoveCandidate(d Direction) Cell {
	return Cell{kind: CellCandidate, candidate: Candidate{Kind: Move, Direction: d}}
}

func JumpCandidate(d Direction, captured Position) Cell {
	return Cell{kind: CellCandidate, candidate: Candidate{Kind: Jump, Direction: d, captured: captured}}
}

func (c Cell) Kind() CellKind { return c.kind }

func (c Cell) IsEmpty() bool { return c.kind == CellEmpty }

func (c Cell) Piece() (Piece, bool) {
	return c.piece, c.kind == CellOccupied
}

func (c Cell) Candidate() (Candidate, bool) {
	return c.candidate, c.kind == CellCandidate
}

// OwnedBy reports whether the cell holds a piece belonging to p.
func (c Cell) OwnedBy(p Player) bool {
	return c.kind == CellOccupied && c.piece.Owner == p
}

type cellJSON struct {
	Kind      string     `json:"kind"`
	Owner     *Player    `json:"owner,omitempty"`
	King      bool       `json:"king,omitempty"`
	Move      string     `json:"move,omitempty"`
	Direction *Direction `json:"direction,omitempty"`
	Captured  *Position  `json:"captured,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{Kind: c.kind.String()}
	switch c.kind {
	case CellOccupied:
		owner := c.piece.Owner
		out.Owner = &owner
		out.King = c.piece.King
	case CellCandidate:
		d := c.candidate.Direction
		out.Move = c.candidate.Kind.String()
		out.Direction = &d
		if captured, ok := c.candidate.CapturedAt(); ok {
			out.Captured = &captured
		}
	}
	return json.Marshal(out)
}
