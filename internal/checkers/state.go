// Package checkers implements the move and jump rules of the checkers game:
// piece selection, candidate annotation, move application, promotion and turn
// alternation over an 8x8 board.
//
// The engine is deliberately small. Men move and jump one square toward the
// opponent's home rank, kings in all four diagonals. Jumps are single steps;
// there is no chaining, no forced capture and no end-of-game detection.
package checkers

// Outcome classifies what a click did to the state.
type Outcome int

const (
	Ignored Outcome = iota
	Selected
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Selected:
		return "selected"
	case Moved:
		return "moved"
	default:
		return "ignored"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Ply records one completed move.
type Ply struct {
	Player   Player    `json:"player"`
	From     Position  `json:"from"`
	To       Position  `json:"to"`
	Jump     bool      `json:"jump"`
	Captured *Position `json:"captured,omitempty"`
	Promoted bool      `json:"promoted"`
}

// State is a complete game position: the annotated board, the player to
// move and the currently selected piece, if any.
type State struct {
	board    Board
	turn     Player
	selected *Position
}

func NewState() State {
	return State{board: NewBoard(), turn: Player1}
}

// NewStateFromBoard starts from an arbitrary position. Candidate cells on
// the given board are dropped since nothing is selected.
func NewStateFromBoard(b Board, turn Player) State {
	b.ClearCandidates()
	if turn != Player2 {
		turn = Player1
	}
	return State{board: b, turn: turn}
}

func (s *State) Board() Board { return s.board }

func (s *State) Turn() Player { return s.turn }

func (s *State) Cell(pos Position) Cell { return s.board.At(pos) }

func (s *State) Selected() (Position, bool) {
	if s.selected == nil {
		return Position{}, false
	}
	return *s.selected, true
}

func (s *State) Candidates() []Position { return s.board.Candidates() }

func (s *State) PieceCount(p Player) int { return s.board.PieceCount(p) }

func (s *State) String() string { return s.board.String() }

// CanSelect reports whether pos holds a piece of the player to move.
func (s *State) CanSelect(pos Position) bool {
	return s.board.At(pos).OwnedBy(s.turn)
}

// Click dispatches a board click: selecting one of the mover's pieces,
// moving the selected piece onto a candidate, or nothing at all.
func (s *State) Click(pos Position) (Outcome, *Ply) {
	switch {
	case s.CanSelect(pos):
		s.SelectPiece(pos)
		return Selected, nil
	case s.board.At(pos).Kind() == CellCandidate:
		ply, ok := s.ApplyMove(pos)
		if !ok {
			return Ignored, nil
		}
		return Moved, &ply
	default:
		return Ignored, nil
	}
}

// SelectPiece highlights the piece at pos and annotates its destinations.
// Previous annotations are always cleared first. It returns false and leaves
// the state untouched when pos does not hold a piece of the player to move.
func (s *State) SelectPiece(pos Position) bool {
	if !s.CanSelect(pos) {
		return false
	}
	s.board.ClearCandidates()
	s.markJumps(pos)
	s.markMoves(pos)
	sel := pos
	s.selected = &sel
	return true
}

// ApplyMove moves the selected piece onto the candidate at target, removes
// a jumped piece, passes the turn and crowns any man on its far rank.
func (s *State) ApplyMove(target Position) (Ply, bool) {
	cand, ok := s.board.At(target).Candidate()
	if !ok || s.selected == nil {
		return Ply{}, false
	}
	from := *s.selected
	piece, ok := s.board.At(from).Piece()
	if !ok {
		return Ply{}, false
	}

	ply := Ply{Player: piece.Owner, From: from, To: target}
	if captured, isJump := cand.CapturedAt(); isJump {
		s.board.Set(captured, Cell{})
		ply.Jump = true
		ply.Captured = &captured
	}

	s.board.Set(target, OccupiedCell(piece.Owner, piece.King))
	s.board.Set(from, Cell{})
	s.board.ClearCandidates()
	s.turn = s.turn.Opponent()
	s.selected = nil

	for _, crowned := range s.promote() {
		if crowned == target {
			ply.Promoted = true
		}
	}
	return ply, true
}

func (s *State) markJumps(from Position) {
	piece, _ := s.board.At(from).Piece()
	for _, d := range Directions {
		if !d.allows(piece.Owner, piece.King) {
			continue
		}
		over := from.Step(d, 1)
		landing := from.Step(d, 2)
		if !over.InBounds() || !landing.InBounds() {
			continue
		}
		if !s.board.At(over).OwnedBy(piece.Owner.Opponent()) || !s.board.At(landing).IsEmpty() {
			continue
		}
		s.board.Set(landing, JumpCandidate(d, over))
	}
}

func (s *State) markMoves(from Position) {
	piece, _ := s.board.At(from).Piece()
	for _, d := range Directions {
		if !d.allows(piece.Owner, piece.King) {
			continue
		}
		to := from.Step(d, 1)
		if to.InBounds() && s.board.At(to).IsEmpty() {
			s.board.Set(to, MoveCandidate(d))
		}
	}
}

// promote crowns every man standing on its far rank and returns the squares
// that changed.
func (s *State) promote() []Position {
	var crowned []Position
	for _, p := range [...]Player{Player1, Player2} {
		rank := p.FarRank()
		for f := 0; f < BoardSize; f++ {
			pos := Position{Rank: rank, File: f}
			piece, ok := s.board.At(pos).Piece()
			if ok && piece.Owner == p && !piece.King {
				s.board.Set(pos, OccupiedCell(p, true))
				crowned = append(crowned, pos)
			}
		}
	}
	return crowned
}
