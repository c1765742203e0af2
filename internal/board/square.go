package board

import "github.com/hailam/uttt/internal/pool"

// Free is the value of Prev when the next move may go into any open subsquare.
const Free = -1

// Square is the full meta-board: nine subsquares plus the forced-subsquare constraint.
// It is a plain value, so copying it snapshots the whole game.
type Square struct {
	subs [9]SubSquare

	// prev is the subsquare the next move must target, or Free.
	// It is only set while that subsquare is ongoing; Analyze clears it.
	prev int
}

// NewSquare creates the starting position.
func NewSquare() *Square {
	sq := &Square{prev: Free}
	for i := range sq.subs {
		sq.subs[i] = NewSubSquare()
	}
	return sq
}

// Copy creates a deep copy of the square.
func (sq *Square) Copy() *Square {
	c := *sq
	return &c
}

// Prev returns the forced subsquare, or Free.
func (sq *Square) Prev() int {
	return sq.prev
}

// Get1 returns subsquare i (row-major).
func (sq *Square) Get1(i int) *SubSquare {
	return &sq.subs[i]
}

// Get2 returns the subsquare at meta-row i, meta-column j.
func (sq *Square) Get2(i, j int) *SubSquare {
	return &sq.subs[3*i+j]
}

// IsValidSub returns true if subsquare x may receive the next move.
func (sq *Square) IsValidSub(x int) bool {
	return sq.subs[x].state.IsOngoing() && (sq.prev == Free || sq.prev == x)
}

// IsValidCell returns true if cell y of subsquare x is a legal target.
func (sq *Square) IsValidCell(x, y int) bool {
	return sq.IsValidSub(x) && sq.subs[x].cells[y] == NoPlayer
}

// IsLegal returns true if m is a legal move in the current position.
func (sq *Square) IsLegal(m Move) bool {
	return m < NoMove && sq.IsValidCell(m.Sub(), m.Cell())
}

// ValidMoves returns the legal moves in subsquare, cell order.
// The slice is borrowed from moves and must be returned to it by the caller.
func (sq *Square) ValidMoves(moves *pool.Stack[Move]) []Move {
	ml := moves.Get()
	for i := 0; i < 9; i++ {
		if !sq.IsValidSub(i) {
			continue
		}
		for j := 0; j < 9; j++ {
			if sq.subs[i].cells[j] == NoPlayer {
				ml = append(ml, NewMove(i, j))
			}
		}
	}
	return ml
}

// Put places p's mark in cell of subsquare sub and forces the opponent into
// subsquare cell. Legality must be checked by the caller.
func (sq *Square) Put(sub, cell int, p Player) {
	sq.subs[sub].Put(cell, p)
	sq.prev = cell
}

// Reset is the exact inverse of Put: it clears the cell, reopens the
// subsquare, and restores the constraint that was active before Put.
func (sq *Square) Reset(prev, sub, cell int) {
	sq.prev = prev
	sq.subs[sub].Reset(cell)
}

// MakeMove applies m for p and returns the token needed to undo it.
func (sq *Square) MakeMove(m Move, p Player) Undo {
	undo := Undo{Prev: sq.prev, Move: m}
	sq.Put(m.Sub(), m.Cell(), p)
	return undo
}

// UnmakeMove takes back the move recorded in undo.
func (sq *Square) UnmakeMove(undo Undo) {
	sq.Reset(undo.Prev, undo.Move.Sub(), undo.Move.Cell())
}

// Analyze returns the game result. If the forced subsquare has just been
// decided the constraint is lifted. Call once per ply before generating moves.
func (sq *Square) Analyze() Result {
	if sq.prev != Free {
		sq.subs[sq.prev].analyze()
		if !sq.subs[sq.prev].state.IsOngoing() {
			sq.prev = Free
		}
	}

	for _, l := range Lines {
		a, b, c := sq.subs[l[0]].state, sq.subs[l[1]].state, sq.subs[l[2]].state
		if a.IsWon() && a == b && b == c {
			return a
		}
	}
	for i := range sq.subs {
		if sq.subs[i].state.IsOngoing() {
			return Ongoing
		}
	}
	return Draw
}

// Feedback is a small shaping signal for training: +0.05 for every subsquare
// won by p and -0.05 for every subsquare won by the opponent.
func (sq *Square) Feedback(p Player) float64 {
	res := 0.0
	for i := range sq.subs {
		s := sq.subs[i].state
		if !s.IsWon() {
			continue
		}
		if s.Winner() == p {
			res += 0.05
		} else {
			res -= 0.05
		}
	}
	return res
}

// MarkCount returns the number of marks on the board.
func (sq *Square) MarkCount() int {
	n := 0
	for i := range sq.subs {
		for _, c := range sq.subs[i].cells {
			if c != NoPlayer {
				n++
			}
		}
	}
	return n
}
