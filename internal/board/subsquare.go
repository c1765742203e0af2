package board

// SubSquare is one of the nine inner 3x3 boards.
// Its state is recomputed on every Put, so it is never stale.
type SubSquare struct {
	cells [9]Player
	state Result
}

// NewSubSquare returns an empty, ongoing subsquare.
func NewSubSquare() SubSquare {
	s := SubSquare{state: Ongoing}
	for i := range s.cells {
		s.cells[i] = NoPlayer
	}
	return s
}

// Get1 returns the cell at row-major index i.
func (s *SubSquare) Get1(i int) Player {
	return s.cells[i]
}

// Get2 returns the cell at row i, column j.
func (s *SubSquare) Get2(i, j int) Player {
	return s.cells[3*i+j]
}

// State returns the subsquare result.
func (s *SubSquare) State() Result {
	return s.state
}

// Put places p at cell i. The subsquare must still be ongoing.
func (s *SubSquare) Put(i int, p Player) {
	if !s.state.IsOngoing() {
		panic("board: put on a finished subsquare")
	}
	s.cells[i] = p
	s.analyze()
}

// Reset clears cell i and marks the subsquare ongoing again.
// Only valid as the inverse of the Put that filled cell i.
func (s *SubSquare) Reset(i int) {
	s.cells[i] = NoPlayer
	s.state = Ongoing
}

func (s *SubSquare) analyze() {
	s.state = scanCells(&s.cells)
}

// scanCells derives a subsquare result from raw cell contents.
func scanCells(cells *[9]Player) Result {
	for _, l := range Lines {
		a, b, c := cells[l[0]], cells[l[1]], cells[l[2]]
		if a != NoPlayer && a == b && b == c {
			return Won(a)
		}
	}
	for _, c := range cells {
		if c == NoPlayer {
			return Ongoing
		}
	}
	return Draw
}
