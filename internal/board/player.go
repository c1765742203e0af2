// Package board implements the Ultimate Tic-Tac-Toe meta-board.
package board

// Player identifies one of the two sides. It doubles as a cell value,
// with NoPlayer marking an empty cell.
type Player uint8

const (
	X Player = iota
	O
	NoPlayer Player = 2
)

// Other returns the opponent.
func (p Player) Other() Player {
	return p ^ 1
}

// String returns the mark used when rendering the board.
func (p Player) String() string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

// Result is the state of a SubSquare or of the whole game.
type Result uint8

const (
	Ongoing Result = iota
	Draw
	WonX
	WonO
)

// Won returns the result for a game won by p.
func Won(p Player) Result {
	return WonX + Result(p)
}

// IsOngoing returns true if the game is not decided yet.
func (r Result) IsOngoing() bool {
	return r == Ongoing
}

// IsDraw returns true if nobody can win anymore.
func (r Result) IsDraw() bool {
	return r == Draw
}

// IsWon returns true if one side has won.
func (r Result) IsWon() bool {
	return r == WonX || r == WonO
}

// Winner returns the winning player, or NoPlayer if the result is not a win.
func (r Result) Winner() Player {
	if !r.IsWon() {
		return NoPlayer
	}
	return Player(r - WonX)
}

// String returns a human-readable result.
func (r Result) String() string {
	switch r {
	case Ongoing:
		return "Ongoing"
	case Draw:
		return "Draw"
	case WonX:
		return "Won(X)"
	case WonO:
		return "Won(O)"
	default:
		return "Invalid"
	}
}

// Lines lists the 8 winning lines of a 3x3 grid, indexed row-major.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}
