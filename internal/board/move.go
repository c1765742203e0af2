package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Move encodes a (subsquare, cell) pair as sub*9 + cell.
type Move uint8

// NoMove represents an invalid or missing move.
const NoMove Move = 81

// NewMove creates a move into the given subsquare and cell (both 0-8).
func NewMove(sub, cell int) Move {
	return Move(sub*9 + cell)
}

// Sub returns the subsquare index (0-8).
func (m Move) Sub() int {
	return int(m) / 9
}

// Cell returns the cell index inside the subsquare (0-8).
func (m Move) Cell() int {
	return int(m) % 9
}

// String returns the move as 1-based "subsquare,cell".
func (m Move) String() string {
	if m >= NoMove {
		return "-"
	}
	return fmt.Sprintf("%d,%d", m.Sub()+1, m.Cell()+1)
}

// ParseMove parses a 1-based "subsquare cell" pair, separated by a comma or spaces.
func ParseMove(s string) (Move, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return NoMove, fmt.Errorf("invalid move: %q", s)
	}

	sub, err := strconv.Atoi(fields[0])
	if err != nil || sub < 1 || sub > 9 {
		return NoMove, fmt.Errorf("invalid subsquare: %q", fields[0])
	}
	cell, err := strconv.Atoi(fields[1])
	if err != nil || cell < 1 || cell > 9 {
		return NoMove, fmt.Errorf("invalid cell: %q", fields[1])
	}

	return NewMove(sub-1, cell-1), nil
}

// Undo stores what is needed to take back a move: the move itself and the
// forced subsquare that was active before it.
type Undo struct {
	Prev int
	Move Move
}
