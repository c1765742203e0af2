package board

import "strings"

// String renders the board as a 9x9 grid, subsquares separated by bars.
// Row r, column c of the grid is cell (r%3, c%3) of subsquare (r/3, c/3).
func (sq *Square) String() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		if i%3 == 0 && i > 0 {
			b.WriteString("----+-----+----\n")
		}
		for j := 0; j < 9; j++ {
			if j%3 == 0 && j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(sq.Get2(i/3, j/3).Get2(i%3, j%3).String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
