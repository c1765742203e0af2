package board

import (
	"math/rand"
	"testing"

	"github.com/hailam/uttt/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scratchResult derives the game result from raw cell contents only.
func scratchResult(sq *Square) Result {
	var states [9]Result
	for i := range sq.subs {
		states[i] = scanCells(&sq.subs[i].cells)
	}
	for _, l := range Lines {
		a, b, c := states[l[0]], states[l[1]], states[l[2]]
		if a.IsWon() && a == b && b == c {
			return a
		}
	}
	for _, s := range states {
		if s.IsOngoing() {
			return Ongoing
		}
	}
	return Draw
}

func TestAnalyzeMatchesScratch(t *testing.T) {
	var moves pool.Stack[Move]
	rng := rand.New(rand.NewSource(1))

	for game := 0; game < 200; game++ {
		sq := NewSquare()
		p := X
		plies := 0
		for {
			res := sq.Analyze()
			require.Equal(t, scratchResult(sq), res, "game %d ply %d", game, plies)
			for i := range sq.subs {
				require.Equal(t, scanCells(&sq.subs[i].cells), sq.subs[i].State())
			}
			if sq.Prev() != Free {
				require.True(t, sq.Get1(sq.Prev()).State().IsOngoing(), "prev must point at an open subsquare")
			}
			if !res.IsOngoing() {
				break
			}

			ml := sq.ValidMoves(&moves)
			require.NotEmpty(t, ml)
			m := ml[rng.Intn(len(ml))]
			moves.Put(ml)

			sq.Put(m.Sub(), m.Cell(), p)
			p = p.Other()
			plies++
		}
		require.LessOrEqual(t, plies, 81)
	}
}

func TestPutResetRestoresMoves(t *testing.T) {
	var moves pool.Stack[Move]
	rng := rand.New(rand.NewSource(2))

	sq := NewSquare()
	p := X
	for sq.Analyze().IsOngoing() {
		before := *sq
		ml := sq.ValidMoves(&moves)
		want := append([]Move(nil), ml...)

		for _, m := range ml {
			prev := sq.Prev()
			sq.Put(m.Sub(), m.Cell(), p)
			sq.Analyze()
			sq.Reset(prev, m.Sub(), m.Cell())

			got := sq.ValidMoves(&moves)
			require.Equal(t, want, got)
			moves.Put(got)
			require.Equal(t, before, *sq)
		}

		m := ml[rng.Intn(len(ml))]
		moves.Put(ml)
		sq.MakeMove(m, p)
		p = p.Other()
	}
	assert.Equal(t, 0, moves.Outstanding())
}

func TestSubSquareDraw(t *testing.T) {
	s := NewSubSquare()
	// X O X
	// X O O
	// O X X
	marks := []Player{X, O, X, X, O, O, O, X, X}
	for i, m := range marks {
		require.True(t, s.State().IsOngoing())
		s.Put(i, m)
	}
	assert.Equal(t, Draw, s.State())
}

func TestSubSquareWin(t *testing.T) {
	s := NewSubSquare()
	s.Put(2, O)
	s.Put(4, O)
	s.Put(6, O)
	assert.Equal(t, Won(O), s.State())
	assert.Equal(t, O, s.State().Winner())

	assert.Panics(t, func() { s.Put(0, X) }, "a decided subsquare must reject moves")
}

func TestForcedSubsquare(t *testing.T) {
	sq := NewSquare()
	sq.Analyze()
	sq.Put(4, 4, X)
	require.True(t, sq.Analyze().IsOngoing())

	for i := 0; i < 9; i++ {
		assert.Equal(t, i == 4, sq.IsValidSub(i), "subsquare %d", i)
	}

	// Finish subsquare 4 for O; the constraint must lift.
	sq.Put(4, 0, O)
	sq.Analyze()
	sq.Put(0, 4, X)
	sq.Analyze()
	sq.Put(4, 1, O)
	sq.Analyze()
	sq.Put(1, 4, X)
	sq.Analyze()
	require.True(t, sq.IsValidSub(4))
	for i := 0; i < 9; i++ {
		if i != 4 {
			assert.False(t, sq.IsValidSub(i), "subsquare %d", i)
		}
	}
	sq.Put(4, 2, O)
	assert.Equal(t, Won(O), sq.Get1(4).State())
	assert.Equal(t, 2, sq.Prev())

	sq.Analyze()
	assert.False(t, sq.IsValidSub(4))
	assert.True(t, sq.IsValidSub(2))
	assert.False(t, sq.IsValidSub(0))
}

func TestConstraintLiftsWhenTargetFinished(t *testing.T) {
	sq := NewSquare()
	// Play keeps bouncing back into subsquare 0 until O takes it.
	seq := []struct {
		sub, cell int
		p         Player
	}{
		{0, 0, X}, {0, 3, O}, {3, 0, X}, {0, 1, O}, {1, 0, X}, {0, 4, O}, {4, 0, X}, {0, 8, O}, {8, 0, X},
	}
	for _, s := range seq {
		require.True(t, sq.Analyze().IsOngoing())
		require.True(t, sq.IsValidCell(s.sub, s.cell), "%v", s)
		sq.Put(s.sub, s.cell, s.p)
	}
	// X's last move sent O to subsquare 0; O's cells 3,1,4,8 + X's 0 do not win.
	sq.Analyze()
	assert.Equal(t, 0, sq.Prev())

	sq.Put(0, 2, O)
	sq.Analyze()
	sq.Put(2, 0, X)
	sq.Analyze()
	sq.Put(0, 7, O) // 1,4,7 column for O
	assert.Equal(t, Won(O), sq.Get1(0).State())
	assert.Equal(t, 7, sq.Prev())
	sq.Analyze()
	assert.Equal(t, 7, sq.Prev(), "subsquare 7 is still open")

	sq.Put(7, 0, X)
	sq.Analyze()
	assert.Equal(t, Free, sq.Prev(), "subsquare 0 is decided, so the constraint lifts")
}

func TestGlobalWin(t *testing.T) {
	sq := NewSquare()
	for _, sub := range []int{0, 4, 8} {
		for _, cell := range []int{0, 1, 2} {
			sq.subs[sub].Put(cell, O)
		}
	}
	assert.Equal(t, Won(O), sq.Analyze())
	assert.Equal(t, scratchResult(sq), sq.Analyze())
}

func TestFeedback(t *testing.T) {
	sq := NewSquare()
	for _, cell := range []int{0, 1, 2} {
		sq.subs[0].Put(cell, X)
		sq.subs[5].Put(cell, X)
		sq.subs[7].Put(cell, O)
	}
	assert.InDelta(t, 0.05, sq.Feedback(X), 1e-12)
	assert.InDelta(t, -0.05, sq.Feedback(O), 1e-12)
	assert.InDelta(t, 0.0, NewSquare().Feedback(X), 1e-12)
}

func TestMoveEncoding(t *testing.T) {
	for sub := 0; sub < 9; sub++ {
		for cell := 0; cell < 9; cell++ {
			m := NewMove(sub, cell)
			require.Equal(t, sub, m.Sub())
			require.Equal(t, cell, m.Cell())

			parsed, err := ParseMove(m.String())
			require.NoError(t, err)
			require.Equal(t, m, parsed)
		}
	}

	m, err := ParseMove(" 5 5 ")
	require.NoError(t, err)
	assert.Equal(t, NewMove(4, 4), m)

	for _, bad := range []string{"", "0 1", "1 10", "a b", "1"} {
		_, err := ParseMove(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestRender(t *testing.T) {
	sq := NewSquare()
	sq.Put(0, 0, X)
	sq.Put(0, 8, O)
	sq.Put(8, 8, X)

	want := "X   |     |    \n" +
		"    |     |    \n" +
		"  O |     |    \n" +
		"----+-----+----\n" +
		"    |     |    \n" +
		"    |     |    \n" +
		"    |     |    \n" +
		"----+-----+----\n" +
		"    |     |    \n" +
		"    |     |    \n" +
		"    |     |   X\n"
	assert.Equal(t, want, sq.String())
}
