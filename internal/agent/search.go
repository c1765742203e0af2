package agent

import (
	"math"

	"github.com/hailam/uttt/internal/board"
)

// Search picks a move for player and returns it with its negamax score.
//
// With probability P a uniformly random legal move is played and scored
// instead of searching all of them. Otherwise every legal move is made,
// scored and taken back in place; the strictly best score wins and ties
// keep the earliest move. A position is scored by Evaluate once depth is
// exhausted or the game is over, else as the negation of the opponent's
// best reply one ply shallower.
//
// The caller must have called Analyze on sq. The board is left unchanged.
func (a *Agent) Search(sq *board.Square, player board.Player, depth int, buf *Buffers) (float64, board.Move) {
	moves := sq.ValidMoves(&buf.Moves)
	defer buf.Moves.Put(moves)

	if len(moves) > 0 && a.P > 0 && a.rng.Float64() < a.P {
		m := moves[a.rng.Intn(len(moves))]
		return a.score(sq, m, player, depth, buf), m
	}

	best, bestMove := math.Inf(-1), board.NoMove
	for _, m := range moves {
		if s := a.score(sq, m, player, depth, buf); s > best {
			best, bestMove = s, m
		}
	}
	return best, bestMove
}

// score plays m, scores the resulting position for player and takes m back.
func (a *Agent) score(sq *board.Square, m board.Move, player board.Player, depth int, buf *Buffers) float64 {
	undo := sq.MakeMove(m, player)
	defer sq.UnmakeMove(undo)

	if depth == 0 || !sq.Analyze().IsOngoing() {
		return a.Value(sq, player, buf)
	}
	s, _ := a.Search(sq, player.Other(), depth-1, buf)
	return -s
}
