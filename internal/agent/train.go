package agent

import (
	"math"

	"github.com/hailam/uttt/internal/board"
)

// Train updates both networks from a finished game.
//
// Draws carry no signal and leave the agent untouched. Otherwise the
// trajectory is replayed from the final position backwards. For each
// position and each side the error is feedback + reward - prediction, where
// reward is +1 for the winner and -1 for the loser. The error, scaled by the
// effective learning rate, is trained into SecondPass; the delta it hands
// back is cut into one block per subsquare and trained into FirstPass with
// that subsquare's trace. The effective rate shrinks by ImpDecay per ply.
// Afterwards LR and P decay towards their floors.
func (a *Agent) Train(traj Trajectory, result board.Result, buf *Buffers) {
	var reward [2]float64
	switch {
	case result.IsDraw():
		return
	case result.IsWon():
		w := result.Winner()
		reward[w], reward[w.Other()] = 1, -1
	default:
		panic("agent: training on an unfinished game")
	}

	k := a.FirstPass.OutputWidth()
	lr := a.LR
	d := buf.Vecs.Get()
	d2 := buf.Vecs.Get()

	for i := len(traj) - 1; i >= 0; i-- {
		sq := &traj[i]
		for _, p := range [2]board.Player{board.X, board.O} {
			ev := a.Evaluate(sq, p, buf)
			c := sq.Feedback(p) + reward[p] - ev.Value

			d = append(d[:0], c*lr)
			a.SecondPass.Train(&d, ev.Second, &buf.Vecs)
			buf.Traces.Put(ev.Second)

			for s := 0; s < 9; s++ {
				d2 = append(d2[:0], d[s*k:(s+1)*k]...)
				a.FirstPass.Train(&d2, ev.First[s], &buf.Vecs)
				buf.Traces.Put(ev.First[s])
			}
		}
		lr *= a.ImpDecay
	}

	buf.Vecs.Put(d)
	buf.Vecs.Put(d2)

	a.LR = math.Max(a.LR*a.LRDecay, a.MinLR)
	a.P = math.Max(a.P*a.PDecay, a.MinP)
}
