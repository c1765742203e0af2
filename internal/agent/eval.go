package agent

import (
	"github.com/hailam/uttt/internal/board"
	"github.com/hailam/uttt/internal/nn"
)

// Evaluation is the result of scoring one position, together with the
// forward traces Train needs. All buffers belong to the pool it was made from.
type Evaluation struct {
	Value  float64
	First  [9][][]float64 // first-pass trace per subsquare
	Second [][]float64    // second-pass trace
}

// Release returns every buffer held by the evaluation.
func (e *Evaluation) Release(buf *Buffers) {
	for i := range e.First {
		nn.ReleaseTrace(&buf.Vecs, &e.First[i])
		buf.Traces.Put(e.First[i])
		e.First[i] = nil
	}
	nn.ReleaseTrace(&buf.Vecs, &e.Second)
	buf.Traces.Put(e.Second)
	e.Second = nil
}

func cellValue(c, perspective board.Player) float64 {
	switch c {
	case board.NoPlayer:
		return 0
	case perspective:
		return 1
	default:
		return -1
	}
}

// Evaluate scores sq from perspective's point of view.
// Each subsquare is encoded as +1 (own), -1 (opponent), 0 (empty) and run
// through FirstPass; the nine outputs plus one legality flag per subsquare
// feed SecondPass, whose first output is the value.
// The caller must Release the result.
func (a *Agent) Evaluate(sq *board.Square, perspective board.Player, buf *Buffers) Evaluation {
	var ev Evaluation

	in1 := buf.Vecs.Get()
	in2 := buf.Vecs.Get()
	for i := 0; i < 9; i++ {
		sub := sq.Get1(i)
		for j := 0; j < 9; j++ {
			in1 = append(in1, cellValue(sub.Get1(j), perspective))
		}
		ev.First[i] = buf.Traces.Get()
		a.FirstPass.Run(&in1, &ev.First[i], &buf.Vecs)
		in2 = append(in2, in1...)
		in1 = in1[:0]
	}
	buf.Vecs.Put(in1)

	for i := 0; i < 9; i++ {
		if sq.IsValidSub(i) {
			in2 = append(in2, 1)
		} else {
			in2 = append(in2, 0)
		}
	}

	ev.Second = buf.Traces.Get()
	a.SecondPass.Run(&in2, &ev.Second, &buf.Vecs)
	ev.Value = in2[0]
	buf.Vecs.Put(in2)

	return ev
}

// Value scores sq without keeping the traces.
func (a *Agent) Value(sq *board.Square, perspective board.Player, buf *Buffers) float64 {
	ev := a.Evaluate(sq, perspective, buf)
	v := ev.Value
	ev.Release(buf)
	return v
}
