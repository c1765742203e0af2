package agent

import "github.com/hailam/uttt/internal/board"

// Trajectory is the sequence of positions of one game, initial and final included.
type Trajectory []board.Square

// PlayGame plays first (as X) against second (as O) until the game ends,
// searching depth plies for every move.
func PlayGame(first, second *Agent, depth int, buf *Buffers) (Trajectory, board.Result) {
	players := [2]*Agent{first, second}
	sq := board.NewSquare()
	traj := make(Trajectory, 0, 82)

	p := board.X
	for {
		res := sq.Analyze()
		traj = append(traj, *sq)
		if !res.IsOngoing() {
			return traj, res
		}

		_, m := players[p].Search(sq, p, depth, buf)
		sq.Put(m.Sub(), m.Cell(), p)
		p = p.Other()
	}
}

// SelfPlay plays a full game with the agent on both sides.
func (a *Agent) SelfPlay(depth int, buf *Buffers) (Trajectory, board.Result) {
	return PlayGame(a, a, depth, buf)
}
