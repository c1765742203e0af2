// Package trainer runs training sessions: a model plays a series of games
// against a pool of adversaries and learns from every one of them.
package trainer

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/hailam/uttt/internal/agent"
	"github.com/hailam/uttt/internal/board"
	"github.com/hailam/uttt/internal/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Recorder receives the outcome of every game, keyed by model name.
type Recorder interface {
	RecordGame(name string, o storage.Outcome) error
}

// Opponent is an adversary model. Name may be empty for anonymous opponents.
type Opponent struct {
	Name  string
	Agent *agent.Agent
}

// Tally counts outcomes from the trained model's point of view.
type Tally struct {
	Wins   int
	Losses int
	Draws  int
}

// Games returns the number of games counted.
func (t Tally) Games() int {
	return t.Wins + t.Losses + t.Draws
}

func (t *Tally) add(o storage.Outcome) {
	switch o {
	case storage.Win:
		t.Wins++
	case storage.Loss:
		t.Losses++
	default:
		t.Draws++
	}
}

// Trainer drives a training session for one model.
type Trainer struct {
	Name  string
	Agent *agent.Agent

	// Adversaries are picked uniformly per game. With none, the model plays itself.
	Adversaries []Opponent

	Depth int // search depth for both sides
	Steps int // training passes per game

	Buffers  *agent.Buffers
	Recorder Recorder // optional
	Log      *logrus.Entry

	rng *rand.Rand
}

// New creates a trainer with one training pass per game.
func New(name string, a *agent.Agent, depth int, rng *rand.Rand, log *logrus.Entry) *Trainer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Trainer{
		Name:    name,
		Agent:   a,
		Depth:   depth,
		Steps:   1,
		Buffers: agent.NewBuffers(),
		Log:     log,
		rng:     rng,
	}
}

func (t *Trainer) pick() Opponent {
	if len(t.Adversaries) == 0 {
		return Opponent{Name: t.Name, Agent: t.Agent}
	}
	return t.Adversaries[t.rng.Intn(len(t.Adversaries))]
}

// Run plays games games. The model moves first in even-numbered games.
// After each game both sides train Steps times on it; a model playing
// itself trains once per step. The context is checked between games.
func (t *Trainer) Run(ctx context.Context, games int) (Tally, error) {
	var tally Tally
	log := t.Log.WithFields(logrus.Fields{"run": uuid.New(), "model": t.Name})
	log.WithFields(logrus.Fields{"games": games, "adversaries": len(t.Adversaries)}).Info("training started")

	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			log.WithField("played", i).Warn("training interrupted")
			return tally, err
		}

		opp := t.pick()
		first, second, side := t.Agent, opp.Agent, board.X
		if i&1 == 1 {
			first, second, side = opp.Agent, t.Agent, board.O
		}

		traj, res := agent.PlayGame(first, second, t.Depth, t.Buffers)
		outcome := storage.OutcomeFor(res, side)
		tally.add(outcome)
		log.WithFields(logrus.Fields{
			"game":     i,
			"opponent": opp.Name,
			"side":     side,
			"plies":    len(traj) - 1,
			"result":   res,
		}).Debug("game finished")

		for j := 0; j < t.Steps; j++ {
			t.Agent.Train(traj, res, t.Buffers)
			if opp.Agent != t.Agent {
				opp.Agent.Train(traj, res, t.Buffers)
			}
		}

		if err := t.record(opp, outcome); err != nil {
			return tally, err
		}
	}

	log.WithFields(logrus.Fields{
		"wins":   tally.Wins,
		"losses": tally.Losses,
		"draws":  tally.Draws,
		"lr":     t.Agent.LR,
		"p":      t.Agent.P,
	}).Info("training finished")
	return tally, nil
}

func (t *Trainer) record(opp Opponent, o storage.Outcome) error {
	if t.Recorder == nil {
		return nil
	}
	if t.Name != "" {
		if err := t.Recorder.RecordGame(t.Name, o); err != nil {
			return errors.Wrap(err, "record game")
		}
	}
	if opp.Name != "" && opp.Agent != t.Agent {
		if err := t.Recorder.RecordGame(opp.Name, o.Reverse()); err != nil {
			return errors.Wrap(err, "record game")
		}
	}
	return nil
}
