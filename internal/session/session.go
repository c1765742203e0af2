// Package session implements the interactive text front end: load or create
// a model, optionally train it, play against it, and save it.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/hailam/uttt/internal/agent"
	"github.com/hailam/uttt/internal/board"
	"github.com/hailam/uttt/internal/config"
	"github.com/hailam/uttt/internal/storage"
	"github.com/hailam/uttt/internal/trainer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Store is the model persistence the session works with.
type Store interface {
	trainer.Recorder
	LoadModel(name string) (*agent.Agent, error)
	SaveModel(name string, a *agent.Agent) (*storage.ModelInfo, error)
	ListModels() ([]storage.ModelInfo, error)
	LoadStats(name string) (*storage.GameStats, error)
}

// model is an agent together with the name it is stored under, if any.
type model struct {
	name  string
	agent *agent.Agent
}

// Session is one interactive run over a line-oriented input and output.
type Session struct {
	scanner *bufio.Scanner
	out     io.Writer

	store Store
	cfg   config.Config
	rng   *rand.Rand
	log   *logrus.Entry
	buf   *agent.Buffers
}

// New creates a session reading answers from in and writing prompts to out.
func New(in io.Reader, out io.Writer, store Store, cfg config.Config, rng *rand.Rand, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		scanner: bufio.NewScanner(in),
		out:     out,
		store:   store,
		cfg:     cfg,
		rng:     rng,
		log:     log,
		buf:     agent.NewBuffers(),
	}
}

// Run walks through the whole session. Running out of input ends it quietly.
func (s *Session) Run(ctx context.Context) error {
	err := s.run(ctx)
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(s.out)
		return nil
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	m, err := s.getModel()
	if err != nil {
		return err
	}
	if err := s.train(ctx, m); err != nil {
		return err
	}

	restore := m.agent.Greedy()
	for {
		ok, err := s.confirm("play with the model? (will train the model too) (y/n): ")
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := s.play(m); err != nil {
			return err
		}
	}
	restore()

	return s.save(m)
}

func (s *Session) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", errors.Wrap(err, "read input")
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.scanner.Text()), nil
}

func (s *Session) confirm(prompt string) (bool, error) {
	ans, err := s.ask(prompt)
	if err != nil {
		return false, err
	}
	return ans == "y" || ans == "Y", nil
}

// askInt repeats the prompt until a non-negative integer is entered.
func (s *Session) askInt(prompt string) (int, error) {
	for {
		ans, err := s.ask(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(ans)
		if err == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(s.out, "not a number.")
	}
}

// getModel loads a stored model or an exported model file, or creates a fresh one.
func (s *Session) getModel() (*model, error) {
	ok, err := s.confirm("load existing model? (y/n): ")
	if err != nil {
		return nil, err
	}
	if !ok {
		a, err := agent.NewRandom(s.rng, s.cfg.Layout, s.cfg.Params)
		if err != nil {
			return nil, err
		}
		a.SetRand(rand.New(rand.NewSource(s.rng.Int63())))
		return &model{agent: a}, nil
	}

	if models, err := s.store.ListModels(); err == nil && len(models) > 0 {
		fmt.Fprintln(s.out, "stored models:")
		for _, info := range models {
			fmt.Fprintf(s.out, "  %s (updated %s)\n", info.Name, info.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}

	for {
		name, err := s.ask("model name or file: ")
		if err != nil {
			return nil, err
		}

		a, err := s.store.LoadModel(name)
		if errors.Is(err, storage.ErrModelNotFound) && fileExists(name) {
			// Imported files are not in the store until saved.
			if a, err = storage.ImportModel(name); err == nil {
				a.SetRand(rand.New(rand.NewSource(s.rng.Int63())))
				s.log.WithField("file", name).Info("model imported")
				return &model{agent: a}, nil
			}
		}
		if err != nil {
			fmt.Fprintf(s.out, "could not load %q: %v\n", name, err)
			continue
		}

		a.SetRand(rand.New(rand.NewSource(s.rng.Int63())))
		s.log.WithField("model", name).Info("model loaded")
		if stats, err := s.store.LoadStats(name); err == nil && stats.GamesPlayed > 0 {
			fmt.Fprintf(s.out, "%d games played, %.1f%% won\n", stats.GamesPlayed, stats.WinRate())
		}
		return &model{name: name, agent: a}, nil
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Session) train(ctx context.Context, m *model) error {
	ok, err := s.confirm("train the model? (y/n): ")
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(s.out, "for the adversarial model:")
	var adversaries []trainer.Opponent
	for {
		adv, err := s.getModel()
		if err != nil {
			return err
		}
		adversaries = append(adversaries, trainer.Opponent{Name: adv.name, Agent: adv.agent})

		more, err := s.confirm("add another adversarial model? (y/n): ")
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	games, err := s.askInt("number of games: ")
	if err != nil {
		return err
	}
	steps, err := s.askInt("number of training steps for each game: ")
	if err != nil {
		return err
	}

	t := trainer.New(m.name, m.agent, s.cfg.Depth, s.rng, s.log)
	t.Adversaries = adversaries
	t.Steps = steps
	t.Buffers = s.buf
	t.Recorder = s.store

	tally, err := t.Run(ctx, games)
	fmt.Fprintf(s.out, "wins: %d\nlosses: %d\ndraws: %d\n", tally.Wins, tally.Losses, tally.Draws)
	return err
}

// humanMove prompts until a legal move is entered. A complete move such as
// "5 3" may be typed at the subsquare prompt.
func (s *Session) humanMove(sq *board.Square) (board.Move, error) {
	var sub int
	for {
		ans, err := s.ask("choose subsquare: ")
		if err != nil {
			return board.NoMove, err
		}
		if m, err := board.ParseMove(ans); err == nil && sq.IsLegal(m) {
			return m, nil
		}
		x, err := strconv.Atoi(ans)
		if err == nil && x > 0 && x < 10 && sq.IsValidSub(x-1) {
			sub = x - 1
			break
		}
		fmt.Fprintln(s.out, "invalid subsquare address.")
	}

	for {
		ans, err := s.ask("choose cell: ")
		if err != nil {
			return board.NoMove, err
		}
		y, err := strconv.Atoi(ans)
		if err == nil && y > 0 && y < 10 && sq.IsValidCell(sub, y-1) {
			return board.NewMove(sub, y-1), nil
		}
		fmt.Fprintln(s.out, "invalid cell address.")
	}
}

// play runs one game between the user and the model, then trains the model on it.
func (s *Session) play(m *model) error {
	first, err := s.confirm("do you want to go first? (y/n): ")
	if err != nil {
		return err
	}
	human := board.O
	if first {
		human = board.X
	}

	sq := board.NewSquare()
	var traj agent.Trajectory
	p := board.X
	for sq.Analyze().IsOngoing() {
		fmt.Fprintln(s.out, sq)
		traj = append(traj, *sq)

		var mv board.Move
		who := "AI"
		if p == human {
			who = "You"
			if mv, err = s.humanMove(sq); err != nil {
				return err
			}
		} else {
			_, mv = m.agent.Search(sq, p, s.cfg.Depth, s.buf)
		}
		fmt.Fprintf(s.out, "%s chose subsquare %d, cell %d\n", who, mv.Sub()+1, mv.Cell()+1)

		sq.Put(mv.Sub(), mv.Cell(), p)
		p = p.Other()
	}

	res := sq.Analyze()
	fmt.Fprintln(s.out, sq)
	traj = append(traj, *sq)

	switch storage.OutcomeFor(res, human) {
	case storage.Win:
		fmt.Fprintln(s.out, "you won!")
	case storage.Loss:
		fmt.Fprintln(s.out, "the model won.")
	default:
		fmt.Fprintln(s.out, "draw.")
	}

	m.agent.Train(traj, res, s.buf)
	if m.name != "" {
		if err := s.store.RecordGame(m.name, storage.OutcomeFor(res, human.Other())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) save(m *model) error {
	ok, err := s.confirm("save the model? (y/n): ")
	if err != nil || !ok {
		return err
	}

	for {
		prompt := "model name: "
		if m.name != "" {
			prompt = fmt.Sprintf("model name [%s]: ", m.name)
		}
		name, err := s.ask(prompt)
		if err != nil {
			return err
		}
		if name == "" {
			name = m.name
		}
		if name == "" {
			continue
		}

		info, err := s.store.SaveModel(name, m.agent)
		if err != nil {
			return err
		}
		m.name = name
		s.log.WithFields(logrus.Fields{"model": name, "id": info.ID}).Info("model saved")
		fmt.Fprintf(s.out, "saved %s\n", name)
		return nil
	}
}
