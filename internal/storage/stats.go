package storage

import (
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hailam/uttt/internal/board"
	"github.com/pkg/errors"
)

// Outcome is the result of one game from a model's point of view.
type Outcome int

const (
	Loss Outcome = iota
	Draw
	Win
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "loss"
	}
}

// Reverse returns the outcome of the same game for the opponent.
func (o Outcome) Reverse() Outcome {
	return Win - o
}

// OutcomeFor converts a finished game result to p's outcome.
func OutcomeFor(res board.Result, p board.Player) Outcome {
	switch {
	case res.IsWon() && res.Winner() == p:
		return Win
	case res.IsWon():
		return Loss
	default:
		return Draw
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int       `json:"games_played"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	Draws          int       `json:"draws"`
	LongestWinStrk int       `json:"longest_win_streak"`
	CurrentStreak  int       `json:"current_streak"`
	LastPlayed     time.Time `json:"last_played"`
}

// Add updates the statistics with one game.
func (s *GameStats) Add(o Outcome) {
	s.GamesPlayed++
	s.LastPlayed = time.Now()

	switch o {
	case Win:
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestWinStrk {
			s.LongestWinStrk = s.CurrentStreak
		}
	case Draw:
		s.Draws++
		s.CurrentStreak = 0
	default:
		s.Losses++
		s.CurrentStreak = 0
	}
}

// WinRate returns the win rate as a percentage (0-100)
func (s *GameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// LoadStats loads the statistics of a model, returns empty stats if none were recorded
func (s *Storage) LoadStats(name string) (*GameStats, error) {
	stats := &GameStats{}
	err := s.db.View(func(txn *badger.Txn) error {
		err := getJSON(txn, prefixStats+name, stats)
		if err == badger.ErrKeyNotFound {
			return nil // Use empty stats
		}
		return err
	})
	return stats, errors.Wrapf(err, "load stats %q", name)
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(name string, o Outcome) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		stats := &GameStats{}
		if err := getJSON(txn, prefixStats+name, stats); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		stats.Add(o)
		return setJSON(txn, prefixStats+name, stats)
	})
	return errors.Wrapf(err, "record game for %q", name)
}
