// uttt-train trains a stored model headless, without the interactive session.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/hailam/uttt/internal/agent"
	"github.com/hailam/uttt/internal/config"
	"github.com/hailam/uttt/internal/storage"
	"github.com/hailam/uttt/internal/trainer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	envFile    = flag.String("env", ".env", "optional .env file with UTTT_* settings")
	modelName  = flag.String("model", "", "model to train; created if it does not exist")
	games      = flag.Int("games", 0, "number of games (default from config)")
	steps      = flag.Int("steps", 0, "training passes per game (default from config)")
	depth      = flag.Int("depth", -1, "search depth (default from config)")
	exportPath = flag.String("export", "", "also write the trained model to this file")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	list       = flag.Bool("list", false, "list stored models and exit")

	adversaries []string
)

func main() {
	flag.Func("adversary", "stored model to train against (repeatable); defaults to self-play", func(s string) error {
		adversaries = append(adversaries, strings.TrimSpace(s))
		return nil
	})
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if *games > 0 {
		cfg.Games = *games
	}
	if *steps > 0 {
		cfg.Steps = *steps
	}
	if *depth >= 0 {
		cfg.Depth = *depth
	}
	log := logrus.NewEntry(cfg.NewLogger())

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.WithError(err).Fatal("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.WithField("file", profilePath).Info("CPU profiling enabled")
	}

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("could not open storage")
	}
	defer store.Close()

	if *list {
		if err := listModels(store); err != nil {
			log.WithError(err).Error("could not list models")
		}
		return
	}

	if err := run(cfg, store, log); err != nil {
		log.WithError(err).Error("training failed")
	}
}

func listModels(store *storage.Storage) error {
	models, err := store.ListModels()
	if err != nil {
		return err
	}
	for _, info := range models {
		stats, err := store.LoadStats(info.Name)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"id":       info.ID,
			"layout":   info.SecondLayout,
			"lr":       info.Params.LR,
			"p":        info.Params.P,
			"games":    stats.GamesPlayed,
			"win_rate": stats.WinRate(),
			"updated":  info.UpdatedAt.Format(time.RFC3339),
		}).Info(info.Name)
	}
	return nil
}

func run(cfg config.Config, store *storage.Storage, log *logrus.Entry) error {
	if *modelName == "" {
		return errors.New("-model is required")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	a, err := store.LoadModel(*modelName)
	switch {
	case errors.Is(err, storage.ErrModelNotFound):
		log.WithField("model", *modelName).Info("creating new model")
		if a, err = agent.NewRandom(rng, cfg.Layout, cfg.Params); err != nil {
			return err
		}
	case err != nil:
		return err
	}
	a.SetRand(rand.New(rand.NewSource(rng.Int63())))

	t := trainer.New(*modelName, a, cfg.Depth, rng, log)
	t.Steps = cfg.Steps
	t.Recorder = store
	for _, name := range adversaries {
		adv, err := store.LoadModel(name)
		if err != nil {
			return err
		}
		adv.SetRand(rand.New(rand.NewSource(rng.Int63())))
		t.Adversaries = append(t.Adversaries, trainer.Opponent{Name: name, Agent: adv})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	tally, runErr := t.Run(ctx, cfg.Games)
	log.WithFields(logrus.Fields{
		"games":   tally.Games(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("session done")

	// Whatever was learned before an interrupt is kept.
	if _, err := store.SaveModel(*modelName, a); err != nil {
		return err
	}
	if *exportPath != "" {
		if err := storage.ExportModel(a, *exportPath); err != nil {
			return err
		}
		log.WithField("file", *exportPath).Info("model exported")
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
