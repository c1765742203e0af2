// uttt - Ultimate Tic-Tac-Toe against a model that teaches itself
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/hailam/uttt/internal/config"
	"github.com/hailam/uttt/internal/session"
	"github.com/hailam/uttt/internal/storage"
	"github.com/sirupsen/logrus"
)

var envFile = flag.String("env", ".env", "optional .env file with UTTT_* settings")

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logrus.NewEntry(cfg.NewLogger())

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("could not open storage")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	s := session.New(os.Stdin, os.Stdout, store, cfg, rand.New(rand.NewSource(seed)), log)
	err = s.Run(ctx)
	stop()

	if cerr := store.Close(); cerr != nil {
		log.WithError(cerr).Error("could not close storage")
	}
	if err != nil {
		log.WithError(err).Fatal("session failed")
	}
}
