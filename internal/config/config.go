// Package config holds the tunables of the trainer and the interactive
// session. Values come from built-in defaults, optional .env files and
// UTTT_* environment variables, in increasing order of precedence.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/hailam/uttt/internal/agent"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const envPrefix = "UTTT_"

// Config is the complete runtime configuration.
type Config struct {
	Depth  int          // search depth in plies below the root move
	Layout agent.Layout // shapes of newly created models
	Params agent.Params // hyperparameters of newly created models

	Games int // training games per session
	Steps int // training passes per game

	DataDir  string // database directory, empty for the platform default
	LogLevel string
	Seed     int64 // 0 seeds from the clock
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Depth:    2,
		Layout:   agent.DefaultLayout(),
		Params:   agent.DefaultParams(),
		Games:    1000,
		Steps:    1,
		LogLevel: "info",
	}
}

// Load reads the given .env files, if present, and applies environment
// overrides on top of the defaults. Variables already set in the
// environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", f)
		}
	}

	c := Default()
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	ints := map[string]*int{
		"DEPTH": &c.Depth,
		"GAMES": &c.Games,
		"STEPS": &c.Steps,
	}
	for k, p := range ints {
		if err := getenvInt(k, p); err != nil {
			return err
		}
	}

	floats := map[string]*float64{
		"P":         &c.Params.P,
		"P_DECAY":   &c.Params.PDecay,
		"MIN_P":     &c.Params.MinP,
		"LR":        &c.Params.LR,
		"LR_DECAY":  &c.Params.LRDecay,
		"IMP_DECAY": &c.Params.ImpDecay,
		"MIN_LR":    &c.Params.MinLR,
		"WEIGHT_LO": &c.Layout.Lo,
		"WEIGHT_HI": &c.Layout.Hi,
	}
	for k, p := range floats {
		if err := getenvFloat(k, p); err != nil {
			return err
		}
	}

	layouts := map[string]*[]int{
		"FIRST_LAYOUT":  &c.Layout.First,
		"SECOND_HIDDEN": &c.Layout.SecondHidden,
	}
	for k, p := range layouts {
		if err := getenvInts(k, p); err != nil {
			return err
		}
	}

	if v, ok := lookup("SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%sSEED", envPrefix)
		}
		c.Seed = seed
	}
	if v, ok := lookup("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	return v, v != ""
}

func getenvInt(key string, p *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "%s%s", envPrefix, key)
	}
	*p = n
	return nil
}

func getenvFloat(key string, p *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return errors.Wrapf(err, "%s%s", envPrefix, key)
	}
	*p = f
	return nil
}

// getenvInts parses a comma separated list such as "9,5,3".
func getenvInts(key string, p *[]int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	var out []int
	for _, s := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, key)
		}
		out = append(out, n)
	}
	*p = out
	return nil
}

// Validate checks that the configuration can be used.
func (c Config) Validate() error {
	if c.Depth < 0 {
		return errors.Errorf("depth must not be negative, got %d", c.Depth)
	}
	if c.Games < 0 {
		return errors.Errorf("games must not be negative, got %d", c.Games)
	}
	if c.Steps < 1 {
		return errors.Errorf("steps must be at least 1, got %d", c.Steps)
	}
	if err := c.Layout.Validate(); err != nil {
		return errors.Wrap(err, "layout")
	}

	p := c.Params
	for name, v := range map[string]float64{"p": p.P, "min_p": p.MinP} {
		if v < 0 || v > 1 {
			return errors.Errorf("%s must be in [0, 1], got %g", name, v)
		}
	}
	for name, v := range map[string]float64{"p_decay": p.PDecay, "lr_decay": p.LRDecay, "imp_decay": p.ImpDecay} {
		if v <= 0 || v > 1 {
			return errors.Errorf("%s must be in (0, 1], got %g", name, v)
		}
	}
	if p.LR <= 0 || p.MinLR < 0 {
		return errors.Errorf("learning rate must be positive with a non-negative floor, got %g / %g", p.LR, p.MinLR)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// NewLogger creates the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
