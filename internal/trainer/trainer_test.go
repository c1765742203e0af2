package trainer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/hailam/uttt/internal/agent"
	"github.com/hailam/uttt/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder map[string][]storage.Outcome

func (m memRecorder) RecordGame(name string, o storage.Outcome) error {
	m[name] = append(m[name], o)
	return nil
}

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(log)
}

func newAgent(t *testing.T, seed int64) *agent.Agent {
	t.Helper()
	a, err := agent.NewRandom(rand.New(rand.NewSource(seed)), agent.DefaultLayout(), agent.DefaultParams())
	require.NoError(t, err)
	return a
}

func TestRunSelfPlay(t *testing.T) {
	a := newAgent(t, 1)
	rec := memRecorder{}
	tr := New("solo", a, 0, rand.New(rand.NewSource(2)), testLog())
	tr.Recorder = rec

	tally, err := tr.Run(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 6, tally.Games())
	assert.Len(t, rec["solo"], 6)
	assert.Len(t, rec, 1)
	assert.Equal(t, 0, tr.Buffers.Outstanding())

	var fromRec Tally
	for _, o := range rec["solo"] {
		fromRec.add(o)
	}
	assert.Equal(t, tally, fromRec)
}

func TestRunAgainstAdversaries(t *testing.T) {
	a := newAgent(t, 3)
	adv := newAgent(t, 4)
	advBefore := adv.Clone()
	rec := memRecorder{}

	tr := New("main", a, 0, rand.New(rand.NewSource(5)), testLog())
	tr.Adversaries = []Opponent{{Name: "adv", Agent: adv}}
	tr.Steps = 2
	tr.Recorder = rec

	tally, err := tr.Run(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, tally.Games())
	require.Len(t, rec["main"], 4)
	require.Len(t, rec["adv"], 4)
	for i, o := range rec["main"] {
		assert.Equal(t, o.Reverse(), rec["adv"][i])
	}

	if tally.Draws < tally.Games() {
		assert.False(t, adv.FirstPass.Equal(advBefore.FirstPass), "adversary learns too")
	}
}

func TestRunCancelled(t *testing.T) {
	a := newAgent(t, 6)
	before := a.Clone()
	tr := New("m", a, 0, rand.New(rand.NewSource(7)), testLog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tally, err := tr.Run(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tally.Games())
	assert.True(t, a.FirstPass.Equal(before.FirstPass))
}

func TestTally(t *testing.T) {
	var tally Tally
	for _, o := range []storage.Outcome{storage.Win, storage.Loss, storage.Draw, storage.Win} {
		tally.add(o)
	}
	assert.Equal(t, Tally{Wins: 2, Losses: 1, Draws: 1}, tally)
	assert.Equal(t, 4, tally.Games())
}
