// Package agent implements the learning player: a two-stage network that
// scores positions, a negamax search with epsilon-greedy exploration, and
// trajectory-based training.
package agent

import (
	"math/rand"
	"time"

	"github.com/hailam/uttt/internal/board"
	"github.com/hailam/uttt/internal/nn"
	"github.com/hailam/uttt/internal/pool"
	"github.com/pkg/errors"
)

// Params are the agent's tunable scalars. They are mutated only by Train.
type Params struct {
	P        float64 `json:"p"`         // exploration probability
	PDecay   float64 `json:"p_decay"`   // applied to P after each trained game
	MinP     float64 `json:"min_p"`     // floor for P
	LR       float64 `json:"lr"`        // learning rate
	LRDecay  float64 `json:"lr_decay"`  // applied to LR after each trained game
	ImpDecay float64 `json:"imp_decay"` // per-ply attenuation walking back from the end
	MinLR    float64 `json:"min_lr"`    // floor for LR
}

// DefaultParams returns the parameters new agents start from.
func DefaultParams() Params {
	return Params{
		P:        1,
		PDecay:   0.995,
		MinP:     0.05,
		LR:       0.001,
		LRDecay:  0.99,
		ImpDecay: 1,
		MinLR:    0.0001,
	}
}

// Layout describes the shapes of the two networks.
type Layout struct {
	// First is the per-subsquare network, input first. First[0] must be 9.
	First []int `json:"first"`
	// SecondHidden lists the hidden and output widths of the global network.
	// Its input width is derived: 9 first-pass outputs per subsquare plus 9 legality flags.
	SecondHidden []int `json:"second_hidden"`
	// Weights are drawn from [Lo, Hi] scaled down by each layer's fan-in.
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// DefaultLayout returns the network shapes used for new agents.
func DefaultLayout() Layout {
	return Layout{
		First:        []int{9, 5, 3},
		SecondHidden: []int{15, 5, 1},
		Lo:           -1,
		Hi:           1,
	}
}

// SecondLayout returns the full layout of the global network.
func (l Layout) SecondLayout() []int {
	out := l.First[len(l.First)-1]
	return append([]int{9*out + 9}, l.SecondHidden...)
}

// Validate checks that the layout describes a usable pair of networks.
func (l Layout) Validate() error {
	if len(l.First) < 2 || l.First[0] != 9 {
		return errors.Errorf("first-pass layout must start with 9 inputs and have at least one layer, got %v", l.First)
	}
	if len(l.SecondHidden) == 0 || l.SecondHidden[len(l.SecondHidden)-1] < 1 {
		return errors.Errorf("second-pass layout needs at least one output, got %v", l.SecondHidden)
	}
	for _, w := range append(append([]int(nil), l.First...), l.SecondHidden...) {
		if w < 1 {
			return errors.Errorf("layer widths must be positive, got %v / %v", l.First, l.SecondHidden)
		}
	}
	if l.Lo > l.Hi {
		return errors.Errorf("weight range is empty: [%g, %g]", l.Lo, l.Hi)
	}
	return nil
}

// Buffers is the pool an agent borrows its vectors and move lists from.
type Buffers = pool.Pool[board.Move]

// NewBuffers creates an empty pool.
func NewBuffers() *Buffers {
	return pool.New[board.Move]()
}

// Agent owns a per-subsquare encoder (FirstPass) shared by all nine
// subsquares and a global evaluator (SecondPass).
type Agent struct {
	FirstPass  *nn.Network
	SecondPass *nn.Network
	Params

	rng *rand.Rand
}

// New assembles an agent from existing networks.
func New(first, second *nn.Network, params Params) (*Agent, error) {
	if err := checkShapes(first, second); err != nil {
		return nil, err
	}
	return &Agent{
		FirstPass:  first,
		SecondPass: second,
		Params:     params,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// NewRandom creates an agent with randomly initialised networks.
func NewRandom(rng *rand.Rand, layout Layout, params Params) (*Agent, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		FirstPass:  nn.NewRandom(rng, layout.Lo, layout.Hi, layout.First),
		SecondPass: nn.NewRandom(rng, layout.Lo, layout.Hi, layout.SecondLayout()),
		Params:     params,
		rng:        rand.New(rand.NewSource(rng.Int63())),
	}
	return a, nil
}

func checkShapes(first, second *nn.Network) error {
	if first == nil || second == nil {
		return errors.New("agent: missing network")
	}
	if first.InputWidth() != 9 {
		return errors.Errorf("agent: first pass takes %d inputs, want 9", first.InputWidth())
	}
	want := 9*first.OutputWidth() + 9
	if second.InputWidth() != want {
		return errors.Errorf("agent: second pass takes %d inputs, want %d", second.InputWidth(), want)
	}
	return nil
}

// SetRand replaces the source used for exploration.
func (a *Agent) SetRand(rng *rand.Rand) {
	a.rng = rng
}

// Clone returns an independent copy with its own random source.
func (a *Agent) Clone() *Agent {
	return &Agent{
		FirstPass:  a.FirstPass.Clone(),
		SecondPass: a.SecondPass.Clone(),
		Params:     a.Params,
		rng:        rand.New(rand.NewSource(a.rng.Int63())),
	}
}

// Greedy turns exploration off and returns a function restoring it.
func (a *Agent) Greedy() (restore func()) {
	p, minP := a.P, a.MinP
	a.P, a.MinP = 0, 0
	return func() {
		a.P, a.MinP = p, minP
	}
}
