// Package nn implements a small fully-connected tanh network with a
// weight-proportional update rule.
package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hailam/uttt/internal/pool"
)

// Network is a stack of fully-connected layers.
// Layers[l][n] is the weight vector of neuron n in layer l; its last entry is
// the bias, applied to a constant input of 1.
type Network struct {
	Layers [][][]float64
}

// New wraps the given weights. It panics if consecutive layers do not line up:
// every weight vector of layer l+1 must have len(Layers[l])+1 entries.
func New(layers [][][]float64) *Network {
	if err := validate(layers); err != nil {
		panic(err)
	}
	return &Network{Layers: layers}
}

func validate(layers [][][]float64) error {
	if len(layers) == 0 {
		return fmt.Errorf("nn: network has no layers")
	}
	for l, layer := range layers {
		if len(layer) == 0 {
			return fmt.Errorf("nn: layer %d has no neurons", l)
		}
		want := len(layer[0])
		if l > 0 {
			want = len(layers[l-1]) + 1
		}
		if want < 1 {
			return fmt.Errorf("nn: layer %d has empty weight vectors", l)
		}
		for n, w := range layer {
			if len(w) != want {
				return fmt.Errorf("nn: layer %d neuron %d has %d weights, want %d", l, n, len(w), want)
			}
		}
	}
	return nil
}

// NewRandom builds a network for the given layout of widths (input first).
// Each weight is drawn uniformly from [lo/(fanIn+1), hi/(fanIn+1)].
func NewRandom(rng *rand.Rand, lo, hi float64, layout []int) *Network {
	if len(layout) < 2 {
		panic("nn: layout needs an input and at least one layer")
	}
	layers := make([][][]float64, 0, len(layout)-1)
	for i := 1; i < len(layout); i++ {
		m := layout[i-1] + 1
		a, b := lo/float64(m), hi/float64(m)
		layer := make([][]float64, layout[i])
		for n := range layer {
			w := make([]float64, m)
			for j := range w {
				w[j] = a + rng.Float64()*(b-a)
			}
			layer[n] = w
		}
		layers = append(layers, layer)
	}
	return New(layers)
}

// InputWidth returns the number of inputs the first layer expects.
func (n *Network) InputWidth() int {
	return len(n.Layers[0][0]) - 1
}

// OutputWidth returns the number of neurons in the last layer.
func (n *Network) OutputWidth() int {
	return len(n.Layers[len(n.Layers)-1])
}

// Layout returns the widths of the network, input first.
func (n *Network) Layout() []int {
	layout := []int{n.InputWidth()}
	for _, layer := range n.Layers {
		layout = append(layout, len(layer))
	}
	return layout
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	layers := make([][][]float64, len(n.Layers))
	for l, layer := range n.Layers {
		layers[l] = make([][]float64, len(layer))
		for i, w := range layer {
			layers[l][i] = append([]float64(nil), w...)
		}
	}
	return &Network{Layers: layers}
}

// Equal reports whether both networks have identical shapes and weights.
func (n *Network) Equal(o *Network) bool {
	if len(n.Layers) != len(o.Layers) {
		return false
	}
	for l := range n.Layers {
		if len(n.Layers[l]) != len(o.Layers[l]) {
			return false
		}
		for i := range n.Layers[l] {
			a, b := n.Layers[l][i], o.Layers[l][i]
			if len(a) != len(b) {
				return false
			}
			for j := range a {
				if a[j] != b[j] {
					return false
				}
			}
		}
	}
	return true
}

func activate(x float64) float64 {
	if math.IsNaN(x) {
		panic("nn: NaN activation")
	}
	return math.Tanh(x)
}

// inverseSlope is 1/tanh'(x) = cosh(x)^2.
func inverseSlope(x float64) float64 {
	if math.IsNaN(x) {
		panic("nn: NaN activation")
	}
	c := math.Cosh(x)
	return c * c
}

// Run evaluates the network on *input. For every layer the pre-activation
// values are appended to *trace as a buffer borrowed from vecs; Train gives
// them back. On return *input holds the output of the last layer.
// Buffers are swapped with the pool, so *input may be a different slice afterwards.
func (n *Network) Run(input *[]float64, trace *[][]float64, vecs *pool.Stack[float64]) {
	next := vecs.Get()
	for _, layer := range n.Layers {
		next = next[:0]
		in := *input
		for _, w := range layer {
			if len(in)+1 != len(w) {
				panic(fmt.Sprintf("nn: input width %d, layer expects %d", len(in), len(w)-1))
			}
			val := 0.0
			for i, x := range in {
				val += x * w[i]
			}
			next = append(next, val+w[len(in)])
		}

		snap := append(vecs.Get(), next...)
		*trace = append(*trace, snap)

		for i, x := range next {
			next[i] = activate(x)
		}
		*input, next = next, in
	}
	vecs.Put(next)
}

// Train walks the layers backwards with the trace recorded by Run and moves
// each neuron's weights by its share of the incoming delta.
//
// For a neuron with pre-activation x and upstream delta u, d = u*cosh(x)^2 is
// split over the weights in proportion to w/sum(|w|). Each weight moves by its
// share and the same share is passed on to the matching input of the layer
// below; the bias share is dropped. There is no learning rate here: the
// caller scales *delta before the call.
//
// On return *delta holds the delta for the network input. Every trace buffer
// is returned to vecs.
func (n *Network) Train(delta *[]float64, trace [][]float64, vecs *pool.Stack[float64]) {
	if len(trace) != len(n.Layers) {
		panic(fmt.Sprintf("nn: trace has %d layers, network has %d", len(trace), len(n.Layers)))
	}

	next := vecs.Get()
	for l := len(n.Layers) - 1; l >= 0; l-- {
		layer, pre := n.Layers[l], trace[l]
		if len(layer) != len(pre) || len(pre) != len(*delta) {
			panic(fmt.Sprintf("nn: layer %d has %d neurons, trace %d, delta %d", l, len(layer), len(pre), len(*delta)))
		}

		width := len(layer[0])
		next = next[:0]
		for i := 0; i < width; i++ {
			next = append(next, 0)
		}

		for i, w := range layer {
			d := inverseSlope(pre[i]) * (*delta)[i]
			if d == 0 {
				continue
			}
			wsum := 0.0
			for _, v := range w {
				wsum += math.Abs(v)
			}
			if wsum == 0 {
				continue
			}
			for j, v := range w {
				c := d * v / wsum
				w[j] += c
				next[j] += c
			}
		}

		*delta, next = next[:width-1], *delta
		vecs.Put(pre)
		trace[l] = nil
	}
	vecs.Put(next)
}

// ReleaseTrace returns a trace that will not be trained on.
func ReleaseTrace(vecs *pool.Stack[float64], trace *[][]float64) {
	vecs.PutAll(trace)
}
