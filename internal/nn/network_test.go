package nn

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/hailam/uttt/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSingleNeuron(t *testing.T) {
	var vecs pool.Stack[float64]
	net := New([][][]float64{{{0.5, -0.25, 0.1}}})

	in := append(vecs.Get(), 1, 2)
	var trace [][]float64
	net.Run(&in, &trace, &vecs)

	require.Len(t, in, 1)
	assert.InDelta(t, math.Tanh(0.1), in[0], 1e-12)
	require.Len(t, trace, 1)
	assert.InDelta(t, 0.1, trace[0][0], 1e-12)

	ReleaseTrace(&vecs, &trace)
	vecs.Put(in)
	assert.Equal(t, 0, vecs.Outstanding())
}

func TestRunTwoLayers(t *testing.T) {
	var vecs pool.Stack[float64]
	net := New([][][]float64{
		{{1, 0, 0}, {0, 1, 0.5}},
		{{1, -1, 0}},
	})

	in := append(vecs.Get(), 0.3, -0.2)
	var trace [][]float64
	net.Run(&in, &trace, &vecs)

	h0, h1 := math.Tanh(0.3), math.Tanh(0.3)
	require.Len(t, trace, 2)
	assert.InDelta(t, 0.3, trace[0][0], 1e-12)
	assert.InDelta(t, 0.3, trace[0][1], 1e-12)
	assert.InDelta(t, h0-h1, trace[1][0], 1e-12)
	assert.InDelta(t, math.Tanh(h0-h1), in[0], 1e-12)

	ReleaseTrace(&vecs, &trace)
	vecs.Put(in)
}

func TestRunPanics(t *testing.T) {
	var vecs pool.Stack[float64]
	net := New([][][]float64{{{0.5, -0.25, 0.1}}})

	t.Run("width mismatch", func(t *testing.T) {
		in := []float64{1, 2, 3}
		var trace [][]float64
		assert.Panics(t, func() { net.Run(&in, &trace, &vecs) })
	})
	t.Run("NaN input", func(t *testing.T) {
		in := []float64{math.NaN(), 1}
		var trace [][]float64
		assert.Panics(t, func() { net.Run(&in, &trace, &vecs) })
	})
	t.Run("NaN weight", func(t *testing.T) {
		bad := New([][][]float64{{{math.NaN(), 0, 0}}})
		in := []float64{0, 0}
		var trace [][]float64
		assert.Panics(t, func() { bad.Run(&in, &trace, &vecs) })
	})
}

func TestNewRejectsMismatchedLayers(t *testing.T) {
	assert.Panics(t, func() {
		New([][][]float64{
			{{1, 0, 0}, {0, 1, 0}},
			{{1, 1}},
		})
	})
}

func TestTrainSingleNeuron(t *testing.T) {
	var vecs pool.Stack[float64]
	net := New([][][]float64{{{0.5, -0.25, 0.1}}})

	in := append(vecs.Get(), 1, 2)
	var trace [][]float64
	net.Run(&in, &trace, &vecs)

	delta := append(vecs.Get(), 0.2)
	net.Train(&delta, trace, &vecs)

	c := math.Cosh(0.1)
	d := 0.2 * c * c
	wsum := 0.85
	w := net.Layers[0][0]
	assert.InDelta(t, 0.5+d*0.5/wsum, w[0], 1e-12)
	assert.InDelta(t, -0.25+d*-0.25/wsum, w[1], 1e-12)
	assert.InDelta(t, 0.1+d*0.1/wsum, w[2], 1e-12)

	require.Len(t, delta, 2, "bias slot is dropped")
	assert.InDelta(t, d*0.5/wsum, delta[0], 1e-12)
	assert.InDelta(t, d*-0.25/wsum, delta[1], 1e-12)

	vecs.Put(delta)
	vecs.Put(in)
	assert.Equal(t, 0, vecs.Outstanding())
}

func TestTrainConservesDelta(t *testing.T) {
	var vecs pool.Stack[float64]
	rng := rand.New(rand.NewSource(3))
	net := NewRandom(rng, -1, 1, []int{4, 3})
	before := net.Clone()

	in := append(vecs.Get(), 0.1, -0.4, 0.9, 0.0)
	var trace [][]float64
	net.Run(&in, &trace, &vecs)
	pre := append([]float64(nil), trace[0]...)

	delta := append(vecs.Get(), 0.01, -0.02, 0.03)
	up := append([]float64(nil), delta...)
	net.Train(&delta, trace, &vecs)

	// Each neuron moves its weights by exactly d in the signed-proportion sense:
	// sum(change * sign(w)) == d.
	for i, w := range net.Layers[0] {
		c := math.Cosh(pre[i])
		d := up[i] * c * c
		moved := 0.0
		for j := range w {
			change := w[j] - before.Layers[0][i][j]
			moved += change * math.Copysign(1, before.Layers[0][i][j])
		}
		assert.InDelta(t, d, moved, 1e-12, "neuron %d", i)
	}

	vecs.Put(delta)
	vecs.Put(in)
}

func TestTrainZeroDeltaIsNoop(t *testing.T) {
	var vecs pool.Stack[float64]
	rng := rand.New(rand.NewSource(4))
	net := NewRandom(rng, -1, 1, []int{9, 5, 3})
	before := net.Clone()

	in := vecs.Get()
	for i := 0; i < 9; i++ {
		in = append(in, float64(i%3-1))
	}
	var trace [][]float64
	net.Run(&in, &trace, &vecs)

	delta := append(vecs.Get(), 0, 0, 0)
	net.Train(&delta, trace, &vecs)

	assert.True(t, net.Equal(before))
	assert.Len(t, delta, 9)
	for _, d := range delta {
		assert.Zero(t, d)
	}

	vecs.Put(delta)
	vecs.Put(in)
	assert.Equal(t, 0, vecs.Outstanding())
}

func TestNewRandomRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net := NewRandom(rng, -1, 1, []int{9, 5, 3})

	assert.Equal(t, []int{9, 5, 3}, net.Layout())
	assert.Equal(t, 9, net.InputWidth())
	assert.Equal(t, 3, net.OutputWidth())

	for _, w := range net.Layers[0] {
		require.Len(t, w, 10)
		for _, v := range w {
			assert.LessOrEqual(t, math.Abs(v), 0.1)
		}
	}
	for _, w := range net.Layers[1] {
		require.Len(t, w, 6)
		for _, v := range w {
			assert.LessOrEqual(t, math.Abs(v), 1.0/6)
		}
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	net := NewRandom(rng, -1, 1, []int{36, 15, 5, 1})

	var buf bytes.Buffer
	require.NoError(t, net.WriteWeights(&buf))

	got, err := ReadWeights(&buf)
	require.NoError(t, err)
	assert.True(t, net.Equal(got))
}

func TestReadWeightsErrors(t *testing.T) {
	_, err := ReadWeights(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}))
	assert.ErrorIs(t, err, ErrBadMagic)

	rng := rand.New(rand.NewSource(7))
	var buf bytes.Buffer
	require.NoError(t, NewRandom(rng, -1, 1, []int{2, 2}).WriteWeights(&buf))
	truncated := buf.Bytes()[:buf.Len()-3]
	_, err = ReadWeights(bytes.NewReader(truncated))
	assert.Error(t, err)
}
