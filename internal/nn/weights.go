package nn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Weight stream format constants
const (
	MagicNumber = 0x4E4E5454 // "TTNN"
	Version     = 1

	maxLayers  = 64
	maxNeurons = 1 << 16
)

// ErrBadMagic is returned when a weight stream does not start with MagicNumber.
var ErrBadMagic = errors.New("nn: invalid magic number")

// FileHeader is the header of a weight stream.
type FileHeader struct {
	Magic   uint32
	Version uint32
	Layers  uint32
}

// LayerHeader precedes the weights of each layer.
type LayerHeader struct {
	Neurons uint32
	Width   uint32 // weights per neuron, bias included
}

// WriteWeights writes the network to w.
// Format (little endian):
//   - Header: Magic (4 bytes), Version (4 bytes), Layers (4 bytes)
//   - Per layer: Neurons (4 bytes), Width (4 bytes), Neurons*Width float64
func (n *Network) WriteWeights(w io.Writer) error {
	header := FileHeader{
		Magic:   MagicNumber,
		Version: Version,
		Layers:  uint32(len(n.Layers)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for l, layer := range n.Layers {
		lh := LayerHeader{Neurons: uint32(len(layer)), Width: uint32(len(layer[0]))}
		if err := binary.Write(w, binary.LittleEndian, &lh); err != nil {
			return fmt.Errorf("failed to write layer %d header: %w", l, err)
		}
		for i, weights := range layer {
			if err := binary.Write(w, binary.LittleEndian, weights); err != nil {
				return fmt.Errorf("failed to write layer %d neuron %d: %w", l, i, err)
			}
		}
	}

	return nil
}

// ReadWeights reads a network written by WriteWeights.
func ReadWeights(r io.Reader) (*Network, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: expected %x, got %x", ErrBadMagic, MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("unsupported version: expected %d, got %d", Version, header.Version)
	}
	if header.Layers == 0 || header.Layers > maxLayers {
		return nil, fmt.Errorf("invalid layer count %d", header.Layers)
	}

	layers := make([][][]float64, header.Layers)
	for l := range layers {
		var lh LayerHeader
		if err := binary.Read(r, binary.LittleEndian, &lh); err != nil {
			return nil, fmt.Errorf("failed to read layer %d header: %w", l, err)
		}
		if lh.Neurons == 0 || lh.Neurons > maxNeurons || lh.Width == 0 || lh.Width > maxNeurons+1 {
			return nil, fmt.Errorf("invalid shape for layer %d: %dx%d", l, lh.Neurons, lh.Width)
		}

		layer := make([][]float64, lh.Neurons)
		for i := range layer {
			layer[i] = make([]float64, lh.Width)
			if err := binary.Read(r, binary.LittleEndian, layer[i]); err != nil {
				return nil, fmt.Errorf("failed to read layer %d neuron %d: %w", l, i, err)
			}
		}
		layers[l] = layer
	}

	if err := validate(layers); err != nil {
		return nil, err
	}
	return &Network{Layers: layers}, nil
}
