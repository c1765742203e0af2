package agent

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hailam/uttt/internal/nn"
	"github.com/pkg/errors"
)

const (
	codecMagic   = 0x41545455 // "UTTA"
	codecVersion = 1
)

var (
	ErrBadMagic           = errors.New("agent: invalid magic number")
	ErrUnsupportedVersion = errors.New("agent: unsupported version")
)

type codecHeader struct {
	Magic   uint32
	Version uint32
}

// Encode writes the complete agent state: parameters, then both networks.
func (a *Agent) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, codecHeader{codecMagic, codecVersion}); err != nil {
		return errors.Wrap(err, "write agent header")
	}
	if err := binary.Write(w, binary.LittleEndian, &a.Params); err != nil {
		return errors.Wrap(err, "write agent params")
	}
	if err := a.FirstPass.WriteWeights(w); err != nil {
		return errors.Wrap(err, "write first pass")
	}
	if err := a.SecondPass.WriteWeights(w); err != nil {
		return errors.Wrap(err, "write second pass")
	}
	return nil
}

// Decode reads an agent written by Encode.
func Decode(r io.Reader) (*Agent, error) {
	var h codecHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "read agent header")
	}
	if h.Magic != codecMagic {
		return nil, errors.Wrapf(ErrBadMagic, "got %#x", h.Magic)
	}
	if h.Version != codecVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", h.Version, codecVersion)
	}

	var params Params
	if err := binary.Read(r, binary.LittleEndian, &params); err != nil {
		return nil, errors.Wrap(err, "read agent params")
	}
	first, err := nn.ReadWeights(r)
	if err != nil {
		return nil, errors.Wrap(err, "read first pass")
	}
	second, err := nn.ReadWeights(r)
	if err != nil {
		return nil, errors.Wrap(err, "read second pass")
	}
	return New(first, second, params)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a *Agent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The random source is kept.
func (a *Agent) UnmarshalBinary(data []byte) error {
	d, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if a.rng != nil {
		d.rng = a.rng
	}
	*a = *d
	return nil
}
