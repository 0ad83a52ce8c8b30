package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

type Encoding int

const (
	// Coefficients puts one value in each polynomial coefficient.
	Coefficients Encoding = iota
	// Slots puts one value in each SIMD slot.
	Slots
)

// Codec converts integer cells into NTT-domain plaintexts ready for
// plaintext-ciphertext products, and back.
type Codec struct {
	ctx      *Context
	encoding Encoding
	workers  int
	encoder  Encoder
}

func (e Encoding) String() string {
	switch e {
	case Coefficients:
		return "Coefficients"
	case Slots:
		return "Slots"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

func NewCodec(ctx *Context, encoding Encoding) *Codec {
	return &Codec{ctx: ctx, encoding: encoding, encoder: NewEncoder(ctx)}
}

// WithWorkers sets the number of goroutines used by NTTTransform.
func (c *Codec) WithWorkers(workers int) *Codec {
	c.workers = workers
	return c
}

func (c *Codec) Encoding() Encoding {
	return c.encoding
}

// Capacity is the number of values a single plaintext holds.
func (c *Codec) Capacity() int {
	if c.encoding == Slots {
		return c.ctx.Slots()
	}
	return c.ctx.N()
}

// NTTTransform encodes every cell into its own plaintext. Cells are not
// modified; shorter cells are zero padded.
func (c *Codec) NTTTransform(cells [][]uint64) ([]*rlwe.Plaintext, error) {
	for i, cell := range cells {
		if len(cell) > c.Capacity() {
			return nil, fmt.Errorf("%w: cell %d has %d values, capacity is %d", ErrInvalidParameter, i, len(cell), c.Capacity())
		}
	}
	workers := numWorkers(c.workers, len(cells))
	encoders := make([]Encoder, workers)
	for w := range encoders {
		encoders[w] = c.encoder.ShallowCopy()
	}
	pts := make([]*rlwe.Plaintext, len(cells))
	err := parallelFor(workers, len(cells), func(w, i int) (err error) {
		if pts[i], err = encoders[w].NTTForward(cells[i], c.encoding == Slots); err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pts, nil
}

// InverseTransform recovers the values of a plaintext produced by
// NTTTransform, padded to Capacity.
func (c *Codec) InverseTransform(pt *rlwe.Plaintext) ([]uint64, error) {
	return c.encoder.NTTInverse(pt, c.encoding == Slots)
}

// NTTTransformBytes encodes cells under serialized parameters and returns
// the serialized plaintexts.
func NTTTransformBytes(params []byte, cells [][]uint64, encoding Encoding) ([][]byte, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	pts, err := NewCodec(ctx, encoding).NTTTransform(cells)
	if err != nil {
		return nil, err
	}
	return MarshalPlaintexts(pts)
}
