package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestNTTInverse(t *testing.T) {
	ctx := testContext(t)
	for _, encoding := range []Encoding{Coefficients, Slots} {
		t.Run(encoding.String(), func(t *testing.T) {
			codec := NewCodec(ctx, encoding).WithWorkers(4)
			cells := MakeRecords(RandSource(), 20, 100, ctx.PlainModulus())
			cells[3] = cells[3][:7]
			orig := make([][]uint64, len(cells))
			for i := range cells {
				orig[i] = append([]uint64(nil), cells[i]...)
			}

			pts, err := codec.NTTTransform(cells)
			assert.NilError(t, err)
			assert.Equal(t, len(pts), len(cells))
			assert.DeepEqual(t, cells, orig)

			for i, pt := range pts {
				assert.Assert(t, pt.IsNTT)
				got, err := codec.InverseTransform(pt)
				assert.NilError(t, err)
				assert.Equal(t, len(got), codec.Capacity())
				assert.DeepEqual(t, got[:len(cells[i])], cells[i])
				assert.NilError(t, checkZero(got, len(cells[i])))
			}
		})
	}
}

func TestNTTTransformDeterministic(t *testing.T) {
	ctx := testContext(t)
	cells := MakeRecords(RandSource(), 33, 16, ctx.PlainModulus())
	serial, err := NewCodec(ctx, Slots).WithWorkers(1).NTTTransform(cells)
	assert.NilError(t, err)
	parallel, err := NewCodec(ctx, Slots).WithWorkers(8).NTTTransform(cells)
	assert.NilError(t, err)
	a, err := MarshalPlaintexts(serial)
	assert.NilError(t, err)
	b, err := MarshalPlaintexts(parallel)
	assert.NilError(t, err)
	assert.DeepEqual(t, a, b)
}

func TestNTTTransformErrors(t *testing.T) {
	ctx := testContext(t)
	_, err := NewCodec(ctx, Coefficients).NTTTransform([][]uint64{make([]uint64, ctx.N()+1)})
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	_, err = NewCodec(ctx, Slots).NTTTransform([][]uint64{{0, ctx.PlainModulus() + 5}})
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}

func TestNTTTransformBytes(t *testing.T) {
	ctx := testContext(t)
	params, err := ctx.MarshalBinary()
	assert.NilError(t, err)
	cells := MakeRecords(RandSource(), 4, 10, ctx.PlainModulus())
	blobs, err := NTTTransformBytes(params, cells, Coefficients)
	assert.NilError(t, err)
	pts, err := UnmarshalPlaintexts(ctx, blobs)
	assert.NilError(t, err)
	codec := NewCodec(ctx, Coefficients)
	for i, pt := range pts {
		got, err := codec.InverseTransform(pt)
		assert.NilError(t, err)
		assert.DeepEqual(t, got[:10], cells[i])
	}

	_, err = NTTTransformBytes([]byte{1, 2, 3}, cells, Coefficients)
	assert.Assert(t, errors.Is(err, ErrSerialization))
}
