package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestIndexBytes(t *testing.T) {
	params, err := GenerateContextBytes(4096, 0, 16)
	assert.NilError(t, err)
	f, err := ExpansionRatioBytes(params)
	assert.NilError(t, err)
	assert.Equal(t, f, 12)

	keys, err := KeyGenBytes(params)
	assert.NilError(t, err)

	records := MakeRecords(RandSource(), 256, 8, 40961)
	db, err := NTTTransformBytes(params, records, Coefficients)
	assert.NilError(t, err)

	dims := []int{16, 16}
	// Record 37 is at row 2, column 5. Encrypt once with each key.
	for _, sk := range [][]byte{keys.Secret, nil} {
		query, err := GenerateIndexQueryBytes(params, keys.Public, sk, dims, []int{2, 5})
		assert.NilError(t, err)
		reply, err := GenerateReplyBytes(params, db, query, dims)
		assert.NilError(t, err)
		assert.Equal(t, len(reply), 12)
		got, err := DecryptReplyBytes(params, keys.Secret, reply, len(dims), 8)
		assert.NilError(t, err)
		assert.DeepEqual(t, got, records[37])
	}

	_, err = GenerateIndexQueryBytes(params, keys.Public, nil, dims, []int{2, 16})
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = GenerateIndexQueryBytes(params, nil, nil, dims, []int{2, 5})
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	_, err = GenerateReplyBytes(params, db, [][]byte{{1, 2}}, dims)
	assert.Assert(t, errors.Is(err, ErrSerialization))
}

func TestFastBytes(t *testing.T) {
	params, err := GenerateContextBytes(4096, 40961)
	assert.NilError(t, err)
	keys, err := KeyGenBytes(params, 1)
	assert.NilError(t, err)

	ctx, err := UnmarshalContext(params)
	assert.NilError(t, err)
	cells := MakeRecords(RandSource(), 20, ctx.SlotCapacity(), ctx.PlainModulus())
	db, err := NTTTransformBytes(params, cells, Slots)
	assert.NilError(t, err)

	query, err := GenerateFastQueryBytes(params, keys.Public, keys.Secret, 13, len(cells))
	assert.NilError(t, err)
	resp, err := GenerateResponseBytes(params, keys.Relin, keys.Galois, db, query)
	assert.NilError(t, err)
	slots, err := DecodeResponseBytes(params, keys.Secret, resp)
	assert.NilError(t, err)
	assert.Equal(t, len(slots), ctx.Slots())
	assert.DeepEqual(t, slots[:ctx.SlotCapacity()], cells[13])

	_, err = GenerateResponseBytes(params, keys.Relin, nil, db, query)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	_, err = GenerateFastQueryBytes(params, keys.Public, nil, 20, len(cells))
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))
}
