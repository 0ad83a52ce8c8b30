package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestBlobs(t *testing.T) {
	blobs := [][]byte{[]byte("a"), {}, []byte("hello world")}
	data := MarshalBlobs(blobs)
	assert.Equal(t, len(data), 4+3*4+1+11)
	got, err := UnmarshalBlobs(data)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 3)
	assert.Equal(t, string(got[0]), "a")
	assert.Equal(t, len(got[1]), 0)
	assert.Equal(t, string(got[2]), "hello world")

	empty, err := UnmarshalBlobs(MarshalBlobs(nil))
	assert.NilError(t, err)
	assert.Equal(t, len(empty), 0)
}

func TestBlobsMalformed(t *testing.T) {
	data := MarshalBlobs([][]byte{[]byte("abc"), []byte("de")})
	for _, bad := range [][]byte{
		nil,
		data[:3],
		data[:len(data)-1],
		append(append([]byte(nil), data...), 0),
		{0xff, 0xff, 0xff, 0xff},
		{0, 0, 0, 1, 0, 0, 1, 0},
	} {
		_, err := UnmarshalBlobs(bad)
		assert.Assert(t, errors.Is(err, ErrSerialization), "input %v", bad)
	}
}

func TestUnmarshalCiphertextErrors(t *testing.T) {
	ctx := testContext(t)
	_, err := UnmarshalCiphertext(ctx, []byte("garbage"))
	assert.Assert(t, errors.Is(err, ErrSerialization))

	other, err := GenerateContextWithPlainBits(8192, 17)
	assert.NilError(t, err)
	keys, err := KeyGen(other)
	assert.NilError(t, err)
	enc, err := NewEncrypter(other, keys.Secret, nil)
	assert.NilError(t, err)
	pt, err := NewEncoder(other).NTTForward(nil, false)
	assert.NilError(t, err)
	ct, err := enc.Encrypt(pt)
	assert.NilError(t, err)
	blob, err := ct.MarshalBinary()
	assert.NilError(t, err)
	_, err = UnmarshalCiphertext(ctx, blob)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))

	ct.Value = ct.Value[:0]
	blob, err = ct.MarshalBinary()
	assert.NilError(t, err)
	_, err = UnmarshalCiphertext(ctx, blob)
	assert.Assert(t, errors.Is(err, ErrSerialization), "got %v", err)
	_, err = UnmarshalCiphertexts(ctx, [][]byte{blob})
	assert.Assert(t, errors.Is(err, ErrSerialization))

	_, err = UnmarshalPlaintexts(ctx, [][]byte{{1}})
	assert.Assert(t, errors.Is(err, ErrSerialization))
}
