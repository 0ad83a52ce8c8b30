package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestKeyGenErrors(t *testing.T) {
	_, err := KeyGen(nil)
	assert.Assert(t, errors.Is(err, ErrKeyGeneration))

	ctx := testContext(t)
	for _, step := range []int{0, ctx.Slots() / 2, -ctx.Slots()} {
		_, err := KeyGen(ctx, WithRotations(step))
		assert.Assert(t, errors.Is(err, ErrKeyGeneration), "step %d", step)
	}
}

func TestKeysMarshal(t *testing.T) {
	ctx := testContext(t)
	keys, err := KeyGen(ctx, WithRotations(5), WithExpansionKeys())
	assert.NilError(t, err)
	// One rotation plus LogN expansion automorphisms.
	assert.Equal(t, len(keys.Galois), 1+ctx.LogN())

	ser, err := keys.Marshal()
	assert.NilError(t, err)
	server, err := UnmarshalServerKeys(ctx, ser.Relin, ser.Galois)
	assert.NilError(t, err)
	assert.DeepEqual(t, server.GaloisElements(), keys.ServerKeys().GaloisElements())
	assert.NilError(t, checkExpansionKeys(ctx, server, ctx.LogN()))

	sk, err := UnmarshalSecretKey(ctx, ser.Secret)
	assert.NilError(t, err)
	assert.Assert(t, sk.Equal(keys.Secret))
	pk, err := UnmarshalPublicKey(ctx, ser.Public)
	assert.NilError(t, err)
	assert.Assert(t, pk.Equal(keys.Public))

	other, err := GenerateContextWithPlainBits(8192, 17)
	assert.NilError(t, err)
	_, err = UnmarshalPublicKey(other, ser.Public)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	_, err = UnmarshalPublicKey(ctx, []byte("x"))
	assert.Assert(t, errors.Is(err, ErrSerialization))

	_, err = UnmarshalServerKeys(ctx, ser.Relin, []byte{0, 0, 0, 1})
	assert.Assert(t, errors.Is(err, ErrSerialization))
	_, err = UnmarshalSecretKey(ctx, []byte("x"))
	assert.Assert(t, errors.Is(err, ErrSerialization))
}

func TestMissingExpansionKeys(t *testing.T) {
	ctx := testContext(t)
	keys, err := KeyGen(ctx)
	assert.NilError(t, err)
	err = checkExpansionKeys(ctx, keys.ServerKeys(), 3)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	assert.NilError(t, checkExpansionKeys(ctx, keys.ServerKeys(), 0))
	assert.Assert(t, errors.Is(checkExpansionKeys(ctx, nil, 1), ErrInvalidParameter))
}
