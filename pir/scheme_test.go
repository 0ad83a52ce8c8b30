package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestEncryptDecrypt(t *testing.T) {
	ctx := testContext(t)
	keys, err := KeyGen(ctx)
	assert.NilError(t, err)
	values := MakeRecords(RandSource(), 1, ctx.Slots(), ctx.PlainModulus())[0]

	for _, batched := range []bool{false, true} {
		for _, usePublic := range []bool{false, true} {
			encoder := NewEncoder(ctx)
			pt, err := encoder.NTTForward(values, batched)
			assert.NilError(t, err)

			var enc Encrypter
			if usePublic {
				enc, err = NewEncrypter(ctx, keys.Public, nil)
			} else {
				enc, err = NewEncrypter(ctx, keys.Secret, nil)
			}
			assert.NilError(t, err)
			ct, err := enc.Encrypt(pt)
			assert.NilError(t, err)

			got, err := encoder.NTTInverse(NewDecrypter(ctx, keys.Secret).Decrypt(ct), batched)
			assert.NilError(t, err)
			assert.DeepEqual(t, values, got)
		}
	}
}

func TestSeededEncryption(t *testing.T) {
	ctx := testContext(t)
	keys, err := KeyGen(ctx)
	assert.NilError(t, err)
	pt, err := NewEncoder(ctx).NTTForward([]uint64{1, 2, 3}, false)
	assert.NilError(t, err)

	// The seed fixes the uniform component only; the error stays fresh.
	uniform := func(seed []byte) []byte {
		enc, err := NewEncrypter(ctx, keys.Secret, seed)
		assert.NilError(t, err)
		ct, err := enc.Encrypt(pt)
		assert.NilError(t, err)
		b, err := ct.Value[1].MarshalBinary()
		assert.NilError(t, err)
		return b
	}
	seed, err := NewSeed()
	assert.NilError(t, err)
	assert.DeepEqual(t, uniform(seed), uniform(seed))

	other, err := NewSeed()
	assert.NilError(t, err)
	assert.Assert(t, string(uniform(seed)) != string(uniform(other)))
}

func TestRotation(t *testing.T) {
	ctx := testContext(t)
	keys, err := KeyGen(ctx, WithRotations(1, -3))
	assert.NilError(t, err)
	assert.Equal(t, len(keys.Galois), 2)

	values := MakeRecords(RandSource(), 1, ctx.Slots(), ctx.PlainModulus())[0]
	encoder := NewEncoder(ctx)
	pt, err := encoder.NTTForward(values, true)
	assert.NilError(t, err)
	enc, err := NewEncrypter(ctx, keys.Secret, nil)
	assert.NilError(t, err)
	ct, err := enc.Encrypt(pt)
	assert.NilError(t, err)

	eval := NewEvaluator(ctx, keys.ServerKeys())
	dec := NewDecrypter(ctx, keys.Secret)
	half := ctx.Slots() / 2
	for _, steps := range []int{1, -3} {
		rotated, err := eval.Rotate(ct, steps)
		assert.NilError(t, err)
		got, err := encoder.NTTInverse(dec.Decrypt(rotated), true)
		assert.NilError(t, err)
		for row := 0; row < 2; row++ {
			for i := 0; i < half; i++ {
				src := ((i+steps)%half + half) % half
				assert.Equal(t, values[row*half+src], got[row*half+i], "steps %d row %d slot %d", steps, row, i)
			}
		}
	}

	_, err = eval.Rotate(ct, 2)
	assert.Assert(t, err != nil)
}

func TestEncoderRejectsLargeValues(t *testing.T) {
	ctx := testContext(t)
	_, err := NewEncoder(ctx).NTTForward([]uint64{ctx.PlainModulus()}, false)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
	_, err = NewEncoder(ctx).NTTForward(make([]uint64, ctx.N()+1), false)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}
