package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func testContext(t *testing.T) *Context {
	ctx, err := GenerateContextWithPlainBits(4096, 16)
	assert.NilError(t, err)
	return ctx
}

func TestPlainModulusForBits(t *testing.T) {
	ctx := testContext(t)
	assert.Equal(t, ctx.PlainModulus(), uint64(40961))
	assert.Equal(t, ctx.N(), 4096)
	assert.Equal(t, ctx.Slots(), 4096)
	assert.Equal(t, ctx.DigitBits(), 15)

	for _, degree := range SupportedDegrees() {
		tm, err := plainModulusForBits(degree, 20)
		assert.NilError(t, err)
		assert.Equal(t, tm%uint64(2*degree), uint64(1))
		assert.Check(t, tm >= 1<<19 && tm < 1<<20)
	}
}

func TestGenerateContextErrors(t *testing.T) {
	cases := []struct {
		name   string
		degree int
		t      uint64
		bits   []int
	}{
		{"degree", 2048, 40961, nil},
		{"composite", 4096, 40963 * 3, nil},
		{"not batching friendly", 4096, 12289, nil},
		{"single modulus", 4096, 40961, []int{60}},
		{"modulus too large", 4096, 40961, []int{61, 40}},
		{"insecure", 4096, 40961, []int{60, 60, 60}},
		{"no noise budget", 8192, 1032193, []int{30, 30}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := GenerateContext(c.degree, c.t, c.bits...)
			assert.Assert(t, errors.Is(err, ErrInvalidParameter), "got %v", err)
		})
	}

	_, err := GenerateContextWithPlainBits(4096, 61)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}

func TestDefaultChains(t *testing.T) {
	for _, degree := range SupportedDegrees() {
		ctx, err := GenerateContextWithPlainBits(degree, 17)
		assert.NilError(t, err, "degree %d", degree)
		assert.Equal(t, ctx.PlainModulus(), uint64(65537))

		chain := defaultModuli[degree]
		want := 0
		for _, b := range append(append([]int{}, chain.logQ...), chain.logP...) {
			want += b
		}
		assert.Equal(t, modulusBits(ctx.Params()), want)
		assert.Assert(t, modulusBits(ctx.Params()) <= maxLogQP[degree])
	}

	ctx, err := GenerateContext(4096, 40961)
	assert.NilError(t, err)
	assert.Equal(t, modulusBits(ctx.Params()), 109)
}

func TestExplicitModuli(t *testing.T) {
	ctx, err := GenerateContext(8192, 65537, 55, 55, 60)
	assert.NilError(t, err)
	assert.Equal(t, ctx.Level(), 1)
	assert.Equal(t, ctx.Params().PCount(), 1)
}

func TestExpansionRatio(t *testing.T) {
	ctx := testContext(t)
	assert.Equal(t, ctx.ExpansionRatio(), 12)

	params, err := ctx.MarshalBinary()
	assert.NilError(t, err)
	for i := 0; i < 3; i++ {
		f, err := ExpansionRatio(params)
		assert.NilError(t, err)
		assert.Equal(t, f, 12)
	}

	_, err = ExpansionRatio([]byte("not parameters"))
	assert.Assert(t, errors.Is(err, ErrSerialization))
}

func TestContextMarshal(t *testing.T) {
	ctx := testContext(t)
	params, err := ctx.MarshalBinary()
	assert.NilError(t, err)
	other, err := UnmarshalContext(params)
	assert.NilError(t, err)
	assert.Assert(t, ctx.Equal(other))
	assert.Equal(t, other.String(), ctx.String())
}
