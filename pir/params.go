package pir

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/ring"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"
)

const (
	// Number of trailing plaintext positions that are always zero in a
	// database cell. Checked when decoding to detect garbled decryptions.
	checkLen = 8

	// Bits of headroom required between the ciphertext modulus and the
	// worst-case noise of a response.
	noiseMarginBits = 8

	MaxPlainModulusBits = 60
)

type moduliChain struct {
	logQ []int
	logP []int
}

var defaultModuli = map[int]moduliChain{
	4096:  {logQ: []int{35, 35}, logP: []int{39}},
	8192:  {logQ: []int{55, 55}, logP: []int{60}},
	16384: {logQ: []int{55, 55, 55}, logP: []int{60}},
	32768: {logQ: []int{55, 55, 55, 55}, logP: []int{60}},
}

// Largest log2(QP) that keeps 128-bit security with a ternary secret
// (homomorphicencryption.org standard).
var maxLogQP = map[int]int{
	4096:  109,
	8192:  218,
	16384: 438,
	32768: 881,
}

// Context holds validated encryption parameters. It is immutable and safe
// to share between goroutines.
type Context struct {
	params  bfv.Parameters
	logBase int
}

// SupportedDegrees returns the ring degrees accepted by GenerateContext.
func SupportedDegrees() []int {
	return []int{4096, 8192, 16384, 32768}
}

// GenerateContext builds parameters for the given ring degree and plaintext
// modulus. When coeffModulusBits is given, its last entry is the size of the
// key-switching prime and the others form the ciphertext modulus chain.
func GenerateContext(degree int, plainModulus uint64, coeffModulusBits ...int) (*Context, error) {
	chain, ok := defaultModuli[degree]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported degree %d, expected one of %v", ErrInvalidParameter, degree, SupportedDegrees())
	}
	if len(coeffModulusBits) > 0 {
		if len(coeffModulusBits) < 2 {
			return nil, fmt.Errorf("%w: need at least two coefficient moduli, got %v", ErrInvalidParameter, coeffModulusBits)
		}
		for _, b := range coeffModulusBits {
			if b < 20 || b > 60 {
				return nil, fmt.Errorf("%w: coefficient modulus size %d not in [20, 60]", ErrInvalidParameter, b)
			}
		}
		n := len(coeffModulusBits)
		chain = moduliChain{
			logQ: append([]int(nil), coeffModulusBits[:n-1]...),
			logP: []int{coeffModulusBits[n-1]},
		}
	}
	if err := checkPlainModulus(degree, plainModulus); err != nil {
		return nil, err
	}

	params, err := bfv.NewParametersFromLiteral(bfv.ParametersLiteral{
		LogN:             bits.Len(uint(degree)) - 1,
		LogQ:             chain.logQ,
		LogP:             chain.logP,
		PlaintextModulus: plainModulus,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return newContext(params)
}

// GenerateContextWithPlainBits is like GenerateContext but picks the
// smallest batching-friendly prime plaintext modulus with the given bit
// length.
func GenerateContextWithPlainBits(degree int, plainModulusBits int) (*Context, error) {
	t, err := plainModulusForBits(degree, plainModulusBits)
	if err != nil {
		return nil, err
	}
	return GenerateContext(degree, t)
}

func plainModulusForBits(degree int, plainBits int) (uint64, error) {
	if _, ok := defaultModuli[degree]; !ok {
		return 0, fmt.Errorf("%w: unsupported degree %d", ErrInvalidParameter, degree)
	}
	if plainBits < 2 || plainBits > MaxPlainModulusBits {
		return 0, fmt.Errorf("%w: plaintext modulus size %d not in [2, %d]", ErrInvalidParameter, plainBits, MaxPlainModulusBits)
	}
	step := uint64(2 * degree)
	lo := uint64(1) << (plainBits - 1)
	hi := uint64(1) << plainBits
	start := (lo/step)*step + 1
	if start < lo {
		start += step
	}
	for t := start; t < hi; t += step {
		if ring.IsPrime(t) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: no %d-bit prime congruent to 1 mod %d", ErrInvalidParameter, plainBits, step)
}

func checkPlainModulus(degree int, t uint64) error {
	if t < 3 || bits.Len64(t) > MaxPlainModulusBits {
		return fmt.Errorf("%w: plaintext modulus %d out of range", ErrInvalidParameter, t)
	}
	if !ring.IsPrime(t) {
		return fmt.Errorf("%w: plaintext modulus %d is not prime", ErrInvalidParameter, t)
	}
	if t%uint64(2*degree) != 1 {
		return fmt.Errorf("%w: plaintext modulus %d is not 1 mod %d", ErrInvalidParameter, t, 2*degree)
	}
	return nil
}

func newContext(params bfv.Parameters) (*Context, error) {
	n := params.N()
	bound, ok := maxLogQP[n]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported degree %d", ErrInvalidParameter, n)
	}
	if params.PCount() == 0 {
		return nil, fmt.Errorf("%w: missing key-switching modulus", ErrInvalidParameter)
	}
	if logQP := modulusBits(params); logQP > bound {
		return nil, fmt.Errorf("%w: QP has %d bits, more than the %d allowed at N=%d for 128-bit security",
			ErrInvalidParameter, logQP, bound, n)
	}
	t := params.PlaintextModulus()
	logT := math.Log2(float64(t))
	for _, qi := range params.Q() {
		if qi <= t {
			return nil, fmt.Errorf("%w: ciphertext prime %d not larger than plaintext modulus %d", ErrInvalidParameter, qi, t)
		}
	}
	if budget := params.LogQ() - 2*logT - 2*float64(params.LogN()); budget < noiseMarginBits {
		return nil, fmt.Errorf("%w: noise budget of %.1f bits is below %d (log2 Q=%.1f, log2 t=%.1f)",
			ErrInvalidParameter, budget, noiseMarginBits, params.LogQ(), logT)
	}
	return &Context{params: params, logBase: bits.Len64(t) - 1}, nil
}

// modulusBits is the sum of the bit sizes of the Q and P primes. A chain of
// k-bit primes counts k bits per prime although its log2 is slightly above.
func modulusBits(params bfv.Parameters) int {
	total := 0
	for _, qi := range params.Q() {
		total += bits.Len64(qi)
	}
	for _, pi := range params.P() {
		total += bits.Len64(pi)
	}
	return total
}

// UnmarshalContext parses parameters produced by Context.MarshalBinary and
// validates them again.
func UnmarshalContext(data []byte) (*Context, error) {
	var params bfv.Parameters
	if err := params.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: parameters: %v", ErrSerialization, err)
	}
	if err := checkPlainModulus(params.N(), params.PlaintextModulus()); err != nil {
		return nil, err
	}
	return newContext(params)
}

func (c *Context) MarshalBinary() ([]byte, error) {
	return c.params.MarshalBinary()
}

// Params exposes the underlying lattigo parameters.
func (c *Context) Params() bfv.Parameters {
	return c.params
}

func (c *Context) N() int {
	return c.params.N()
}

func (c *Context) LogN() int {
	return c.params.LogN()
}

func (c *Context) PlainModulus() uint64 {
	return c.params.PlaintextModulus()
}

// Slots is the number of plaintext slots available with batched encoding.
func (c *Context) Slots() int {
	return c.params.MaxSlots()
}

func (c *Context) Level() int {
	return c.params.MaxLevel()
}

// CoefficientCapacity is the largest record size that fits a
// coefficient-encoded cell.
func (c *Context) CoefficientCapacity() int {
	return c.N() - checkLen
}

// SlotCapacity is the number of usable slots of a batched cell.
func (c *Context) SlotCapacity() int {
	return c.Slots() - checkLen
}

// DigitBits is the width of the digits a ciphertext is split into when it
// is carried inside plaintexts.
func (c *Context) DigitBits() int {
	return c.logBase
}

func (c *Context) digitsPerResidue(qi uint64) int {
	return (bits.Len64(qi) + c.logBase - 1) / c.logBase
}

// ExpansionRatio is the number of plaintexts needed to carry one degree-1
// ciphertext at the top level.
func (c *Context) ExpansionRatio() int {
	f := 0
	for _, qi := range c.params.Q()[:c.Level()+1] {
		f += c.digitsPerResidue(qi)
	}
	return 2 * f
}

func (c *Context) Equal(other *Context) bool {
	return other != nil && c.params.Equal(&other.params)
}

func (c *Context) String() string {
	return fmt.Sprintf("N=%d,t=%d,logQ=%.1f,logP=%.1f", c.N(), c.PlainModulus(), c.params.LogQ(), c.params.LogP())
}

// ExpansionRatio returns ctx.ExpansionRatio() for serialized parameters.
func ExpansionRatio(params []byte) (int, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return 0, err
	}
	return ctx.ExpansionRatio(), nil
}
