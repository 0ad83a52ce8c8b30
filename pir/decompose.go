package pir

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// decompose splits a degree-1 ciphertext into ExpansionRatio() vectors of
// N digits, each below 2^DigitBits, so that it can be carried by
// plaintexts. Vector order is (polynomial, RNS limb, digit), least
// significant digit first.
func (c *Context) decompose(ct *rlwe.Ciphertext) ([][]uint64, error) {
	if ct.Degree() != 1 || ct.Level() != c.Level() {
		return nil, fmt.Errorf("%w: cannot decompose ciphertext of degree %d at level %d", ErrInvalidParameter, ct.Degree(), ct.Level())
	}
	n := c.N()
	mask := uint64(1)<<c.logBase - 1
	out := make([][]uint64, 0, c.ExpansionRatio())
	for k := 0; k < 2; k++ {
		for i, qi := range c.params.Q()[:c.Level()+1] {
			residues := ct.Value[k].Coeffs[i]
			for d := 0; d < c.digitsPerResidue(qi); d++ {
				shift := uint(d * c.logBase)
				digits := make([]uint64, n)
				for j := 0; j < n; j++ {
					digits[j] = (residues[j] >> shift) & mask
				}
				out = append(out, digits)
			}
		}
	}
	return out, nil
}

// recompose is the inverse of decompose. The ciphertext takes a copy of
// meta. Digits or residues out of range mean the digits were not produced
// by decompose under this context, and are reported as ErrDecryption.
func (c *Context) recompose(digits [][]uint64, meta *rlwe.MetaData) (*rlwe.Ciphertext, error) {
	if len(digits) != c.ExpansionRatio() {
		return nil, fmt.Errorf("%w: got %d digit vectors, expected %d", ErrInvalidParameter, len(digits), c.ExpansionRatio())
	}
	n := c.N()
	level := c.Level()
	ct := rlwe.NewCiphertext(c.params, 1, level)
	ct.MetaData = meta.CopyNew()

	f := 0
	for k := 0; k < 2; k++ {
		for i, qi := range c.params.Q()[:level+1] {
			residues := ct.Value[k].Coeffs[i]
			qBits := bits.Len64(qi)
			numDigits := c.digitsPerResidue(qi)
			for j := 0; j < n; j++ {
				var r uint64
				for d := 0; d < numDigits; d++ {
					digit := digits[f+d][j]
					shift := d * c.logBase
					width := c.logBase
					if d == numDigits-1 {
						width = qBits - shift
					}
					if digit>>uint(width) != 0 {
						return nil, fmt.Errorf("%w: digit %d of coefficient %d out of range", ErrDecryption, f+d, j)
					}
					r |= digit << uint(shift)
				}
				if r >= qi {
					return nil, fmt.Errorf("%w: residue %d of coefficient %d exceeds modulus", ErrDecryption, i, j)
				}
				residues[j] = r
			}
			f += numDigits
		}
	}
	return ct, nil
}
