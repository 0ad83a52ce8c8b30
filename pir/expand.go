package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"
)

// expander turns a ciphertext of a polynomial m(X) into 2^l ciphertexts of
// the constants 2^l * m_j, using the automorphisms X -> X^(N/2^i+1).
type expander struct {
	ctx   *Context
	ringQ *ring.Ring
	// xPow2[i] is X^(-2^i) in NTT and Montgomery form.
	xPow2 []ring.Poly
}

func newExpander(ctx *Context) *expander {
	ringQ := ctx.params.RingQ().AtLevel(ctx.Level())
	return &expander{ctx: ctx, ringQ: ringQ, xPow2: rlwe.GenXPow2(ringQ, ctx.LogN(), true)}
}

// checkExpansionKeys reports whether keys allow expanding over 2^logSize
// coefficients.
func checkExpansionKeys(ctx *Context, keys *ServerKeys, logSize int) error {
	for _, el := range ExpansionGaloisElements(ctx, logSize) {
		if keys == nil || !keys.hasGaloisElement(el) {
			return fmt.Errorf("%w: missing Galois key for element %d", ErrInvalidParameter, el)
		}
	}
	return nil
}

// expand runs on evals[w] for worker w; len(evals) must be at least
// numWorkers(workers, 2^(logSize-1)).
func (e *expander) expand(evals []Evaluator, ct *rlwe.Ciphertext, logSize, workers int) ([]*rlwe.Ciphertext, error) {
	if ct.Degree() != 1 || ct.Level() != e.ctx.Level() || !ct.IsNTT {
		return nil, fmt.Errorf("%w: query ciphertext must be degree 1, NTT, at level %d", ErrInvalidParameter, e.ctx.Level())
	}
	if logSize < 0 || logSize > e.ctx.LogN() {
		return nil, fmt.Errorf("%w: cannot expand into 2^%d ciphertexts", ErrInvalidParameter, logSize)
	}
	out := make([]*rlwe.Ciphertext, 1<<logSize)
	out[0] = ct.CopyNew()
	tmps := make([]*rlwe.Ciphertext, len(evals))
	for w := range tmps {
		tmps[w] = bfv.NewCiphertext(e.ctx.params, 1, ct.Level())
	}
	for i := 0; i < logSize; i++ {
		half := 1 << i
		galEl := uint64(e.ctx.N()>>i) + 1
		err := parallelFor(workers, half, func(w, j int) error {
			c0, tmp := out[j], tmps[w]
			if err := evals[w].Automorphism(c0, galEl, tmp); err != nil {
				return fmt.Errorf("%w: expansion step %d: %v", ErrInvalidParameter, i, err)
			}
			c1 := c0.CopyNew()
			for k := 0; k < 2; k++ {
				e.ringQ.Add(c0.Value[k], tmp.Value[k], c0.Value[k])
				e.ringQ.Sub(c1.Value[k], tmp.Value[k], c1.Value[k])
				e.ringQ.MulCoeffsMontgomery(c1.Value[k], e.xPow2[i], c1.Value[k])
			}
			out[j+half] = c1
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
