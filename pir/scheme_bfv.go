package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bfv"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

type bfvEncoder struct {
	ctx *Context
	enc *bfv.Encoder
}

func NewEncoder(ctx *Context) Encoder {
	return &bfvEncoder{ctx: ctx, enc: bfv.NewEncoder(ctx.params)}
}

func (e *bfvEncoder) NTTForward(values []uint64, batched bool) (*rlwe.Plaintext, error) {
	limit := e.ctx.N()
	if batched {
		limit = e.ctx.Slots()
	}
	if len(values) > limit {
		return nil, fmt.Errorf("%w: %d values do not fit in %d positions", ErrInvalidParameter, len(values), limit)
	}
	t := e.ctx.PlainModulus()
	for i, v := range values {
		if v >= t {
			return nil, fmt.Errorf("%w: value %d at position %d is not below the plaintext modulus %d",
				ErrInvalidParameter, v, i, t)
		}
	}
	pt := bfv.NewPlaintext(e.ctx.params, e.ctx.Level())
	pt.IsBatched = batched
	if err := e.enc.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return pt, nil
}

func (e *bfvEncoder) NTTInverse(pt *rlwe.Plaintext, batched bool) ([]uint64, error) {
	// Decode through a copy of the metadata, pt may be shared.
	view := *pt
	meta := *pt.MetaData
	view.MetaData = &meta
	view.IsBatched = batched
	n := e.ctx.N()
	if batched {
		view.LogDimensions = e.ctx.params.LogMaxDimensions()
		n = e.ctx.Slots()
	}
	values := make([]uint64, n)
	if err := e.enc.Decode(&view, values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return values, nil
}

func (e *bfvEncoder) ShallowCopy() Encoder {
	return &bfvEncoder{ctx: e.ctx, enc: e.enc.ShallowCopy()}
}

type bfvEncrypter struct {
	enc *rlwe.Encryptor
}

// NewEncrypter encrypts under key, which is either a *rlwe.SecretKey or a
// *rlwe.PublicKey. A non-nil seed fixes the uniform component of secret-key
// encryptions; the error and public-key randomness are always fresh.
func NewEncrypter(ctx *Context, key rlwe.EncryptionKey, seed []byte) (Encrypter, error) {
	enc := rlwe.NewEncryptor(ctx.params, key)
	if seed != nil {
		prng, err := sampling.NewKeyedPRNG(derivePRNGKey(seed, "query-encryption"))
		if err != nil {
			return nil, err
		}
		enc = enc.WithPRNG(prng)
	}
	return &bfvEncrypter{enc: enc}, nil
}

func (e *bfvEncrypter) Encrypt(pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	return e.enc.EncryptNew(pt)
}

type bfvDecrypter struct {
	dec *rlwe.Decryptor
}

func NewDecrypter(ctx *Context, sk *rlwe.SecretKey) Decrypter {
	return &bfvDecrypter{dec: rlwe.NewDecryptor(ctx.params, sk)}
}

func (d *bfvDecrypter) Decrypt(ct *rlwe.Ciphertext) *rlwe.Plaintext {
	return d.dec.DecryptNew(ct)
}

type bfvEvaluator struct {
	eval *bfv.Evaluator
}

// NewEvaluator returns an evaluator holding the given server keys. keys may
// be nil when no key switching is needed.
func NewEvaluator(ctx *Context, keys *ServerKeys) Evaluator {
	var evk rlwe.EvaluationKeySet
	if keys != nil {
		evk = keys.evaluationKeySet()
	}
	return &bfvEvaluator{eval: bfv.NewEvaluator(ctx.params, evk)}
}

func (e *bfvEvaluator) Add(a, b, out *rlwe.Ciphertext) error {
	return e.eval.Add(a, b, out)
}

func (e *bfvEvaluator) MulPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	return e.eval.MulNew(ct, pt)
}

func (e *bfvEvaluator) Relinearize(ct *rlwe.Ciphertext) error {
	if ct.Degree() < 2 {
		return nil
	}
	return e.eval.Relinearize(ct, ct)
}

func (e *bfvEvaluator) Automorphism(ct *rlwe.Ciphertext, galEl uint64, out *rlwe.Ciphertext) error {
	return e.eval.Automorphism(ct, galEl, out)
}

func (e *bfvEvaluator) Rotate(ct *rlwe.Ciphertext, steps int) (*rlwe.Ciphertext, error) {
	return e.eval.RotateColumnsNew(ct, steps)
}

func (e *bfvEvaluator) ShallowCopy() Evaluator {
	return &bfvEvaluator{eval: e.eval.ShallowCopy()}
}
