package pir

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// The engine only relies on the primitives below. They are implemented on
// top of lattigo's BFV scheme in scheme_bfv.go.

// Encoder moves integer vectors to and from NTT-domain plaintexts.
// Batched plaintexts hold one value per slot, unbatched ones one value per
// polynomial coefficient.
type Encoder interface {
	NTTForward(values []uint64, batched bool) (*rlwe.Plaintext, error)
	NTTInverse(pt *rlwe.Plaintext, batched bool) ([]uint64, error)
	ShallowCopy() Encoder
}

type Encrypter interface {
	Encrypt(pt *rlwe.Plaintext) (*rlwe.Ciphertext, error)
}

type Decrypter interface {
	Decrypt(ct *rlwe.Ciphertext) *rlwe.Plaintext
}

// Evaluator performs homomorphic operations. It is not safe for concurrent
// use; ShallowCopy returns an instance that shares read-only state.
type Evaluator interface {
	Add(a, b, out *rlwe.Ciphertext) error
	MulPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error)
	Relinearize(ct *rlwe.Ciphertext) error
	Automorphism(ct *rlwe.Ciphertext, galEl uint64, out *rlwe.Ciphertext) error
	Rotate(ct *rlwe.Ciphertext, steps int) (*rlwe.Ciphertext, error)
	ShallowCopy() Evaluator
}
