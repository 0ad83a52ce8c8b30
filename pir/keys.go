package pir

import (
	"fmt"
	"sort"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// KeyMaterial is a client's full key set. Secret never leaves the client.
type KeyMaterial struct {
	Secret *rlwe.SecretKey
	Public *rlwe.PublicKey
	Relin  *rlwe.RelinearizationKey
	Galois []*rlwe.GaloisKey
}

// ServerKeys is the part of KeyMaterial a server evaluates with.
type ServerKeys struct {
	Relin  *rlwe.RelinearizationKey
	Galois []*rlwe.GaloisKey
}

// SerializedKeys holds KeyMaterial as byte strings. Galois is a blob list
// (see MarshalBlobs).
type SerializedKeys struct {
	Secret []byte
	Public []byte
	Relin  []byte
	Galois []byte
}

type keyOptions struct {
	rotations []int
	expansion bool
}

type KeyOption func(*keyOptions)

// WithRotations requests Galois keys for column rotations by each step.
func WithRotations(steps ...int) KeyOption {
	return func(o *keyOptions) {
		o.rotations = append(o.rotations, steps...)
	}
}

// WithExpansionKeys requests the Galois keys used to expand compact queries.
func WithExpansionKeys() KeyOption {
	return func(o *keyOptions) {
		o.expansion = true
	}
}

// ExpansionGaloisElements returns the automorphisms X -> X^(N/2^i+1) used
// to expand a query over 2^logSize coefficients.
func ExpansionGaloisElements(ctx *Context, logSize int) []uint64 {
	els := make([]uint64, logSize)
	for i := range els {
		els[i] = uint64(ctx.N()>>i) + 1
	}
	return els
}

// KeyGen samples a fresh key set with lattigo's secure PRNG.
func KeyGen(ctx *Context, opts ...KeyOption) (*KeyMaterial, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrKeyGeneration)
	}
	var o keyOptions
	for _, opt := range opts {
		opt(&o)
	}

	els := make(map[uint64]bool)
	half := ctx.Slots() / 2
	for _, step := range o.rotations {
		if step == 0 || step <= -half || step >= half {
			return nil, fmt.Errorf("%w: rotation step %d must be non-zero and within (-%d, %d)", ErrKeyGeneration, step, half, half)
		}
		els[ctx.params.GaloisElement(step)] = true
	}
	if o.expansion {
		for _, el := range ExpansionGaloisElements(ctx, ctx.LogN()) {
			els[el] = true
		}
	}
	galEls := make([]uint64, 0, len(els))
	for el := range els {
		galEls = append(galEls, el)
	}
	sort.Slice(galEls, func(i, j int) bool { return galEls[i] < galEls[j] })

	kgen := rlwe.NewKeyGenerator(ctx.params)
	km := &KeyMaterial{}
	km.Secret = kgen.GenSecretKeyNew()
	km.Public = kgen.GenPublicKeyNew(km.Secret)
	km.Relin = kgen.GenRelinearizationKeyNew(km.Secret)
	if len(galEls) > 0 {
		km.Galois = kgen.GenGaloisKeysNew(galEls, km.Secret)
	}
	log.WithField("galois", len(galEls)).Debugf("generated keys for %v", ctx)
	return km, nil
}

func (k *KeyMaterial) ServerKeys() *ServerKeys {
	return &ServerKeys{Relin: k.Relin, Galois: k.Galois}
}

func (k *KeyMaterial) Marshal() (*SerializedKeys, error) {
	var out SerializedKeys
	var err error
	if out.Secret, err = k.Secret.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("%w: secret key: %v", ErrSerialization, err)
	}
	if out.Public, err = k.Public.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrSerialization, err)
	}
	sk, err := k.ServerKeys().Marshal()
	if err != nil {
		return nil, err
	}
	out.Relin, out.Galois = sk.Relin, sk.Galois
	return &out, nil
}

func (k *ServerKeys) Marshal() (*SerializedKeys, error) {
	var out SerializedKeys
	if k.Relin != nil {
		var err error
		if out.Relin, err = k.Relin.MarshalBinary(); err != nil {
			return nil, fmt.Errorf("%w: relinearization key: %v", ErrSerialization, err)
		}
	}
	gks, err := marshalAll(k.Galois)
	if err != nil {
		return nil, err
	}
	out.Galois = MarshalBlobs(gks)
	return &out, nil
}

// GaloisElements lists the automorphisms the keys support.
func (k *ServerKeys) GaloisElements() []uint64 {
	els := make([]uint64, len(k.Galois))
	for i, gk := range k.Galois {
		els[i] = gk.GaloisElement
	}
	return els
}

func (k *ServerKeys) hasGaloisElement(el uint64) bool {
	for _, gk := range k.Galois {
		if gk.GaloisElement == el {
			return true
		}
	}
	return false
}

func (k *ServerKeys) evaluationKeySet() rlwe.EvaluationKeySet {
	return rlwe.NewMemEvaluationKeySet(k.Relin, k.Galois...)
}

func UnmarshalSecretKey(ctx *Context, data []byte) (*rlwe.SecretKey, error) {
	sk := new(rlwe.SecretKey)
	if err := sk.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: secret key: %v", ErrSerialization, err)
	}
	if len(sk.Value.Q.Coeffs) == 0 {
		return nil, fmt.Errorf("%w: empty secret key", ErrSerialization)
	}
	if sk.Value.Q.N() != ctx.N() {
		return nil, fmt.Errorf("%w: secret key of degree %d, expected %d", ErrInvalidParameter, sk.Value.Q.N(), ctx.N())
	}
	return sk, nil
}

func UnmarshalPublicKey(ctx *Context, data []byte) (*rlwe.PublicKey, error) {
	pk := new(rlwe.PublicKey)
	if err := pk.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrSerialization, err)
	}
	if len(pk.Value) < 2 || len(pk.Value[0].Q.Coeffs) == 0 {
		return nil, fmt.Errorf("%w: public key has %d components", ErrSerialization, len(pk.Value))
	}
	if n := pk.Value[0].Q.N(); n != ctx.N() {
		return nil, fmt.Errorf("%w: public key of degree %d, expected %d", ErrInvalidParameter, n, ctx.N())
	}
	return pk, nil
}

// UnmarshalServerKeys parses the relinearization key and Galois key list of
// a client. Either may be empty.
func UnmarshalServerKeys(ctx *Context, relin, galois []byte) (*ServerKeys, error) {
	keys := &ServerKeys{}
	if len(relin) > 0 {
		keys.Relin = new(rlwe.RelinearizationKey)
		if err := keys.Relin.UnmarshalBinary(relin); err != nil {
			return nil, fmt.Errorf("%w: relinearization key: %v", ErrSerialization, err)
		}
	}
	if len(galois) > 0 {
		blobs, err := UnmarshalBlobs(galois)
		if err != nil {
			return nil, err
		}
		keys.Galois = make([]*rlwe.GaloisKey, len(blobs))
		for i := range blobs {
			gk := new(rlwe.GaloisKey)
			if err := gk.UnmarshalBinary(blobs[i]); err != nil {
				return nil, fmt.Errorf("%w: galois key %d: %v", ErrSerialization, i, err)
			}
			if gk.NthRoot != uint64(ctx.params.NthRoot()) {
				return nil, fmt.Errorf("%w: galois key %d for ring of order %d, expected %d",
					ErrInvalidParameter, i, gk.NthRoot, ctx.params.NthRoot())
			}
			keys.Galois[i] = gk
		}
	}
	return keys, nil
}
