package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// The functions below operate on serialized parameters, keys, plaintexts and
// ciphertexts only, for callers that keep no Go objects between calls.

// GenerateContextBytes returns serialized parameters. A zero plainModulus
// with a single coeffModulusBits entry selects a plaintext modulus of that
// many bits instead.
func GenerateContextBytes(degree int, plainModulus uint64, coeffModulusBits ...int) ([]byte, error) {
	var ctx *Context
	var err error
	if plainModulus == 0 && len(coeffModulusBits) == 1 {
		ctx, err = GenerateContextWithPlainBits(degree, coeffModulusBits[0])
	} else {
		ctx, err = GenerateContext(degree, plainModulus, coeffModulusBits...)
	}
	if err != nil {
		return nil, err
	}
	return ctx.MarshalBinary()
}

// KeyGenBytes generates a key set with Galois keys for the given rotation
// steps and for query expansion over N coefficients.
func KeyGenBytes(params []byte, steps ...int) (*SerializedKeys, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	keys, err := KeyGen(ctx, WithRotations(steps...), WithExpansionKeys())
	if err != nil {
		return nil, err
	}
	return keys.Marshal()
}

// ExpansionRatioBytes is the number of plaintexts one ciphertext decomposes
// into under the serialized parameters.
func ExpansionRatioBytes(params []byte) (int, error) {
	return ExpansionRatio(params)
}

// queryEncrypter prefers the secret key when one is given.
func queryEncrypter(ctx *Context, pk, sk []byte) (Encrypter, error) {
	var key rlwe.EncryptionKey
	switch {
	case len(sk) > 0:
		s, err := UnmarshalSecretKey(ctx, sk)
		if err != nil {
			return nil, err
		}
		key = s
	case len(pk) > 0:
		p, err := UnmarshalPublicKey(ctx, pk)
		if err != nil {
			return nil, err
		}
		key = p
	default:
		return nil, fmt.Errorf("%w: no encryption key", ErrInvalidParameter)
	}
	return NewEncrypter(ctx, key, nil)
}

func GenerateIndexQueryBytes(params, pk, sk []byte, dims, coords []int) ([][]byte, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	enc, err := queryEncrypter(ctx, pk, sk)
	if err != nil {
		return nil, err
	}
	query, err := GenerateIndexQuery(ctx, enc, dims, coords)
	if err != nil {
		return nil, err
	}
	return MarshalCiphertexts(query)
}

func GenerateFastQueryBytes(params, pk, sk []byte, cell, numCells int) ([][]byte, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	enc, err := queryEncrypter(ctx, pk, sk)
	if err != nil {
		return nil, err
	}
	query, err := GenerateFastQuery(ctx, enc, cell, numCells)
	if err != nil {
		return nil, err
	}
	return MarshalCiphertexts(query)
}

// GenerateReplyBytes answers an index query over serialized
// coefficient-encoded plaintexts, as produced by NTTTransformBytes.
func GenerateReplyBytes(params []byte, db, query [][]byte, dims []int) ([][]byte, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	pts, err := UnmarshalPlaintexts(ctx, db)
	if err != nil {
		return nil, err
	}
	cts, err := UnmarshalCiphertexts(ctx, query)
	if err != nil {
		return nil, err
	}
	reply, err := GenerateReply(ctx, NewEvaluator(ctx, nil), pts, dims, cts, DefaultWorkers)
	if err != nil {
		return nil, err
	}
	return MarshalCiphertexts(reply)
}

// GenerateResponseBytes answers a compact query over serialized
// slot-encoded plaintexts using the client's relinearization and Galois
// keys.
func GenerateResponseBytes(params, relin, galois []byte, db, query [][]byte) ([]byte, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	keys, err := UnmarshalServerKeys(ctx, relin, galois)
	if err != nil {
		return nil, err
	}
	pts, err := UnmarshalPlaintexts(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := checkExpansionKeys(ctx, keys, ceilLog2(minInt(len(pts), ctx.N()))); err != nil {
		return nil, err
	}
	cts, err := UnmarshalCiphertexts(ctx, query)
	if err != nil {
		return nil, err
	}
	resp, err := GenerateResponse(ctx, NewEvaluator(ctx, keys), pts, cts, DefaultWorkers)
	if err != nil {
		return nil, err
	}
	return resp.MarshalBinary()
}

func DecryptReplyBytes(params, sk []byte, reply [][]byte, numDims, recordSize int) ([]uint64, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	s, err := UnmarshalSecretKey(ctx, sk)
	if err != nil {
		return nil, err
	}
	cts, err := UnmarshalCiphertexts(ctx, reply)
	if err != nil {
		return nil, err
	}
	return DecryptReply(ctx, NewDecrypter(ctx, s), cts, numDims, recordSize)
}

// DecodeResponseBytes returns every slot of a compact-query response.
func DecodeResponseBytes(params, sk, response []byte) ([]uint64, error) {
	ctx, err := UnmarshalContext(params)
	if err != nil {
		return nil, err
	}
	s, err := UnmarshalSecretKey(ctx, sk)
	if err != nil {
		return nil, err
	}
	ct, err := UnmarshalCiphertext(ctx, response)
	if err != nil {
		return nil, err
	}
	return DecodeResponseSlots(ctx, NewDecrypter(ctx, s), ct)
}
