package pir

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// MarshalBlobs frames a list of byte strings as a 4-byte big-endian count
// followed by 4-byte big-endian length prefixed entries.
func MarshalBlobs(blobs [][]byte) []byte {
	size := 4
	for _, b := range blobs {
		size += 4 + len(b)
	}
	out := make([]byte, 4, size)
	binary.BigEndian.PutUint32(out, uint32(len(blobs)))
	var l [4]byte
	for _, b := range blobs {
		binary.BigEndian.PutUint32(l[:], uint32(len(b)))
		out = append(out, l[:]...)
		out = append(out, b...)
	}
	return out
}

// UnmarshalBlobs is the inverse of MarshalBlobs. The returned slices alias
// data.
func UnmarshalBlobs(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: blob list header truncated", ErrSerialization)
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	// Every entry takes at least its 4-byte length prefix.
	if uint64(count)*4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: blob list claims %d entries in %d bytes", ErrSerialization, count, len(data))
	}
	blobs := make([][]byte, count)
	for i := range blobs {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: blob %d length truncated", ErrSerialization, i)
		}
		l := binary.BigEndian.Uint32(data)
		data = data[4:]
		if uint64(l) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: blob %d claims %d bytes, %d left", ErrSerialization, i, l, len(data))
		}
		blobs[i] = data[:l:l]
		data = data[l:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after blob list", ErrSerialization, len(data))
	}
	return blobs, nil
}

func marshalAll[T encoding.BinaryMarshaler](objs []T) ([][]byte, error) {
	out := make([][]byte, len(objs))
	for i, o := range objs {
		b, err := o.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrSerialization, i, err)
		}
		out[i] = b
	}
	return out, nil
}

func MarshalCiphertexts(cts []*rlwe.Ciphertext) ([][]byte, error) {
	return marshalAll(cts)
}

func UnmarshalCiphertext(ctx *Context, data []byte) (*rlwe.Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrSerialization, err)
	}
	if len(ct.Value) < 2 {
		return nil, fmt.Errorf("%w: ciphertext has %d polynomials", ErrSerialization, len(ct.Value))
	}
	if len(ct.Value[0].Coeffs) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext polynomial", ErrSerialization)
	}
	for i := range ct.Value {
		if !hasShape(&ct.Value[i], ct.Value[0].N(), ct.Value[0].Level()) {
			return nil, fmt.Errorf("%w: malformed ciphertext polynomial %d", ErrSerialization, i)
		}
	}
	if ct.Value[0].N() != ctx.N() || ct.Level() > ctx.Level() {
		return nil, fmt.Errorf("%w: ciphertext of degree %d, N=%d, level %d does not match %v",
			ErrInvalidParameter, ct.Degree(), ct.Value[0].N(), ct.Level(), ctx)
	}
	return ct, nil
}

// hasShape reports whether p has level+1 limbs of n coefficients each.
func hasShape(p *ring.Poly, n, level int) bool {
	if len(p.Coeffs) == 0 || len(p.Coeffs) != level+1 {
		return false
	}
	for _, c := range p.Coeffs {
		if len(c) != n {
			return false
		}
	}
	return true
}

func UnmarshalCiphertexts(ctx *Context, data [][]byte) ([]*rlwe.Ciphertext, error) {
	cts := make([]*rlwe.Ciphertext, len(data))
	for i := range data {
		var err error
		if cts[i], err = UnmarshalCiphertext(ctx, data[i]); err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
	}
	return cts, nil
}

func MarshalPlaintexts(pts []*rlwe.Plaintext) ([][]byte, error) {
	return marshalAll(pts)
}

func UnmarshalPlaintexts(ctx *Context, data [][]byte) ([]*rlwe.Plaintext, error) {
	pts := make([]*rlwe.Plaintext, len(data))
	for i := range data {
		pt := new(rlwe.Plaintext)
		if err := pt.UnmarshalBinary(data[i]); err != nil {
			return nil, fmt.Errorf("%w: plaintext %d: %v", ErrSerialization, i, err)
		}
		if !hasShape(&pt.Value, ctx.N(), ctx.Level()) || !pt.IsNTT {
			return nil, fmt.Errorf("%w: plaintext %d is not an NTT plaintext for %v", ErrInvalidParameter, i, ctx)
		}
		pts[i] = pt
	}
	return pts, nil
}
