package pir

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// GenerateIndexQuery encrypts one selection vector per dimension: dims[k]
// ciphertexts for dimension k, the one at coords[k] encrypting 1 and the
// others 0. Ciphertexts are ordered by dimension.
func GenerateIndexQuery(ctx *Context, enc Encrypter, dims, coords []int) ([]*rlwe.Ciphertext, error) {
	if len(dims) < 1 || len(dims) != len(coords) {
		return nil, fmt.Errorf("%w: %d dimensions but %d coordinates", ErrInvalidParameter, len(dims), len(coords))
	}
	total := 0
	for k, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: dimension %d has size %d", ErrInvalidParameter, k, d)
		}
		if coords[k] < 0 || coords[k] >= d {
			return nil, fmt.Errorf("%w: coordinate %d of dimension %d, size is %d", ErrIndexOutOfRange, coords[k], k, d)
		}
		total += d
	}

	encoder := NewEncoder(ctx)
	one, err := encoder.NTTForward([]uint64{1}, false)
	if err != nil {
		return nil, err
	}
	zero, err := encoder.NTTForward(nil, false)
	if err != nil {
		return nil, err
	}

	query := make([]*rlwe.Ciphertext, 0, total)
	for k, d := range dims {
		for j := 0; j < d; j++ {
			pt := zero
			if j == coords[k] {
				pt = one
			}
			ct, err := enc.Encrypt(pt)
			if err != nil {
				return nil, err
			}
			query = append(query, ct)
		}
	}
	return query, nil
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// fastBlocks returns how many query ciphertexts select among numCells
// cells, each ciphertext covering up to n of them.
func fastBlocks(numCells, n int) int {
	return (numCells + n - 1) / n
}

func fastBlockSize(numCells, n, block int) int {
	if rest := numCells - block*n; rest < n {
		return rest
	}
	return n
}

// GenerateFastQuery encrypts a compact selection of cell among numCells.
// Block b covers cells [b*N, (b+1)*N). The block holding cell has
// 2^-l mod t at the cell's coefficient, where 2^l is the block size rounded
// up to a power of two, so that expanding it yields exactly 1.
func GenerateFastQuery(ctx *Context, enc Encrypter, cell, numCells int) ([]*rlwe.Ciphertext, error) {
	if numCells < 1 {
		return nil, fmt.Errorf("%w: database has no cells", ErrInvalidParameter)
	}
	if cell < 0 || cell >= numCells {
		return nil, fmt.Errorf("%w: cell %d, database has %d", ErrIndexOutOfRange, cell, numCells)
	}
	n := ctx.N()
	t := ctx.PlainModulus()
	target := cell / n

	encoder := NewEncoder(ctx)
	zero, err := encoder.NTTForward(nil, false)
	if err != nil {
		return nil, err
	}

	query := make([]*rlwe.Ciphertext, fastBlocks(numCells, n))
	for b := range query {
		pt := zero
		if b == target {
			l := ceilLog2(fastBlockSize(numCells, n, b))
			values := make([]uint64, n)
			values[cell%n] = ring.ModExp(ring.ModExp(2, uint64(l), t), t-2, t)
			if pt, err = encoder.NTTForward(values, false); err != nil {
				return nil, err
			}
		}
		if query[b], err = enc.Encrypt(pt); err != nil {
			return nil, err
		}
	}
	return query, nil
}
