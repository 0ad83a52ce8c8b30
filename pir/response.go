package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

func evaluators(eval Evaluator, n int) []Evaluator {
	evals := make([]Evaluator, n)
	for w := range evals {
		evals[w] = eval.ShallowCopy()
	}
	return evals
}

func encoders(ctx *Context, n int) []Encoder {
	encs := make([]Encoder, n)
	for w := range encs {
		encs[w] = NewEncoder(ctx)
	}
	return encs
}

// foldDimension computes out[k] = sum_j query[j] * cells[j*stride + k] for
// stride = len(cells)/len(query).
func foldDimension(evals []Evaluator, query []*rlwe.Ciphertext, cells []*rlwe.Plaintext, workers int) ([]*rlwe.Ciphertext, error) {
	stride := len(cells) / len(query)
	out := make([]*rlwe.Ciphertext, stride)
	err := parallelFor(workers, stride, func(w, k int) error {
		eval := evals[w]
		acc, err := eval.MulPlain(query[0], cells[k])
		if err != nil {
			return err
		}
		for j := 1; j < len(query); j++ {
			prod, err := eval.MulPlain(query[j], cells[j*stride+k])
			if err != nil {
				return err
			}
			if err := eval.Add(acc, prod, acc); err != nil {
				return err
			}
		}
		if err := eval.Relinearize(acc); err != nil {
			return err
		}
		out[k] = acc
		return nil
	})
	return out, err
}

// GenerateReply answers an index query over a database of prod(dims)
// coefficient-encoded plaintexts, dimension 0 most significant. Between
// dimensions every ciphertext is decomposed into ExpansionRatio()
// plaintexts, so the reply holds ExpansionRatio()^(len(dims)-1)
// ciphertexts.
func GenerateReply(ctx *Context, eval Evaluator, db []*rlwe.Plaintext, dims []int, query []*rlwe.Ciphertext, workers int) ([]*rlwe.Ciphertext, error) {
	numCells, numQuery := 1, 0
	for k, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: dimension %d has size %d", ErrInvalidParameter, k, d)
		}
		numCells *= d
		numQuery += d
	}
	if len(dims) < 1 || len(db) != numCells {
		return nil, fmt.Errorf("%w: %d plaintexts do not match dimensions %v", ErrInvalidParameter, len(db), dims)
	}
	if len(query) != numQuery {
		return nil, fmt.Errorf("%w: query has %d ciphertexts, dimensions %v need %d", ErrInvalidParameter, len(query), dims, numQuery)
	}
	for i, ct := range query {
		if ct.Degree() != 1 || ct.Level() != ctx.Level() {
			return nil, fmt.Errorf("%w: query ciphertext %d has degree %d at level %d", ErrInvalidParameter, i, ct.Degree(), ct.Level())
		}
	}

	F := ctx.ExpansionRatio()
	workers = numWorkers(workers, numCells)
	evals := evaluators(eval, workers)
	encs := encoders(ctx, workers)

	cells := db
	var out []*rlwe.Ciphertext
	offset := 0
	for k, d := range dims {
		var err error
		if out, err = foldDimension(evals, query[offset:offset+d], cells, workers); err != nil {
			return nil, err
		}
		offset += d
		if k == len(dims)-1 {
			break
		}
		next := make([]*rlwe.Plaintext, len(out)*F)
		err = parallelFor(workers, len(out), func(w, i int) error {
			digits, err := ctx.decompose(out[i])
			if err != nil {
				return err
			}
			for f, v := range digits {
				if next[i*F+f], err = encs[w].NTTForward(v, false); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		cells = next
	}
	log.WithField("dims", dims).Debugf("reply of %d ciphertexts", len(out))
	return out, nil
}

// GenerateResponse answers a compact query over slot-encoded plaintexts.
// Each query ciphertext is expanded into selection ciphertexts for its
// block of up to N cells, and the products with the cells are summed into
// a single ciphertext. eval must hold the Galois keys for the expansion.
func GenerateResponse(ctx *Context, eval Evaluator, db []*rlwe.Plaintext, query []*rlwe.Ciphertext, workers int) (*rlwe.Ciphertext, error) {
	n := ctx.N()
	if len(db) < 1 {
		return nil, fmt.Errorf("%w: empty database", ErrInvalidParameter)
	}
	if blocks := fastBlocks(len(db), n); len(query) != blocks {
		return nil, fmt.Errorf("%w: query has %d ciphertexts, %d cells need %d", ErrInvalidParameter, len(query), len(db), blocks)
	}

	workers = numWorkers(workers, minInt(len(db), n))
	evals := evaluators(eval, workers)
	exp := newExpander(ctx)
	partial := make([]*rlwe.Ciphertext, workers)

	for b, q := range query {
		size := fastBlockSize(len(db), n, b)
		selection, err := exp.expand(evals, q, ceilLog2(size), workers)
		if err != nil {
			return nil, err
		}
		cells := db[b*n : b*n+size]
		err = parallelFor(workers, size, func(w, j int) error {
			// Selections encrypt constants, which read the same in both
			// encodings.
			selection[j].IsBatched = cells[j].IsBatched
			prod, err := evals[w].MulPlain(selection[j], cells[j])
			if err != nil {
				return err
			}
			if partial[w] == nil {
				partial[w] = prod
				return nil
			}
			return evals[w].Add(partial[w], prod, partial[w])
		})
		if err != nil {
			return nil, err
		}
	}

	var acc *rlwe.Ciphertext
	for _, p := range partial {
		if p == nil {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		if err := eval.Add(acc, p, acc); err != nil {
			return nil, err
		}
	}
	if err := eval.Relinearize(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
