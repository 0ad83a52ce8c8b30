package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

func checkZero(values []uint64, from int) error {
	for i := from; i < len(values); i++ {
		if values[i] != 0 {
			return fmt.Errorf("%w: padding position %d is not zero", ErrDecryption, i)
		}
	}
	return nil
}

// DecryptReply recovers the record from a reply to an index query over
// numDims dimensions. The decomposition layers are undone from the last
// dimension back to the first.
func DecryptReply(ctx *Context, dec Decrypter, reply []*rlwe.Ciphertext, numDims, recordSize int) ([]uint64, error) {
	if numDims < 1 {
		return nil, fmt.Errorf("%w: need at least one dimension, got %d", ErrInvalidParameter, numDims)
	}
	if recordSize < 1 || recordSize > ctx.CoefficientCapacity() {
		return nil, fmt.Errorf("%w: record size %d not in [1, %d]", ErrInvalidParameter, recordSize, ctx.CoefficientCapacity())
	}
	F := ctx.ExpansionRatio()
	want := 1
	for k := 1; k < numDims; k++ {
		want *= F
	}
	if len(reply) != want {
		return nil, fmt.Errorf("%w: reply has %d ciphertexts, expected %d", ErrInvalidParameter, len(reply), want)
	}
	for i, ct := range reply {
		if ct.Degree() != 1 || ct.Level() != ctx.Level() {
			return nil, fmt.Errorf("%w: reply ciphertext %d has degree %d at level %d", ErrInvalidParameter, i, ct.Degree(), ct.Level())
		}
	}

	encoder := NewEncoder(ctx)
	cur := reply
	for layer := numDims - 1; layer > 0; layer-- {
		next := make([]*rlwe.Ciphertext, len(cur)/F)
		for g := range next {
			digits := make([][]uint64, F)
			for f := range digits {
				var err error
				if digits[f], err = encoder.NTTInverse(dec.Decrypt(cur[g*F+f]), false); err != nil {
					return nil, err
				}
			}
			ct, err := ctx.recompose(digits, cur[g*F].MetaData)
			if err != nil {
				return nil, err
			}
			ct.IsNTT = true
			next[g] = ct
		}
		cur = next
	}

	values, err := encoder.NTTInverse(dec.Decrypt(cur[0]), false)
	if err != nil {
		return nil, err
	}
	if err := checkZero(values, recordSize); err != nil {
		return nil, err
	}
	return values[:recordSize], nil
}

// DecodeResponseSlots decrypts a response to a compact query and returns
// all slots of the selected cell.
func DecodeResponseSlots(ctx *Context, dec Decrypter, resp *rlwe.Ciphertext) ([]uint64, error) {
	if resp.Degree() != 1 || resp.Level() != ctx.Level() {
		return nil, fmt.Errorf("%w: response has degree %d at level %d", ErrInvalidParameter, resp.Degree(), resp.Level())
	}
	return NewEncoder(ctx).NTTInverse(dec.Decrypt(resp), true)
}

// DecodeResponse extracts record i of a FastLayout database from the
// response to the query for its cell.
func DecodeResponse(ctx *Context, dec Decrypter, resp *rlwe.Ciphertext, layout *FastLayout, i int) ([]uint64, error) {
	_, offset, err := layout.Cell(i)
	if err != nil {
		return nil, err
	}
	slots, err := DecodeResponseSlots(ctx, dec, resp)
	if err != nil {
		return nil, err
	}
	if err := checkZero(slots, layout.PerCell*layout.RecordSize); err != nil {
		return nil, err
	}
	return slots[offset*layout.RecordSize : (offset+1)*layout.RecordSize], nil
}
