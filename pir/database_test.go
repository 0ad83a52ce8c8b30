package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestDimensions(t *testing.T) {
	assert.DeepEqual(t, Dimensions(256, 2), []int{16, 16})
	assert.DeepEqual(t, Dimensions(256, 1), []int{256})
	assert.DeepEqual(t, Dimensions(64, 3), []int{4, 4, 4})
	assert.DeepEqual(t, Dimensions(1, 2), []int{1, 1})
	for n := 1; n < 300; n += 7 {
		for d := 1; d <= 3; d++ {
			dims := Dimensions(n, d)
			prod := 1
			for _, k := range dims {
				prod *= k
			}
			assert.Check(t, prod >= n, "n=%d dims=%v", n, dims)
		}
	}
}

func TestCoordinates(t *testing.T) {
	ctx := testContext(t)
	layout, err := NewIndexLayout(ctx, DBInfo{NumRecords: 256, RecordSize: 8}, 2)
	assert.NilError(t, err)
	coords, err := layout.Coordinates(37)
	assert.NilError(t, err)
	assert.DeepEqual(t, coords, []int{2, 5})

	_, err = layout.Coordinates(256)
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = layout.Coordinates(-1)
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = NewIndexLayout(ctx, DBInfo{NumRecords: 10, RecordSize: ctx.CoefficientCapacity() + 1}, 2)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}

func TestFastLayoutCells(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(10, 1000, ctx.PlainModulus())
	layout, err := NewFastLayout(ctx, db.Info())
	assert.NilError(t, err)
	assert.Equal(t, layout.PerCell, 4)
	assert.Equal(t, layout.NumCells(), 3)

	cells, err := layout.Cells(db)
	assert.NilError(t, err)
	assert.Equal(t, len(cells[2]), 2*1000)
	cell, offset, err := layout.Cell(9)
	assert.NilError(t, err)
	assert.Equal(t, cell, 2)
	assert.Equal(t, offset, 1)
	assert.DeepEqual(t, cells[cell][offset*1000:(offset+1)*1000], db.Record(9))

	_, _, err = layout.Cell(10)
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))

	other := MakeDB(11, 1000, ctx.PlainModulus())
	_, err = layout.Cells(other)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}

func TestNTTCache(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(20, 8, ctx.PlainModulus())
	layout, err := NewIndexLayout(ctx, db.Info(), 2)
	assert.NilError(t, err)

	cache := NewNTTCache(ctx, 2)
	first, err := cache.Get(layout, db)
	assert.NilError(t, err)
	again, err := cache.Get(layout, db)
	assert.NilError(t, err)
	assert.Assert(t, first == again)
	assert.Equal(t, cache.Misses, 1)
	assert.Equal(t, cache.Hashes, 1)

	// Same records in a new Database: hashed once more, not re-encoded.
	copied := &Database{Records: db.Records, RecordSize: db.RecordSize}
	for i := 0; i < 3; i++ {
		same, err := cache.Get(layout, copied)
		assert.NilError(t, err)
		assert.Assert(t, same == first)
	}
	assert.Equal(t, cache.Misses, 1)
	assert.Equal(t, cache.Hashes, 2)

	changed := MakeDB(20, 8, ctx.PlainModulus())
	changed.Records[3][1] = (changed.Records[3][1] + 1) % ctx.PlainModulus()
	updated, err := cache.Get(layout, changed)
	assert.NilError(t, err)
	assert.Assert(t, updated != first)
	assert.Assert(t, updated.Fingerprint != first.Fingerprint)
	assert.Equal(t, cache.Misses, 2)

	fast, err := NewFastLayout(ctx, db.Info())
	assert.NilError(t, err)
	_, err = cache.Get(fast, db)
	assert.NilError(t, err)
	_, err = cache.Get(layout, changed)
	assert.NilError(t, err)
	assert.Equal(t, cache.Misses, 3)
}
