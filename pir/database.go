package pir

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/zeebo/blake3"
)

// Database is a list of records of RecordSize integers each. Values must
// be below the plaintext modulus of the context it is served under.
type Database struct {
	Records    [][]uint64
	RecordSize int
}

func NewDatabase(records [][]uint64) (*Database, error) {
	if len(records) < 1 {
		return nil, fmt.Errorf("%w: empty database", ErrInvalidParameter)
	}
	recordSize := len(records[0])
	if recordSize < 1 {
		return nil, fmt.Errorf("%w: empty records", ErrInvalidParameter)
	}
	for i, r := range records {
		if len(r) != recordSize {
			return nil, fmt.Errorf("%w: record %d has %d values, expected %d", ErrInvalidParameter, i, len(r), recordSize)
		}
	}
	return &Database{Records: records, RecordSize: recordSize}, nil
}

func (db *Database) NumRecords() int {
	return len(db.Records)
}

func (db *Database) Record(i int) []uint64 {
	if i < 0 || i >= len(db.Records) {
		return nil
	}
	return db.Records[i]
}

// DBInfo describes a database to clients.
type DBInfo struct {
	NumRecords int
	RecordSize int
}

func (db *Database) Info() DBInfo {
	return DBInfo{NumRecords: db.NumRecords(), RecordSize: db.RecordSize}
}

// Dimensions splits numCells into numDims near-equal sizes whose product is
// at least numCells. Dimension 0 is the largest.
func Dimensions(numCells, numDims int) []int {
	dims := make([]int, numDims)
	remaining := numCells
	for k := range dims {
		dims[k] = intRoot(remaining, numDims-k)
		remaining = (remaining + dims[k] - 1) / dims[k]
	}
	return dims
}

// intRoot returns the smallest r >= 1 with r^k >= n.
func intRoot(n, k int) int {
	if n <= 1 {
		return 1
	}
	r := int(math.Ceil(math.Pow(float64(n), 1/float64(k))))
	for r > 1 && powAtLeast(r-1, k, n) {
		r--
	}
	for !powAtLeast(r, k, n) {
		r++
	}
	return r
}

func powAtLeast(r, k, n int) bool {
	p := 1
	for i := 0; i < k; i++ {
		p *= r
		if p >= n {
			return true
		}
	}
	return p >= n
}

// Layout maps records to the cells a query selects from.
type Layout interface {
	Encoding() Encoding
	NumCells() int
	Cells(db *Database) ([][]uint64, error)
	fingerprint(h *blake3.Hasher)
}

// IndexLayout stores one record per cell, cells arranged in a hypercube
// with dimension 0 most significant.
type IndexLayout struct {
	DBInfo
	Dims []int
}

func NewIndexLayout(ctx *Context, info DBInfo, numDims int) (*IndexLayout, error) {
	if info.NumRecords < 1 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidParameter)
	}
	if info.RecordSize < 1 || info.RecordSize > ctx.CoefficientCapacity() {
		return nil, fmt.Errorf("%w: record size %d not in [1, %d]", ErrInvalidParameter, info.RecordSize, ctx.CoefficientCapacity())
	}
	if numDims < 1 {
		return nil, fmt.Errorf("%w: need at least one dimension, got %d", ErrInvalidParameter, numDims)
	}
	return &IndexLayout{DBInfo: info, Dims: Dimensions(info.NumRecords, numDims)}, nil
}

func (l *IndexLayout) Encoding() Encoding {
	return Coefficients
}

func (l *IndexLayout) NumCells() int {
	n := 1
	for _, d := range l.Dims {
		n *= d
	}
	return n
}

// Coordinates returns the hypercube position of record i.
func (l *IndexLayout) Coordinates(i int) ([]int, error) {
	if i < 0 || i >= l.NumRecords {
		return nil, fmt.Errorf("%w: record %d, database has %d", ErrIndexOutOfRange, i, l.NumRecords)
	}
	coords := make([]int, len(l.Dims))
	for k := len(l.Dims) - 1; k >= 0; k-- {
		coords[k] = i % l.Dims[k]
		i /= l.Dims[k]
	}
	return coords, nil
}

func (l *IndexLayout) Cells(db *Database) ([][]uint64, error) {
	if db.Info() != l.DBInfo {
		return nil, fmt.Errorf("%w: database %+v does not match layout %+v", ErrInvalidParameter, db.Info(), l.DBInfo)
	}
	cells := make([][]uint64, l.NumCells())
	for j := range cells {
		if j < db.NumRecords() {
			cells[j] = db.Records[j]
		} else {
			cells[j] = make([]uint64, l.RecordSize)
		}
	}
	return cells, nil
}

func (l *IndexLayout) fingerprint(h *blake3.Hasher) {
	writeInts(h, int(Coefficients), l.NumRecords, l.RecordSize)
	writeInts(h, l.Dims...)
}

// FastLayout packs PerCell records side by side in the slots of each cell.
type FastLayout struct {
	DBInfo
	PerCell int
}

func NewFastLayout(ctx *Context, info DBInfo) (*FastLayout, error) {
	if info.NumRecords < 1 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidParameter)
	}
	if info.RecordSize < 1 || info.RecordSize > ctx.SlotCapacity() {
		return nil, fmt.Errorf("%w: record size %d not in [1, %d]", ErrInvalidParameter, info.RecordSize, ctx.SlotCapacity())
	}
	perCell := ctx.SlotCapacity() / info.RecordSize
	return &FastLayout{DBInfo: info, PerCell: perCell}, nil
}

func (l *FastLayout) Encoding() Encoding {
	return Slots
}

func (l *FastLayout) NumCells() int {
	return (l.NumRecords + l.PerCell - 1) / l.PerCell
}

// Cell returns the cell holding record i and the record's position in it.
func (l *FastLayout) Cell(i int) (cell, offset int, err error) {
	if i < 0 || i >= l.NumRecords {
		return 0, 0, fmt.Errorf("%w: record %d, database has %d", ErrIndexOutOfRange, i, l.NumRecords)
	}
	return i / l.PerCell, i % l.PerCell, nil
}

func (l *FastLayout) Cells(db *Database) ([][]uint64, error) {
	if db.Info() != l.DBInfo {
		return nil, fmt.Errorf("%w: database %+v does not match layout %+v", ErrInvalidParameter, db.Info(), l.DBInfo)
	}
	cells := make([][]uint64, l.NumCells())
	for j := range cells {
		first := j * l.PerCell
		last := first + l.PerCell
		if last > db.NumRecords() {
			last = db.NumRecords()
		}
		cell := make([]uint64, 0, (last-first)*l.RecordSize)
		for _, r := range db.Records[first:last] {
			cell = append(cell, r...)
		}
		cells[j] = cell
	}
	return cells, nil
}

func (l *FastLayout) fingerprint(h *blake3.Hasher) {
	writeInts(h, int(Slots), l.NumRecords, l.RecordSize, l.PerCell)
}

func writeInts(h *blake3.Hasher, vals ...int) {
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
}

// Fingerprint identifies the plaintexts a (context, layout, database)
// triple encodes to.
func Fingerprint(ctx *Context, layout Layout, db *Database) ([32]byte, error) {
	var out [32]byte
	params, err := ctx.MarshalBinary()
	if err != nil {
		return out, err
	}
	h := blake3.New()
	writeInts(h, len(params))
	h.Write(params)
	layout.fingerprint(h)
	var buf [8]byte
	for _, r := range db.Records {
		for _, v := range r {
			binary.LittleEndian.PutUint64(buf[:], v)
			h.Write(buf[:])
		}
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// NTTDatabase is a database preprocessed for answering queries: one NTT
// plaintext per cell.
type NTTDatabase struct {
	Layout      Layout
	Plaintexts  []*rlwe.Plaintext
	Fingerprint [32]byte

	// Database and layout digest the entry was last validated against.
	source    *Database
	layoutSum [32]byte
}

// Preprocess encodes db under layout.
func Preprocess(ctx *Context, layout Layout, db *Database, workers int) (*NTTDatabase, error) {
	fp, err := Fingerprint(ctx, layout, db)
	if err != nil {
		return nil, err
	}
	return preprocess(ctx, layout, db, workers, fp)
}

func preprocess(ctx *Context, layout Layout, db *Database, workers int, fp [32]byte) (*NTTDatabase, error) {
	cells, err := layout.Cells(db)
	if err != nil {
		return nil, err
	}
	pts, err := NewCodec(ctx, layout.Encoding()).WithWorkers(workers).NTTTransform(cells)
	if err != nil {
		return nil, err
	}
	log.WithField("cells", len(pts)).Debugf("preprocessed %v database under %v", layout.Encoding(), ctx)
	return &NTTDatabase{Layout: layout, Plaintexts: pts, Fingerprint: fp}, nil
}

// NTTCache keeps the preprocessed form of a database per layout and redoes
// the encoding only when the database, layout or context changed.
type NTTCache struct {
	ctx     *Context
	workers int

	mu      sync.Mutex
	entries map[Encoding]*NTTDatabase

	// Number of preprocessing runs, for tests and metrics.
	Misses int
	// Number of full database hashes.
	Hashes int
}

func NewNTTCache(ctx *Context, workers int) *NTTCache {
	return &NTTCache{ctx: ctx, workers: workers, entries: make(map[Encoding]*NTTDatabase)}
}

// Get returns the preprocessed db. Databases are not modified after
// construction, so an entry built from the same *Database and layout is
// returned without hashing the records again.
func (c *NTTCache) Get(layout Layout, db *Database) (*NTTDatabase, error) {
	h := blake3.New()
	layout.fingerprint(h)
	var layoutSum [32]byte
	copy(layoutSum[:], h.Sum(nil))

	c.mu.Lock()
	e, ok := c.entries[layout.Encoding()]
	if ok && e.source == db && e.layoutSum == layoutSum {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	fp, err := Fingerprint(c.ctx, layout, db)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Hashes++
	if e, ok := c.entries[layout.Encoding()]; ok && e.Fingerprint == fp {
		e.source, e.layoutSum = db, layoutSum
		return e, nil
	}
	e, err = preprocess(c.ctx, layout, db, c.workers, fp)
	if err != nil {
		return nil, err
	}
	e.source, e.layoutSum = db, layoutSum
	c.entries[layout.Encoding()] = e
	c.Misses++
	return e, nil
}
