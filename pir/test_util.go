package pir

import (
	"math/rand"
)

func RandSource() *rand.Rand {
	return rand.New(rand.NewSource(17))
}

// MakeRecords returns numRecords random records with values below t. The
// first value of each record is its index mod t.
func MakeRecords(src *rand.Rand, numRecords, recordSize int, t uint64) [][]uint64 {
	records := make([][]uint64, numRecords)
	for i := range records {
		records[i] = make([]uint64, recordSize)
		for j := range records[i] {
			records[i][j] = uint64(src.Int63n(int64(t)))
		}
		records[i][0] = uint64(i) % t
	}
	return records
}

func MakeDB(numRecords, recordSize int, t uint64) *Database {
	db, err := NewDatabase(MakeRecords(RandSource(), numRecords, recordSize, t))
	if err != nil {
		panic(err)
	}
	return db
}
