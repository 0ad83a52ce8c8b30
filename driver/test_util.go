package driver

import (
	"fmt"

	"github.com/dimakogan/hepir/rpc"
)

// TestConfig is the database and engine configuration a driver is set up
// with, locally or over RPC.
type TestConfig struct {
	NumRecords int
	RecordSize int

	Degree    int
	PlainBits int
	NumDims   int
	Workers   int

	MaxSessions int

	PresetRecords []RecordIndexVal

	// Seed used to generate random data in database. Not used for cryptographic operations.
	DataRandSeed int64

	MeasureBandwidth bool
}

func (c TestConfig) String() string {
	return fmt.Sprintf("n=%d,r=%d,N=%d,t=%db,d=%d", c.NumRecords, c.RecordSize, c.Degree, c.PlainBits, c.NumDims)
}

func SerializedSizeOf(e interface{}) (int, error) {
	return rpc.SerializedSizeOf(e)
}
