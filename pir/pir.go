package pir

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "pir")

// HintReq asks a server for what a client needs to query it.
type HintReq struct {
	Type PirType
}

// HintResp carries the public parameters and the database layout for the
// requested PIR type.
type HintResp struct {
	Type   PirType
	Params []byte
	Info   DBInfo
	// Index layout.
	Dims []int
	// Fast layout.
	PerCell int
}

type Client interface {
	// Keys returns the evaluation keys the server needs, nil if none.
	Keys() (*KeysReq, error)
	// SetSession records the server session holding the client's keys.
	SetSession(id string)
	Query(i int) (QueryReq, ReconstructFunc, error)
	Info() DBInfo
}

// KeysReq uploads a client's evaluation keys.
type KeysReq struct {
	Relin  []byte
	Galois []byte
}

type KeysResp struct {
	Session string
}

// ServedDB is the state a query is answered against.
type ServedDB struct {
	Ctx     *Context
	DB      *NTTDatabase
	Workers int
}

//QueryReq is a PIR query from a client to a server.
type QueryReq interface {
	Type() PirType
	Process(db *ServedDB, keys *ServerKeys) (interface{}, error)
}

// sessionQuery is implemented by queries that need the client's keys.
type sessionQuery interface {
	SessionID() string
}

type ReconstructFunc func(resp interface{}) ([]uint64, error)

// ClientOptions tune how a client encrypts its queries.
type ClientOptions struct {
	// Seed derives the uniform component of each secret-key query
	// ciphertext. Nil uses fresh randomness.
	Seed []byte
	// PublicKey encrypts queries with the public key instead of the secret
	// key.
	PublicKey bool
}
