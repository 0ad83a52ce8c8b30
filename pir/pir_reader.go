package pir

import (
	"fmt"
)

//go:generate enumer -type=PirType
type PirType int

const (
	None PirType = iota
	// Index answers per-dimension selection vectors, one record per cell.
	Index
	// Fast answers a compact query expanded on the server, several records
	// per cell.
	Fast
)

type Server interface {
	Hint(req HintReq, resp *HintResp) error
	SetKeys(req KeysReq, resp *KeysResp) error
	Answer(q QueryReq, resp *interface{}) error
}

// InitClient builds a client for the database described by the hint,
// generating fresh keys.
func (resp *HintResp) InitClient(opts ClientOptions) (Client, error) {
	ctx, err := UnmarshalContext(resp.Params)
	if err != nil {
		return nil, err
	}
	switch resp.Type {
	case Index:
		layout := &IndexLayout{DBInfo: resp.Info, Dims: resp.Dims}
		if layout.NumCells() < resp.Info.NumRecords {
			return nil, fmt.Errorf("%w: dimensions %v cannot hold %d records", ErrInvalidParameter, resp.Dims, resp.Info.NumRecords)
		}
		return newIndexClient(ctx, layout, opts)
	case Fast:
		if resp.PerCell < 1 || resp.PerCell*resp.Info.RecordSize > ctx.SlotCapacity() {
			return nil, fmt.Errorf("%w: %d records of size %d per cell", ErrInvalidParameter, resp.PerCell, resp.Info.RecordSize)
		}
		return newFastClient(ctx, &FastLayout{DBInfo: resp.Info, PerCell: resp.PerCell}, opts)
	}
	return nil, fmt.Errorf("%w: unknown PIR type %v", ErrInvalidParameter, resp.Type)
}

type PIRReader interface {
	Init(pirType PirType) error
	Read(i int) ([]uint64, error)
}

type pirReader struct {
	impl   Client
	server Server
	opts   ClientOptions
}

func NewPIRReader(server Server, opts ClientOptions) PIRReader {
	return &pirReader{server: server, opts: opts}
}

func (c *pirReader) Init(pirType PirType) error {
	var hintResp HintResp
	if err := c.server.Hint(HintReq{Type: pirType}, &hintResp); err != nil {
		return err
	}
	impl, err := hintResp.InitClient(c.opts)
	if err != nil {
		return err
	}
	keys, err := impl.Keys()
	if err != nil {
		return err
	}
	if keys != nil {
		var keysResp KeysResp
		if err := c.server.SetKeys(*keys, &keysResp); err != nil {
			return err
		}
		impl.SetSession(keysResp.Session)
	}
	c.impl = impl
	return nil
}

func (c *pirReader) Read(i int) ([]uint64, error) {
	if c.impl == nil {
		return nil, fmt.Errorf("reader is not initialized")
	}
	queryReq, reconstructFunc, err := c.impl.Query(i)
	if err != nil {
		return nil, err
	}
	var resp interface{}
	if err := c.server.Answer(queryReq, &resp); err != nil {
		return nil, err
	}
	return reconstructFunc(resp)
}
