package pir

import (
	"fmt"
)

type FastQueryReq struct {
	Session string
	Query   [][]byte
}

type FastQueryResp struct {
	Response []byte
}

func (req *FastQueryReq) Type() PirType {
	return Fast
}

func (req *FastQueryReq) SessionID() string {
	return req.Session
}

func (req *FastQueryReq) Process(db *ServedDB, keys *ServerKeys) (interface{}, error) {
	if _, ok := db.DB.Layout.(*FastLayout); !ok {
		return nil, fmt.Errorf("%w: database is not laid out for fast queries", ErrInvalidParameter)
	}
	numCells := len(db.DB.Plaintexts)
	if err := checkExpansionKeys(db.Ctx, keys, ceilLog2(minInt(numCells, db.Ctx.N()))); err != nil {
		return nil, err
	}
	query, err := UnmarshalCiphertexts(db.Ctx, req.Query)
	if err != nil {
		return nil, err
	}
	resp, err := GenerateResponse(db.Ctx, NewEvaluator(db.Ctx, keys), db.DB.Plaintexts, query, db.Workers)
	if err != nil {
		return nil, err
	}
	blob, err := resp.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: response: %v", ErrSerialization, err)
	}
	return &FastQueryResp{Response: blob}, nil
}

type fastClient struct {
	ctx     *Context
	layout  *FastLayout
	keys    *KeyMaterial
	opts    ClientOptions
	dec     Decrypter
	session string

	numQueries int
}

func newFastClient(ctx *Context, layout *FastLayout, opts ClientOptions) (*fastClient, error) {
	keys, err := KeyGen(ctx, WithExpansionKeys())
	if err != nil {
		return nil, err
	}
	return &fastClient{
		ctx:    ctx,
		layout: layout,
		keys:   keys,
		opts:   opts,
		dec:    NewDecrypter(ctx, keys.Secret),
	}, nil
}

func (c *fastClient) Keys() (*KeysReq, error) {
	sk, err := c.keys.ServerKeys().Marshal()
	if err != nil {
		return nil, err
	}
	return &KeysReq{Relin: sk.Relin, Galois: sk.Galois}, nil
}

func (c *fastClient) SetSession(id string) {
	c.session = id
}

func (c *fastClient) Info() DBInfo {
	return c.layout.DBInfo
}

func (c *fastClient) Query(i int) (QueryReq, ReconstructFunc, error) {
	cell, _, err := c.layout.Cell(i)
	if err != nil {
		return nil, nil, err
	}
	enc, err := clientEncrypter(c.ctx, c.keys, c.opts, c.numQueries)
	if err != nil {
		return nil, nil, err
	}
	c.numQueries++
	cts, err := GenerateFastQuery(c.ctx, enc, cell, c.layout.NumCells())
	if err != nil {
		return nil, nil, err
	}
	blobs, err := MarshalCiphertexts(cts)
	if err != nil {
		return nil, nil, err
	}
	return &FastQueryReq{Session: c.session, Query: blobs}, func(resp interface{}) ([]uint64, error) {
		r, ok := resp.(*FastQueryResp)
		if !ok {
			return nil, fmt.Errorf("Invalid response type: %T, expected: *FastQueryResp", resp)
		}
		ct, err := UnmarshalCiphertext(c.ctx, r.Response)
		if err != nil {
			return nil, err
		}
		return DecodeResponse(c.ctx, c.dec, ct, c.layout, i)
	}, nil
}
