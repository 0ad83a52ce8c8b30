package pir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

type IndexQueryReq struct {
	Dims  []int
	Query [][]byte
}

type IndexQueryResp struct {
	Reply [][]byte
}

func (req *IndexQueryReq) Type() PirType {
	return Index
}

func (req *IndexQueryReq) Process(db *ServedDB, keys *ServerKeys) (interface{}, error) {
	layout, ok := db.DB.Layout.(*IndexLayout)
	if !ok {
		return nil, fmt.Errorf("%w: database is not laid out for index queries", ErrInvalidParameter)
	}
	if !equalInts(req.Dims, layout.Dims) {
		return nil, fmt.Errorf("%w: query dimensions %v, database has %v", ErrInvalidParameter, req.Dims, layout.Dims)
	}
	query, err := UnmarshalCiphertexts(db.Ctx, req.Query)
	if err != nil {
		return nil, err
	}
	reply, err := GenerateReply(db.Ctx, NewEvaluator(db.Ctx, keys), db.DB.Plaintexts, layout.Dims, query, db.Workers)
	if err != nil {
		return nil, err
	}
	blobs, err := MarshalCiphertexts(reply)
	if err != nil {
		return nil, err
	}
	return &IndexQueryResp{Reply: blobs}, nil
}

type indexClient struct {
	ctx    *Context
	layout *IndexLayout
	keys   *KeyMaterial
	opts   ClientOptions
	dec    Decrypter

	numQueries int
}

func newIndexClient(ctx *Context, layout *IndexLayout, opts ClientOptions) (*indexClient, error) {
	keys, err := KeyGen(ctx)
	if err != nil {
		return nil, err
	}
	return &indexClient{
		ctx:    ctx,
		layout: layout,
		keys:   keys,
		opts:   opts,
		dec:    NewDecrypter(ctx, keys.Secret),
	}, nil
}

func (c *indexClient) Keys() (*KeysReq, error) {
	return nil, nil
}

func (c *indexClient) SetSession(string) {}

func (c *indexClient) Info() DBInfo {
	return c.layout.DBInfo
}

func (c *indexClient) Query(i int) (QueryReq, ReconstructFunc, error) {
	coords, err := c.layout.Coordinates(i)
	if err != nil {
		return nil, nil, err
	}
	enc, err := clientEncrypter(c.ctx, c.keys, c.opts, c.numQueries)
	if err != nil {
		return nil, nil, err
	}
	c.numQueries++
	cts, err := GenerateIndexQuery(c.ctx, enc, c.layout.Dims, coords)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := MarshalCiphertexts(cts)
	if err != nil {
		return nil, nil, err
	}
	return &IndexQueryReq{Dims: c.layout.Dims, Query: blobs}, func(resp interface{}) ([]uint64, error) {
		r, ok := resp.(*IndexQueryResp)
		if !ok {
			return nil, fmt.Errorf("Invalid response type: %T, expected: *IndexQueryResp", resp)
		}
		reply, err := UnmarshalCiphertexts(c.ctx, r.Reply)
		if err != nil {
			return nil, err
		}
		return DecryptReply(c.ctx, c.dec, reply, len(c.layout.Dims), c.layout.RecordSize)
	}, nil
}

// clientEncrypter returns the encrypter for the n-th query of a client.
func clientEncrypter(ctx *Context, keys *KeyMaterial, opts ClientOptions, n int) (Encrypter, error) {
	var key rlwe.EncryptionKey = keys.Secret
	if opts.PublicKey {
		key = keys.Public
	}
	var seed []byte
	if opts.Seed != nil {
		seed = derivePRNGKey(opts.Seed, fmt.Sprintf("query/%d", n))
	}
	return NewEncrypter(ctx, key, seed)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
