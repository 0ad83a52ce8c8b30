package pir

import (
	"errors"
	"testing"

	"gotest.tools/assert"
)

func TestPIRIndex(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(256, 8, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{NumDims: 2})
	assert.NilError(t, err)

	client := NewPIRReader(server, ClientOptions{})
	err = client.Init(Index)
	assert.NilError(t, err)

	val, err := client.Read(37)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, db.Record(37))

	// Read the same record again with a fresh query.
	val, err = client.Read(37)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, db.Record(37))

	_, err = client.Read(256)
	assert.Assert(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Equal(t, server.NumSessions(), 0)
}

func TestPIRFast(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(300, 500, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{Workers: 4})
	assert.NilError(t, err)

	seed, err := NewSeed()
	assert.NilError(t, err)
	client := NewPIRReader(server, ClientOptions{Seed: seed})
	err = client.Init(Fast)
	assert.NilError(t, err)
	assert.Equal(t, server.NumSessions(), 1)

	for _, i := range []int{0, 123, 299} {
		val, err := client.Read(i)
		assert.NilError(t, err)
		assert.DeepEqual(t, val, db.Record(i))
	}
	assert.Equal(t, server.Preprocessings(), 1)
	// The records are hashed once, not per query.
	assert.Equal(t, server.cache.Hashes, 1)
}

func TestPIRPublicKeyQueries(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(30, 8, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{NumDims: 1})
	assert.NilError(t, err)
	client := NewPIRReader(server, ClientOptions{PublicKey: true})
	assert.NilError(t, client.Init(Index))
	val, err := client.Read(29)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, db.Record(29))
}

func TestReload(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(64, 8, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{NumDims: 2})
	assert.NilError(t, err)
	client := NewPIRReader(server, ClientOptions{})
	assert.NilError(t, client.Init(Index))

	val, err := client.Read(5)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, db.Record(5))

	updated := MakeDB(64, 8, ctx.PlainModulus())
	updated.Records[5] = []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	assert.NilError(t, server.Reload(updated))

	val, err = client.Read(5)
	assert.NilError(t, err)
	assert.DeepEqual(t, val, updated.Record(5))
	assert.Equal(t, server.Preprocessings(), 2)
	assert.Equal(t, server.cache.Hashes, 2)

	bad := MakeDB(64, 8, ctx.PlainModulus())
	bad.Records[0][0] = ctx.PlainModulus()
	assert.Assert(t, errors.Is(server.Reload(bad), ErrInvalidParameter))
	assert.Assert(t, server.Database() == updated)
}

func TestSessionEviction(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(10, 8, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{MaxSessions: 2})
	assert.NilError(t, err)

	keys, err := KeyGen(ctx, WithExpansionKeys())
	assert.NilError(t, err)
	ser, err := keys.ServerKeys().Marshal()
	assert.NilError(t, err)

	ids := make([]string, 3)
	for i := range ids {
		var resp KeysResp
		assert.NilError(t, server.SetKeys(KeysReq{Relin: ser.Relin, Galois: ser.Galois}, &resp))
		ids[i] = resp.Session
		if i == 1 {
			// Touch the first session so the second one is the oldest.
			_, ok := server.sessions.Get(ids[0])
			assert.Assert(t, ok)
		}
	}
	assert.Equal(t, server.NumSessions(), 2)
	_, ok := server.sessions.Get(ids[1])
	assert.Assert(t, !ok)
	_, ok = server.sessions.Get(ids[0])
	assert.Assert(t, ok)

	var resp interface{}
	err = server.Answer(&FastQueryReq{Session: ids[1]}, &resp)
	assert.Assert(t, errors.Is(err, ErrInvalidParameter))
}

func TestHintUnknownType(t *testing.T) {
	ctx := testContext(t)
	server, err := NewLocalServer(ctx, MakeDB(10, 8, ctx.PlainModulus()), ServerOptions{})
	assert.NilError(t, err)
	var resp HintResp
	assert.Assert(t, errors.Is(server.Hint(HintReq{Type: None}, &resp), ErrInvalidParameter))
	assert.Equal(t, PirType(2).String(), "Fast")
	typ, err := PirTypeString("Index")
	assert.NilError(t, err)
	assert.Equal(t, typ, Index)
}

func TestAnswerMalformedQuery(t *testing.T) {
	ctx := testContext(t)
	db := MakeDB(16, 8, ctx.PlainModulus())
	server, err := NewLocalServer(ctx, db, ServerOptions{NumDims: 1})
	assert.NilError(t, err)

	keys, err := KeyGen(ctx)
	assert.NilError(t, err)
	enc, err := NewEncrypter(ctx, keys.Secret, nil)
	assert.NilError(t, err)
	pt, err := NewEncoder(ctx).NTTForward(nil, false)
	assert.NilError(t, err)
	ct, err := enc.Encrypt(pt)
	assert.NilError(t, err)
	ct.Value = ct.Value[:0]
	empty, err := ct.MarshalBinary()
	assert.NilError(t, err)

	query := make([][]byte, 16)
	for i := range query {
		query[i] = empty
	}
	var resp interface{}
	err = server.Answer(&IndexQueryReq{Dims: []int{16}, Query: query}, &resp)
	assert.Assert(t, errors.Is(err, ErrSerialization), "got %v", err)
}
