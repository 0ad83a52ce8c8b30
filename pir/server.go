package pir

import (
	"fmt"
	"sync"
	"time"
)

type ServerOptions struct {
	// Number of dimensions of the index layout.
	NumDims int
	// Goroutines used to preprocess and answer. Zero uses DefaultWorkers.
	Workers     int
	MaxSessions int
}

// LocalServer answers queries of every PIR type over one database. The
// database can be replaced with Reload while queries are served.
type LocalServer struct {
	ctx  *Context
	opts ServerOptions

	mu       sync.RWMutex
	db       *Database
	cache    *NTTCache
	sessions *sessionStore
}

func NewLocalServer(ctx *Context, db *Database, opts ServerOptions) (*LocalServer, error) {
	if opts.NumDims < 1 {
		opts.NumDims = 2
	}
	if err := checkDatabase(ctx, db); err != nil {
		return nil, err
	}
	return &LocalServer{
		ctx:      ctx,
		opts:     opts,
		db:       db,
		cache:    NewNTTCache(ctx, opts.Workers),
		sessions: newSessionStore(opts.MaxSessions),
	}, nil
}

func checkDatabase(ctx *Context, db *Database) error {
	t := ctx.PlainModulus()
	for i, r := range db.Records {
		for j, v := range r {
			if v >= t {
				return fmt.Errorf("%w: record %d value %d is %d, plaintext modulus is %d", ErrInvalidParameter, i, j, v, t)
			}
		}
	}
	return nil
}

func (s *LocalServer) Context() *Context {
	return s.ctx
}

func (s *LocalServer) Database() *Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Preprocessings counts how often a database was encoded.
func (s *LocalServer) Preprocessings() int {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.cache.Misses
}

func (s *LocalServer) NumSessions() int {
	return s.sessions.Len()
}

// Reload replaces the database. Preprocessed plaintexts are rebuilt lazily
// by the next query of each type.
func (s *LocalServer) Reload(db *Database) error {
	if err := checkDatabase(s.ctx, db); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = db
	log.WithField("records", db.NumRecords()).Info("database reloaded")
	return nil
}

func (s *LocalServer) layout(pirType PirType, db *Database) (Layout, error) {
	switch pirType {
	case Index:
		return NewIndexLayout(s.ctx, db.Info(), s.opts.NumDims)
	case Fast:
		return NewFastLayout(s.ctx, db.Info())
	}
	return nil, fmt.Errorf("%w: unknown PIR type %v", ErrInvalidParameter, pirType)
}

func (s *LocalServer) Hint(req HintReq, resp *HintResp) error {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	layout, err := s.layout(req.Type, db)
	if err != nil {
		return err
	}
	params, err := s.ctx.MarshalBinary()
	if err != nil {
		return err
	}
	*resp = HintResp{Type: req.Type, Params: params, Info: db.Info()}
	switch l := layout.(type) {
	case *IndexLayout:
		resp.Dims = l.Dims
	case *FastLayout:
		resp.PerCell = l.PerCell
	}
	return nil
}

func (s *LocalServer) SetKeys(req KeysReq, resp *KeysResp) error {
	keys, err := UnmarshalServerKeys(s.ctx, req.Relin, req.Galois)
	if err != nil {
		return err
	}
	resp.Session = s.sessions.Add(keys)
	log.WithField("session", resp.Session).Debugf("stored keys with %d Galois elements", len(keys.Galois))
	return nil
}

func (s *LocalServer) Answer(q QueryReq, resp *interface{}) error {
	var keys *ServerKeys
	if sq, ok := q.(sessionQuery); ok {
		var found bool
		if keys, found = s.sessions.Get(sq.SessionID()); !found {
			return fmt.Errorf("%w: unknown session %q", ErrInvalidParameter, sq.SessionID())
		}
	}

	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	layout, err := s.layout(q.Type(), db)
	if err != nil {
		return err
	}
	ntt, err := s.cache.Get(layout, db)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := q.Process(&ServedDB{Ctx: s.ctx, DB: ntt, Workers: s.opts.Workers}, keys)
	if err != nil {
		return err
	}
	log.WithField("type", q.Type()).Debugf("answered in %v", time.Since(start))
	*resp = out
	return nil
}
