package driver

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dimakogan/hepir/pir"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "driver")

type PirServerDriver interface {
	pir.Server

	AnswerIndex(q pir.IndexQueryReq, resp *pir.IndexQueryResp) error
	AnswerFast(q pir.FastQueryReq, resp *pir.FastQueryResp) error

	Configure(config TestConfig, none *int) error

	GetRecord(idx int, rec *RecordIndexVal) error
	NumRecords(none int, out *int) error
	RecordSize(none int, out *int) error
	GetStatus(none int, out *Status) error

	ResetMetrics(none int, none2 *int) error
	GetOfflineTimer(none int, out *time.Duration) error
	GetOnlineTimer(none int, out *time.Duration) error
	GetOfflineBytes(none int, out *int) error
	GetOnlineBytes(none int, out *int) error
}

type RecordIndexVal struct {
	Index int
	Value []uint64
}

// Status summarizes a server for monitoring.
type Status struct {
	Params         string
	NumRecords     int
	RecordSize     int
	Sessions       int
	Preprocessings int
	Queries        int
	OfflineBytes   int
	OnlineBytes    int
	OfflineTime    time.Duration
	OnlineTime     time.Duration
}

type serverDriver struct {
	mu     sync.RWMutex
	server *pir.LocalServer
	config TestConfig

	randSource *rand.Rand

	metricsMu sync.Mutex
	// For profiling
	hintTime, answerTime      time.Duration
	offlineBytes, onlineBytes int
	queries                   int
}

func NewServerDriver() (*serverDriver, error) {
	return &serverDriver{randSource: pir.RandSource()}, nil
}

func (driver *serverDriver) localServer() (*pir.LocalServer, error) {
	driver.mu.RLock()
	defer driver.mu.RUnlock()
	if driver.server == nil {
		return nil, fmt.Errorf("server is not configured")
	}
	return driver.server, nil
}

func (driver *serverDriver) measure(online bool, msg interface{}) error {
	driver.mu.RLock()
	enabled := driver.config.MeasureBandwidth
	driver.mu.RUnlock()
	if !enabled {
		return nil
	}
	size, err := SerializedSizeOf(msg)
	if err != nil {
		return err
	}
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	if online {
		driver.onlineBytes += size
	} else {
		driver.offlineBytes += size
	}
	return nil
}

func (driver *serverDriver) Hint(req pir.HintReq, resp *pir.HintResp) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	if err := driver.measure(false, req); err != nil {
		return err
	}

	start := time.Now()
	if err := server.Hint(req, resp); err != nil {
		return err
	}
	driver.metricsMu.Lock()
	driver.hintTime += time.Since(start)
	driver.metricsMu.Unlock()

	return driver.measure(false, resp)
}

func (driver *serverDriver) SetKeys(req pir.KeysReq, resp *pir.KeysResp) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	if err := driver.measure(false, req); err != nil {
		return err
	}
	start := time.Now()
	if err := server.SetKeys(req, resp); err != nil {
		return err
	}
	driver.metricsMu.Lock()
	driver.hintTime += time.Since(start)
	driver.metricsMu.Unlock()
	return driver.measure(false, resp)
}

func (driver *serverDriver) Answer(q pir.QueryReq, resp *interface{}) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	if err := driver.measure(true, q); err != nil {
		return err
	}

	start := time.Now()
	if err := server.Answer(q, resp); err != nil {
		log.WithError(err).WithField("type", q.Type()).Warn("query failed")
		return err
	}
	driver.metricsMu.Lock()
	driver.answerTime += time.Since(start)
	driver.queries++
	driver.metricsMu.Unlock()

	return driver.measure(true, *resp)
}

func (driver *serverDriver) AnswerIndex(q pir.IndexQueryReq, resp *pir.IndexQueryResp) error {
	var out interface{}
	if err := driver.Answer(&q, &out); err != nil {
		return err
	}
	*resp = *out.(*pir.IndexQueryResp)
	return nil
}

func (driver *serverDriver) AnswerFast(q pir.FastQueryReq, resp *pir.FastQueryResp) error {
	var out interface{}
	if err := driver.Answer(&q, &out); err != nil {
		return err
	}
	*resp = *out.(*pir.FastQueryResp)
	return nil
}

func (driver *serverDriver) Configure(config TestConfig, none *int) error {
	ctx, err := pir.GenerateContextWithPlainBits(config.Degree, config.PlainBits)
	if err != nil {
		return err
	}
	randSource := driver.randSource
	if config.DataRandSeed > 0 {
		randSource = rand.New(rand.NewSource(config.DataRandSeed))
	}
	records := pir.MakeRecords(randSource, config.NumRecords, config.RecordSize, ctx.PlainModulus())
	for _, preset := range config.PresetRecords {
		if preset.Index < 0 || preset.Index >= len(records) {
			return fmt.Errorf("preset record %d out of range", preset.Index)
		}
		records[preset.Index] = preset.Value
	}
	db, err := pir.NewDatabase(records)
	if err != nil {
		return err
	}
	return driver.configure(ctx, db, config)
}

// ConfigureDB serves db instead of randomly generated records. The record
// count and size of config are taken from db.
func (driver *serverDriver) ConfigureDB(db *pir.Database, config TestConfig) error {
	ctx, err := pir.GenerateContextWithPlainBits(config.Degree, config.PlainBits)
	if err != nil {
		return err
	}
	config.NumRecords = db.NumRecords()
	config.RecordSize = db.RecordSize
	config.PresetRecords = nil
	return driver.configure(ctx, db, config)
}

func (driver *serverDriver) configure(ctx *pir.Context, db *pir.Database, config TestConfig) error {
	server, err := pir.NewLocalServer(ctx, db, pir.ServerOptions{
		NumDims:     config.NumDims,
		Workers:     config.Workers,
		MaxSessions: config.MaxSessions,
	})
	if err != nil {
		return err
	}
	driver.mu.Lock()
	driver.server = server
	driver.config = config
	driver.mu.Unlock()

	log.WithField("config", config).Infof("configured %v", ctx)
	return driver.ResetMetrics(0, nil)
}

// Reload swaps the database of a configured driver.
func (driver *serverDriver) Reload(db *pir.Database) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	return server.Reload(db)
}

func (driver *serverDriver) GetRecord(idx int, rec *RecordIndexVal) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	rec.Index = idx
	rec.Value = server.Database().Record(idx)
	if rec.Value == nil {
		return fmt.Errorf("record %d out of range", idx)
	}
	return nil
}

func (driver *serverDriver) NumRecords(none int, out *int) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	*out = server.Database().NumRecords()
	return nil
}

func (driver *serverDriver) RecordSize(none int, out *int) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	*out = server.Database().RecordSize
	return nil
}

func (driver *serverDriver) GetStatus(none int, out *Status) error {
	server, err := driver.localServer()
	if err != nil {
		return err
	}
	db := server.Database()
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	*out = Status{
		Params:         server.Context().String(),
		NumRecords:     db.NumRecords(),
		RecordSize:     db.RecordSize,
		Sessions:       server.NumSessions(),
		Preprocessings: server.Preprocessings(),
		Queries:        driver.queries,
		OfflineBytes:   driver.offlineBytes,
		OnlineBytes:    driver.onlineBytes,
		OfflineTime:    driver.hintTime,
		OnlineTime:     driver.answerTime,
	}
	return nil
}

func (driver *serverDriver) GetOfflineTimer(none int, out *time.Duration) error {
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	*out = driver.hintTime
	return nil
}

func (driver *serverDriver) GetOnlineTimer(none int, out *time.Duration) error {
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	*out = driver.answerTime
	return nil
}

func (driver *serverDriver) GetOfflineBytes(none int, out *int) error {
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	*out = driver.offlineBytes
	return nil
}

func (driver *serverDriver) GetOnlineBytes(none int, out *int) error {
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	*out = driver.onlineBytes
	return nil
}

func (driver *serverDriver) ResetMetrics(none int, none2 *int) error {
	driver.metricsMu.Lock()
	defer driver.metricsMu.Unlock()
	driver.hintTime = 0
	driver.answerTime = 0
	driver.offlineBytes = 0
	driver.onlineBytes = 0
	driver.queries = 0
	return nil
}
