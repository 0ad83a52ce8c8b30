package driver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dimakogan/hepir/pir"
	"github.com/fsnotify/fsnotify"
)

// LoadDBFile reads a database from a CSV file with one record per line.
func LoadDBFile(filename string) (*pir.Database, error) {
	if len(filename) == 0 {
		return nil, fmt.Errorf("missing database filename")
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file %s: %v", filename, err)
	}
	defer file.Close()
	return LoadDB(file)
}

// LoadDB parses CSV records of unsigned integers. Lines starting with '#'
// are skipped.
func LoadDB(f io.Reader) (*pir.Database, error) {
	r := csv.NewReader(f)
	r.Comment = '#'
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	records := make([][]uint64, len(rows))
	for i, row := range rows {
		records[i] = make([]uint64, len(row))
		for j, field := range row {
			if records[i][j], err = strconv.ParseUint(strings.TrimSpace(field), 10, 64); err != nil {
				return nil, fmt.Errorf("bad record #%d value #%d: %q", i, j, field)
			}
		}
	}
	return pir.NewDatabase(records)
}

// DBWatcher reloads a server's database whenever its file is written.
type DBWatcher struct {
	filename string
	watcher  *fsnotify.Watcher
	reload   func(db *pir.Database) error
	done     chan struct{}
}

func WatchDBFile(filename string, reload func(db *pir.Database) error) (*DBWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create watcher: %v", err)
	}
	if err := watcher.Add(filename); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("cannot watch file: %v", err)
	}
	w := &DBWatcher{filename: filename, watcher: watcher, reload: reload, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *DBWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			log.WithField("event", event).Debug("database file event")
			if event.Op&fsnotify.Write == fsnotify.Write {
				w.update()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("database watcher error")
		}
	}
}

func (w *DBWatcher) update() {
	db, err := LoadDBFile(w.filename)
	if err != nil {
		// Happens while the file is being rewritten; a later write event retries.
		log.WithError(err).Info("cannot load database")
		return
	}
	if err := w.reload(db); err != nil {
		log.WithError(err).Warn("cannot reload database")
	}
}

func (w *DBWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
