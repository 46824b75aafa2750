// Package telemetry is the append-only durable log of completed and aborted
// agent turns. The store is best-effort observability, not a primary data
// store: one corrupt row never poisons the rest of the log, and a failed
// append never fails the run that produced the record.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Store appends RunRecords to a flat CSV file and reloads recent records.
// Appends are serialized through one mutex; each append is an independent
// physical write, so no cross-call read dependency exists.
type Store struct {
	path     string
	logger   zerolog.Logger
	mu       sync.Mutex
	skipHook func()
}

// NewStore creates a store bound to path. Call Initialize before the first
// Append or LoadRecent.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("module", "telemetry").Logger(),
	}
}

// Path returns the on-disk location of the log.
func (s *Store) Path() string {
	return s.path
}

// SetSkipHook registers fn to be called once per malformed row skipped by
// LoadRecent, typically a metrics counter increment. Nil clears the hook.
func (s *Store) SetSkipHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipHook = fn
}

// Initialize creates the log file with its header row if it is absent or
// empty. Calling it twice never duplicates the header.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked()
}

func (s *Store) initializeLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}

	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		// Already initialized; verify the header is ours.
		if err := s.verifyHeader(); err != nil {
			return err
		}
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}
	if err := file.Sync(); err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}

	s.logger.Info().Str("path", s.path).Msg("Telemetry store initialized")
	return nil
}

func (s *Store) verifyHeader() error {
	file, err := os.Open(s.path)
	if err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return &PersistenceError{Op: "initialize", Path: s.path, Err: err}
	}
	if strings.Join(header, ",") != strings.Join(columns, ",") {
		return &PersistenceError{
			Op:   "initialize",
			Path: s.path,
			Err:  fmt.Errorf("unexpected header %q", strings.Join(header, ",")),
		}
	}
	return nil
}

// Append serializes one record as one row and writes it atomically at the
// end of the log. Prior content is never rewritten.
func (s *Store) Append(record RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.initializeLocked(); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Op: "append", Path: s.path, Err: err}
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(record.row()); err != nil {
		return &PersistenceError{Op: "append", Path: s.path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Op: "append", Path: s.path, Err: err}
	}
	if err := file.Sync(); err != nil {
		return &PersistenceError{Op: "append", Path: s.path, Err: err}
	}

	s.logger.Debug().
		Str("agent", record.AgentName).
		Str("model", record.Model).
		Bool("aborted", record.Aborted).
		Msg("Run record appended")

	return nil
}

// LoadRecent returns at most limit most-recent valid records, preserving
// on-disk order among valid rows. Rows that fail field coercion are skipped
// and logged, never fatal: a partial write from a crashed process must not
// poison the rest of the log.
func (s *Store) LoadRecent(limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunRecord{}, nil
		}
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records []RunRecord
	line := 0
	for {
		fields, err := r.Read()
		if err != nil {
			break // io.EOF or an unrecoverable reader error ends the scan
		}
		line++
		if line == 1 {
			continue // header
		}

		record, err := parseRow(fields)
		if err != nil {
			s.logger.Warn().
				Int("line", line).
				Err(err).
				Msg("Skipping malformed telemetry row")
			if s.skipHook != nil {
				s.skipHook()
			}
			continue
		}
		records = append(records, record)
	}

	if limit >= 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
