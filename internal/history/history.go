// Package history keeps a rolling window of past scoring runs in a JSON file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panbanda/qscore/internal/logging"
	"github.com/panbanda/qscore/pkg/models"
)

// FileVersion is the version written to new history files.
const FileVersion = 1

// DefaultMaxRecords is the default size of the rolling window.
const DefaultMaxRecords = 30

// File is the on-disk layout of the history file.
type File struct {
	Version int                       `json:"version"`
	Created time.Time                 `json:"created"`
	Records []models.HistoricalRecord `json:"records"`
}

// Store is a rolling window of historical records backed by a JSON file.
// When the file cannot be read or written the store keeps working in memory.
// Separate processes appending to the same file race; the last writer wins.
type Store struct {
	mu         sync.Mutex
	path       string
	maxRecords int
	logger     *logging.Logger
	created    time.Time
	records    []models.HistoricalRecord
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRecords sets how many records are retained. Values below 1 are ignored.
func WithMaxRecords(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithLogger sets the logger used for read and write warnings.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock sets the time source used for the file creation stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads the history at path. It never fails: a missing file starts an
// empty history, and an unreadable or corrupt one is logged and ignored.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		maxRecords: DefaultMaxRecords,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Records returns a copy of the stored records, oldest first.
func (s *Store) Records() []models.HistoricalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoricalRecord(nil), s.records...)
}

// Append adds a record, drops the oldest records beyond the window and
// rewrites the file. A write failure is logged and returned; the record is
// kept in memory either way.
func (s *Store) Append(rec models.HistoricalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if over := len(s.records) - s.maxRecords; over > 0 {
		s.records = append([]models.HistoricalRecord(nil), s.records[over:]...)
	}

	if err := s.save(); err != nil {
		s.logger.Warn("history not saved to %s: %v", s.path, err)
		return err
	}
	return nil
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("history not loaded from %s: %v", s.path, err)
		}
		return
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn("history file %s is corrupt, starting fresh: %v", s.path, err)
		return
	}
	if f.Version > FileVersion {
		s.logger.Debug("history file %s has version %d, newer than %d", s.path, f.Version, FileVersion)
	}

	s.created = f.Created
	s.records = f.Records
	if over := len(s.records) - s.maxRecords; over > 0 {
		s.records = s.records[over:]
	}
}

func (s *Store) save() error {
	if s.path == "" {
		return errors.New("history has no backing file")
	}
	if s.created.IsZero() {
		s.created = s.now().UTC()
	}

	records := s.records
	if records == nil {
		records = []models.HistoricalRecord{}
	}
	data, err := json.MarshalIndent(File{
		Version: FileVersion,
		Created: s.created,
		Records: records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
