package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"tomp4/internal/fileutil"
	"tomp4/internal/logging"
)

// Record is the persisted outcome of the last conversion attempt for one
// source path. It is trustworthy evidence of "already converted" only when
// Success is true, the destination still exists, and the source's current
// signature equals the stored one.
type Record struct {
	Dest      string              `json:"dst"`
	Success   bool                `json:"success"`
	Signature *fileutil.Signature `json:"sig"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store is the in-memory view of the progress snapshot. It is loaded once
// per run and rewritten whole after each processed item.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]Record
}

// Open loads the snapshot at path. A missing or unparseable file degrades to
// an empty store; the on-disk file is left untouched until the next
// successful Save.
func Open(path string, logger *slog.Logger) *Store {
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "progress"),
		records: make(map[string]Record),
	}
	if err := s.load(); err != nil {
		s.logger.Warn("progress store unreadable; starting empty",
			logging.String("path", path),
			logging.Error(err))
	}
	return s
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read progress store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse progress store: %w", err)
	}
	s.records = records
	return nil
}

// Save writes the whole snapshot atomically: staged in a sibling temp file,
// then renamed over the canonical path, so a crash at any point leaves
// either the old complete snapshot or the new one.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal progress store: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist progress store: %w", err)
	}
	return nil
}

// Record overwrites the entry for src with the outcome of the attempt that
// just finished. The signature is captured now; a vanished source records a
// nil signature, which can never match and therefore never enables a skip.
func (s *Store) Record(src, dst string, success bool) {
	var sig *fileutil.Signature
	if current, err := fileutil.Stat(src); err == nil {
		sig = &current
	}

	s.mu.Lock()
	s.records[src] = Record{
		Dest:      dst,
		Success:   success,
		Signature: sig,
		UpdatedAt: time.Now(),
	}
	s.mu.Unlock()
}

// AlreadyDone reports whether src was successfully converted to dst and has
// not changed since: the record must be marked success, dst must still
// exist, and the current signature must exactly match the stored one.
func (s *Store) AlreadyDone(src, dst string) bool {
	s.mu.Lock()
	rec, ok := s.records[src]
	s.mu.Unlock()
	if !ok || !rec.Success || rec.Signature == nil {
		return false
	}
	if _, err := os.Stat(dst); err != nil {
		return false
	}
	current, err := fileutil.Stat(src)
	if err != nil {
		return false
	}
	return rec.Signature.Equal(current)
}

// Get returns the record for src.
func (s *Store) Get(src string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[src]
	return rec, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of all records keyed by source path.
func (s *Store) Records() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Path returns the canonical snapshot location.
func (s *Store) Path() string {
	return s.path
}
