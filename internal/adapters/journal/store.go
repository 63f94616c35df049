// Package journal persists the last outcome of every target as a JSON file.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
)

// Store implements ports.Journal using a flat JSON file. The file is read on
// first access.
type Store struct {
	path string

	mu      sync.RWMutex
	loaded  bool
	entries map[string]domain.JournalEntry
}

var _ ports.Journal = (*Store)(nil)

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{
		path:    filepath.Clean(path),
		entries: make(map[string]domain.JournalEntry),
	}
}

// Path returns the location of the journal file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		// Nothing can exist below a regular file; the next save reports it.
		s.loaded = true
		return nil
	case err != nil:
		return domain.Annotate(fmt.Errorf("%w: %w", domain.ErrJournalReadFailed, err), "path", s.path)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return domain.Annotate(fmt.Errorf("%w: %w", domain.ErrJournalReadFailed, err), "path", s.path)
		}
	}
	s.loaded = true
	return nil
}

// saveLocked writes the journal through a temporary file and a rename.
// Must be called with s.mu held.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrJournalWriteFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return s.writeError(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return s.writeError(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, werr := tmp.Write(append(data, '\n'))
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return s.writeError(err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return s.writeError(err)
	}
	return nil
}

func (s *Store) writeError(err error) error {
	return domain.Annotate(fmt.Errorf("%w: %w", domain.ErrJournalWriteFailed, err), "path", s.path)
}

// Get retrieves the entry for a target, or nil if the target never ran.
func (s *Store) Get(target string) (*domain.JournalEntry, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[target]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Put stores entries and writes the journal to disk once.
func (s *Store) Put(entries ...domain.JournalEntry) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.entries[e.Target] = e
	}
	return s.saveLocked()
}

// All returns every entry sorted by target name.
func (s *Store) All() ([]domain.JournalEntry, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.JournalEntry, 0, len(s.entries))
	for _, name := range slices.Sorted(maps.Keys(s.entries)) {
		entries = append(entries, s.entries[name])
	}
	return entries, nil
}
