package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// FileStore keeps history as a JSON array, newest first. The whole file is
// rewritten on every change through a temporary file and a rename.
type FileStore struct {
	mu   sync.Mutex
	path string
	opts options
}

// OpenFile opens the JSON history file at path. A missing file is an empty
// history.
func OpenFile(path string, opts ...Option) (*FileStore, error) {
	o := buildOptions(opts)
	if err := o.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	s := &FileStore{path: path, opts: o}
	// Fail early on a corrupt file.
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) read() ([]Entry, error) {
	data, err := afero.ReadFile(s.opts.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.opts.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := s.opts.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

func (s *FileStore) Append(expression, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries = append([]Entry{s.opts.newEntry(expression, result)}, entries...)
	if len(entries) > s.opts.limit {
		entries = entries[:s.opts.limit]
	}
	return s.write(entries)
}

func (s *FileStore) LoadAll() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(entries) > s.opts.limit {
		entries = entries[:s.opts.limit]
	}
	return entries, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

func (s *FileStore) Close() error { return nil }
