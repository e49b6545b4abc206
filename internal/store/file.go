// Package store implements service.Store on a JSON file, DuckDB and PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joeblew999/agromind/internal/service"
)

// File keeps fields in <dataDir>/fields.json.
type File struct {
	dataDir string
	fields  map[string]service.Field
	mu      sync.RWMutex
}

// NewFile loads fields from disk. A missing file starts empty; a corrupt
// file is an error so it is never silently overwritten.
func NewFile(dataDir string) (*File, error) {
	s := &File{
		dataDir: dataDir,
		fields:  make(map[string]service.Field),
	}
	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *File) List(ctx context.Context) ([]service.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]service.Field, 0, len(s.fields))
	for _, f := range s.fields {
		result = append(result, f)
	}
	return result, nil
}

func (s *File) Get(ctx context.Context, id string) (service.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[id]
	if !ok {
		return service.Field{}, service.ErrNotFound
	}
	return f, nil
}

func (s *File) Create(ctx context.Context, f service.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[f.ID]; exists {
		return service.ErrExists
	}
	s.fields[f.ID] = f
	if err := s.saveToDisk(); err != nil {
		delete(s.fields, f.ID)
		return err
	}
	return nil
}

func (s *File) Update(ctx context.Context, f service.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.fields[f.ID]
	if !exists {
		return service.ErrNotFound
	}
	s.fields[f.ID] = f
	if err := s.saveToDisk(); err != nil {
		s.fields[f.ID] = prev
		return err
	}
	return nil
}

func (s *File) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.fields[id]
	if !exists {
		return service.ErrNotFound
	}
	delete(s.fields, id)
	if err := s.saveToDisk(); err != nil {
		s.fields[id] = prev
		return err
	}
	return nil
}

func (s *File) Close() error { return nil }

func (s *File) configFile() string {
	return filepath.Join(s.dataDir, "fields.json")
}

func (s *File) loadFromDisk() error {
	data, err := os.ReadFile(s.configFile())
	if os.IsNotExist(err) {
		return nil // start empty
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.configFile(), err)
	}

	var fields map[string]service.Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode %s: %w", s.configFile(), err)
	}
	if fields != nil {
		s.fields = fields
	}
	return nil
}

// saveToDisk persists fields via a temp file and rename.
func (s *File) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.fields, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.configFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.configFile())
}
