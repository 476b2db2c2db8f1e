// Package file provides the JSON-document storage engine.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/louisbranch/hbnb/internal/services/hbnb/models"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage"
)

// Store keeps the working set in memory and writes it as one JSON object
// mapping composite keys to entity dictionaries.
type Store struct {
	path    string
	objects map[string]models.Entity
	logger  *log.Logger
}

// Open creates a file store bound to path and loads it.
func Open(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		path:    filepath.Clean(path),
		objects: map[string]models.Entity{},
		logger:  logger,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// All returns the working set, optionally restricted to one class.
func (s *Store) All(ctx context.Context, class string) (map[string]models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return storage.Filter(s.objects, class), nil
}

// Get returns one entity by class and id.
func (s *Store) Get(ctx context.Context, class, id string) (models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.objects[models.KeyOf(class, id)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

// New inserts or replaces e in the working set.
func (s *Store) New(e models.Entity) {
	if e == nil {
		return
	}
	s.objects[models.Key(e)] = e
}

// Delete removes e from the working set.
func (s *Store) Delete(e models.Entity) {
	if e == nil {
		return
	}
	s.DeleteKey(models.Key(e))
}

// DeleteKey removes the entity stored under key, if any.
func (s *Store) DeleteKey(key string) {
	delete(s.objects, key)
}

// Save serializes the working set and replaces the backing file. The new
// document is written to a sibling temp file first so a failed write never
// leaves a truncated document behind.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := make(map[string]map[string]any, len(s.objects))
	for key, e := range s.objects {
		doc[key] = models.ToMap(e)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode file storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write file storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close file storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace file storage: %w", err)
	}
	return nil
}

// Reload replaces the working set with the file contents.
//
// A missing file yields an empty working set. An unreadable or malformed
// document also yields an empty working set and a logged warning. Entries
// that cannot be rebuilt are skipped with a logged warning.
func (s *Store) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.objects = map[string]models.Entity{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Printf("file storage: read %s: %v", s.path, err)
		}
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Printf("file storage: decode %s: %v", s.path, err)
		return nil
	}

	for key, raw := range doc {
		e, err := decodeEntry(raw)
		if err != nil {
			s.logger.Printf("file storage: skip %q: %v", key, err)
			continue
		}
		if models.Key(e) != key {
			s.logger.Printf("file storage: skip %q: key does not match %s", key, models.Key(e))
			continue
		}
		s.objects[key] = e
	}
	return nil
}

// Close re-synchronizes the working set from disk.
func (s *Store) Close() error {
	return s.Reload(context.Background())
}

func decodeEntry(raw json.RawMessage) (models.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("entry is not an object")
	}
	return models.FromMap(m)
}

var _ storage.Engine = (*Store)(nil)
