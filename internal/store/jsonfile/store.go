// Package jsonfile stores the book document as one JSON file, validated
// against an embedded schema on load and replaced atomically on save.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"us30bot/internal/store"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchema = `{
  "type": "object",
  "properties": {
    "openPrice": {"type": ["number", "string", "null"]},
    "positions": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["direction", "entryPrice"],
        "properties": {
          "direction": {"enum": ["long", "short"]},
          "entryPrice": {"type": ["number", "string"]},
          "lotSize": {"type": ["number", "string"]},
          "tag": {"type": "string"}
        }
      }
    },
    "signals": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["kind", "observedAt"],
        "properties": {
          "kind": {"type": "string", "minLength": 1},
          "weight": {"type": "integer"},
          "observedAt": {"type": "string"}
        }
      }
    },
    "closes": {"type": ["array", "null"]}
  }
}`

// Store is a JSON document on disk.
type Store struct {
	path   string
	schema *jsonschema.Schema
	mu     sync.Mutex
}

var _ store.StateStore = (*Store)(nil)

// New prepares a store at path; the file is created on first Save.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create dir: %w", err)
	}
	schema, err := compileSchema(documentSchema)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: compile schema: %w", err)
	}
	return &Store{path: path, schema: schema}, nil
}

func compileSchema(raw string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("state.json", strings.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile("state.json")
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing or empty file yields an empty document;
// an undecodable or schema-invalid file yields an empty document and an error
// wrapping store.ErrCorrupt.
func (s *Store) Load(ctx context.Context) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return store.Empty(), nil
	}
	if err != nil {
		return store.Empty(), fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return store.Empty(), nil
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return store.Empty(), fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.path, err)
	}
	if err := s.schema.Validate(generic); err != nil {
		return store.Empty(), fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.path, err)
	}
	doc := store.Empty()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return store.Empty(), fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.path, err)
	}
	if doc.Positions == nil {
		doc.Positions = store.Empty().Positions
	}
	if doc.Signals == nil {
		doc.Signals = store.Empty().Signals
	}
	return doc, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target.
func (s *Store) Save(ctx context.Context, doc store.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: rename: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
