// Package filestore implements a settings backend kept in a single JSON or YAML document.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout. Values are kept as generic JSON trees and decoded into
// their declared type on read.
type document struct {
	Types    map[string]string `json:"types" yaml:"types"`
	Values   map[string]any    `json:"values" yaml:"values"`
	Defaults map[string]any    `json:"defaults" yaml:"defaults"`
}

func newDocument() document {
	return document{
		Types:    make(map[string]string),
		Values:   make(map[string]any),
		Defaults: make(map[string]any),
	}
}

// Store implements ports.Backend on top of a document file.
// Changes are held in memory and written atomically on Commit.
type Store struct {
	path string
	yaml bool

	mu    sync.RWMutex
	doc   document
	dirty bool
}

var _ ports.Backend = (*Store)(nil)

// NewStore opens the document at path. A missing file is an empty store.
// Files ending in .yaml or .yml use YAML; everything else uses JSON.
func NewStore(path string) (*Store, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s := &Store{
		path: filepath.Clean(path),
		yaml: ext == ".yaml" || ext == ".yml",
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the document.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = newDocument()
	s.dirty = false

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", s.path)
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if s.yaml {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", s.path)
	}
	for key, name := range doc.Types {
		s.doc.Types[key] = name
		s.doc.Values[key] = doc.Values[key]
		s.doc.Defaults[key] = doc.Defaults[key]
	}
	return nil
}

func (s *Store) save() error {
	var (
		data []byte
		err  error
	)
	if s.yaml {
		data, err = yaml.Marshal(s.doc)
	} else {
		data, err = json.MarshalIndent(s.doc, "", "  ")
	}
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", dir)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", tmp.Name())
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	return nil
}

// Get decodes the value of key into typ.
func (s *Store) Get(_ context.Context, key string, typ reflect.Type) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.doc.Types[key]
	if !ok {
		return nil, notFound(key)
	}
	target, err := domain.DecodeTarget(key, name, typ)
	if err != nil {
		return nil, err
	}
	value, err := decode(s.doc.Values[key], target)
	if err != nil {
		return nil, zerr.With(err, "key", key)
	}
	if !domain.Compatible(target, value, typ) {
		err := zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "stored value does not match requested type"), "key", key)
		return nil, zerr.With(err, "requested_type", typ.String())
	}
	return value, nil
}

// IsRegistered reports whether key exists in the document.
func (s *Store) IsRegistered(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Types[key]
	return ok, nil
}

// Register creates or replaces key.
func (s *Store) Register(_ context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	value, err := normalize(initialValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}
	def, err := normalize(defaultValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Types[key] = domain.TypeName(typ)
	s.doc.Values[key] = value
	s.doc.Defaults[key] = def
	s.dirty = true
	return nil
}

// Set overwrites the value of key.
func (s *Store) Set(_ context.Context, key string, value any, typ reflect.Type) error {
	normalized, err := normalize(value)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.doc.Types[key]
	if !ok {
		return notFound(key)
	}
	if _, err := domain.DecodeTarget(key, name, typ); err != nil {
		return err
	}
	s.doc.Values[key] = normalized
	s.dirty = true
	return nil
}

// Unregister removes key.
func (s *Store) Unregister(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Types[key]; !ok {
		return nil
	}
	delete(s.doc.Types, key)
	delete(s.doc.Values, key)
	delete(s.doc.Defaults, key)
	s.dirty = true
	return nil
}

// Commit writes the document when it has changed since the last load or commit.
func (s *Store) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Discard drops uncommitted changes by reloading the document.
func (s *Store) Discard(_ context.Context) error {
	return s.load()
}

// Concurrency allows every commit phase to run concurrently; the document is guarded by a mutex.
func (s *Store) Concurrency() domain.Concurrency {
	return domain.FullConcurrency
}

// normalize converts a typed value into the generic tree its JSON encoding decodes to.
// YAML and JSON documents then hold identical representations.
func normalize(value any) (any, error) {
	data, err := domain.EncodeValue(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}
	return generic, nil
}

func decode(generic any, typ reflect.Type) (any, error) {
	data, err := json.Marshal(generic)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	return domain.DecodeValue(data, typ)
}

func notFound(key string) error {
	return zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
}
