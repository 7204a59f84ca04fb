package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipline/internal/types"
)

// Store resolves credentials from the environment first, then from a YAML
// file of key: value pairs. The file is re-read on every lookup so edits apply
// without a restart.
type Store struct {
	path   string
	getenv func(string) string
}

func New(path string) *Store {
	return &Store{path: path, getenv: os.Getenv}
}

func (s *Store) Path() string { return s.path }

// Lookup returns the value for key. A missing or blank key and an unreadable
// file are both configuration errors; the latter keeps the parse error.
func (s *Store) Lookup(key string) (string, error) {
	if v := strings.TrimSpace(s.getenv(key)); v != "" {
		return v, nil
	}
	m, err := s.load()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrConfiguration, key, err)
	}
	v := strings.TrimSpace(m[key])
	if v == "" {
		return "", fmt.Errorf("%w: %s is not set", types.ErrConfiguration, key)
	}
	return v, nil
}

// InEnv reports whether the environment overrides key.
func (s *Store) InEnv(key string) bool {
	return strings.TrimSpace(s.getenv(key)) != ""
}

// Set writes key into the file, creating it with 0600 permissions.
func (s *Store) Set(key, value string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

// Delete removes key from the file. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

// Keys lists the keys stored in the file, sorted.
func (s *Store) Keys() ([]string, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) save(m map[string]string) error {
	if s.path == "" {
		return fmt.Errorf("%w: secrets file path is empty", types.ErrConfiguration)
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create secrets dir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write secrets file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(s.path, 0o600)
}

func (s *Store) load() (map[string]string, error) {
	m := map[string]string{}
	if s.path == "" {
		return m, nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", s.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
