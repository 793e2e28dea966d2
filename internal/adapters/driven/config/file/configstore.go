package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// table is one level of the TOML document.
type table = map[string]any

// ConfigStore keeps config.toml as a tree of tables. A dotted key such as
// "llm.provider" names the provider value inside the [llm] table.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	root table
}

// NewConfigStore opens dir/config.toml, creating dir when needed. An empty
// dir means ~/.sercha-rag.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".sercha-rag")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(dir, "config.toml")}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load rereads the file. A missing file is an empty config.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.root = table{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var doc table
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc == nil {
		doc = table{}
	}

	s.mu.Lock()
	s.root = doc
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, leaf := s.parent(key)
	if parent == nil {
		return nil, false
	}
	v, ok := parent[leaf]
	if _, isTable := v.(table); isTable {
		return nil, false
	}
	return v, ok
}

// parent returns the table holding key's last segment, or nil when a
// segment along the way is missing or not a table.
func (s *ConfigStore) parent(key string) (table, string) {
	parts := strings.Split(key, ".")
	node := s.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(table)
		if !ok {
			return nil, ""
		}
		node = next
	}
	return node, parts[len(parts)-1]
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64: // TOML integers
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any: // TOML arrays
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Keys lists every set value as a dotted key, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	var walk func(t table, prefix string)
	walk = func(t table, prefix string) {
		for k, v := range t {
			if sub, ok := v.(table); ok {
				walk(sub, prefix+k+".")
				continue
			}
			keys = append(keys, prefix+k)
		}
	}
	walk(s.root, "")
	sort.Strings(keys)
	return keys
}

// Set stores value under key and writes the file. A key cannot be both a
// value and a table: setting "llm.provider" fails while "llm" holds a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	if err := s.checkPath(key, parts); err != nil {
		return err
	}

	node := s.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(table)
		if !ok {
			next = table{}
			node[p] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
	return s.write()
}

func (s *ConfigStore) checkPath(key string, parts []string) error {
	node := s.root
	for i, p := range parts {
		v, ok := node[p]
		if !ok {
			return nil
		}
		sub, isTable := v.(table)
		last := i == len(parts)-1
		switch {
		case last && isTable:
			return fmt.Errorf("config key %q conflicts with a table", key)
		case !last && !isTable:
			return fmt.Errorf("config key %q conflicts with value at %q", key, strings.Join(parts[:i+1], "."))
		}
		node = sub
	}
	return nil
}

// Delete unsets key, drops tables left empty and writes the file.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	path := []table{s.root}
	for _, p := range parts[:len(parts)-1] {
		next, ok := path[len(path)-1][p].(table)
		if !ok {
			return nil
		}
		path = append(path, next)
	}
	delete(path[len(path)-1], parts[len(parts)-1])

	for i := len(path) - 1; i > 0 && len(path[i]) == 0; i-- {
		delete(path[i-1], parts[i-1])
	}
	return s.write()
}

// write replaces the file through a temp file so readers never see a
// partial document. Caller holds mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(s.root)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}
