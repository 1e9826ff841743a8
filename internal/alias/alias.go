// Package alias persists learned merchant-name mappings. Every consolidation
// teaches the system that a variant spelling belongs to a canonical merchant;
// future ingests apply the mapping directly instead of rediscovering it.
package alias

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store is a variant-to-canonical merchant mapping backed by a YAML file.
// Not safe for concurrent use; callers serialize access the same way they
// serialize store mutations.
type Store struct {
	path    string
	mapping map[string]string
	dirty   bool
}

// Load reads the mapping file at path. A missing file yields an empty store;
// it will be created on the first Save.
func Load(path string) (*Store, error) {
	s := &Store{path: path, mapping: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alias file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s.mapping); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	if s.mapping == nil {
		s.mapping = make(map[string]string)
	}
	return s, nil
}

// Canonical looks up the canonical spelling for a merchant variant.
func (s *Store) Canonical(merchant string) (string, bool) {
	c, ok := s.mapping[merchant]
	return c, ok
}

// Record remembers that variant belongs to canonical. Self-mappings and
// repeats are ignored.
func (s *Store) Record(variant, canonical string) {
	if variant == canonical || variant == "" || canonical == "" {
		return
	}
	if existing, ok := s.mapping[variant]; ok && existing == canonical {
		return
	}
	s.mapping[variant] = canonical
	s.dirty = true
}

// Dirty reports whether the store has unsaved mappings.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Len returns the number of stored mappings.
func (s *Store) Len() int {
	return len(s.mapping)
}

// Variants returns the known variant spellings, sorted.
func (s *Store) Variants() []string {
	vs := make([]string, 0, len(s.mapping))
	for v := range s.mapping {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	return vs
}

// Save writes the mapping back to its file. A clean store is a no-op.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(s.mapping)
	if err != nil {
		return fmt.Errorf("marshal aliases: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write alias file %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
