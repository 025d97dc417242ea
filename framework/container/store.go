package container

import (
	"iter"
	"slices"
	"sync"
)

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is the value threaded through the resolver chain while nothing has
// been produced yet. It is distinct from nil, which is a legitimate value.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// EntryStore maps identifiers to raw definitions and keeps the alias table.
//
// Aliases are a single hop: Lookup follows at most one alias before reading
// the entry map, so an alias pointing at another alias does not chain.
type EntryStore struct {
	mu sync.RWMutex

	// id → raw definition (value, factory, type name)
	entries map[string]any

	// alias → canonical id
	aliases map[string]string
}

// NewEntryStore creates an empty store.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		entries: make(map[string]any),
		aliases: make(map[string]string),
	}
}

// Set stores definition under id, replacing any previous definition.
func (s *EntryStore) Set(id string, definition any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = definition
}

// SetMany applies Set for every pair in iteration order. Later duplicates win.
//
//	store.SetMany(maps.All(map[string]any{"name": "demo"}))
func (s *EntryStore) SetMany(entries iter.Seq2[string, any]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, definition := range entries {
		s.entries[id] = definition
	}
}

// Alias points each alias at target. Target does not have to exist yet.
// An alias equal to its target is ignored.
func (s *EntryStore) Alias(target string, aliases ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, alias := range aliases {
		if alias == target {
			continue
		}
		s.aliases[alias] = target
	}
}

// Canonical returns the alias target of id, or id itself.
func (s *EntryStore) Canonical(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canonical(id)
}

func (s *EntryStore) canonical(id string) string {
	if target, ok := s.aliases[id]; ok {
		return target
	}
	return id
}

// Lookup follows one alias hop and returns the stored definition,
// or Absent when there is none.
func (s *EntryStore) Lookup(id string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.canonical(id))
}

// Get reads the entry stored under id without following aliases.
func (s *EntryStore) Get(id string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *EntryStore) get(id string) any {
	if definition, ok := s.entries[id]; ok {
		return definition
	}
	return Absent
}

// Has reports whether id (after one alias hop) was explicitly registered.
func (s *EntryStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[s.canonical(id)]
	return ok
}

// Unset removes the definition stored under id and any alias named id.
func (s *EntryStore) Unset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	delete(s.aliases, id)
}

// IDs returns the registered identifiers in sorted order.
func (s *EntryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
