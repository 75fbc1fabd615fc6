// Package store implements the in-memory collection store. A Store holds
// named collections of records keyed by id; collections are created lazily on
// first write and live only in process memory.
//
// The server handles requests concurrently, so all access is serialized with
// a read-write mutex and every read hands out a deep copy. Callers can never
// mutate store internals through a returned record, and each mutation is
// atomic with respect to other requests.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lostpaws/pawserver/internal/model"
)

var (
	// ErrCollectionNotFound is returned when a requested collection does not exist.
	ErrCollectionNotFound = errors.New("collection does not exist")
	// ErrEntryNotFound is returned when a requested entry does not exist within a collection.
	ErrEntryNotFound = errors.New("entry does not exist")
)

// Store is a set of named record collections guarded by a single lock.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]model.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]model.Record)}
}

// NewFromSeed returns a store populated from a seed snapshot in the format
// {collection: {id: record}}. The seed is deep-copied on the way in.
func NewFromSeed(seed map[string]map[string]model.Record) *Store {
	s := New()
	for name, entries := range seed {
		collection := make(map[string]model.Record, len(entries))
		for id, record := range entries {
			collection[id] = record.Clone()
		}
		s.collections[name] = collection
	}
	return s
}

// Collections returns the names of all collections.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names
}

// List returns deep copies of all entries in a collection, each with its _id
// attached.
func (s *Store) List(collection string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	result := make([]model.Record, 0, len(target))
	for id, record := range target {
		result = append(result, withID(record, id))
	}
	return result, nil
}

// Get returns a deep copy of a single entry with its _id attached.
func (s *Store) Get(collection, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	record, ok := target[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return withID(record, id), nil
}

// Add stores a new entry and returns it with its generated _id. Reserved
// fields are stripped from the incoming data, except an explicit _ownerId
// which the caller (the CRUD service) has already vetted. The collection is
// created when missing.
func (s *Store) Add(collection string, data model.Record) model.Record {
	record := model.Record{}
	if owner, ok := data[model.FieldOwnerID]; ok {
		record[model.FieldOwnerID] = owner
	}
	model.AssignClean(record, data)
	record[model.FieldCreatedOn] = nowMillis()

	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.collections[collection]
	if !ok {
		target = make(map[string]model.Record)
		s.collections[collection] = target
	}
	// Re-roll on the off chance a generated id collides with a seeded one.
	id := uuid.NewString()
	for _, exists := target[id]; exists; _, exists = target[id] {
		id = uuid.NewString()
	}
	target[id] = record
	return withID(record, id)
}

// Set replaces an entry wholesale, preserving the reserved fields of the
// existing record, and returns the stored result.
func (s *Store) Set(collection, id string, data model.Record) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	existing, ok := target[id]
	if !ok {
		return nil, ErrEntryNotFound
	}

	record := model.AssignSystem(data.Clone(), existing)
	record[model.FieldUpdatedOn] = nowMillis()
	target[id] = record
	return withID(record, id), nil
}

// Merge shallow-merges data into an existing entry, ignoring reserved fields
// in the incoming data, and returns the stored result.
func (s *Store) Merge(collection, id string, data model.Record) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	existing, ok := target[id]
	if !ok {
		return nil, ErrEntryNotFound
	}

	record := model.AssignClean(existing.Clone(), data)
	record[model.FieldUpdatedOn] = nowMillis()
	target[id] = record
	return withID(record, id), nil
}

// Delete removes an entry. Deletion is physical; the returned record only
// carries the server time of deletion.
func (s *Store) Delete(collection, id string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	if _, ok := target[id]; !ok {
		return nil, ErrEntryNotFound
	}
	delete(target, id)
	return model.Record{model.FieldDeletedOn: nowMillis()}, nil
}

// Query returns all entries where every key of the predicate matches the
// entry's value for that key. String comparison is case-insensitive, other
// types use loose equality.
func (s *Store) Query(collection string, predicate model.Record) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	result := []model.Record{}
	for id, record := range target {
		if matches(record, predicate) {
			result = append(result, withID(record, id))
		}
	}
	return result, nil
}

func matches(record, predicate model.Record) bool {
	for key, want := range predicate {
		got, ok := record[key]
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares two JSON values the way the query contract requires:
// strings fold case, numbers compare by value regardless of original width.
func looseEqual(a, b any) bool {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.EqualFold(as, bs)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func withID(record model.Record, id string) model.Record {
	out := record.Clone()
	out[model.FieldID] = id
	return out
}

func nowMillis() int64 { return time.Now().UnixMilli() }
