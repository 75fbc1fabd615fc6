package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/model"
	"github.com/lostpaws/pawserver/internal/store"
)

// JSONStore is a free-form JSON tree addressed by URL path segments. It has
// no rules, no reserved fields and no ties to the collection store; it exists
// for clients that want to read and poke arbitrary nested data.
type JSONStore struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewJSONStore returns an empty tree.
func NewJSONStore() *JSONStore {
	return &JSONStore{data: map[string]any{}}
}

// JSONStoreFromSeed builds a tree from a directory seed: each collection
// becomes a top-level branch keyed by entry id.
func JSONStoreFromSeed(seed store.Seed) *JSONStore {
	js := NewJSONStore()
	for name, entries := range seed {
		branch := map[string]any{}
		for id, record := range entries {
			branch[id] = map[string]any(record.Clone())
		}
		js.data[name] = branch
	}
	return js
}

// Get walks the path and returns the value there. found is false when any
// segment is missing, which callers report as an empty 204 response.
func (j *JSONStore) Get(path []string) (value any, found bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	node, ok := j.walk(path)
	if !ok {
		return nil, false
	}
	return model.DeepCopy(node), true
}

// Post stores a new entry under the path, creating intermediate branches as
// needed. The entry gets a generated _id and is keyed by it.
func (j *JSONStore) Post(path []string, body map[string]any) (map[string]any, error) {
	if body == nil {
		return nil, errs.Request()
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	branch, err := j.branch(path)
	if err != nil {
		return nil, err
	}
	entry := model.DeepCopy(body).(map[string]any)
	id := uuid.NewString()
	entry[model.FieldID] = id
	branch[id] = entry
	return model.DeepCopy(entry).(map[string]any), nil
}

// Put replaces the value at the path. The path must already lead to a value.
func (j *JSONStore) Put(path []string, body any) (any, error) {
	if len(path) == 0 || body == nil {
		return nil, errs.Request()
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	parent, ok := j.walk(path[:len(path)-1])
	if !ok {
		return nil, errs.NotFound()
	}
	branch, ok := parent.(map[string]any)
	if !ok {
		return nil, errs.NotFound()
	}
	key := path[len(path)-1]
	if _, ok := branch[key]; !ok {
		return nil, errs.NotFound()
	}
	branch[key] = model.DeepCopy(body)
	return model.DeepCopy(body), nil
}

// Patch shallow-merges the body into the object at the path.
func (j *JSONStore) Patch(path []string, body map[string]any) (any, error) {
	if body == nil {
		return nil, errs.Request()
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	node, ok := j.walk(path)
	if !ok {
		return nil, errs.NotFound()
	}
	target, ok := node.(map[string]any)
	if !ok {
		return nil, errs.Request()
	}
	for k, v := range body {
		target[k] = model.DeepCopy(v)
	}
	return model.DeepCopy(target), nil
}

// Delete removes the value at the path and returns what was there, or nil
// when the path led nowhere.
func (j *JSONStore) Delete(path []string) any {
	if len(path) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	parent, ok := j.walk(path[:len(path)-1])
	if !ok {
		return nil
	}
	branch, ok := parent.(map[string]any)
	if !ok {
		return nil
	}
	key := path[len(path)-1]
	prior, ok := branch[key]
	if !ok {
		return nil
	}
	delete(branch, key)
	return prior
}

// walk follows the path through the tree. Callers hold the lock.
func (j *JSONStore) walk(path []string) (any, bool) {
	var node any = j.data
	for _, token := range path {
		branch, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = branch[token]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// branch walks the path, creating missing object branches, and returns the
// object at its end. Fails when the path crosses a non-object value.
func (j *JSONStore) branch(path []string) (map[string]any, error) {
	node := j.data
	for _, token := range path {
		next, ok := node[token]
		if !ok {
			created := map[string]any{}
			node[token] = created
			node = created
			continue
		}
		branch, ok := next.(map[string]any)
		if !ok {
			return nil, errs.Request()
		}
		node = branch
	}
	return node, nil
}
