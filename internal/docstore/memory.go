package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type memoryCollection struct {
	order []string
	docs  map[string][]byte
}

// MemoryStore keeps documents as encoded JSON in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*memoryCollection{}}
}

func (m *MemoryStore) Get(ctx context.Context, docPath string) (Document, error) {
	coll, id, err := Split(docPath)
	if err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.collections[coll]
	if c == nil || c.docs[id] == nil {
		return Document{}, errors.Wrap(ErrNotFound, docPath)
	}
	data, err := Decode(c.docs[id])
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (m *MemoryStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.collections[coll]
	if c == nil {
		return []Document{}, nil
	}
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		data, err := Decode(c.docs[id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, nil
}

func (m *MemoryStore) Add(ctx context.Context, collectionPath string, data map[string]any) (string, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return "", err
	}
	raw, err := Encode(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(coll, id, raw)
	return id, nil
}

func (m *MemoryStore) Set(ctx context.Context, docPath string, data map[string]any) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	raw, err := Encode(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(coll, id, raw)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, docPath string, data map[string]any) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collections[coll]
	if c == nil || c.docs[id] == nil {
		return errors.Wrap(ErrNotFound, docPath)
	}
	raw, err := applyUpdate(c.docs[id], data)
	if err != nil {
		return err
	}
	c.docs[id] = raw
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, docPath string) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collections[coll]
	if c == nil || c.docs[id] == nil {
		return errors.Wrap(ErrNotFound, docPath)
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Increment(ctx context.Context, docPath, field string, delta int64) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collections[coll]
	if c == nil || c.docs[id] == nil {
		return errors.Wrap(ErrNotFound, docPath)
	}
	raw, err := incrementJSON(c.docs[id], field, delta)
	if err != nil {
		return err
	}
	c.docs[id] = raw
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) put(coll, id string, raw []byte) {
	c := m.collections[coll]
	if c == nil {
		c = &memoryCollection{docs: map[string][]byte{}}
		m.collections[coll] = c
	}
	if c.docs[id] == nil {
		c.order = append(c.order, id)
	}
	c.docs[id] = raw
}

// incrementJSON adds delta to the number at a dotted field path, creating the
// field when missing.
func incrementJSON(raw []byte, field string, delta int64) ([]byte, error) {
	current := gjson.GetBytes(raw, field)
	if current.Exists() && current.Type != gjson.Number {
		return nil, errors.Errorf("field %s is not numeric", field)
	}
	updated, err := sjson.SetBytes(raw, field, current.Int()+delta)
	if err != nil {
		return nil, errors.Wrapf(err, "increment %s", field)
	}
	return updated, nil
}
