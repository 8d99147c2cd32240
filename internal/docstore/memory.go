package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// MemoryStore keeps documents in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	closed      bool
}

type memCollection struct {
	order []string
	docs  map[string]Document
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

var _ Store = (*MemoryStore)(nil)

// Backend implements Store.
func (s *MemoryStore) Backend() types.Backend { return types.BackendMemory }

// collection returns the named collection, creating it on first write.
func (s *MemoryStore) collection(name string, create bool) *memCollection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &memCollection{docs: make(map[string]Document)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Find implements Store. Results keep insertion order.
func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := []Document{}
	c := s.collection(collection, false)
	if c == nil {
		return out, nil
	}
	for _, id := range c.order {
		if doc := c.docs[id]; matches(doc, f) {
			out = append(out, copyDocument(doc))
		}
	}
	return out, nil
}

// FindOne implements Store.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	if _, doc := s.first(collection, f); doc != nil {
		return copyDocument(doc), nil
	}
	return nil, ErrNotFound
}

// first returns the first matching document with its id. Caller holds mu.
func (s *MemoryStore) first(collection string, f Filter) (string, Document) {
	c := s.collection(collection, false)
	if c == nil {
		return "", nil
	}
	for _, id := range c.order {
		if doc := c.docs[id]; matches(doc, f) {
			return id, doc
		}
	}
	return "", nil
}

// Insert implements Store. A document without _id gets a fresh one.
func (s *MemoryStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	n, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}
	id := n.ID()
	if id == "" {
		id = types.NewID().String()
		n[IDField] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}

	c := s.collection(collection, true)
	if _, exists := c.docs[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.docs[id] = n
	c.order = append(c.order, id)
	return id, nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, collection string, filter Filter, set Document) (int64, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}
	fields, err := normalizeDocument(set)
	if err != nil {
		return 0, err
	}
	delete(fields, IDField)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	_, doc := s.first(collection, f)
	if doc == nil {
		return 0, nil
	}
	for k, v := range fields {
		doc[k] = v
	}
	return 1, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.remove(ctx, collection, filter, 1)
}

// DeleteMany implements Store.
func (s *MemoryStore) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.remove(ctx, collection, filter, -1)
}

func (s *MemoryStore) remove(ctx context.Context, collection string, filter Filter, limit int) (int64, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	c := s.collection(collection, false)
	if c == nil {
		return 0, nil
	}

	var removed int64
	kept := c.order[:0]
	for _, id := range c.order {
		if (limit < 0 || removed < int64(limit)) && matches(c.docs[id], f) {
			delete(c.docs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return removed, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	c := s.collection(collection, false)
	if c == nil {
		return 0, nil
	}
	var n int64
	for _, id := range c.order {
		if matches(c.docs[id], f) {
			n++
		}
	}
	return n, nil
}

// ListCollections implements Store.
func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return sortedNames(names), nil
}

// CreateCollection implements Store.
func (s *MemoryStore) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.collection(name, true)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
