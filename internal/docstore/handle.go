package docstore

import (
	"context"
	"sync"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// Handle holds the store currently serving requests. The supervisor swaps
// it when the storage directory changes; everything else only reads it.
type Handle struct {
	mu    sync.RWMutex
	store Store
}

// NewHandle returns an empty handle. Store fails with ErrUninitialized
// until Swap is called.
func NewHandle() *Handle {
	return &Handle{}
}

// Store returns the current store.
func (h *Handle) Store() (Store, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.store == nil {
		return nil, ErrUninitialized
	}
	return h.store, nil
}

// Swap installs s and returns the previous store, which the caller owns.
// Passing nil empties the handle.
func (h *Handle) Swap(s Store) Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.store
	h.store = s
	return prev
}

// Backend names the current backend, or "" when empty.
func (h *Handle) Backend() types.Backend {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.store == nil {
		return ""
	}
	return h.store.Backend()
}

// Close empties the handle and closes the store it held.
func (h *Handle) Close(ctx context.Context) error {
	if prev := h.Swap(nil); prev != nil {
		return prev.Close(ctx)
	}
	return nil
}
