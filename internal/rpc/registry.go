package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/buildtrack/buildtrack/internal/metrics"
)

// maxSuggestDistance bounds how far a typo may be from a known operation.
const maxSuggestDistance = 3

// Handler serves one operation.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Registry maps operation names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics, logger zerolog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		metrics:  m,
		logger:   logger,
	}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Operations returns the registered names in sorted order.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suggest returns the registered name closest to op, or "" when nothing
// is close enough.
func (r *Registry) Suggest(op string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, name := range r.Operations() {
		if d := levenshtein.ComputeDistance(op, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// Dispatch runs the handler for op. It never returns an error: failures,
// unknown operations and handler panics all become failed results.
func (r *Registry) Dispatch(ctx context.Context, op string, payload json.RawMessage) (res Result) {
	r.mu.RLock()
	h, ok := r.handlers[op]
	r.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w %q", ErrUnknownOperation, op)
		if s := r.Suggest(op); s != "" {
			err = fmt.Errorf("%w (did you mean %q?)", err, s)
		}
		r.logger.Warn().Str("operation", op).Msg("unknown operation")
		r.metrics.ObserveRequest("unknown", metrics.OutcomeUnknown, 0)
		return Fail(err)
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("operation", op).Interface("panic", p).Msg("handler panicked")
			res = Fail(fmt.Errorf("internal error in %s: %v", op, p))
		}

		outcome := metrics.OutcomeSuccess
		if !res.Success {
			outcome = metrics.OutcomeFailure
		}
		r.metrics.ObserveRequest(op, outcome, time.Since(start))
	}()

	data, err := h(ctx, payload)
	if err != nil {
		r.logger.Warn().Err(err).Str("operation", op).Msg("operation failed")
		return Fail(err)
	}
	return OK(data)
}
