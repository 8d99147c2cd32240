package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Options selects and configures a backend.
type Options struct {
	Backend types.Backend

	// Dir is the data directory of the file backend.
	Dir string

	// URI and Database address the mongo backend.
	URI      string
	Database string

	// ConnectTimeout bounds each mongo connection attempt.
	ConnectTimeout time.Duration
	// RetryFor keeps retrying a failed mongo connection for this long.
	RetryFor time.Duration

	// FallbackToMemory returns a MemoryStore when mongo stays unreachable.
	FallbackToMemory bool

	Logger zerolog.Logger
}

// Open returns an initialized store for opts.
//
// The backend is chosen by opts.Backend. The only implicit substitution is
// the memory fallback, which happens when mongo is unreachable and
// FallbackToMemory is set; it is logged and visible through Backend().
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)

	switch opts.Backend {
	case types.BackendMemory, "":
		s = NewMemory()
	case types.BackendFile:
		s, err = OpenFile(opts.Dir)
	case types.BackendMongo:
		s, err = connectMongo(ctx, opts)
		if err != nil && errors.Is(err, ErrUnreachable) && opts.FallbackToMemory {
			opts.Logger.Warn().Err(err).Msg("mongo unreachable, falling back to in-memory store; data will not persist")
			s, err = NewMemory(), nil
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := Initialize(ctx, s); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("initialize %s store: %w", s.Backend(), err)
	}
	return s, nil
}

// connectMongo retries OpenMongo with exponential backoff. A freshly
// launched mongod may take a moment to accept connections even after it
// logged readiness.
func connectMongo(ctx context.Context, opts Options) (*MongoStore, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = opts.RetryFor

	var store *MongoStore
	attempt := 0
	op := func() error {
		attempt++
		s, err := OpenMongo(ctx, opts.URI, opts.Database, opts.ConnectTimeout)
		if err != nil {
			if !errors.Is(err, ErrUnreachable) {
				return backoff.Permanent(err)
			}
			opts.Logger.Debug().Err(err).Int("attempt", attempt).Msg("mongo not ready")
			return err
		}
		store = s
		return nil
	}

	var policy backoff.BackOff = b
	if opts.RetryFor <= 0 {
		policy = &backoff.StopBackOff{}
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return store, nil
}
