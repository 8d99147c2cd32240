package docstore

import (
	"context"
	"errors"

	"github.com/buildtrack/buildtrack/pkg/types"
)

var (
	// ErrNotFound is returned by FindOne when nothing matches.
	ErrNotFound = errors.New("document not found")
	// ErrUninitialized is returned by a Handle that has no store yet.
	ErrUninitialized = errors.New("document store not initialized")
	// ErrUnreachable is returned when the database service cannot be contacted.
	ErrUnreachable = errors.New("document store unreachable")
	// ErrLocked is returned when another process holds a file store directory.
	ErrLocked = errors.New("data directory is locked by another process")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("document store closed")
	// ErrDuplicateID is returned by Insert when the _id is taken.
	ErrDuplicateID = errors.New("duplicate document id")
)

// Collection names.
const (
	Users     = "users"
	Projects  = "projects"
	Workers   = "workers"
	Materials = "materials"
	Equipment = "equipment"
	Expenses  = "expenses"
	Config    = "config"
)

// Collections lists every collection the application uses.
var Collections = []string{Users, Projects, Workers, Materials, Equipment, Expenses, Config}

// IDField is the key of a document's identifier.
const IDField = "_id"

// Store is the query surface every backend implements.
//
// Filters match by equality on top-level fields. Update applies set
// semantics to the first matching document; Delete removes the first
// matching document. Both report how many documents they touched.
type Store interface {
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	Update(ctx context.Context, collection string, filter Filter, set Document) (int64, error)
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)

	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error

	// Backend names the implementation.
	Backend() types.Backend
	Close(ctx context.Context) error
}
