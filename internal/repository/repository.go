package repository

import (
	"context"
	"errors"
	"time"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// Source resolves the store serving the current request.
// *docstore.Handle implements it.
type Source interface {
	Store() (docstore.Store, error)
}

// Repository is the typed data access layer.
type Repository struct {
	src Source
	now func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New creates a repository reading from src.
func New(src Source, opts ...Option) *Repository {
	r := &Repository{src: src, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) store() (docstore.Store, error) {
	return r.src.Store()
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC()
}

// get loads one record by id; a miss is (nil, nil).
func get[T any](ctx context.Context, st docstore.Store, collection string, id types.ID) (*T, error) {
	doc, err := st.FindOne(ctx, collection, docstore.ByID(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v T
	if err := docstore.Decode(doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](ctx context.Context, st docstore.Store, collection string, filter docstore.Filter) ([]T, error) {
	docs, err := st.Find(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[T](docs)
}

func insert(ctx context.Context, st docstore.Store, collection string, v any) error {
	doc, err := docstore.Encode(v)
	if err != nil {
		return err
	}
	_, err = st.Insert(ctx, collection, doc)
	return err
}

// update applies set to the record and re-reads it. A missing record is (nil, nil).
func update[T any](ctx context.Context, st docstore.Store, collection string, id types.ID, set docstore.Document) (*T, error) {
	n, err := st.Update(ctx, collection, docstore.ByID(id), set)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return get[T](ctx, st, collection, id)
}

// patchSet encodes the non-nil fields of a patch plus the update stamp.
func (r *Repository) patchSet(patch any) (docstore.Document, error) {
	set, err := docstore.Encode(patch)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = r.timestamp()
	return set, nil
}

func remove(ctx context.Context, st docstore.Store, collection string, id types.ID) (int64, error) {
	return st.Delete(ctx, collection, docstore.ByID(id))
}

func byProject(id types.ID) docstore.Filter {
	return docstore.Filter{"projectId": id.String()}
}

// requireProject fails with ErrProjectNotFound unless the project exists.
func requireProject(ctx context.Context, st docstore.Store, id types.ID) error {
	n, err := st.Count(ctx, docstore.Projects, docstore.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}
