package docstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a constructor per implementation under test. The mongo
// backend joins when BUILDTRACK_TEST_MONGO_URI points at a server.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"file": func(t *testing.T) Store {
			s, err := OpenFile(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
	if uri := os.Getenv("BUILDTRACK_TEST_MONGO_URI"); uri != "" {
		b["mongo"] = func(t *testing.T) Store {
			ctx := context.Background()
			db := "buildtrack_test_" + types.NewID().String()
			s, err := OpenMongo(ctx, uri, db, 2*time.Second)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.db.Drop(ctx) })
			return s
		}
	}
	return b
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close(context.Background())
			fn(t, s)
		})
	}
}

func TestStore_InsertFind(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		id, err := s.Insert(ctx, Workers, Document{"_id": "w1", "projectId": "p1", "name": "Ravi", "dailyWage": 500})
		require.NoError(t, err)
		assert.Equal(t, "w1", id)

		_, err = s.Insert(ctx, Workers, Document{"_id": "w2", "projectId": "p2", "name": "Anil"})
		require.NoError(t, err)

		docs, err := s.Find(ctx, Workers, Filter{"projectId": "p1"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Ravi", docs[0]["name"])
		assert.Equal(t, float64(500), docs[0]["dailyWage"], "numbers come back as float64")

		all, err := s.Find(ctx, Workers, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		none, err := s.Find(ctx, Workers, Filter{"projectId": "missing"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestStore_InsertAssignsID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		id, err := s.Insert(ctx, Expenses, Document{"amount": 300})
		require.NoError(t, err)
		_, err = types.ParseID(id)
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, Expenses, Filter{"_id": id})
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID())
	})
}

func TestStore_InsertDuplicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Projects, Document{"_id": "p1"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, Projects, Document{"_id": "p1"})
		assert.ErrorIs(t, err, ErrDuplicateID)
	})
}

func TestStore_FindOne(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Users, Document{"_id": "u1", "username": "admin", "password": "admin123"})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, Users, Filter{"username": "admin", "password": "admin123"})
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.ID())

		_, err = s.FindOne(ctx, Users, Filter{"username": "admin", "password": "wrong"})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.FindOne(ctx, Users, Filter{"_id": "nope"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_UpdateSetSemantics(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Materials, Document{"_id": "m1", "name": "Cement", "quantity": 10, "unit": "bags"})
		require.NoError(t, err)

		n, err := s.Update(ctx, Materials, Filter{"_id": "m1"}, Document{"quantity": 25, "supplier": "Acme"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		doc, err := s.FindOne(ctx, Materials, Filter{"_id": "m1"})
		require.NoError(t, err)
		assert.Equal(t, float64(25), doc["quantity"])
		assert.Equal(t, "Acme", doc["supplier"])
		assert.Equal(t, "bags", doc["unit"], "fields outside the set are kept")
		assert.Equal(t, "Cement", doc["name"])

		n, err = s.Update(ctx, Materials, Filter{"_id": "missing"}, Document{"quantity": 1})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestStore_UpdateIgnoresID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Projects, Document{"_id": "p1", "name": "A"})
		require.NoError(t, err)

		_, err = s.Update(ctx, Projects, Filter{"_id": "p1"}, Document{"_id": "p2", "name": "B"})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, Projects, Filter{"_id": "p1"})
		require.NoError(t, err)
		assert.Equal(t, "B", doc["name"])
	})
}

func TestStore_Delete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, id := range []string{"e1", "e2", "e3"} {
			_, err := s.Insert(ctx, Equipment, Document{"_id": id, "projectId": "p1"})
			require.NoError(t, err)
		}

		n, err := s.Delete(ctx, Equipment, Filter{"_id": "e2"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.Delete(ctx, Equipment, Filter{"_id": "e2"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n, "deleting a missing id is not an error")

		n, err = s.Delete(ctx, Equipment, Filter{"projectId": "p1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "Delete removes only the first match")

		count, err := s.Count(ctx, Equipment, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestStore_DeleteMany(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for i, project := range []string{"p1", "p1", "p2"} {
			_, err := s.Insert(ctx, Expenses, Document{"_id": []string{"x1", "x2", "x3"}[i], "projectId": project})
			require.NoError(t, err)
		}

		n, err := s.DeleteMany(ctx, Expenses, Filter{"projectId": "p1"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := s.Find(ctx, Expenses, nil)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "x3", left[0].ID())
	})
}

func TestStore_Count(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		n, err := s.Count(ctx, Users, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		_, err = s.Insert(ctx, Users, Document{"role": "admin"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, Users, Document{"role": "viewer"})
		require.NoError(t, err)

		n, err = s.Count(ctx, Users, Filter{"role": "admin"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestStore_Collections(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.CreateCollection(ctx, Projects))

		names, err := s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, Projects)
	})
}

func TestStore_ReturnedDocumentsAreCopies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Workers, Document{"_id": "w1", "tools": []string{"trowel"}})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, Workers, Filter{"_id": "w1"})
		require.NoError(t, err)
		doc["name"] = "mutated"
		doc["tools"].([]any)[0] = "hammer"

		again, err := s.FindOne(ctx, Workers, Filter{"_id": "w1"})
		require.NoError(t, err)
		assert.NotContains(t, again, "name")
		assert.Equal(t, []any{"trowel"}, again["tools"])
	})
}

func TestStore_TypedFilterValues(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Insert(ctx, Workers, Document{"_id": "w1", "projectId": "p1"})
		require.NoError(t, err)

		docs, err := s.Find(ctx, Workers, Filter{"projectId": types.ID("p1")})
		require.NoError(t, err)
		assert.Len(t, docs, 1, "typed ids compare equal to stored strings")
	})
}

func TestStore_Closed(t *testing.T) {
	for _, s := range []Store{NewMemory(), mustOpenFile(t)} {
		ctx := context.Background()
		require.NoError(t, s.Close(ctx))

		_, err := s.Find(ctx, Projects, nil)
		assert.True(t, errors.Is(err, ErrClosed), "%s: %v", s.Backend(), err)
		_, err = s.Insert(ctx, Projects, Document{})
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func mustOpenFile(t *testing.T) *FileStore {
	t.Helper()
	s, err := OpenFile(t.TempDir())
	require.NoError(t, err)
	return s
}
