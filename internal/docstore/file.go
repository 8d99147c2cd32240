package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// dirLockName is the lock guarding a data directory; the file on disk is
// dirLockName + ".lock".
const dirLockName = "buildtrack"

// FileStore keeps one JSON file per document:
//
//	<basePath>/<collection>/<id>.json
//
// Writes go to a temp file and are renamed into place. Directory listing
// order equals id order, which for ULIDs is creation order.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
	locks    map[string]*FileLock
	dirLock  *FileLock
	closed   bool
}

var _ Store = (*FileStore)(nil)

// OpenFile opens (creating if needed) a file store rooted at basePath.
// Only one FileStore may hold a directory at a time.
func OpenFile(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dirLock := NewFileLock(filepath.Join(basePath, dirLockName))
	if err := dirLock.TryLock(); err != nil {
		return nil, err
	}

	return &FileStore{
		basePath: basePath,
		locks:    make(map[string]*FileLock),
		dirLock:  dirLock,
	}, nil
}

// Backend implements Store.
func (s *FileStore) Backend() types.Backend { return types.BackendFile }

// Path returns the root directory.
func (s *FileStore) Path() string { return s.basePath }

func (s *FileStore) collectionDir(collection string) (string, error) {
	if !validName(collection) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return filepath.Join(s.basePath, collection), nil
}

func (s *FileStore) documentPath(collection, id string) (string, error) {
	dir, err := s.collectionDir(collection)
	if err != nil {
		return "", err
	}
	if !validName(id) {
		return "", fmt.Errorf("invalid document id %q", id)
	}
	return filepath.Join(dir, id+".json"), nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func (s *FileStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// scan calls fn for every document of a collection in id order until fn
// returns false. Caller holds mu.
func (s *FileStore) scan(collection string, fn func(doc Document) bool) error {
	dir, err := s.collectionDir(collection)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read file: %w", err)
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		if doc.ID() == "" {
			doc[IDField] = strings.TrimSuffix(name, ".json")
		}
		if !fn(doc) {
			break
		}
	}
	return nil
}

// put writes a document with file locking. Caller holds mu.
func (s *FileStore) put(collection string, doc Document) error {
	filePath, err := s.documentPath(collection, doc.ID())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock := s.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// remove deletes a document file. Caller holds mu.
func (s *FileStore) remove(collection, id string) error {
	filePath, err := s.documentPath(collection, id)
	if err != nil {
		return err
	}

	lock := s.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *FileStore) getLock(filePath string) *FileLock {
	lock, ok := s.locks[filePath]
	if !ok {
		lock = NewFileLock(filePath)
		s.locks[filePath] = lock
	}
	return lock
}

// Find implements Store.
func (s *FileStore) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
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
	err = s.scan(collection, func(doc Document) bool {
		if matches(doc, f) {
			out = append(out, doc)
		}
		return true
	})
	return out, err
}

// FindOne implements Store.
func (s *FileStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	found, err := s.first(collection, f)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *FileStore) first(collection string, f Filter) (Document, error) {
	// Fast path for id lookups.
	if id, ok := f[IDField].(string); ok && validName(id) {
		filePath, err := s.documentPath(collection, id)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal: %w", err)
		}
		if doc.ID() == "" {
			doc[IDField] = id
		}
		if matches(doc, f) {
			return doc, nil
		}
		return nil, nil
	}

	var found Document
	err := s.scan(collection, func(doc Document) bool {
		if matches(doc, f) {
			found = doc
			return false
		}
		return true
	})
	return found, err
}

// Insert implements Store. A document without _id gets a fresh one.
func (s *FileStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	n, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}
	if n.ID() == "" {
		n[IDField] = types.NewID().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}

	filePath, err := s.documentPath(collection, n.ID())
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, n.ID())
	}
	if err := s.put(collection, n); err != nil {
		return "", err
	}
	return n.ID(), nil
}

// Update implements Store.
func (s *FileStore) Update(ctx context.Context, collection string, filter Filter, set Document) (int64, error) {
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

	doc, err := s.first(collection, f)
	if err != nil || doc == nil {
		return 0, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	if err := s.put(collection, doc); err != nil {
		return 0, err
	}
	return 1, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.deleteMatching(ctx, collection, filter, 1)
}

// DeleteMany implements Store.
func (s *FileStore) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.deleteMatching(ctx, collection, filter, -1)
}

func (s *FileStore) deleteMatching(ctx context.Context, collection string, filter Filter, limit int) (int64, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	var ids []string
	err = s.scan(collection, func(doc Document) bool {
		if matches(doc, f) {
			ids = append(ids, doc.ID())
		}
		return limit < 0 || len(ids) < limit
	})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := s.remove(collection, id); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

// Count implements Store.
func (s *FileStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	docs, err := s.Find(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// ListCollections implements Store.
func (s *FileStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return sortedNames(names), nil
}

// CreateCollection implements Store.
func (s *FileStore) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	dir, err := s.collectionDir(name)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Close releases the directory lock.
func (s *FileStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dirLock.Unlock()
}
