// memory holds an in-process blobstore.Store, mostly useful for tests and ephemeral setups
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[blobstore.Path][]byte
}

// NewStore returns an empty in-memory Store
func NewStore() *Store {
	return &Store{blobs: make(map[blobstore.Path][]byte)}
}

func (s *Store) Get(ctx context.Context, path blobstore.Path) (*blobstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, blobstore.NotFound{Path: path}
	}
	return &blobstore.Object{Data: copyBytes(data), Revision: blobstore.RevisionOf(data)}, nil
}

func (s *Store) Put(ctx context.Context, path blobstore.Path, data []byte) (blobstore.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = copyBytes(data)
	return blobstore.RevisionOf(data), nil
}

func (s *Store) PutIf(ctx context.Context, path blobstore.Path, data []byte, expected blobstore.Revision) (blobstore.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.blobs[path]
	if expected == blobstore.Absent {
		if ok {
			return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: expected}
		}
	} else if !ok || blobstore.RevisionOf(existing) != expected {
		return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: expected}
	}
	s.blobs[path] = copyBytes(data)
	return blobstore.RevisionOf(data), nil
}

func (s *Store) Delete(ctx context.Context, path blobstore.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

func (s *Store) Head(ctx context.Context, path blobstore.Path) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok, nil
}

// List snapshots the matching paths before calling fn, so fn is free to modify the Store
func (s *Store) List(ctx context.Context, prefix blobstore.Path, fn func(path blobstore.Path) error) error {
	s.mu.RLock()
	var paths []blobstore.Path
	for p := range s.blobs {
		if strings.HasPrefix(string(p), string(prefix)) {
			paths = append(paths, p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Len returns the number of blobs held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
