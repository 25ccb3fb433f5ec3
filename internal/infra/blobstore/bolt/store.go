// bolt holds a blobstore.Store kept in a single embedded bbolt database file.
//
// All blobs live in one bucket, keyed by path. Conditional writes compare and write in the
// same read-write transaction, so they are atomic across goroutines.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

const backendName = "bolt"

// DefaultBucket is where blobs are kept unless configured otherwise
var DefaultBucket = []byte("blobs")

type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open creates or opens a bbolt database at the given path, waiting at most openTimeout
// for the file lock
func Open(path string, bucket string, openTimeout time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, wrap(fmt.Errorf("opening bolt db: %w", err))
	}
	b := DefaultBucket
	if len(bucket) != 0 {
		b = []byte(bucket)
	}
	return &Store{db: db, bucket: b}, nil
}

func (s *Store) Get(ctx context.Context, path blobstore.Path) (*blobstore.Object, error) {
	var obj *blobstore.Object
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(path))
		if v != nil {
			val := make([]byte, len(v))
			copy(val, v)
			obj = &blobstore.Object{Data: val, Revision: blobstore.RevisionOf(val)}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	if obj == nil {
		return nil, blobstore.NotFound{Path: path}
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, path blobstore.Path, data []byte) (blobstore.Revision, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return b.Put([]byte(path), data)
	})
	if err != nil {
		return blobstore.Absent, wrap(err)
	}
	return blobstore.RevisionOf(data), nil
}

func (s *Store) PutIf(ctx context.Context, path blobstore.Path, data []byte, expected blobstore.Revision) (blobstore.Revision, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		current := b.Get([]byte(path))
		switch {
		case current == nil && expected != blobstore.Absent:
			return blobstore.PreconditionFailed{Path: path, Expected: expected}
		case current != nil && (expected == blobstore.Absent || blobstore.RevisionOf(current) != expected):
			return blobstore.PreconditionFailed{Path: path, Expected: expected}
		}
		return b.Put([]byte(path), data)
	})
	if err != nil {
		if failed, ok := err.(blobstore.PreconditionFailed); ok {
			return blobstore.Absent, failed
		}
		return blobstore.Absent, wrap(err)
	}
	return blobstore.RevisionOf(data), nil
}

func (s *Store) Delete(ctx context.Context, path blobstore.Path) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(path))
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) Head(ctx context.Context, path blobstore.Path) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		exists = b.Get([]byte(path)) != nil
		return nil
	})
	if err != nil {
		return false, wrap(err)
	}
	return exists, nil
}

// List collects matching paths in a read transaction and only then calls fn, so fn can
// write to the Store without deadlocking.
func (s *Store) List(ctx context.Context, prefix blobstore.Path, fn func(path blobstore.Path) error) error {
	var paths []blobstore.Path
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		p := []byte(prefix)
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			paths = append(paths, blobstore.Path(k))
		}
		return nil
	})
	if err != nil {
		return wrap(err)
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func wrap(err error) error {
	return blobstore.BackendErr{Backend: backendName, Underlying: err}
}

// NewSetup returns a blobstore.Setup that makes sure the Store's bucket exists
func NewSetup(s *Store) blobstore.Setup {
	return &setup{store: s}
}

type setup struct {
	store *Store
}

func (s *setup) Check(ctx context.Context) error {
	exists := false
	err := s.store.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(s.store.bucket) != nil
		return nil
	})
	if err != nil {
		return wrap(err)
	}
	if !exists {
		return blobstore.NotSetUp{Reason: fmt.Sprintf("bucket [%s] does not exist", s.store.bucket)}
	}
	return nil
}

func (s *setup) Run(ctx context.Context) error {
	err := s.store.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.store.bucket)
		return err
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}
