// fs holds a blobstore.Store backed by a directory on the local filesystem.
//
// Paths map onto files under the root directory. Writes go to a uniquely named temporary
// file first and are then renamed into place, so readers never see partial blobs.
package fs

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

const backendName = "local"
const tmpSuffix = ".tmp"

type Store struct {
	root string
	// serialises conditional writes within this process
	casLock sync.Mutex
}

// NewStore returns a Store rooted at the given directory. The directory is not created
// here; see NewSetup.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Get(ctx context.Context, p blobstore.Path) (*blobstore.Object, error) {
	data, err := os.ReadFile(s.filePath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blobstore.NotFound{Path: p}
		}
		return nil, wrap(err)
	}
	return &blobstore.Object{Data: data, Revision: blobstore.RevisionOf(data)}, nil
}

func (s *Store) Put(ctx context.Context, p blobstore.Path, data []byte) (blobstore.Revision, error) {
	if err := s.write(p, data); err != nil {
		return blobstore.Absent, err
	}
	return blobstore.RevisionOf(data), nil
}

func (s *Store) PutIf(ctx context.Context, p blobstore.Path, data []byte, expected blobstore.Revision) (blobstore.Revision, error) {
	s.casLock.Lock()
	defer s.casLock.Unlock()

	current, err := s.Get(ctx, p)
	switch err.(type) {
	case nil:
		if expected == blobstore.Absent || current.Revision != expected {
			return blobstore.Absent, blobstore.PreconditionFailed{Path: p, Expected: expected}
		}
	case blobstore.NotFound:
		if expected != blobstore.Absent {
			return blobstore.Absent, blobstore.PreconditionFailed{Path: p, Expected: expected}
		}
	default:
		return blobstore.Absent, err
	}
	return s.Put(ctx, p, data)
}

func (s *Store) Delete(ctx context.Context, p blobstore.Path) error {
	if err := os.Remove(s.filePath(p)); err != nil && !os.IsNotExist(err) {
		return wrap(err)
	}
	return nil
}

func (s *Store) Head(ctx context.Context, p blobstore.Path) (bool, error) {
	info, err := os.Stat(s.filePath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrap(err)
	}
	return !info.IsDir(), nil
}

func (s *Store) List(ctx context.Context, prefix blobstore.Path, fn func(p blobstore.Path) error) error {
	walkFrom := s.root
	if prefixStr := string(prefix); len(prefixStr) != 0 {
		dir := prefixStr
		if !strings.HasSuffix(prefixStr, "/") {
			dir = path.Dir(prefixStr)
		}
		walkFrom = filepath.Join(s.root, filepath.FromSlash(dir))
	}
	if rel, err := filepath.Rel(s.root, walkFrom); err != nil || escapesRoot(rel) {
		return wrap(fmt.Errorf("prefix [%v] is outside of the store root", prefix))
	}
	if _, err := os.Stat(walkFrom); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(walkFrom, func(filePath string, d iofs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return wrap(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), tmpSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, filePath)
		if err != nil {
			return wrap(err)
		}
		p := blobstore.Path(filepath.ToSlash(rel))
		if !strings.HasPrefix(string(p), string(prefix)) {
			return nil
		}
		return fn(p)
	})
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) filePath(p blobstore.Path) string {
	return filepath.Join(s.root, filepath.FromSlash(string(p)))
}

func (s *Store) write(p blobstore.Path, data []byte) error {
	target := s.filePath(p)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return wrap(err)
	}
	tmp := fmt.Sprintf("%s.%s%s", target, uuid.New().String(), tmpSuffix)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return wrap(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return wrap(err)
	}
	return nil
}

func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}

func wrap(err error) error {
	return blobstore.BackendErr{Backend: backendName, Underlying: err}
}

// NewSetup returns a blobstore.Setup that makes sure the root directory exists
func NewSetup(root string) blobstore.Setup {
	return &setup{root: root}
}

type setup struct {
	root string
}

func (s *setup) Check(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return blobstore.NotSetUp{Reason: fmt.Sprintf("directory [%s] does not exist", s.root)}
		}
		return wrap(err)
	}
	if !info.IsDir() {
		return wrap(fmt.Errorf("[%s] is not a directory", s.root))
	}
	return nil
}

func (s *setup) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return wrap(err)
	}
	return nil
}
