// storetest holds behavioural tests that every blobstore.Store implementation must pass
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

// Run runs the whole suite, building a fresh Store per test with newStore
func Run(t *testing.T, newStore func(t *testing.T) blobstore.Store) {
	tests := []struct {
		name string
		run  func(t *testing.T, s blobstore.Store)
	}{
		{"get missing blob", testGetMissing},
		{"put then get", testPutThenGet},
		{"put overwrites", testPutOverwrites},
		{"put if absent", testPutIfAbsent},
		{"put if revision matches", testPutIfRevision},
		{"put if stale revision", testPutIfStale},
		{"put if concurrent writers", testPutIfConcurrent},
		{"delete is idempotent", testDelete},
		{"head", testHead},
		{"list by prefix", testList},
		{"list stops on error", testListStops},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.run(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s blobstore.Store) {
	_, err := s.Get(context.Background(), "nope/metadata.json")
	var notFound blobstore.NotFound
	assert.True(t, errors.As(err, &notFound))
	assert.EqualValues(t, "nope/metadata.json", notFound.Path)
}

func testPutThenGet(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	rev, err := s.Put(ctx, "a/b/c", []byte(`{"hello":"world"}`))
	assert.NoError(t, err)
	assert.NotEmpty(t, rev)

	obj, err := s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(obj.Data))
	assert.Equal(t, rev, obj.Revision)
}

func testPutOverwrites(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	first, err := s.Put(ctx, "a/b/c", []byte("one"))
	assert.NoError(t, err)
	second, err := s.Put(ctx, "a/b/c", []byte("two"))
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)

	obj, err := s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, "two", string(obj.Data))
}

func testPutIfAbsent(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	_, err := s.PutIf(ctx, "a/b/c", []byte("one"), blobstore.Absent)
	assert.NoError(t, err)

	_, err = s.PutIf(ctx, "a/b/c", []byte("two"), blobstore.Absent)
	var failed blobstore.PreconditionFailed
	assert.True(t, errors.As(err, &failed))

	obj, err := s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, "one", string(obj.Data))
}

func testPutIfRevision(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	rev, err := s.PutIf(ctx, "a/b/c", []byte("one"), blobstore.Absent)
	assert.NoError(t, err)

	obj, err := s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, rev, obj.Revision)

	newRev, err := s.PutIf(ctx, "a/b/c", []byte("two"), obj.Revision)
	assert.NoError(t, err)
	assert.NotEqual(t, rev, newRev)

	obj, err = s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, "two", string(obj.Data))
	assert.Equal(t, newRev, obj.Revision)
}

func testPutIfStale(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	stale, err := s.Put(ctx, "a/b/c", []byte("one"))
	assert.NoError(t, err)
	_, err = s.Put(ctx, "a/b/c", []byte("two"))
	assert.NoError(t, err)

	_, err = s.PutIf(ctx, "a/b/c", []byte("three"), stale)
	var failed blobstore.PreconditionFailed
	assert.True(t, errors.As(err, &failed))

	_, err = s.PutIf(ctx, "a/b/missing", []byte("three"), stale)
	assert.True(t, errors.As(err, &failed))

	obj, err := s.Get(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.Equal(t, "two", string(obj.Data))
}

func testPutIfConcurrent(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	rev, err := s.Put(ctx, "a/b/c", []byte("base"))
	assert.NoError(t, err)

	writers := 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.PutIf(ctx, "a/b/c", []byte(fmt.Sprintf("writer-%d", i)), rev); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func testDelete(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	_, err := s.Put(ctx, "a/b/c", []byte("one"))
	assert.NoError(t, err)

	assert.NoError(t, s.Delete(ctx, "a/b/c"))
	assert.NoError(t, s.Delete(ctx, "a/b/c"))
	assert.NoError(t, s.Delete(ctx, "never/existed"))

	_, err = s.Get(ctx, "a/b/c")
	var notFound blobstore.NotFound
	assert.True(t, errors.As(err, &notFound))
}

func testHead(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	exists, err := s.Head(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Put(ctx, "a/b/c", []byte("one"))
	assert.NoError(t, err)

	exists, err = s.Head(ctx, "a/b/c")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func testList(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	toWrite := []blobstore.Path{
		"app/dev/db/metadata.json",
		"app/dev/db/versions/v1/data.json",
		"app/dev/cache/metadata.json",
		"app/prod/db/metadata.json",
		"other/dev/db/metadata.json",
	}
	for _, p := range toWrite {
		_, err := s.Put(ctx, p, []byte("{}"))
		assert.NoError(t, err)
	}

	collect := func(prefix blobstore.Path) []string {
		var seen []string
		err := s.List(ctx, prefix, func(path blobstore.Path) error {
			seen = append(seen, string(path))
			return nil
		})
		assert.NoError(t, err)
		sort.Strings(seen)
		return seen
	}

	assert.Equal(t, []string{
		"app/dev/cache/metadata.json",
		"app/dev/db/metadata.json",
		"app/dev/db/versions/v1/data.json",
	}, collect("app/dev/"))
	assert.Len(t, collect(""), len(toWrite))
	assert.Empty(t, collect("nothing/"))
}

func testListStops(t *testing.T, s blobstore.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Put(ctx, blobstore.Join("x", fmt.Sprint(i)), []byte("{}"))
		assert.NoError(t, err)
	}
	stop := errors.New("stop")
	calls := 0
	err := s.List(ctx, "x/", func(path blobstore.Path) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}
