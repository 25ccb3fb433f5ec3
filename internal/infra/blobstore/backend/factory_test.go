package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/bolt"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/fs"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/memory"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/s3"
	esblob "github.com/openappconfig/openappconfig/internal/infra/elasticsearch/blob"
)

var ctx = context.Background()

func TestNew(t *testing.T) {
	dir := t.TempDir()
	endpoint := "http://localhost:9000"
	tests := []struct {
		name    string
		conf    config.Storage
		check   func(t *testing.T, store blobstore.Store)
		wantErr bool
	}{
		{
			name: "memory",
			conf: config.Storage{Backend: config.MemoryBackend},
			check: func(t *testing.T, store blobstore.Store) {
				assert.IsType(t, &memory.Store{}, store)
			},
		},
		{
			name: "local",
			conf: config.Storage{Backend: config.LocalBackend, Local: config.LocalStorage{Path: dir}},
			check: func(t *testing.T, store blobstore.Store) {
				assert.IsType(t, &fs.Store{}, store)
			},
		},
		{
			name: "bolt",
			conf: config.Storage{Backend: config.BoltBackend, Bolt: config.BoltStorage{Path: filepath.Join(dir, "blobs.db")}},
			check: func(t *testing.T, store blobstore.Store) {
				assert.IsType(t, &bolt.Store{}, store)
			},
		},
		{
			name: "s3",
			conf: config.Storage{Backend: config.S3Backend, S3: config.S3Storage{Bucket: "configs", Region: "us-east-1", Endpoint: &endpoint, AllowHttp: true}},
			check: func(t *testing.T, store blobstore.Store) {
				assert.IsType(t, &s3.Store{}, store)
			},
		},
		{
			name:    "s3 over plain http",
			conf:    config.Storage{Backend: config.S3Backend, S3: config.S3Storage{Bucket: "configs", Region: "us-east-1", Endpoint: &endpoint}},
			wantErr: true,
		},
		{
			name: "elasticsearch",
			conf: config.Storage{Backend: config.ElasticsearchBackend, Elasticsearch: config.ElasticsearchStorage{Client: config.ElasticsearchClient{Addresses: []string{"http://localhost:9200"}}}},
			check: func(t *testing.T, store blobstore.Store) {
				assert.IsType(t, &esblob.EsStore{}, store)
			},
		},
		{
			name:    "unknown",
			conf:    config.Storage{Backend: "floppy"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, setup, err := New(ctx, tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, setup)
			tt.check(t, store)
			assert.NoError(t, store.Close())
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, _, err := New(ctx, config.Storage{Backend: "floppy"})
	assert.Equal(t, UnknownBackend{Backend: "floppy"}, err)
	assert.Contains(t, err.Error(), "elasticsearch")
}
