// backend picks and builds the blobstore.Store to use based on config
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/bolt"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/fs"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/memory"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/s3"
	esblob "github.com/openappconfig/openappconfig/internal/infra/elasticsearch/blob"
	"github.com/openappconfig/openappconfig/internal/infra/elasticsearch/common"
)

// New builds the configured Store along with the Setup that bootstraps it
func New(ctx context.Context, conf config.Storage) (blobstore.Store, blobstore.Setup, error) {
	log.Info().Str("backend", string(conf.Backend)).Msg("Building storage backend")
	switch conf.Backend {
	case config.MemoryBackend:
		return memory.NewStore(), blobstore.NoopSetup{}, nil
	case config.LocalBackend:
		return fs.NewStore(conf.Local.Path), fs.NewSetup(conf.Local.Path), nil
	case config.BoltBackend:
		store, err := bolt.Open(conf.Bolt.Path, conf.Bolt.Bucket, conf.Bolt.OpenTimeout)
		if err != nil {
			return nil, nil, err
		}
		return store, bolt.NewSetup(store), nil
	case config.S3Backend:
		client, err := s3.NewClient(ctx, conf.S3)
		if err != nil {
			return nil, nil, err
		}
		return s3.NewStore(client, conf.S3.Bucket, conf.S3.Prefix), s3.NewSetup(client, conf.S3.Bucket, conf.S3.Region), nil
	case config.ElasticsearchBackend:
		client, err := common.NewClient(conf.Elasticsearch.Client)
		if err != nil {
			return nil, nil, err
		}
		store := esblob.NewStore(client, conf.Elasticsearch)
		return store, esblob.NewSetup(client, store.IndexName()), nil
	default:
		return nil, nil, UnknownBackend{Backend: conf.Backend}
	}
}

type UnknownBackend struct {
	Backend config.Backend
}

func (e UnknownBackend) Error() string {
	return fmt.Sprintf("Unknown storage backend [%s], expected one of %v", e.Backend, []config.Backend{
		config.MemoryBackend,
		config.LocalBackend,
		config.BoltBackend,
		config.S3Backend,
		config.ElasticsearchBackend,
	})
}
