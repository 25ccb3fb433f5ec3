//go:build integration
// +build integration

package integration_tests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/configuration"
	"github.com/openappconfig/openappconfig/internal/infra/elasticsearch/blob"
	"github.com/openappconfig/openappconfig/internal/infra/server"
	"github.com/openappconfig/openappconfig/internal/infra/storage"
)

func Test_Server_Setup(t *testing.T) {
	store := blob.NewStore(esClient, config.ElasticsearchStorage{Index: ".server_setup_test"})
	setup := server.NewSetup(blob.NewSetup(esClient, store.IndexName()))

	err := setup.Check(ctx)
	assert.Error(t, err)

	err = setup.RunIfNeeded(ctx)
	assert.NoError(t, err)

	err = setup.Check(ctx)
	assert.NoError(t, err)
}

func Test_Server_ConfigurationsOnElasticsearch(t *testing.T) {
	store := blob.NewStore(esClient, config.ElasticsearchStorage{Index: freshIndexName()})
	service := storage.NewService(store, config.Engine{VersionConflictRetryTimes: 3})
	key := configuration.Key{Application: "app", Environment: "dev", ConfigName: "db"}

	v1, err := service.Put(ctx, key, &configuration.Document{
		Content: json.RawMessage(`{"host":"localhost"}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	}, nil)
	assert.NoError(t, err)
	assert.EqualValues(t, "v1", v1)

	v2, err := service.Put(ctx, key, &configuration.Document{
		Content: json.RawMessage(`{"host":"db.internal"}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	}, &v1)
	assert.NoError(t, err)
	assert.EqualValues(t, "v2", v2)

	_, err = service.Put(ctx, key, &configuration.Document{
		Content: json.RawMessage(`{"host":"stale"}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	}, &v1)
	assert.IsType(t, configuration.VersionConflict{}, err)

	current, err := service.Get(ctx, key)
	assert.NoError(t, err)
	assert.EqualValues(t, "v2", current.Version)
	assert.JSONEq(t, `{"host":"db.internal"}`, string(current.Content))

	keys, err := service.List(ctx, "app/")
	assert.NoError(t, err)
	assert.True(t, keys.Contains(key))

	deleted, err := service.DeleteEnvironment(ctx, "app", "dev")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = service.Get(ctx, key)
	assert.IsType(t, configuration.NotFound{}, err)
}
