package configuration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/api/models/configuration"
	domainConfiguration "github.com/openappconfig/openappconfig/internal/domain/configuration"
)

var ctx = context.Background()

func TestNew(t *testing.T) {
	assert.NotPanics(t, func() {
		service := &domainConfiguration.MockConfigurationService{}
		New(service, domainConfiguration.NewWriter(service, &domainConfiguration.MockSchemaValidator{}), 4)
	})
}

func Test_handleErr(t *testing.T) {
	type args struct {
		err error
	}
	tests := []struct {
		name     string
		args     args
		wantCode int
	}{
		{
			"random errors should 500",
			args{
				fmt.Errorf("wtf"),
			},
			500,
		},
		{
			"StoreError errors should 500",
			args{
				domainConfiguration.StoreError{Underlying: fmt.Errorf("disk on fire")},
			},
			500,
		},
		{
			"NotFound errors should 404",
			args{
				domainConfiguration.NotFound{},
			},
			404,
		},
		{
			"BadRequest errors should 400",
			args{
				domainConfiguration.BadRequest{},
			},
			400,
		},
		{
			"ValidationError errors should 400",
			args{
				domainConfiguration.ValidationError{},
			},
			400,
		},
		{
			"InvalidKey errors should 400",
			args{
				domainConfiguration.InvalidKey{},
			},
			400,
		},
		{
			"VersionConflict errors should 409",
			args{
				domainConfiguration.VersionConflict{},
			},
			409,
		},
		{
			"AlreadyExists errors should 409",
			args{
				domainConfiguration.AlreadyExists{},
			},
			409,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handleErr(tt.args.err)
			assert.EqualValues(t, tt.wantCode, got.StatusCode)
			assert.EqualValues(t, tt.args.err.Error(), got.Body.Message)
		})
	}
}

func setup(listConcurrency uint) (Controller, *domainConfiguration.MockConfigurationService, *domainConfiguration.MockSchemaValidator) {
	service := &domainConfiguration.MockConfigurationService{}
	validator := &domainConfiguration.MockSchemaValidator{}
	return New(service, domainConfiguration.NewWriter(service, validator), listConcurrency), service, validator
}

func TestImpl_Get(t *testing.T) {
	subject, service, _ := setup(1)
	doc, err := subject.Get(ctx, domainConfiguration.MockKey)
	assert.Nil(t, err)
	assert.EqualValues(t, configuration.FromDomainDocument(domainConfiguration.MockKey, &domainConfiguration.MockDocument), *doc)
	assert.EqualValues(t, 1, service.GetCalled)

	service.GetOverride = func() (*domainConfiguration.Document, error) {
		return nil, domainConfiguration.NotFound{Key: domainConfiguration.MockKey}
	}
	_, err = subject.Get(ctx, domainConfiguration.MockKey)
	assert.EqualValues(t, 404, err.StatusCode)
}

func TestImpl_GetVersion(t *testing.T) {
	subject, service, _ := setup(1)
	doc, err := subject.GetVersion(ctx, domainConfiguration.MockKey, "v1")
	assert.Nil(t, err)
	assert.EqualValues(t, "v1", doc.Version)
	assert.EqualValues(t, 1, service.GetVersionCalled)
}

func TestImpl_Put(t *testing.T) {
	subject, service, validator := setup(1)
	result, err := subject.Put(ctx, domainConfiguration.MockKey, &configuration.Put{
		Content: json.RawMessage(`{"host":"x"}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	})
	assert.Nil(t, err)
	assert.EqualValues(t, "v1", result.Version)
	assert.EqualValues(t, 1, service.PutCalled)
	assert.EqualValues(t, 1, validator.ValidateCalled)

	service.PutOverride = func() (domainConfiguration.Version, error) {
		return "", domainConfiguration.AlreadyExists{Key: domainConfiguration.MockKey}
	}
	_, err = subject.Put(ctx, domainConfiguration.MockKey, &configuration.Put{
		Content: json.RawMessage(`{"host":"x"}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	})
	assert.EqualValues(t, 409, err.StatusCode)
}

func TestImpl_Put_InvalidContent(t *testing.T) {
	subject, service, validator := setup(1)
	validator.ValidateOverride = func() error {
		return domainConfiguration.SchemaViolations{Violations: []domainConfiguration.Violation{{Path: "$.host", Description: "must be of type string"}}}
	}
	_, err := subject.Put(ctx, domainConfiguration.MockKey, &configuration.Put{
		Content: json.RawMessage(`{"host":1}`),
		Schema:  json.RawMessage(`{"type":"object"}`),
	})
	assert.EqualValues(t, 400, err.StatusCode)
	assert.Contains(t, err.Body.Message, "$.host: must be of type string")
	assert.EqualValues(t, 0, service.PutCalled)
}

func TestImpl_Delete(t *testing.T) {
	subject, service, _ := setup(1)
	result, err := subject.Delete(ctx, domainConfiguration.MockKey)
	assert.Nil(t, err)
	assert.Contains(t, result.Message, "app/dev/db")
	assert.EqualValues(t, 1, service.DeleteCalled)
}

func TestImpl_DeleteEnvironment(t *testing.T) {
	subject, service, _ := setup(1)
	service.DeleteEnvironmentOverride = func() (uint, error) {
		return 3, nil
	}
	result, err := subject.DeleteEnvironment(ctx, "app", "dev")
	assert.Nil(t, err)
	assert.EqualValues(t, 3, result.Deleted)
}

func TestImpl_ListVersions(t *testing.T) {
	subject, _, _ := setup(1)
	result, err := subject.ListVersions(ctx, domainConfiguration.MockKey)
	assert.Nil(t, err)
	assert.Len(t, result.Versions, 1)
	assert.EqualValues(t, domainConfiguration.MockVersionRecord.Version, result.Versions[0].Version)
}

func TestImpl_List(t *testing.T) {
	subject, service, _ := setup(1)
	keys := []domainConfiguration.Key{
		{Application: "b", Environment: "dev", ConfigName: "db"},
		{Application: "a", Environment: "dev", ConfigName: "db"},
		{Application: "a", Environment: "dev", ConfigName: "gone"},
	}
	service.ListOverride = func() (mapset.Set[domainConfiguration.Key], error) {
		return mapset.NewSet(keys...), nil
	}
	versionsCalls := 0
	service.ListVersionsOverride = func() ([]domainConfiguration.VersionRecord, error) {
		versionsCalls++
		if versionsCalls == 2 {
			// "a/dev/gone", as lookups go in key order with a limit of 1
			return nil, domainConfiguration.NotFound{}
		}
		return []domainConfiguration.VersionRecord{{Version: "v1"}, {Version: "v2"}}, nil
	}

	result, err := subject.List(ctx, "")
	assert.Nil(t, err)
	assert.Equal(t, []configuration.Summary{
		{Application: "a", Environment: "dev", ConfigName: "db", CurrentVersion: "v2"},
		{Application: "b", Environment: "dev", ConfigName: "db", CurrentVersion: "v2"},
	}, result.Configs)
}

func TestImpl_List_Err(t *testing.T) {
	subject, service, _ := setup(1)
	service.ListVersionsOverride = func() ([]domainConfiguration.VersionRecord, error) {
		return nil, domainConfiguration.StoreError{Underlying: fmt.Errorf("boom")}
	}
	_, err := subject.List(ctx, "")
	assert.EqualValues(t, 500, err.StatusCode)
}

func TestImpl_List_Empty(t *testing.T) {
	subject, service, _ := setup(0)
	service.ListOverride = func() (mapset.Set[domainConfiguration.Key], error) {
		return mapset.NewSet[domainConfiguration.Key](), nil
	}
	result, err := subject.List(ctx, "nope")
	assert.Nil(t, err)
	assert.NotNil(t, result.Configs)
	assert.Len(t, result.Configs, 0)
}
