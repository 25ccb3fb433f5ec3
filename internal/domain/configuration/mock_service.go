package configuration

import (
	"context"
	"encoding/json"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

var MockKey = Key{
	Application: "app",
	Environment: "dev",
	ConfigName:  "db",
}

var MockDocument = Document{
	Content: json.RawMessage(`{"host":"x"}`),
	Schema:  json.RawMessage(`{"type":"object"}`),
	Version: "v1",
}

var MockVersionRecord = VersionRecord{
	Version:   "v1",
	Timestamp: time.Date(2020, 2, 20, 8, 0, 0, 0, time.UTC),
}

type MockConfigurationService struct {
	GetCalled                 uint
	GetOverride               func() (*Document, error)
	GetVersionCalled          uint
	GetVersionOverride        func() (*Document, error)
	PutCalled                 uint
	PutOverride               func() (Version, error)
	DeleteCalled              uint
	DeleteOverride            func() error
	DeleteEnvironmentCalled   uint
	DeleteEnvironmentOverride func() (uint, error)
	ExistsCalled              uint
	ExistsOverride            func() (bool, error)
	ListCalled                uint
	ListOverride              func() (mapset.Set[Key], error)
	ListVersionsCalled        uint
	ListVersionsOverride      func() ([]VersionRecord, error)
}

func (m *MockConfigurationService) Get(ctx context.Context, key Key) (*Document, error) {
	m.GetCalled++
	if m.GetOverride != nil {
		return m.GetOverride()
	} else {
		return &MockDocument, nil
	}
}

func (m *MockConfigurationService) GetVersion(ctx context.Context, key Key, version Version) (*Document, error) {
	m.GetVersionCalled++
	if m.GetVersionOverride != nil {
		return m.GetVersionOverride()
	} else {
		return &MockDocument, nil
	}
}

func (m *MockConfigurationService) Put(ctx context.Context, key Key, document *Document, expectedVersion *Version) (Version, error) {
	m.PutCalled++
	if m.PutOverride != nil {
		return m.PutOverride()
	} else {
		return MockDocument.Version, nil
	}
}

func (m *MockConfigurationService) Delete(ctx context.Context, key Key) error {
	m.DeleteCalled++
	if m.DeleteOverride != nil {
		return m.DeleteOverride()
	} else {
		return nil
	}
}

func (m *MockConfigurationService) DeleteEnvironment(ctx context.Context, application string, environment string) (uint, error) {
	m.DeleteEnvironmentCalled++
	if m.DeleteEnvironmentOverride != nil {
		return m.DeleteEnvironmentOverride()
	} else {
		return 1, nil
	}
}

func (m *MockConfigurationService) Exists(ctx context.Context, key Key) (bool, error) {
	m.ExistsCalled++
	if m.ExistsOverride != nil {
		return m.ExistsOverride()
	} else {
		return true, nil
	}
}

func (m *MockConfigurationService) List(ctx context.Context, prefix string) (mapset.Set[Key], error) {
	m.ListCalled++
	if m.ListOverride != nil {
		return m.ListOverride()
	} else {
		return mapset.NewSet(MockKey), nil
	}
}

func (m *MockConfigurationService) ListVersions(ctx context.Context, key Key) ([]VersionRecord, error) {
	m.ListVersionsCalled++
	if m.ListVersionsOverride != nil {
		return m.ListVersionsOverride()
	} else {
		return []VersionRecord{MockVersionRecord}, nil
	}
}

type MockSchemaValidator struct {
	ValidateCalled   uint
	ValidateOverride func() error
}

func (m *MockSchemaValidator) Validate(schema json.RawMessage, content json.RawMessage) error {
	m.ValidateCalled++
	if m.ValidateOverride != nil {
		return m.ValidateOverride()
	} else {
		return nil
	}
}
