package client

import (
	"encoding/json"
	"net/url"
	"time"
)

// Key identifies a configuration
type Key struct {
	Application string
	Environment string
	ConfigName  string
}

func (k Key) String() string {
	return k.Application + "/" + k.Environment + "/" + k.ConfigName
}

func (k Key) path() string {
	return environmentPath(k.Application, k.Environment) + "/" + url.PathEscape(k.ConfigName)
}

func environmentPath(application string, environment string) string {
	return configsPath + "/" + url.PathEscape(application) + "/" + url.PathEscape(environment)
}

// Document is a configuration at a given version
type Document struct {
	Application string          `json:"application"`
	Environment string          `json:"environment"`
	ConfigName  string          `json:"config_name"`
	Version     string          `json:"version"`
	Content     json.RawMessage `json:"content"`
	Schema      json.RawMessage `json:"schema"`
}

// PutRequest writes a new version. Leave ExpectedVersion nil to create, and Schema nil to
// reuse the schema of the version being replaced.
type PutRequest struct {
	Content         json.RawMessage `json:"content"`
	Schema          json.RawMessage `json:"schema,omitempty"`
	ExpectedVersion *string         `json:"expected_version,omitempty"`
}

type PutResult struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

type Deleted struct {
	Message string `json:"message"`
}

type EnvironmentDeleted struct {
	Message string `json:"message"`
	Deleted uint   `json:"deleted"`
}

type VersionRecord struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type versions struct {
	Versions []VersionRecord `json:"versions"`
}

type Summary struct {
	Application    string `json:"application"`
	Environment    string `json:"environment"`
	ConfigName     string `json:"config_name"`
	CurrentVersion string `json:"current_version"`
}

type listing struct {
	Configs []Summary `json:"configs"`
}

type Health struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

type errorBody struct {
	Message string `json:"message"`
}
