// configuration holds the API models for configurations. Content and schemas are passed
// through as raw JSON.
package configuration

import (
	"encoding/json"
	"time"

	"github.com/openappconfig/openappconfig/internal/domain/configuration"
)

// Document is a configuration at a given version
type Document struct {
	Application string                `json:"application" binding:"required" example:"my-app"`
	Environment string                `json:"environment" binding:"required" example:"dev"`
	ConfigName  string                `json:"config_name" binding:"required" example:"database"`
	Version     configuration.Version `json:"version" binding:"required" swaggertype:"string" example:"v1"`
	Content     json.RawMessage       `json:"content" binding:"required" swaggertype:"object"`
	Schema      json.RawMessage       `json:"schema" binding:"required" swaggertype:"object"`
}

// Put is a request to write a new version of a configuration.
//
// The schema may be left out when updating, in which case the one from expected_version
// (or the current one) is reused.
type Put struct {
	Content         json.RawMessage        `json:"content" binding:"required" swaggertype:"object"`
	Schema          json.RawMessage        `json:"schema,omitempty" swaggertype:"object"`
	ExpectedVersion *configuration.Version `json:"expected_version,omitempty" swaggertype:"string" example:"v1"`
}

type PutResult struct {
	Message string                `json:"message" example:"Configuration saved"`
	Version configuration.Version `json:"version" swaggertype:"string" example:"v2"`
}

type Deleted struct {
	Message string `json:"message" example:"Configuration deleted"`
}

type EnvironmentDeleted struct {
	Message string `json:"message" example:"Environment deleted"`
	Deleted uint   `json:"deleted" example:"3"`
}

type VersionRecord struct {
	Version   configuration.Version `json:"version" swaggertype:"string" example:"v1"`
	Timestamp time.Time             `json:"timestamp" swaggertype:"string" format:"date-time"`
}

type Versions struct {
	Versions []VersionRecord `json:"versions"`
}

type Summary struct {
	Application    string                `json:"application" example:"my-app"`
	Environment    string                `json:"environment" example:"dev"`
	ConfigName     string                `json:"config_name" example:"database"`
	CurrentVersion configuration.Version `json:"current_version" swaggertype:"string" example:"v3"`
}

type Listing struct {
	Configs []Summary `json:"configs"`
}

func FromDomainDocument(key configuration.Key, document *configuration.Document) Document {
	return Document{
		Application: key.Application,
		Environment: key.Environment,
		ConfigName:  key.ConfigName,
		Version:     document.Version,
		Content:     document.Content,
		Schema:      document.Schema,
	}
}

// ToSubmission turns the request into what the domain Writer expects. A JSON null schema is
// the same as no schema.
func (p *Put) ToSubmission() configuration.Submission {
	var schema json.RawMessage
	if len(p.Schema) != 0 && string(p.Schema) != "null" {
		schema = p.Schema
	}
	return configuration.Submission{
		Content:         p.Content,
		Schema:          schema,
		ExpectedVersion: p.ExpectedVersion,
	}
}

func FromDomainVersionRecords(records []configuration.VersionRecord) Versions {
	apiRecords := make([]VersionRecord, 0, len(records))
	for _, r := range records {
		apiRecords = append(apiRecords, VersionRecord{
			Version:   r.Version,
			Timestamp: r.Timestamp,
		})
	}
	return Versions{Versions: apiRecords}
}
