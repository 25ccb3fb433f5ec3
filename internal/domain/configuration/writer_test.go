package configuration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ctx = context.Background()

func versionPtr(v Version) *Version {
	return &v
}

func TestWriter_Write(t *testing.T) {
	storedSchema := json.RawMessage(`{"type":"object","required":["host"]}`)
	submittedSchema := json.RawMessage(`{"type":"object"}`)

	tests := []struct {
		name       string
		service    MockConfigurationService
		validator  MockSchemaValidator
		submission Submission
		wantSchema json.RawMessage
		wantErr    error
		// expected number of calls
		getVersionCalls uint
		getCalls        uint
		existsCalls     uint
		putCalls        uint
	}{
		{
			name: "explicit schema is used as-is",
			submission: Submission{
				Content: json.RawMessage(`{"host":"x"}`),
				Schema:  submittedSchema,
			},
			wantSchema: submittedSchema,
			putCalls:   1,
		},
		{
			name: "explicit schema that is not an object",
			submission: Submission{
				Content: json.RawMessage(`{"host":"x"}`),
				Schema:  json.RawMessage(`[1]`),
			},
			wantErr: BadRequest{Key: MockKey, Reasons: []string{"schema must be a JSON object"}},
		},
		{
			name: "schema from the expected version",
			service: MockConfigurationService{
				GetVersionOverride: func() (*Document, error) {
					return &Document{Schema: storedSchema, Version: "v1"}, nil
				},
			},
			submission: Submission{
				Content:         json.RawMessage(`{"host":"y"}`),
				ExpectedVersion: versionPtr("v1"),
			},
			wantSchema:      storedSchema,
			getVersionCalls: 1,
			putCalls:        1,
		},
		{
			name: "expected version that does not exist",
			service: MockConfigurationService{
				GetVersionOverride: func() (*Document, error) {
					return nil, NotFound{Key: MockKey, Version: versionPtr("v9")}
				},
			},
			submission: Submission{
				Content:         json.RawMessage(`{"host":"y"}`),
				ExpectedVersion: versionPtr("v9"),
			},
			wantErr:         NotFound{Key: MockKey, Version: versionPtr("v9")},
			getVersionCalls: 1,
		},
		{
			name: "schema from the current version",
			service: MockConfigurationService{
				GetOverride: func() (*Document, error) {
					return &Document{Schema: storedSchema, Version: "v3"}, nil
				},
			},
			submission: Submission{
				Content: json.RawMessage(`{"host":"y"}`),
			},
			wantSchema:  storedSchema,
			existsCalls: 1,
			getCalls:    1,
			putCalls:    1,
		},
		{
			name: "no schema on creation",
			service: MockConfigurationService{
				ExistsOverride: func() (bool, error) {
					return false, nil
				},
			},
			submission: Submission{
				Content: json.RawMessage(`{"host":"y"}`),
			},
			wantErr:     BadRequest{Key: MockKey, Reasons: []string{schemaRequiredReason}},
			existsCalls: 1,
		},
		{
			name: "violations are aggregated",
			validator: MockSchemaValidator{
				ValidateOverride: func() error {
					return SchemaViolations{Violations: []Violation{
						{Path: "$.host", Description: "expected string"},
						{Path: "$", Description: "port is required"},
					}}
				},
			},
			submission: Submission{
				Content: json.RawMessage(`{"host":1}`),
				Schema:  submittedSchema,
			},
			wantErr: BadRequest{Key: MockKey, Reasons: []string{"$.host: expected string", "$: port is required"}},
		},
		{
			name: "unusable schema",
			validator: MockSchemaValidator{
				ValidateOverride: func() error {
					return InvalidSchema{Reason: "nope"}
				},
			},
			submission: Submission{
				Content: json.RawMessage(`{"host":1}`),
				Schema:  submittedSchema,
			},
			wantErr: BadRequest{Key: MockKey, Reasons: []string{"Invalid schema: nope"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := tt.service
			validator := tt.validator
			var putSchema json.RawMessage
			if service.PutOverride == nil {
				service.PutOverride = func() (Version, error) {
					return "v2", nil
				}
			}
			subject := NewWriter(&recordingService{MockConfigurationService: &service, putSchema: &putSchema}, &validator)

			version, err := subject.Write(ctx, MockKey, tt.submission)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, Version("v2"), version)
				assert.Equal(t, tt.wantSchema, putSchema)
			}
			assert.Equal(t, tt.getVersionCalls, service.GetVersionCalled)
			assert.Equal(t, tt.getCalls, service.GetCalled)
			assert.Equal(t, tt.existsCalls, service.ExistsCalled)
			assert.Equal(t, tt.putCalls, service.PutCalled)
		})
	}
}

func TestWriter_Write_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	service := MockConfigurationService{
		ExistsOverride: func() (bool, error) {
			return false, StoreError{Key: MockKey, Underlying: boom}
		},
	}
	subject := NewWriter(&service, &MockSchemaValidator{})
	_, err := subject.Write(ctx, MockKey, Submission{Content: json.RawMessage(`{}`)})
	assert.True(t, errors.Is(err, boom))
	assert.EqualValues(t, 0, service.PutCalled)
}

// recordingService captures the document that reaches Put
type recordingService struct {
	*MockConfigurationService
	putSchema *json.RawMessage
}

func (r *recordingService) Put(ctx context.Context, key Key, document *Document, expectedVersion *Version) (Version, error) {
	*r.putSchema = document.Schema
	return r.MockConfigurationService.Put(ctx, key, document, expectedVersion)
}
