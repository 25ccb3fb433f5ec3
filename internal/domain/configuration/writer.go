package configuration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Submission is what a caller hands over to be written
type Submission struct {
	Content json.RawMessage
	// nil when the caller did not send one
	Schema          json.RawMessage
	ExpectedVersion *Version
}

// Writer resolves the schema that governs a write, validates content against it, and only
// then persists it.
type Writer interface {
	Write(ctx context.Context, key Key, submission Submission) (Version, error)
}

// SchemaValidator checks content against a JSON Schema.
//
// Implementations return SchemaViolations when the content does not conform, and
// InvalidSchema when the schema itself cannot be used.
type SchemaValidator interface {
	Validate(schema json.RawMessage, content json.RawMessage) error
}

type Violation struct {
	// JSON path of the offending value, "$" being the root
	Path        string
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Description)
}

type SchemaViolations struct {
	Violations []Violation
}

func (e SchemaViolations) Error() string {
	return fmt.Sprintf("Content does not match schema: %s", strings.Join(e.Reasons(), "; "))
}

func (e SchemaViolations) Reasons() []string {
	reasons := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		reasons = append(reasons, v.String())
	}
	return reasons
}

type InvalidSchema struct {
	Reason string
}

func (e InvalidSchema) Error() string {
	return fmt.Sprintf("Invalid schema: %s", e.Reason)
}

const schemaRequiredReason = "schema is required when creating a new configuration"

type writerImpl struct {
	service   Service
	validator SchemaValidator
}

func NewWriter(service Service, validator SchemaValidator) Writer {
	return &writerImpl{
		service:   service,
		validator: validator,
	}
}

func (w *writerImpl) Write(ctx context.Context, key Key, submission Submission) (Version, error) {
	schema, err := w.resolveSchema(ctx, key, &submission)
	if err != nil {
		return "", err
	}
	if err := w.validator.Validate(schema, submission.Content); err != nil {
		switch v := err.(type) {
		case SchemaViolations:
			return "", BadRequest{Key: key, Reasons: v.Reasons()}
		case InvalidSchema:
			return "", BadRequest{Key: key, Reasons: []string{v.Error()}}
		default:
			return "", err
		}
	}
	document := Document{
		Content: submission.Content,
		Schema:  schema,
	}
	return w.service.Put(ctx, key, &document, submission.ExpectedVersion)
}

func (w *writerImpl) resolveSchema(ctx context.Context, key Key, submission *Submission) (json.RawMessage, error) {
	if submission.Schema != nil {
		if !IsJsonObject(submission.Schema) {
			return nil, BadRequest{Key: key, Reasons: []string{"schema must be a JSON object"}}
		}
		return submission.Schema, nil
	}

	if submission.ExpectedVersion != nil {
		existing, err := w.service.GetVersion(ctx, key, *submission.ExpectedVersion)
		if err != nil {
			return nil, err
		}
		return existing.Schema, nil
	}

	exists, err := w.service.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		current, err := w.service.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return current.Schema, nil
	}
	return nil, BadRequest{Key: key, Reasons: []string{schemaRequiredReason}}
}
