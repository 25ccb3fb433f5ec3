// jsonschema validates configuration content against JSON Schemas
package jsonschema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"

	"github.com/openappconfig/openappconfig/internal/domain/configuration"
)

const rootPath = "$"

type Validator struct {
	formats strfmt.Registry
}

func NewValidator() configuration.SchemaValidator {
	return &Validator{formats: strfmt.Default}
}

func (v *Validator) Validate(schema json.RawMessage, content json.RawMessage) (err error) {
	// go-openapi panics on schemas whose refs cannot be expanded
	defer func() {
		if r := recover(); r != nil {
			err = configuration.InvalidSchema{Reason: fmt.Sprint(r)}
		}
	}()

	var parsedSchema spec.Schema
	if err := json.Unmarshal(schema, &parsedSchema); err != nil {
		return configuration.InvalidSchema{Reason: err.Error()}
	}
	var data interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return configuration.SchemaViolations{Violations: []configuration.Violation{{Path: rootPath, Description: err.Error()}}}
	}

	validationErr := validate.AgainstSchema(&parsedSchema, data, v.formats)
	if validationErr == nil {
		return nil
	}
	violations := flatten(validationErr, nil)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Path < violations[j].Path
	})
	return configuration.SchemaViolations{Violations: violations}
}

func flatten(err error, acc []configuration.Violation) []configuration.Violation {
	switch e := err.(type) {
	case *errors.CompositeError:
		for _, inner := range e.Errors {
			acc = flatten(inner, acc)
		}
		return acc
	case *errors.Validation:
		return append(acc, configuration.Violation{
			Path:        toJsonPath(e.Name),
			Description: strings.TrimPrefix(e.Error(), e.Name+" in "+e.In+" "),
		})
	default:
		return append(acc, configuration.Violation{Path: rootPath, Description: err.Error()})
	}
}

// toJsonPath turns the dotted names go-openapi reports into "$"-rooted paths
func toJsonPath(name string) string {
	name = strings.Trim(name, ".")
	if len(name) == 0 {
		return rootPath
	}
	return rootPath + "." + name
}
