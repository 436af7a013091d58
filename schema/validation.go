package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue describes a single validation failure.
type Issue struct {
	Path    string `json:"path"`    // JSON path to the invalid field (e.g. "user.email")
	Message string `json:"message"` // Human-readable error message
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationErrors is the list of issues produced by a failed validation.
type ValidationErrors []Issue

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, issue := range e {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// Validator validates raw JSON input against a compiled JSON Schema.
// It implements the safe-parse contract consumed by the invocation
// pipeline: either the input decodes cleanly into a typed value, or the
// caller receives a structured issue list. It never panics.
type Validator struct {
	compiled *jsonschema.Schema
}

// NewValidator compiles the given schema for validation.
func NewValidator(s *Schema) (*Validator, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling schema")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource("input.json", bytes.NewReader(doc)); err != nil {
		return nil, errors.Wrap(err, "adding schema resource")
	}

	compiled, err := compiler.Compile("input.json")
	if err != nil {
		return nil, errors.Wrap(err, "compiling schema")
	}

	return &Validator{compiled: compiled}, nil
}

// Validate checks raw JSON against the schema.
// Returns nil when the input is valid.
func (v *Validator) Validate(data json.RawMessage) ValidationErrors {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %s", err)}}
	}

	if err := v.compiled.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return collectIssues(ve)
		}
		return ValidationErrors{{Message: err.Error()}}
	}
	return nil
}

// Parse validates raw JSON and, on success, decodes it into out.
func (v *Validator) Parse(data json.RawMessage, out any) ValidationErrors {
	if issues := v.Validate(data); issues != nil {
		return issues
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("decoding input: %s", err)}}
	}
	return nil
}

// collectIssues flattens a validation error tree into leaf issues.
func collectIssues(ve *jsonschema.ValidationError) ValidationErrors {
	if len(ve.Causes) == 0 {
		return ValidationErrors{{
			Path:    instancePath(ve.InstanceLocation),
			Message: ve.Message,
		}}
	}

	var issues ValidationErrors
	for _, cause := range ve.Causes {
		issues = append(issues, collectIssues(cause)...)
	}
	return issues
}

// instancePath converts a JSON pointer ("/user/email") to dotted form.
func instancePath(loc string) string {
	return strings.ReplaceAll(strings.TrimPrefix(loc, "/"), "/", ".")
}
