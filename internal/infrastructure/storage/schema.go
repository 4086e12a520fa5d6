package storage

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/episode_result.json
var episodeResultSchema []byte

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("episode result failed schema validation:")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// ResultValidator checks serialized episode results against the bundled schema.
type ResultValidator struct {
	schema *gojsonschema.Schema
}

// NewResultValidator compiles the bundled schema.
func NewResultValidator() (*ResultValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(episodeResultSchema))
	if err != nil {
		return nil, fmt.Errorf("load episode result schema: %w", err)
	}
	return &ResultValidator{schema: schema}, nil
}

// Validate returns a *ValidationError when doc does not match the schema.
func (v *ResultValidator) Validate(doc []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate episode result: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return verr
}
