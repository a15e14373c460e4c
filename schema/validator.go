package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator validates listing payloads against the generated item schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the item schema.
func NewValidator() (*Validator, error) {
	data, err := GenerateItemSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(ItemSchemaID, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add item schema resource: %w", err)
	}

	schema, err := compiler.Compile(ItemSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile item schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateJSON validates a raw JSON payload.
func (v *Validator) ValidateJSON(payload []byte) error {
	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return v.validate(data)
}

// Validate validates any value that marshals to a listing payload.
func (v *Validator) Validate(value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for validation: %w", err)
	}
	return v.ValidateJSON(jsonData)
}

func (v *Validator) validate(data interface{}) error {
	if err := v.schema.Validate(data); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(messages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" || len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		*messages = append(*messages, fmt.Sprintf("- %s: %s", location, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
