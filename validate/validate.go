// Package validate checks generated documents with independent tooling:
// kin-openapi for the document itself and a JSON Schema validator for
// payloads described by its definitions.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnknownDefinition is returned when a payload names a definition the
// document does not have.
var ErrUnknownDefinition = errors.New("validate: unknown definition")

// resourceURL is the name the document is registered under with the
// schema compiler; definition refs resolve against it.
const resourceURL = "swagger.json"

// Document parses a serialized Swagger 2.0 document, converts it to
// OpenAPI 3 and validates the result.
func Document(ctx context.Context, data []byte) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return nil, fmt.Errorf("validate: parse: %w", err)
	}

	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("validate: convert: %w", err)
	}

	if err := openapi3.NewLoader().ResolveRefsIn(doc3, nil); err != nil {
		return nil, fmt.Errorf("validate: resolve refs: %w", err)
	}

	if err := doc3.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return doc3, nil
}

// Schema compiles the named definition of a serialized document as a
// draft 4 JSON Schema.
func Schema(data []byte, definition string) (*jsonschema.Schema, error) {
	var head struct {
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("validate: parse: %w", err)
	}
	if _, ok := head.Definitions[definition]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, definition)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4
	if err := compiler.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("validate: add resource: %w", err)
	}

	schema, err := compiler.Compile(resourceURL + "#/definitions/" + definition)
	if err != nil {
		return nil, fmt.Errorf("validate: compile %s: %w", definition, err)
	}
	return schema, nil
}

// Payload validates a JSON payload against the named definition.
func Payload(data []byte, definition string, payload []byte) error {
	schema, err := Schema(data, definition)
	if err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("validate: parse payload: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("validate: %s: %w", definition, err)
	}
	return nil
}
