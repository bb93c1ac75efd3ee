package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("order_extraction.json", bytes.NewReader(ValidationSchema())); err != nil {
			compileErr = fmt.Errorf("failed to load extraction schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("order_extraction.json")
	})
	return compiledSchema, compileErr
}

// Validate checks a raw JSON payload against the OrderExtraction schema.
func Validate(raw json.RawMessage) error {
	s, err := compiled()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match extraction schema: %w", err)
	}
	return nil
}

// Parse validates a raw JSON payload and decodes it into an OrderExtraction.
// A payload that fails validation is rejected whole: Parse never returns a
// partially-populated result.
func Parse(raw json.RawMessage) (*OrderExtraction, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var out OrderExtraction
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}
	return &out, nil
}
