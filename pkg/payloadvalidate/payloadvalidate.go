// Package payloadvalidate checks a resolved case payload against an
// optional JSON-schema document, recording a Resolution-class warning on
// mismatch rather than failing the case. Grounded in the teacher's
// tools/schema.go, trimmed to this one call.
package payloadvalidate

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks payload (a JSON document) against schema, which may be
// an inline JSON-schema document or a "file://" path to one. An empty
// schema is always valid (no schema configured). Returns the formatted
// validation errors, or nil when the payload conforms.
func Validate(schema, payload string) []string {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return nil
	}

	schemaLoader, err := loadSchema(schema)
	if err != nil {
		return []string{fmt.Sprintf("payload_schema: %v", err)}
	}
	documentLoader := gojsonschema.NewStringLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []string{fmt.Sprintf("payload_schema: validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return msgs
}

func loadSchema(schema string) (gojsonschema.JSONLoader, error) {
	if path, ok := strings.CutPrefix(schema, "file://"); ok {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading schema file %s: %w", path, err)
		}
		return gojsonschema.NewBytesLoader(body), nil
	}
	return gojsonschema.NewStringLoader(schema), nil
}
