package lifecycle

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema accepts exactly one of the two policy shapes
const documentSchema = `{
  "type": "object",
  "oneOf": [
    {
      "required": ["phases"],
      "not": {"required": ["states"]},
      "properties": {
        "phases": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "min_age": {"type": "string"},
              "actions": {"type": "object", "additionalProperties": {"type": "object"}}
            }
          }
        }
      }
    },
    {
      "required": ["states"],
      "not": {"required": ["phases"]},
      "properties": {
        "states": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "actions": {"type": "array", "items": {"type": "object"}},
              "transitions": {
                "type": "array",
                "items": {"type": "object", "required": ["state_name"]}
              }
            }
          }
        },
        "default_state": {"type": "string"}
      }
    }
  ]
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// ValidateDocument checks that doc is a phase-form or a state-form policy, never both
func ValidateDocument(doc Document) error {
	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load policy schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("policy schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("invalid policy: %s", strings.Join(errs, "; "))
	}
	return nil
}
