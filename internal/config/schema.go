package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	kverrors "github.com/systmms/kvreport/internal/errors"
)

// configSchema is the structural contract for kvreport.yaml. Unknown
// top-level sections and misspelled fields fail here with their exact
// path, before the lenient struct decode would silently drop them.
// Source settings stay open: everything past the type tag belongs to
// the source factory.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "kvreport configuration",
  "type": "object",
  "additionalProperties": false,
  "required": ["sources", "report", "mail"],
  "properties": {
    "version": {"type": "integer"},
    "sources": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string", "minLength": 1}
        }
      }
    },
    "report": {
      "type": "object",
      "additionalProperties": false,
      "required": ["source", "recipient", "admin"],
      "properties": {
        "source": {"type": "string", "minLength": 1},
        "range": {"type": ["string", "integer"]},
        "recipient": {"type": "string", "minLength": 1},
        "admin": {"type": "string", "minLength": 1},
        "subject": {"type": "string"}
      }
    },
    "mail": {
      "type": "object",
      "additionalProperties": false,
      "required": ["from", "smtp"],
      "properties": {
        "from": {"type": "string", "minLength": 1},
        "smtp": {
          "type": "object",
          "additionalProperties": false,
          "required": ["host", "port"],
          "properties": {
            "host": {"type": "string", "minLength": 1},
            "port": {"type": "integer", "minimum": 1, "maximum": 65535},
            "username": {"type": "string"},
            "password": {"type": "string"},
            "password_env": {"type": "string"},
            "tls": {"type": "boolean"}
          }
        }
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "required": ["gateway"],
      "properties": {
        "gateway": {"type": "string", "minLength": 1},
        "job": {"type": "string"}
      }
    }
  }
}`

// validateSchema checks the raw YAML document against the embedded
// schema. The document is decoded generically first; yaml.v3 produces
// string-keyed maps, which the schema loader accepts as JSON.
func validateSchema(data []byte) error {
	var document interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return kverrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return kverrors.ConfigError{
			Message:    "configuration does not match the expected structure:\n  - " + strings.Join(problems, "\n  - "),
			Suggestion: "Compare your file against the example from 'kvreport init'",
		}
	}

	return nil
}
