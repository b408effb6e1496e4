// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package config

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// fileSchema mirrors the YAML shape of a config file. Durations appear as
// strings ("24h") in YAML, so the schema types them as strings even though
// Config holds a time.Duration.
type fileSchema struct {
	HTTPAddr    string `json:"http_addr,omitempty" jsonschema_description:"API listen address"`
	MetricsAddr string `json:"metrics_addr,omitempty" jsonschema_description:"metrics/health listen address, empty disables"`
	DatabaseURL string `json:"database_url,omitempty" jsonschema_description:"PostgreSQL connection URL"`
	JWTSecret   string `json:"jwt_secret,omitempty" jsonschema_description:"token signing secret"`
	TokenTTL    string `json:"token_ttl,omitempty" jsonschema_description:"issued token lifetime as a Go duration"`
	LogFormat   string `json:"log_format,omitempty" jsonschema:"enum=text,enum=json"`
	LogLevel    string `json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

var (
	schemaOnce sync.Once
	schemaCmp  *jschema.Schema
	schemaErr  error
)

// SchemaID is the schema $id referenced from config files.
const SchemaID = "https://habitloop.dev/schemas/config.schema.json"

// GenerateSchema generates the JSON Schema for config files. Unknown keys
// are rejected, so a typo'd key fails loudly instead of silently keeping
// the default.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&fileSchema{})

	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "HabitLoop Server Configuration"
	schema.Description = "Schema for habitloop config files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateFile validates raw YAML config data against the schema.
func ValidateFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.Code("CONFIG_FILE_INVALID").
			With("operation", "parse yaml").
			Wrap(err)
	}
	if yamlData == nil {
		return nil
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	if err := sch.Validate(toJSONTypes(yamlData)); err != nil {
		return oops.Code("CONFIG_FILE_INVALID").
			With("operation", "validate against schema").
			Wrap(err)
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCmp, schemaErr = compileSchema()
	})
	return schemaCmp, schemaErr
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("operation", "parse schema json").
			Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("operation", "add schema resource").
			Wrap(err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").
			With("operation", "compile schema").
			Wrap(err)
	}
	return sch, nil
}

// toJSONTypes converts YAML-parsed values into the types the schema
// validator expects. yaml.v3 already produces map[string]any, but nested
// values need the same treatment recursively.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, inner := range val {
			result[k] = toJSONTypes(inner)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, inner := range val {
			result[i] = toJSONTypes(inner)
		}
		return result
	default:
		return val
	}
}
