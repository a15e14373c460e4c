package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for board.yml. The Extensions
// field is left out; extension sections such as "logging" are accepted as
// additional properties.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	type BaseConfig struct {
		APIURL string       `yaml:"api_url,omitempty" jsonschema:"description=Base address of the listings store"`
		Client ClientConfig `yaml:"client,omitempty" jsonschema:"description=Terminal client settings"`
		Server ServerConfig `yaml:"server,omitempty" jsonschema:"description=Store server settings"`
		Notify NotifyConfig `yaml:"notify,omitempty" jsonschema:"description=Creation notifications"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Board Configuration"
	schema.Description = "Schema for board.yml."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
