// Package schema generates the JSON Schema of a listing payload and validates
// incoming payloads against it.
package schema

import (
	"encoding/json"

	"github.com/grovetools/board/pkg/models"
	"github.com/invopop/jsonschema"
)

// ItemSchemaID is the resource name the item schema is compiled under.
const ItemSchemaID = "item.schema.json"

// ItemSchema reflects models.Item. Only fields tagged required are required;
// unknown properties are allowed so older clients sending imageRef still pass.
func ItemSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}

	s := r.Reflect(&models.Item{})
	s.Title = "Listing"
	s.Description = "A listing as exchanged with the board store."
	s.Version = "http://json-schema.org/draft-07/schema#"
	return s
}

// GenerateItemSchema returns the indented item schema document.
func GenerateItemSchema() ([]byte, error) {
	return json.MarshalIndent(ItemSchema(), "", "  ")
}
