// Package templates loads the message-template catalog referenced by agenda
// ingestions (template id + send channel stamped onto every record).
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Template is one reminder message template.
type Template struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Body    string `json:"body"`
}

// catalogSchema constrains the catalog file: ids are required and non-empty,
// channels limited to the supported send channels.
const catalogSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "channel", "body"],
		"additionalProperties": false,
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"channel": {"type": "string", "enum": ["whatsapp", "sms"]},
			"body": {"type": "string", "minLength": 1}
		}
	}
}`

// Catalog is the loaded, schema-validated template set.
type Catalog struct {
	byID map[string]Template
}

// Load reads and validates the catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates catalog bytes against the schema and indexes the templates.
func Parse(data []byte) (*Catalog, error) {
	if err := validateAgainstSchema(data); err != nil {
		return nil, err
	}

	var list []Template
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode template catalog: %w", err)
	}

	byID := make(map[string]Template, len(list))
	for _, t := range list {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("template catalog: duplicate id %q", t.ID)
		}
		byID[t.ID] = t
	}
	return &Catalog{byID: byID}, nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Has reports whether a template id exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of loaded templates.
func (c *Catalog) Len() int { return len(c.byID) }

func validateAgainstSchema(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.json", bytes.NewReader([]byte(catalogSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("catalog.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("template catalog is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("template catalog does not match schema: %w", err)
	}
	return nil
}
