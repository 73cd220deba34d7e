// Package prompt builds the System turns sent to the reasoning backend: the
// context data block, the conversation history and the per-command
// instructions with their JSON schemas.
package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names.
const (
	SchemaRouting     = "routing"
	SchemaEnvironment = "environment"
	SchemaAnimation   = "animation"
	SchemaConversion  = "conversion"
)

// Schema returns the embedded JSON schema with the given name.
func Schema(name string) (string, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return "", fmt.Errorf("prompt: schema %q: %w", name, err)
	}
	return string(data), nil
}

// SchemaRequired lists the required properties of a schema.
func SchemaRequired(name string) ([]string, error) {
	raw, err := Schema(name)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("prompt: decode schema %q: %w", name, err)
	}
	return doc.Required, nil
}

func mustSchema(name string) string {
	s, err := Schema(name)
	if err != nil {
		panic(err)
	}
	return s
}
