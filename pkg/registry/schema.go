package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// compileSchema builds a JSON Schema from the declared parameter specs.
// A nil/empty spec map compiles to a permissive object schema.
func compileSchema(params map[string]ParamSpec) (*gojsonschema.Schema, error) {
	properties := make(map[string]any, len(params))
	var required []string

	for name, spec := range params {
		prop := map[string]any{
			"type": spec.Type,
		}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		properties[name] = prop
		if !spec.Optional {
			required = append(required, name)
		}
	}

	schemaMap := map[string]any{
		"type": "object",
	}
	// Entries that declare no params accept anything; declared specs close
	// the object to undeclared keys.
	if len(params) > 0 {
		schemaMap["properties"] = properties
		schemaMap["additionalProperties"] = false
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

// validateAgainst runs the compiled schema over the argument map
func validateAgainst(schema *gojsonschema.Schema, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return fmt.Errorf("argument validation failed: %s", strings.Join(messages, "; "))
}
