package util

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema creates a JSON schema from a Go struct using reflection.
// Field descriptions come from the `description` tag. The resulting object
// schema is closed (additionalProperties=false) so it can be used for strict
// structured output.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		fieldSchema := map[string]any{
			"type": getJSONType(field.Type),
		}

		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}

		properties[fieldName] = fieldSchema

		if !hasOmitEmpty(jsonTag) && !isPointer(field.Type) {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// RequireNonEmptyStrings returns a copy of an object schema in which every
// string property must have at least one character. Model providers reject
// minLength in strict mode, so this variant is meant for local validation.
func RequireNonEmptyStrings(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return out
	}

	newProps := make(map[string]any, len(props))
	for name, p := range props {
		pm, ok := p.(map[string]any)
		if !ok {
			newProps[name] = p
			continue
		}
		cp := make(map[string]any, len(pm)+1)
		for k, v := range pm {
			cp[k] = v
		}
		if cp["type"] == "string" {
			cp["minLength"] = 1
		}
		newProps[name] = cp
	}
	out["properties"] = newProps

	return out
}

// Schema is a compiled JSON schema ready for repeated validation.
type Schema struct {
	compiled *gojsonschema.Schema
}

// CompileSchema compiles a JSON schema map.
func CompileSchema(schema map[string]any) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks a Go value (maps, structs) against the schema.
func (s *Schema) Validate(doc any) error {
	return validate(s.compiled.Validate(gojsonschema.NewGoLoader(doc)))
}

// ValidateJSON checks a raw JSON document against the schema.
func (s *Schema) ValidateJSON(data []byte) error {
	return validate(s.compiled.Validate(gojsonschema.NewBytesLoader(data)))
}

// ValidateParameters validates parameters against a JSON schema.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	return validate(gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(params)))
}

// validate converts a gojsonschema result into a *ValidationError describing
// the first violation.
func validate(result *gojsonschema.Result, err error) error {
	if err != nil {
		return &ValidationError{Field: "(root)", Message: err.Error()}
	}

	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]

	field := first.Field()
	if prop, ok := first.Details()["property"].(string); ok && first.Type() == "required" {
		field = prop
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return &ValidationError{
		Field:   field,
		Value:   first.Value(),
		Message: strings.Join(msgs, "; "),
	}
}

// getJSONType returns the JSON schema type for a given Go type.
func getJSONType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getJSONType(t.Elem())
	default:
		return "string"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// isPointer checks if a type is a pointer.
func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}
