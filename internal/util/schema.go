package util

import (
	"reflect"
	"strings"
)

// CreateSchema derives a JSON schema from a Go struct via reflection. Field
// names follow json tags, "description" tags become property descriptions,
// and every non-pointer field without omitempty is required. Non-struct
// inputs yield an empty object schema.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := splitJSONTag(tag)
		if name == "" {
			name = field.Name
		}

		prop := map[string]any{"type": jsonSchemaType(field.Type)}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		if field.Type.Kind() != reflect.Ptr && !opts["omitempty"] {
			required = append(required, name)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func splitJSONTag(tag string) (name string, opts map[string]bool) {
	parts := strings.Split(tag, ",")
	opts = map[string]bool{}
	for _, p := range parts[1:] {
		opts[strings.TrimSpace(p)] = true
	}
	return parts[0], opts
}

func jsonSchemaType(t reflect.Type) string {
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
		return jsonSchemaType(t.Elem())
	default:
		return "string"
	}
}
