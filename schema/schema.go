package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema is the serializable subset of JSON Schema the generator
// emits. It is exposed verbatim through the tool-listing surface.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// Generate creates a JSON Schema from a Go value's type.
func Generate(v any) (*Schema, error) {
	return GenerateFromType(reflect.TypeOf(v))
}

// GenerateFromType creates a JSON Schema from a reflect.Type. Pointers
// are dereferenced; structs become objects whose properties follow the
// json and jsonschema field tags.
func GenerateFromType(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return structSchema(t)
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Slice, reflect.Array:
		items, err := GenerateFromType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		return &Schema{Type: "object"}, nil
	default:
		// Interfaces and anything else unconstrained: accept any value.
		return &Schema{}, nil
	}
}

func structSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, ok := fieldName(field)
		if !ok {
			continue
		}

		prop, err := GenerateFromType(field.Type)
		if err != nil {
			return nil, err
		}

		applyFieldTag(field.Tag.Get("jsonschema"), prop, s, name)
		s.Properties[name] = prop
	}

	return s, nil
}

// fieldName resolves the property name from the json tag, falling back
// to the Go field name. A "-" tag excludes the field.
func fieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return field.Name, true
}

// applyFieldTag folds the comma-separated jsonschema tag options into
// the property schema. Recognized options: required,
// description=<text>, minimum=<n>, maximum=<n>, enum=a|b|c.
func applyFieldTag(tag string, prop *Schema, parent *Schema, name string) {
	if tag == "" {
		return
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		key, value, _ := strings.Cut(part, "=")

		switch key {
		case "required":
			parent.Required = append(parent.Required, name)
		case "description":
			prop.Description = value
		case "minimum":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				prop.Minimum = &f
			}
		case "maximum":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				prop.Maximum = &f
			}
		case "enum":
			for _, v := range strings.Split(value, "|") {
				prop.Enum = append(prop.Enum, v)
			}
		}
	}
}
