package llm

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldBoolean FieldType = "boolean"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
)

type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// ObjectSchema describes a flat JSON object whose fields are all required.
type ObjectSchema struct {
	Name        string
	Description string
	Fields      []Field
}

// JSONSchema renders the schema in the JSON Schema dialect used by
// OpenAI-compatible structured outputs.
func (s ObjectSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		prop := map[string]any{"type": string(field.Type)}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		properties[field.Name] = prop
		required = append(required, field.Name)
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

// OpenAPISchema renders the schema in the OpenAPI subset accepted by Gemini's
// responseSchema.
func (s ObjectSchema) OpenAPISchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	ordering := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		prop := map[string]any{"type": openAPIType(field.Type)}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		properties[field.Name] = prop
		required = append(required, field.Name)
		ordering = append(ordering, field.Name)
	}
	out := map[string]any{
		"type":             "OBJECT",
		"properties":       properties,
		"required":         required,
		"propertyOrdering": ordering,
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

func openAPIType(t FieldType) string {
	switch t {
	case FieldBoolean:
		return "BOOLEAN"
	case FieldNumber:
		return "NUMBER"
	case FieldInteger:
		return "INTEGER"
	default:
		return "STRING"
	}
}
