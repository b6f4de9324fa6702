package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DecodeErrorKind string

const (
	DecodeMalformed    DecodeErrorKind = "malformed_json"
	DecodeMissingField DecodeErrorKind = "missing_field"
	DecodeWrongType    DecodeErrorKind = "wrong_type"
)

// DecodeError reports model output that does not satisfy the requested schema.
type DecodeError struct {
	Schema string
	Kind   DecodeErrorKind
	Field  string
	Raw    string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s output: %s", e.Schema, e.Kind)
	if e.Field != "" {
		msg += " field=" + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode validates text against schema and unmarshals it into out.
func Decode(text string, schema ObjectSchema, out any) error {
	raw := StripCodeFence(text)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return &DecodeError{Schema: schema.Name, Kind: DecodeMalformed, Raw: text, Err: err}
	}
	for _, field := range schema.Fields {
		value, ok := fields[field.Name]
		if !ok || string(value) == "null" {
			return &DecodeError{Schema: schema.Name, Kind: DecodeMissingField, Field: field.Name, Raw: text}
		}
		if !matchesType(value, field.Type) {
			return &DecodeError{
				Schema: schema.Name,
				Kind:   DecodeWrongType,
				Field:  field.Name,
				Raw:    text,
				Err:    fmt.Errorf("expected %s", field.Type),
			}
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &DecodeError{Schema: schema.Name, Kind: DecodeWrongType, Raw: text, Err: err}
	}
	return nil
}

// StripCodeFence removes a surrounding markdown code fence, with or without a
// language tag.
func StripCodeFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		tag := strings.TrimSpace(trimmed[:newline])
		if !strings.ContainsAny(tag, "{[\"") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func matchesType(value json.RawMessage, want FieldType) bool {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return false
	}
	switch want {
	case FieldString:
		_, ok := decoded.(string)
		return ok
	case FieldBoolean:
		_, ok := decoded.(bool)
		return ok
	case FieldNumber:
		_, ok := decoded.(float64)
		return ok
	case FieldInteger:
		n, ok := decoded.(float64)
		return ok && n == float64(int64(n))
	default:
		return true
	}
}
