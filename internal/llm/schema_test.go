package llm

import "testing"

func TestJSONSchemaMarksEveryFieldRequired(t *testing.T) {
	schema := ObjectSchema{
		Name: "RelevanceGrade",
		Fields: []Field{
			{Name: "explanation", Type: FieldString, Description: "Explain your reasoning for the score"},
			{Name: "relevant", Type: FieldBoolean},
		},
	}
	out := schema.JSONSchema()
	required, ok := out["required"].([]string)
	if !ok || len(required) != 2 || required[0] != "explanation" || required[1] != "relevant" {
		t.Fatalf("required = %#v", out["required"])
	}
	if out["additionalProperties"] != false {
		t.Fatalf("additionalProperties = %#v", out["additionalProperties"])
	}
	props := out["properties"].(map[string]any)
	relevant := props["relevant"].(map[string]any)
	if relevant["type"] != "boolean" {
		t.Fatalf("relevant type = %#v", relevant["type"])
	}
}

func TestOpenAPISchemaUsesUpperCaseTypes(t *testing.T) {
	schema := ObjectSchema{Name: "QueryOutput", Fields: []Field{{Name: "query", Type: FieldString}}}
	out := schema.OpenAPISchema()
	if out["type"] != "OBJECT" {
		t.Fatalf("type = %#v", out["type"])
	}
	query := out["properties"].(map[string]any)["query"].(map[string]any)
	if query["type"] != "STRING" {
		t.Fatalf("query type = %#v", query["type"])
	}
}
