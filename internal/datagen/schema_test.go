package datagen

import (
	"math/rand"
	"testing"
)

func TestGenerateSchemaAlwaysIncludesRequiredFields(t *testing.T) {
	catalog := DefaultCatalog()
	for seed := int64(0); seed < 200; seed++ {
		columns := GenerateSchema(rand.New(rand.NewSource(seed)), catalog)
		fields := map[string]string{}
		for _, col := range columns {
			fields[col.Field] = col.Alias
		}
		for _, required := range []string{"title", "author", "price"} {
			if _, ok := fields[required]; !ok {
				t.Fatalf("seed %d: schema %v missing %s", seed, columns, required)
			}
		}
		if len(columns) < 4 || len(columns) > len(catalog.Fields) {
			t.Fatalf("seed %d: schema has %d columns", seed, len(columns))
		}
		for _, col := range columns {
			spec, _ := catalog.field(col.Field)
			if !contains(spec.Aliases, col.Alias) {
				t.Fatalf("seed %d: alias %q not valid for %s", seed, col.Alias, col.Field)
			}
		}
	}
}

func TestGenerateSchemaDeterministicForSeed(t *testing.T) {
	catalog := DefaultCatalog()
	first := GenerateSchema(rand.New(rand.NewSource(42)), catalog)
	second := GenerateSchema(rand.New(rand.NewSource(42)), catalog)
	if len(first) != len(second) {
		t.Fatalf("schemas differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("schemas differ at %d: %v vs %v", i, first, second)
		}
	}
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
