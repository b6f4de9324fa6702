package datagen

import "math/rand"

// Column maps a canonical field to the header a generated store uses for it.
type Column struct {
	Field string
	Alias string
}

// GenerateSchema always includes the required fields plus a non-empty random
// subset of the optional ones, each under a randomly chosen alias. Columns
// follow catalog order, so a fixed seed yields the same schema.
func GenerateSchema(rnd *rand.Rand, catalog Catalog) []Column {
	var optional []string
	include := map[string]bool{}
	for _, field := range catalog.Fields {
		if field.Required {
			include[field.Name] = true
			continue
		}
		optional = append(optional, field.Name)
	}

	n := 1 + rnd.Intn(len(optional))
	for _, idx := range rnd.Perm(len(optional))[:n] {
		include[optional[idx]] = true
	}

	columns := make([]Column, 0, len(include))
	for _, field := range catalog.Fields {
		if !include[field.Name] {
			continue
		}
		columns = append(columns, Column{
			Field: field.Name,
			Alias: field.Aliases[rnd.Intn(len(field.Aliases))],
		})
	}
	return columns
}
