package datagen

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

const ParseLeadingFloat = "leading_float"

type FieldSpec struct {
	Name      string   `yaml:"name"`
	Required  bool     `yaml:"required"`
	Source    string   `yaml:"source"`
	Parse     string   `yaml:"parse"`
	Generated bool     `yaml:"generated"`
	Aliases   []string `yaml:"aliases"`
}

type Catalog struct {
	Fields []FieldSpec `yaml:"fields"`
}

func DefaultCatalog() Catalog {
	catalog, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded field catalog is invalid: %v", err))
	}
	return catalog
}

// LoadCatalog reads a field catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read field catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("unmarshal field catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("field catalog validation failed: %w", err)
	}
	return catalog, nil
}

func (c Catalog) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("at least one field must be defined")
	}
	seen := make(map[string]struct{}, len(c.Fields))
	aliases := map[string]string{}
	optional := 0
	for _, field := range c.Fields {
		if field.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if _, ok := seen[field.Name]; ok {
			return fmt.Errorf("field %q is defined twice", field.Name)
		}
		seen[field.Name] = struct{}{}
		if len(field.Aliases) == 0 {
			return fmt.Errorf("field %q must list at least one alias", field.Name)
		}
		for _, alias := range field.Aliases {
			if owner, ok := aliases[alias]; ok && owner != field.Name {
				return fmt.Errorf("alias %q is shared by fields %q and %q", alias, owner, field.Name)
			}
			aliases[alias] = field.Name
		}
		if field.Generated == (field.Source != "") {
			return fmt.Errorf("field %q must be either generated or mapped from a source column", field.Name)
		}
		switch field.Parse {
		case "", ParseLeadingFloat:
		default:
			return fmt.Errorf("field %q has unsupported parse mode %q", field.Name, field.Parse)
		}
		if !field.Required {
			optional++
		}
	}
	if optional == 0 {
		return fmt.Errorf("at least one optional field must be defined")
	}
	return nil
}

func (c Catalog) field(name string) (FieldSpec, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}
