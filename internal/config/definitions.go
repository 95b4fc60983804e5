package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"storefront-kit/internal/domain"
)

// Definitions declares which metafields and cart attributes are requested
// and how they are cast.
type Definitions struct {
	ProductMetafields    []domain.FieldDefinition         `yaml:"productMetafields"`
	VariantMetafields    []domain.FieldDefinition         `yaml:"variantMetafields"`
	CollectionMetafields []domain.FieldDefinition         `yaml:"collectionMetafields"`
	CartAttributes       []domain.CartAttributeDefinition `yaml:"cartAttributes"`
}

// LoadDefinitions reads a YAML definitions file. An empty path yields empty
// definitions.
func LoadDefinitions(path string) (Definitions, error) {
	if path == "" {
		return Definitions{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("read definitions: %w", err)
	}
	return ParseDefinitions(raw)
}

func ParseDefinitions(raw []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return Definitions{}, fmt.Errorf("parse definitions: %w", err)
	}
	if err := defs.Validate(); err != nil {
		return Definitions{}, err
	}
	return defs, nil
}

func (d Definitions) Validate() error {
	groups := []struct {
		name string
		defs []domain.FieldDefinition
	}{
		{"productMetafields", d.ProductMetafields},
		{"variantMetafields", d.VariantMetafields},
		{"collectionMetafields", d.CollectionMetafields},
	}
	for _, g := range groups {
		for i, def := range g.defs {
			if err := def.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", g.name, i, err)
			}
		}
	}
	seen := make(map[string]struct{}, len(d.CartAttributes))
	for i, def := range d.CartAttributes {
		if strings.TrimSpace(def.Key) == "" {
			return fmt.Errorf("cartAttributes[%d]: %w: key required", i, domain.ErrInvalidInput)
		}
		if !def.Type.Known() {
			return fmt.Errorf("cartAttributes[%d]: %w: unknown type %q", i, domain.ErrInvalidInput, def.Type)
		}
		if _, dup := seen[def.Key]; dup {
			return fmt.Errorf("cartAttributes[%d]: %w: duplicate key %q", i, domain.ErrInvalidInput, def.Key)
		}
		seen[def.Key] = struct{}{}
	}
	return nil
}
