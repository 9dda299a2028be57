package recipe

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Load reads and struct-tag-decodes a recipe document from path. This is
// a thin data-shape decode, not the recipe parser spec.md §6 calls an
// out-of-scope collaborator: it has no opinion on macro expansion,
// conditional profile selection, or upstream template syntax — it just
// turns YAML keys into the Recipe struct's fields, the same way
// pkg/config decodes macro definition files (macros.go).
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	r.PackageOrder = packageOrder(data)
	return &r, nil
}

// packageOrder recovers the declaration order of the top-level
// packages: mapping, since decoding straight into Recipe.Packages loses
// it to Go's randomized map iteration.
func packageOrder(data []byte) []string {
	var doc struct {
		Packages yaml.MapSlice `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	order := make([]string, 0, len(doc.Packages))
	for _, item := range doc.Packages {
		if name, ok := item.Key.(string); ok {
			order = append(order, name)
		}
	}
	return order
}
