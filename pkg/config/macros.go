package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/serpent-go/boulder/pkg/macro"
)

// LoadMacros merges a set of macro definition files (each a flat
// "name: command" YAML mapping) into one Table, later files overriding
// earlier ones — the same tier-precedence shape MergeTiers already
// establishes for vendor/admin/.conf files (spec.md §4.2, "macro
// definitions (globals + architecture-specific)").
func LoadMacros(files []string) (macro.Table, error) {
	table := macro.Table{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		var tier map[string]string
		if err := yaml.Unmarshal(data, &tier); err != nil {
			return nil, err
		}
		for k, v := range tier {
			table[k] = v
		}
	}
	return table, nil
}
