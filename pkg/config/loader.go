package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Tier is a precedence level in the vendor/admin config merge described
// in SPEC_FULL.md §6 ("Config loader" collaborator).
type Tier struct {
	Dir       string
	DropInDir string
}

// MergeTiers returns the ordered list of config files to apply, lowest
// precedence first: within a tier, drop-ins are applied in lexical
// filename order after the tier's base file; across tiers, admin
// overrides vendor. Caller applies files in the returned order, letting
// later files win field-by-field.
func MergeTiers(app, domain string, tiers []Tier) []string {
	var files []string
	for _, tier := range tiers {
		base := filepath.Join(tier.Dir, app, domain+".conf")
		if fileExists(base) {
			files = append(files, base)
		}
		files = append(files, dropIns(tier.DropInDir)...)
	}
	return files
}

// DefaultTiers returns the standard vendor-then-admin precedence:
// /usr/share/<app>/<domain>.conf, /etc/<app>/<domain>.conf, plus one
// drop-in directory per tier (/usr/share/<app>/conf.d, /etc/<app>/conf.d)
// shared by every domain.
func DefaultTiers(app string) []Tier {
	return []Tier{
		{Dir: "/usr/share", DropInDir: filepath.Join("/usr/share", app, "conf.d")},
		{Dir: "/etc", DropInDir: filepath.Join("/etc", app, "conf.d")},
	}
}

func dropIns(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".conf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(dir, n)
	}
	return files
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
