// Package bucket assigns each collected path to its owning package via
// ordered glob rules, and aggregates the resulting per-package provider,
// dependency, and path-list state (spec.md §4.7).
package bucket

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/collect"
	"github.com/serpent-go/boulder/pkg/macro"
	"github.com/serpent-go/boulder/pkg/recipe"
)

// Bucket is the per-package aggregation of spec.md §3: ordered provider
// and dependency sets plus the list of PathInfo it owns.
type Bucket struct {
	Name        string
	Summary     string
	Description string
	RunDeps     []string

	Providers    capability.Set
	Dependencies capability.Set
	Paths        []collect.PathInfo
}

// Assign scans paths against every package template's glob rules in
// insertion-reverse order (later-declared rules win) and returns one
// Bucket per non-empty owning package, plus the paths that matched no
// rule and have no catch-all to fall back to ("orphaned").
//
// Template fields containing %name/%version/%release tokens are
// expanded once here via pkg/macro, using the recipe's source
// identity (spec.md §4.7 "Template expansion"). Two templates whose
// expanded name collides are merged: run_deps are concatenated and
// sorted unique, and paths (their glob rules) are concatenated and
// sorted by pattern.
func Assign(r *recipe.Recipe, paths []collect.PathInfo) (map[string]*Bucket, []collect.PathInfo) {
	table := macro.Table{
		"name":    r.Name,
		"version": r.Version,
		"release": strconv.Itoa(r.Release),
	}

	merged, order := mergeTemplates(r, table)
	rules := orderedRules(order, merged)

	buckets := make(map[string]*Bucket)
	var orphaned []collect.PathInfo

	hasCatchAll := false
	for _, ru := range rules {
		if ru.Pattern == "*" || ru.Pattern == "**" {
			hasCatchAll = true
		}
	}

	for _, pi := range paths {
		owner, ok := matchOwner(rules, pi.TargetPath)
		if !ok {
			if hasCatchAll {
				owner = r.Name
			} else {
				orphaned = append(orphaned, pi)
				continue
			}
		}
		b, ok := buckets[owner]
		if !ok {
			b = newBucket(owner, merged[owner])
			buckets[owner] = b
		}
		b.Paths = append(b.Paths, pi)
	}

	return buckets, orphaned
}

func newBucket(name string, tmpl *recipe.PackageTemplate) *Bucket {
	b := &Bucket{Name: name}
	if tmpl != nil {
		b.Summary = tmpl.Summary
		b.Description = tmpl.Description
		b.RunDeps = append([]string(nil), tmpl.RunDeps...)
	}
	return b
}

// matchOwner scans rules in insertion-reverse order (spec.md §4.7): a
// rule matches when the pattern equals the path, the path begins with
// the pattern, or the path matches the pattern as a glob.
func matchOwner(rules []recipe.GlobRule, path string) (string, bool) {
	for i := len(rules) - 1; i >= 0; i-- {
		ru := rules[i]
		if ru.Pattern == path {
			return ru.Package, true
		}
		if strings.HasPrefix(path, ru.Pattern) {
			return ru.Package, true
		}
		if ok, err := filepath.Match(ru.Pattern, path); err == nil && ok {
			return ru.Package, true
		}
	}
	return "", false
}

// orderedRules flattens every merged template's glob rules, walking
// templates in expanded-name first-declaration order and each
// template's own rule order, so that matchOwner's reverse scan sees
// rules in true insertion order.
func orderedRules(order []string, merged map[string]*recipe.PackageTemplate) []recipe.GlobRule {
	var rules []recipe.GlobRule
	for _, name := range order {
		tmpl, ok := merged[name]
		if !ok {
			continue
		}
		rules = append(rules, tmpl.Paths...)
	}
	return rules
}

// mergeTemplates expands %name/%version/%release tokens in every
// template's Name and textual fields and merges templates whose
// expanded name collides. It returns the merged-by-expanded-name map
// plus that name's first-occurrence order.
func mergeTemplates(r *recipe.Recipe, table macro.Table) (map[string]*recipe.PackageTemplate, []string) {
	merged := make(map[string]*recipe.PackageTemplate)
	var order []string

	for _, key := range r.PackageOrder {
		tmpl := r.Packages[key]
		expandedName := mustExpand(tmpl.Name, table)

		summary := mustExpand(tmpl.Summary, table)
		description := mustExpand(tmpl.Description, table)
		runDeps := make([]string, len(tmpl.RunDeps))
		for i, d := range tmpl.RunDeps {
			runDeps[i] = mustExpand(d, table)
		}

		existing, ok := merged[expandedName]
		if !ok {
			merged[expandedName] = &recipe.PackageTemplate{
				Name:        expandedName,
				Summary:     summary,
				Description: description,
				RunDeps:     sortUnique(runDeps),
				Paths:       append([]recipe.GlobRule(nil), tmpl.Paths...),
			}
			order = append(order, expandedName)
			continue
		}

		existing.RunDeps = sortUnique(append(existing.RunDeps, runDeps...))
		existing.Paths = sortByPattern(append(existing.Paths, tmpl.Paths...))
	}

	return merged, order
}

func mustExpand(s string, table macro.Table) string {
	expanded, err := macro.Expand(s, table)
	if err != nil {
		return s
	}
	return expanded
}

func sortUnique(items []string) []string {
	out := lo.Uniq(items)
	sort.Strings(out)
	return out
}

func sortByPattern(rules []recipe.GlobRule) []recipe.GlobRule {
	out := append([]recipe.GlobRule(nil), rules...)
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

