// Package macro implements the %macro_name expansion described in
// spec.md §4.2: resolution is lexical, left-to-right, each %ident is
// replaced by the macro's command string with recursive expansion,
// cycle-detected, and undefined macros are a hard error. It is also
// used by pkg/bucket for %name/%version/%release package-template token
// expansion (spec.md §4.7).
package macro

import (
	"fmt"
	"strings"
)

// Table is a flat macro name → command-string map. Global and
// architecture-specific macro definitions are merged into one Table by
// the caller before expansion (spec.md §4.2, "macro definitions (globals
// + architecture-specific)").
type Table map[string]string

// ErrUndefined is returned (wrapped with the offending name) when a
// script references a macro not present in the table.
type ErrUndefined struct{ Name string }

func (e *ErrUndefined) Error() string { return fmt.Sprintf("undefined macro: %%%s", e.Name) }

// ErrCycle is returned when expanding a macro would recurse into itself.
type ErrCycle struct{ Chain []string }

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("macro expansion cycle: %s", strings.Join(e.Chain, " -> "))
}

// Expand scans body left-to-right and replaces every %ident token with
// the corresponding entry from table, recursively expanding the
// replacement text until no macro references remain.
func Expand(body string, table Table) (string, error) {
	return expand(body, table, nil)
}

func expand(body string, table Table, chain []string) (string, error) {
	var out strings.Builder
	runes := []rune(body)

	for i := 0; i < len(runes); {
		if runes[i] != '%' {
			out.WriteRune(runes[i])
			i++
			continue
		}

		name, width := scanIdent(runes[i+1:])
		if width == 0 {
			out.WriteRune(runes[i])
			i++
			continue
		}

		for _, seen := range chain {
			if seen == name {
				return "", &ErrCycle{Chain: append(append([]string(nil), chain...), name)}
			}
		}

		command, ok := table[name]
		if !ok {
			return "", &ErrUndefined{Name: name}
		}

		expanded, err := expand(command, table, append(chain, name))
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		i += 1 + width
	}

	return out.String(), nil
}

// scanIdent reads a macro identifier (letters, digits, underscore) from
// the start of runes, returning its text and rune width.
func scanIdent(runes []rune) (string, int) {
	n := 0
	for n < len(runes) && isIdentRune(runes[n]) {
		n++
	}
	if n == 0 {
		return "", 0
	}
	return string(runes[:n]), n
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
