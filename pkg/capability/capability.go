// Package capability implements the Provider/Dependency records of
// spec.md §3: symbolic capabilities of the form kind(name) that a
// package exports or requires.
package capability

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Kind enumerates the recognized capability kinds.
type Kind uint8

const (
	PackageName Kind = iota
	SharedLibrary
	PkgConfig
	PkgConfig32
	CMake
	Interpreter
	Python
	Binary
	SystemBinary
	Font
)

func (k Kind) String() string {
	switch k {
	case PackageName:
		return "package-name"
	case SharedLibrary:
		return "shared-library"
	case PkgConfig:
		return "pkg-config"
	case PkgConfig32:
		return "pkg-config-32"
	case CMake:
		return "cmake"
	case Interpreter:
		return "interpreter"
	case Python:
		return "python"
	case Binary:
		return "binary"
	case SystemBinary:
		return "system-binary"
	case Font:
		return "font"
	default:
		return "unknown"
	}
}

// Capability is a Provider or Dependency record. Equality is string-equal
// on kind(name), per spec.md §3.
type Capability struct {
	Kind Kind
	Name string
}

func (c Capability) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.Name)
}

// Set is an insertion-ordered, deduplicated list of capabilities: the
// "ordered provider set" / "ordered dependency set" of spec.md §3's
// Bucket definition.
type Set struct {
	items []Capability
	seen  map[string]struct{}
}

// Insert adds c if it isn't already present, preserving insertion order.
func (s *Set) Insert(c Capability) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	key := c.String()
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, c)
}

// Items returns the set contents in insertion order.
func (s *Set) Items() []Capability {
	return s.items
}

// Sorted returns the set contents sorted by string form, used when
// emitting Meta payload provider/dependency lists (spec.md §4.8 step 3).
func (s *Set) Sorted() []Capability {
	out := append([]Capability(nil), s.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Scrub removes from deps every capability also present among provides —
// the "self-satisfying dependency" rule of spec.md §3 and §8.
func Scrub(deps, provides []Capability) []Capability {
	providedKeys := lo.SliceToMap(provides, func(c Capability) (string, struct{}) {
		return c.String(), struct{}{}
	})
	return lo.Filter(deps, func(d Capability, _ int) bool {
		_, provided := providedKeys[d.String()]
		return !provided
	})
}
