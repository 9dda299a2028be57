// Package analysis runs a fixed ordered chain of handlers against each
// collected path, deciding inclusion/exclusion and populating a
// bucket's provider/dependency sets (spec.md §4.6).
package analysis

import (
	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/collect"
)

// Result is what a handler decides for one path.
type Result uint8

const (
	// NextHandler continues the chain to the next handler.
	NextHandler Result = iota
	// IgnoreFile drops the path with a reason; no later handler runs.
	IgnoreFile
	// IncludeFile accepts the path; no later handler runs.
	IncludeFile
)

// Handler is one link in the chain: it may mutate b's provider/
// dependency sets and pi's fields, and may enqueue newly-generated
// paths (e.g. split debuginfo) via enqueue. Per spec.md §9 "Polymorphic
// dispatch", this is a plain function value, not an interface
// hierarchy.
type Handler func(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error)

// Ignored records one dropped path and why.
type Ignored struct {
	Path   collect.PathInfo
	Reason string
}

// Chain is the fixed ordered handler list of spec.md §4.6.
type Chain struct {
	Handlers []Handler
}

// Default returns the canonical handler order: ignore_blocked, binary,
// elf, pkg_config, cmake, font, include_any.
func Default() *Chain {
	return &Chain{Handlers: []Handler{
		IgnoreBlocked,
		Binary,
		ELF,
		PkgConfig,
		CMake,
		Font,
		IncludeAny,
	}}
}

// Run processes every path currently in b.Paths (plus any enqueued
// during processing) through the chain, replacing b.Paths with the
// included set and returning the dropped ones. A file is included at
// most once (spec.md §4.6 "Invariants").
func (c *Chain) Run(b *bucket.Bucket) ([]Ignored, error) {
	queue := append([]collect.PathInfo(nil), b.Paths...)
	var included []collect.PathInfo
	var ignored []Ignored

	enqueue := func(pi collect.PathInfo) { queue = append(queue, pi) }

	for i := 0; i < len(queue); i++ {
		pi := queue[i]

		var result Result
		var reason string
		var err error
		for _, h := range c.Handlers {
			result, reason, err = h(b, &pi, enqueue)
			if err != nil {
				return ignored, err
			}
			if result != NextHandler {
				break
			}
		}

		switch result {
		case IgnoreFile:
			ignored = append(ignored, Ignored{Path: pi, Reason: reason})
		default:
			included = append(included, pi)
		}
	}

	b.Paths = included
	return ignored, nil
}
