package draft

import (
	"fmt"
	"sort"
	"strings"

	"github.com/serpent-go/boulder/pkg/capability"
)

// Source identifies the upstream project a draft recipe is for.
type Source struct {
	Name      string
	Version   string
	Homepage  string
	Upstreams []string
}

// Recipe renders a starting recipe document for source, using the
// detected build system's phases and harvested dependencies (spec.md
// §3's recipe shape; template text mirrors draft.rs's format! literal).
// Undetected systems fall back to autotools, per draft.rs's own
// "Unhandled build system! - Defaulting to autotools" behavior — callers
// should warn the user when detected is false.
func Recipe(src Source, system System, deps []capability.Capability) string {
	var b strings.Builder

	fmt.Fprintf(&b, "#\n# SPDX-FileCopyrightText: © Serpent OS Developers\n#\n# SPDX-License-Identifier: MPL-2.0\n#\n")
	fmt.Fprintf(&b, "name        : %s\n", src.Name)
	fmt.Fprintf(&b, "version     : %s\n", src.Version)
	fmt.Fprintf(&b, "release     : 1\n")
	fmt.Fprintf(&b, "homepage    : %s\n", src.Homepage)
	fmt.Fprintf(&b, "upstreams   :\n")
	for _, u := range src.Upstreams {
		fmt.Fprintf(&b, "    - %s\n", u)
	}
	fmt.Fprintf(&b, "summary     : UPDATE SUMMARY\n")
	fmt.Fprintf(&b, "description : |\n    UPDATE DESCRIPTION\n")
	fmt.Fprintf(&b, "license     : UPDATE LICENSE\n")

	if bd := buildDepsBlock(deps); bd != "" {
		b.WriteString(bd)
	}

	phases := system.Phases()
	if phases.Environment != "" {
		fmt.Fprintf(&b, "environment : |\n    %s\n", strings.ReplaceAll(phases.Environment, "\n", "\n    "))
	}
	if phases.Setup != "" {
		fmt.Fprintf(&b, "setup       : %s\n", phases.Setup)
	}
	if phases.Build != "" {
		fmt.Fprintf(&b, "build       : %s\n", phases.Build)
	}
	if phases.Install != "" {
		fmt.Fprintf(&b, "install     : %s\n", phases.Install)
	}
	if phases.Check != "" {
		fmt.Fprintf(&b, "check       : %s\n", phases.Check)
	}

	return b.String()
}

func buildDepsBlock(deps []capability.Capability) string {
	if len(deps) == 0 {
		return ""
	}
	lines := make([]string, 0, len(deps))
	for _, d := range deps {
		lines = append(lines, "    - "+d.String())
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString("builddeps   :\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}
