// Package recipe models the declarative build input (spec.md §3) and
// turns it into an immutable job plan (spec.md §4.2). The Recipe struct
// itself is treated as parsed input: this package does not implement the
// recipe parser (the macro-script DSL, conditional profile overrides,
// and upstream template grammar are an out-of-scope collaborator per
// spec.md §6) — it accepts an already-decoded Recipe value. Load, in
// load.go, is a thin struct-tag YAML decode used by the CLI to obtain
// that value; it is a boundary convenience, not the recipe parser.
package recipe

import "fmt"

// Toolchain is the compiler toolchain selection of spec.md §3.
type Toolchain uint8

const (
	ToolchainGNU Toolchain = iota
	ToolchainLLVM
)

func (t Toolchain) String() string {
	if t == ToolchainLLVM {
		return "llvm"
	}
	return "gnu"
}

// ErrUnknownToolchain is returned when a recipe names a toolchain other
// than "gnu" or "llvm", per spec.md §7 ("Plan errors... unknown
// toolchain... surfaced with the recipe field at fault"). An empty
// string (the field left unset) defaults to gnu rather than erroring,
// since the zero value of Toolchain is ToolchainGNU.
type ErrUnknownToolchain struct{ Value string }

func (e *ErrUnknownToolchain) Error() string {
	return fmt.Sprintf("recipe field \"toolchain\": unknown toolchain %q (want \"gnu\" or \"llvm\")", e.Value)
}

func (t *Toolchain) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "", "gnu":
		*t = ToolchainGNU
	case "llvm":
		*t = ToolchainLLVM
	default:
		return &ErrUnknownToolchain{Value: s}
	}
	return nil
}

// Upstream is a single upstream source reference: either an archive URI
// with an expected digest, or a VCS pin.
type Upstream struct {
	URI          string `yaml:"uri"`
	Digest       string `yaml:"digest"` // expected digest for archive upstreams
	VCSRef       string `yaml:"ref"`    // non-empty for a VCS pin
	StripDirs    int    `yaml:"strip-dirs"`
	RenameTarget string `yaml:"rename"`
}

// PackageTemplate is a named package definition contributing summary,
// description, run dependencies and ordered glob path rules (spec.md §3,
// §4.7).
type PackageTemplate struct {
	Name        string     `yaml:"name"`
	Summary     string     `yaml:"summary"`
	Description string     `yaml:"description"`
	RunDeps     []string   `yaml:"run-deps"`
	Paths       []GlobRule `yaml:"paths"`
}

// GlobRule is one (pattern, owning_package) rule contributed by a
// package template (spec.md §4.7).
type GlobRule struct {
	Pattern string `yaml:"pattern"`
	Package string `yaml:"package"`
}

// BuildDefinition is the base build section or a per-architecture
// profile override (spec.md §3).
type BuildDefinition struct {
	Setup    string           `yaml:"setup"`
	Build    string           `yaml:"build"`
	Install  string           `yaml:"install"`
	Check    string           `yaml:"check"`
	Workload *WorkloadSection `yaml:"workload"`
}

// WorkloadSection, when present on a BuildDefinition, triggers PGO
// staging for that target (spec.md §4.2, "PGO staging").
type WorkloadSection struct {
	Command string `yaml:"command"`
}

// Recipe is the normalized declarative build spec of spec.md §3.
type Recipe struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Release int    `yaml:"release"`

	Architectures []string `yaml:"architectures"`
	Emul32        bool     `yaml:"emul32"`

	Build    BuildDefinition            `yaml:"build"`
	Profiles map[string]BuildDefinition `yaml:"profiles"` // keyed by target string or "emul32"

	Upstreams []Upstream `yaml:"upstreams"`

	BuildDeps []string `yaml:"build-deps"`
	CheckDeps []string `yaml:"check-deps"`

	Packages map[string]PackageTemplate `yaml:"packages"`
	// PackageOrder preserves the recipe's declaration order for
	// Packages, since Go map iteration is randomized and the bucketer's
	// "insertion reverse" glob scan (spec.md §4.7) depends on it. Load
	// populates it from the decoded document's key order.
	PackageOrder []string `yaml:"-"`

	Toolchain Toolchain `yaml:"toolchain"`
	CSPGO     bool      `yaml:"cspgo"` // context-sensitive PGO: insert Stage::Two under LLVM

	Macros map[string]string `yaml:"macros"`

	Homepage string   `yaml:"homepage"`
	Licenses []string `yaml:"licenses"`
}

// ID is a filesystem-safe identity used to key the per-recipe cache tree
// (spec.md §6, "On-disk layout").
func (r *Recipe) ID() string {
	return r.Name + "-" + r.Version
}
