package recipe

// PGOStage is the ordered enum of spec.md §3. Stage comparisons rely on
// the declaration order (One < Two < Use).
type PGOStage uint8

const (
	StageOne PGOStage = iota
	StageTwo
	StageUse
)

// DirName is the canonical stage → directory-name mapping fixed by
// spec.md §9 ("Open questions"), correcting the historical Stage::Two
// display collision in original_source.
func (s PGOStage) DirName() string {
	switch s {
	case StageOne:
		return "stage1"
	case StageTwo:
		return "stage2"
	case StageUse:
		return "use"
	default:
		return "unknown"
	}
}

func (s PGOStage) String() string { return s.DirName() }

// Stages returns the PGO stage list for a target's resolved build
// definition, per spec.md §4.2 "PGO staging": non-empty iff the
// definition has a Workload section; Stage::Two is inserted only under
// LLVM + cspgo. Returns nil for non-PGO targets (a single untagged job).
func Stages(build BuildDefinition, toolchain Toolchain, cspgo bool) []PGOStage {
	if build.Workload == nil {
		return nil
	}
	stages := []PGOStage{StageOne}
	if toolchain == ToolchainLLVM && cspgo {
		stages = append(stages, StageTwo)
	}
	stages = append(stages, StageUse)
	return stages
}
