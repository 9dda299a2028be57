package recipe

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/serpent-go/boulder/pkg/macro"
)

// ErrNoSupportedTarget is returned by Build when a recipe names
// architectures none of which resolve against the host, per spec.md §7
// ("Plan errors... no supported target... surfaced with the recipe
// field at fault").
type ErrNoSupportedTarget struct {
	Host          Architecture
	Architectures []string
}

func (e *ErrNoSupportedTarget) Error() string {
	return fmt.Sprintf("recipe field \"architectures\": %s matches no target supported on host %s",
		strings.Join(e.Architectures, ", "), e.Host)
}

// Targets enumerates the build targets for a recipe against a host
// architecture, per spec.md §4.2: if the recipe names no architectures,
// targets are {Native(host)} plus {Emul32(host)} when the recipe sets
// the emul32 flag and the host supports it; otherwise the listed
// architectures are filtered against the host, with pseudonyms "native"
// and "emul32" expanding appropriately.
func Targets(r *Recipe, host Architecture) []BuildTarget {
	if len(r.Architectures) == 0 {
		targets := []BuildTarget{Native(host)}
		if r.Emul32 && host.SupportsEmul32() {
			targets = append(targets, Emul32Target(host))
		}
		return targets
	}

	var targets []BuildTarget
	for _, spec := range r.Architectures {
		switch spec {
		case "native":
			targets = append(targets, Native(host))
		case "emul32":
			if host.SupportsEmul32() {
				targets = append(targets, Emul32Target(host))
			}
		case string(host):
			targets = append(targets, Native(host))
		}
	}
	return lo.Uniq(targets)
}

// BuildDefinitionFor resolves the most specific build profile for a
// target, per spec.md §4.2: keyed by the exact target string, else by
// "emul32" for 32-bit targets, else the top-level build section.
func BuildDefinitionFor(r *Recipe, target BuildTarget) BuildDefinition {
	if r.Profiles != nil {
		if def, ok := r.Profiles[target.String()]; ok {
			return def
		}
		if target.Emul32 {
			if def, ok := r.Profiles["emul32"]; ok {
				return def
			}
		}
	}
	return r.Build
}

// Build constructs the immutable job plan: one job per (target, stage)
// pair. Each phase script is the stage-specific injection followed by
// the recipe's phase body, macro-expanded against the merged global,
// per-architecture and recipe macro tables (spec.md §4.2, "Phase
// scripts"). Neither macro definitions nor tuning flags are written
// into the script.
func Build(r *Recipe, host Architecture, globalMacros, archMacros map[Architecture]macro.Table) (*Plan, error) {
	plan := &Plan{}

	targets := Targets(r, host)
	if len(targets) == 0 {
		return nil, &ErrNoSupportedTarget{Host: host, Architectures: r.Architectures}
	}

	for _, target := range targets {
		def := BuildDefinitionFor(r, target)
		stages := Stages(def, r.Toolchain, r.CSPGO)

		if len(stages) == 0 {
			job, err := newJob(r, target, nil, def, globalMacros, archMacros)
			if err != nil {
				return nil, err
			}
			plan.Jobs = append(plan.Jobs, job)
			continue
		}

		for i := range stages {
			stage := stages[i]
			job, err := newJob(r, target, &stage, def, globalMacros, archMacros)
			if err != nil {
				return nil, err
			}
			plan.Jobs = append(plan.Jobs, job)
		}
	}

	return plan, nil
}

func newJob(r *Recipe, target BuildTarget, stage *PGOStage, def BuildDefinition, globalMacros, archMacros map[Architecture]macro.Table) (*Job, error) {
	table := macro.Table{}
	for k, v := range globalMacros[""] {
		table[k] = v
	}
	for k, v := range archMacros[target.Arch] {
		table[k] = v
	}
	for k, v := range r.Macros {
		table[k] = v
	}
	table["name"] = r.Name
	table["version"] = r.Version
	table["release"] = fmt.Sprintf("%d", r.Release)

	scripts := map[Phase]string{}
	scripts[PhaseFetch] = hardcodedFetchScript()
	scripts[PhasePrepare] = hardcodedPrepareScript()

	phaseBodies := map[Phase]string{
		PhaseSetup:   def.Setup,
		PhaseBuild:   def.Build,
		PhaseInstall: def.Install,
		PhaseCheck:   def.Check,
	}

	for _, phase := range []Phase{PhaseSetup, PhaseBuild, PhaseInstall, PhaseCheck} {
		body := phaseBodies[phase]
		if body == "" {
			continue
		}
		full := stageInjection(stage) + body
		expanded, err := macro.Expand(full, table)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", phase, err)
		}
		scripts[phase] = expanded
	}

	job := &Job{
		Target:  target,
		Stage:   stage,
		Scripts: scripts,
	}
	return job, nil
}

// stageInjection prepends the stage-specific compiler/linker flag
// injection described in spec.md §4.2 ahead of the recipe's phase body.
func stageInjection(stage *PGOStage) string {
	if stage == nil {
		return ""
	}
	switch *stage {
	case StageOne:
		return "export CFLAGS=\"$CFLAGS -fprofile-generate\"\n"
	case StageTwo:
		return "export CFLAGS=\"$CFLAGS -fcs-profile-generate\"\n"
	case StageUse:
		return "export CFLAGS=\"$CFLAGS -fprofile-use\"\n"
	}
	return ""
}

func hardcodedFetchScript() string {
	return "#!/usr/bin/env bash\nset -e\nboulder-fetch-upstreams\n"
}

func hardcodedPrepareScript() string {
	return "#!/usr/bin/env bash\nset -e\nboulder-extract-upstreams\n"
}
