package recipe

// Job is the tuple of spec.md §3: (BuildTarget, Option<PGOStage>,
// working_dir, install_dir, scripts_by_phase). A target produces exactly
// one job per required stage, or one job with no stage when PGO doesn't
// apply.
type Job struct {
	Target BuildTarget
	Stage  *PGOStage // nil when PGO is inapplicable

	WorkingDir string
	InstallDir string

	Scripts map[Phase]string // absent entry == no-op phase
}

// StageDir is the PGO-stage-qualified subdirectory name for this job's
// working directory, or "" when PGO doesn't apply.
func (j *Job) StageDir() string {
	if j.Stage == nil {
		return ""
	}
	return j.Stage.DirName()
}

// Plan is the immutable job plan built once at setup (spec.md §3,
// "Lifecycle").
type Plan struct {
	Jobs []*Job
}
