//go:build linux

package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"

	"github.com/serpent-go/boulder/pkg/container"
	"github.com/serpent-go/boulder/pkg/recipe"
)

// scriptGuestPath is the fixed guest-visible location the executor
// writes each phase's synthesized script to before sourcing it
// (spec.md §4.4). It sits at the top of the rootfs, which no bind
// mount covers.
const scriptGuestPath = "/.boulder-phase.sh"

// Executor runs a job plan's phases inside the container runtime.
type Executor struct {
	Log        *logrus.Entry
	Timing     *Timing
	SubUIDPath string
	SubGIDPath string
	Networking bool
}

// NewExecutor builds an Executor with the default subordinate-id
// database paths.
func NewExecutor(log *logrus.Entry) *Executor {
	return &Executor{
		Log:        log,
		Timing:     NewTiming(),
		SubUIDPath: "/etc/subuid",
		SubGIDPath: "/etc/subgid",
	}
}

// Run executes every job in plan in order. A job's failing phase aborts
// the whole plan immediately; the install tree is left as-is for
// inspection (spec.md §4.4 "Failure").
func (e *Executor) Run(paths *recipe.Paths, plan *recipe.Plan) error {
	for _, job := range plan.Jobs {
		if err := e.runJob(paths, job); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runJob(paths *recipe.Paths, job *recipe.Job) error {
	for _, phase := range recipe.Phases {
		script, ok := job.Scripts[phase]
		if !ok {
			continue
		}

		stop := e.Timing.Start(job.Target, job.StageDir(), phase)
		err := e.runPhase(paths, job, phase, script)
		stop()

		if err != nil {
			return errors.Errorf("build: phase %s (target %s, stage %s) failed: %w",
				phase, job.Target, job.StageDir(), err)
		}
	}
	return nil
}

func (e *Executor) runPhase(paths *recipe.Paths, job *recipe.Job, phase recipe.Phase, script string) error {
	e.Log.WithFields(logrus.Fields{
		"target": job.Target.String(),
		"stage":  job.StageDir(),
		"phase":  phase.String(),
	}).Info("running phase")

	hostScript := paths.GuestHostPath(scriptGuestPath)
	if err := os.MkdirAll(filepath.Dir(hostScript), 0o755); err != nil {
		return errors.Errorf("build: mkdir phase script dir: %w", err)
	}
	if err := os.WriteFile(hostScript, []byte("set -e\n"+script+"\n"), 0o755); err != nil {
		return errors.Errorf("build: write phase script: %w", err)
	}

	opts := container.Options{
		Rootfs:     paths.Rootfs().Host,
		Networking: e.Networking,
		SubUIDPath: e.SubUIDPath,
		SubGIDPath: e.SubGIDPath,
		Mounts:     e.mounts(paths, job),
	}

	argv := []string{"/bin/sh", "-c", fmt.Sprintf("cd %s && . %s", job.WorkingDir, scriptGuestPath)}
	if err := container.Exec(opts, argv); err != nil {
		return err
	}
	return nil
}

// mounts assembles the recipe (ro), artefacts/build/ccache/upstreams
// (rw) bind mounts every job needs (spec.md §4.3 "Filesystem setup").
func (e *Executor) mounts(paths *recipe.Paths, job *recipe.Job) []container.Mount {
	rw := func(m recipe.Mapping) container.Mount {
		return container.Mount{Host: m.Host, Guest: m.Guest, ReadOnly: false}
	}
	ro := func(m recipe.Mapping) container.Mount {
		return container.Mount{Host: m.Host, Guest: m.Guest, ReadOnly: true}
	}
	return []container.Mount{
		ro(paths.Recipe()),
		rw(paths.Artefacts()),
		rw(paths.Build()),
		rw(paths.Ccache()),
		rw(paths.Upstreams()),
	}
}
