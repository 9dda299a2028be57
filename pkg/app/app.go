// Package app bootstraps a boulder invocation and holds the entry
// points the CLI subcommands (main.go) delegate into immediately
// (SPEC_FULL.md §2 "cmd root", §6 "CLI — builder"). It owns the
// pipeline orchestration: recipe → plan → execute → collect → bucket →
// analyze → emit.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"

	"github.com/serpent-go/boulder/pkg/analysis"
	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/build"
	"github.com/serpent-go/boulder/pkg/collect"
	"github.com/serpent-go/boulder/pkg/config"
	"github.com/serpent-go/boulder/pkg/emit"
	applog "github.com/serpent-go/boulder/pkg/log"
	"github.com/serpent-go/boulder/pkg/macro"
	"github.com/serpent-go/boulder/pkg/recipe"
	"github.com/serpent-go/boulder/pkg/utils"
)

// App bundles the config and logger every subcommand shares, plus a
// Guard collecting cleanup actions (rootfs locks) acquired along the
// way (§9 "Resource lifetime").
type App struct {
	Config *config.AppConfig
	Log    *logrus.Entry
	Guard  *utils.Guard
}

func NewApp(cfg *config.AppConfig) *App {
	return &App{
		Config: cfg,
		Log:    applog.NewLogger(cfg),
		Guard:  &utils.Guard{},
	}
}

// Close releases everything the app deferred on its Guard (the rootfs
// lock), in reverse order.
func (a *App) Close() error { return a.Guard.Close() }

// BuildOptions carries the `build` subcommand's parsed flags (spec.md
// §6: recipe path, output directory, profile identifier, --compiler-
// cache, --update).
type BuildOptions struct {
	RecipePath    string
	OutDir        string
	Profile       string
	CompilerCache bool
	Update        bool
}

// Build runs one recipe through the full pipeline (SPEC_FULL.md §2's
// component table, in order): plan the job graph, execute it inside the
// container runtime, collect the install tree, assign paths to package
// buckets, run the analysis chain over each bucket, then emit stones
// and manifests.
func (a *App) Build(opts BuildOptions) error {
	r, err := recipe.Load(opts.RecipePath)
	if err != nil {
		return errors.Errorf("app: load recipe %s: %w", opts.RecipePath, err)
	}

	host, err := hostArchitecture()
	if err != nil {
		return err
	}

	layout, err := a.Config.Layout(r.ID())
	if err != nil {
		return errors.Errorf("app: prepare cache layout: %w", err)
	}

	unlock, err := lockRootfs(layout.RootDir)
	if err != nil {
		return err
	}
	a.Guard.Defer(func() error { unlock(); return nil })

	if err := a.rememberLastRecipe(r.ID()); err != nil {
		a.Log.WithError(err).Warn("could not record last-used recipe")
	}

	globalMacros, archMacros, err := a.loadMacros(host)
	if err != nil {
		return err
	}

	plan, err := recipe.Build(r, host, globalMacros, archMacros)
	if err != nil {
		return errors.Errorf("app: plan build: %w", err)
	}

	recipeDir, err := filepath.Abs(filepath.Dir(opts.RecipePath))
	if err != nil {
		return errors.Errorf("app: resolve recipe directory: %w", err)
	}
	paths := recipe.NewPaths(r.ID(), recipeDir, a.Config.CacheDir, "/")
	wireJobPaths(plan, paths)
	injectSourceDateEpoch(plan, a.Config.SourceDateEpoch)

	if opts.CompilerCache {
		a.Log.Info("compiler cache enabled")
	}
	if opts.Update {
		a.Log.Info("update requested: upstreams will be re-fetched")
	}

	executor := build.NewExecutor(a.Log)
	if err := executor.Run(paths, plan); err != nil {
		return err
	}

	installPaths, err := collect.Walk(paths.Install().Host)
	if err != nil {
		return errors.Errorf("app: collect install tree: %w", err)
	}

	buckets, unmatched := bucket.Assign(r, installPaths)
	for _, pi := range unmatched {
		a.Log.WithField("path", pi.TargetPath).Warn("path unmatched by any package rule")
	}

	chain := analysis.Default()
	for _, name := range sortedBucketNames(buckets) {
		b := buckets[name]
		ignored, err := chain.Run(b)
		if err != nil {
			return errors.Errorf("app: analyze bucket %s: %w", name, err)
		}
		for _, ig := range ignored {
			a.Log.WithField("path", ig.Path.TargetPath).Warn(ig.Reason)
		}
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = layout.ArtefactsDir
	}
	result, err := emit.Emit(outDir, r, string(host), buckets)
	if err != nil {
		return errors.Errorf("app: emit packages: %w", err)
	}

	if report, err := executor.Timing.Render(); err == nil {
		fmt.Println(report)
	}
	a.Log.WithFields(logrus.Fields{
		"packages": result.PackageFiles,
		"manifest": result.YAMLManifestFile,
	}).Info("build complete")

	return nil
}

// wireJobPaths resolves each job's guest-visible working and install
// directories from the recipe's path mapping; plan.Build leaves these
// unset since Paths depends on the cache layout the plan itself doesn't
// know about.
func wireJobPaths(plan *recipe.Plan, paths *recipe.Paths) {
	for _, job := range plan.Jobs {
		dir := paths.Build().Guest
		if sd := job.StageDir(); sd != "" {
			dir = filepath.Join(dir, sd)
		}
		job.WorkingDir = dir
		job.InstallDir = paths.Install().Guest
	}
}

// injectSourceDateEpoch prepends an export of SOURCE_DATE_EPOCH to
// every phase script when the environment set one, so reproducible
// builds see it (spec.md §6, "Recognized environment").
func injectSourceDateEpoch(plan *recipe.Plan, epoch string) {
	if epoch == "" {
		return
	}
	prefix := "export SOURCE_DATE_EPOCH=" + epoch + "\n"
	for _, job := range plan.Jobs {
		for phase, script := range job.Scripts {
			job.Scripts[phase] = prefix + script
		}
	}
}

func sortedBucketNames(buckets map[string]*bucket.Bucket) []string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hostArchitecture maps the Go runtime's GOARCH onto the architectures
// spec.md §3 recognizes.
func hostArchitecture() (recipe.Architecture, error) {
	switch runtime.GOARCH {
	case "amd64":
		return recipe.ArchX86_64, nil
	case "386":
		return recipe.ArchX86, nil
	case "arm64":
		return recipe.ArchAarch64, nil
	default:
		return "", errors.Errorf("app: unsupported host architecture %q", runtime.GOARCH)
	}
}

// loadMacros resolves the global and host-architecture macro tiers
// through the vendor/admin/drop-in config loader (pkg/config, spec.md
// §6 "Config loader" collaborator), merging each tier's files in
// precedence order.
func (a *App) loadMacros(host recipe.Architecture) (map[recipe.Architecture]macro.Table, map[recipe.Architecture]macro.Table, error) {
	tiers := config.DefaultTiers(a.Config.Name)

	globalTable, err := config.LoadMacros(config.MergeTiers(a.Config.Name, "macros", tiers))
	if err != nil {
		return nil, nil, errors.Errorf("app: load global macros: %w", err)
	}

	archTable, err := config.LoadMacros(config.MergeTiers(a.Config.Name, "macros."+string(host), tiers))
	if err != nil {
		return nil, nil, errors.Errorf("app: load %s macros: %w", host, err)
	}

	return map[recipe.Architecture]macro.Table{"": globalTable},
		map[recipe.Architecture]macro.Table{host: archTable},
		nil
}

// lastRecipePath names the file recording the most recently built
// recipe id, consulted by `chroot` (spec.md §6, "enter the last-used
// rootfs interactively").
func (a *App) lastRecipePath() string {
	return filepath.Join(a.Config.CacheDir, "last-recipe")
}

func (a *App) rememberLastRecipe(id string) error {
	return os.WriteFile(a.lastRecipePath(), []byte(id), 0o644)
}
