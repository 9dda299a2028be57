package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/samber/lo"

	"github.com/serpent-go/boulder/pkg/app"
	"github.com/serpent-go/boulder/pkg/config"
	"github.com/serpent-go/boulder/pkg/container"
	"github.com/serpent-go/boulder/pkg/utils"
)

const DEFAULT_VERSION = "unversioned"

var (
	commit  string
	version = DEFAULT_VERSION

	debuggingFlag = false

	recipePath    = "./stone.yml"
	outDir        = ""
	profile       = ""
	compilerCache = false
	update        = false

	profileAction = ""

	recipeAction    = ""
	draftSourceDir  = "."
	draftName       = ""
	draftVersion    = ""
	draftHomepage   = ""
	draftOutputPath = ""
)

func main() {
	// The re-exec entry point: when argv[0] names a registered entry
	// point (a namespace child re-executed by pkg/container), Init runs
	// that handler and never returns (pkg/container/reexec.go).
	if container.Init() {
		return
	}

	updateBuildInfo()

	buildCmd := flaggy.NewSubcommand("build")
	buildCmd.Description = "Build a recipe into one or more .stone packages"
	buildCmd.AddPositionalValue(&recipePath, "recipe", 1, false, "path to the recipe document (default ./stone.yml)")
	buildCmd.String(&outDir, "o", "output", "output directory for emitted packages (default: cache artefacts dir)")
	buildCmd.String(&profile, "p", "profile", "profile identifier")
	buildCmd.Bool(&compilerCache, "", "compiler-cache", "enable the shared ccache compiler cache")
	buildCmd.Bool(&update, "u", "update", "re-fetch upstreams before building")

	chrootCmd := flaggy.NewSubcommand("chroot")
	chrootCmd.Description = "Enter the last-used rootfs interactively"

	profileCmd := flaggy.NewSubcommand("profile")
	profileCmd.Description = "Manage build profiles (list|add|update)"
	profileCmd.AddPositionalValue(&profileAction, "action", 1, true, "list, add, or update")

	recipeCmd := flaggy.NewSubcommand("recipe")
	recipeCmd.Description = "Recipe authoring helpers (new|bump|update|macros)"
	recipeCmd.AddPositionalValue(&recipeAction, "action", 1, true, "new, bump, update, or macros")
	recipeCmd.String(&draftSourceDir, "s", "source", "extracted upstream source tree to inspect (for 'new')")
	recipeCmd.String(&draftName, "", "name", "source name (for 'new')")
	recipeCmd.String(&draftVersion, "", "version", "source version (for 'new')")
	recipeCmd.String(&draftHomepage, "", "homepage", "project homepage (for 'new')")
	recipeCmd.String(&draftOutputPath, "o", "output", "output path for the drafted recipe (default ./stone.yml)")

	versionCmd := flaggy.NewSubcommand("version")
	versionCmd.Description = "Print version information"

	flaggy.SetName("boulder")
	flaggy.SetDescription("Builds source packages into binary .stone archives")
	flaggy.Bool(&debuggingFlag, "d", "debug", "enable verbose logging")
	flaggy.SetVersion(version)

	flaggy.AttachSubcommand(buildCmd, 1)
	flaggy.AttachSubcommand(chrootCmd, 1)
	flaggy.AttachSubcommand(profileCmd, 1)
	flaggy.AttachSubcommand(recipeCmd, 1)
	flaggy.AttachSubcommand(versionCmd, 1)

	flaggy.Parse()

	installSignalHandler()

	appConfig, err := config.NewAppConfig("boulder", version, commit, debuggingFlag)
	if err != nil {
		fatal(err)
	}

	a := app.NewApp(appConfig)

	switch {
	case buildCmd.Used:
		err = a.Build(app.BuildOptions{
			RecipePath:    recipePath,
			OutDir:        outDir,
			Profile:       profile,
			CompilerCache: compilerCache,
			Update:        update,
		})
	case chrootCmd.Used:
		err = a.Chroot()
	case profileCmd.Used:
		err = a.Profile(profileAction)
	case recipeCmd.Used:
		err = dispatchRecipe(a)
	case versionCmd.Used:
		printVersion()
	default:
		flaggy.ShowHelpAndExit("")
	}

	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		fatal(err)
	}
}

func dispatchRecipe(a *app.App) error {
	if recipeAction == "new" {
		return a.RecipeNew(app.RecipeNewOptions{
			SourceDir: draftSourceDir,
			Name:      draftName,
			Version:   draftVersion,
			Homepage:  draftHomepage,
			OutPath:   draftOutputPath,
		})
	}
	return a.RecipeMaintenance(recipeAction)
}

func printVersion() {
	fmt.Printf("boulder %s\nCommit: %s\nOS: %s\nArch: %s\n", version, commit, runtime.GOOS, runtime.GOARCH)
}

// installSignalHandler exits with code 2 on user cancellation (spec.md
// §6, "Exit codes... 2 user-cancelled"). The running container's own
// process supervision (pkg/container/signal.go) forwards the signal
// into the confined phase; this handler covers cancellation observed
// between phases, at plan/collect/bucket/analysis/emit boundaries.
func installSignalHandler() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "cancelled")
		os.Exit(2)
	}()
}

// fatal prints the red `Error:` line and the chain of causes
// (errors.Wrap, ErrorStack), per boulder's error taxonomy (spec.md §7).
func fatal(err error) {
	wrapped := errors.Wrap(err, 0)
	color.Red("Error: %s", causeChain(wrapped))
	if debuggingFlag {
		fmt.Fprintln(os.Stderr, wrapped.ErrorStack())
	}
	os.Exit(1)
}

func causeChain(err error) string {
	var parts []string
	for err != nil {
		msg := err.Error()
		if len(parts) == 0 || parts[len(parts)-1] != msg {
			parts = append(parts, msg)
		}
		unwrapped := stderrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}
	return strings.Join(parts, ": ")
}

func updateBuildInfo() {
	if version == DEFAULT_VERSION {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			revision, ok := lo.Find(buildInfo.Settings, func(setting debug.BuildSetting) bool {
				return setting.Key == "vcs.revision"
			})
			if ok {
				commit = revision.Value
				// if boulder was built from source we'll show the version as the
				// abbreviated commit hash
				version = utils.SafeTruncate(revision.Value, 7)
			}
		}
	}
}
