package draft

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/serpent-go/boulder/pkg/capability"
)

// File is one file found under an extracted upstream archive, carrying
// enough context (its depth relative to the archive root) for detectors
// to distinguish a project's own build files from a vendored
// dependency's (spec.md's draft.rs "File::depth").
type File struct {
	Path        string
	ExtractRoot string
}

// Depth returns the file's distance from the archive root, where the
// archive's own top-level directory is depth 0 (mirrors draft.rs's
// "subtract 2" adjustment for the extract root and the archive's own
// wrapping directory).
func (f File) Depth() int {
	rel, err := filepath.Rel(f.ExtractRoot, f.Path)
	if err != nil {
		rel = f.Path
	}
	depth := strings.Count(rel, string(filepath.Separator)) - 1
	if depth < 0 {
		depth = 0
	}
	return depth
}

func (f File) Name() string { return filepath.Base(f.Path) }

// state accumulates per-system confidence and harvested dependencies
// across a file walk (draft.rs's State).
type state struct {
	confidence map[System]int
	deps       map[System][]capability.Capability
}

func newState() *state {
	return &state{
		confidence: make(map[System]int),
		deps:       make(map[System][]capability.Capability),
	}
}

func (s *state) bump(sys System, amount int) { s.confidence[sys] += amount }

func (s *state) addDep(sys System, c capability.Capability) {
	s.deps[sys] = append(s.deps[sys], c)
}

// Analyze walks files and returns the highest-confidence detected build
// system (SystemAutotools as the fallback, matching draft.rs's "defaults
// to autotools" warning) plus the dependencies that system's detector
// harvested from its own build files.
func Analyze(files []File) (System, []capability.Capability, bool) {
	s := newState()
	for _, f := range files {
		processAutotools(s, f)
		processCargo(s, f)
		processCMake(s, f)
		processMeson(s, f)
		processPythonPEP517(s, f)
		processPythonSetupTools(s, f)
	}

	best := SystemAutotools
	bestScore := 0
	detected := false
	for _, sys := range []System{SystemAutotools, SystemCargo, SystemCMake, SystemMeson, SystemPythonPEP517, SystemPythonSetupTools} {
		if s.confidence[sys] > bestScore {
			best = sys
			bestScore = s.confidence[sys]
			detected = true
		}
	}
	return best, s.deps[best], detected
}

var pkgConfigModulesRe = regexp.MustCompile(`PKG_CHECK_MODULES\s?\(\s?\[([A-Za-z_]+)\]\s?,\s?\[\s?([A-Za-z0-9\-_+]+)\s?]`)

func processAutotools(s *state, f File) {
	if f.Depth() > 0 {
		return
	}
	switch f.Name() {
	case "configure.ac":
		s.bump(SystemAutotools, 10)
		scanRegexDeps(s, SystemAutotools, f.Path, pkgConfigModulesRe, 2, capability.PkgConfig)
	case "configure", "Makefile.am", "Makefile":
		s.bump(SystemAutotools, 10)
	}
}

func processCargo(s *state, f File) {
	if f.Name() == "Cargo.toml" {
		s.bump(SystemCargo, 100)
	}
}

var cmakeFindPackageRe = regexp.MustCompile(`find_package\(([^ )]+)`)

func processCMake(s *state, f File) {
	if f.Depth() > 0 {
		return
	}
	if f.Name() == "CMakeLists.txt" {
		s.bump(SystemCMake, 20)
		scanRegexDeps(s, SystemCMake, f.Path, cmakeFindPackageRe, 1, capability.CMake)
	}
}

var (
	mesonDependencyRe = regexp.MustCompile(`dependency\s?\(\s?'\s?([A-Za-z0-9+\-_\.]+)`)
	mesonProgramRe    = regexp.MustCompile(`find_program\s?\(\s?'\s?([A-Za-z0-9+\-_]+)`)
)

func processMeson(s *state, f File) {
	switch {
	case f.Name() == "meson.build" && f.Depth() == 0:
		s.bump(SystemMeson, 100)
		scanRegexDeps(s, SystemMeson, f.Path, mesonDependencyRe, 1, capability.PkgConfig)
		scanMesonPrograms(s, f.Path)
	case f.Name() == "meson_options.txt":
		s.bump(SystemMeson, 100)
	}
}

func scanMesonPrograms(s *state, path string) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, m := range mesonProgramRe.FindAllStringSubmatch(string(contents), -1) {
		name := m[1]
		if strings.Contains(name, "/") {
			continue
		}
		s.addDep(SystemMeson, capability.Capability{Kind: capability.Binary, Name: name})
	}
}

func processPythonPEP517(s *state, f File) {
	switch f.Name() {
	case "pyproject.toml", "setup.cfg":
		s.bump(SystemPythonPEP517, 100)
	}
}

func processPythonSetupTools(s *state, f File) {
	if f.Name() == "setup.py" {
		s.bump(SystemPythonSetupTools, 100)
	}
}

// scanRegexDeps reads path once and records group-index matches of re as
// dependencies of the given capability kind for sys.
func scanRegexDeps(s *state, sys System, path string, re *regexp.Regexp, group int, kind capability.Kind) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, m := range re.FindAllStringSubmatch(string(contents), -1) {
		if group >= len(m) {
			continue
		}
		s.addDep(sys, capability.Capability{Kind: kind, Name: m[group]})
	}
}
