// Package draft infers a starting recipe from an extracted upstream
// archive: which build system it uses, and which build dependencies its
// build files reference. It backs the `recipe new` CLI subcommand.
//
// Grounded on original_source/boulder/src/draft.rs and its
// build/{autotools,cargo,cmake,meson,python}.rs siblings: the highest-
// confidence detector wins, each detector also harvesting dependencies
// from its project's own dependency-declaration syntax.
package draft

// System is a recognized upstream build system.
type System uint8

const (
	SystemAutotools System = iota
	SystemCargo
	SystemCMake
	SystemMeson
	SystemPythonPEP517
	SystemPythonSetupTools
)

func (s System) String() string {
	switch s {
	case SystemAutotools:
		return "autotools"
	case SystemCargo:
		return "cargo"
	case SystemCMake:
		return "cmake"
	case SystemMeson:
		return "meson"
	case SystemPythonPEP517:
		return "python-pep517"
	case SystemPythonSetupTools:
		return "python-setuptools"
	default:
		return "unknown"
	}
}

// Phases is the set of recipe phase bodies a build system implies,
// using boulder's macro shorthand (e.g. "%configure") rather than the
// literal shell the macro expands to (spec.md §4.2 "Macro expansion").
type Phases struct {
	Environment string
	Setup       string
	Build       string
	Install     string
	Check       string
}

func (s System) Phases() Phases {
	switch s {
	case SystemAutotools:
		return Phases{Setup: "%configure", Build: "%make", Install: "%make_install"}
	case SystemCargo:
		return Phases{
			Environment: "export HOME=$(pwd)\nexport CARGO_HTTP_CAINFO=/usr/share/defaults/etc/ssl/certs/ca-certificates.crt",
			Setup:       "%cargo_fetch",
			Build:       "%cargo_build",
			Install:     "%cargo_install",
			Check:       "%cargo_install",
		}
	case SystemCMake:
		return Phases{Setup: "%cmake", Build: "%cmake_build", Install: "%cmake_install"}
	case SystemMeson:
		return Phases{Setup: "%meson", Build: "%meson_build", Install: "%meson_install"}
	case SystemPythonPEP517:
		return Phases{Build: "%pyproject_build", Install: "%pyproject_install"}
	case SystemPythonSetupTools:
		return Phases{Build: "%python_build", Install: "%python_install"}
	default:
		return Phases{}
	}
}
