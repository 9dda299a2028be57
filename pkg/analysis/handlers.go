package analysis

import (
	"debug/elf"
	"os/exec"
	"path"
	"strings"

	"github.com/mgutz/str"

	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/collect"
)

// Paths reaching these handlers have already had their leading "/usr/"
// segment stripped by the collector (spec.md §4.5); "/usr/bin/*" in
// spec prose therefore corresponds to a TargetPath of "bin/*" here, and
// so on for the other handlers below.

// IgnoreBlocked drops paths the collector flagged as outside /usr, and
// libtool .la files living in a library directory (spec.md §4.6 #1).
func IgnoreBlocked(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	if !pi.UnderUsr {
		return IgnoreFile, "non /usr file", nil
	}
	if strings.HasSuffix(pi.TargetPath, ".la") && isLibraryDir(path.Dir(pi.TargetPath)) {
		return IgnoreFile, "libtool file", nil
	}
	return NextHandler, "", nil
}

func isLibraryDir(dir string) bool {
	base := path.Base(dir)
	return base == "lib" || base == "lib32" || base == "lib64" || strings.HasPrefix(base, "lib")
}

// Binary inserts binary(name) / system-binary(name) providers for
// /usr/bin and /usr/sbin entries (spec.md §4.6 #2). It never terminates
// the chain.
func Binary(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	dir := path.Dir(pi.TargetPath)
	name := path.Base(pi.TargetPath)
	switch dir {
	case "bin":
		b.Providers.Insert(capability.Capability{Kind: capability.Binary, Name: name})
	case "sbin":
		b.Providers.Insert(capability.Capability{Kind: capability.SystemBinary, Name: name})
	}
	return NextHandler, "", nil
}

// ELF parses candidate ELF binaries, recording DT_NEEDED dependencies
// and a shared-library provider for .so files (spec.md §4.6 #3).
func ELF(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	if strings.HasSuffix(pi.TargetPath, ".debug") && path.Base(path.Dir(pi.TargetPath)) == "debug" {
		return NextHandler, "", nil
	}

	f, err := elf.Open(pi.HostPath)
	if err != nil {
		return NextHandler, "", nil
	}
	defer f.Close()

	isa := machineISA(f.Machine)

	needed, err := f.DynString(elf.DT_NEEDED)
	if err == nil {
		for _, n := range needed {
			b.Dependencies.Insert(capability.Capability{
				Kind: capability.SharedLibrary,
				Name: n + "(" + isa + ")",
			})
		}
	}

	if strings.Contains(pi.TargetPath, ".so") {
		soname := path.Base(pi.TargetPath)
		if names, err := f.DynString(elf.DT_SONAME); err == nil && len(names) > 0 {
			soname = names[0]
		}
		b.Providers.Insert(capability.Capability{
			Kind: capability.SharedLibrary,
			Name: soname + "(" + isa + ")",
		})
	}

	return IncludeFile, "", nil
}

func machineISA(m elf.Machine) string {
	switch m {
	case elf.EM_X86_64:
		return "x86_64"
	case elf.EM_386:
		return "x86"
	case elf.EM_AARCH64:
		return "aarch64"
	default:
		return strings.ToLower(m.String())
	}
}

// PkgConfig inserts a pkg-config/pkg-config-32 provider for .pc files
// and shells out to the pkg-config binary to enumerate the module's
// required dependencies (spec.md §4.6 #4).
func PkgConfig(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	if path.Ext(pi.TargetPath) != ".pc" || path.Base(path.Dir(pi.TargetPath)) != "pkgconfig" {
		return NextHandler, "", nil
	}

	stem := strings.TrimSuffix(path.Base(pi.TargetPath), ".pc")
	kind := capability.PkgConfig
	if strings.Contains(pi.TargetPath, "lib32") {
		kind = capability.PkgConfig32
	}
	b.Providers.Insert(capability.Capability{Kind: kind, Name: stem})

	requires, err := pkgConfigRequires(pi.HostPath)
	if err != nil {
		// Analysis errors here are non-fatal (spec.md §7): the file
		// still falls through to later handlers.
		return NextHandler, "", nil
	}
	for _, req := range requires {
		b.Dependencies.Insert(capability.Capability{Kind: kind, Name: req})
	}
	return NextHandler, "", nil
}

func pkgConfigRequires(pcPath string) ([]string, error) {
	args := str.ToArgv("pkg-config --print-requires --print-requires-private")
	args = append(args, pcPath)
	out, err := exec.Command(args[0], args[1:]...).Output()
	if err != nil {
		return nil, err
	}
	var reqs []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		reqs = append(reqs, fields[0])
	}
	return reqs, nil
}

// CMake inserts a cmake(stem) provider for *Config.cmake and
// *-config.cmake files, excluding the "-Config.cmake" spelling
// (spec.md §4.6 #5).
func CMake(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	base := path.Base(pi.TargetPath)
	switch {
	case strings.HasSuffix(base, "-Config.cmake"):
		return NextHandler, "", nil
	case strings.HasSuffix(base, "Config.cmake"):
		b.Providers.Insert(capability.Capability{Kind: capability.CMake, Name: strings.TrimSuffix(base, "Config.cmake")})
	case strings.HasSuffix(base, "-config.cmake"):
		b.Providers.Insert(capability.Capability{Kind: capability.CMake, Name: strings.TrimSuffix(base, "-config.cmake")})
	}
	return NextHandler, "", nil
}

// Font inserts a font(family) provider for TrueType/OpenType files
// under /usr/share/font (spec.md §4.6 #6, optional handler).
func Font(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	ext := strings.ToLower(path.Ext(pi.TargetPath))
	if ext != ".ttf" && ext != ".otf" {
		return NextHandler, "", nil
	}
	if !strings.HasPrefix(pi.TargetPath, "share/font") {
		return NextHandler, "", nil
	}

	family, err := readFontFamily(pi.HostPath)
	if err != nil {
		return NextHandler, "", nil
	}
	b.Providers.Insert(capability.Capability{Kind: capability.Font, Name: family})
	return NextHandler, "", nil
}

// IncludeAny is the catch-all terminal handler (spec.md §4.6 #7).
func IncludeAny(b *bucket.Bucket, pi *collect.PathInfo, enqueue func(collect.PathInfo)) (Result, string, error) {
	return IncludeFile, "", nil
}
