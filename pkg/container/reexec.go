// Package container runs build phases inside a confined rootfs: new
// user/mount/pid/ipc/uts namespaces, a pivot_root into the recipe's
// rootfs tree, and bind-mounted recipe/artefact/build/ccache
// directories (spec.md §4.3). Grounded on the re-exec and namespace
// idiom of go.podman.io/storage/pkg/{reexec,unshare} and the
// pivot_root/mount handling of github.com/containers/buildah/chroot —
// read for technique, not imported, since pulling buildah/podman into
// a package builder would invert the real dependency relationship.
package container

import "os"

var registry = map[string]func(){}

// Register records fn to run when the current process is re-executed
// with argv[0] equal to name.
func Register(name string, fn func()) {
	registry[name] = fn
}

// Init runs the entry point registered for os.Args[0], if any, and
// reports whether it did. Call this at the very top of main(), before
// flag parsing: a re-exec for namespace setup never reaches the normal
// CLI dispatch.
func Init() bool {
	fn, ok := registry[os.Args[0]]
	if !ok {
		return false
	}
	fn()
	return true
}

// Self returns the path to the running executable, used as argv[0]
// when re-executing under a registered name.
func Self() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return os.Args[0]
}
