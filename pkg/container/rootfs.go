//go:build linux

package container

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

// decodeMounts parses the ";"-separated "host|guest|ro-or-rw" triples
// produced by encodeMounts.
func decodeMounts(s string) []Mount {
	if s == "" {
		return nil
	}
	var mounts []Mount
	for _, part := range strings.Split(s, ";") {
		fields := strings.SplitN(part, "|", 3)
		if len(fields) != 3 {
			continue
		}
		mounts = append(mounts, Mount{Host: fields[0], Guest: fields[1], ReadOnly: fields[2] == "ro"})
	}
	return mounts
}

// nsEntryPoint is the re-exec argv[0] that dispatches into childInit.
const nsEntryPoint = "boulder-container-init"

func init() {
	Register(nsEntryPoint, childInit)
}

// childInit is the re-exec entry point: it blocks on the sync pipe
// until the parent has installed uid/gid maps, performs filesystem
// namespace setup (spec.md §4.3 "Filesystem setup"), then execs the
// requested command as PID 1 of the new namespaces.
func childInit() {
	syncFD, err := strconv.Atoi(os.Getenv(childSyncEnv))
	if err != nil {
		fatal(errors.Errorf("container: missing %s", childSyncEnv))
	}
	sync := os.NewFile(uintptr(syncFD), "sync")
	// Blocks until the parent closes its write end once uid/gid maps
	// are installed (go.podman.io/storage/pkg/unshare's pipe-gated
	// namespace join pattern).
	_, _ = sync.Read(make([]byte, 1))
	sync.Close()

	rootfs := os.Getenv("BOULDER_ROOTFS")
	networking := os.Getenv("BOULDER_NETWORKING") == "true"

	if err := setupFilesystem(rootfs); err != nil {
		fatal(err)
	}
	if !networking {
		if err := setupLoopback(); err != nil {
			fatal(err)
		}
	}
	for _, m := range decodeMounts(os.Getenv("BOULDER_MOUNTS")) {
		if err := BindMount(m); err != nil {
			fatal(err)
		}
	}

	argv := os.Args[2:]
	if len(argv) == 0 {
		fatal(errors.Errorf("container: no command given to child init"))
	}
	if err := unix.Exec(argv[0], argv, os.Environ()); err != nil {
		fatal(errors.Errorf("container: exec %s: %w", argv[0], err))
	}
}

func fatal(err error) {
	os.Stderr.WriteString(err.Error() + "\n")
	os.Exit(1)
}

// setupFilesystem implements spec.md §4.3's five filesystem-setup
// steps, grounded on buildah/chroot's pivot_root handling: mark root
// private recursive, bind-mount rootfs onto itself, pivot_root into
// it, mount proc/tmpfs/sys/dev, then detach and remove the old root.
func setupFilesystem(rootfs string) error {
	if err := unix.Mount("", "/", "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
		return errors.Errorf("container: mark / private: %w", err)
	}
	if err := unix.Mount(rootfs, rootfs, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return errors.Errorf("container: bind rootfs onto itself: %w", err)
	}

	oldRoot := filepath.Join(rootfs, ".old_root")
	if err := os.MkdirAll(oldRoot, 0o700); err != nil {
		return errors.Errorf("container: mkdir old root: %w", err)
	}
	if err := unix.PivotRoot(rootfs, oldRoot); err != nil {
		return errors.Errorf("container: pivot_root: %w", err)
	}
	if err := unix.Chdir("/"); err != nil {
		return errors.Errorf("container: chdir /: %w", err)
	}

	if err := os.MkdirAll("/proc", 0o555); err == nil {
		_ = unix.Mount("proc", "/proc", "proc", 0, "")
	}
	if err := os.MkdirAll("/tmp", 0o1777); err == nil {
		_ = unix.Mount("tmpfs", "/tmp", "tmpfs", 0, "")
	}
	if err := unix.Mount("/.old_root/sys", "/sys", "", unix.MS_BIND|unix.MS_REC|unix.MS_RDONLY, ""); err != nil {
		return errors.Errorf("container: bind /sys: %w", err)
	}
	if err := unix.Mount("/.old_root/dev", "/dev", "", unix.MS_BIND|unix.MS_REC|unix.MS_RDONLY, ""); err != nil {
		return errors.Errorf("container: bind /dev: %w", err)
	}

	if err := unix.Unmount("/.old_root", unix.MNT_DETACH); err != nil {
		return errors.Errorf("container: detach old root: %w", err)
	}
	if err := os.RemoveAll("/.old_root"); err != nil {
		return errors.Errorf("container: remove old root: %w", err)
	}
	return nil
}

// setupLoopback brings up the loopback interface in a fresh network
// namespace so localhost still works when networking is disabled.
func setupLoopback() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq("lo")
	if err != nil {
		return err
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return err
	}
	ifr.SetUint32(ifr.Uint32() | unix.IFF_UP | unix.IFF_RUNNING)
	return unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr)
}

// BindMount installs one host→guest bind mount, read-only when
// requested, used for the recipe (ro) and artefacts/build/ccache (rw)
// directories named in spec.md §4.3.
func BindMount(m Mount) error {
	if err := os.MkdirAll(m.Guest, 0o755); err != nil {
		return errors.Errorf("container: mkdir %s: %w", m.Guest, err)
	}
	flags := uintptr(unix.MS_BIND | unix.MS_REC)
	if err := unix.Mount(m.Host, m.Guest, "", flags, ""); err != nil {
		return errors.Errorf("container: bind %s -> %s: %w", m.Host, m.Guest, err)
	}
	if m.ReadOnly {
		flags |= unix.MS_RDONLY | unix.MS_REMOUNT
		if err := unix.Mount(m.Host, m.Guest, "", flags, ""); err != nil {
			return errors.Errorf("container: remount %s read-only: %w", m.Guest, err)
		}
	}
	return nil
}

// CopyNetworkFiles copies the host's resolver and protocol databases
// into the rootfs when networking is enabled (spec.md §4.3
// "Networking").
func CopyNetworkFiles(rootfs string) error {
	for _, name := range []string{"/etc/resolv.conf", "/etc/protocols"} {
		data, err := os.ReadFile(name)
		if err != nil {
			continue
		}
		dst := filepath.Join(rootfs, name)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
