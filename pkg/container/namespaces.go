//go:build linux

package container

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

const childSyncEnv = "BOULDER_CHILD_SYNC_FD"

// Options configures one confined phase execution.
type Options struct {
	// Rootfs is the host path pivoted into as the container's new root.
	Rootfs string
	// Mounts are bind-mounted host paths onto guest paths inside Rootfs
	// before phase scripts run.
	Mounts []Mount
	// Networking enables host network inheritance; when false the
	// child gets a fresh network namespace with loopback only.
	Networking bool
	// SubUIDPath/SubGIDPath name the host policy databases consulted
	// for the child's uid/gid map (spec.md §4.3).
	SubUIDPath string
	SubGIDPath string
}

// Mount is one host→guest bind mount installed during filesystem setup.
type Mount struct {
	Host     string
	Guest    string
	ReadOnly bool
}

// ExecError reports how the confined closure's root process terminated.
type ExecError struct {
	Code   int
	Signal os.Signal
}

func (e *ExecError) Error() string {
	if e.Signal != nil {
		return "container: child terminated by signal " + e.Signal.String()
	}
	return "container: child exited with code " + strconv.Itoa(e.Code)
}

// spawnArgs is serialized across the re-exec boundary as environment
// so the re-executed child can recover what it needs to set up its own
// filesystem namespace before running the caller's command.
type spawnArgs struct {
	Rootfs     string
	Networking bool
	Argv       []string
}

// Spawn launches argv inside a freshly-namespaced, pivot_root'd
// container and waits for it to exit, returning *ExecError on non-zero
// exit or signal death. It implements the `exec(paths, networking,
// closure)` contract of spec.md §4.3, where closure is represented as
// an argv to run under the re-exec entry point (`boulder` itself,
// re-invoked with BOULDER_CHILD_SYNC_FD plumbing uid/gid map
// synchronization, following go.podman.io/storage/pkg/unshare's
// pipe-synchronized namespace join).
func Spawn(opts Options, argv []string) error {
	syncRead, syncWrite, err := os.Pipe()
	if err != nil {
		return errors.Errorf("container: sync pipe: %w", err)
	}
	defer syncRead.Close()

	cmd := exec.Command(Self(), append([]string{nsEntryPoint}, argv...)...)
	cmd.Args[0] = nsEntryPoint
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{syncRead}
	cmd.Env = append(os.Environ(),
		childSyncEnv+"=3",
		"BOULDER_ROOTFS="+opts.Rootfs,
		"BOULDER_NETWORKING="+strconv.FormatBool(opts.Networking),
		"BOULDER_MOUNTS="+encodeMounts(opts.Mounts),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWUSER | unix.CLONE_NEWNS | unix.CLONE_NEWPID |
			unix.CLONE_NEWIPC | unix.CLONE_NEWUTS,
		Setpgid: true,
	}
	if !opts.Networking {
		cmd.SysProcAttr.Cloneflags |= unix.CLONE_NEWNET
	}

	if err := cmd.Start(); err != nil {
		syncWrite.Close()
		return errors.Errorf("container: start child: %w", err)
	}

	if err := writeIDMaps(cmd.Process.Pid, opts); err != nil {
		syncWrite.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		return err
	}
	// Unblock the child now that uid/gid maps are installed.
	syncWrite.Close()

	return waitForExec(Supervise(cmd))
}

func writeIDMaps(pid int, opts Options) error {
	uidRanges, err := CurrentUserRanges(opts.SubUIDPath)
	if err != nil {
		return err
	}
	gidRanges, err := CurrentUserRanges(opts.SubGIDPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile("/proc/"+strconv.Itoa(pid)+"/uid_map",
		[]byte(FormatIDMap(os.Getuid(), uidRanges)), 0); err != nil {
		return errors.Errorf("container: write uid_map: %w", err)
	}
	if err := os.WriteFile("/proc/"+strconv.Itoa(pid)+"/setgroups",
		[]byte("deny"), 0); err != nil {
		return errors.Errorf("container: write setgroups: %w", err)
	}
	if err := os.WriteFile("/proc/"+strconv.Itoa(pid)+"/gid_map",
		[]byte(FormatIDMap(os.Getgid(), gidRanges)), 0); err != nil {
		return errors.Errorf("container: write gid_map: %w", err)
	}
	return nil
}

// encodeMounts serializes Mounts across the re-exec environment
// boundary as ";"-separated "host|guest|ro-or-rw" triples.
func encodeMounts(mounts []Mount) string {
	var b []byte
	for i, m := range mounts {
		if i > 0 {
			b = append(b, ';')
		}
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		b = append(b, m.Host+"|"+m.Guest+"|"+mode...)
	}
	return string(b)
}

func waitForExec(err error) error {
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return &ExecError{Signal: ws.Signal()}
			}
			return &ExecError{Code: ws.ExitStatus()}
		}
	}
	return err
}
