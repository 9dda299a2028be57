package app

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

// lockRootfs acquires an exclusive, non-blocking lock on dir (the
// rootfs owned exclusively by the executor for the duration of a
// build), falling back to a blocking acquisition with a printed notice
// on contention (spec.md §5, "Shared resources"). The returned func
// releases the lock.
func lockRootfs(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Errorf("app: create rootfs dir: %w", err)
	}

	f, err := os.Open(dir)
	if err != nil {
		return nil, errors.Errorf("app: open rootfs dir: %w", err)
	}

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err != unix.EWOULDBLOCK {
			f.Close()
			return nil, errors.Errorf("app: lock rootfs: %w", err)
		}
		fmt.Fprintln(os.Stderr, "another build holds the rootfs lock, waiting...")
		if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
			f.Close()
			return nil, errors.Errorf("app: lock rootfs: %w", err)
		}
	}

	return func() {
		_ = unix.Flock(fd, unix.LOCK_UN)
		f.Close()
	}, nil
}
