//go:build linux

package container

import "github.com/go-errors/errors"

// Exec runs argv inside a container confined to opts.Rootfs, installing
// opts.Mounts before handing control to argv, per the `exec(paths,
// networking, closure)` contract of spec.md §4.3. Non-zero exit or
// signal death surfaces as *ExecError.
func Exec(opts Options, argv []string) error {
	if opts.Networking {
		if err := CopyNetworkFiles(opts.Rootfs); err != nil {
			return errors.Errorf("container: copy network files: %w", err)
		}
	}
	return Spawn(opts, argv)
}
