//go:build linux

package container

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/jesseduffield/kill"
)

// gracePeriod bounds how long the child is given to unwind after a
// forwarded SIGINT before the executor escalates to SIGKILL (spec.md
// §5, "Cancellation & timeouts").
const gracePeriod = 5 * time.Second

// Supervise runs cmd to completion, forwarding exactly one SIGINT from
// the parent's own signal channel to the child's process group and
// ignoring further SIGINTs for gracePeriod to let it unwind cleanly
// (spec.md §4.3 "Execution contract"). The parent only returns after
// the child has been reaped.
func Supervise(cmd *exec.Cmd) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	waitErr := make(chan error, 1)
	waitDone := make(chan struct{})
	go func() {
		waitErr <- cmd.Wait()
		close(waitDone)
	}()

	forwarded := false
	for {
		select {
		case err := <-waitErr:
			return err
		case <-sigCh:
			if forwarded {
				continue
			}
			forwarded = true
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
			go func() {
				select {
				case <-time.After(gracePeriod):
					_ = kill.Kill(cmd)
				case <-waitDone:
				}
			}()
		}
	}
}
