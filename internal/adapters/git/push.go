package git

import (
	"fmt"
	"os/exec"
	"time"
)

// SchedulePush starts a detached shell that pushes the branch after the
// given delay. The child is fully released: its outcome is never awaited and
// failures are the push's own problem, not this process's.
func SchedulePush(root, remote, branch string, delay time.Duration) error {
	script := fmt.Sprintf("sleep %d && git -C %q push %q %q",
		int(delay.Seconds()), root, remote, branch)

	cmd := exec.Command("sh", "-c", script)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start delayed push: %w", err)
	}
	return cmd.Process.Release()
}
