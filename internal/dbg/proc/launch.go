package proc

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Launch starts path as a traced child with inherited stdio. The child
// stops with SIGTRAP right after it execs the target; reap that stop
// with Target.WaitStart.
func Launch(path string) (int, error) {
	cmd := exec.Command(path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &unix.SysProcAttr{Ptrace: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch %s: %w", path, err)
	}
	return cmd.Process.Pid, nil
}
