package source

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ProcessRunner launches the browser-automation helpers the script adapters
// shell out to and records the process group of everything it started.
// Headless automation leaks processes and bound ports across calls, so the
// orchestrator reaps through Reap after each parallel phase instead of
// letting zombies accumulate on the host.
type ProcessRunner struct {
	mu    sync.Mutex
	pgids []int
}

func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run executes the helper and returns its stdout. The child gets its own
// process group so Reap can kill the whole automation tree, not just the
// direct child.
func (r *ProcessRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, eris.Wrapf(err, "runner: start %s", bin)
	}

	// Setpgid makes the child the group leader, so its pid is the group
	// id. Only this slice is shared with Reap; the exec.Cmd itself stays
	// owned by this goroutine for the whole Start/Wait lifecycle.
	r.mu.Lock()
	r.pgids = append(r.pgids, cmd.Process.Pid)
	r.mu.Unlock()

	if err := cmd.Wait(); err != nil {
		return nil, eris.Wrapf(err, "runner: %s failed: %s", bin, stderr.String())
	}

	return stdout.Bytes(), nil
}

// Reap signals every process group this runner started since the last pass
// and forgets them. Groups whose leader already exited are signalled too,
// because headless helpers leave grandchildren behind in the same group.
// Returns the number of groups that were still alive.
func (r *ProcessRunner) Reap(ctx context.Context) int {
	r.mu.Lock()
	pgids := r.pgids
	r.pgids = nil
	r.mu.Unlock()

	reaped := 0
	for _, pgid := range pgids {
		// Negative pid signals the whole group. A fully dead group
		// answers ESRCH.
		if err := syscall.Kill(-pgid, syscall.SIGKILL); err == nil {
			reaped++
		}
	}

	if reaped > 0 {
		zap.L().Info("reaped leaked automation processes", zap.Int("count", reaped))
	}
	return reaped
}
