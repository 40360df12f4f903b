// Package daemonctl starts, stops, and probes the background daemon from
// CLI processes.
//
// The daemon itself lives in the daemon package; this package only deals
// with it from the outside: spawning a detached process, waiting for its
// socket to answer, and escalating from an IPC shutdown to signals when
// the daemon stops responding.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"herald/internal/config"
	"herald/internal/daemon"
	"herald/internal/ipc"
)

// ErrNotRunning reports that no daemon holds the scope.
var ErrNotRunning = errors.New("daemon is not running")

// Info describes the daemon process for a scope.
type Info struct {
	PID     int
	Running bool
	Socket  string
}

// Probe inspects the scope's PID file without touching the daemon. A PID
// file naming a dead process reports Running false; reclamation is left to
// the next daemon start.
func Probe(scope config.Scope) Info {
	info := Info{Socket: scope.SocketPath()}
	pid, err := daemon.ReadPIDFile(scope.PIDPath())
	if err != nil {
		return info
	}
	info.PID = pid
	info.Running = daemon.ProcessAlive(pid)
	return info
}

// Ping performs a live round-trip over the daemon socket.
func Ping(scope config.Scope) error {
	client, err := ipc.Dial(scope.SocketPath())
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Ping()
}

// StartDetached spawns the current executable as a background daemon in
// its own session. childArgs is the argument vector for the child, e.g.
// ["daemon", "run", "--project", dir]. It returns the child PID.
func StartDetached(scope config.Scope, childArgs []string) (int, error) {
	if info := Probe(scope); info.Running {
		return 0, &daemon.AlreadyRunningError{PID: info.PID}
	}
	if err := scope.EnsureDir(); err != nil {
		return 0, err
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}

	cmd := exec.Command(exe, childArgs...)
	// Detach from the controlling terminal; nil stdio maps to /dev/null.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn daemon: %w", err)
	}
	pid := cmd.Process.Pid

	// Catch immediate startup failures such as a config error.
	time.Sleep(200 * time.Millisecond)
	if !daemon.ProcessAlive(pid) {
		_ = cmd.Wait()
		return 0, fmt.Errorf("daemon process exited immediately; check %s", scope.LogPath())
	}
	if err := cmd.Process.Release(); err != nil {
		return 0, fmt.Errorf("release daemon process: %w", err)
	}
	return pid, nil
}

// WaitForReady polls the socket until the daemon answers a ping.
func WaitForReady(scope config.Scope, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = Ping(scope); lastErr == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not become ready within %s: %w", timeout, lastErr)
}

// EnsureStarted makes sure a daemon is answering for the scope, starting
// one when needed. It reports whether a new daemon was started.
func EnsureStarted(scope config.Scope, childArgs []string, timeout time.Duration) (bool, error) {
	if Ping(scope) == nil {
		return false, nil
	}
	if _, err := StartDetached(scope, childArgs); err != nil {
		// A racing start is fine as long as someone answers.
		var already *daemon.AlreadyRunningError
		if !errors.As(err, &already) {
			return false, err
		}
	}
	if err := WaitForReady(scope, timeout); err != nil {
		return false, err
	}
	return true, nil
}

// Stop terminates the scope's daemon: a graceful IPC shutdown first, then
// SIGTERM, then SIGKILL. It waits up to timeout for the graceful path.
func Stop(scope config.Scope, timeout time.Duration) error {
	info := Probe(scope)
	if !info.Running {
		return ErrNotRunning
	}

	if err := requestShutdown(scope); err == nil {
		if waitForExit(info.PID, timeout) {
			return nil
		}
	}

	// The daemon is unresponsive; escalate.
	if err := unix.Kill(info.PID, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal daemon %d: %w", info.PID, err)
	}
	if waitForExit(info.PID, 2*time.Second) {
		cleanupScope(scope)
		return nil
	}
	if err := unix.Kill(info.PID, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill daemon %d: %w", info.PID, err)
	}
	if !waitForExit(info.PID, 2*time.Second) {
		return fmt.Errorf("daemon %d survived SIGKILL", info.PID)
	}
	cleanupScope(scope)
	return nil
}

func requestShutdown(scope config.Scope) error {
	client, err := ipc.Dial(scope.SocketPath())
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Shutdown()
}

func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !daemon.ProcessAlive(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return !daemon.ProcessAlive(pid)
}

// cleanupScope removes runtime files after a forced kill, which skips the
// daemon's own deferred cleanup.
func cleanupScope(scope config.Scope) {
	for _, path := range []string{scope.PIDPath(), scope.SocketPath()} {
		_ = os.Remove(path)
	}
}
