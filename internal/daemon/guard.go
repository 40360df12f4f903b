package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"herald/internal/config"
	"herald/internal/logging"
)

// AlreadyRunningError reports a live daemon holding the scope.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("daemon already running (pid %d)", e.PID)
}

// guard enforces single-instance daemon startup per scope. It combines a
// file lock with a PID file: the lock is authoritative, the PID file names
// the holder for error messages and lets a crashed daemon's leftovers be
// reclaimed.
type guard struct {
	scope  config.Scope
	logger *slog.Logger
	lock   *flock.Flock
}

func newGuard(scope config.Scope, logger *slog.Logger) *guard {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &guard{scope: scope, logger: logger}
}

func (g *guard) acquire() error {
	if err := g.scope.EnsureDir(); err != nil {
		return err
	}

	g.lock = flock.New(g.scope.LockPath())
	locked, err := g.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		if pid, err := ReadPIDFile(g.scope.PIDPath()); err == nil {
			return &AlreadyRunningError{PID: pid}
		}
		return errors.New("daemon lock held by another process")
	}

	// Holding the lock means any existing PID file is stale.
	if pid, err := ReadPIDFile(g.scope.PIDPath()); err == nil {
		if ProcessAlive(pid) && pid != os.Getpid() {
			// The lock was free but the PID is live: the previous daemon
			// lost its lock file. Do not fight over the scope.
			_ = g.lock.Unlock()
			return &AlreadyRunningError{PID: pid}
		}
		g.logger.Info("reclaiming stale daemon state",
			logging.Int("stale_pid", pid),
			logging.String(logging.FieldEventType, "daemon_stale_reclaim"))
		_ = os.Remove(g.scope.PIDPath())
		_ = os.Remove(g.scope.SocketPath())
	}

	if err := writePIDFile(g.scope.PIDPath(), os.Getpid()); err != nil {
		_ = g.lock.Unlock()
		return err
	}
	return nil
}

func (g *guard) release() {
	if err := os.Remove(g.scope.PIDPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		g.logger.Warn("failed to remove pid file",
			logging.String("path", g.scope.PIDPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start will reclaim it as stale"))
	}
	if g.lock != nil {
		_ = g.lock.Unlock()
	}
}

// ReadPIDFile parses the daemon PID file at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds invalid pid %d", path, pid)
	}
	return pid, nil
}

func writePIDFile(path string, pid int) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// ProcessAlive probes a PID with a null signal. EPERM means the process
// exists but belongs to someone else, which still counts as alive.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
