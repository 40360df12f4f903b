package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir     = ".herald"
	serviceDir = "ntfy-service"
)

// Scope identifies the directory tree herald operates in: either a specific
// project directory or the user's home directory. The scope directory hosts
// the config file, daemon socket, PID file, and log file.
type Scope struct {
	dir     string
	project bool
}

// ProjectScope returns the scope rooted at the given project directory.
func ProjectScope(projectDir string) Scope {
	return Scope{dir: filepath.Join(projectDir, appDir, serviceDir), project: true}
}

// GlobalScope returns the scope rooted at the user's home directory.
func GlobalScope() (Scope, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Scope{}, fmt.Errorf("determine home directory: %w", err)
	}
	return Scope{dir: filepath.Join(home, appDir, serviceDir)}, nil
}

// DetectScope prefers the current working directory when it carries a
// project configuration, and falls back to the global scope otherwise.
func DetectScope() (Scope, error) {
	if cwd, err := os.Getwd(); err == nil {
		candidate := ProjectScope(cwd)
		if info, err := os.Stat(candidate.ConfigPath()); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return GlobalScope()
}

// ResolveScope maps an optional --project flag value to a scope.
func ResolveScope(projectDir string) (Scope, error) {
	projectDir = strings.TrimSpace(projectDir)
	if projectDir == "" {
		return DetectScope()
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return Scope{}, fmt.Errorf("resolve project directory: %w", err)
	}
	return ProjectScope(abs), nil
}

// Dir returns the scope directory.
func (s Scope) Dir() string { return s.dir }

// IsProject reports whether the scope is project-local.
func (s Scope) IsProject() bool { return s.project }

// ConfigPath returns the TOML configuration file path for the scope.
func (s Scope) ConfigPath() string { return filepath.Join(s.dir, "config.toml") }

// SocketPath returns the daemon's Unix socket path for the scope.
func (s Scope) SocketPath() string { return filepath.Join(s.dir, "daemon.sock") }

// PIDPath returns the daemon PID file path: the socket path with its
// extension replaced by .pid.
func (s Scope) PIDPath() string {
	socket := s.SocketPath()
	return strings.TrimSuffix(socket, filepath.Ext(socket)) + ".pid"
}

// LockPath returns the single-instance lock file path for the scope.
func (s Scope) LockPath() string { return filepath.Join(s.dir, "daemon.lock") }

// LogPath returns the daemon log file path for the scope.
func (s Scope) LogPath() string { return filepath.Join(s.dir, "daemon.log") }

// EnsureDir creates the scope directory if missing.
func (s Scope) EnsureDir() error {
	if s.dir == "" {
		return fmt.Errorf("scope directory is empty")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scope directory: %w", err)
	}
	return nil
}
