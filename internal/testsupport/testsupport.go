// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"herald/internal/config"
)

// NewConfig returns a validated configuration rooted in a temporary
// project scope that is cleaned up with the test.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	return NewConfigWithTOML(t, "")
}

// NewConfigWithTOML writes the given TOML into a temporary project scope
// and loads it. An empty document yields the defaults.
func NewConfigWithTOML(t *testing.T, doc string) *config.Config {
	t.Helper()
	scope := config.ProjectScope(t.TempDir())
	if err := scope.EnsureDir(); err != nil {
		t.Fatalf("create scope dir: %v", err)
	}
	if doc != "" {
		if err := os.WriteFile(scope.ConfigPath(), []byte(doc), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	cfg, _, _, err := config.Load(scope)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// SocketPath shortens a scope's socket path when the OS limit on Unix
// socket paths (around 104 bytes) would be exceeded by deep temp dirs.
func SocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "herald")
	if err != nil {
		t.Fatalf("create socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "daemon.sock")
}
