package testsupport

import (
	"path/filepath"
	"testing"

	"pictor/internal/config"
)

// NewConfig returns a config rooted in per-test temporary directories so
// tests never touch real pipeline paths.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SrcDir = filepath.Join(base, "src")
	cfg.Paths.TmpDir = filepath.Join(base, "tmp")
	cfg.Paths.LogDir = filepath.Join(base, "log")
	cfg.Logging.Level = "error"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}
