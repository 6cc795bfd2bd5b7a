package preflight

import (
	"context"

	"pictor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger is the connectivity probe a service client exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes the preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, aspace Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Source directory", cfg.Paths.SrcDir),
		CheckDirectoryAccess("Working directory", cfg.Paths.TmpDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Working directory space", cfg.Paths.TmpDir, minFreeBytes),
	}
	if aspace != nil {
		results = append(results, CheckArchivesSpace(ctx, aspace))
	}
	return results
}
