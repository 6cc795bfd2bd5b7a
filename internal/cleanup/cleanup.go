// Package cleanup removes a bag's local working tree and source archive
// once its derivatives are safely uploaded.
package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
)

// Descriptor names the stage's pipeline transitions.
func Descriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "cleanup",
		Start:      bags.StatusUploaded,
		InProgress: bags.StatusCleaningUp,
		Done:       bags.StatusCleanedUp,
		Success:    "Bags successfully cleaned up",
		Idle:       "No bags waiting for cleanup",
	}
}

// Cleaner deletes local bag artifacts.
type Cleaner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds the stage.
func New(cfg *config.Config, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cleaner{cfg: cfg, logger: logger}
}

// Execute removes the working tree and source archive. Already-removed
// files are fine; reruns of an interrupted cleanup must succeed.
func (c *Cleaner) Execute(_ context.Context, bag *bags.Bag) error {
	if bag.LocalPath != "" {
		if err := os.RemoveAll(bag.LocalPath); err != nil {
			return services.Wrap(services.ErrValidation, "cleanup", "working tree", bag.LocalPath, err)
		}
	}

	archive := filepath.Join(c.cfg.Paths.SrcDir, bag.Identifier+".tar.gz")
	if err := os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrValidation, "cleanup", "archive", archive, err)
	}

	c.logger.Info("bag cleaned up",
		logging.String(logging.FieldBag, bag.Identifier))
	return nil
}
