// Package tiffprep normalizes bag TIFFs for downstream JPEG2000
// encoding: opj_compress cannot read tiled TIFFs, so any tiled file is
// rewritten in striped layout with tiffcp.
package tiffprep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/fileutil"
	"pictor/internal/imaging"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
	"pictor/internal/tools"
)

// Descriptor names the stage's pipeline transitions.
func Descriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "normalize-tiffs",
		Start:      bags.StatusPrepared,
		InProgress: bags.StatusNormalizingTIFFs,
		Done:       bags.StatusTIFFsNormalized,
		Success:    "TIFFs successfully normalized",
		Idle:       "No bags waiting for TIFF normalization",
	}
}

// Normalizer rewrites tiled TIFFs as striped TIFFs in place.
type Normalizer struct {
	cfg    *config.Config
	runner tools.Runner
	logger *slog.Logger
}

// New builds the stage.
func New(cfg *config.Config, runner tools.Runner, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Normalizer{cfg: cfg, runner: runner, logger: logger}
}

// Execute scans the bag's source directory and converts each tiled TIFF.
// Striped files pass through untouched.
func (n *Normalizer) Execute(ctx context.Context, bag *bags.Bag) error {
	srcDir, err := fileutil.SourceDir(bag.LocalPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "normalize-tiffs", "source", bag.LocalPath, err)
	}

	files, err := fileutil.MatchingFiles(srcDir, "", ".tif")
	if err != nil {
		return services.Wrap(services.ErrValidation, "normalize-tiffs", "list", srcDir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "normalize-tiffs", "list",
			fmt.Sprintf("bag %s has no TIFF files in %s", bag.Identifier, srcDir), nil)
	}

	converted := 0
	for _, file := range files {
		tiled, err := imaging.IsTiledTIFF(file)
		if err != nil {
			return services.Wrap(services.ErrValidation, "normalize-tiffs", "inspect", file, err)
		}
		if !tiled {
			continue
		}
		if err := n.convert(ctx, file); err != nil {
			return err
		}
		converted++
	}

	n.logger.Info("tiffs normalized",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.Int("files", len(files)),
		logging.Int("converted", converted))
	return nil
}

// convert rewrites a tiled TIFF through a temp file so a failed tiffcp
// run never truncates the original.
func (n *Normalizer) convert(ctx context.Context, file string) error {
	tmp := file + ".striped"
	if err := n.runner.Run(ctx, n.cfg.Tools.TiffCp, "-s", file, tmp); err != nil {
		os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "normalize-tiffs", "tiffcp", filepath.Base(file), err)
	}
	if err := fileutil.ReplaceFile(tmp, file); err != nil {
		return services.Wrap(services.ErrExternalTool, "normalize-tiffs", "replace", file, err)
	}
	return nil
}
