// Package jp2maker encodes each page TIFF as a JPEG2000 derivative
// under data/JP2, named by derived identifier and zero-padded page
// number.
package jp2maker

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

// Encoding parameters handed to opj_compress for every page.
const (
	compressionRatio = "1.5"
	precinctSizes    = "[256,256],[256,256],[128,128]"
	codeBlockSize    = "64,64"
	progressionOrder = "RPCL"
)

// Descriptor names the stage's pipeline transitions.
func Descriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "make-jp2s",
		Start:      bags.StatusTIFFsNormalized,
		InProgress: bags.StatusMakingJP2s,
		Done:       bags.StatusJP2sCreated,
		Success:    "JP2 derivatives successfully created",
		Idle:       "No bags waiting for JP2 creation",
	}
}

// Maker encodes page TIFFs into JPEG2000.
type Maker struct {
	cfg    *config.Config
	runner tools.Runner
	logger *slog.Logger
}

// New builds the stage.
func New(cfg *config.Config, runner tools.Runner, logger *slog.Logger) *Maker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Maker{cfg: cfg, runner: runner, logger: logger}
}

// Execute encodes every page TIFF into data/JP2. Page numbers must be
// parsable and unique across the bag.
func (m *Maker) Execute(ctx context.Context, bag *bags.Bag) error {
	srcDir, err := fileutil.SourceDir(bag.LocalPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "make-jp2s", "source", bag.LocalPath, err)
	}

	files, err := fileutil.MatchingFiles(srcDir, "", ".tif")
	if err != nil {
		return services.Wrap(services.ErrValidation, "make-jp2s", "list", srcDir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "make-jp2s", "list",
			fmt.Sprintf("bag %s has no TIFF files in %s", bag.Identifier, srcDir), nil)
	}
	if err := fileutil.SortByPage(files); err != nil {
		return services.Wrap(services.ErrValidation, "make-jp2s", "pages", err.Error(), err)
	}

	outDir := filepath.Join(bag.LocalPath, "data", "JP2")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "make-jp2s", "output directory", outDir, err)
	}

	seen := make(map[string]string, len(files))
	for _, file := range files {
		page, err := fileutil.PageNumber(file)
		if err != nil {
			return services.Wrap(services.ErrValidation, "make-jp2s", "pages", file, err)
		}
		if prior, dup := seen[page]; dup {
			return services.Wrap(services.ErrValidation, "make-jp2s", "pages",
				fmt.Sprintf("page %s appears in both %s and %s", page, filepath.Base(prior), filepath.Base(file)), nil)
		}
		seen[page] = file

		if err := m.encode(ctx, file, filepath.Join(outDir, bag.DerivedIdentifier+"_"+page+".jp2")); err != nil {
			return err
		}
	}

	m.logger.Info("jp2s created",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.Int("pages", len(files)))
	return nil
}

func (m *Maker) encode(ctx context.Context, src, dest string) error {
	width, height, err := imaging.TIFFDimensions(src)
	if err != nil {
		return services.Wrap(services.ErrValidation, "make-jp2s", "dimensions", src, err)
	}
	layers := imaging.ResolutionLayers(width, height)

	args := []string{
		"-i", src,
		"-o", dest,
		"-r", compressionRatio,
		"-c", precinctSizes,
		"-b", codeBlockSize,
		"-p", progressionOrder,
		"-n", fmt.Sprintf("%d", layers),
		"-SOP",
	}
	if err := m.runner.Run(ctx, m.cfg.Tools.OpjCompress, args...); err != nil {
		os.Remove(dest)
		return services.Wrap(services.ErrExternalTool, "make-jp2s", "opj_compress", filepath.Base(src), err)
	}
	return nil
}
