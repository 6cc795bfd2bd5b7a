// Package pdfs builds the concatenated PDF derivative and carries it
// through compression and OCR.
package pdfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/fileutil"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
	"pictor/internal/tools"
)

// MakerDescriptor names the PDF assembly stage's pipeline transitions.
func MakerDescriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "make-pdf",
		Start:      bags.StatusJP2sCreated,
		InProgress: bags.StatusMakingPDF,
		Done:       bags.StatusPDFCreated,
		Success:    "PDF successfully created",
		Idle:       "No bags waiting for PDF creation",
	}
}

// Maker concatenates a bag's JP2 pages into a single PDF.
type Maker struct {
	cfg    *config.Config
	runner tools.Runner
	logger *slog.Logger
}

// NewMaker builds the stage.
func NewMaker(cfg *config.Config, runner tools.Runner, logger *slog.Logger) *Maker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Maker{cfg: cfg, runner: runner, logger: logger}
}

// Execute assembles data/PDF/{derived}.pdf from the bag's JP2 pages in
// page order and records the path on the bag.
func (m *Maker) Execute(ctx context.Context, bag *bags.Bag) error {
	jp2Dir := filepath.Join(bag.LocalPath, "data", "JP2")
	files, err := fileutil.MatchingFiles(jp2Dir, bag.DerivedIdentifier, ".jp2")
	if err != nil {
		return services.Wrap(services.ErrValidation, "make-pdf", "list", jp2Dir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "make-pdf", "list",
			fmt.Sprintf("bag %s has no JP2 files in %s", bag.Identifier, jp2Dir), nil)
	}
	if err := fileutil.SortByPage(files); err != nil {
		return services.Wrap(services.ErrValidation, "make-pdf", "pages", err.Error(), err)
	}

	outDir := filepath.Join(bag.LocalPath, "data", "PDF")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "make-pdf", "output directory", outDir, err)
	}
	outPath := filepath.Join(outDir, bag.DerivedIdentifier+".pdf")

	args := append(files, "-o", outPath)
	if err := m.runner.Run(ctx, m.cfg.Tools.Img2PDF, args...); err != nil {
		os.Remove(outPath)
		return services.Wrap(services.ErrExternalTool, "make-pdf", "img2pdf", bag.Identifier, err)
	}

	bag.PDFPath = outPath
	m.logger.Info("pdf created",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.Int("pages", len(files)),
		logging.String("path", outPath))
	return nil
}
