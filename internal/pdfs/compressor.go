package pdfs

import (
	"context"
	"log/slog"
	"os"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/fileutil"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
	"pictor/internal/tools"
)

// CompressorDescriptor names the PDF compression stage's pipeline
// transitions.
func CompressorDescriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "compress-pdf",
		Start:      bags.StatusPDFCreated,
		InProgress: bags.StatusCompressingPDF,
		Done:       bags.StatusPDFCompressed,
		Success:    "PDF successfully compressed",
		Idle:       "No bags waiting for PDF compression",
	}
}

// Compressor shrinks the concatenated PDF with Ghostscript's screen
// preset.
type Compressor struct {
	cfg    *config.Config
	runner tools.Runner
	logger *slog.Logger
}

// NewCompressor builds the stage.
func NewCompressor(cfg *config.Config, runner tools.Runner, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compressor{cfg: cfg, runner: runner, logger: logger}
}

// Execute rewrites the bag's PDF in place through a temp file so a
// failed Ghostscript run never corrupts the original.
func (c *Compressor) Execute(ctx context.Context, bag *bags.Bag) error {
	if err := requirePDF(bag); err != nil {
		return err
	}

	tmp := bag.PDFPath + ".compressed"
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/screen",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + tmp,
		bag.PDFPath,
	}
	if err := c.runner.Run(ctx, c.cfg.Tools.Ghostscript, args...); err != nil {
		os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "compress-pdf", "ghostscript", bag.Identifier, err)
	}
	if err := fileutil.ReplaceFile(tmp, bag.PDFPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "compress-pdf", "replace", bag.PDFPath, err)
	}

	c.logger.Info("pdf compressed",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.String("path", bag.PDFPath))
	return nil
}

func requirePDF(bag *bags.Bag) error {
	if bag.PDFPath == "" {
		return services.Wrap(services.ErrValidation, "pdf", "path",
			"bag "+bag.Identifier+" has no recorded PDF path", nil)
	}
	if _, err := os.Stat(bag.PDFPath); err != nil {
		return services.Wrap(services.ErrValidation, "pdf", "path", bag.PDFPath, err)
	}
	return nil
}
