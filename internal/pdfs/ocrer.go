package pdfs

import (
	"context"
	"log/slog"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
	"pictor/internal/tools"
)

// OCRerDescriptor names the OCR stage's pipeline transitions.
func OCRerDescriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "ocr-pdf",
		Start:      bags.StatusPDFCompressed,
		InProgress: bags.StatusOCRingPDF,
		Done:       bags.StatusPDFOCRed,
		Success:    "PDF successfully OCRed",
		Idle:       "No bags waiting for OCR",
	}
}

// OCRer adds a searchable text layer to the compressed PDF.
type OCRer struct {
	cfg    *config.Config
	runner tools.Runner
	logger *slog.Logger
}

// NewOCRer builds the stage.
func NewOCRer(cfg *config.Config, runner tools.Runner, logger *slog.Logger) *OCRer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OCRer{cfg: cfg, runner: runner, logger: logger}
}

// Execute runs ocrmypdf over the bag's PDF in place. Optimization is
// disabled; Ghostscript already handled size.
func (o *OCRer) Execute(ctx context.Context, bag *bags.Bag) error {
	if err := requirePDF(bag); err != nil {
		return err
	}

	if err := o.runner.Run(ctx, o.cfg.Tools.OCRmyPDF, bag.PDFPath, bag.PDFPath, "--optimize", "0", "--quiet"); err != nil {
		return services.Wrap(services.ErrExternalTool, "ocr-pdf", "ocrmypdf", bag.Identifier, err)
	}

	o.logger.Info("pdf ocred",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.String("path", bag.PDFPath))
	return nil
}
