package manifests

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
)

// MakerDescriptor names the manifest stage's pipeline transitions.
func MakerDescriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "make-manifests",
		Start:      bags.StatusPDFOCRed,
		InProgress: bags.StatusMakingManifests,
		Done:       bags.StatusManifestsCreated,
		Success:    "Manifests successfully created",
		Idle:       "No bags waiting for manifest creation",
	}
}

// Maker renders a bag's IIIF manifest from its local JP2 derivatives.
type Maker struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewMaker builds the stage.
func NewMaker(cfg *config.Config, logger *slog.Logger) *Maker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Maker{cfg: cfg, logger: logger}
}

// Execute measures each JP2 page and writes the rendered manifest to
// data/MANIFEST/{derived}.json.
func (m *Maker) Execute(_ context.Context, bag *bags.Bag) error {
	jp2Dir := filepath.Join(bag.LocalPath, "data", "JP2")
	files, err := fileutil.MatchingFiles(jp2Dir, bag.DerivedIdentifier, ".jp2")
	if err != nil {
		return services.Wrap(services.ErrValidation, "make-manifests", "list", jp2Dir, err)
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "make-manifests", "list",
			fmt.Sprintf("bag %s has no JP2 files in %s", bag.Identifier, jp2Dir), nil)
	}
	if err := fileutil.SortByPage(files); err != nil {
		return services.Wrap(services.ErrValidation, "make-manifests", "pages", err.Error(), err)
	}

	pages := make([]Page, 0, len(files))
	for _, file := range files {
		number, err := fileutil.PageNumber(file)
		if err != nil {
			return services.Wrap(services.ErrValidation, "make-manifests", "pages", file, err)
		}
		width, height, err := imaging.JP2Dimensions(file)
		if err != nil {
			return services.Wrap(services.ErrValidation, "make-manifests", "dimensions", file, err)
		}
		pages = append(pages, Page{Number: number, Width: width, Height: height})
	}

	data, err := Render(m.cfg.IIIF, Source{
		DerivedIdentifier: bag.DerivedIdentifier,
		Title:             bag.Title,
		DisplayDate:       bag.DisplayDate,
	}, pages)
	if err != nil {
		return err
	}

	outDir := filepath.Join(bag.LocalPath, "data", "MANIFEST")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "make-manifests", "output directory", outDir, err)
	}
	outPath := filepath.Join(outDir, bag.DerivedIdentifier+".json")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, "make-manifests", "write", outPath, err)
	}

	m.logger.Info("manifest created",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.Int("pages", len(pages)),
		logging.String("path", outPath))
	return nil
}
