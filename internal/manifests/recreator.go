package manifests

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pictor/internal/bags"
	"pictor/internal/config"
	"pictor/internal/fileutil"
	"pictor/internal/logging"
	"pictor/internal/services"
	"pictor/internal/services/description"
)

// Gateway is the derivative store surface the recreator needs.
type Gateway interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Dimensions(ctx context.Context, key string) (int, int, error)
	Upload(ctx context.Context, localPath, key, contentType string, metadata map[string]string) error
}

// Lookup resolves descriptive metadata for objects whose database rows
// are gone.
type Lookup interface {
	Lookup(ctx context.Context, derivedID string) (*description.Record, error)
}

// Registry is the bag store surface the recreator needs.
type Registry interface {
	GetByDerivedIdentifier(ctx context.Context, derivedID string) (*bags.Bag, error)
	Add(ctx context.Context, bag *bags.Bag) (*bags.Bag, error)
}

// Recreator rebuilds and republishes manifests for already-uploaded
// objects, using stored JP2 dimensions instead of local files.
type Recreator struct {
	cfg      *config.Config
	store    Registry
	gateway  Gateway
	describe Lookup
	logger   *slog.Logger
}

// NewRecreator builds the recreator.
func NewRecreator(cfg *config.Config, store Registry, gateway Gateway, describe Lookup, logger *slog.Logger) *Recreator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recreator{cfg: cfg, store: store, gateway: gateway, describe: describe, logger: logger}
}

// Run rebuilds the manifest for one derived identifier and uploads it
// over the stored copy. It returns the remote key written.
func (r *Recreator) Run(ctx context.Context, derivedID string) (string, error) {
	derivedID = strings.TrimSpace(derivedID)
	if derivedID == "" {
		return "", services.Wrap(services.ErrValidation, "recreate-manifest", "identifier", "derived identifier is empty", nil)
	}

	src, err := r.resolveSource(ctx, derivedID)
	if err != nil {
		return "", err
	}

	keys, err := r.gateway.List(ctx, "images/"+derivedID+"_")
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", services.Wrap(services.ErrNotFound, "recreate-manifest", "images",
			fmt.Sprintf("no stored images for %s", derivedID), nil)
	}

	pages := make([]Page, 0, len(keys))
	for _, key := range keys {
		number, err := fileutil.PageNumber(key)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "recreate-manifest", "pages", key, err)
		}
		width, height, err := r.gateway.Dimensions(ctx, key)
		if err != nil {
			return "", err
		}
		pages = append(pages, Page{Number: number, Width: width, Height: height})
	}

	data, err := Render(r.cfg.IIIF, *src, pages)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp(r.cfg.Paths.TmpDir, "manifest-")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "recreate-manifest", "temp directory", r.cfg.Paths.TmpDir, err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, derivedID+".json")
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, "recreate-manifest", "write", localPath, err)
	}

	key := "manifests/" + derivedID
	if err := r.gateway.Upload(ctx, localPath, key, "application/json", nil); err != nil {
		return "", err
	}

	r.logger.Info("manifest recreated",
		logging.String("derived_identifier", derivedID),
		logging.Int("pages", len(pages)),
		logging.String("key", key))
	return key, nil
}

// RunAll rebuilds every manifest present in the derivative store and
// returns the derived identifiers processed.
func (r *Recreator) RunAll(ctx context.Context) ([]string, error) {
	keys, err := r.gateway.List(ctx, "manifests/")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var processed []string
	for _, key := range keys {
		derivedID := strings.TrimPrefix(key, "manifests/")
		if derivedID == "" {
			continue
		}
		if _, err := r.Run(ctx, derivedID); err != nil {
			return processed, err
		}
		processed = append(processed, derivedID)
	}
	return processed, nil
}

// resolveSource finds the manifest metadata for a derived identifier,
// falling back to the description service when the bag row is missing
// and re-registering the object so later runs hit the database.
func (r *Recreator) resolveSource(ctx context.Context, derivedID string) (*Source, error) {
	bag, err := r.store.GetByDerivedIdentifier(ctx, derivedID)
	if err != nil {
		return nil, err
	}
	if bag != nil {
		return &Source{
			DerivedIdentifier: bag.DerivedIdentifier,
			Title:             bag.Title,
			DisplayDate:       bag.DisplayDate,
		}, nil
	}

	if r.describe == nil {
		return nil, services.Wrap(services.ErrNotFound, "recreate-manifest", "source",
			fmt.Sprintf("no bag record for %s and no description service configured", derivedID), nil)
	}
	record, err := r.describe.Lookup(ctx, derivedID)
	if err != nil {
		return nil, err
	}
	if got := bags.DeriveIdentifier(record.URI); got != derivedID {
		return nil, services.Wrap(services.ErrValidation, "recreate-manifest", "source",
			fmt.Sprintf("description record %s derives %s, not %s", record.URI, got, derivedID), nil)
	}

	recovered := &bags.Bag{
		Identifier:        derivedID,
		Origin:            bags.OriginDigitization,
		DerivedIdentifier: derivedID,
		Title:             record.Title,
		DisplayDate:       record.Dates,
		Status:            bags.StatusCleanedUp,
	}
	if _, err := r.store.Add(ctx, recovered); err != nil {
		return nil, err
	}
	r.logger.Info("bag record recovered from description service",
		logging.String("derived_identifier", derivedID),
		logging.String("archivesspace_uri", record.URI))

	return &Source{
		DerivedIdentifier: derivedID,
		Title:             record.Title,
		DisplayDate:       record.Dates,
	}, nil
}
