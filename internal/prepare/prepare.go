// Package prepare implements the first pipeline stage: unpack the
// transferred bag, read its ArchivesSpace pointer, and fetch the
// descriptive metadata the later stages embed in manifests.
package prepare

import (
	"bufio"
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
	"pictor/internal/routine"
	"pictor/internal/services"
	"pictor/internal/services/archivesspace"
)

const archivesSpaceURIKey = "ArchivesSpace-URI"

// ObjectFetcher retrieves descriptive metadata for an ArchivesSpace URI.
type ObjectFetcher interface {
	GetObject(ctx context.Context, uri string) (*archivesspace.Description, error)
}

// Descriptor names the stage's pipeline transitions.
func Descriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "prepare",
		Start:      bags.StatusCreated,
		InProgress: bags.StatusPreparing,
		Done:       bags.StatusPrepared,
		Success:    "Bags successfully prepared",
		Idle:       "No bags waiting to be prepared",
	}
}

// Preparer unpacks bags and resolves their descriptive metadata.
type Preparer struct {
	cfg    *config.Config
	aspace ObjectFetcher
	logger *slog.Logger
}

// New builds the stage. Both pipeline directories must exist.
func New(cfg *config.Config, aspace ObjectFetcher, logger *slog.Logger) (*Preparer, error) {
	if err := fileutil.CheckDir(cfg.Paths.SrcDir); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prepare", "new", "source directory", err)
	}
	if err := fileutil.CheckDir(cfg.Paths.TmpDir); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prepare", "new", "working directory", err)
	}
	if aspace == nil {
		return nil, services.Wrap(services.ErrConfiguration, "prepare", "new", "archivesspace client is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Preparer{cfg: cfg, aspace: aspace, logger: logger}, nil
}

// Execute unpacks the bag archive into the working directory and fills
// the bag record with its derived identifier and display metadata.
func (p *Preparer) Execute(ctx context.Context, bag *bags.Bag) error {
	if bag.Origin != bags.OriginDigitization {
		return services.Wrap(services.ErrValidation, "prepare", "origin",
			fmt.Sprintf("bag %s has origin %q, only %q is processed", bag.Identifier, bag.Origin, bags.OriginDigitization), nil)
	}

	archive := filepath.Join(p.cfg.Paths.SrcDir, bag.Identifier+".tar.gz")
	if _, err := os.Stat(archive); err != nil {
		return services.Wrap(services.ErrValidation, "prepare", "archive", archive, err)
	}

	if err := fileutil.ExtractTarGz(archive, p.cfg.Paths.TmpDir); err != nil {
		return services.Wrap(services.ErrValidation, "prepare", "extract", archive, err)
	}
	bagPath := filepath.Join(p.cfg.Paths.TmpDir, bag.Identifier)
	if err := fileutil.CheckDir(bagPath); err != nil {
		return services.Wrap(services.ErrValidation, "prepare", "extract",
			fmt.Sprintf("archive %s did not contain directory %s", archive, bag.Identifier), err)
	}

	uri, err := archivesSpaceURI(filepath.Join(bagPath, "bag-info.txt"))
	if err != nil {
		return err
	}

	desc, err := p.aspace.GetObject(ctx, uri)
	if err != nil {
		return err
	}

	bag.LocalPath = bagPath
	bag.DerivedIdentifier = bags.DeriveIdentifier(uri)
	bag.Title = desc.Title
	bag.DisplayDate = desc.Dates

	p.logger.Info("bag prepared",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.String("derived_identifier", bag.DerivedIdentifier),
		logging.String("archivesspace_uri", uri))
	return nil
}

// archivesSpaceURI reads the ArchivesSpace-URI tag out of bag-info.txt.
func archivesSpaceURI(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "prepare", "bag-info", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == archivesSpaceURIKey {
			uri := strings.TrimSpace(value)
			if uri == "" {
				break
			}
			return uri, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", services.Wrap(services.ErrValidation, "prepare", "bag-info", path, err)
	}
	return "", services.Wrap(services.ErrValidation, "prepare", "bag-info",
		fmt.Sprintf("%s has no %s tag", path, archivesSpaceURIKey), nil)
}
