// Package uploads publishes a bag's derivatives to the remote store,
// one category prefix per derivative type.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"pictor/internal/bags"
	"pictor/internal/fileutil"
	"pictor/internal/imaging"
	"pictor/internal/logging"
	"pictor/internal/routine"
	"pictor/internal/services"
)

// Category maps a local derivative directory to its remote prefix.
type Category struct {
	LocalDir    string
	Prefix      string
	ContentType string
}

// Categories lists the derivative types in upload order.
var Categories = []Category{
	{LocalDir: filepath.Join("data", "PDF"), Prefix: "pdfs", ContentType: "application/pdf"},
	{LocalDir: filepath.Join("data", "JP2"), Prefix: "images", ContentType: "image/jp2"},
	{LocalDir: filepath.Join("data", "MANIFEST"), Prefix: "manifests", ContentType: "application/json"},
}

// Gateway is the derivative store surface the uploader needs.
type Gateway interface {
	Upload(ctx context.Context, localPath, key, contentType string, metadata map[string]string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Descriptor names the stage's pipeline transitions.
func Descriptor() routine.Descriptor {
	return routine.Descriptor{
		Name:       "upload",
		Start:      bags.StatusManifestsCreated,
		InProgress: bags.StatusUploading,
		Done:       bags.StatusUploaded,
		Success:    "Derivatives successfully uploaded",
		Idle:       "No bags waiting for upload",
	}
}

// Uploader publishes derivatives to the remote store.
type Uploader struct {
	gateway Gateway
	replace bool
	logger  *slog.Logger
}

// New builds the stage. With replace false, an object already present
// under a target key fails the bag instead of being overwritten.
func New(gateway Gateway, replace bool, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{gateway: gateway, replace: replace, logger: logger}
}

// Execute uploads every derivative of the bag. Objects are keyed by
// category prefix and filename stem; JP2 uploads carry their pixel
// dimensions as object metadata.
func (u *Uploader) Execute(ctx context.Context, bag *bags.Bag) error {
	if bag.DerivedIdentifier == "" {
		return services.Wrap(services.ErrValidation, "upload", "identifier",
			"bag "+bag.Identifier+" has no derived identifier", nil)
	}

	uploaded := 0
	for _, category := range Categories {
		dir := filepath.Join(bag.LocalPath, category.LocalDir)
		if err := fileutil.CheckDir(dir); err != nil {
			return services.Wrap(services.ErrValidation, "upload", "category", dir, err)
		}

		files, err := fileutil.MatchingFiles(dir, bag.DerivedIdentifier, "")
		if err != nil {
			return services.Wrap(services.ErrValidation, "upload", "list", dir, err)
		}
		if len(files) == 0 {
			return services.Wrap(services.ErrValidation, "upload", "list",
				fmt.Sprintf("bag %s has no %s derivatives in %s", bag.Identifier, category.Prefix, dir), nil)
		}

		for _, file := range files {
			if err := u.put(ctx, category, file); err != nil {
				return err
			}
			uploaded++
		}
	}

	u.logger.Info("derivatives uploaded",
		logging.String(logging.FieldBag, bag.Identifier),
		logging.Int("objects", uploaded))
	return nil
}

func (u *Uploader) put(ctx context.Context, category Category, file string) error {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	key := category.Prefix + "/" + stem

	if !u.replace {
		present, err := u.gateway.Exists(ctx, key)
		if err != nil {
			return err
		}
		if present {
			return services.Wrap(services.ErrConflict, "upload", "exists",
				fmt.Sprintf("object %s already exists", key), nil)
		}
	}

	var metadata map[string]string
	if category.Prefix == "images" {
		width, height, err := imaging.JP2Dimensions(file)
		if err != nil {
			return services.Wrap(services.ErrValidation, "upload", "dimensions", file, err)
		}
		metadata = map[string]string{
			"width":  strconv.Itoa(width),
			"height": strconv.Itoa(height),
		}
	}

	return u.gateway.Upload(ctx, file, key, category.ContentType, metadata)
}
