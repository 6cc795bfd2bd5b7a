// Package manifests renders IIIF presentation manifests for digitized
// objects and keeps them in sync with the derivative store.
package manifests

import (
	"encoding/json"
	"fmt"

	"pictor/internal/config"
	"pictor/internal/services"
)

// Page describes one canvas of the rendered manifest.
type Page struct {
	Number string
	Width  int
	Height int
}

// Source carries the object metadata embedded in a manifest.
type Source struct {
	DerivedIdentifier string
	Title             string
	DisplayDate       string
}

// Render produces a IIIF presentation manifest in the configured
// version. Pages must already be in display order.
func Render(cfg config.IIIF, src Source, pages []Page) ([]byte, error) {
	if src.DerivedIdentifier == "" {
		return nil, services.Wrap(services.ErrValidation, "manifests", "render", "derived identifier is empty", nil)
	}
	if len(pages) == 0 {
		return nil, services.Wrap(services.ErrValidation, "manifests", "render",
			fmt.Sprintf("object %s has no pages", src.DerivedIdentifier), nil)
	}

	switch cfg.Version {
	case 2:
		return json.MarshalIndent(buildV2(cfg, src, pages), "", "  ")
	case 3:
		return json.MarshalIndent(buildV3(cfg, src, pages), "", "  ")
	default:
		return nil, services.Wrap(services.ErrConfiguration, "manifests", "render",
			fmt.Sprintf("unsupported IIIF version %d", cfg.Version), nil)
	}
}

func manifestID(cfg config.IIIF, id string) string {
	return cfg.ManifestURL + "/" + id
}

func imageID(cfg config.IIIF, id string, page Page) string {
	return cfg.ImageURL + "/" + id + "_" + page.Number
}

func thumbnailURL(cfg config.IIIF, id string, page Page) string {
	return imageID(cfg, id, page) + "/square/200,200/0/default.jpg"
}
