package manifests

import "pictor/internal/config"

const (
	v2PresentationContext = "http://iiif.io/api/presentation/2/context.json"
	v2ImageContext        = "http://iiif.io/api/image/2/context.json"
	v2Level2Profile       = "http://iiif.io/api/image/2/level2.json"
)

type v2Manifest struct {
	Context   string       `json:"@context"`
	ID        string       `json:"@id"`
	Type      string       `json:"@type"`
	Label     string       `json:"label"`
	Metadata  []v2Metadata `json:"metadata,omitempty"`
	Thumbnail *v2Image     `json:"thumbnail,omitempty"`
	Sequences []v2Sequence `json:"sequences"`
}

type v2Metadata struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type v2Sequence struct {
	ID       string     `json:"@id"`
	Type     string     `json:"@type"`
	Canvases []v2Canvas `json:"canvases"`
}

type v2Canvas struct {
	ID        string         `json:"@id"`
	Type      string         `json:"@type"`
	Label     string         `json:"label"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Thumbnail *v2Image       `json:"thumbnail,omitempty"`
	Images    []v2Annotation `json:"images"`
}

type v2Annotation struct {
	Type       string  `json:"@type"`
	Motivation string  `json:"motivation"`
	On         string  `json:"on"`
	Resource   v2Image `json:"resource"`
}

type v2Image struct {
	ID      string     `json:"@id"`
	Type    string     `json:"@type"`
	Format  string     `json:"format,omitempty"`
	Width   int        `json:"width,omitempty"`
	Height  int        `json:"height,omitempty"`
	Service *v2Service `json:"service,omitempty"`
}

type v2Service struct {
	Context string `json:"@context"`
	ID      string `json:"@id"`
	Profile string `json:"profile"`
}

func buildV2(cfg config.IIIF, src Source, pages []Page) v2Manifest {
	base := manifestID(cfg, src.DerivedIdentifier)

	manifest := v2Manifest{
		Context: v2PresentationContext,
		ID:      base,
		Type:    "sc:Manifest",
		Label:   src.Title,
		Thumbnail: &v2Image{
			ID:     thumbnailURL(cfg, src.DerivedIdentifier, pages[0]),
			Type:   "dctypes:Image",
			Format: "image/jpeg",
		},
	}
	if src.DisplayDate != "" {
		manifest.Metadata = append(manifest.Metadata, v2Metadata{Label: "Dates", Value: src.DisplayDate})
	}

	sequence := v2Sequence{
		ID:   base + "/sequence/normal",
		Type: "sc:Sequence",
	}
	for _, page := range pages {
		canvasID := base + "/canvas/" + page.Number
		image := imageID(cfg, src.DerivedIdentifier, page)
		sequence.Canvases = append(sequence.Canvases, v2Canvas{
			ID:     canvasID,
			Type:   "sc:Canvas",
			Label:  "Page " + page.Number,
			Width:  page.Width,
			Height: page.Height,
			Thumbnail: &v2Image{
				ID:     thumbnailURL(cfg, src.DerivedIdentifier, page),
				Type:   "dctypes:Image",
				Format: "image/jpeg",
			},
			Images: []v2Annotation{{
				Type:       "oa:Annotation",
				Motivation: "sc:painting",
				On:         canvasID,
				Resource: v2Image{
					ID:     image + "/full/full/0/default.jpg",
					Type:   "dctypes:Image",
					Format: "image/jpeg",
					Width:  page.Width,
					Height: page.Height,
					Service: &v2Service{
						Context: v2ImageContext,
						ID:      image,
						Profile: v2Level2Profile,
					},
				},
			}},
		})
	}
	manifest.Sequences = []v2Sequence{sequence}
	return manifest
}
