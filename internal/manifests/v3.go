package manifests

import "pictor/internal/config"

const v3PresentationContext = "http://iiif.io/api/presentation/3/context.json"

type v3Text map[string][]string

type v3Manifest struct {
	Context   string       `json:"@context"`
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Label     v3Text       `json:"label"`
	Metadata  []v3Metadata `json:"metadata,omitempty"`
	Thumbnail []v3Image    `json:"thumbnail,omitempty"`
	Items     []v3Canvas   `json:"items"`
}

type v3Metadata struct {
	Label v3Text `json:"label"`
	Value v3Text `json:"value"`
}

type v3Canvas struct {
	ID        string             `json:"id"`
	Type      string             `json:"type"`
	Label     v3Text             `json:"label"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Thumbnail []v3Image          `json:"thumbnail,omitempty"`
	Items     []v3AnnotationPage `json:"items"`
}

type v3AnnotationPage struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Items []v3Annotation `json:"items"`
}

type v3Annotation struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Motivation string  `json:"motivation"`
	Target     string  `json:"target"`
	Body       v3Image `json:"body"`
}

type v3Image struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Format  string      `json:"format,omitempty"`
	Width   int         `json:"width,omitempty"`
	Height  int         `json:"height,omitempty"`
	Service []v3Service `json:"service,omitempty"`
}

type v3Service struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Profile string `json:"profile"`
}

func english(value string) v3Text {
	return v3Text{"en": []string{value}}
}

func buildV3(cfg config.IIIF, src Source, pages []Page) v3Manifest {
	base := manifestID(cfg, src.DerivedIdentifier)

	manifest := v3Manifest{
		Context: v3PresentationContext,
		ID:      base,
		Type:    "Manifest",
		Label:   english(src.Title),
		Thumbnail: []v3Image{{
			ID:     thumbnailURL(cfg, src.DerivedIdentifier, pages[0]),
			Type:   "Image",
			Format: "image/jpeg",
		}},
	}
	if src.DisplayDate != "" {
		manifest.Metadata = append(manifest.Metadata, v3Metadata{
			Label: english("Dates"),
			Value: english(src.DisplayDate),
		})
	}

	for _, page := range pages {
		canvasID := base + "/canvas/" + page.Number
		image := imageID(cfg, src.DerivedIdentifier, page)
		manifest.Items = append(manifest.Items, v3Canvas{
			ID:     canvasID,
			Type:   "Canvas",
			Label:  english("Page " + page.Number),
			Width:  page.Width,
			Height: page.Height,
			Thumbnail: []v3Image{{
				ID:     thumbnailURL(cfg, src.DerivedIdentifier, page),
				Type:   "Image",
				Format: "image/jpeg",
			}},
			Items: []v3AnnotationPage{{
				ID:   canvasID + "/page",
				Type: "AnnotationPage",
				Items: []v3Annotation{{
					ID:         canvasID + "/page/image",
					Type:       "Annotation",
					Motivation: "painting",
					Target:     canvasID,
					Body: v3Image{
						ID:     image + "/full/max/0/default.jpg",
						Type:   "Image",
						Format: "image/jpeg",
						Width:  page.Width,
						Height: page.Height,
						Service: []v3Service{{
							ID:      image,
							Type:    "ImageService2",
							Profile: "level2",
						}},
					},
				}},
			}},
		})
	}
	return manifest
}
