package manifests

import (
	"encoding/json"
	"errors"
	"testing"

	"pictor/internal/config"
	"pictor/internal/services"
)

var testIIIF = config.IIIF{
	ImageURL:    "https://iiif.example.org/iiif/2",
	ManifestURL: "https://iiif.example.org/manifests",
	Version:     2,
}

var testSource = Source{
	DerivedIdentifier: "AbCdEf123",
	Title:             "Board Minutes",
	DisplayDate:       "1901, 1903-1905",
}

var testPages = []Page{
	{Number: "0001", Width: 2480, Height: 3508},
	{Number: "0002", Width: 2400, Height: 3500},
}

func render(t *testing.T, cfg config.IIIF) map[string]any {
	t.Helper()
	data, err := Render(cfg, testSource, testPages)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	return doc
}

func TestRenderV2(t *testing.T) {
	doc := render(t, testIIIF)

	if doc["@context"] != "http://iiif.io/api/presentation/2/context.json" {
		t.Errorf("@context = %v", doc["@context"])
	}
	if doc["@id"] != "https://iiif.example.org/manifests/AbCdEf123" {
		t.Errorf("@id = %v", doc["@id"])
	}
	if doc["label"] != "Board Minutes" {
		t.Errorf("label = %v", doc["label"])
	}

	thumb := doc["thumbnail"].(map[string]any)
	if thumb["@id"] != "https://iiif.example.org/iiif/2/AbCdEf123_0001/square/200,200/0/default.jpg" {
		t.Errorf("thumbnail = %v", thumb["@id"])
	}

	sequences := doc["sequences"].([]any)
	canvases := sequences[0].(map[string]any)["canvases"].([]any)
	if len(canvases) != 2 {
		t.Fatalf("canvases = %d", len(canvases))
	}

	first := canvases[0].(map[string]any)
	if first["label"] != "Page 0001" {
		t.Errorf("canvas label = %v", first["label"])
	}
	if first["width"].(float64) != 2480 || first["height"].(float64) != 3508 {
		t.Errorf("canvas dims = %v x %v", first["width"], first["height"])
	}

	resource := first["images"].([]any)[0].(map[string]any)["resource"].(map[string]any)
	if resource["@id"] != "https://iiif.example.org/iiif/2/AbCdEf123_0001/full/full/0/default.jpg" {
		t.Errorf("resource id = %v", resource["@id"])
	}
	service := resource["service"].(map[string]any)
	if service["@id"] != "https://iiif.example.org/iiif/2/AbCdEf123_0001" {
		t.Errorf("service id = %v", service["@id"])
	}
	if service["profile"] != "http://iiif.io/api/image/2/level2.json" {
		t.Errorf("service profile = %v", service["profile"])
	}

	metadata := doc["metadata"].([]any)[0].(map[string]any)
	if metadata["label"] != "Dates" || metadata["value"] != "1901, 1903-1905" {
		t.Errorf("metadata = %v", metadata)
	}
}

func TestRenderV3(t *testing.T) {
	cfg := testIIIF
	cfg.Version = 3
	doc := render(t, cfg)

	if doc["@context"] != "http://iiif.io/api/presentation/3/context.json" {
		t.Errorf("@context = %v", doc["@context"])
	}
	if doc["type"] != "Manifest" {
		t.Errorf("type = %v", doc["type"])
	}

	label := doc["label"].(map[string]any)["en"].([]any)
	if label[0] != "Board Minutes" {
		t.Errorf("label = %v", label)
	}

	items := doc["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	canvas := items[0].(map[string]any)
	body := canvas["items"].([]any)[0].(map[string]any)["items"].([]any)[0].(map[string]any)["body"].(map[string]any)
	if body["id"] != "https://iiif.example.org/iiif/2/AbCdEf123_0001/full/max/0/default.jpg" {
		t.Errorf("body id = %v", body["id"])
	}
	service := body["service"].([]any)[0].(map[string]any)
	if service["type"] != "ImageService2" || service["profile"] != "level2" {
		t.Errorf("service = %v", service)
	}
}

func TestRenderRejectsEmptyPages(t *testing.T) {
	_, err := Render(testIIIF, testSource, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestRenderRejectsUnknownVersion(t *testing.T) {
	cfg := testIIIF
	cfg.Version = 4
	_, err := Render(cfg, testSource, testPages)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration failure", err)
	}
}
