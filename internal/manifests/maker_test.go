package manifests_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pictor/internal/bags"
	"pictor/internal/manifests"
	"pictor/internal/services"
	"pictor/internal/testsupport"
)

func newBag(t *testing.T) (*bags.Bag, string) {
	t.Helper()
	bagPath := filepath.Join(t.TempDir(), "bag-1")
	jp2Dir := filepath.Join(bagPath, "data", "JP2")
	if err := os.MkdirAll(jp2Dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	bag := &bags.Bag{
		Identifier:        "bag-1",
		Origin:            bags.OriginDigitization,
		LocalPath:         bagPath,
		DerivedIdentifier: "AbCdEf123",
		Title:             "Board Minutes",
		DisplayDate:       "1901",
	}
	return bag, jp2Dir
}

func TestMakerWritesManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bag, jp2Dir := newBag(t)

	testsupport.WriteJP2(t, filepath.Join(jp2Dir, "AbCdEf123_0002.jp2"), 2400, 3500)
	testsupport.WriteJP2(t, filepath.Join(jp2Dir, "AbCdEf123_0001.jp2"), 2480, 3508)

	stage := manifests.NewMaker(cfg, nil)
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	outPath := filepath.Join(bag.LocalPath, "data", "MANIFEST", "AbCdEf123.json")
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if doc["label"] != "Board Minutes" {
		t.Errorf("label = %v", doc["label"])
	}
	canvases := doc["sequences"].([]any)[0].(map[string]any)["canvases"].([]any)
	if len(canvases) != 2 {
		t.Fatalf("canvases = %d", len(canvases))
	}
	first := canvases[0].(map[string]any)
	if first["label"] != "Page 0001" {
		t.Errorf("first canvas = %v", first["label"])
	}
	if first["width"].(float64) != 2480 {
		t.Errorf("first canvas width = %v", first["width"])
	}
}

func TestMakerFailsWithoutJP2s(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bag, _ := newBag(t)

	stage := manifests.NewMaker(cfg, nil)
	err := stage.Execute(context.Background(), bag)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}
