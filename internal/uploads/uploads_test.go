package uploads_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pictor/internal/bags"
	"pictor/internal/services"
	"pictor/internal/testsupport"
	"pictor/internal/uploads"
)

type upload struct {
	key         string
	contentType string
	metadata    map[string]string
}

type fakeGateway struct {
	uploads  []upload
	existing map[string]bool
	err      error
}

func (g *fakeGateway) Upload(_ context.Context, _, key, contentType string, metadata map[string]string) error {
	if g.err != nil {
		return g.err
	}
	g.uploads = append(g.uploads, upload{key: key, contentType: contentType, metadata: metadata})
	return nil
}

func (g *fakeGateway) Exists(_ context.Context, key string) (bool, error) {
	return g.existing[key], nil
}

func newBag(t *testing.T) *bags.Bag {
	t.Helper()
	bagPath := filepath.Join(t.TempDir(), "bag-1")

	pdfDir := filepath.Join(bagPath, "data", "PDF")
	jp2Dir := filepath.Join(bagPath, "data", "JP2")
	manifestDir := filepath.Join(bagPath, "data", "MANIFEST")
	for _, dir := range []string{pdfDir, jp2Dir, manifestDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	write := func(path, content string) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	write(filepath.Join(pdfDir, "AbCdEf123.pdf"), "%PDF-1.4")
	testsupport.WriteJP2(t, filepath.Join(jp2Dir, "AbCdEf123_0001.jp2"), 2480, 3508)
	testsupport.WriteJP2(t, filepath.Join(jp2Dir, "AbCdEf123_0002.jp2"), 2400, 3500)
	write(filepath.Join(manifestDir, "AbCdEf123.json"), "{}")

	return &bags.Bag{
		Identifier:        "bag-1",
		Origin:            bags.OriginDigitization,
		LocalPath:         bagPath,
		DerivedIdentifier: "AbCdEf123",
	}
}

func TestExecuteUploadsAllCategories(t *testing.T) {
	bag := newBag(t)
	gateway := &fakeGateway{}

	stage := uploads.New(gateway, false, nil)
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []struct {
		key         string
		contentType string
	}{
		{"pdfs/AbCdEf123", "application/pdf"},
		{"images/AbCdEf123_0001", "image/jp2"},
		{"images/AbCdEf123_0002", "image/jp2"},
		{"manifests/AbCdEf123", "application/json"},
	}
	if len(gateway.uploads) != len(want) {
		t.Fatalf("uploads = %d: %+v", len(gateway.uploads), gateway.uploads)
	}
	for i, w := range want {
		got := gateway.uploads[i]
		if got.key != w.key || got.contentType != w.contentType {
			t.Errorf("upload %d = %+v, want %+v", i, got, w)
		}
	}

	firstImage := gateway.uploads[1]
	if firstImage.metadata["width"] != "2480" || firstImage.metadata["height"] != "3508" {
		t.Errorf("image metadata = %v", firstImage.metadata)
	}
	if gateway.uploads[0].metadata != nil {
		t.Errorf("pdf upload carries metadata: %v", gateway.uploads[0].metadata)
	}
}

func TestExecuteConflictWithoutReplace(t *testing.T) {
	bag := newBag(t)
	gateway := &fakeGateway{existing: map[string]bool{"pdfs/AbCdEf123": true}}

	stage := uploads.New(gateway, false, nil)
	err := stage.Execute(context.Background(), bag)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(gateway.uploads) != 0 {
		t.Errorf("uploads happened despite conflict: %+v", gateway.uploads)
	}
}

func TestExecuteReplaceOverwrites(t *testing.T) {
	bag := newBag(t)
	gateway := &fakeGateway{existing: map[string]bool{"pdfs/AbCdEf123": true}}

	stage := uploads.New(gateway, true, nil)
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(gateway.uploads) != 4 {
		t.Errorf("uploads = %d", len(gateway.uploads))
	}
}

func TestExecuteMissingCategory(t *testing.T) {
	bag := newBag(t)
	if err := os.RemoveAll(filepath.Join(bag.LocalPath, "data", "MANIFEST")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	stage := uploads.New(&fakeGateway{}, false, nil)
	err := stage.Execute(context.Background(), bag)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestExecuteRequiresDerivedIdentifier(t *testing.T) {
	bag := newBag(t)
	bag.DerivedIdentifier = ""

	stage := uploads.New(&fakeGateway{}, false, nil)
	err := stage.Execute(context.Background(), bag)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}
