package cleanup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pictor/internal/bags"
	"pictor/internal/cleanup"
	"pictor/internal/testsupport"
)

func TestExecuteRemovesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	bagPath := filepath.Join(cfg.Paths.TmpDir, "bag-1")
	if err := os.MkdirAll(filepath.Join(bagPath, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	archive := filepath.Join(cfg.Paths.SrcDir, "bag-1.tar.gz")
	if err := os.WriteFile(archive, []byte("targz"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	bag := &bags.Bag{Identifier: "bag-1", Origin: bags.OriginDigitization, LocalPath: bagPath}
	stage := cleanup.New(cfg, nil)
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := os.Stat(bagPath); !os.IsNotExist(err) {
		t.Errorf("working tree still present: %v", err)
	}
	if _, err := os.Stat(archive); !os.IsNotExist(err) {
		t.Errorf("archive still present: %v", err)
	}
}

func TestExecuteIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bag := &bags.Bag{
		Identifier: "bag-1",
		Origin:     bags.OriginDigitization,
		LocalPath:  filepath.Join(cfg.Paths.TmpDir, "bag-1"),
	}

	stage := cleanup.New(cfg, nil)
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := stage.Execute(context.Background(), bag); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
