package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
src_dir = %q
tmp_dir = %q
log_dir = %q

[logging]
level = "error"
`, filepath.Join(base, "src"), filepath.Join(base, "tmp"), filepath.Join(base, "log"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	output, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"run", "bags", "recreate-manifest", "status", "config"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Errorf("output = %q", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	// Refuses to overwrite.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}
}

func TestBagsAddAndList(t *testing.T) {
	cfgPath := writeConfig(t)

	output, err := runCommand(t, "--config", cfgPath, "bags", "add", "bag-1", "bag-2")
	if err != nil {
		t.Fatalf("bags add: %v", err)
	}
	if !strings.Contains(output, "Added bag bag-1") || !strings.Contains(output, "Added bag bag-2") {
		t.Errorf("add output = %q", output)
	}

	output, err = runCommand(t, "--config", cfgPath, "bags", "list")
	if err != nil {
		t.Fatalf("bags list: %v", err)
	}
	if !strings.Contains(output, "bag-1") || !strings.Contains(output, "created") {
		t.Errorf("list output = %q", output)
	}

	output, err = runCommand(t, "--config", cfgPath, "bags", "list", "--status", "cleaned_up")
	if err != nil {
		t.Fatalf("bags list --status: %v", err)
	}
	if !strings.Contains(output, "No bags found") {
		t.Errorf("filtered list output = %q", output)
	}
}

func TestBagsListRejectsUnknownStatus(t *testing.T) {
	cfgPath := writeConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "bags", "list", "--status", "nonsense"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestBagsShow(t *testing.T) {
	cfgPath := writeConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "bags", "add", "bag-1"); err != nil {
		t.Fatalf("bags add: %v", err)
	}

	output, err := runCommand(t, "--config", cfgPath, "bags", "show", "bag-1")
	if err != nil {
		t.Fatalf("bags show: %v", err)
	}
	if !strings.Contains(output, "Identifier:         bag-1") {
		t.Errorf("show output = %q", output)
	}
	if !strings.Contains(output, "Status:             created") {
		t.Errorf("show output = %q", output)
	}

	if _, err := runCommand(t, "--config", cfgPath, "bags", "show", "missing"); err == nil {
		t.Fatal("expected error for unknown bag")
	}
}

func TestRecreateManifestArgumentValidation(t *testing.T) {
	cfgPath := writeConfig(t)
	if _, err := runCommand(t, "--config", cfgPath, "recreate-manifest"); err == nil {
		t.Fatal("expected error without identifiers")
	}
	if _, err := runCommand(t, "--config", cfgPath, "recreate-manifest", "--all", "some-id"); err == nil {
		t.Fatal("expected error combining --all with identifiers")
	}
}
