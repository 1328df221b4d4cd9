package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"overdrop"}, args...))
	return out.String(), err
}

func TestScanCommand_Plain(t *testing.T) {
	treedir := t.TempDir()
	vendor := filepath.Join(treedir, "vendor")
	admin := filepath.Join(treedir, "admin")
	writeFile(t, filepath.Join(vendor, "svc.d"), "10-a.toml", "a")
	writeFile(t, filepath.Join(vendor, "svc.d"), "20-b.toml", "b")
	writeFile(t, filepath.Join(admin, "svc.d"), "20-b.toml", "b-admin")

	out, err := runApp(t, "scan", "-b", vendor, "-b", admin, "-p", "svc.d", "-x", "toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "10-a.toml\t" + filepath.Join(vendor, "svc.d", "10-a.toml") + "\n" +
		"20-b.toml\t" + filepath.Join(admin, "svc.d", "20-b.toml") + "\n"
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Errorf("scan output mismatch (-want +got):\n%s", diff)
	}
}

func TestScanCommand_JSON(t *testing.T) {
	treedir := t.TempDir()
	etc := filepath.Join(treedir, "etc")
	writeFile(t, filepath.Join(etc, "svc.d"), "10-a.toml", "a")

	out, err := runApp(t, "scan", "-b", etc, "-p", "svc.d", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resolved map[string]string
	if err := json.Unmarshal([]byte(out), &resolved); err != nil {
		t.Fatalf("scan output is not valid JSON: %v", err)
	}
	expected := map[string]string{
		"10-a.toml": filepath.Join(etc, "svc.d", "10-a.toml"),
	}
	if diff := cmp.Diff(expected, resolved); diff != "" {
		t.Errorf("scan output mismatch (-want +got):\n%s", diff)
	}
}

func TestScanCommand_UnknownFormat(t *testing.T) {
	if _, err := runApp(t, "scan", "-b", t.TempDir(), "--format", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestMergeCommand(t *testing.T) {
	treedir := t.TempDir()
	vendor := filepath.Join(treedir, "vendor")
	admin := filepath.Join(treedir, "admin")
	writeFile(t, filepath.Join(vendor, "svc.d"), "10-base.toml", "greeting = \"hello\"\nretries = 3\n")
	writeFile(t, filepath.Join(admin, "svc.d"), "20-override.toml", "retries = 5\n")

	out, err := runApp(t, "merge", "-b", vendor, "-b", admin, "-p", "svc.d", "-x", "toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var merged map[string]interface{}
	if err := toml.Unmarshal([]byte(out), &merged); err != nil {
		t.Fatalf("merge output is not valid TOML: %v", err)
	}
	expected := map[string]interface{}{
		"greeting": "hello",
		"retries":  int64(5),
	}
	if diff := cmp.Diff(expected, merged); diff != "" {
		t.Errorf("merge output mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeCommand_MalformedFragment(t *testing.T) {
	treedir := t.TempDir()
	etc := filepath.Join(treedir, "etc")
	writeFile(t, filepath.Join(etc, "svc.d"), "10-broken.toml", "not valid toml ===")

	if _, err := runApp(t, "merge", "-b", etc, "-p", "svc.d", "-x", "toml"); err == nil {
		t.Error("expected error for malformed fragment")
	}
}
