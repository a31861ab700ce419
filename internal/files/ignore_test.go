package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendIgnore_IdempotentAndCreates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := AppendIgnore(dir, ".dlpscan_audit.jsonl"); err != nil {
		t.Fatalf("AppendIgnore: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != ".dlpscan_audit.jsonl\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
	if err := AppendIgnore(dir, ".dlpscan_audit.jsonl"); err != nil {
		t.Fatalf("AppendIgnore second: %v", err)
	}
	b2, _ := os.ReadFile(p)
	if strings.Count(string(b2), ".dlpscan_audit.jsonl") != 1 {
		t.Fatalf("expected single occurrence, got: %q", string(b2))
	}
}

func TestAppendIgnore_AddsMissingNewline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(p, []byte("dist/"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AppendIgnore(dir, ".dlpscan_cache.json"); err != nil {
		t.Fatalf("AppendIgnore: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "dist/\n.dlpscan_cache.json\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestLocalArtifacts(t *testing.T) {
	items := LocalArtifacts()
	if len(items) != 2 || items[0] != ".dlpscan_audit.jsonl" || items[1] != ".dlpscan_cache.json" {
		t.Fatalf("unexpected artifacts: %#v", items)
	}
}
