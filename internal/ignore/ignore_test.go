package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatch(t *testing.T) {
	dir := t.TempDir()
	ig := filepath.Join(dir, FileName)
	content := "fixtures/\n*.golden\n# comment\n\nlogs/**/debug-*.log\n"
	if err := os.WriteFile(ig, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(ig)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]bool{
		"fixtures/phones.txt":        true,
		"testdata/fixtures/a.txt":    true,
		"out/expected.golden":        true,
		"logs/2026/10/debug-app.log": true,
		"./logs/app.log":             false,
		"src/customers.csv":          false,
	}
	for p, want := range cases {
		if got := m.Match(p); got != want {
			t.Fatalf("Match(%q)=%v want %v", p, got, want)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), FileName))
	if err == nil {
		t.Fatal("expected error for missing ignore file")
	}
	if m.Match("anything.txt") {
		t.Fatal("expected empty matcher to match nothing")
	}
}
