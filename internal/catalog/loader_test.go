package catalog

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codearena/internal/exec"
)

func TestDefaultCatalogValid(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if cat.Len() == 0 {
		t.Fatal("default catalog is empty")
	}
	for _, tmpl := range cat.Templates() {
		if len(tmpl.Tests) == 0 {
			t.Errorf("challenge %q has no tests", tmpl.ID)
		}
		if tmpl.EntryPoint == "" {
			t.Errorf("challenge %q has no entry point", tmpl.ID)
		}
	}
}

func TestTemplateJSONHidesTests(t *testing.T) {
	tmpl := Template{
		ID:         "t",
		Title:      "T",
		EntryPoint: "t",
		Tests:      []exec.TestCase{{Input: []any{1}, Expected: 1}},
	}
	data, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "tests") || strings.Contains(string(data), "expected") {
		t.Fatalf("serialized template leaks tests: %s", data)
	}
}

func TestLoadDirMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "a.yaml", `
challenges:
  - id: one
    title: One
    entryPoint: one
    tests:
      - input: [1]
        expected: 1
`)
	writeCatalogFile(t, dir, "b.yml", `
challenges:
  - id: two
    title: Two
    entryPoint: two
    reward:
      effect: add_time
      target: self
      value: 30
    tests:
      - input: [2]
        expected: 2
`)

	cat, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("len = %d, want 2", cat.Len())
	}
	two := cat.Templates()[1]
	if two.Reward == nil || two.Reward.Effect != "add_time" || two.Reward.Value != 30 {
		t.Fatalf("reward = %+v", two.Reward)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestLoadDirRejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "bad.yaml", `
challenges:
  - id: broken
    title: Broken
    entryPoint: broken
    tests: []
`)
	if _, err := LoadDir(context.Background(), dir); err == nil {
		t.Fatal("expected validation error for template without tests")
	}
}

func TestNewRejectsConflictingEffects(t *testing.T) {
	_, err := New([]Template{{
		ID:         "both",
		Title:      "Both",
		EntryPoint: "both",
		Tests:      []exec.TestCase{{Input: []any{1}, Expected: 1}},
		Reward:     &EffectSpec{Effect: "add_time", Target: "self", Value: 30},
		Challenge:  &ConstraintSpec{Type: "time_limit", Value: 60},
	}})
	if err == nil {
		t.Fatal("expected error for template with reward and challenge")
	}
}

func TestSampleStaysInCatalog(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	known := make(map[string]bool)
	for _, tmpl := range cat.Templates() {
		known[tmpl.ID] = true
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		if tmpl := cat.Sample(rng); !known[tmpl.ID] {
			t.Fatalf("sample returned unknown template %q", tmpl.ID)
		}
	}
}

func writeCatalogFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
