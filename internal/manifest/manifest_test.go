package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "results.xlsx")
	if err := os.WriteFile(in, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)
	m := New(dir, "v1.0", start)
	if m.RunID == "" {
		t.Fatalf("run id not assigned")
	}
	if err := m.AddInput("results", in); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := m.AddInput("mapping", ""); err != nil {
		t.Fatalf("empty input should be ignored: %v", err)
	}
	m.Parameters = Parameters{CertaintyThreshold: 80, FrequencyMin: 2, PipelineStage: "full", Workers: 1}
	m.Outputs = Outputs{Workbook: "standardized.xlsx", Sheets: 2, Rows: 10}
	if err := m.Save(start.Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunDir() != dir {
		t.Fatalf("run dir = %q", got.RunDir())
	}
	want := map[string]Input{"results": {Path: in, SHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"}}
	if diff := cmp.Diff(want, got.Inputs); diff != "" {
		t.Fatalf("inputs (-want +got):\n%s", diff)
	}
	if got.RunID != m.RunID || got.Outputs.Rows != 10 || !got.FinishedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("loaded = %+v", got)
	}
}

func TestAddInputMissingFile(t *testing.T) {
	m := New(t.TempDir(), "v1.0", time.Now())
	if err := m.AddInput("classes", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSaveWithoutDir(t *testing.T) {
	m := New("", "v1.0", time.Now())
	if err := m.Save(time.Now()); err == nil {
		t.Fatalf("expected error without run dir")
	}
}

func TestNewRunDirUnique(t *testing.T) {
	base := filepath.Join(t.TempDir(), "runs")
	now := time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)
	first, stamp, err := NewRunDir(base, now)
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}
	if stamp != "20250403T100000Z" || filepath.Base(first) != stamp {
		t.Fatalf("first = %s (%s)", first, stamp)
	}
	second, _, err := NewRunDir(base, now)
	if err != nil {
		t.Fatalf("NewRunDir again: %v", err)
	}
	if filepath.Base(second) != stamp+"-2" {
		t.Fatalf("second = %s", second)
	}
}
