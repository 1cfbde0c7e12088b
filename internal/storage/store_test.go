package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/ecodash/internal/observe"
)

func generate(t *testing.T) (observe.Params, *observe.Table) {
	t.Helper()
	p := observe.DefaultParams()
	tbl, err := observe.Generate(p, observe.NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	return p, tbl
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	p, tbl := generate(t)
	runID, err := st.Save(p, 42, tbl, map[string]float64{"warming": 2.4})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.StartYear != 2000 || meta.EndYear != 2025 {
		t.Errorf("unexpected range %d..%d", meta.StartYear, meta.EndYear)
	}
	if len(meta.Species) != 2 || meta.Species[0].Baseline != 1000 {
		t.Errorf("unexpected species %+v", meta.Species)
	}
	if meta.Metrics["warming"] != 2.4 {
		t.Errorf("expected warming 2.4, got %f", meta.Metrics["warming"])
	}

	loaded, err := st.LoadTable(runID)
	if err != nil {
		t.Fatalf("load table failed: %v", err)
	}
	if loaded.Len() != tbl.Len() {
		t.Errorf("expected %d rows, got %d", tbl.Len(), loaded.Len())
	}
	want, _ := tbl.Column("species B population")
	got, _ := loaded.Column("species B population")
	for i := range want {
		if d := want[i] - got[i]; d > 1e-6 || d < -1e-6 {
			t.Errorf("row %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p, tbl := generate(t)
	first, err := st.Save(p, 1, tbl, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(p, 2, tbl, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	p, tbl := generate(t)
	runID, err := st.Save(p, 42, tbl, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	data, err := os.ReadFile(filepath.Join(runDir, "table.csv"))
	if err != nil {
		t.Fatalf("table.csv not created: %v", err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != "year,temperature_deviation,species A population,species B population" {
		t.Errorf("unexpected header %q", header)
	}
}

func TestStoreLoad_NotFound(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("run_missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadTable("run_missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReadCSV_BadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"header only", "year,temperature_deviation\n"},
		{"wrong header", "when,temp\n2000,0.1\n"},
		{"bad year", "year,temperature_deviation\nx,0.1\n"},
		{"gap", "year,temperature_deviation\n2000,0.1\n2002,0.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
