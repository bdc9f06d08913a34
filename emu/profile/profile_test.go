package profile

import (
	"path/filepath"
	"testing"
)

func TestRecordAccumulates(t *testing.T) {
	p := New()
	p.Record(100)
	p.Record(100)
	p.Record(200)

	if p.Counts[100] != 2 {
		t.Fatalf("Counts[100] = %d, want 2", p.Counts[100])
	}
	if p.Counts[200] != 1 {
		t.Fatalf("Counts[200] = %d, want 1", p.Counts[200])
	}
	if p.Total() != 3 {
		t.Fatalf("Total() = %d, want 3", p.Total())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := New()
	p.Record(8)
	p.Record(8)
	p.Record(16)

	path := filepath.Join(t.TempDir(), "run.perf")
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Counts[8] != 2 || loaded.Counts[16] != 1 {
		t.Fatalf("loaded counts = %+v, want {8:2 16:1}", loaded.Counts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.perf"))
	if err == nil {
		t.Fatal("Load of a missing file must return an error")
	}
}
