package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImageReadsBinFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "prog")
	if err := os.WriteFile(base+".bin", []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := LoadImage(base)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("len(data) = %d, want 4", len(data))
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("LoadImage of a missing .bin file must return an error")
	}
}

func TestLoadSymbolsNoneExist(t *testing.T) {
	dir := t.TempDir()
	table, err := LoadSymbols(filepath.Join(dir, "prog"))
	if err != nil {
		t.Fatalf("LoadSymbols: %v", err)
	}
	if table != nil {
		t.Fatal("expected a nil table when no debug files exist")
	}
}

func TestLoadSymbolsLsqWinsOverHex0(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "prog")
	if err := os.WriteFile(base+".hex0", []byte("0102\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".lsq", []byte("raw 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadSymbols(base)
	if err != nil {
		t.Fatalf("LoadSymbols: %v", err)
	}
	if len(table.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(table.Entries))
	}
	if table.Entries[0].Line != "raw 1 2 3" {
		t.Fatalf("Entries[0].Line = %q, want the .lsq line, not the .hex0 line", table.Entries[0].Line)
	}
}
