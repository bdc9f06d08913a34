package memory

import (
	"math/rand"
	"testing"
)

// Big-endian round trip: ReadWord(WriteWord(x)) is the identity for all x.
func TestReadWriteWordRoundTrip(t *testing.T) {
	m := New()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 256; i++ {
		offset := uint64(rng.Intn(Size-WordSize)) &^ 7
		want := rng.Uint64()
		m.WriteWord(offset, want)
		if got := m.ReadWord(offset); got != want {
			t.Errorf("offset %#x: got %#x, want %#x", offset, got, want)
		}
	}
}

func TestWriteWordBigEndian(t *testing.T) {
	m := New()
	m.WriteWord(0, 0x0102030405060708)
	got := m.Bytes()[0:8]
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestCPUControlOffsets(t *testing.T) {
	if got := CPUStatusOffset(0); got != CPUCtrlBase {
		t.Errorf("CPUStatusOffset(0) = %#x, want %#x", got, CPUCtrlBase)
	}
	if got := CPUSavedEIPOffset(0); got != CPUCtrlBase+WordSize {
		t.Errorf("CPUSavedEIPOffset(0) = %#x, want %#x", got, CPUCtrlBase+WordSize)
	}
	if got := CPUStatusOffset(3); got != CPUCtrlBase+3*CPUCtrlStride {
		t.Errorf("CPUStatusOffset(3) = %#x, want %#x", got, CPUCtrlBase+3*CPUCtrlStride)
	}
}

func TestLoadImageTooLarge(t *testing.T) {
	m := New()
	if err := m.LoadImage(make([]byte, Size+1)); err == nil {
		t.Fatal("expected error loading an oversized image")
	}
}

func TestLoadImageOverlaysAtZero(t *testing.T) {
	m := New()
	if err := m.LoadImage([]byte{0xAA, 0xBB, 0xCC}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Bytes()[0:3]; got[0] != 0xAA || got[1] != 0xBB || got[2] != 0xCC {
		t.Fatalf("image not overlaid at offset 0: %x", got)
	}
}
