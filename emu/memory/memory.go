/*
 * noontide - Flat shared memory image for the SUBLEQ machine.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package memory implements the flat, shared 320 MiB byte image that a
// SUBLEQ machine uses simultaneously as program, data, and memory-mapped
// I/O region. Reads and writes of 64-bit words are big-endian. There is no
// locking here: ordering across goroutines is provided entirely by the
// motherboard's barrier protocol (see package barrier), not by this package.
package memory

import "fmt"

const (
	// Size is the fixed size of the memory image: 320 MiB.
	Size = 0x14000000

	// WordSize is the width, in bytes, of a SUBLEQ memory word.
	WordSize = 8

	// CPUCtrlBase is the start of the per-CPU control region. Each CPU
	// owns a 16 byte block at CPUCtrlBase + 16*cpuID: an 8 byte status
	// word followed by an 8 byte saved-EIP word.
	CPUCtrlBase = 0x13EE0000

	// CPUCtrlStride is the size in bytes of one CPU's control block.
	CPUCtrlStride = 16

	// SerialConnected is set to 1 by the serial worker at startup.
	SerialConnected = 0x13ED27E0

	// SerialIn is written by the serial worker (char+1) and cleared by
	// the guest program once it has consumed the pending byte.
	SerialIn = 0x13ED27E8

	// SerialOut is written by the guest program (char+1) and cleared by
	// the serial worker once it has published the byte.
	SerialOut = 0x13ED27F0
)

// CPU control status values.
const (
	StatusIdle    = 0 // Reset / never started.
	StatusRunning = 1
	StatusStop    = 2 // Requested by the UI; CPU has not yet observed it.
	StatusStopped = 4 // CPU observed the stop request and halted itself.
)

// Image is the machine's flat memory. Callers obtain non-aliasing access
// only through the accessor functions below; there is no internal locking.
type Image struct {
	bytes []byte
}

// New allocates a zeroed Size-byte image.
func New() *Image {
	return &Image{bytes: make([]byte, Size)}
}

// Bytes exposes the raw backing slice, for the loader (to overlay the
// program binary) and for diagnostic memory dumps. Mutating through this
// slice outside of the barrier protocol is the caller's responsibility.
func (m *Image) Bytes() []byte {
	return m.bytes
}

// Len returns the size of the image in bytes.
func (m *Image) Len() int {
	return len(m.bytes)
}

// ReadWord reads the big-endian 64-bit word at offset. The caller must
// ensure offset+WordSize <= Size; this is the only sanctioned way to read
// a multi-byte value out of the image.
func (m *Image) ReadWord(offset uint64) uint64 {
	b := m.bytes[offset : offset+WordSize]
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

// WriteWord writes word as a big-endian 64-bit value at offset. The caller
// must ensure offset+WordSize <= Size.
func (m *Image) WriteWord(offset uint64, word uint64) {
	b := m.bytes[offset : offset+WordSize]
	b[0] = byte(word >> 56)
	b[1] = byte(word >> 48)
	b[2] = byte(word >> 40)
	b[3] = byte(word >> 32)
	b[4] = byte(word >> 24)
	b[5] = byte(word >> 16)
	b[6] = byte(word >> 8)
	b[7] = byte(word)
}

// CPUStatusOffset returns the offset of the status word for the given
// CPU ID.
func CPUStatusOffset(cpuID int) uint64 {
	return CPUCtrlBase + CPUCtrlStride*uint64(cpuID)
}

// CPUSavedEIPOffset returns the offset of the saved-EIP word for the
// given CPU ID.
func CPUSavedEIPOffset(cpuID int) uint64 {
	return CPUCtrlBase + CPUCtrlStride*uint64(cpuID) + WordSize
}

// LoadImage overlays data into the image starting at offset 0. It is an
// error for data to not fit inside the image.
func (m *Image) LoadImage(data []byte) error {
	if len(data) > len(m.bytes) {
		return fmt.Errorf("memory: image of %d bytes exceeds %d byte machine image", len(data), len(m.bytes))
	}
	copy(m.bytes, data)
	return nil
}
