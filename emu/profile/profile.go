/*
 * noontide - Sparse EIP sampling histogram and its on-disk .perf format.
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

// Package profile accumulates a sparse per-EIP sample count while a
// machine runs with recording enabled, and persists it to a .perf file
// that cmd/noontide-perf reads back for reporting. The histogram only
// ever gains keys at addresses the recorded run actually visited, so a
// map is a better fit than an array sized to the whole memory image.
package profile

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Profile is a sparse EIP -> sample count histogram.
type Profile struct {
	Counts map[uint64]uint64
}

// New returns an empty Profile ready to record samples.
func New() *Profile {
	return &Profile{Counts: make(map[uint64]uint64)}
}

// Record adds one sample at eip.
func (p *Profile) Record(eip uint64) {
	p.Counts[eip]++
}

// Total returns the sum of every recorded sample, the denominator for a
// percentage-of-time report.
func (p *Profile) Total() uint64 {
	var total uint64
	for _, c := range p.Counts {
		total += c
	}
	return total
}

// Save writes the histogram to path in gob form. There is no third-party
// serialization format in use anywhere else in this codebase, and gob
// round-trips a map[uint64]uint64 with no schema of its own to maintain,
// so it is the natural choice here.
func (p *Profile) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profile: unable to create %q: %w", path, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(p.Counts); err != nil {
		return fmt.Errorf("profile: unable to encode %q: %w", path, err)
	}
	return nil
}

// Load reads a histogram previously written by Save.
func Load(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: unable to open %q: %w", path, err)
	}
	defer file.Close()

	p := New()
	if err := gob.NewDecoder(file).Decode(&p.Counts); err != nil {
		return nil, fmt.Errorf("profile: unable to decode %q: %w", path, err)
	}
	return p, nil
}
