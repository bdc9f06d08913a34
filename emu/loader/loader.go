/*
 * noontide - Program image and debug symbol loader.
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

// Package loader resolves a base path (no extension) into a program image
// and, if present, a debug symbol table, the same base/extension
// convention the reference toolchain uses for keeping an assembled binary
// and its human-readable source lines next to each other on disk.
package loader

import (
	"fmt"
	"os"

	"github.com/rcornwell/noontide/emu/symbols"
)

// debugExtensions lists the debug-source extensions to probe, in order;
// the last one that exists wins, so a fresher .lsq shadows a stale .hex0
// left over from an earlier build.
var debugExtensions = []string{"hex0", "hex1", "hex2", "lsq"}

// LoadImage reads basePath+".bin" and returns its raw bytes for
// memory.Image.LoadImage.
func LoadImage(basePath string) ([]byte, error) {
	data, err := os.ReadFile(basePath + ".bin")
	if err != nil {
		return nil, fmt.Errorf("loader: unable to read %s.bin: %w", basePath, err)
	}
	return data, nil
}

// LoadSymbols probes basePath for debug source files and parses the last
// one found. It returns a nil table (not an error) when none exist: debug
// symbols are optional, and callers should degrade to raw addresses.
func LoadSymbols(basePath string) (*symbols.Table, error) {
	var table *symbols.Table

	for _, ext := range debugExtensions {
		path := basePath + "." + ext
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("loader: unable to read %s: %w", path, err)
		}

		if ext == "lsq" {
			table = symbols.ParseLsq(string(data))
		} else {
			table, err = symbols.ParseHex(string(data))
			if err != nil {
				return nil, fmt.Errorf("loader: %s: %w", path, err)
			}
		}
	}

	return table, nil
}
