/*
 * noontide - .lsq macro-assembly source parser.
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

package symbols

import (
	"bufio"
	"strings"
)

// ParseLsq builds a Table from .lsq source. Unlike hex0/1/2, byte size
// depends on how many times a label is referenced elsewhere in the file
// (subaddr/zeroaddr each expand to one 24-byte triple per reference), so
// this is a two-pass parse: first count every label reference, then walk
// the file again to size each line.
func ParseLsq(src string) *Table {
	refCounts := make(map[string]uint64)

	scanLines := func(fn func(tokens []string)) {
		scanner := bufio.NewScanner(strings.NewReader(src))
		for scanner.Scan() {
			fn(strings.Fields(scanner.Text()))
		}
	}

	scanLines(func(tokens []string) {
		if len(tokens) == 0 {
			return
		}
		switch tokens[0] {
		case "abssq", "relsq", "lblsq":
			refCounts[tokens[1]]++
			refCounts[tokens[2]]++
			if tokens[0] == "lblsq" {
				refCounts[tokens[3]]++
			}
		case "subaddr":
			refCounts[tokens[2]]++
		case "raw_ref":
			for _, tok := range tokens[1:] {
				refCounts[tok]++
			}
		}
	})

	table := &Table{}
	offset := uint64(0)

	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		table.Entries = append(table.Entries, Entry{Offset: offset, Line: line})

		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "abssq", "relsq", "lblsq":
			offset += 24
		case "raw", "raw_ref":
			offset += uint64(8 * (len(tokens) - 1))
		case "subaddr", "zeroaddr":
			offset += 24 * refCounts[tokens[1]]
		}
	}

	return table
}
