/*
 * noontide - hex0/hex1/hex2 source parser.
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
	"fmt"
	"strings"
)

const hexCharset = "0123456789abcdefABCDEF"

// ParseHex builds a Table from hex0/hex1/hex2 source: one input line may
// contribute zero or more bytes, counted as pairs of hex digits. '#' and
// ';' start a line comment. '?' and '&' each stand in for a full byte
// (two hex digits) that is resolved later by the assembler/loader and so
// must still advance the offset; ':' introduces a label and contributes
// no bytes itself. Any of '?', '&', ':' swallows the rest of the token up
// to the next space. A line whose hex-digit count is odd is malformed -
// hex digits are always written in pairs - and is reported as an error
// rather than silently truncated.
func ParseHex(src string) (*Table, error) {
	table := &Table{}

	offset := uint64(0)
	scanner := bufio.NewScanner(strings.NewReader(src))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		table.Entries = append(table.Entries, Entry{Offset: offset, Line: line})

		hexChars := 0
		waitForSpace := false
		for _, c := range line {
			if c == '#' || c == ';' {
				break
			}
			if c == ' ' {
				waitForSpace = false
			}
			if waitForSpace {
				continue
			}
			switch c {
			case '?', '&':
				hexChars += 16
				waitForSpace = true
				continue
			case ':':
				waitForSpace = true
				continue
			}
			if strings.ContainsRune(hexCharset, c) {
				hexChars++
			}
		}
		if hexChars%2 != 0 {
			return nil, fmt.Errorf("symbols: line %d: odd hex-digit count (%d)", lineNum, hexChars)
		}
		offset += uint64(hexChars / 2)
	}

	return table, nil
}
