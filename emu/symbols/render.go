/*
 * noontide - Symbol table rendering for the debugger console.
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
	"sort"
	"strings"
)

// Render finds the source line whose offset range covers eip and returns
// it together with `context` lines of surrounding source, the current
// line marked with a "->  " prefix and every other line with four spaces.
// batch selects the line ending used to join the result ("\n" for batch
// output, "\r\n" for the interactive console). It returns (-1, message)
// if table is nil/empty or eip falls past the last known offset.
func Render(table *Table, eip uint64, context int, batch bool) (int, string) {
	if table == nil || len(table.Entries) == 0 {
		return -1, "Error: missing hex0, hex1, hex2, or lsq file for debugging"
	}

	last := table.Entries[len(table.Entries)-1]
	if last.Offset < eip {
		return -1, "Error: current EIP is beyond end of debug file (run-time generated code?)"
	}

	// Binary search for the last entry whose offset is <= eip.
	curLine := sort.Search(len(table.Entries), func(i int) bool {
		return table.Entries[i].Offset > eip
	}) - 1

	start := 0
	if context <= curLine {
		start = curLine - context
	}
	end := len(table.Entries)
	if curLine+context+1 < end {
		end = curLine + context + 1
	}

	var lines []string
	for i := start; i < end; i++ {
		prefix := "    "
		if i == curLine {
			prefix = "->  "
		}
		lines = append(lines, prefix+table.Entries[i].Line)
	}

	sep := "\r\n"
	if batch {
		sep = "\n"
	}
	return curLine, strings.Join(lines, sep)
}
