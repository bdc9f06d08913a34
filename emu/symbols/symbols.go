/*
 * noontide - Debug symbol tables: an ordered (offset, source line) map.
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

// Package symbols builds and renders the ordered (offset, source line)
// table that lets the debugger and the profiler report show guest
// addresses in terms of the assembly source they came from. There are
// two producers, one per source dialect (hex0/1/2 and lsq), and one
// consumer: Render.
package symbols

// Entry pairs a byte offset in the assembled image with the exact
// source line that produced the bytes starting there.
type Entry struct {
	Offset uint64
	Line   string
}

// Table is the ordered symbol table for one assembled program. Offsets
// are non-decreasing in Entries order, one entry per source line.
type Table struct {
	Entries []Entry
}
