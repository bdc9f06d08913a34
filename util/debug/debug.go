/*
 * noontide - Masked debug tracing, gated per module without a config file.
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

// Package debug gives each module a bitmask-gated trace sink, the same
// shape as the teacher's module/device/channel debug helpers, minus the
// config-file registration hook: this machine has no device tree to read
// options from, so a module simply calls Init with a file path (or leaves
// it unset to discard everything).
package debug

import (
	"fmt"
	"os"
)

var logFile *os.File

// Init opens path as the destination for subsequent Debugf calls. An
// empty path leaves tracing disabled (all Debugf calls are no-ops).
func Init(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("debug: unable to create trace file %q: %w", path, err)
	}
	logFile = file
	return nil
}

// Debugf writes a module-tagged trace line when mask&level is non-zero
// and a trace sink has been configured via Init.
func Debugf(module string, mask int, level int, format string, a ...interface{}) {
	if logFile == nil || (mask&level) == 0 {
		return
	}
	fmt.Fprintf(logFile, module+": "+format+"\n", a...)
}

// DebugCPUf writes a CPU-tagged trace line, the per-CPU analog of the
// teacher's DebugDevf.
func DebugCPUf(cpuID int, mask int, level int, format string, a ...interface{}) {
	if logFile == nil || (mask&level) == 0 {
		return
	}
	fmt.Fprintf(logFile, "CPU%d: "+format+"\n", append([]interface{}{cpuID}, a...)...)
}
