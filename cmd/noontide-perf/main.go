/*
 * noontide - Profile report generator: cmd/noontide-perf.
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

// Command noontide-perf reads a .perf file recorded by a -r run of
// noontide-emu and prints a per-line percentage-of-samples report,
// joined against the target program's debug symbols when available.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	getopt "github.com/pborman/getopt/v2"

	"github.com/fatih/color"

	"github.com/rcornwell/noontide/emu/loader"
	"github.com/rcornwell/noontide/emu/profile"
	"github.com/rcornwell/noontide/emu/symbols"
)

// Color bands for the percentage-of-samples column: hot lines stand out
// in red, warm lines in green, everything else is left uncolored.
const (
	hotThreshold  = 1.0
	warmThreshold = 0.1
)

func main() {
	getopt.SetParameters("<perf_path> <base_path>")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 2 {
		getopt.Usage()
		os.Exit(1)
	}
	perfPath, basePath := args[0], args[1]

	prof, err := profile.Load(perfPath)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	table, err := loader.LoadSymbols(basePath)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	printReport(prof, table)
}

type sample struct {
	eip   uint64
	count uint64
}

func printReport(prof *profile.Profile, table *symbols.Table) {
	total := prof.Total()
	if total == 0 {
		fmt.Println("no samples recorded")
		return
	}

	samples := make([]sample, 0, len(prof.Counts))
	for eip, count := range prof.Counts {
		samples = append(samples, sample{eip: eip, count: count})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].count > samples[j].count })

	for _, s := range samples {
		pct := 100 * float64(s.count) / float64(total)
		line := fmt.Sprintf("%#016x  %8d  %6.2f%%", s.eip, s.count, pct)

		if table != nil {
			if _, rendered := symbols.Render(table, s.eip, 0, true); rendered != "" {
				line += "  " + rendered
			}
		}

		switch {
		case pct >= hotThreshold:
			color.Red("%s", line)
		case pct >= warmThreshold:
			color.Green("%s", line)
		default:
			fmt.Println(line)
		}
	}
}
