/*
 * noontide - Main process: cmd/noontide-emu.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/noontide/command/parser"
	"github.com/rcornwell/noontide/command/reader"
	"github.com/rcornwell/noontide/emu/cpu"
	"github.com/rcornwell/noontide/emu/loader"
	"github.com/rcornwell/noontide/emu/machine"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
	"github.com/rcornwell/noontide/emu/profile"
	"github.com/rcornwell/noontide/util/debug"
	"github.com/rcornwell/noontide/util/logger"
)

var Logger *slog.Logger

func main() {
	optBatch := getopt.StringLong("batch", 'b', "", "Disable the debugger console; read keystrokes from this file and write guest serial output to stdout")
	optRecord := getopt.StringLong("record", 'r', "", "Record processor EIPs to this file, for later analysis with noontide-perf")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebugFile := getopt.StringLong("debug", 'd', "", "Instruction/protocol trace file")
	optNumCPUs := getopt.IntLong("cpus", 'n', 1, "Number of CPUs")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("<base_path>")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 1 {
		getopt.Usage()
		os.Exit(1)
	}
	basePath := args[0]

	var logFile *os.File
	if *optLogFile != "" {
		logFile, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debugToStderr := false
	Logger = slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debugToStderr))
	slog.SetDefault(Logger)

	Logger.Info("noontide started", "base_path", basePath)

	if err := debug.Init(*optDebugFile); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	image, err := loader.LoadImage(basePath)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	symTable, err := loader.LoadSymbols(basePath)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	ui := make(message.Chan, 256)
	keystrokes := make(chan byte, 4096)

	// Recording clamps the batch size so SetEIP samples are dense enough to
	// approximate per-instruction profiling; 0 selects cpu.DefaultBatchSize.
	batchSize := 0
	if *optRecord != "" {
		batchSize = cpu.MaxProfileBatchSize
	}

	m := machine.New(machine.Config{
		NumCPUs:    *optNumCPUs,
		BatchSize:  batchSize,
		UI:         ui,
		Keystrokes: keystrokes,
	})

	if err := m.Mem.LoadImage(image); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	// CPU 0 is the boot processor: it starts running at EIP 0 immediately.
	// Any additional CPUs stay Idle until the debugger resumes them.
	m.Mem.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)

	var recording *profile.Profile
	if *optRecord != "" {
		recording = profile.New()
	}

	batch := *optBatch != ""
	cpusRunning := make(chan int, 1)
	cpusRunning <- 1 // CPU 0 auto-starts.

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			m.Stop()
			if recording != nil {
				if err := recording.Save(*optRecord); err != nil {
					Logger.Error(err.Error())
				}
			}
		})
	}

	allStopped := make(chan struct{})
	go drainUI(ui, recording, cpusRunning, allStopped)

	m.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if batch {
		data, err := os.ReadFile(*optBatch)
		if err != nil {
			Logger.Error(err.Error())
			stop()
			os.Exit(1)
		}
		go func() {
			for _, b := range data {
				keystrokes <- b
			}
		}()

		select {
		case <-allStopped:
		case <-sigChan:
			fmt.Println("Got quit signal")
		}
	} else {
		ctx := &parser.Context{Machine: m, Symbols: symTable, Keystrokes: keystrokes}
		go func() {
			<-sigChan
			fmt.Println("Got quit signal")
			stop()
			os.Exit(0)
		}()
		reader.ConsoleReader(ctx)
	}

	stop()
}

// drainUI is the one goroutine that reads every worker-published message:
// it writes guest serial bytes to stdout, feeds SetEIP samples into the
// optional profile recording, and tracks how many CPUs are currently
// running so batch mode knows when the program has halted on every CPU.
// It never returns on its own - Stop's final barrier pass can still
// deliver messages right up until every worker has exited, and a reader
// that stopped early would deadlock that handshake.
func drainUI(ui <-chan message.Message, recording *profile.Profile, cpusRunning chan int, allStopped chan struct{}) {
	closed := false
	for msg := range ui {
		switch msg.Kind {
		case message.Serial:
			os.Stdout.Write([]byte{msg.Byte})
		case message.SetEIP:
			if recording != nil {
				recording.Record(msg.EIP)
			}
		case message.Debug:
			fmt.Fprint(os.Stderr, msg.Text)
		case message.CPUStarted:
			n := <-cpusRunning
			cpusRunning <- n + 1
		case message.CPUStopped:
			n := <-cpusRunning
			n--
			cpusRunning <- n
			if n == 0 && !closed {
				closed = true
				close(allStopped)
			}
		}
	}
}
