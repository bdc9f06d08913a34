/*
 * noontide - SUBLEQ CPU worker.
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

// Package cpu implements one SUBLEQ processor thread: fetch/execute in
// batches, cooperate with the motherboard's barrier protocol between
// batches, and honor the memory-mapped start/stop handshake.
package cpu

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rcornwell/noontide/emu/barrier"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
	"github.com/rcornwell/noontide/util/debug"
)

// Debug trace mask bit. There is exactly one gated trace category per
// CPU: the per-instruction Debug message.
const (
	TraceInstructions = 1 << iota
)

// DefaultBatchSize is the release-mode batch size; the reference system's
// empirical sweet spot is 1024-4096 instructions per macro-cycle.
const DefaultBatchSize = 4096

// MaxProfileBatchSize clamps the batch size when profiling is active, so
// that SetEIP messages are dense enough to approximate per-instruction
// sampling.
const MaxProfileBatchSize = 100

// Worker runs one logical SUBLEQ processor.
type Worker struct {
	// ID is this CPU's index into the control region (0..N).
	ID int
	// Mem is the shared machine image.
	Mem *memory.Image
	// Barrier is this CPU's two-party rendezvous with the motherboard.
	Barrier *barrier.Barrier
	// Terminate is closed once, by the termination protocol, to signal
	// every worker to exit at its next cycle boundary.
	Terminate <-chan struct{}
	// UI receives SetEIP/Debug/CPUStarted/CPUStopped messages.
	UI message.Sender
	// BatchSize is the number of instructions executed per macro-cycle
	// while running.
	BatchSize int
	// TraceMask gates the per-instruction Debug message; 0 disables it. A
	// shared *atomic.Int32 (rather than a plain int) lets the debugger
	// console flip tracing on a running worker without its own lock,
	// the same pattern the wider emulator pack uses for live trace
	// toggles. A nil TraceMask behaves as if it always reads 0.
	TraceMask *atomic.Int32

	eip uint64
}

// eipFault reports that eip+24 would run past the end of the image.
type eipFault struct {
	eip uint64
}

func (f eipFault) Error() string {
	return fmt.Sprintf("cpu: EIP %#x + 24 exceeds memory size %#x", f.eip, memory.Size)
}

// Run executes the CPU's cycle loop until Terminate is observed. It is
// meant to be called as `go worker.Run()`; the caller should not call it
// concurrently with itself.
func (w *Worker) Run() {
	for {
		w.Barrier.Wait() // cycle-start

		select {
		case <-w.Terminate:
			w.Barrier.Wait() // cycle-end
			return
		default:
		}

		status := w.Mem.ReadWord(memory.CPUStatusOffset(w.ID))
		if status != memory.StatusRunning {
			if status == memory.StatusStop {
				w.Mem.WriteWord(memory.CPUStatusOffset(w.ID), memory.StatusStopped)
				w.UI.Send(message.Message{Kind: message.CPUStopped, CPUID: w.ID})
			}

			w.Barrier.Wait() // cycle-end

			if w.waitForResume() {
				return
			}
			continue
		}

		if err := w.runBatch(); err != nil {
			var fault eipFault
			if ok := asEIPFault(err, &fault); ok {
				slog.Error(err.Error())
				w.UI.Send(message.Message{Kind: message.SetEIP, EIP: fault.eip})
				w.Mem.WriteWord(memory.CPUStatusOffset(w.ID), memory.StatusStopped)
				w.UI.Send(message.Message{Kind: message.CPUStopped, CPUID: w.ID})
				w.Barrier.Wait() // cycle-end
				w.haltForever()
				return
			}
		}

		w.Mem.WriteWord(memory.CPUSavedEIPOffset(w.ID), w.eip)
		w.UI.Send(message.Message{Kind: message.SetEIP, EIP: w.eip})

		w.Barrier.Wait() // cycle-end
	}
}

func asEIPFault(err error, out *eipFault) bool {
	f, ok := err.(eipFault)
	if ok {
		*out = f
	}
	return ok
}

// waitForResume loops through cycle-start/cycle-end, idling, until the
// control status word reads Running again, honoring termination on each
// cycle-start. It returns true if the worker should exit.
func (w *Worker) waitForResume() bool {
	for {
		w.Barrier.Wait() // cycle-start

		select {
		case <-w.Terminate:
			w.Barrier.Wait() // cycle-end
			return true
		default:
		}

		status := w.Mem.ReadWord(memory.CPUStatusOffset(w.ID))
		if status == memory.StatusRunning {
			w.eip = w.Mem.ReadWord(memory.CPUSavedEIPOffset(w.ID))
			w.UI.Send(message.Message{Kind: message.CPUStarted, CPUID: w.ID})
			w.Barrier.Wait() // re-enter the normal cadence at cycle-start
			return false
		}

		w.Barrier.Wait() // cycle-end
	}
}

// haltForever keeps rendezvousing with the motherboard (so its partners
// never deadlock) without executing any further instructions, until
// termination. A faulted CPU stays faulted for the run; there is no
// internal retry.
func (w *Worker) haltForever() {
	for {
		w.Barrier.Wait() // cycle-start
		select {
		case <-w.Terminate:
			w.Barrier.Wait() // cycle-end
			return
		default:
		}
		w.Barrier.Wait() // cycle-end
	}
}

// runBatch executes up to BatchSize SUBLEQ instructions starting at the
// CPU's current eip, updating w.eip as it goes. It returns an eipFault if
// the instruction boundary invariant (eip+24 <= MEM_SIZE) is violated.
func (w *Worker) runBatch() error {
	for i := 0; i < w.BatchSize; i++ {
		if w.eip+24 > memory.Size {
			return eipFault{eip: w.eip}
		}

		next, info := execute(w.Mem, w.eip)

		mask := int(0)
		if w.TraceMask != nil {
			mask = int(w.TraceMask.Load())
		}
		if mask&TraceInstructions != 0 {
			trace := info.String()
			debug.DebugCPUf(w.ID, mask, TraceInstructions, "%s", trace)
			w.UI.Send(message.Message{Kind: message.Debug, EIP: w.eip, Text: trace + "\r\n"})
		}

		w.eip = next
	}
	return nil
}

// traceInfo holds one executed instruction's operands, formatted into a
// trace line only on demand - building that string unconditionally on
// every instruction would reintroduce the per-instruction overhead the
// trace gate exists to avoid.
type traceInfo struct {
	eip, a, b, c uint64
	aVal, bVal   int64
}

func (info traceInfo) String() string {
	return fmt.Sprintf("%#x %#x(%#x) %#x(%#x) %#x",
		info.eip, info.a, uint64(info.aVal), info.b, uint64(info.bVal), info.c)
}

// execute runs one SUBLEQ instruction at eip and returns the next EIP
// along with its operands for optional trace formatting. The caller must
// ensure eip+24 <= memory.Size before calling execute.
func execute(mem *memory.Image, eip uint64) (next uint64, info traceInfo) {
	a := mem.ReadWord(eip)
	b := mem.ReadWord(eip + 8)
	c := mem.ReadWord(eip + 16)

	aVal := int64(mem.ReadWord(a))
	bVal := int64(mem.ReadWord(b))

	result := aVal - bVal // wraps on overflow; never traps.
	mem.WriteWord(a, uint64(result))

	info = traceInfo{eip: eip, a: a, b: b, c: c, aVal: aVal, bVal: bVal}

	if result <= 0 {
		next = c
	} else {
		next = eip + 24
	}
	return next, info
}

// Step executes one SUBLEQ instruction at eip and returns the next EIP
// along with the formatted trace line for that instruction. It is meant
// for one-off use (the debugger console's "step" command), where the
// cost of formatting a single trace line is immaterial; the batch loop
// uses execute directly so it only pays for formatting when tracing is
// enabled. The caller must ensure eip+24 <= memory.Size before calling
// Step.
func Step(mem *memory.Image, eip uint64) (next uint64, trace string) {
	next, info := execute(mem, eip)
	return next, info.String()
}
