/*
 * noontide - Memory-mapped serial device worker.
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

// Package serial bridges a host character stream to the guest's
// memory-mapped serial registers. It is modeled on the teacher's
// model1052 console device, reduced to the spec's three-register
// protocol: SERIAL_CONNECTED, SERIAL_IN, SERIAL_OUT.
package serial

import (
	"log/slog"
	"sync/atomic"

	"github.com/rcornwell/noontide/emu/barrier"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
	"github.com/rcornwell/noontide/util/debug"
)

// TraceProtocol gates a per-byte trace of the SERIAL_IN/SERIAL_OUT
// handshake, the serial-device analog of cpu.TraceInstructions.
const TraceProtocol = 1 << iota

// Worker bridges host keystrokes to SERIAL_IN and SERIAL_OUT to host
// output.
type Worker struct {
	Mem       *memory.Image
	Barrier   *barrier.Barrier
	Terminate <-chan struct{}
	UI        message.Sender
	// Keystrokes delivers host-typed bytes, one per guest-visible
	// character. It is read non-blockingly each cycle.
	Keystrokes <-chan byte
	// TraceMask gates per-byte protocol tracing; 0 disables it. See
	// cpu.Worker.TraceMask for why this is a shared *atomic.Int32 rather
	// than a plain int. A nil TraceMask behaves as if it always reads 0.
	TraceMask *atomic.Int32

	fifo []byte
}

func (w *Worker) traceMask() int {
	if w.TraceMask == nil {
		return 0
	}
	return int(w.TraceMask.Load())
}

// Run drains the keystroke channel into a local FIFO, delivers at most one
// byte per cycle to SERIAL_IN, and publishes any byte the guest wrote to
// SERIAL_OUT, until Terminate is observed.
func (w *Worker) Run() {
	w.Mem.WriteWord(memory.SerialConnected, 1)

	for {
		w.Barrier.Wait() // I/O-start

		select {
		case <-w.Terminate:
			w.Barrier.Wait() // I/O-end
			return
		default:
		}

		w.drainKeystrokes()

		if len(w.fifo) > 0 && w.Mem.ReadWord(memory.SerialIn) == 0 {
			c := w.fifo[0]
			w.fifo = w.fifo[1:]
			w.Mem.WriteWord(memory.SerialIn, uint64(c)+1)
			debug.Debugf("SERIAL", w.traceMask(), TraceProtocol, "delivered %#x to SERIAL_IN", c)
		}

		out := w.Mem.ReadWord(memory.SerialOut)
		if out != 0 {
			val := out - 1
			if val > 255 {
				slog.Warn("serial: SERIAL_OUT value out of range, dropping byte", "value", val)
			} else {
				w.UI.Send(message.Message{Kind: message.Serial, Byte: byte(val)})
				debug.Debugf("SERIAL", w.traceMask(), TraceProtocol, "published %#x from SERIAL_OUT", val)
			}
			w.Mem.WriteWord(memory.SerialOut, 0)
		}

		w.Barrier.Wait() // I/O-end
	}
}

// drainKeystrokes moves every currently-available keystroke into the
// worker's own FIFO without blocking.
func (w *Worker) drainKeystrokes() {
	for {
		select {
		case c, ok := <-w.Keystrokes:
			if !ok {
				return
			}
			w.fifo = append(w.fifo, c)
		default:
			return
		}
	}
}
