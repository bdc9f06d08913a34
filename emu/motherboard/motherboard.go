/*
 * noontide - Motherboard: conducts the per-macro-cycle barrier protocol.
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

// Package motherboard owns no state of its own beyond the barrier set: it
// is the one goroutine that knows the fixed two-phase order every macro
// cycle runs in (I/O settles completely, then every CPU runs a batch),
// generalized from the teacher's single-core.Core select loop to N
// independently clocked CPU barriers plus one serial barrier.
package motherboard

import (
	"time"

	"github.com/rcornwell/noontide/emu/barrier"
)

// idleSleep caps the conductor's spin rate between macro cycles.
const idleSleep = 20 * time.Microsecond

// Motherboard conducts one full rendezvous with the serial worker, then
// one full rendezvous with each CPU worker, every macro cycle, in that
// fixed order.
type Motherboard struct {
	Serial *barrier.Barrier
	CPUs   []*barrier.Barrier
}

// New builds a Motherboard over the given serial and per-CPU barriers.
func New(serial *barrier.Barrier, cpus []*barrier.Barrier) *Motherboard {
	return &Motherboard{Serial: serial, CPUs: cpus}
}

// runCycle conducts exactly one macro cycle: the I/O-phase rendezvous with
// the serial worker runs to completion (start, then end) before the
// CPU-phase rendezvous with every CPU worker begins (start, then end).
// This ordering guarantees serial-in delivery happens-before any CPU
// instruction in the same cycle; releasing the CPU barriers before the
// I/O phase ends would let a CPU's batch run concurrently with the
// serial worker's access to the shared memory image.
func (mb *Motherboard) runCycle() {
	mb.Serial.Wait() // I/O-start
	mb.Serial.Wait() // I/O-end

	for _, c := range mb.CPUs {
		c.Wait() // cycle-start
	}

	for _, c := range mb.CPUs {
		c.Wait() // cycle-end
	}

	time.Sleep(idleSleep)
}

// Run conducts macro cycles forever until shutdownReq fires. On shutdown
// it acknowledges immediately (workers are never mid-cycle at this point
// because Run only checks shutdownReq between cycles), waits for resume,
// then conducts exactly one more cycle so that every worker - now
// observing its own closed Terminate channel at cycle-start - exits
// instead of blocking forever on the next rendezvous.
func (mb *Motherboard) Run(shutdownReq <-chan struct{}, shutdownAck chan<- struct{}, resume <-chan struct{}) {
	for {
		select {
		case <-shutdownReq:
			shutdownAck <- struct{}{}
			<-resume
			mb.runCycle() // final pass: workers observe Terminate and exit
			return
		default:
		}

		mb.runCycle()
	}
}
