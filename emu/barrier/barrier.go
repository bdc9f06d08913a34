/*
 * noontide - Reusable rendezvous barrier for the motherboard's cycle protocol.
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

// Package barrier implements the two-party rendezvous the motherboard uses
// to interleave I/O settlement with CPU batches. Unlike sync.WaitGroup, a
// Barrier auto-resets once both parties have arrived, so the same value
// can be waited on hundreds of thousands of times a second without being
// recreated.
package barrier

// Barrier is a reusable two-party rendezvous point. One side is
// conventionally the motherboard, the other a CPU or serial worker. Wait
// blocks until both sides have called it, then both return together.
type Barrier struct {
	arrive chan struct{}
	depart chan struct{}
}

// New creates a Barrier ready for use.
func New() *Barrier {
	return &Barrier{
		arrive: make(chan struct{}),
		depart: make(chan struct{}),
	}
}

// Wait blocks until the other party also calls Wait, then both return.
// The barrier is immediately reusable afterward.
func (b *Barrier) Wait() {
	select {
	case b.arrive <- struct{}{}:
		// We arrived first; block until the other party departs us.
		<-b.depart
	case <-b.arrive:
		// The other party arrived first and is waiting on us to send
		// the depart signal.
		b.depart <- struct{}{}
	}
}
