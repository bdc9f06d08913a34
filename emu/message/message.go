/*
 * noontide - Messages published by workers for the UI collaborator.
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

// Package message defines the tagged UIMessage variant that CPU and serial
// workers publish upward to whatever is consuming the machine (an
// interactive debugger console, a batch runner, or a test harness).
package message

// Kind tags which field of a Message is meaningful.
type Kind int

const (
	// Serial carries one guest-emitted byte in Byte.
	Serial Kind = iota
	// SetEIP carries a batch-end program counter in EIP.
	SetEIP
	// Debug carries a formatted instruction-trace line in EIP and Text.
	Debug
	// CPUStarted reports that the CPU named by CPUID resumed running.
	CPUStarted
	// CPUStopped reports that the CPU named by CPUID has halted.
	CPUStopped
)

// Message is the tagged variant published by workers. Only the field(s)
// relevant to Kind are meaningful.
type Message struct {
	Kind  Kind
	Byte  byte
	EIP   uint64
	Text  string
	CPUID int
}

// Sender is the narrow interface workers use to publish messages; it is
// satisfied by a buffered chan Message. A send on a closed or abandoned
// channel is a concurrency invariant violation, not a recoverable error,
// so Sender implementations are expected to panic or block, never drop.
type Sender interface {
	Send(Message)
}

// Chan adapts a chan Message to the Sender interface.
type Chan chan Message

// Send implements Sender.
func (c Chan) Send(m Message) {
	c <- m
}
