/*
 * noontide - Machine: owns the memory image and wires every worker together.
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

// Package machine is the one place that owns the shared memory image and
// starts every goroutine that touches it: one worker per CPU, one serial
// worker, and the motherboard that conducts their barrier rendezvous. Its
// Start/Stop pair plays the same role as the teacher's core.Start/Stop,
// generalized from a single CPU to N and carrying the extra
// acknowledge/resume round trip the barrier protocol needs to shut down
// cleanly.
package machine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcornwell/noontide/emu/barrier"
	"github.com/rcornwell/noontide/emu/cpu"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
	"github.com/rcornwell/noontide/emu/motherboard"
	"github.com/rcornwell/noontide/emu/serial"
)

// stopTimeout bounds how long Stop waits for every worker to join before
// giving up and returning anyway, the same shape as the teacher's
// core.Stop bounded wait.
const stopTimeout = 2 * time.Second

// Config describes the machine to build.
type Config struct {
	NumCPUs    int
	BatchSize  int
	TraceMask  int
	UI         message.Sender
	Keystrokes <-chan byte
}

// Machine owns the shared image and every worker goroutine that operates
// on it.
type Machine struct {
	Mem *memory.Image
	// NumCPUs is the number of CPU workers wired into this machine.
	NumCPUs int
	// TraceMask is shared by every CPU and the serial worker; toggling it
	// (e.g. from the debugger console's "trace on|off" command) takes
	// effect on their very next instruction/cycle without restarting
	// anything.
	TraceMask *atomic.Int32

	cpus         []*cpu.Worker
	serialWorker *serial.Worker
	motherboard  *motherboard.Motherboard
	terminate    chan struct{}
	shutdownReq  chan struct{}
	shutdownAck  chan struct{}
	resume       chan struct{}
	wg           sync.WaitGroup
}

// New builds a Machine with cfg.NumCPUs CPU workers and one serial worker,
// all sharing a freshly allocated memory image, wired to a motherboard
// that conducts their barrier rendezvous.
func New(cfg Config) *Machine {
	mem := memory.New()

	terminate := make(chan struct{})

	traceMask := &atomic.Int32{}
	traceMask.Store(int32(cfg.TraceMask))

	serialBarrier := barrier.New()
	serialWorker := &serial.Worker{
		Mem:        mem,
		Barrier:    serialBarrier,
		Terminate:  terminate,
		UI:         cfg.UI,
		Keystrokes: cfg.Keystrokes,
		TraceMask:  traceMask,
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = cpu.DefaultBatchSize
	}

	cpuBarriers := make([]*barrier.Barrier, cfg.NumCPUs)
	cpus := make([]*cpu.Worker, cfg.NumCPUs)
	for i := 0; i < cfg.NumCPUs; i++ {
		cpuBarriers[i] = barrier.New()
		cpus[i] = &cpu.Worker{
			ID:        i,
			Mem:       mem,
			Barrier:   cpuBarriers[i],
			Terminate: terminate,
			UI:        cfg.UI,
			BatchSize: batchSize,
			TraceMask: traceMask,
		}
	}

	return &Machine{
		Mem:          mem,
		NumCPUs:      cfg.NumCPUs,
		TraceMask:    traceMask,
		cpus:         cpus,
		serialWorker: serialWorker,
		motherboard:  motherboard.New(serialBarrier, cpuBarriers),
		terminate:    terminate,
		shutdownReq:  make(chan struct{}),
		shutdownAck:  make(chan struct{}),
		resume:       make(chan struct{}),
	}
}

// Start launches one goroutine per CPU, one for the serial worker, and one
// for the motherboard.
func (m *Machine) Start() {
	for _, c := range m.cpus {
		m.wg.Add(1)
		worker := c
		go func() {
			defer m.wg.Done()
			worker.Run()
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.serialWorker.Run()
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.motherboard.Run(m.shutdownReq, m.shutdownAck, m.resume)
	}()
}

// Step executes exactly one instruction on cpuID directly, without
// waking its worker goroutine, and advances its saved EIP. The CPU must
// already be paused (status Stopped); this is the debugger console's
// "step" command, a one-off use the batch-oriented worker loop in
// package cpu is not meant to serve on its own.
func (m *Machine) Step(cpuID int) (string, error) {
	if cpuID < 0 || cpuID >= len(m.cpus) {
		return "", fmt.Errorf("machine: no such CPU %d", cpuID)
	}

	status := m.Mem.ReadWord(memory.CPUStatusOffset(cpuID))
	if status != memory.StatusStopped {
		return "", fmt.Errorf("machine: CPU %d must be paused before stepping", cpuID)
	}

	eip := m.Mem.ReadWord(memory.CPUSavedEIPOffset(cpuID))
	if eip+24 > memory.Size {
		return "", fmt.Errorf("machine: CPU %d EIP %#x + 24 exceeds memory size %#x", cpuID, eip, memory.Size)
	}

	next, trace := cpu.Step(m.Mem, eip)
	m.Mem.WriteWord(memory.CPUSavedEIPOffset(cpuID), next)
	return trace, nil
}

// Stop drives the five-step termination handshake: ask the motherboard to
// pause between cycles, wait for its acknowledgement (so no worker is
// mid-batch), broadcast termination to every worker, let the motherboard
// resume, and let it conduct one final cycle so each worker observes
// Terminate at its own next cycle-start and exits. It then waits (bounded)
// for every goroutine to join.
func (m *Machine) Stop() {
	close(m.shutdownReq)
	<-m.shutdownAck

	close(m.terminate)
	m.resume <- struct{}{}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("machine: timed out waiting for workers to stop")
	}
}
