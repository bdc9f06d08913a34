package machine

import (
	"testing"
	"time"

	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
)

func TestStartStopSingleCPUHaltInstruction(t *testing.T) {
	ui := make(message.Chan, 64)
	keys := make(chan byte, 4)

	m := New(Config{NumCPUs: 1, BatchSize: 8, UI: ui, Keystrokes: keys})

	// Scenario 1 from spec.md §8: A=B=32, C=MEM_SIZE, mem[32]=0 -> halt.
	m.Mem.WriteWord(0, 32)
	m.Mem.WriteWord(8, 32)
	m.Mem.WriteWord(16, memory.Size)
	m.Mem.WriteWord(32, 0)
	m.Mem.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)

	m.Start()

	deadline := time.After(2 * time.Second)
	var sawFault bool
loop:
	for {
		select {
		case msg := <-ui:
			if msg.Kind == message.SetEIP && msg.EIP == memory.Size {
				sawFault = true
				break loop
			}
		case <-deadline:
			break loop
		}
	}

	m.Stop()

	if !sawFault {
		t.Fatal("did not observe the CPU fault on the out-of-range EIP")
	}
	if got := m.Mem.ReadWord(memory.SerialConnected); got != 1 {
		t.Fatalf("SERIAL_CONNECTED = %d, want 1", got)
	}
}

func TestStopReturnsWithoutDeadlock(t *testing.T) {
	ui := make(message.Chan, 64)
	keys := make(chan byte, 4)

	m := New(Config{NumCPUs: 2, BatchSize: 4, UI: ui, Keystrokes: keys})
	// Infinite self-loop on every CPU: A=B=C=0.
	m.Mem.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)
	m.Mem.WriteWord(memory.CPUStatusOffset(1), memory.StatusRunning)

	m.Start()

	go func() {
		for range ui {
		}
	}()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
}
