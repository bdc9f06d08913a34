package cpu

import (
	"math"
	"testing"

	"github.com/rcornwell/noontide/emu/barrier"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
)

type collector struct {
	messages []message.Message
}

func (c *collector) Send(m message.Message) {
	c.messages = append(c.messages, m)
}

// Scenario 1 from spec.md §8: halt instruction. A=32, B=32, C=MEM_SIZE,
// mem[32]=0. a=0, b=0, a-b=0, branch taken, new EIP=MEM_SIZE.
func TestStepHaltInstruction(t *testing.T) {
	m := memory.New()
	m.WriteWord(0, 32)
	m.WriteWord(8, 32)
	m.WriteWord(16, memory.Size)
	m.WriteWord(32, 0)

	next, _ := Step(m, 0)
	if next != memory.Size {
		t.Fatalf("next EIP = %#x, want %#x", next, memory.Size)
	}
}

// Scenario 2 from spec.md §8: counter loop, exactly two instructions.
func TestStepCounterLoop(t *testing.T) {
	m := memory.New()
	// First instruction at 0: A=48, B=56, C=24.
	m.WriteWord(0, 48)
	m.WriteWord(8, 56)
	m.WriteWord(16, 24)
	// Second instruction at 24: A=48, B=48, C=infinity marker (use Size).
	m.WriteWord(24, 48)
	m.WriteWord(32, 48)
	m.WriteWord(40, memory.Size)
	m.WriteWord(48, 5) // counter
	m.WriteWord(56, 1) // decrement

	eip := uint64(0)
	eip, _ = Step(m, eip)
	if got := int64(m.ReadWord(48)); got != 4 {
		t.Fatalf("mem[48] after first instruction = %d, want 4", got)
	}
	if eip != 24 {
		t.Fatalf("EIP after first instruction = %#x, want 24 (branch not taken)", eip)
	}

	eip, _ = Step(m, eip)
	if got := int64(m.ReadWord(48)); got != 0 {
		t.Fatalf("mem[48] after second instruction = %d, want 0", got)
	}
	if eip != memory.Size {
		t.Fatalf("EIP after second instruction = %#x, want %#x (branch taken)", eip, memory.Size)
	}
}

func TestStepSignedComparisonOnResult(t *testing.T) {
	m := memory.New()
	m.WriteWord(0, 32) // A
	m.WriteWord(8, 40) // B
	m.WriteWord(16, 9999)
	m.WriteWord(32, 5) // a
	m.WriteWord(40, 5) // b -> a-b == 0, branch taken (<=0)

	next, _ := Step(m, 0)
	if next != 9999 {
		t.Fatalf("a-b==0 must branch: next=%#x, want 9999", next)
	}
}

func TestStepArithmeticWraps(t *testing.T) {
	m := memory.New()
	m.WriteWord(0, 32)
	m.WriteWord(8, 40)
	m.WriteWord(16, 9999)
	minInt64 := int64(math.MinInt64)
	m.WriteWord(32, uint64(minInt64))
	m.WriteWord(40, 1) // MinInt64 - 1 wraps to MaxInt64, which is > 0.

	next, _ := Step(m, 0)
	if got := int64(m.ReadWord(32)); got != math.MaxInt64 {
		t.Fatalf("wrapped result = %d, want %d", got, int64(math.MaxInt64))
	}
	if next != 24 {
		t.Fatalf("positive wrapped result must not branch: next=%#x, want 24", next)
	}
}

// runOneCycle drives a Worker through exactly one cycle-start/cycle-end
// pair from the motherboard side, returning once the worker has
// rendezvoused cycle-end.
func runOneCycle(b *barrier.Barrier) {
	b.Wait()
	b.Wait()
}

func TestWorkerEIPFaultHalts(t *testing.T) {
	m := memory.New()
	// Start EIP right at the edge so eip+24 > Size.
	eip := uint64(memory.Size - 8)
	m.WriteWord(0, 0)
	m.WriteWord(8, 0)
	m.WriteWord(16, 0)
	m.WriteWord(memory.CPUSavedEIPOffset(0), eip)
	m.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)

	b := barrier.New()
	term := make(chan struct{})
	ui := &collector{}

	w := &Worker{ID: 0, Mem: m, Barrier: b, Terminate: term, UI: ui, BatchSize: DefaultBatchSize}
	w.eip = eip

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	runOneCycle(b) // the faulting cycle
	runOneCycle(b) // haltForever still rendezvous after faulting

	close(term)
	runOneCycle(b)

	<-done

	foundFault := false
	for _, msg := range ui.messages {
		if msg.Kind == message.SetEIP && msg.EIP == eip {
			foundFault = true
		}
	}
	if !foundFault {
		t.Fatal("worker did not publish SetEIP at the faulting address")
	}
}

func TestWorkerPauseResumeCycle(t *testing.T) {
	m := memory.New()
	// Infinite self-loop so the CPU never naturally halts: A=B=0, C=0.
	m.WriteWord(0, 0)
	m.WriteWord(8, 0)
	m.WriteWord(16, 0)
	m.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)

	b := barrier.New()
	term := make(chan struct{})
	ui := &collector{}
	w := &Worker{ID: 0, Mem: m, Barrier: b, Terminate: term, UI: ui, BatchSize: 10}

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	runOneCycle(b) // one batch of running instructions

	// Request a stop.
	m.WriteWord(memory.CPUStatusOffset(0), memory.StatusStop)
	runOneCycle(b)

	if got := m.ReadWord(memory.CPUStatusOffset(0)); got != memory.StatusStopped {
		t.Fatalf("status after stop request = %d, want %d", got, memory.StatusStopped)
	}

	// Resume at a fresh EIP.
	m.WriteWord(memory.CPUSavedEIPOffset(0), 24)
	m.WriteWord(memory.CPUStatusOffset(0), memory.StatusRunning)
	runOneCycle(b) // observes resume, re-enters cadence
	runOneCycle(b) // one batch at the new EIP

	close(term)
	runOneCycle(b)
	<-done

	var sawStopped, sawStarted bool
	for _, msg := range ui.messages {
		if msg.Kind == message.CPUStopped {
			sawStopped = true
		}
		if msg.Kind == message.CPUStarted {
			sawStarted = true
		}
	}
	if !sawStopped || !sawStarted {
		t.Fatalf("expected CPUStopped and CPUStarted messages, got %+v", ui.messages)
	}
}
