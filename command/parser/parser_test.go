package parser

import (
	"strings"
	"testing"

	"github.com/rcornwell/noontide/emu/machine"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/message"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ui := make(message.Chan, 64)
	keystrokes := make(chan byte, 64)
	m := machine.New(machine.Config{NumCPUs: 1, BatchSize: 4, UI: ui, Keystrokes: keystrokes})
	return &Context{Machine: m, Keystrokes: keystrokes}
}

func TestProcessCommandQuit(t *testing.T) {
	ctx := newTestContext(t)
	quit, err := ProcessCommand("quit", ctx)
	if err != nil {
		t.Fatalf("ProcessCommand(quit): %v", err)
	}
	if !quit {
		t.Fatal("quit command must return quit=true")
	}
}

func TestProcessCommandEmptyLine(t *testing.T) {
	ctx := newTestContext(t)
	quit, err := ProcessCommand("   ", ctx)
	if err != nil || quit {
		t.Fatalf("blank line must be a no-op, got quit=%v err=%v", quit, err)
	}
}

func TestProcessCommandUnknownVerb(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ProcessCommand("frobnicate", ctx)
	if err == nil {
		t.Fatal("unknown verb must return an error")
	}
}

func TestPauseThenResumeWritesStatus(t *testing.T) {
	ctx := newTestContext(t)

	if _, err := ProcessCommand("pause 0", ctx); err != nil {
		t.Fatalf("pause 0: %v", err)
	}
	if got := ctx.Machine.Mem.ReadWord(memory.CPUStatusOffset(0)); got != memory.StatusStop {
		t.Fatalf("status after pause = %d, want %d", got, memory.StatusStop)
	}

	if _, err := ProcessCommand("resume 0 40", ctx); err != nil {
		t.Fatalf("resume 0 40: %v", err)
	}
	if got := ctx.Machine.Mem.ReadWord(memory.CPUStatusOffset(0)); got != memory.StatusRunning {
		t.Fatalf("status after resume = %d, want %d", got, memory.StatusRunning)
	}
	if got := ctx.Machine.Mem.ReadWord(memory.CPUSavedEIPOffset(0)); got != 0x40 {
		t.Fatalf("saved EIP after resume = %#x, want 0x40", got)
	}
}

func TestPauseInvalidCPU(t *testing.T) {
	ctx := newTestContext(t)
	if _, err := ProcessCommand("pause 9", ctx); err == nil {
		t.Fatal("pause of an out-of-range CPU must error")
	}
}

func TestMemDump(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Machine.Mem.WriteWord(0, 0x0102030405060708)

	if _, err := ProcessCommand("mem 0 8", ctx); err != nil {
		t.Fatalf("mem 0 8: %v", err)
	}
}

func TestTraceOnOff(t *testing.T) {
	ctx := newTestContext(t)
	if _, err := ProcessCommand("trace on", ctx); err != nil {
		t.Fatalf("trace on: %v", err)
	}
	if ctx.Machine.TraceMask.Load() == 0 {
		t.Fatal("trace on must set a non-zero mask")
	}
	if _, err := ProcessCommand("trace off", ctx); err != nil {
		t.Fatalf("trace off: %v", err)
	}
	if ctx.Machine.TraceMask.Load() != 0 {
		t.Fatal("trace off must clear the mask")
	}
}

func TestTraceInvalidArg(t *testing.T) {
	ctx := newTestContext(t)
	if _, err := ProcessCommand("trace sideways", ctx); err == nil {
		t.Fatal("trace with an invalid argument must error")
	}
}

func TestStepRequiresPausedCPU(t *testing.T) {
	ctx := newTestContext(t)
	// CPU 0 starts Idle (not Stopped), so step must refuse.
	if _, err := ProcessCommand("step 0", ctx); err == nil {
		t.Fatal("step on a non-stopped CPU must error")
	}
}

func TestStepExecutesOneInstruction(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Machine.Mem.WriteWord(memory.CPUStatusOffset(0), memory.StatusStopped)
	// A=B=32, C=memory.Size, mem[32]=0: halt-style branch to Size.
	ctx.Machine.Mem.WriteWord(0, 32)
	ctx.Machine.Mem.WriteWord(8, 32)
	ctx.Machine.Mem.WriteWord(16, memory.Size)
	ctx.Machine.Mem.WriteWord(32, 0)
	ctx.Machine.Mem.WriteWord(memory.CPUSavedEIPOffset(0), 0)

	if _, err := ProcessCommand("step 0", ctx); err != nil {
		t.Fatalf("step 0: %v", err)
	}
	if got := ctx.Machine.Mem.ReadWord(memory.CPUSavedEIPOffset(0)); got != memory.Size {
		t.Fatalf("EIP after step = %#x, want %#x", got, uint64(memory.Size))
	}
}

func TestTypeSendsBytesToKeystrokeChannel(t *testing.T) {
	ctx := newTestContext(t)
	keys := make(chan byte, 64)
	ctx.Keystrokes = keys
	if _, err := ProcessCommand("type hi", ctx); err != nil {
		t.Fatalf("type hi: %v", err)
	}
	want := []byte("hi")
	for _, w := range want {
		select {
		case got := <-keys:
			if got != w {
				t.Fatalf("keystroke = %q, want %q", got, w)
			}
		default:
			t.Fatalf("expected a keystroke %q, channel empty", w)
		}
	}
}

func TestTypeWithoutArgumentErrors(t *testing.T) {
	ctx := newTestContext(t)
	if _, err := ProcessCommand("type", ctx); err == nil {
		t.Fatal("type with no text must error")
	}
}

func TestCompleteCmdPrefixMatch(t *testing.T) {
	matches := CompleteCmd("tr")
	if len(matches) != 1 || matches[0] != "trace" {
		t.Fatalf("CompleteCmd(tr) = %v, want [trace]", matches)
	}
}

func TestDumpBytesFormat(t *testing.T) {
	out := dumpBytes([]byte{0x01, 0x02, 0x03, 0x04}, 0x10)
	if !strings.HasPrefix(out, "00000010:") {
		t.Fatalf("dump did not start with the base offset: %q", out)
	}
	if !strings.Contains(out, "0102 0304") {
		t.Fatalf("dump did not pair bytes as expected: %q", out)
	}
}
