/*
 * noontide - Debugger console command parser.
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

// Package parser implements the debugger console's command language:
// pause/resume/step a CPU, dump memory, show EIPs against the loaded
// symbol table, type keystrokes at the guest's serial input, and toggle
// tracing. It is the SUBLEQ-debugger analog of the teacher's device
// attach/set/show command grammar, dispatched the same way - a switch on
// the first token, explicit error returns, no panics on malformed input.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcornwell/noontide/emu/cpu"
	"github.com/rcornwell/noontide/emu/machine"
	"github.com/rcornwell/noontide/emu/memory"
	"github.com/rcornwell/noontide/emu/symbols"
)

// verbs lists every recognized command, used both for dispatch errors and
// for completion.
var verbs = []string{"pause", "resume", "step", "mem", "eip", "trace", "type", "quit"}

// Context is everything ProcessCommand needs to act on a running machine.
type Context struct {
	Machine *machine.Machine
	Symbols *symbols.Table
	// Keystrokes delivers bytes typed at the "type" command to the serial
	// worker, the same channel batch mode feeds from its input file.
	Keystrokes chan<- byte
}

// ProcessCommand parses and executes one line of debugger input. It
// returns quit=true when the console should exit.
func ProcessCommand(line string, ctx *Context) (quit bool, err error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false, nil
	}

	switch tokens[0] {
	case "pause":
		return false, doPause(ctx, tokens[1:])
	case "resume":
		return false, doResume(ctx, tokens[1:])
	case "step":
		return false, doStep(ctx, tokens[1:])
	case "mem":
		return false, doMem(ctx, tokens[1:])
	case "eip":
		return false, doEIP(ctx, tokens[1:])
	case "trace":
		return false, doTrace(ctx, tokens[1:])
	case "type":
		return false, doType(ctx, line)
	case "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", tokens[0])
	}
}

// CompleteCmd offers verb completions for the liner console, the same
// role as the teacher's command/parser completer.
func CompleteCmd(line string) []string {
	var matches []string
	for _, v := range verbs {
		if strings.HasPrefix(v, line) {
			matches = append(matches, v)
		}
	}
	return matches
}

func parseCPUID(ctx *Context, tokens []string) (int, error) {
	if len(tokens) < 1 {
		return 0, fmt.Errorf("expected a CPU number")
	}
	id, err := strconv.Atoi(tokens[0])
	if err != nil {
		return 0, fmt.Errorf("invalid CPU number %q: %w", tokens[0], err)
	}
	if id < 0 || id >= ctx.Machine.NumCPUs {
		return 0, fmt.Errorf("no such CPU %d", id)
	}
	return id, nil
}

func parseAddr(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return v, nil
}

func doPause(ctx *Context, tokens []string) error {
	id, err := parseCPUID(ctx, tokens)
	if err != nil {
		return err
	}
	ctx.Machine.Mem.WriteWord(memory.CPUStatusOffset(id), memory.StatusStop)
	fmt.Printf("CPU %d: stop requested\n", id)
	return nil
}

func doResume(ctx *Context, tokens []string) error {
	id, err := parseCPUID(ctx, tokens)
	if err != nil {
		return err
	}
	if len(tokens) >= 2 {
		eip, err := parseAddr(tokens[1])
		if err != nil {
			return err
		}
		ctx.Machine.Mem.WriteWord(memory.CPUSavedEIPOffset(id), eip)
	}
	ctx.Machine.Mem.WriteWord(memory.CPUStatusOffset(id), memory.StatusRunning)
	fmt.Printf("CPU %d: resumed\n", id)
	return nil
}

func doStep(ctx *Context, tokens []string) error {
	id := 0
	if len(tokens) >= 1 {
		parsed, err := parseCPUID(ctx, tokens)
		if err != nil {
			return err
		}
		id = parsed
	}
	trace, err := ctx.Machine.Step(id)
	if err != nil {
		return err
	}
	fmt.Println(trace)
	return nil
}

func doMem(ctx *Context, tokens []string) error {
	if len(tokens) < 1 {
		return fmt.Errorf("usage: mem <addr> [len]")
	}
	addr, err := parseAddr(tokens[0])
	if err != nil {
		return err
	}
	length := uint64(16)
	if len(tokens) >= 2 {
		n, err := strconv.ParseUint(tokens[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid length %q: %w", tokens[1], err)
		}
		length = n
	}
	if addr+length > uint64(ctx.Machine.Mem.Len()) {
		return fmt.Errorf("range %#x..%#x exceeds memory size", addr, addr+length)
	}

	fmt.Print(dumpBytes(ctx.Machine.Mem.Bytes()[addr:addr+length], addr))
	return nil
}

// dumpBytes renders a byte range as 16-byte hex rows, offset-prefixed,
// the same column layout the reference toolchain's memory dump used.
func dumpBytes(data []byte, base uint64) string {
	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		fmt.Fprintf(&sb, "%08x:", base+uint64(off))
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		for i := off; i < end; i += 2 {
			if i+1 < end {
				fmt.Fprintf(&sb, " %02x%02x", data[i], data[i+1])
			} else {
				fmt.Fprintf(&sb, " %02x", data[i])
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func doEIP(ctx *Context, _ []string) error {
	for id := 0; id < ctx.Machine.NumCPUs; id++ {
		eip := ctx.Machine.Mem.ReadWord(memory.CPUSavedEIPOffset(id))
		fmt.Printf("CPU %d: EIP %#x\n", id, eip)
		if ctx.Symbols != nil {
			_, rendered := symbols.Render(ctx.Symbols, eip, 2, true)
			fmt.Println(rendered)
		}
	}
	return nil
}

// doType pushes the text following the "type" verb onto the keystroke
// channel, one byte per guest-visible character, the same path batch mode
// feeds from its input file. This is the only way to drive SERIAL_IN from
// the interactive console.
func doType(ctx *Context, line string) error {
	if ctx.Keystrokes == nil {
		return fmt.Errorf("type: no keystroke channel wired up")
	}
	text := strings.TrimPrefix(strings.TrimSpace(line), "type")
	text = strings.TrimPrefix(text, " ")
	if text == "" {
		return fmt.Errorf("usage: type <text>")
	}
	for i := 0; i < len(text); i++ {
		ctx.Keystrokes <- text[i]
	}
	return nil
}

func doTrace(ctx *Context, tokens []string) error {
	if len(tokens) != 1 || (tokens[0] != "on" && tokens[0] != "off") {
		return fmt.Errorf("usage: trace on|off")
	}
	mask := int32(0)
	if tokens[0] == "on" {
		mask = cpu.TraceInstructions
	}
	ctx.Machine.TraceMask.Store(mask)
	fmt.Printf("trace %s\n", tokens[0])
	return nil
}
