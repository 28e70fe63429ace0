package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mipssim/r2000/internal/cli"
	"github.com/mipssim/r2000/internal/log"
)

const greetProgram = `
.data
greeting: .asciiz "hi\n"

.text
.globl main
main:
    la    $a0, greeting
    li    $v0, 4
    syscall
    li    $v0, 17
    li    $a0, 3
    syscall
`

func runCommand(t *testing.T, c cli.Command, flagArgs, positional []string) (int, string) {
	t.Helper()

	fs := c.FlagSet()
	if err := fs.Parse(flagArgs); err != nil {
		t.Fatalf("parse: %v", err)
	}

	var out bytes.Buffer

	code := c.Run(context.Background(), positional, &out, log.DefaultLogger())

	return code, out.String()
}

func writeSource(t *testing.T, src string) string {
	t.Helper()

	f := t.TempDir() + "/prog.asm"
	if err := os.WriteFile(f, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	return f
}

func TestRunExitsWithA0OnExit2(t *testing.T) {
	file := writeSource(t, greetProgram)

	code, out := runCommand(t, Run(), nil, []string{file})
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}

	if !strings.Contains(out, "hi") {
		t.Fatalf("output = %q, want it to contain %q", out, "hi")
	}
}

func TestRunNoExceptionHandlerStillDispatchesExit(t *testing.T) {
	file := writeSource(t, greetProgram)

	code, _ := runCommand(t, Run(), []string{"-E"}, []string{file})
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestAssemblerListsPopulatedWords(t *testing.T) {
	file := writeSource(t, greetProgram)

	code, out := runCommand(t, Assembler(), nil, []string{file})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(out, "00400000:") {
		t.Fatalf("listing = %q, want an entry at the user text origin", out)
	}
}

func TestDisassemblerPrintsMnemonics(t *testing.T) {
	file := writeSource(t, greetProgram)

	code, out := runCommand(t, Disassembler(), nil, []string{file})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(out, "lui") || !strings.Contains(out, "syscall") {
		t.Fatalf("disassembly = %q, want lui/syscall mnemonics (la expands to lui/ori)", out)
	}
}

func TestHelpListsRegisteredCommands(t *testing.T) {
	cmds := []cli.Command{Run(), Assembler(), Disassembler()}
	h := Help(cmds)

	var out bytes.Buffer

	code := h.Run(context.Background(), nil, &out, log.DefaultLogger())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	for _, name := range []string{"run", "asm", "disasm"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("help output missing command %q: %q", name, out.String())
		}
	}
}
