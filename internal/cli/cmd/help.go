package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mipssim/r2000/internal/cli"
	"github.com/mipssim/r2000/internal/log"
)

type help struct {
	cmds []cli.Command
}

var _ cli.Command = (*help)(nil)

func (help) Description() string { return "display help for commands" }

func (h help) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("help", flag.ExitOnError)
}

func (h *help) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
mipssim is a virtual machine and programming tool for a 32-bit MIPS R2000.

Usage:

        mipssim <command> [option]... [arg]...

Commands:`)
	if err != nil {
		return err
	}

	for _, cmd := range h.cmds {
		fs := cmd.FlagSet()
		fmt.Fprintf(out, "  %-10s %s\n", fs.Name(), cmd.Description())
	}

	fmt.Fprintf(out, "  %-10s %s\n", h.FlagSet().Name(), h.Description())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use `mipssim help <command>` to get help for a command.")

	return nil
}

func (h *help) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) == 1 {
		for _, cmd := range h.cmds {
			if args[0] == cmd.FlagSet().Name() {
				h.printCommandHelp(out, cmd)
				return 0
			}
		}
	}

	if err := h.Usage(out); err != nil {
		return 1
	}

	return 0
}

func (h *help) printCommandHelp(out io.Writer, cmd cli.Command) {
	fmt.Fprint(out, "Usage:\n\n        mipssim ")

	if err := cmd.Usage(out); err != nil {
		return
	}

	fmt.Fprintln(out, "\nOptions:")

	fs := cmd.FlagSet()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Help builds the help command, given the full set of registered commands.
func Help(cmds []cli.Command) cli.Command {
	return &help{cmds: cmds}
}
