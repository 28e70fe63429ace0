// Package cli contains the business logic behind the command-line
// interface, independent of any particular flag-parsing front end.
//
// Grounded on the teacher's internal/cli package: a Command interface
// (FlagSet/Description/Usage/Run) plus a Commander that dispatches by
// sub-command name, built entirely on the standard flag package. cmd/mipssim
// wraps these with a cobra command tree for flag/env/config binding, but the
// Command implementations here never import cobra: the CORE/CLI boundary
// stays honest by keeping this layer on flag.FlagSet.
package cli

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/mipssim/r2000/internal/log"
)

// Command represents a sub-command. Each sub-command owns its flags and its
// own action.
type Command interface {
	// FlagSet returns the set of options the command accepts. The set's
	// Name identifies the sub-command.
	FlagSet() *flag.FlagSet

	// Description returns a one-line summary of what the command does.
	Description() string

	// Usage prints detailed command documentation.
	Usage(out io.Writer) error

	// Run executes the command. Output goes to out; it returns a process
	// exit code.
	Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int
}

// Commander dispatches sub-commands by name.
type Commander struct {
	ctx context.Context
	log *log.Logger

	help     Command
	commands []Command
}

// New creates a Commander that runs commands under ctx.
func New(ctx context.Context) *Commander {
	return &Commander{
		ctx: ctx,
		log: log.DefaultLogger(),
	}
}

// Execute runs the sub-command named by args[0], or the help command if args
// is empty or names nothing registered.
func (c *Commander) Execute(args []string) int {
	if len(args) == 0 {
		if c.help == nil {
			return 1
		}

		return c.help.Run(c.ctx, nil, os.Stdout, c.log)
	}

	found := c.help

	for _, cmd := range c.commands {
		if args[0] == cmd.FlagSet().Name() {
			found = cmd
			break
		}
	}

	if found == nil {
		return 1
	}

	fs := found.FlagSet()
	if err := fs.Parse(args[1:]); err != nil {
		c.log.Error("parse error", "err", err)
		return 1
	}

	return found.Run(c.ctx, fs.Args(), os.Stdout, c.log)
}

// WithCommands registers the sub-commands a Commander can dispatch to.
func (c *Commander) WithCommands(cmds ...Command) *Commander {
	c.commands = append([]Command(nil), cmds...)
	return c
}

// WithHelp sets the fallback command run when no sub-command matches.
func (c *Commander) WithHelp(cmd Command) *Commander {
	c.help = cmd
	return c
}

// Type aliases from the standard library, so callers don't need to import
// flag directly to implement Command.
type (
	Flag    = flag.Flag
	FlagSet = flag.FlagSet
)
