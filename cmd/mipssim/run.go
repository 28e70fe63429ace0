package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mipssim/r2000/cmd/internal/tty"
	"github.com/mipssim/r2000/internal/cli"
	climd "github.com/mipssim/r2000/internal/cli/cmd"
)

// wrapRun is wrap, plus raw-mode terminal setup for the keyboard device:
// when stdin is a real TTY, keystrokes are relayed through cmd/internal/tty
// instead of being read as a plain, buffered, non-interactive stream.
func wrapRun(c cli.Command) *cobra.Command {
	cc := wrap(c)

	inner := cc.RunE
	cc.RunE = func(cmd *cobra.Command, args []string) error {
		console, err := tty.NewConsole()

		switch {
		case err == nil:
			climd.Stdin = console.Reader()
			defer func() {
				console.Close()
				climd.Stdin = nil
			}()
		case errors.Is(err, tty.ErrNoTTY):
			// stdin is piped or redirected; runner.Run's default (os.Stdin)
			// is already correct.
		default:
			os.Stderr.WriteString("mipssim: terminal setup failed: " + err.Error() + "\n")
		}

		return inner(cmd, args)
	}

	return cc
}
