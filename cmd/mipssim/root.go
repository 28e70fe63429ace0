package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mipssim/r2000/internal/cli"
	climd "github.com/mipssim/r2000/internal/cli/cmd"
	"github.com/mipssim/r2000/internal/log"
)

// exitCode wraps a sub-command's exit status as an error so Execute can
// carry a non-zero status back to main without cobra printing a usage
// message for what is a normal program exit, not a command-line mistake.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func execute() int {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			return int(code)
		}

		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	return 0
}

// newRootCmd builds the mipssim command tree. Each sub-command's flags and
// behavior live in internal/cli/cmd, built on the standard flag package;
// this file only adapts that shape onto cobra and adds viper's env-var
// override on top, per spec section 6's external CLI surface.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mipssim",
		Short:         "a virtual machine and programming tool for a 32-bit MIPS R2000",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	viper.SetEnvPrefix("mipssim")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	root.AddCommand(
		wrapRun(climd.Run()),
		wrap(climd.Assembler()),
		wrap(climd.Disassembler()),
	)

	return root
}

// wrap adapts one internal/cli.Command into a cobra.Command: its flags are
// imported wholesale via pflag's AddGoFlagSet (no flag is redeclared), its
// Usage backs cobra's usage template, and any flag left at its default is
// given one more chance to be set from MIPSSIM_<CMD>_<FLAG> before Run.
func wrap(c cli.Command) *cobra.Command {
	fs := c.FlagSet()
	name := fs.Name()

	cc := &cobra.Command{
		Use:   name + " [file...]",
		Short: c.Description(),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvOverrides(fs, name)

			code := c.Run(cmd.Context(), args, os.Stdout, log.DefaultLogger())
			if code != 0 {
				return exitCode(code)
			}

			return nil
		},
	}

	cc.Flags().AddGoFlagSet(fs)
	cc.SetUsageFunc(func(*cobra.Command) error { return c.Usage(os.Stdout) })

	return cc
}

// applyEnvOverrides sets any flag the user did not pass on the command line
// from its MIPSSIM_<cmd>_<flag> environment variable, if set.
func applyEnvOverrides(fs *goflag.FlagSet, cmdName string) {
	given := map[string]bool{}
	fs.Visit(func(f *goflag.Flag) { given[f.Name] = true })

	fs.VisitAll(func(f *goflag.Flag) {
		if given[f.Name] {
			return
		}

		key := cmdName + "." + f.Name
		if viper.IsSet(key) {
			_ = f.Value.Set(viper.GetString(key))
		}
	})
}
