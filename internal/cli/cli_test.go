package cli_test

import (
	"context"
	"flag"
	"io"
	"testing"

	"github.com/mipssim/r2000/internal/cli"
	"github.com/mipssim/r2000/internal/log"
)

type stubCommand struct {
	ran bool
}

func (*stubCommand) Description() string { return "stub" }
func (*stubCommand) Usage(io.Writer) error { return nil }

func (*stubCommand) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("stub", flag.ContinueOnError)
}

func (s *stubCommand) Run(_ context.Context, args []string, out io.Writer, _ *log.Logger) int {
	s.ran = true
	out.Write([]byte("ran"))

	return 0
}

func TestCommanderDispatchesByName(t *testing.T) {
	stub := &stubCommand{}

	c := cli.New(context.Background()).WithCommands(stub)

	code := c.Execute([]string{"stub"})
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}

	if !stub.ran {
		t.Fatal("expected stub command to run")
	}
}

func TestCommanderFallsBackToHelp(t *testing.T) {
	help := &stubCommand{}
	c := cli.New(context.Background()).WithHelp(help)

	code := c.Execute([]string{"nonexistent"})
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}

	if !help.ran {
		t.Fatal("expected help command to run as fallback")
	}
}
