package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mipssim/r2000/internal/asm"
	"github.com/mipssim/r2000/internal/cli"
	"github.com/mipssim/r2000/internal/log"
	"github.com/mipssim/r2000/internal/vm"
)

// Assembler is the asm sub-command: it assembles the named files without
// running them and writes a listing of every populated word, in address
// order, to stdout. Grounded on the teacher's internal/cli/cmd/asm.go, which
// writes the LC-3's linked object code to a file; this simulator has no
// on-disk object format (spec section 6 defines only a CLI that assembles
// and runs in one step), so the listing is the assembler's observable
// output instead.
func Assembler() cli.Command {
	return &assembler{pseudo: true, blockSize: vm.DefaultBlockSize}
}

type assembler struct {
	pseudo    bool
	blockSize int
}

func (assembler) Description() string {
	return "assemble source and list the resulting memory image"
}

func (assembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `asm [options] file...

Assemble the named files and print every populated word as "ADDR: WORD".`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	toggle(fs, &a.pseudo, "p", "P", "pseudo-instruction expansion")
	fs.IntVar(&a.blockSize, "m", vm.DefaultBlockSize, "memory block `size` in bytes")

	return fs
}

func (a *assembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	units, err := readUnits(args)
	if err != nil {
		logger.Error("read failed", "err", err)
		return 1
	}

	mem := vm.NewMemory(nil, a.blockSize)

	p, err := asm.Assemble(mem, units, a.pseudo)
	if err != nil {
		logger.Error("assemble failed", "err", err)
		return 1
	}

	mem.Walk(func(e vm.DumpEntry) {
		if e.Instr != nil {
			fmt.Fprintf(stdout, "%s: %08x  %s\n", e.Addr.String(), uint32(e.Instr.Encoding), e.Instr.String())
		} else {
			fmt.Fprintf(stdout, "%s: %08x\n", e.Addr.String(), uint32(e.Word))
		}
	})

	logger.Debug("assembled", "symbols", len(p.Global()))

	return 0
}
