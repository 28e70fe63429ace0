package asm

// assembler.go is the package's single entry point: assemble one or more
// translation units into a vm.Memory and resolve every cross-unit label
// reference. Grounded on the teacher's Parser.Parse driver
// (internal/asm/parser.go in the retrieval pack), generalized to the
// multi-unit, two-pass design of spec section 4.10.

import (
	"strings"

	"github.com/mipssim/r2000/internal/vm"
)

// Unit is one named translation unit of MIPS source.
type Unit struct {
	Name   string
	Source string
}

// Assemble parses every unit in order, placing semantic instructions and
// data into mem, then resolves labels left unresolved by their own unit
// against the set of names exported via .globl. pseudoEnabled mirrors the
// CLI's -p/-P flag.
func Assemble(mem *vm.Memory, units []Unit, pseudoEnabled bool) (*Parser, error) {
	p := NewParser(mem, pseudoEnabled)

	for _, u := range units {
		if err := p.ParseUnit(u.Name, strings.Split(u.Source, "\n")); err != nil {
			return nil, err
		}
	}

	if err := p.Resolve(); err != nil {
		return nil, err
	}

	return p, nil
}
