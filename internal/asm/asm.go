// Package asm implements the MIPS assembler front-end: a two-pass parser,
// directive preprocessor, instruction assembler and pseudo-instruction
// expander that together turn textual MIPS source into semantic
// instructions placed directly into a vm.Memory.
//
// Grounded on the teacher's internal/asm package (parser.go, assembler.go,
// gen.go, ops.go in the retrieval pack), whose "builder produces both the
// textual parse and the code-gen in one type" pattern this generalizes from
// the LC-3's single-operand-schema grammar to the MIPS grammar in spec
// sections 4.6 through 4.10.
package asm

// Grammar is the EBNF the parser implements, kept as a package-level
// constant the way the teacher documents its own grammar (internal/asm/asm.go).
const Grammar = `
program    = { line } ;
line       = [ label ":" ] [ statement ] [ comment ] "\n" ;
statement  = directive | instruction ;
directive  = "." ident { operand } ;
instruction = ident { operand } ;
label      = ident ;
ident      = letter { letter | digit | "_" } ;
operand    = register | immediate | memory | ident ;
register   = "$" ( ident | digit { digit } ) ;
immediate  = [ "-" ] ( digit { digit } | "0x" hex { hex } | "0" oct { oct } ) | "'" char "'" ;
memory     = immediate "(" register ")" ;
comment    = "#" { any } ;
`

// SymbolTable maps label names to the address they were defined at. Labels
// are local to a translation unit unless exported with .globl (spec section
// 3, "Lifecycle").
type SymbolTable map[string]uint32

// Add records a label's address, returning false if it was already defined
// (an in-unit redefinition, spec section 4.10 pass 1).
func (t SymbolTable) Add(name string, addr uint32) bool {
	if _, exists := t[name]; exists {
		return false
	}

	t[name] = addr

	return true
}

// Get looks up a label's address.
func (t SymbolTable) Get(name string) (uint32, bool) {
	addr, ok := t[name]
	return addr, ok
}

// Count returns the number of labels recorded.
func (t SymbolTable) Count() int { return len(t) }
