package asm

// errors.go defines the assembler's error types. Grounded on the teacher's
// SyntaxError (internal/asm/gen.go in the retrieval pack), which wraps a
// line/position/underlying-error triple; generalized here to also carry the
// translation unit name, since this assembler parses multiple units (spec
// section 4.10).

import (
	"errors"
	"fmt"
)

// Sentinel errors the parser and directive/instruction builders wrap with
// %w, matched by callers via errors.Is.
var (
	ErrUnknownMnemonic  = errors.New("asm: unknown instruction or directive")
	ErrBadOperandCount  = errors.New("asm: wrong number of operands")
	ErrBadRegister      = errors.New("asm: invalid register")
	ErrBadImmediate     = errors.New("asm: invalid immediate")
	ErrBadLabel         = errors.New("asm: malformed label")
	ErrUnresolvedLabel  = errors.New("asm: unresolved label")
	ErrRedefinedLabel   = errors.New("asm: label redefined in unit")
	ErrReservedAT       = errors.New("asm: $at is reserved for pseudo-instruction expansion")
	ErrBadDirective     = errors.New("asm: bad directive")
	ErrBadStringLiteral = errors.New("asm: malformed string literal")
	ErrMissingStart     = errors.New("asm: __start is not defined")
)

// SyntaxError reports one assembler error tagged with the source location
// that produced it (spec section 7: "Assembly errors carry the source line
// number and the offending token").
type SyntaxError struct {
	Unit string
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.Unit, e.Line, e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool {
	var other *SyntaxError
	if errors.As(target, &other) {
		return true
	}

	return errors.Is(e.Err, target)
}
