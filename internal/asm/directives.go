package asm

// directives.go implements the directive preprocessor (spec section 4.9).
// Grounded on the teacher's minimal .ORIG/.FILL/.BLKW/.STRINGZ directive
// handling (internal/asm/ops.go in the retrieval pack), generalized from the
// LC-3's four directives to the MIPS assembler's segment, label-visibility,
// alignment and raw-data directive set.

import (
	"fmt"
	"strings"

	"github.com/mipssim/r2000/internal/vm"
)

func (p *Parser) applyDirective(line Line) error {
	switch line.Mnemonic {
	case "text":
		return p.switchSegment(vm.SegUserText, line.Operands)
	case "data":
		return p.switchSegment(vm.SegUserData, line.Operands)
	case "ktext":
		return p.switchSegment(vm.SegKernelText, line.Operands)
	case "kdata":
		return p.switchSegment(vm.SegKernelData, line.Operands)
	case "globl":
		return p.directiveGlobl(line.Operands)
	case "extern":
		return nil // reserved, no-op per spec section 4.9
	case "align":
		return p.directiveAlign(line.Operands)
	case "ascii":
		return p.directiveAscii(line.Operands, false)
	case "asciiz":
		return p.directiveAscii(line.Operands, true)
	case "byte":
		return p.directiveInts(line.Operands, 1)
	case "half":
		return p.directiveInts(line.Operands, 2)
	case "word":
		return p.directiveInts(line.Operands, 4)
	case "space":
		return p.directiveSpace(line.Operands)
	case "set":
		return p.directiveSet(line.Operands)
	default:
		return fmt.Errorf("%w: .%s", ErrBadDirective, line.Mnemonic)
	}
}

// switchSegment implements .data/.text/.kdata/.ktext: switch the active
// segment, optionally at an explicit address. Without one, the segment's
// cursor is kept, so placement resumes at the byte after the last item this
// parser put there; Memory.NextFreeBlock is not consulted.
func (p *Parser) switchSegment(seg vm.Segment, operands []string) error {
	p.segment = seg

	if len(operands) == 0 {
		return nil
	}

	if err := want(operands, 1); err != nil {
		return err
	}

	val, _, isLabel, err := parseImmOrLabel(operands[0])
	if err != nil || isLabel {
		return fmt.Errorf("%w: %q", ErrBadDirective, operands[0])
	}

	p.cursor[seg] = vm.Word(val)

	return nil
}

func (p *Parser) directiveGlobl(operands []string) error {
	if err := want(operands, 1); err != nil {
		return err
	}

	p.globalDecls[operands[0]] = true

	return nil
}

// directiveAlign forces the next data directive to begin at the next
// multiple of 2^n (resolving spec section 9's open question on .align's
// semantics).
func (p *Parser) directiveAlign(operands []string) error {
	if err := want(operands, 1); err != nil {
		return err
	}

	val, _, isLabel, err := parseImmOrLabel(operands[0])
	if err != nil || isLabel || val < 0 {
		return fmt.Errorf("%w: %q", ErrBadDirective, operands[0])
	}

	modulus := vm.Word(1) << uint(val)
	cur := p.cur()

	if rem := cur % modulus; rem != 0 {
		p.remapLabels(cur, cur+(modulus-rem))
		p.cursor[p.segment] = cur + (modulus - rem)
	}

	return nil
}

// remapLabels moves any label currently bound to oldAddr (in either table)
// to newAddr, so a following .align keeps a label attached to the data it
// precedes (spec section 4.9).
func (p *Parser) remapLabels(oldAddr, newAddr vm.Word) {
	for name, addr := range p.locals {
		if vm.Word(addr) == oldAddr {
			p.locals[name] = uint32(newAddr)
		}
	}

	for name, addr := range p.global {
		if vm.Word(addr) == oldAddr {
			p.global[name] = uint32(newAddr)
		}
	}
}

// directiveAscii parses a double-quoted string literal and emits its bytes,
// appending a terminating zero for .asciiz.
func (p *Parser) directiveAscii(operands []string, terminated bool) error {
	if len(operands) != 1 {
		return fmt.Errorf("%w: .ascii[z] takes one string literal", ErrBadOperandCount)
	}

	lit := operands[0]
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return fmt.Errorf("%w: %q", ErrBadStringLiteral, lit)
	}

	text := unescape(lit[1 : len(lit)-1])

	for i := 0; i < len(text); i++ {
		if err := p.emitData(1, vm.Word(text[i])); err != nil {
			return err
		}
	}

	if terminated {
		return p.emitData(1, 0)
	}

	return nil
}

// directiveInts implements .byte/.half/.word: a comma-separated list of
// integer, character, or already-defined-local-label literals.
func (p *Parser) directiveInts(operands []string, size int) error {
	if len(operands) == 0 {
		return fmt.Errorf("%w: .byte/.half/.word takes at least one value", ErrBadOperandCount)
	}

	for _, tok := range operands {
		val, label, isLabel, err := parseImmOrLabel(tok)
		if err != nil {
			return err
		}

		if isLabel {
			addr, ok := p.lookupLabel(label)
			if !ok {
				return p.deferDataRef(label, val, size)
			}

			val += int64(addr)
		}

		if err := p.emitData(size, vm.Word(uint32(val))); err != nil {
			return err
		}
	}

	return nil
}

// deferDataRef reserves size bytes now and patches them once label resolves.
func (p *Parser) deferDataRef(label string, offset int64, size int) error {
	addr := p.cur()
	if err := p.emitData(size, 0); err != nil {
		return err
	}

	p.pending = append(p.pending, &pendingRef{
		addr: addr, label: label, unit: p.unit, line: p.lineNo, text: label,
		write: func(target vm.Word) error {
			return p.mem.Store(addr, size, vm.Word(uint32(int64(target)+offset)))
		},
	})

	return nil
}

func (p *Parser) directiveSpace(operands []string) error {
	if err := want(operands, 1); err != nil {
		return err
	}

	n, _, isLabel, err := parseImmOrLabel(operands[0])
	if err != nil || isLabel || n < 0 {
		return fmt.Errorf("%w: %q", ErrBadDirective, operands[0])
	}

	for i := int64(0); i < n; i++ {
		if err := p.emitData(1, 0); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) directiveSet(operands []string) error {
	if err := want(operands, 1); err != nil {
		return err
	}

	switch strings.ToLower(operands[0]) {
	case "at":
		p.atReserved = true
	case "noat":
		p.atReserved = false
	default:
		return fmt.Errorf("%w: .set %s", ErrBadDirective, operands[0])
	}

	return nil
}
