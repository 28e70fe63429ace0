package asm

// parser.go implements the two-pass, multi-unit parser and label resolver
// (spec section 4.10). Grounded on the teacher's regex-driven, single-file
// Parser (internal/asm/parser.go in the retrieval pack): the same
// scan-line-then-dispatch structure, generalized to track labels per
// translation unit, promote .globl names into a shared table, and leave a
// worklist of addresses needing a second pass once every unit has been
// swept once.

import (
	"errors"
	"fmt"

	"github.com/mipssim/r2000/internal/log"
	"github.com/mipssim/r2000/internal/vm"
)

// segmentOrigin is the default cursor a segment starts at the first time a
// unit switches into it, absent an explicit .data/.text/.kdata/.ktext address.
var segmentOrigin = map[vm.Segment]vm.Word{
	vm.SegUserText:   0x00400000,
	vm.SegUserData:   0x10000000,
	vm.SegKernelText: 0x80000000,
	vm.SegKernelData: 0x90000000,
}

// pendingRef is an instruction or data word that referenced a label not yet
// known when it was emitted. build rebuilds the instruction at addr once the
// label resolves; write patches a raw data word instead. Exactly one of the
// two is set.
type pendingRef struct {
	addr  vm.Word
	label string
	unit  string
	line  int
	text  string
	build func(target vm.Word) *vm.Instruction
	write func(target vm.Word) error
}

// Parser assembles one or more translation units into a vm.Memory, tracking
// per-unit local labels and a global table fed by .globl declarations.
type Parser struct {
	mem  *vm.Memory
	pseudoEnabled bool

	segment vm.Segment
	cursor  map[vm.Segment]vm.Word
	align   map[vm.Segment]int // not read: .align moves the cursor directly (directiveAlign)

	locals      SymbolTable
	global      SymbolTable
	globalDecls map[string]bool // names .globl'd in the current unit

	atReserved bool
	pending    []*pendingRef

	unit   string
	lineNo int

	log *log.Logger
}

// NewParser creates a parser that places assembled units into mem.
// pseudoEnabled mirrors the CLI's -p/-P flag (spec section 6).
func NewParser(mem *vm.Memory, pseudoEnabled bool) *Parser {
	cursor := make(map[vm.Segment]vm.Word, len(segmentOrigin))
	for seg, addr := range segmentOrigin {
		cursor[seg] = addr
	}

	return &Parser{
		mem:           mem,
		pseudoEnabled: pseudoEnabled,
		segment:       vm.SegUserText,
		cursor:        cursor,
		align:         map[vm.Segment]int{},
		global:        SymbolTable{},
		log:           log.DefaultLogger().WithGroup("asm"),
	}
}

// Global returns the parser's global symbol table, populated as units are
// parsed and .globl names resolve.
func (p *Parser) Global() SymbolTable { return p.global }

// ParseUnit runs pass 1 of one translation unit: it sweeps every line,
// placing semantic instructions and data into memory, then resolves what it
// can against this unit's local labels before returning.
func (p *Parser) ParseUnit(name string, lines []string) error {
	p.unit = name
	p.locals = SymbolTable{}
	p.globalDecls = map[string]bool{}
	p.atReserved = true
	p.segment = vm.SegUserText

	for i, raw := range lines {
		p.lineNo = i + 1

		line := tokenizeLine(raw)

		if line.Label != "" {
			if !p.locals.Add(line.Label, uint32(p.cur())) {
				return p.err(line.Raw, ErrRedefinedLabel)
			}
		}

		if line.Mnemonic == "" {
			continue
		}

		var err error

		switch {
		case line.Directive:
			err = p.applyDirective(line)
		default:
			err = p.assembleLine(line)
		}

		if err != nil {
			return p.err(line.Raw, err)
		}
	}

	if err := p.finishUnit(); err != nil {
		return err
	}

	p.log.Debug("parsed unit", "name", name, "locals", p.locals.Count(), "pending", len(p.pending))

	return nil
}

// finishUnit resolves this unit's pending references against its own local
// labels (and any global already bound by an earlier unit), then promotes
// this unit's .globl names into the shared global table. References that
// stay unresolved carry forward to the final Resolve pass.
func (p *Parser) finishUnit() error {
	var carry []*pendingRef

	for _, ref := range p.pending {
		addr, ok := p.locals.Get(ref.label)
		if !ok {
			addr, ok = p.global.Get(ref.label)
		}

		if !ok {
			carry = append(carry, ref)
			continue
		}

		if err := p.applyRef(ref, vm.Word(addr)); err != nil {
			return &SyntaxError{Unit: ref.unit, Line: ref.line, Text: ref.text, Err: err}
		}
	}

	p.pending = carry

	for name := range p.globalDecls {
		addr, ok := p.locals.Get(name)
		if !ok {
			return p.err(name, fmt.Errorf("%w: %s declared .globl but never defined", ErrBadLabel, name))
		}

		if !p.global.Add(name, addr) {
			return p.err(name, fmt.Errorf("%w: %s", ErrRedefinedLabel, name))
		}
	}

	return nil
}

// Resolve runs pass 2: every reference left unresolved after all units were
// swept is checked against the final global table. Anything still missing is
// fatal (spec section 4.10).
func (p *Parser) Resolve() error {
	var errs []error

	for _, ref := range p.pending {
		addr, ok := p.global.Get(ref.label)
		if !ok {
			errs = append(errs, &SyntaxError{
				Unit: ref.unit, Line: ref.line, Text: ref.text,
				Err: fmt.Errorf("%w: %s", ErrUnresolvedLabel, ref.label),
			})

			continue
		}

		if err := p.applyRef(ref, vm.Word(addr)); err != nil {
			errs = append(errs, &SyntaxError{Unit: ref.unit, Line: ref.line, Text: ref.text, Err: err})
		}
	}

	p.pending = nil

	return errors.Join(errs...)
}

func (p *Parser) applyRef(ref *pendingRef, target vm.Word) error {
	if ref.build != nil {
		return p.mem.StoreInstruction(ref.addr, ref.build(target))
	}

	return ref.write(target)
}

func (p *Parser) err(text string, cause error) error {
	return &SyntaxError{Unit: p.unit, Line: p.lineNo, Text: text, Err: cause}
}

// cur returns the write cursor for the active segment.
func (p *Parser) cur() vm.Word { return p.cursor[p.segment] }

func (p *Parser) advance(n vm.Word) { p.cursor[p.segment] += n }

// lookupLabel resolves a name against this unit's locals, then the global
// table built from earlier units' .globl declarations.
func (p *Parser) lookupLabel(name string) (vm.Word, bool) {
	if a, ok := p.locals.Get(name); ok {
		return vm.Word(a), true
	}

	if a, ok := p.global.Get(name); ok {
		return vm.Word(a), true
	}

	return 0, false
}

// emit stores a fully-resolved instruction at the cursor and advances by one
// word.
func (p *Parser) emit(instr *vm.Instruction) (vm.Word, error) {
	addr := p.cur()
	if err := p.mem.StoreInstruction(addr, instr); err != nil {
		return 0, err
	}

	p.advance(4)

	return addr, nil
}

// assembleLine dispatches one instruction line to its real or pseudo
// handler.
func (p *Parser) assembleLine(line Line) error {
	if h, ok := realOps[line.Mnemonic]; ok {
		return h(p, line.Operands)
	}

	if h, ok := pseudoOps[line.Mnemonic]; ok {
		if !p.pseudoEnabled {
			return fmt.Errorf("%w: %s (pseudo-instructions disabled)", ErrUnknownMnemonic, line.Mnemonic)
		}

		return h(p, line.Operands)
	}

	return fmt.Errorf("%w: %s", ErrUnknownMnemonic, line.Mnemonic)
}

// emitData stores a raw data word of the given byte size at the cursor.
func (p *Parser) emitData(size int, v vm.Word) error {
	addr := p.cur()
	if err := p.mem.Store(addr, size, v); err != nil {
		return err
	}

	p.advance(vm.Word(size))

	return nil
}
