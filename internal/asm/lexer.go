package asm

// lexer.go tokenizes one line of source into an optional label, an optional
// mnemonic/directive with its operands, and a comment. Grounded on the
// teacher's regex-driven line scanner (internal/asm/parser.go in the
// retrieval pack), generalized from the LC-3's three-operand grammar to the
// MIPS line grammar in spec section 4.10, including the rule that
// `imm($reg)` is tokenized as a single operand.

import (
	"regexp"
	"strings"
)

var (
	reLabel   = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	reIdent   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	reComment = regexp.MustCompile(`#.*$`)
)

// Line is one tokenized source line.
type Line struct {
	Label     string // "" if none
	Directive bool   // statement is a .directive rather than an instruction
	Mnemonic  string // lower-cased mnemonic or directive name, without the leading '.'
	Operands  []string
	Raw       string // the original line, for error messages and disassembly text
}

// tokenizeLine splits one source line into a Line. A blank or comment-only
// line returns a zero-value Line with Mnemonic == "".
func tokenizeLine(raw string) Line {
	line := Line{Raw: raw}

	text := reComment.ReplaceAllString(raw, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return line
	}

	if m := reLabel.FindStringSubmatchIndex(text); m != nil {
		line.Label = text[m[2]:m[3]]
		text = strings.TrimSpace(text[m[1]:])
	}

	if text == "" {
		return line
	}

	directive := strings.HasPrefix(text, ".")
	if directive {
		text = text[1:]
	}

	ident := reIdent.FindString(text)
	if ident == "" {
		line.Mnemonic = ""
		return line
	}

	rest := strings.TrimSpace(text[len(ident):])

	line.Directive = directive
	line.Mnemonic = strings.ToLower(ident)

	if directive && (line.Mnemonic == "ascii" || line.Mnemonic == "asciiz") {
		if rest != "" {
			line.Operands = []string{rest}
		}

		return line
	}

	line.Operands = splitOperands(rest)

	return line
}

// splitOperands splits a comma-separated operand list at every comma,
// trimming whitespace. The string literal of .ascii/.asciiz never reaches
// it (tokenizeLine keeps that operand whole); a ',' character literal is
// split like any other comma.
func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

var reMemOperand = regexp.MustCompile(
	`^((?:-?(?:0[xX][0-9a-fA-F]+|0[0-7]*|[0-9]+))|(?:[A-Za-z_][A-Za-z0-9_]*(?:[+-][0-9]+)?))?\(\$([A-Za-z0-9]+)\)$`,
)

// parseMemOperand splits an `offset($reg)` operand into its offset text
// (possibly empty, meaning 0) and register name.
func parseMemOperand(operand string) (offset, reg string, ok bool) {
	m := reMemOperand.FindStringSubmatch(operand)
	if m == nil {
		return "", "", false
	}

	return m[1], m[2], true
}
