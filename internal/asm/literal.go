package asm

// literal.go parses the operand literal forms from spec section 6: decimal,
// 0x-hex and 0-octal integers, single-quoted character literals, and
// label (optionally label+offset/label-offset) expressions.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mipssim/r2000/internal/vm"
)

var reLabelExpr = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:([+-])\s*(\d+))?$`)

// parseNumber parses a decimal, 0x-hex, 0-octal, or single-quoted
// character literal into an int64.
func parseNumber(tok string) (int64, bool) {
	if len(tok) >= 3 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		ch := tok[1 : len(tok)-1]
		ch = unescape(ch)

		if len(ch) != 1 {
			return 0, false
		}

		return int64(ch[0]), true
	}

	neg := false
	t := tok

	if strings.HasPrefix(t, "-") {
		neg = true
		t = t[1:]
	}

	var v uint64

	var err error

	switch {
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		v, err = strconv.ParseUint(t[2:], 16, 64)
	case len(t) > 1 && t[0] == '0':
		v, err = strconv.ParseUint(t[1:], 8, 64)
	default:
		v, err = strconv.ParseUint(t, 10, 64)
	}

	if err != nil {
		return 0, false
	}

	n := int64(v)
	if neg {
		n = -n
	}

	return n, true
}

// parseImmOrLabel classifies an operand as either a numeric literal or a
// label expression (label, label+N, label-N).
func parseImmOrLabel(tok string) (value int64, label string, isLabel bool, err error) {
	if n, ok := parseNumber(tok); ok {
		return n, "", false, nil
	}

	m := reLabelExpr.FindStringSubmatch(tok)
	if m == nil {
		return 0, "", false, fmt.Errorf("%w: %q", ErrBadImmediate, tok)
	}

	offset := int64(0)

	if m[3] != "" {
		n, _ := strconv.ParseInt(m[3], 10, 64)
		if m[2] == "-" {
			n = -n
		}

		offset = n
	}

	return offset, m[1], true, nil
}

// parseRegister resolves a `$name` or `$N` operand to a GPR.
func parseRegister(tok string) (vm.GPR, error) {
	if !strings.HasPrefix(tok, "$") {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, tok)
	}

	r, ok := vm.LookupGPR(tok[1:])
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, tok)
	}

	return r, nil
}

// unescape resolves the backslash escapes spec section 6 names: \n \t \".
func unescape(s string) string {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++

			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(s[i])
			}

			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}
