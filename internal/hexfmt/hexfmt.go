// Package hexfmt converts between bytes and the hex/printable text shown by
// the terminal.
package hexfmt

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrOddLength = errors.New("hex: odd number of digits")
	ErrEmpty     = errors.New("hex: no digits")
)

// Parse decodes hex digits, ignoring any whitespace between them:
// "55 AA 01" and "55aa01" both yield {0x55, 0xAA, 0x01}.
func Parse(s string) ([]byte, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if digits == "" {
		return nil, ErrEmpty
	}
	if len(digits)%2 != 0 {
		return nil, ErrOddLength
	}

	out := make([]byte, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, ok := nibble(digits[i])
		if !ok {
			return nil, fmt.Errorf("hex: invalid digit %q at %d", digits[i], i)
		}
		lo, ok := nibble(digits[i+1])
		if !ok {
			return nil, fmt.Errorf("hex: invalid digit %q at %d", digits[i+1], i+1)
		}
		out[i/2] = hi<<4 | lo
	}
	return out, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Format renders b as upper-case, space-separated pairs: "55 AA 01".
func Format(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// Printable renders printable ASCII as-is and every other byte as "[XX]".
func Printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 32 && c < 127 {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "[%02X]", c)
	}
	return sb.String()
}
