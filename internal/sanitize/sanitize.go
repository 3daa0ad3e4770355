// Package sanitize strips characters that the downstream thermal printer
// could interpret as device-control sequences.
package sanitize

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoPrintableContent is returned when a message contains nothing but
// control characters and whitespace.
var ErrNoPrintableContent = errors.New("sanitize: no printable content")

// Clean removes every rune in U+0000..U+001F and U+007F (the C0 range
// includes ESC and GS, the printer's command prefixes) and every rune in a
// Unicode C* category (control, format, surrogate, private use). U+000A is
// always kept so multi-line messages print as written. The result is
// trimmed of outer whitespace; if nothing printable remains, Clean returns
// ErrNoPrintableContent.
//
// Clean is pure and idempotent.
func Clean(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7F {
			continue
		}
		if unicode.In(r, unicode.C) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "", ErrNoPrintableContent
	}
	return cleaned, nil
}
