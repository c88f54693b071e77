// Package framer turns the raw key-press stream of a keyboard-emulating
// reader into discrete identifier tokens.
package framer

import "strings"

// KeyEvent is one key press as delivered by the presentation layer. A
// modifier key carries neither a printable rune nor the terminator flag and
// leaves the buffer untouched.
type KeyEvent struct {
	Rune       rune
	Printable  bool
	Terminator bool
}

// Framer accumulates printable characters until a terminator key arrives.
// It is a pure state machine: the only state is the buffer, and it performs
// no I/O. Not safe for concurrent use; callers serialize (see scanner.Service).
type Framer struct {
	buf strings.Builder
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Feed consumes one key event. When ev is a terminator the accumulated
// buffer is emitted, trimmed of surrounding whitespace, and the buffer
// resets; emitted is true even when the token is empty so callers can decide
// how to treat blank scans. For any other event the buffer grows only if the
// event carries a printable rune.
func (f *Framer) Feed(ev KeyEvent) (token string, emitted bool) {
	if ev.Terminator {
		token = strings.TrimSpace(f.buf.String())
		f.buf.Reset()
		return token, true
	}
	if ev.Printable {
		f.buf.WriteRune(ev.Rune)
	}
	return "", false
}

// Pending reports the current buffer length, for diagnostics only.
func (f *Framer) Pending() int {
	return f.buf.Len()
}
