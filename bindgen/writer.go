package bindgen

import (
	"fmt"
	"strings"
)

// cppWriter manages indented C++ output for the emitter. It encapsulates
// the output buffer and the indentation level.
type cppWriter struct {
	sb     strings.Builder
	indent int
}

// Line writes an indented, formatted line (with trailing newline).
func (w *cppWriter) Line(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if line == "" {
		w.sb.WriteString("\n")
		return
	}
	w.sb.WriteString(strings.Repeat("  ", w.indent) + line + "\n")
}

// Blank writes an empty line.
func (w *cppWriter) Blank() { w.sb.WriteString("\n") }

// Raw writes unindented text directly to the buffer.
func (w *cppWriter) Raw(s string) {
	w.sb.WriteString(s)
}

// Indent increases the indentation level.
func (w *cppWriter) Indent() { w.indent++ }

// Dedent decreases the indentation level.
func (w *cppWriter) Dedent() { w.indent-- }

// String returns the accumulated output.
func (w *cppWriter) String() string { return w.sb.String() }

// Capture runs fn while writing to a temporary buffer, then restores the
// original buffer and returns the captured output.
func (w *cppWriter) Capture(fn func() error) (string, error) {
	saved := w.sb
	w.sb = strings.Builder{}
	err := fn()
	result := w.sb.String()
	w.sb = saved
	return result, err
}
