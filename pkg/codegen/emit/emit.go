// Package emit holds the line buffer and statistics shared by the back ends.
package emit

import (
	"fmt"
	"io"
	"strings"
)

// Stats summarizes one generation run
type Stats struct {
	Instructions  int // Emitted instruction lines
	RegistersUsed int // Distinct registers ever allocated
	StackBytes    int // Frame bytes reserved by the prologue
}

// Buffer accumulates target text and counts instruction lines
type Buffer struct {
	sb     strings.Builder
	indent string
	count  int
}

// NewBuffer creates a buffer that prefixes instruction lines with indent
func NewBuffer(indent string) *Buffer {
	return &Buffer{indent: indent}
}

// Inst writes one indented instruction line and counts it
func (b *Buffer) Inst(format string, args ...any) {
	b.count++
	b.sb.WriteString(b.indent)
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Line writes an uncounted line as is (labels, directives, comments)
func (b *Buffer) Line(format string, args ...any) {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Blank writes an empty line
func (b *Buffer) Blank() { b.sb.WriteByte('\n') }

// Append copies another buffer's text and instruction count into b
func (b *Buffer) Append(other *Buffer) {
	b.sb.WriteString(other.sb.String())
	b.count += other.count
}

func (b *Buffer) Count() int     { return b.count }
func (b *Buffer) Len() int       { return b.sb.Len() }
func (b *Buffer) String() string { return b.sb.String() }

func (b *Buffer) Reset() {
	b.sb.Reset()
	b.count = 0
}

// WriteTo implements io.WriterTo
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.sb.String())
	return int64(n), err
}
