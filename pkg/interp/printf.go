package interp

import (
	"fmt"
	"strings"
)

// formatPrintf renders a minimal printf: %d and %i print an int (floats
// truncate), %f prints six decimals, %s a string, %% a percent sign. Other
// directives, and directives with no argument left, are copied verbatim.
func formatPrintf(format string, args []Value) string {
	var b strings.Builder
	next := 0

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		spec := format[i+1]
		if spec == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		if next >= len(args) {
			b.WriteByte(c)
			continue
		}

		arg := args[next]
		switch spec {
		case 'd', 'i':
			if arg.Kind != StringValue {
				fmt.Fprintf(&b, "%d", arg.AsInt())
			}
		case 'f':
			if arg.Kind != StringValue {
				fmt.Fprintf(&b, "%f", arg.AsFloat())
			}
		case 's':
			if arg.Kind == StringValue {
				b.WriteString(arg.Str)
			}
		default:
			b.WriteByte('%')
			b.WriteByte(spec)
		}
		next++
		i++
	}
	return b.String()
}
