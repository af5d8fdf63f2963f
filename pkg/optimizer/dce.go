package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// DeadCodeElimination removes side-effect-free instructions whose result
// temp is not read before it is redefined. The list is walked tail to head
// so a chain of dead temps goes in one call. Returns the number removed.
func DeadCodeElimination(l *ir.List) int {
	logger.Debug("Running dead code elimination")

	removed := 0
	for id := l.Tail(); id != ir.None; {
		prev := l.Prev(id)
		if isDead(l, id) {
			l.Remove(id)
			removed++
		}
		id = prev
	}
	return removed
}

func isDead(l *ir.List, id ir.ID) bool {
	in := l.At(id)
	if in.Opcode.HasSideEffects() || in.Result.Kind != ir.TempOperand {
		return false
	}
	return !usedBeforeRedefined(l, in.Result.ID, l.Next(id))
}

func usedBeforeRedefined(l *ir.List, temp int, from ir.ID) bool {
	for id := from; id != ir.None; id = l.Next(id) {
		in := l.At(id)
		if in.Reads(temp) {
			return true
		}
		if in.Defines(temp) {
			return false
		}
	}
	return false
}
