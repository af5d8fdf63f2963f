package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// PropagateCopies rewrites reads of t1 after "t1 = t2" to read t2. The
// forward scan stops as soon as either temp is redefined. Returns the
// number of operands rewritten.
func PropagateCopies(l *ir.List) int {
	logger.Debug("Running copy propagation")

	propagated := 0
	for id := l.Head(); id != ir.None; id = l.Next(id) {
		in := l.At(id)
		if in.Opcode != ir.OpAssign || in.Result.Kind != ir.TempOperand || in.Op1.Kind != ir.TempOperand {
			continue
		}
		target, source := in.Result.ID, in.Op1
		if target == source.ID {
			continue
		}

		for cur := l.Next(id); cur != ir.None; cur = l.Next(cur) {
			next := l.At(cur)
			if next.Op1.IsTemp(target) {
				next.Op1 = retype(source, next.Op1.Type)
				propagated++
			}
			if next.Op2.IsTemp(target) {
				next.Op2 = retype(source, next.Op2.Type)
				propagated++
			}
			if next.Defines(source.ID) || next.Defines(target) {
				break
			}
		}
	}
	return propagated
}

// retype keeps the operand type the reader expected
func retype(op ir.Operand, typ ir.DataType) ir.Operand {
	op.Type = typ
	return op
}
