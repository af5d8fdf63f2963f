package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// PropagateConstants replaces Temp and Var operands whose current value is
// a known constant. Variable knowledge is dropped at every label, since a
// label may be reached from a jump with different stores behind it.
// Returns the number of instructions changed.
func PropagateConstants(l *ir.List) int {
	logger.Debug("Running constant propagation")

	table := NewConstantTable()
	propagated := 0

	for id := l.Head(); id != ir.None; id = l.Next(id) {
		in := l.At(id)

		if in.Opcode == ir.OpLabel {
			table.ForgetVars()
			continue
		}

		changed := false
		if c, ok := replaceable(table, in.Op1); ok {
			in.Op1 = c
			changed = true
		}
		if c, ok := replaceable(table, in.Op2); ok {
			in.Op2 = c
			changed = true
		}
		if changed {
			propagated++
		}

		if in.Opcode == ir.OpStore && in.Result.Kind == ir.VarOperand {
			if in.Op1.IsConst() {
				table.SetVar(in.Result.Name, coerce(in.Op1, in.Result.Type))
			} else {
				table.ForgetVar(in.Result.Name)
			}
			continue
		}
		table.define(in)
	}

	return propagated
}

func replaceable(table *ConstantTable, op ir.Operand) (ir.Operand, bool) {
	if op.Kind != ir.TempOperand && op.Kind != ir.VarOperand {
		return ir.Operand{}, false
	}
	return table.Resolve(op)
}
