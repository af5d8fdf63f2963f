package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// CommonSubexpressionElimination rewrites the second of two adjacent,
// identical BinOps into a copy of the first one's result. Returns the
// number of rewrites.
func CommonSubexpressionElimination(l *ir.List) int {
	logger.Debug("Running common subexpression elimination")

	eliminated := 0
	for id := l.Head(); id != ir.None; id = l.Next(id) {
		nextID := l.Next(id)
		if nextID == ir.None {
			break
		}
		first, second := l.At(id), l.At(nextID)
		if !sameExpression(first, second) {
			continue
		}
		// the first result must still hold the value when the second runs
		if first.Reads(first.Result.ID) {
			continue
		}
		logger.Debug("Reusing common subexpression", "expr", first.String())
		rewriteCopy(second, first.Result)
		eliminated++
	}
	return eliminated
}

func sameExpression(a, b *ir.Instruction) bool {
	return a.Opcode == ir.OpBinOp && b.Opcode == ir.OpBinOp &&
		a.Result.Kind == ir.TempOperand &&
		a.BinOp == b.BinOp &&
		a.Op1.Equal(b.Op1) && a.Op2.Equal(b.Op2)
}
