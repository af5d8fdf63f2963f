// Package optimizer - Algebraic simplification pass
// Recognizes identity and absorbing operands in single instructions
package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// SimplifyAlgebra rewrites BinOps with an identity or absorbing constant
// operand. Returns the number of rewrites.
func SimplifyAlgebra(l *ir.List) int {
	logger.Debug("Running algebraic simplification")

	simplified := 0
	for id := l.Head(); id != ir.None; id = l.Next(id) {
		in := l.At(id)
		if in.Opcode != ir.OpBinOp || in.BinOp.IsComparison() {
			continue
		}
		if trySimplify(in) {
			simplified++
		}
	}
	return simplified
}

// trySimplify applies the first matching identity to in
func trySimplify(in *ir.Instruction) bool {
	l, r := in.Op1, in.Op2

	switch in.BinOp {
	case ir.OpAdd:
		// Pattern: x + 0  =>  x
		if r.IsZero() {
			logger.Debug("Peephole: eliminated add-by-zero")
			rewriteCopy(in, l)
			return true
		}
		// Pattern: 0 + x  =>  x
		if l.IsZero() {
			logger.Debug("Peephole: eliminated add-by-zero")
			rewriteCopy(in, r)
			return true
		}

	case ir.OpSub:
		// Pattern: x - 0  =>  x
		if r.IsZero() {
			logger.Debug("Peephole: eliminated subtract-by-zero")
			rewriteCopy(in, l)
			return true
		}

	case ir.OpMul:
		// Pattern: x * 1  =>  x
		if r.IsOne() {
			logger.Debug("Peephole: eliminated multiply-by-one")
			rewriteCopy(in, l)
			return true
		}
		// Pattern: 1 * x  =>  x
		if l.IsOne() {
			logger.Debug("Peephole: eliminated multiply-by-one")
			rewriteCopy(in, r)
			return true
		}
		// Pattern: x * 0, 0 * x  =>  0
		if l.IsZero() || r.IsZero() {
			logger.Debug("Peephole: eliminated multiply-by-zero")
			rewriteConst(in, ir.ZeroOf(in.Result.Type))
			return true
		}

	case ir.OpDiv:
		// Pattern: x / 1  =>  x
		if r.IsOne() {
			logger.Debug("Peephole: eliminated divide-by-one")
			rewriteCopy(in, l)
			return true
		}
	}

	return false
}
