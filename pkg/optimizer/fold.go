package optimizer

import (
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// ConstantFold evaluates BinOp and Convert instructions whose operands are
// known constants and rewrites them to LoadConst. Loads and copies of a
// constant are normalized to LoadConst too. Division by zero is left for
// run time. Returns the number of rewrites.
func ConstantFold(l *ir.List) int {
	logger.Debug("Running constant folding")

	table := NewConstantTable()
	folded := 0

	for id := l.Head(); id != ir.None; id = l.Next(id) {
		in := l.At(id)

		switch in.Opcode {
		case ir.OpLoad, ir.OpAssign:
			if in.Op1.IsConst() && in.Result.Kind == ir.TempOperand {
				rewriteConst(in, in.Op1)
				folded++
			}

		case ir.OpBinOp:
			left, lok := table.Resolve(in.Op1)
			right, rok := table.Resolve(in.Op2)
			if lok && rok {
				if c, ok := EvalBinary(in.BinOp, left, right); ok {
					rewriteConst(in, c)
					folded++
				}
			}

		case ir.OpConvert:
			if c, ok := table.Resolve(in.Op1); ok {
				rewriteConst(in, coerce(c, in.Result.Type))
				folded++
			}
		}

		if in.Opcode == ir.OpLoadConst && in.Result.Kind == ir.TempOperand {
			table.SetTemp(in.Result.ID, in.Op1)
		} else if in.Result.Kind == ir.TempOperand {
			table.ForgetTemp(in.Result.ID)
		}
	}

	return folded
}

// EvalBinary computes l op r for numeric constants. Either side being a
// float promotes the operation to float. Comparisons yield an int 0 or 1.
// ok is false for division by zero.
func EvalBinary(op ir.Op, l, r ir.Operand) (ir.Operand, bool) {
	if !l.IsConst() || !r.IsConst() {
		return ir.Operand{}, false
	}
	if op == ir.OpDiv && r.IsZero() {
		return ir.Operand{}, false
	}

	if l.Type == ir.Float || r.Type == ir.Float {
		a, b := l.AsFloat(), r.AsFloat()
		switch op {
		case ir.OpAdd:
			return ir.FloatConst(a + b), true
		case ir.OpSub:
			return ir.FloatConst(a - b), true
		case ir.OpMul:
			return ir.FloatConst(a * b), true
		case ir.OpDiv:
			return ir.FloatConst(a / b), true
		}
		return truth(compareFloat(op, a, b)), true
	}

	a, b := l.Int, r.Int
	switch op {
	case ir.OpAdd:
		return ir.IntConst(a + b), true
	case ir.OpSub:
		return ir.IntConst(a - b), true
	case ir.OpMul:
		return ir.IntConst(a * b), true
	case ir.OpDiv:
		return ir.IntConst(a / b), true
	}
	return truth(compareInt(op, a, b)), true
}

func compareInt(op ir.Op, a, b int64) bool {
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpNe:
		return a != b
	case ir.OpLt:
		return a < b
	case ir.OpGt:
		return a > b
	case ir.OpLe:
		return a <= b
	case ir.OpGe:
		return a >= b
	}
	return false
}

func compareFloat(op ir.Op, a, b float64) bool {
	switch op {
	case ir.OpEq:
		return ir.FloatsEqual(a, b)
	case ir.OpNe:
		return !ir.FloatsEqual(a, b)
	case ir.OpLt:
		return a < b
	case ir.OpGt:
		return a > b
	case ir.OpLe:
		return a <= b
	case ir.OpGe:
		return a >= b
	}
	return false
}

func truth(b bool) ir.Operand {
	if b {
		return ir.IntConst(1)
	}
	return ir.IntConst(0)
}
