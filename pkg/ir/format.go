package ir

import (
	"fmt"
	"strings"
)

// String renders the instruction in three-address listing form
func (in *Instruction) String() string {
	switch in.Opcode {
	case OpAssign, OpLoad, OpStore, OpLoadConst:
		return fmt.Sprintf("%s = %s", in.Result, in.Op1)
	case OpBinOp:
		return fmt.Sprintf("%s = %s %s %s", in.Result, in.Op1, in.BinOp, in.Op2)
	case OpLabel:
		return fmt.Sprintf("%s:", in.Op1)
	case OpGoto:
		return fmt.Sprintf("goto %s", in.Op1)
	case OpIfGoto:
		return fmt.Sprintf("if %s goto %s", in.Op1, in.Op2)
	case OpIfFalseGoto:
		return fmt.Sprintf("if !%s goto %s", in.Op1, in.Op2)
	case OpReturn:
		if in.Op1.IsNone() {
			return "return"
		}
		return fmt.Sprintf("return %s", in.Op1)
	case OpFuncBegin:
		return fmt.Sprintf("func_begin %s", in.Op1)
	case OpFuncEnd:
		return "func_end"
	case OpConvert:
		return fmt.Sprintf("%s = (%s) %s", in.Result, in.Result.Type, in.Op1)
	case OpParam:
		return fmt.Sprintf("param %s", in.Op1)
	case OpCall:
		if in.Result.IsNone() {
			return fmt.Sprintf("call %s", in.Op1)
		}
		return fmt.Sprintf("%s = call %s", in.Result, in.Op1)
	}
	return "unknown instruction"
}

// Format returns the numbered listing of l
func Format(l *List) string {
	var b strings.Builder
	for i, in := range l.Instructions() {
		fmt.Fprintf(&b, "%3d: %s\n", i+1, in)
	}
	return b.String()
}
