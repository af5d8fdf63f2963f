package optimizer

import "github.com/GriffinCanCode/minicc/pkg/ir"

// ConstantTable tracks which temps and variables currently hold a known
// constant. Values are constant operands. One table lives for one pass
// invocation.
type ConstantTable struct {
	temps map[int]ir.Operand
	vars  map[string]ir.Operand
}

func NewConstantTable() *ConstantTable {
	return &ConstantTable{
		temps: make(map[int]ir.Operand),
		vars:  make(map[string]ir.Operand),
	}
}

func (t *ConstantTable) SetTemp(id int, c ir.Operand) { t.temps[id] = c }

func (t *ConstantTable) ForgetTemp(id int) { delete(t.temps, id) }

func (t *ConstantTable) SetVar(name string, c ir.Operand) { t.vars[name] = c }

func (t *ConstantTable) ForgetVar(name string) { delete(t.vars, name) }

// ForgetVars drops every variable entry, keeping temps
func (t *ConstantTable) ForgetVars() {
	clear(t.vars)
}

// Resolve returns the constant value of op: op itself when it is a
// constant, the recorded value for a tracked temp or variable, or false.
func (t *ConstantTable) Resolve(op ir.Operand) (ir.Operand, bool) {
	switch op.Kind {
	case ir.ConstOperand:
		return op, true
	case ir.TempOperand:
		c, ok := t.temps[op.ID]
		return c, ok
	case ir.VarOperand:
		c, ok := t.vars[op.Name]
		return c, ok
	}
	return ir.Operand{}, false
}

// define records the value written to in.Result after in executes: a
// constant if in copies one into a temp, otherwise the temp is forgotten.
func (t *ConstantTable) define(in *ir.Instruction) {
	if in.Result.Kind != ir.TempOperand {
		return
	}
	switch in.Opcode {
	case ir.OpLoadConst, ir.OpLoad, ir.OpAssign:
		if in.Op1.IsConst() {
			t.SetTemp(in.Result.ID, in.Op1)
			return
		}
	}
	t.ForgetTemp(in.Result.ID)
}

// coerce converts a numeric constant to typ
func coerce(c ir.Operand, typ ir.DataType) ir.Operand {
	switch {
	case typ == ir.Float && c.Type == ir.Int:
		return ir.FloatConst(float64(c.Int))
	case typ == ir.Int && c.Type == ir.Float:
		return ir.IntConst(int64(c.Float))
	}
	return c
}
