// Package interp executes an instruction list directly.
//
// Design: the list is flattened into an array once and every label is
// indexed up front, so jumps are O(1). Arithmetic and lookup errors become
// Faults with a zero substituted; the run never aborts on them.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// DefaultMaxSteps bounds a run so a non-terminating loop still returns
const DefaultMaxSteps = 1 << 22

// Options configures an Interpreter. A nil Stdout or Stderr means the
// process's own stream.
type Options struct {
	Stdout   io.Writer
	Stderr   io.Writer
	MaxSteps int // <= 0 disables the limit
}

func DefaultOptions() Options {
	return Options{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		MaxSteps: DefaultMaxSteps,
	}
}

// Result summarizes one run
type Result struct {
	Return   Value
	Returned bool
	Steps    int
	Faults   []Fault
}

// Interpreter runs one instruction list
type Interpreter struct {
	code   []*ir.Instruction
	labels map[string]int
	temps  map[int]Value
	vars   map[string]Value
	params []Value
	opts   Options

	PC     int
	Halted bool
	result Result
}

// New flattens list and indexes its labels
func New(list *ir.List, opts Options) (*Interpreter, error) {
	if list == nil {
		return nil, ErrNilList
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	it := &Interpreter{
		code:   list.Instructions(),
		labels: make(map[string]int),
		temps:  make(map[int]Value),
		vars:   make(map[string]Value),
		opts:   opts,
	}
	for i, in := range it.code {
		if in.Opcode != ir.OpLabel {
			continue
		}
		if _, dup := it.labels[in.Op1.Name]; dup {
			it.fault(DuplicateLabel, i, "label %s already defined", in.Op1.Name)
			continue
		}
		it.labels[in.Op1.Name] = i
	}
	logger.Debug("Interpreter ready", "instructions", len(it.code), "labels", len(it.labels))
	return it, nil
}

// Execute runs list to completion with opts
func Execute(list *ir.List, opts Options) (*Result, error) {
	it, err := New(list, opts)
	if err != nil {
		return nil, err
	}
	return it.Run(), nil
}

// Run steps until a Return, the end of the list, or the step limit
func (it *Interpreter) Run() *Result {
	for !it.Halted {
		it.Step()
	}
	return &it.result
}

// Step executes the instruction at PC
func (it *Interpreter) Step() {
	if it.Halted {
		return
	}
	if it.PC < 0 || it.PC >= len(it.code) {
		it.Halted = true
		return
	}
	if limit := it.opts.MaxSteps; limit > 0 && it.result.Steps >= limit {
		it.fault(StepLimit, it.PC, "stopped after %d steps", it.result.Steps)
		it.Halted = true
		return
	}
	it.result.Steps++

	in := it.code[it.PC]
	jumped := false

	switch in.Opcode {
	case ir.OpAssign, ir.OpLoad, ir.OpLoadConst:
		it.setTemp(in.Result, it.eval(in.Op1))

	case ir.OpStore:
		v := it.eval(in.Op1)
		if in.Result.Kind == ir.VarOperand {
			it.vars[in.Result.Name] = v.to(in.Result.Type)
		} else {
			it.fault(BadOperand, it.PC, "store to %s", in.Result)
		}

	case ir.OpBinOp:
		it.setTemp(in.Result, it.binary(in.BinOp, it.eval(in.Op1), it.eval(in.Op2), in.Result.Type))

	case ir.OpConvert:
		it.setTemp(in.Result, it.eval(in.Op1).to(in.Result.Type))

	case ir.OpLabel, ir.OpFuncBegin, ir.OpFuncEnd:
		// markers

	case ir.OpGoto:
		jumped = it.jump(in.Op1)

	case ir.OpIfGoto:
		if it.eval(in.Op1).Truthy() {
			jumped = it.jump(in.Op2)
		}

	case ir.OpIfFalseGoto:
		if !it.eval(in.Op1).Truthy() {
			jumped = it.jump(in.Op2)
		}

	case ir.OpParam:
		it.params = append(it.params, it.eval(in.Op1))

	case ir.OpCall:
		it.setTemp(in.Result, it.call(in.Op1.Name))
		it.params = it.params[:0]

	case ir.OpReturn:
		if !in.Op1.IsNone() {
			it.result.Return = it.eval(in.Op1)
		}
		it.result.Returned = true
		it.Halted = true

	default:
		it.fault(UnsupportedInstruction, it.PC, "opcode %s", in.Opcode)
	}

	if !jumped {
		it.PC++
	}
}

// Lookup returns the current value of a variable
func (it *Interpreter) Lookup(name string) (Value, bool) {
	v, ok := it.vars[name]
	return v, ok
}

// Temp returns the current value of temp id
func (it *Interpreter) Temp(id int) (Value, bool) {
	v, ok := it.temps[id]
	return v, ok
}

// LabelIndex returns the array index of label name
func (it *Interpreter) LabelIndex(name string) (int, bool) {
	i, ok := it.labels[name]
	return i, ok
}

// Result returns the state of the run so far
func (it *Interpreter) Result() *Result { return &it.result }

func (it *Interpreter) eval(op ir.Operand) Value {
	switch op.Kind {
	case ir.ConstOperand:
		if op.Type == ir.Float {
			return Float(op.Float)
		}
		return Int(op.Int)
	case ir.StringOperand:
		return String(op.Name)
	case ir.TempOperand:
		if v, ok := it.temps[op.ID]; ok {
			return v
		}
		it.fault(MissingVariable, it.PC, "temp %s has no value", op)
		return zeroOf(op.Type)
	case ir.VarOperand:
		if v, ok := it.vars[op.Name]; ok {
			return v
		}
		it.fault(MissingVariable, it.PC, "variable %s not found", op.Name)
		return zeroOf(op.Type)
	}
	it.fault(BadOperand, it.PC, "cannot evaluate %s", op)
	return Int(0)
}

func (it *Interpreter) setTemp(dst ir.Operand, v Value) {
	if dst.Kind != ir.TempOperand {
		if !dst.IsNone() {
			it.fault(BadOperand, it.PC, "result %s is not a temp", dst)
		}
		return
	}
	it.temps[dst.ID] = v
}

// binary evaluates l op r. Either side being a float promotes to float;
// comparisons yield an int 0 or 1.
func (it *Interpreter) binary(op ir.Op, l, r Value, typ ir.DataType) Value {
	if l.Kind == StringValue || r.Kind == StringValue {
		it.fault(BadOperand, it.PC, "operator %s applied to a string", op)
		return zeroOf(typ)
	}

	if l.Kind == FloatValue || r.Kind == FloatValue {
		a, b := l.AsFloat(), r.AsFloat()
		switch op {
		case ir.OpAdd:
			return Float(a + b)
		case ir.OpSub:
			return Float(a - b)
		case ir.OpMul:
			return Float(a * b)
		case ir.OpDiv:
			if b == 0 {
				it.fault(DivisionByZero, it.PC, "float division by zero")
				return Float(0)
			}
			return Float(a / b)
		case ir.OpEq:
			return boolValue(ir.FloatsEqual(a, b))
		case ir.OpNe:
			return boolValue(!ir.FloatsEqual(a, b))
		case ir.OpLt:
			return boolValue(a < b)
		case ir.OpGt:
			return boolValue(a > b)
		case ir.OpLe:
			return boolValue(a <= b)
		case ir.OpGe:
			return boolValue(a >= b)
		}
		return Float(0)
	}

	a, b := l.Int, r.Int
	switch op {
	case ir.OpAdd:
		return Int(a + b)
	case ir.OpSub:
		return Int(a - b)
	case ir.OpMul:
		return Int(a * b)
	case ir.OpDiv:
		if b == 0 {
			it.fault(DivisionByZero, it.PC, "integer division by zero")
			return Int(0)
		}
		return Int(a / b)
	case ir.OpEq:
		return boolValue(a == b)
	case ir.OpNe:
		return boolValue(a != b)
	case ir.OpLt:
		return boolValue(a < b)
	case ir.OpGt:
		return boolValue(a > b)
	case ir.OpLe:
		return boolValue(a <= b)
	case ir.OpGe:
		return boolValue(a >= b)
	}
	return Int(0)
}

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// jump moves PC to the label's index. An unknown label is a fault and the
// jump is not taken.
func (it *Interpreter) jump(label ir.Operand) bool {
	idx, ok := it.labels[label.Name]
	if !ok {
		it.fault(UndefinedLabel, it.PC, "label %q not found", label.Name)
		return false
	}
	it.PC = idx
	return true
}

// call runs a callee against the pending params. Only printf does
// anything; it returns the number of bytes written.
func (it *Interpreter) call(name string) Value {
	if name != "printf" {
		logger.Debug("Ignoring call", "func", name, "params", len(it.params))
		return Int(0)
	}
	if len(it.params) == 0 {
		return Int(0)
	}
	format := it.params[0]
	if format.Kind != StringValue {
		it.fault(BadOperand, it.PC, "printf format is %s, not a string", format.Kind)
		return Int(0)
	}

	out := formatPrintf(format.Str, it.params[1:])
	n, err := io.WriteString(it.opts.Stdout, out)
	if err != nil {
		logger.Warn("printf write failed", "error", err)
	}
	return Int(int64(n))
}

func (it *Interpreter) fault(kind FaultKind, pc int, format string, args ...any) {
	f := Fault{Kind: kind, PC: pc, Message: fmt.Sprintf(format, args...)}
	it.result.Faults = append(it.result.Faults, f)
	logger.LogRuntimeFault(kind.String(), pc, f.Message)
	fmt.Fprintln(it.opts.Stderr, f.Error())
}
