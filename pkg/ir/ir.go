// Package ir implements the intermediate representation.
//
// Design: Three-address code in one flat instruction stream per program.
// Instructions live in an arena and are chained by index, so passes can
// unlink or rewrite nodes in place without pointer surgery.
package ir

import "fmt"

// DataType is the value type carried by an operand
type DataType int

const (
	Unknown DataType = iota
	Int
	Float
)

func (t DataType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

// TypeFromName maps a declared type name to a DataType; anything that is
// not "float" is an int.
func TypeFromName(name string) DataType {
	if name == "float" {
		return Float
	}
	return Int
}

// Opcode selects what an instruction does
type Opcode int

const (
	OpAssign      Opcode = iota // result = op1
	OpBinOp                     // result = op1 <binop> op2
	OpLoad                      // result = var
	OpStore                     // var = op1
	OpLoadConst                 // result = const
	OpLabel                     // op1:
	OpGoto                      // goto op1
	OpIfGoto                    // if op1 goto op2
	OpIfFalseGoto               // if !op1 goto op2
	OpParam                     // param op1
	OpCall                      // result = call op1
	OpReturn                    // return [op1]
	OpFuncBegin                 // func_begin op1
	OpFuncEnd                   // func_end
	OpConvert                   // result = (type) op1
)

var opcodeNames = [...]string{
	OpAssign:      "assign",
	OpBinOp:       "binop",
	OpLoad:        "load",
	OpStore:       "store",
	OpLoadConst:   "load_const",
	OpLabel:       "label",
	OpGoto:        "goto",
	OpIfGoto:      "if_goto",
	OpIfFalseGoto: "if_false_goto",
	OpParam:       "param",
	OpCall:        "call",
	OpReturn:      "return",
	OpFuncBegin:   "func_begin",
	OpFuncEnd:     "func_end",
	OpConvert:     "convert",
}

func (o Opcode) String() string {
	if o >= 0 && int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

// HasSideEffects reports whether an instruction with this opcode must be
// kept even when its result is never read.
func (o Opcode) HasSideEffects() bool {
	switch o {
	case OpStore, OpCall, OpReturn, OpGoto, OpIfGoto, OpIfFalseGoto,
		OpLabel, OpFuncBegin, OpFuncEnd:
		return true
	}
	return false
}

// IsJump reports whether the opcode transfers control to a label
func (o Opcode) IsJump() bool {
	return o == OpGoto || o == OpIfGoto || o == OpIfFalseGoto
}

// Op is a binary operator
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

var opSymbols = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op produces a 0/1 truth value
func (op Op) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// Instruction is one node of the instruction stream. BinOp is meaningful
// only when Opcode is OpBinOp. Unused operand slots hold the zero Operand.
type Instruction struct {
	Opcode Opcode
	Result Operand
	Op1    Operand
	Op2    Operand
	BinOp  Op

	next    ID
	prev    ID
	removed bool
}

// Reads reports whether the instruction reads temp id through Op1 or Op2
func (in *Instruction) Reads(id int) bool {
	return in.Op1.IsTemp(id) || in.Op2.IsTemp(id)
}

// Defines reports whether the instruction writes temp id
func (in *Instruction) Defines(id int) bool {
	return in.Result.IsTemp(id)
}

// Target returns the jump target name of a jump instruction, or "" otherwise
func (in *Instruction) Target() string {
	switch in.Opcode {
	case OpGoto:
		return in.Op1.Name
	case OpIfGoto, OpIfFalseGoto:
		return in.Op2.Name
	}
	return ""
}
