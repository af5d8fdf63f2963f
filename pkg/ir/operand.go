package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OperandKind tags which variant an Operand holds
type OperandKind int

const (
	NoOperand OperandKind = iota
	TempOperand
	VarOperand
	StringOperand
	ConstOperand
	LabelOperand
	FuncOperand
)

// Operand is a tagged value. It is copied by value, so an instruction
// never shares an operand with another instruction.
//
// Temp uses ID and Type; Var uses Name and Type; String uses Name (the
// unescaped literal text); Const uses Type and Int or Float; Label and
// Func use Name.
type Operand struct {
	Kind  OperandKind
	Type  DataType
	ID    int
	Name  string
	Int   int64
	Float float64
}

func Temp(id int, t DataType) Operand {
	return Operand{Kind: TempOperand, Type: t, ID: id}
}

func Var(name string, t DataType) Operand {
	return Operand{Kind: VarOperand, Type: t, Name: name}
}

// StringLit is a string literal carried to printf
func StringLit(text string) Operand {
	return Operand{Kind: StringOperand, Name: text}
}

func IntConst(v int64) Operand {
	return Operand{Kind: ConstOperand, Type: Int, Int: v}
}

func FloatConst(v float64) Operand {
	return Operand{Kind: ConstOperand, Type: Float, Float: v}
}

// ZeroOf returns the constant 0 of type t
func ZeroOf(t DataType) Operand {
	if t == Float {
		return FloatConst(0)
	}
	return IntConst(0)
}

func Label(name string) Operand {
	return Operand{Kind: LabelOperand, Name: name}
}

func Func(name string) Operand {
	return Operand{Kind: FuncOperand, Name: name}
}

func (o Operand) IsNone() bool   { return o.Kind == NoOperand }
func (o Operand) IsConst() bool  { return o.Kind == ConstOperand }
func (o Operand) IsString() bool { return o.Kind == StringOperand }

// IsTemp reports whether o is the temp with the given id
func (o Operand) IsTemp(id int) bool {
	return o.Kind == TempOperand && o.ID == id
}

// IsVarNamed reports whether o is the variable with the given name
func (o Operand) IsVarNamed(name string) bool {
	return o.Kind == VarOperand && o.Name == name
}

// AsFloat returns a numeric constant widened to float64
func (o Operand) AsFloat() float64 {
	if o.Type == Float {
		return o.Float
	}
	return float64(o.Int)
}

// IsZero reports whether o is a numeric constant equal to zero
func (o Operand) IsZero() bool {
	return o.Kind == ConstOperand && o.AsFloat() == 0
}

// IsOne reports whether o is a numeric constant equal to one
func (o Operand) IsOne() bool {
	return o.Kind == ConstOperand && o.AsFloat() == 1
}

// Equal is structural equality for temps, variables, strings and constants.
// Labels and function names never compare equal.
func (o Operand) Equal(p Operand) bool {
	if o.Kind != p.Kind {
		return false
	}
	switch o.Kind {
	case TempOperand:
		return o.ID == p.ID
	case VarOperand, StringOperand:
		return o.Name == p.Name
	case ConstOperand:
		if o.Type != p.Type {
			return false
		}
		if o.Type == Float {
			return o.Float == p.Float
		}
		return o.Int == p.Int
	}
	return false
}

func (o Operand) String() string {
	switch o.Kind {
	case NoOperand:
		return "<none>"
	case TempOperand:
		return fmt.Sprintf("t%d", o.ID)
	case VarOperand, LabelOperand, FuncOperand:
		return o.Name
	case StringOperand:
		return strconv.Quote(o.Name)
	case ConstOperand:
		if o.Type == Float {
			return FormatFloat(o.Float)
		}
		return strconv.FormatInt(o.Int, 10)
	}
	return "?"
}

// FormatFloat renders v as the shortest decimal that reads back exactly,
// always with a fraction or exponent so C and the listing see a float.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "(1.0/0.0)"
	case math.IsInf(v, -1):
		return "(-1.0/0.0)"
	case math.IsNaN(v):
		return "(0.0/0.0)"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// FloatEpsilon is the tolerance for float == and != on every target
const FloatEpsilon = 1e-6

// FloatsEqual reports whether a and b are equal within FloatEpsilon. NaN
// equals nothing.
func FloatsEqual(a, b float64) bool {
	return math.Abs(a-b) < FloatEpsilon
}
