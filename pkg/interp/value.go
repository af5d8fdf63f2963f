package interp

import (
	"fmt"

	"github.com/GriffinCanCode/minicc/pkg/ir"
)

// ValueKind tags a runtime value
type ValueKind int

const (
	IntValue ValueKind = iota
	FloatValue
	StringValue
)

func (k ValueKind) String() string {
	switch k {
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case StringValue:
		return "string"
	}
	return "unknown"
}

// Value is a runtime value held by a temp, a variable or the parameter
// stack.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
}

func Int(v int64) Value     { return Value{Kind: IntValue, Int: v} }
func Float(v float64) Value { return Value{Kind: FloatValue, Float: v} }
func String(s string) Value { return Value{Kind: StringValue, Str: s} }

// zeroOf is the safe default substituted after a fault
func zeroOf(t ir.DataType) Value {
	if t == ir.Float {
		return Float(0)
	}
	return Int(0)
}

// AsFloat widens a numeric value
func (v Value) AsFloat() float64 {
	if v.Kind == FloatValue {
		return v.Float
	}
	return float64(v.Int)
}

// AsInt narrows a numeric value, truncating toward zero
func (v Value) AsInt() int64 {
	if v.Kind == FloatValue {
		return int64(v.Float)
	}
	return v.Int
}

// Truthy reports whether v counts as true in a conditional jump
func (v Value) Truthy() bool {
	switch v.Kind {
	case FloatValue:
		return v.Float != 0
	case StringValue:
		return v.Str != ""
	}
	return v.Int != 0
}

// to converts a numeric value to typ; strings and Unknown pass through
func (v Value) to(typ ir.DataType) Value {
	if v.Kind == StringValue {
		return v
	}
	switch typ {
	case ir.Int:
		return Int(v.AsInt())
	case ir.Float:
		return Float(v.AsFloat())
	}
	return v
}

func (v Value) String() string {
	switch v.Kind {
	case FloatValue:
		return fmt.Sprintf("%f", v.Float)
	case StringValue:
		return v.Str
	}
	return fmt.Sprintf("%d", v.Int)
}
