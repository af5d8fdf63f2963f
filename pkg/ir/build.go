// Package ir - AST to IR conversion
// Design: Single pass, typed temporaries, implicit widening at every
// mixed-type boundary.
package ir

import (
	"fmt"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// Builder lowers a validated AST into an instruction list. Temp ids and
// label numbers are unique per Builder and never reused.
type Builder struct {
	list    *List
	vars    *VarTypeTable
	tempID  int
	labelID int
	gaps    int
}

func NewBuilder() *Builder {
	return &Builder{
		list: NewList(),
		vars: NewVarTypeTable(),
	}
}

// Generate lowers root with a fresh Builder
func Generate(root ast.Node) *List {
	return NewBuilder().Build(root)
}

// Build lowers root and returns the instruction list. Build never fails:
// nil or unrecognized nodes are skipped and counted in Gaps.
func (b *Builder) Build(root ast.Node) *List {
	logger.Debug("Building IR from AST", "root", fmt.Sprintf("%T", root))
	b.buildNode(root)
	logger.LogIRGeneration(b.list.Len(), b.tempID, b.labelID)
	return b.list
}

// List returns the list built so far
func (b *Builder) List() *List { return b.list }

// Vars returns the session's variable type table
func (b *Builder) Vars() *VarTypeTable { return b.vars }

// Gaps returns how many nodes were skipped as missing or unrecognized
func (b *Builder) Gaps() int { return b.gaps }


func (b *Builder) buildNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Program:
		if n == nil {
			b.gap(node)
			return
		}
		for _, child := range n.Body {
			b.buildNode(child)
		}
	case *ast.FuncDef:
		b.buildFunction(n)
	case ast.Stmt:
		b.buildStatement(n)
	case ast.Expr:
		b.buildExpression(n)
	default:
		b.gap(node)
	}
}

func (b *Builder) buildFunction(fn *ast.FuncDef) {
	if fn == nil {
		b.gap(fn)
		return
	}
	logger.Debug("Building function", "name", fn.Name)
	b.emit(Instruction{Opcode: OpFuncBegin, Op1: Func(fn.Name)})
	b.buildStatement(fn.Body)
	b.emit(Instruction{Opcode: OpFuncEnd})
}

func (b *Builder) buildStatement(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		if s == nil {
			return
		}
		for _, child := range s.Stmts {
			b.buildStatement(child)
		}

	case *ast.Decl:
		b.vars.Declare(s.Name, TypeFromName(s.Type))

	case *ast.DeclAssign:
		val := b.buildExpression(s.Value)
		typ := TypeFromName(s.Type)
		b.vars.Declare(s.Name, typ)
		b.store(s.Name, typ, val)

	case *ast.Assign:
		val := b.buildExpression(s.Value)
		b.store(s.Name, b.vars.TypeOf(s.Name), val)

	case *ast.If:
		cond := b.buildExpression(s.Cond)
		elseLabel := b.newLabel()
		endLabel := b.newLabel()
		b.emit(Instruction{Opcode: OpIfFalseGoto, Op1: cond, Op2: Label(elseLabel)})
		b.buildStatement(s.Then)
		b.emit(Instruction{Opcode: OpGoto, Op1: Label(endLabel)})
		b.emit(Instruction{Opcode: OpLabel, Op1: Label(elseLabel)})
		b.buildStatement(s.Else)
		b.emit(Instruction{Opcode: OpLabel, Op1: Label(endLabel)})

	case *ast.While:
		loopLabel := b.newLabel()
		endLabel := b.newLabel()
		b.emit(Instruction{Opcode: OpLabel, Op1: Label(loopLabel)})
		cond := b.buildExpression(s.Cond)
		b.emit(Instruction{Opcode: OpIfFalseGoto, Op1: cond, Op2: Label(endLabel)})
		b.buildStatement(s.Body)
		b.emit(Instruction{Opcode: OpGoto, Op1: Label(loopLabel)})
		b.emit(Instruction{Opcode: OpLabel, Op1: Label(endLabel)})

	case *ast.Return:
		var val Operand
		if s.Value != nil {
			val = b.buildExpression(s.Value)
		}
		b.emit(Instruction{Opcode: OpReturn, Op1: val})

	case *ast.ExprStmt:
		b.buildExpression(s.X)

	case *ast.FuncDef:
		b.buildFunction(s)

	case nil:
		// empty branch
	default:
		b.gap(stmt)
	}
}

// store widens val to the variable's type when needed and emits the Store
func (b *Builder) store(name string, typ DataType, val Operand) {
	if val.IsNone() {
		return
	}
	val = b.convert(val, typ)
	b.emit(Instruction{Opcode: OpStore, Result: Var(name, typ), Op1: val})
}

func (b *Builder) buildExpression(expr ast.Expr) Operand {
	switch e := expr.(type) {
	case *ast.IntLit:
		return IntConst(e.Value)

	case *ast.FloatLit:
		return FloatConst(e.Value)

	case *ast.StringLit:
		return StringLit(e.Value)

	case *ast.Ident:
		typ := b.vars.TypeOf(e.Name)
		temp := b.newTemp(typ)
		b.emit(Instruction{Opcode: OpLoad, Result: temp, Op1: Var(e.Name, typ)})
		return temp

	case *ast.BinaryExpr:
		left := b.buildExpression(e.Left)
		right := b.buildExpression(e.Right)
		if left.IsNone() || right.IsNone() {
			b.gap(expr)
			return Operand{}
		}

		resultType := Int
		if left.Type == Float || right.Type == Float {
			resultType = Float
		}
		left = b.convert(left, resultType)
		right = b.convert(right, resultType)

		temp := b.newTemp(resultType)
		b.emit(Instruction{
			Opcode: OpBinOp,
			Result: temp,
			Op1:    left,
			Op2:    right,
			BinOp:  opFromAST(e.Op),
		})
		return temp

	case *ast.CallExpr:
		return b.buildCall(e)

	default:
		b.gap(expr)
		return Operand{}
	}
}

// buildCall lowers every argument left to right, then emits one Param per
// argument directly before the Call, so a call nested in an argument has
// finished before the first Param of the outer call. The result temp is
// always an int.
func (b *Builder) buildCall(call *ast.CallExpr) Operand {
	if call == nil {
		b.gap(call)
		return Operand{}
	}
	args := make([]Operand, 0, len(call.Args))
	for _, arg := range call.Args {
		if val := b.buildExpression(arg); !val.IsNone() {
			args = append(args, val)
		}
	}
	for _, val := range args {
		b.emit(Instruction{Opcode: OpParam, Op1: val})
	}
	temp := b.newTemp(Int)
	b.emit(Instruction{Opcode: OpCall, Result: temp, Op1: Func(call.Func)})
	return temp
}

// convert inserts a Convert when val's type differs from target. Unknown on
// either side never converts.
func (b *Builder) convert(val Operand, target DataType) Operand {
	if !NeedsConversion(val.Type, target) {
		return val
	}
	temp := b.newTemp(target)
	b.emit(Instruction{Opcode: OpConvert, Result: temp, Op1: val})
	return temp
}

// NeedsConversion reports whether a value of type from must be converted to
// be used as type to.
func NeedsConversion(from, to DataType) bool {
	return from != to && from != Unknown && to != Unknown
}

func (b *Builder) emit(inst Instruction) ID {
	return b.list.Append(inst)
}

func (b *Builder) newTemp(typ DataType) Operand {
	b.tempID++
	return Temp(b.tempID, typ)
}

func (b *Builder) newLabel() string {
	b.labelID++
	return fmt.Sprintf("L%d", b.labelID)
}

func (b *Builder) gap(node any) {
	b.gaps++
	logger.Debug("Skipping node during IR generation", "node", fmt.Sprintf("%T", node))
}

func opFromAST(op ast.Operator) Op {
	switch op {
	case ast.Add:
		return OpAdd
	case ast.Sub:
		return OpSub
	case ast.Mul:
		return OpMul
	case ast.Div:
		return OpDiv
	case ast.Eq:
		return OpEq
	case ast.Ne:
		return OpNe
	case ast.Lt:
		return OpLt
	case ast.Gt:
		return OpGt
	case ast.Le:
		return OpLe
	case ast.Ge:
		return OpGe
	default:
		return OpAdd
	}
}
