// Package pseudo emits the teaching pseudo-assembly listing.
//
// Design: One mnemonic line per IR instruction, temps named temp_<id>. With
// Options.Registers the temps are instead mapped onto the small R0-R7 and
// F0-F3 register file so students can see allocation pressure.
package pseudo

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/GriffinCanCode/minicc/pkg/codegen/emit"
	"github.com/GriffinCanCode/minicc/pkg/codegen/regalloc"
	"github.com/GriffinCanCode/minicc/pkg/diagnostics"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

const target = "pseudo"

var errNilList = errors.New("pseudo: nil instruction list")

// Options controls the listing
type Options struct {
	Registers bool // Name temps by allocated register instead of temp_<id>
}

// Generator writes pseudo-assembly
type Generator struct {
	w     io.Writer
	opts  Options
	buf   *emit.Buffer
	pool  *regalloc.Pool
	live  regalloc.Liveness
	diags *diagnostics.Bag
	stats emit.Stats
}

func NewGenerator(w io.Writer, opts Options) *Generator {
	return &Generator{
		w:     w,
		opts:  opts,
		pool:  regalloc.NewPool(regalloc.PseudoConfig()),
		diags: diagnostics.NewBag(target),
	}
}

var mnemonics = map[ir.Op]string{
	ir.OpAdd: "ADD", ir.OpSub: "SUB", ir.OpMul: "MUL", ir.OpDiv: "DIV",
	ir.OpEq: "EQ", ir.OpNe: "NE", ir.OpLt: "LT", ir.OpGt: "GT", ir.OpLe: "LE", ir.OpGe: "GE",
}

// Generate writes the listing for l
func (g *Generator) Generate(l *ir.List) error {
	if l == nil {
		return errNilList
	}
	insts := l.Instructions()
	g.buf = emit.NewBuffer("    ")
	g.pool.Reset()
	g.stats = emit.Stats{}

	var expiry map[int][]int
	if g.opts.Registers {
		g.live = regalloc.ComputeLiveness(insts)
		expiry = g.live.ExpiryIndex()
	}

	g.buf.Line("; Assembly code")
	g.buf.Line("; Generated automatically")
	g.buf.Blank()
	for pos, in := range insts {
		g.generateInst(pos, in)
		for _, id := range expiry[pos] {
			g.pool.Free(id)
		}
	}
	g.buf.Blank()
	g.buf.Line("; Code generation completed")

	g.stats.Instructions = g.buf.Count()
	g.stats.RegistersUsed = len(g.pool.Used())
	logger.LogCodeGen(target, g.stats.Instructions)

	if g.w == nil {
		return nil
	}
	if _, err := g.buf.WriteTo(g.w); err != nil {
		return fmt.Errorf("write pseudo listing: %w", err)
	}
	return nil
}

// Text returns the listing of the last Generate
func (g *Generator) Text() string {
	if g.buf == nil {
		return ""
	}
	return g.buf.String()
}

func (g *Generator) Diagnostics() []*diagnostics.Diagnostic { return g.diags.Diagnostics() }
func (g *Generator) Stats() emit.Stats                      { return g.stats }

func (g *Generator) generateInst(pos int, in *ir.Instruction) {
	switch in.Opcode {
	case ir.OpFuncBegin:
		g.pool.Reset()
		g.buf.Line("FUNC_BEGIN %s", in.Op1.Name)
	case ir.OpFuncEnd:
		g.buf.Line("FUNC_END")
	case ir.OpLabel:
		g.buf.Line("%s:", in.Op1.Name)
	case ir.OpGoto:
		g.buf.Inst("JUMP %s", in.Op1.Name)
	case ir.OpIfFalseGoto, ir.OpIfGoto:
		cond, ok := g.operand(pos, in.Op1)
		if !ok {
			return
		}
		op := "JUMPZ"
		if in.Opcode == ir.OpIfGoto {
			op = "JUMPNZ"
		}
		g.buf.Inst("%s %s, %s", op, cond, in.Op2.Name)
	case ir.OpLoad:
		g.unary(pos, in, "LOAD")
	case ir.OpLoadConst:
		g.unary(pos, in, "LOAD_CONST")
	case ir.OpAssign:
		g.unary(pos, in, "MOVE")
	case ir.OpConvert:
		op := "CONVERT_INT"
		if in.Result.Type == ir.Float {
			op = "CONVERT_FLOAT"
		}
		g.unary(pos, in, op)
	case ir.OpStore:
		src, ok := g.operand(pos, in.Op1)
		if !ok {
			return
		}
		g.buf.Inst("STORE %s, %s", in.Result.Name, src)
	case ir.OpBinOp:
		left, ok := g.operand(pos, in.Op1)
		if !ok {
			return
		}
		right, ok := g.operand(pos, in.Op2)
		if !ok {
			return
		}
		class := regalloc.ClassOf(in.Result.Type)
		if in.BinOp.IsComparison() {
			class = regalloc.General
		}
		dst, ok := g.result(pos, in.Result, class)
		if !ok {
			return
		}
		g.buf.Inst("%s %s, %s, %s", mnemonics[in.BinOp], dst, left, right)
	case ir.OpParam:
		arg, ok := g.operand(pos, in.Op1)
		if !ok {
			return
		}
		g.buf.Inst("PARAM %s", arg)
	case ir.OpCall:
		if in.Result.IsNone() {
			g.buf.Inst("CALL %s", in.Op1.Name)
			return
		}
		dst, ok := g.result(pos, in.Result, regalloc.General)
		if !ok {
			return
		}
		g.buf.Inst("CALL %s, %s", dst, in.Op1.Name)
	case ir.OpReturn:
		if in.Op1.IsNone() {
			g.buf.Inst("RETURN")
			return
		}
		val, ok := g.operand(pos, in.Op1)
		if !ok {
			return
		}
		g.buf.Inst("RETURN %s", val)
	default:
		g.buf.Line("; Unknown instruction %s", in.Opcode)
		g.diags.Warnf(pos, "unsupported instruction %s", in.Opcode)
	}
}

// unary emits "OP dst, src". A value read from a temp takes that temp's
// class; everything else follows the result type.
func (g *Generator) unary(pos int, in *ir.Instruction, op string) {
	src, ok := g.operand(pos, in.Op1)
	if !ok {
		return
	}
	class := regalloc.ClassOf(in.Result.Type)
	if in.Opcode == ir.OpAssign && in.Op1.Kind == ir.TempOperand {
		if c, bound := g.pool.ClassOfTemp(in.Op1.ID); bound {
			class = c
		}
	}
	dst, ok := g.result(pos, in.Result, class)
	if !ok {
		return
	}
	g.buf.Inst("%s %s, %s", op, dst, src)
}

// operand renders op. In register mode a temp without a register makes the
// instruction unprintable.
func (g *Generator) operand(pos int, op ir.Operand) (string, bool) {
	switch op.Kind {
	case ir.TempOperand:
		if !g.opts.Registers {
			return fmt.Sprintf("temp_%d", op.ID), true
		}
		if reg, ok := g.pool.Lookup(op.ID); ok {
			return reg, true
		}
		g.buf.Line("; temp_%d has no register", op.ID)
		g.diags.Warnf(pos, "temp_%d has no register, instruction skipped", op.ID)
		return "", false
	case ir.StringOperand:
		return strconv.Quote(op.Name), true
	case ir.NoOperand:
		return "null", true
	}
	return op.String(), true
}

func (g *Generator) result(pos int, op ir.Operand, class regalloc.Class) (string, bool) {
	if !g.opts.Registers {
		return g.operand(pos, op)
	}
	if op.Kind != ir.TempOperand {
		return g.operand(pos, op)
	}
	reg, ok := g.pool.Allocate(op.ID, class)
	if !ok {
		g.buf.Line("; no %s register for temp_%d", class, op.ID)
		g.diags.Warnf(pos, "no %s register free for temp_%d, instruction skipped", class, op.ID)
		logger.LogRegisterExhausted(target, op.ID)
		return "", false
	}
	return reg, true
}
