// Package cgen re-synthesizes C source from the instruction list.
//
// Design: C needs every temp declared up front, so each function is
// pre-scanned to classify its temps as int, double or string before any
// statement is emitted. printf calls are rebuilt from the buffered params.
package cgen

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/codegen/emit"
	"github.com/GriffinCanCode/minicc/pkg/diagnostics"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

const target = "c"

// floatEpsilon is ir.FloatEpsilon as a C literal
var floatEpsilon = ir.FormatFloat(ir.FloatEpsilon)

var errNilList = errors.New("cgen: nil instruction list")

// Kind is the C type a temp is declared with
type Kind int

const (
	IntKind Kind = iota
	DoubleKind
	StringKind
)

func (k Kind) String() string {
	switch k {
	case DoubleKind:
		return "double"
	case StringKind:
		return "const char *"
	}
	return "int"
}

// function is one func_begin/func_end range
type function struct {
	name  string
	insts []*ir.Instruction
	start int // Program-order index of insts[0]
}

// Generator writes C source
type Generator struct {
	w      io.Writer
	buf    *emit.Buffer
	diags  *diagnostics.Bag
	kinds  map[int]Kind
	vars   map[string]ir.DataType
	params []ir.Operand
	stats  emit.Stats
}

func NewGenerator(w io.Writer) *Generator {
	return &Generator{w: w, diags: diagnostics.NewBag(target)}
}

// Generate writes a C translation unit for l
func (g *Generator) Generate(l *ir.List) error {
	if l == nil {
		return errNilList
	}
	g.buf = emit.NewBuffer("    ")
	g.stats = emit.Stats{}

	g.buf.Line("// Auto-generated C code")
	g.buf.Blank()
	g.buf.Line("#include <stdio.h>")

	for _, fn := range g.split(l.Instructions()) {
		g.buf.Blank()
		g.generateFunction(fn)
	}

	g.stats.Instructions = g.buf.Count()
	logger.LogCodeGen(target, g.stats.Instructions)

	if g.w == nil {
		return nil
	}
	if _, err := g.buf.WriteTo(g.w); err != nil {
		return fmt.Errorf("write C source: %w", err)
	}
	return nil
}

// Text returns the source produced by the last Generate
func (g *Generator) Text() string {
	if g.buf == nil {
		return ""
	}
	return g.buf.String()
}

func (g *Generator) Diagnostics() []*diagnostics.Diagnostic { return g.diags.Diagnostics() }
func (g *Generator) Stats() emit.Stats                      { return g.stats }

// split groups instructions into functions. Anything outside a function
// becomes part of an implicit main.
func (g *Generator) split(insts []*ir.Instruction) []*function {
	var fns []*function
	var cur *function
	for pos, in := range insts {
		switch {
		case in.Opcode == ir.OpFuncBegin:
			cur = &function{name: in.Op1.Name, start: pos + 1}
			fns = append(fns, cur)
			continue
		case in.Opcode == ir.OpFuncEnd:
			cur = nil
			continue
		case cur == nil:
			g.diags.Warnf(pos, "instruction outside a function, placed in main")
			cur = &function{name: "main", start: pos}
			fns = append(fns, cur)
		}
		cur.insts = append(cur.insts, in)
	}
	return fns
}

// Classify assigns a C type to every temp defined in insts. Comparison and
// call results are int; a copy takes its source's kind.
func Classify(insts []*ir.Instruction) map[int]Kind {
	kinds := make(map[int]Kind)
	kindOf := func(op ir.Operand) Kind {
		switch op.Kind {
		case ir.StringOperand:
			return StringKind
		case ir.TempOperand:
			if k, ok := kinds[op.ID]; ok {
				return k
			}
		}
		if op.Type == ir.Float {
			return DoubleKind
		}
		return IntKind
	}

	for _, in := range insts {
		if in.Result.Kind != ir.TempOperand {
			continue
		}
		var k Kind
		switch in.Opcode {
		case ir.OpCall:
			k = IntKind
		case ir.OpBinOp:
			switch {
			case in.BinOp.IsComparison():
				k = IntKind
			case kindOf(in.Op1) == DoubleKind || kindOf(in.Op2) == DoubleKind:
				k = DoubleKind
			default:
				k = IntKind
			}
		case ir.OpConvert:
			k = kindOf(ir.Operand{Type: in.Result.Type})
		default:
			k = kindOf(in.Op1)
		}
		kinds[in.Result.ID] = k
	}
	return kinds
}

func (g *Generator) generateFunction(fn *function) {
	g.kinds = Classify(fn.insts)
	g.vars = make(map[string]ir.DataType)
	g.params = nil

	var varOrder []string
	note := func(op ir.Operand) {
		if op.Kind != ir.VarOperand {
			return
		}
		if _, ok := g.vars[op.Name]; !ok {
			g.vars[op.Name] = op.Type
			varOrder = append(varOrder, op.Name)
		}
	}
	var temps []int
	seen := make(map[int]bool)
	for _, in := range fn.insts {
		note(in.Result)
		note(in.Op1)
		note(in.Op2)
		if in.Result.Kind == ir.TempOperand && !seen[in.Result.ID] {
			seen[in.Result.ID] = true
			temps = append(temps, in.Result.ID)
		}
	}

	g.buf.Line("int %s(void) {", fn.name)
	for _, name := range varOrder {
		if g.vars[name] == ir.Float {
			g.buf.Inst("double %s = 0.0;", varName(name))
		} else {
			g.buf.Inst("int %s = 0;", varName(name))
		}
	}
	for _, id := range temps {
		switch g.kinds[id] {
		case StringKind:
			g.buf.Inst("const char *t%d = \"\";", id)
		case DoubleKind:
			g.buf.Inst("double t%d = 0.0;", id)
		default:
			g.buf.Inst("int t%d = 0;", id)
		}
	}
	if len(varOrder)+len(temps) > 0 {
		g.buf.Blank()
	}

	for i, in := range fn.insts {
		g.generateInst(fn.start+i, in)
	}
	g.buf.Inst("return 0;")
	g.buf.Line("}")
}

func (g *Generator) generateInst(pos int, in *ir.Instruction) {
	switch in.Opcode {
	case ir.OpLoad, ir.OpLoadConst, ir.OpAssign:
		g.buf.Inst("%s = %s;", g.operand(in.Result), g.operand(in.Op1))
	case ir.OpStore:
		g.buf.Inst("%s = %s;", varName(in.Result.Name), g.operand(in.Op1))
	case ir.OpConvert:
		typ := "int"
		if in.Result.Type == ir.Float {
			typ = "double"
		}
		g.buf.Inst("%s = (%s)%s;", g.operand(in.Result), typ, g.operand(in.Op1))
	case ir.OpBinOp:
		g.buf.Inst("%s = %s;", g.operand(in.Result), g.binary(in))
	case ir.OpLabel:
		g.buf.Line("%s: ;", in.Op1.Name)
	case ir.OpGoto:
		g.buf.Inst("goto %s;", in.Op1.Name)
	case ir.OpIfFalseGoto:
		g.buf.Inst("if (!%s) goto %s;", g.operand(in.Op1), in.Op2.Name)
	case ir.OpIfGoto:
		g.buf.Inst("if (%s) goto %s;", g.operand(in.Op1), in.Op2.Name)
	case ir.OpParam:
		g.params = append(g.params, in.Op1)
	case ir.OpCall:
		g.generateCall(pos, in)
	case ir.OpReturn:
		if in.Op1.IsNone() {
			g.buf.Inst("return 0;")
		} else {
			g.buf.Inst("return %s;", g.operand(in.Op1))
		}
	default:
		g.buf.Inst("/* unsupported: %s */", in.Opcode)
		g.diags.Warnf(pos, "unsupported instruction %s", in.Opcode)
	}
}

// binary renders the right-hand side of a BinOp. Division by zero yields 0
// and float equality uses floatEpsilon, matching the interpreter.
func (g *Generator) binary(in *ir.Instruction) string {
	l, r := g.operand(in.Op1), g.operand(in.Op2)
	double := g.kindOf(in.Op1) == DoubleKind || g.kindOf(in.Op2) == DoubleKind

	switch {
	case in.BinOp == ir.OpDiv && in.Op2.IsConst() && !in.Op2.IsZero():
		return fmt.Sprintf("%s / %s", l, r)
	case in.BinOp == ir.OpDiv:
		return fmt.Sprintf("%s != 0 ? %s / %s : 0", r, l, r)
	case double && in.BinOp == ir.OpEq:
		return fmt.Sprintf("(%s - %s < %s && %s - %s < %s)", l, r, floatEpsilon, r, l, floatEpsilon)
	case double && in.BinOp == ir.OpNe:
		return fmt.Sprintf("!(%s - %s < %s && %s - %s < %s)", l, r, floatEpsilon, r, l, floatEpsilon)
	}
	return fmt.Sprintf("%s %s %s", l, in.BinOp, r)
}

// generateCall rebuilds printf from the buffered params. With one to three
// params each argument is cast to the type its directive reads, so the
// compiled program prints what the interpreter prints; longer lists are
// passed through as is.
func (g *Generator) generateCall(pos int, in *ir.Instruction) {
	args := g.params
	g.params = nil

	lhs := ""
	if in.Result.Kind == ir.TempOperand {
		lhs = g.operand(in.Result) + " = "
	}

	if in.Op1.Name != "printf" {
		g.buf.Inst("%s0; /* call %s unsupported */", lhs, in.Op1.Name)
		g.diags.Warnf(pos, "call to %s is not supported in C output, result is 0", in.Op1.Name)
		return
	}
	if len(args) == 0 {
		g.buf.Inst("%s0; /* printf without arguments */", lhs)
		return
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = g.operand(arg)
	}
	if len(args) <= 3 && args[0].IsString() {
		directives := Directives(args[0].Name)
		for i := 1; i < len(args); i++ {
			if i-1 < len(directives) {
				parts[i] = g.cast(directives[i-1], args[i], parts[i])
			}
		}
	}
	g.buf.Inst("%sprintf(%s);", lhs, strings.Join(parts, ", "))
}

// cast converts a printf argument to what directive consumes
func (g *Generator) cast(directive byte, arg ir.Operand, text string) string {
	k := g.kindOf(arg)
	switch {
	case (directive == 'd' || directive == 'i') && k == DoubleKind:
		return "(int)" + text
	case directive == 'f' && k == IntKind:
		return "(double)" + text
	}
	return text
}

// Directives returns the conversion characters of format that consume an
// argument, in order
func Directives(format string) []byte {
	var out []byte
	for i := 0; i+1 < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if format[i] != '%' {
			out = append(out, format[i])
		}
	}
	return out
}

func (g *Generator) kindOf(op ir.Operand) Kind {
	switch op.Kind {
	case ir.StringOperand:
		return StringKind
	case ir.TempOperand:
		if k, ok := g.kinds[op.ID]; ok {
			return k
		}
	}
	if op.Type == ir.Float {
		return DoubleKind
	}
	return IntKind
}

// operand renders op as a C expression
func (g *Generator) operand(op ir.Operand) string {
	switch op.Kind {
	case ir.TempOperand:
		return fmt.Sprintf("t%d", op.ID)
	case ir.VarOperand:
		return varName(op.Name)
	case ir.StringOperand:
		return QuoteC(op.Name)
	case ir.ConstOperand:
		if op.Type == ir.Float {
			if op.Float < 0 {
				return "(" + ir.FormatFloat(op.Float) + ")"
			}
			return ir.FormatFloat(op.Float)
		}
		if op.Int < 0 {
			return "(" + strconv.FormatInt(op.Int, 10) + ")"
		}
		return strconv.FormatInt(op.Int, 10)
	}
	return "0"
}

// varName keeps source variables apart from temps and C identifiers
func varName(name string) string { return "v_" + name }

// QuoteC renders s as a C string literal. Octal escapes are always three
// digits so a following digit is never absorbed.
func QuoteC(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '?':
			// avoid trigraphs
			b.WriteString(`\?`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&b, "\\%03o", c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
