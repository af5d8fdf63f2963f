// Package amd64 implements x86-64 code generation.
//
// Design: Direct AT&T assembly for GNU as, one pass over the instruction
// list. Source variables live in .bss, temps in a fixed register pool
// released at the end of each temp's live interval. System V calling
// convention for printf. The x86-32 target reuses these forms.
package amd64

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/codegen/emit"
	"github.com/GriffinCanCode/minicc/pkg/codegen/regalloc"
	"github.com/GriffinCanCode/minicc/pkg/diagnostics"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// Target names accepted by NewGenerator
const (
	TargetX86_64 = "x86-64"
	TargetX86_32 = "x86-32"
)

// System V calling convention
var (
	// Argument registers (order matters)
	ArgRegs      = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}
	FloatArgRegs = []string{"%xmm0", "%xmm1", "%xmm2", "%xmm3", "%xmm4", "%xmm5", "%xmm6", "%xmm7"}
	// Return register
	RetReg = "%rax"
	// Callee-saved
	CalleeSaved = []string{"%rbx", "%r12", "%r13", "%r14", "%r15"}
)

// Emitter scratch registers, never handed out by the pool
const (
	scratchLeft   = "%xmm14"
	scratchRight  = "%xmm15"
	scratchInt    = "%rcx"
	scratchDivide = "%rdx"
)

var errNilList = errors.New("amd64: nil instruction list")

// StorageKind says where a named variable lives
type StorageKind int

const (
	Global StorageKind = iota
	Stack
)

// VarLocation records the placement of a source variable
type VarLocation struct {
	Name   string
	Type   ir.DataType
	Kind   StorageKind
	Symbol string
	Offset int // Frame offset below %rbp when Kind is Stack
}

// Operand returns the memory operand addressing the variable
func (v *VarLocation) Operand() string {
	if v.Kind == Stack {
		return fmt.Sprintf("-%d(%%rbp)", v.Offset)
	}
	return v.Symbol + "(%rip)"
}

// Generator generates x86-64 assembly
type Generator struct {
	w      io.Writer
	target string
	pool   *regalloc.Pool
	live   regalloc.Liveness
	expiry map[int][]int
	diags  *diagnostics.Bag

	text   *emit.Buffer // finished functions
	body   *emit.Buffer // current function body
	fn     string
	inFunc bool

	vars     map[string]*VarLocation
	varOrder []string
	strs     map[string]string
	strOrder []string
	floats   map[uint64]string
	fltOrder []float64
	params   []ir.Operand
	labelSeq int
	regsUsed map[string]bool
	stats    emit.Stats
}

// NewGenerator creates a generator writing to w. target is TargetX86_64
// or TargetX86_32; anything else is treated as x86-64.
func NewGenerator(w io.Writer, target string) *Generator {
	if target != TargetX86_32 {
		target = TargetX86_64
	}
	return &Generator{
		w:      w,
		target: target,
		pool:   regalloc.NewPool(regalloc.AMD64Config()),
		diags:  diagnostics.NewBag(target),
	}
}

func (g *Generator) reset() {
	g.pool.Reset()
	g.text = emit.NewBuffer("\t")
	g.body = emit.NewBuffer("\t")
	g.fn = ""
	g.inFunc = false
	g.vars = make(map[string]*VarLocation)
	g.varOrder = nil
	g.strs = make(map[string]string)
	g.strOrder = nil
	g.floats = make(map[uint64]string)
	g.fltOrder = nil
	g.params = nil
	g.labelSeq = 0
	g.regsUsed = make(map[string]bool)
	g.stats = emit.Stats{}
}

// Generate emits assembly for an instruction list
func (g *Generator) Generate(l *ir.List) error {
	if l == nil {
		return errNilList
	}
	insts := l.Instructions()
	logger.Debug("Generating amd64 assembly", "target", g.target, "instructions", len(insts))

	g.reset()
	g.live = regalloc.ComputeLiveness(insts)
	g.expiry = g.live.ExpiryIndex()

	for pos, in := range insts {
		if !g.inFunc && in.Opcode != ir.OpFuncBegin {
			g.diags.Warnf(pos, "instruction outside a function, opening main")
			g.beginFunction("main")
		}
		g.generateInst(pos, in)
		for _, id := range g.expiry[pos] {
			g.pool.Free(id)
		}
	}
	if g.inFunc {
		g.endFunction()
	}

	g.stats.Instructions = g.text.Count()
	g.stats.RegistersUsed = len(g.regsUsed)

	if err := g.writeFile(); err != nil {
		return fmt.Errorf("write %s assembly: %w", g.target, err)
	}
	logger.LogCodeGen(g.target, g.stats.Instructions)
	return nil
}

// GenerateWithValidation generates and validates assembly
func (g *Generator) GenerateWithValidation(l *ir.List) (string, error) {
	// Generate to a buffer first
	var buf strings.Builder
	out := g.w
	g.w = &buf
	defer func() { g.w = out }()

	if err := g.Generate(l); err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	assembly := buf.String()
	if err := ValidateProgram(assembly); err != nil {
		logger.Error("Assembly validation failed", "error", err)
		return assembly, fmt.Errorf("validation failed: %w", err)
	}

	if out != nil {
		if _, err := io.WriteString(out, assembly); err != nil {
			return assembly, err
		}
	}
	logger.Info("Assembly generated and validated successfully", "target", g.target)
	return assembly, nil
}

// Diagnostics returns warnings recorded by the last Generate
func (g *Generator) Diagnostics() []*diagnostics.Diagnostic { return g.diags.Diagnostics() }

// Stats returns statistics of the last Generate
func (g *Generator) Stats() emit.Stats { return g.stats }

// Variables returns the placement of every variable seen, in first-use order
func (g *Generator) Variables() []*VarLocation {
	out := make([]*VarLocation, 0, len(g.varOrder))
	for _, name := range g.varOrder {
		out = append(out, g.vars[name])
	}
	return out
}

func (g *Generator) writeFile() error {
	var out strings.Builder
	if g.target == TargetX86_32 {
		out.WriteString("# x86-32 target: emitted in x86-64 form\n")
	} else {
		out.WriteString("# x86-64 assembly\n")
	}

	if len(g.strOrder) > 0 || len(g.fltOrder) > 0 {
		out.WriteString("\t.section .rodata\n")
		for _, s := range g.strOrder {
			fmt.Fprintf(&out, "%s:\n\t.string %s\n", g.strs[s], quoteAsm(s))
		}
		if len(g.fltOrder) > 0 {
			out.WriteString("\t.align 8\n")
		}
		for _, f := range g.fltOrder {
			label := g.floats[math.Float64bits(f)]
			if math.IsInf(f, 0) || math.IsNaN(f) {
				fmt.Fprintf(&out, "%s:\n\t.quad 0x%016x\n", label, math.Float64bits(f))
			} else {
				fmt.Fprintf(&out, "%s:\n\t.double %s\n", label, ir.FormatFloat(f))
			}
		}
	}

	if len(g.varOrder) > 0 {
		out.WriteString("\t.bss\n")
		for _, v := range g.Variables() {
			if v.Kind == Global {
				fmt.Fprintf(&out, "\t.lcomm %s, 8\n", v.Symbol)
			}
		}
	}

	out.WriteString("\t.section .text\n")
	out.WriteString(g.text.String())
	out.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")

	if g.w == nil {
		return nil
	}
	_, err := io.WriteString(g.w, out.String())
	return err
}

func (g *Generator) beginFunction(name string) {
	logger.Debug("Generating function assembly", "arch", "amd64", "name", name)
	g.fn = name
	g.inFunc = true
	g.body = emit.NewBuffer("\t")
	g.pool.Reset()
	g.params = nil
}

// endFunction wraps the buffered body in a prologue that saves the
// callee-saved registers it used and keeps %rsp 16-byte aligned.
func (g *Generator) endFunction() {
	saved := g.pool.UsedCalleeSaved()
	for _, reg := range g.pool.Used() {
		g.regsUsed[reg] = true
	}
	pad := len(saved)%2 == 1

	t := g.text
	t.Line("\t.globl %s", g.fn)
	t.Line("\t.type %s, @function", g.fn)
	t.Line("%s:", g.fn)
	t.Inst("pushq %%rbp")
	t.Inst("movq %%rsp, %%rbp")
	for _, reg := range saved {
		t.Inst("pushq %s", reg)
	}
	if pad {
		t.Inst("subq $8, %%rsp")
	}

	t.Append(g.body)

	t.Inst("xorl %%eax, %%eax")
	t.Line(".Lret_%s:", g.fn)
	if pad {
		t.Inst("addq $8, %%rsp")
	}
	for i := len(saved) - 1; i >= 0; i-- {
		t.Inst("popq %s", saved[i])
	}
	t.Inst("leave")
	t.Inst("retq")
	t.Line("\t.size %s, .-%s", g.fn, g.fn)

	frame := 8 * (1 + len(saved))
	if pad {
		frame += 8
	}
	g.stats.StackBytes += frame
	g.inFunc = false
	g.body = emit.NewBuffer("\t")
}

// generateInst emits assembly for one instruction
func (g *Generator) generateInst(pos int, in *ir.Instruction) {
	switch in.Opcode {
	case ir.OpFuncBegin:
		if g.inFunc {
			g.endFunction()
		}
		g.beginFunction(in.Op1.Name)
	case ir.OpFuncEnd:
		g.endFunction()
	case ir.OpLabel:
		g.body.Line(".%s:", in.Op1.Name)
	case ir.OpGoto:
		g.body.Inst("jmp .%s", in.Op1.Name)
	case ir.OpIfGoto, ir.OpIfFalseGoto:
		g.generateBranch(pos, in)
	case ir.OpLoad, ir.OpLoadConst, ir.OpAssign:
		g.generateMove(pos, in)
	case ir.OpStore:
		g.generateStore(pos, in)
	case ir.OpConvert:
		g.generateConvert(pos, in)
	case ir.OpBinOp:
		g.generateBinOp(pos, in)
	case ir.OpParam:
		g.params = append(g.params, in.Op1)
	case ir.OpCall:
		g.generateCall(pos, in)
	case ir.OpReturn:
		g.generateReturn(pos, in)
	default:
		g.unsupported(pos, in)
	}
}

func (g *Generator) unsupported(pos int, in *ir.Instruction) {
	g.body.Line("\t# unsupported: %s", in)
	g.diags.Warnf(pos, "unsupported instruction %s", in)
}

// generateMove emits Load, LoadConst and Assign. A copy out of a temp that
// dies here just renames the register.
func (g *Generator) generateMove(pos int, in *ir.Instruction) {
	src := in.Op1
	if src.IsNone() || src.IsString() {
		g.unsupported(pos, in)
		return
	}
	if src.Kind == ir.TempOperand && g.live.EndsAt(src.ID, pos) {
		if _, ok := g.pool.Rebind(src.ID, in.Result.ID); ok {
			return
		}
	}

	if g.classOf(src) == regalloc.Float {
		loc, ok := g.floatSrc(pos, src, scratchRight)
		if !ok {
			return
		}
		dst, ok := g.define(pos, in.Result, regalloc.Float)
		if !ok {
			return
		}
		g.body.Inst("movsd %s, %s", loc, dst)
		return
	}

	loc, ok := g.intSrc(pos, src, scratchInt)
	if !ok {
		return
	}
	dst, ok := g.define(pos, in.Result, regalloc.General)
	if !ok {
		return
	}
	g.body.Inst("movq %s, %s", loc, dst)
}

// generateStore writes a value to a variable, converting when the value's
// register class differs from the variable's type
func (g *Generator) generateStore(pos int, in *ir.Instruction) {
	if in.Result.Kind != ir.VarOperand || in.Op1.IsNone() || in.Op1.IsString() {
		g.unsupported(pos, in)
		return
	}
	mem := g.variable(in.Result).Operand()

	if in.Result.Type == ir.Float {
		src, ok := g.floatSrc(pos, in.Op1, scratchRight)
		if !ok {
			return
		}
		if isMemory(src) {
			g.body.Inst("movsd %s, %s", src, scratchRight)
			src = scratchRight
		}
		g.body.Inst("movsd %s, %s", src, mem)
		return
	}

	src, ok := g.intSrc(pos, in.Op1, scratchInt)
	if !ok {
		return
	}
	if isMemory(src) {
		g.body.Inst("movq %s, %s", src, scratchInt)
		src = scratchInt
	}
	g.body.Inst("movq %s, %s", src, mem)
}

func (g *Generator) generateConvert(pos int, in *ir.Instruction) {
	src := in.Op1
	if src.IsNone() || src.IsString() {
		g.unsupported(pos, in)
		return
	}

	if in.Result.Type == ir.Float {
		if src.IsConst() {
			g.generateMove(pos, &ir.Instruction{Opcode: ir.OpAssign, Result: in.Result, Op1: ir.FloatConst(src.AsFloat())})
			return
		}
		if g.classOf(src) == regalloc.Float {
			g.generateMove(pos, &ir.Instruction{Opcode: ir.OpAssign, Result: in.Result, Op1: src})
			return
		}
		loc, ok := g.intSrc(pos, src, scratchInt)
		if !ok {
			return
		}
		dst, ok := g.define(pos, in.Result, regalloc.Float)
		if !ok {
			return
		}
		g.body.Inst("cvtsi2sdq %s, %s", loc, dst)
		return
	}

	if src.IsConst() {
		g.generateMove(pos, &ir.Instruction{Opcode: ir.OpAssign, Result: in.Result, Op1: ir.IntConst(int64(src.AsFloat()))})
		return
	}
	if g.classOf(src) == regalloc.General {
		g.generateMove(pos, &ir.Instruction{Opcode: ir.OpAssign, Result: in.Result, Op1: src})
		return
	}
	loc, ok := g.floatSrc(pos, src, scratchRight)
	if !ok {
		return
	}
	dst, ok := g.define(pos, in.Result, regalloc.General)
	if !ok {
		return
	}
	g.body.Inst("cvttsd2siq %s, %s", loc, dst)
}

// generateBinOp selects integer or scalar-double forms from the operands'
// register classes. Comparisons always produce an integer 0 or 1.
func (g *Generator) generateBinOp(pos int, in *ir.Instruction) {
	if in.Op1.IsString() || in.Op2.IsString() || in.Op1.IsNone() || in.Op2.IsNone() {
		g.unsupported(pos, in)
		return
	}
	floatOp := g.classOf(in.Op1) == regalloc.Float || g.classOf(in.Op2) == regalloc.Float

	switch {
	case in.BinOp.IsComparison() && floatOp:
		g.floatCompare(pos, in)
	case in.BinOp.IsComparison():
		g.intCompare(pos, in)
	case in.BinOp == ir.OpDiv && floatOp:
		g.floatDivide(pos, in)
	case in.BinOp == ir.OpDiv:
		g.intDivide(pos, in)
	case floatOp:
		g.floatArith(pos, in)
	default:
		g.intArith(pos, in)
	}
}

var intMnemonic = map[ir.Op]string{ir.OpAdd: "addq", ir.OpSub: "subq", ir.OpMul: "imulq"}

var floatMnemonic = map[ir.Op]string{ir.OpAdd: "addsd", ir.OpSub: "subsd", ir.OpMul: "mulsd"}

func (g *Generator) intArith(pos int, in *ir.Instruction) {
	left, ok := g.intSrc(pos, in.Op1, "%rax")
	if !ok {
		return
	}
	right, ok := g.intSrc(pos, in.Op2, scratchInt)
	if !ok {
		return
	}
	dst, ok := g.defineReusing(pos, in.Result, in.Op1, regalloc.General)
	if !ok {
		return
	}
	if left != dst {
		g.body.Inst("movq %s, %s", left, dst)
	}
	g.body.Inst("%s %s, %s", intMnemonic[in.BinOp], right, dst)
}

// intDivide guards the divisor so division by zero yields 0 like the
// interpreter instead of trapping
func (g *Generator) intDivide(pos int, in *ir.Instruction) {
	right, ok := g.intSrc(pos, in.Op2, scratchInt)
	if !ok {
		return
	}
	left, ok := g.intSrc(pos, in.Op1, scratchDivide)
	if !ok {
		return
	}
	dst, ok := g.defineReusing(pos, in.Result, in.Op1, regalloc.General)
	if !ok {
		return
	}
	skip := g.newLabel("div")
	if right != scratchInt {
		g.body.Inst("movq %s, %s", right, scratchInt)
	}
	g.body.Inst("xorl %%eax, %%eax")
	g.body.Inst("testq %s, %s", scratchInt, scratchInt)
	g.body.Inst("jz %s", skip)
	if left != "%rax" {
		g.body.Inst("movq %s, %%rax", left)
	}
	g.body.Inst("cqto")
	g.body.Inst("idivq %s", scratchInt)
	g.body.Line("%s:", skip)
	g.body.Inst("movq %%rax, %s", dst)
}

var intSetcc = map[ir.Op]string{
	ir.OpEq: "sete", ir.OpNe: "setne", ir.OpLt: "setl",
	ir.OpGt: "setg", ir.OpLe: "setle", ir.OpGe: "setge",
}

func (g *Generator) intCompare(pos int, in *ir.Instruction) {
	left, ok := g.intSrc(pos, in.Op1, scratchInt)
	if !ok {
		return
	}
	if left != scratchInt {
		g.body.Inst("movq %s, %s", left, scratchInt)
	}
	right, ok := g.intSrc(pos, in.Op2, scratchDivide)
	if !ok {
		return
	}
	dst, ok := g.defineReusing(pos, in.Result, in.Op1, regalloc.General)
	if !ok {
		return
	}
	g.body.Inst("cmpq %s, %s", right, scratchInt)
	g.body.Inst("%s %%al", intSetcc[in.BinOp])
	g.body.Inst("movzbq %%al, %s", dst)
}

// ucomisd sets the carry flag, so ordered float tests use the unsigned
// condition codes
var floatSetcc = map[ir.Op]string{
	ir.OpLt: "setb", ir.OpGt: "seta", ir.OpLe: "setbe", ir.OpGe: "setae",
}

// floatCompare tests == and != within ir.FloatEpsilon
func (g *Generator) floatCompare(pos int, in *ir.Instruction) {
	left, ok := g.floatSrc(pos, in.Op1, scratchLeft)
	if !ok {
		return
	}
	if left != scratchLeft {
		g.body.Inst("movsd %s, %s", left, scratchLeft)
	}
	right, ok := g.floatSrc(pos, in.Op2, scratchRight)
	if !ok {
		return
	}
	dst, ok := g.define(pos, in.Result, regalloc.General)
	if !ok {
		return
	}

	switch in.BinOp {
	case ir.OpEq, ir.OpNe:
		g.body.Inst("subsd %s, %s", right, scratchLeft)
		g.body.Inst("ucomisd %s, %s", g.floatConst(ir.FloatEpsilon), scratchLeft)
		g.body.Inst("setb %%al")
		g.body.Inst("ucomisd %s, %s", g.floatConst(-ir.FloatEpsilon), scratchLeft)
		g.body.Inst("seta %%cl")
		g.body.Inst("andb %%cl, %%al")
		if in.BinOp == ir.OpNe {
			g.body.Inst("xorb $1, %%al")
		}
	default:
		g.body.Inst("ucomisd %s, %s", right, scratchLeft)
		g.body.Inst("%s %%al", floatSetcc[in.BinOp])
	}
	g.body.Inst("movzbq %%al, %s", dst)
}

func (g *Generator) floatArith(pos int, in *ir.Instruction) {
	left, ok := g.floatSrc(pos, in.Op1, scratchLeft)
	if !ok {
		return
	}
	right, ok := g.floatSrc(pos, in.Op2, scratchRight)
	if !ok {
		return
	}
	dst, ok := g.defineReusing(pos, in.Result, in.Op1, regalloc.Float)
	if !ok {
		return
	}
	if left != dst {
		g.body.Inst("movsd %s, %s", left, dst)
	}
	g.body.Inst("%s %s, %s", floatMnemonic[in.BinOp], right, dst)
}

// floatDivide yields 0.0 for a zero divisor. A NaN divisor still divides.
func (g *Generator) floatDivide(pos int, in *ir.Instruction) {
	left, ok := g.floatSrc(pos, in.Op1, scratchLeft)
	if !ok {
		return
	}
	right, ok := g.floatSrc(pos, in.Op2, scratchRight)
	if !ok {
		return
	}
	dst, ok := g.defineReusing(pos, in.Result, in.Op1, regalloc.Float)
	if !ok {
		return
	}
	if right != scratchRight {
		g.body.Inst("movsd %s, %s", right, scratchRight)
	}
	if left != scratchLeft {
		g.body.Inst("movsd %s, %s", left, scratchLeft)
	}
	skip := g.newLabel("div")
	g.body.Inst("divsd %s, %s", scratchRight, scratchLeft)
	g.body.Inst("ucomisd %s, %s", g.floatConst(0), scratchRight)
	g.body.Inst("jp %s", skip)
	g.body.Inst("jne %s", skip)
	g.body.Inst("pxor %s, %s", scratchLeft, scratchLeft)
	g.body.Line("%s:", skip)
	g.body.Inst("movsd %s, %s", scratchLeft, dst)
}

// generateBranch emits IfGoto and IfFalseGoto. A constant condition
// becomes an unconditional jump or nothing.
func (g *Generator) generateBranch(pos int, in *ir.Instruction) {
	target := "." + in.Op2.Name
	onTrue := in.Opcode == ir.OpIfGoto
	cond := in.Op1

	if cond.IsConst() {
		if !cond.IsZero() == onTrue {
			g.body.Inst("jmp %s", target)
		}
		return
	}
	if cond.IsNone() || cond.IsString() {
		g.unsupported(pos, in)
		return
	}

	if g.classOf(cond) == regalloc.Float {
		src, ok := g.floatSrc(pos, cond, scratchRight)
		if !ok {
			return
		}
		g.body.Inst("pxor %s, %s", scratchLeft, scratchLeft)
		g.body.Inst("ucomisd %s, %s", src, scratchLeft)
		if onTrue {
			g.body.Inst("jp %s", target)
			g.body.Inst("jne %s", target)
			return
		}
		skip := g.newLabel("br")
		g.body.Inst("jp %s", skip)
		g.body.Inst("je %s", target)
		g.body.Line("%s:", skip)
		return
	}

	src, ok := g.intSrc(pos, cond, scratchInt)
	if !ok {
		return
	}
	if isMemory(src) {
		g.body.Inst("cmpq $0, %s", src)
	} else {
		g.body.Inst("testq %s, %s", src, src)
	}
	if onTrue {
		g.body.Inst("jnz %s", target)
	} else {
		g.body.Inst("jz %s", target)
	}
}

// generateReturn leaves the value in %rax and jumps to the epilogue
func (g *Generator) generateReturn(pos int, in *ir.Instruction) {
	val := in.Op1
	switch {
	case val.IsNone():
	case val.IsString():
		g.unsupported(pos, in)
		return
	case g.classOf(val) == regalloc.Float:
		src, ok := g.floatSrc(pos, val, scratchRight)
		if !ok {
			return
		}
		g.body.Inst("cvttsd2siq %s, %s", src, RetReg)
	default:
		src, ok := g.intSrc(pos, val, RetReg)
		if !ok {
			return
		}
		if src != RetReg {
			g.body.Inst("movq %s, %s", src, RetReg)
		}
	}
	g.body.Inst("jmp .Lret_%s", g.fn)
}

// generateCall emits printf with the buffered params in System V argument
// registers. Caller-saved registers holding a value live across the call are
// saved around it; general ones holding an argument are saved too, and the
// argument is read back from its slot so filling the argument registers
// cannot clobber it. Other callees are not supported.
func (g *Generator) generateCall(pos int, in *ir.Instruction) {
	args := g.params
	g.params = nil
	callee := in.Op1.Name
	keep := in.Result.Kind == ir.TempOperand && g.live.LiveAfter(in.Result.ID, pos)

	if callee != "printf" {
		g.body.Line("\t# call %s unsupported", callee)
		g.diags.Warnf(pos, "call to %s is not supported on %s, result is 0", callee, g.target)
		if keep {
			if dst, ok := g.define(pos, in.Result, regalloc.General); ok {
				g.body.Inst("movq $0, %s", dst)
			}
		}
		return
	}

	var gp, fp int
	for _, arg := range args {
		if !arg.IsString() && g.classOf(arg) == regalloc.Float {
			fp++
		} else {
			gp++
		}
	}
	if gp > len(ArgRegs) || fp > len(FloatArgRegs) {
		g.diags.Warnf(pos, "printf with %d arguments does not fit in registers, call skipped", len(args))
		return
	}

	var saved []regalloc.Binding
	slots := make(map[string]string)
	for _, b := range g.pool.CallerSavedBound() {
		isArg := b.Class == regalloc.General && readsTemp(args, b.Temp)
		if isArg || g.live.LiveAfter(b.Temp, pos) {
			slots[b.Reg] = stackSlot(len(saved))
			saved = append(saved, b)
		}
	}
	frame := 16 * len(saved)
	if frame > 0 {
		g.body.Inst("subq $%d, %%rsp", frame)
		for _, b := range saved {
			g.body.Inst("%s %s, %s", moveFor(b.Class), b.Reg, slots[b.Reg])
		}
	}

	gp, fp = 0, 0
	for _, arg := range args {
		switch {
		case arg.IsString():
			g.body.Inst("leaq %s(%%rip), %s", g.stringLabel(arg.Name), ArgRegs[gp])
			gp++
		case g.classOf(arg) == regalloc.Float:
			src, ok := g.floatSrc(pos, arg, scratchRight)
			if !ok {
				return
			}
			g.body.Inst("movsd %s, %s", src, FloatArgRegs[fp])
			fp++
		default:
			src, ok := g.intSrc(pos, arg, "%rax")
			if !ok {
				return
			}
			if slot, spilled := slots[src]; spilled {
				src = slot
			}
			g.body.Inst("movq %s, %s", src, ArgRegs[gp])
			gp++
		}
	}
	g.body.Inst("movl $%d, %%eax", fp)
	g.body.Inst("callq printf@PLT")

	if frame > 0 {
		for _, b := range saved {
			g.body.Inst("%s %s, %s", moveFor(b.Class), slots[b.Reg], b.Reg)
		}
		g.body.Inst("addq $%d, %%rsp", frame)
	}
	if keep {
		dst, ok := g.define(pos, in.Result, regalloc.General)
		if !ok {
			return
		}
		g.body.Inst("cltq")
		g.body.Inst("movq %%rax, %s", dst)
	}
}

func readsTemp(args []ir.Operand, temp int) bool {
	for _, arg := range args {
		if arg.IsTemp(temp) {
			return true
		}
	}
	return false
}

func moveFor(class regalloc.Class) string {
	if class == regalloc.Float {
		return "movsd"
	}
	return "movq"
}

func stackSlot(i int) string {
	if i == 0 {
		return "(%rsp)"
	}
	return fmt.Sprintf("%d(%%rsp)", 16*i)
}

// classOf returns the register class an operand's value occupies. A bound
// temp answers from its register, so comparison results typed float in the
// IR still read as integers.
func (g *Generator) classOf(op ir.Operand) regalloc.Class {
	if op.Kind == ir.TempOperand {
		if c, ok := g.pool.ClassOfTemp(op.ID); ok {
			return c
		}
	}
	return regalloc.ClassOf(op.Type)
}

// define binds a register for result, reporting exhaustion as a warning
func (g *Generator) define(pos int, result ir.Operand, class regalloc.Class) (string, bool) {
	reg, ok := g.pool.Allocate(result.ID, class)
	if !ok {
		g.diags.Warnf(pos, "no %s register free for t%d, instruction skipped", class, result.ID)
		logger.LogRegisterExhausted(g.target, result.ID)
	}
	return reg, ok
}

// defineReusing hands src's register to result when src dies here
func (g *Generator) defineReusing(pos int, result, src ir.Operand, class regalloc.Class) (string, bool) {
	if src.Kind == ir.TempOperand && src.ID != result.ID && g.live.EndsAt(src.ID, pos) {
		if c, ok := g.pool.ClassOfTemp(src.ID); ok && c == class {
			return g.pool.Rebind(src.ID, result.ID)
		}
	}
	return g.define(pos, result, class)
}

// tempReg returns the register of a temp. A temp whose definition was
// skipped has none and the reading instruction is skipped too.
func (g *Generator) tempReg(pos int, op ir.Operand) (string, bool) {
	reg, ok := g.pool.Lookup(op.ID)
	if !ok {
		g.diags.Warnf(pos, "t%d has no register, instruction skipped", op.ID)
	}
	return reg, ok
}

// intSrc returns an operand usable as a general-purpose source: a register,
// a memory reference or a 32-bit immediate. Conversions and wide constants
// go through scratch.
func (g *Generator) intSrc(pos int, op ir.Operand, scratch string) (string, bool) {
	switch op.Kind {
	case ir.ConstOperand:
		v := op.Int
		if op.Type == ir.Float {
			v = int64(op.Float)
		}
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return fmt.Sprintf("$%d", v), true
		}
		g.body.Inst("movabsq $%d, %s", v, scratch)
		return scratch, true
	case ir.VarOperand:
		loc := g.variable(op)
		if loc.Type == ir.Float {
			g.body.Inst("cvttsd2siq %s, %s", loc.Operand(), scratch)
			return scratch, true
		}
		return loc.Operand(), true
	case ir.TempOperand:
		reg, ok := g.tempReg(pos, op)
		if !ok {
			return "", false
		}
		if g.classOf(op) == regalloc.Float {
			g.body.Inst("cvttsd2siq %s, %s", reg, scratch)
			return scratch, true
		}
		return reg, true
	}
	g.diags.Warnf(pos, "operand %s cannot be used as an integer", op)
	return "", false
}

// floatSrc returns an xmm register or memory reference holding op as a
// double. Constants come from .rodata; integers convert through scratch.
func (g *Generator) floatSrc(pos int, op ir.Operand, scratch string) (string, bool) {
	switch op.Kind {
	case ir.ConstOperand:
		return g.floatConst(op.AsFloat()), true
	case ir.VarOperand:
		loc := g.variable(op)
		if loc.Type != ir.Float {
			g.body.Inst("cvtsi2sdq %s, %s", loc.Operand(), scratch)
			return scratch, true
		}
		return loc.Operand(), true
	case ir.TempOperand:
		reg, ok := g.tempReg(pos, op)
		if !ok {
			return "", false
		}
		if g.classOf(op) == regalloc.General {
			g.body.Inst("cvtsi2sdq %s, %s", reg, scratch)
			return scratch, true
		}
		return reg, true
	}
	g.diags.Warnf(pos, "operand %s cannot be used as a float", op)
	return "", false
}

// variable returns the location of a named variable, placing it in .bss on
// first use
func (g *Generator) variable(op ir.Operand) *VarLocation {
	if loc, ok := g.vars[op.Name]; ok {
		return loc
	}
	loc := &VarLocation{
		Name:   op.Name,
		Type:   op.Type,
		Kind:   Global,
		Symbol: "v_" + op.Name,
	}
	g.vars[op.Name] = loc
	g.varOrder = append(g.varOrder, op.Name)
	return loc
}

func (g *Generator) stringLabel(s string) string {
	if label, ok := g.strs[s]; ok {
		return label
	}
	label := fmt.Sprintf(".LC%d", len(g.strOrder))
	g.strs[s] = label
	g.strOrder = append(g.strOrder, s)
	return label
}

// floatConst returns a rip-relative reference to v in .rodata
func (g *Generator) floatConst(v float64) string {
	bits := math.Float64bits(v)
	if label, ok := g.floats[bits]; ok {
		return label + "(%rip)"
	}
	label := fmt.Sprintf(".LF%d", len(g.fltOrder))
	g.floats[bits] = label
	g.fltOrder = append(g.fltOrder, v)
	return label + "(%rip)"
}

func (g *Generator) newLabel(kind string) string {
	g.labelSeq++
	return fmt.Sprintf(".L%s%d", kind, g.labelSeq)
}

func isMemory(operand string) bool {
	return strings.Contains(operand, "(")
}

// quoteAsm renders s as a GNU as string literal
func quoteAsm(s string) string {
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
