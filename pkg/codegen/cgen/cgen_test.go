package cgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/ir"
)

func generate(t *testing.T, l *ir.List) (*Generator, string) {
	t.Helper()
	var buf bytes.Buffer
	gen := NewGenerator(&buf)
	if err := gen.Generate(l); err != nil {
		t.Fatal(err)
	}
	return gen, buf.String()
}

func mainFunction(body ...ir.Instruction) *ir.List {
	l := ir.NewList()
	l.Append(ir.Instruction{Opcode: ir.OpFuncBegin, Op1: ir.Func("main")})
	for _, in := range body {
		l.Append(in)
	}
	l.Append(ir.Instruction{Opcode: ir.OpFuncEnd, Op1: ir.Func("main")})
	return l
}

func expectAll(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestBranchSample(t *testing.T) {
	prog, _ := ast.Sample("branch")
	gen, out := generate(t, ir.Generate(prog))

	expectAll(t, out,
		"// Auto-generated C code\n\n#include <stdio.h>\n",
		"int main(void) {\n",
		"    int v_x = 0;\n",
		"    double v_y = 0.0;\n",
		"    v_x = 10;\n",
		"    v_y = 5.5;\n",
		" > 40.0;\n",
		"    if (!t",
		") goto L1;\n",
		` = printf("big");`,
		"    goto L2;\n",
		"L1: ;\n",
		"    return 0;\n}\n",
	)
	if len(gen.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", gen.Diagnostics())
	}
	if gen.Stats().Instructions == 0 {
		t.Error("no statements counted")
	}
}

func TestBinary(t *testing.T) {
	tests := []struct {
		name string
		op   ir.Op
		typ  ir.DataType
		r    ir.Operand
		want string
	}{
		{"add", ir.OpAdd, ir.Int, ir.Temp(2, ir.Int), "t3 = t1 + t2;"},
		{"negative constant", ir.OpSub, ir.Int, ir.IntConst(-4), "t3 = t1 - (-4);"},
		{"guarded division", ir.OpDiv, ir.Int, ir.Temp(2, ir.Int), "t3 = t2 != 0 ? t1 / t2 : 0;"},
		{"constant divisor", ir.OpDiv, ir.Int, ir.IntConst(2), "t3 = t1 / 2;"},
		{"zero divisor", ir.OpDiv, ir.Int, ir.IntConst(0), "t3 = 0 != 0 ? t1 / 0 : 0;"},
		{"int equality", ir.OpEq, ir.Int, ir.Temp(2, ir.Int), "t3 = t1 == t2;"},
		{"float equality", ir.OpEq, ir.Float, ir.Temp(2, ir.Float), "t3 = (t1 - t2 < 1e-06 && t2 - t1 < 1e-06);"},
		{"float inequality", ir.OpNe, ir.Float, ir.Temp(2, ir.Float), "t3 = !(t1 - t2 < 1e-06 && t2 - t1 < 1e-06);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resultType := tt.typ
			if tt.op.IsComparison() {
				resultType = ir.Int
			}
			l := mainFunction(
				ir.Instruction{Opcode: ir.OpLoad, Result: ir.Temp(1, tt.typ), Op1: ir.Var("a", tt.typ)},
				ir.Instruction{Opcode: ir.OpLoad, Result: ir.Temp(2, tt.typ), Op1: ir.Var("b", tt.typ)},
				ir.Instruction{Opcode: ir.OpBinOp, BinOp: tt.op, Result: ir.Temp(3, resultType), Op1: ir.Temp(1, tt.typ), Op2: tt.r},
				ir.Instruction{Opcode: ir.OpReturn, Op1: ir.Temp(3, resultType)},
			)
			_, out := generate(t, l)
			expectAll(t, out, tt.want, "return t3;")
		})
	}
}

func TestClassify(t *testing.T) {
	insts := []*ir.Instruction{
		{Opcode: ir.OpLoad, Result: ir.Temp(1, ir.Int), Op1: ir.Var("n", ir.Int)},
		{Opcode: ir.OpLoadConst, Result: ir.Temp(2, ir.Float), Op1: ir.FloatConst(1.5)},
		{Opcode: ir.OpBinOp, BinOp: ir.OpMul, Result: ir.Temp(3, ir.Float), Op1: ir.Temp(1, ir.Int), Op2: ir.Temp(2, ir.Float)},
		{Opcode: ir.OpBinOp, BinOp: ir.OpLt, Result: ir.Temp(4, ir.Float), Op1: ir.Temp(3, ir.Float), Op2: ir.FloatConst(2)},
		{Opcode: ir.OpAssign, Result: ir.Temp(5, ir.Int), Op1: ir.StringLit("s")},
		{Opcode: ir.OpConvert, Result: ir.Temp(6, ir.Int), Op1: ir.Temp(3, ir.Float)},
		{Opcode: ir.OpCall, Result: ir.Temp(7, ir.Int), Op1: ir.Func("printf")},
	}
	want := map[int]Kind{1: IntKind, 2: DoubleKind, 3: DoubleKind, 4: IntKind, 5: StringKind, 6: IntKind, 7: IntKind}
	got := Classify(insts)
	for id, k := range want {
		if got[id] != k {
			t.Errorf("t%d: got %s, want %s", id, got[id], k)
		}
	}
}

func TestPrintf(t *testing.T) {
	l := mainFunction(
		ir.Instruction{Opcode: ir.OpLoad, Result: ir.Temp(1, ir.Float), Op1: ir.Var("f", ir.Float)},
		ir.Instruction{Opcode: ir.OpLoad, Result: ir.Temp(2, ir.Int), Op1: ir.Var("n", ir.Int)},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.StringLit("%d %f\n")},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.Temp(1, ir.Float)},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.Temp(2, ir.Int)},
		ir.Instruction{Opcode: ir.OpCall, Result: ir.Temp(3, ir.Int), Op1: ir.Func("printf")},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.StringLit("done")},
		ir.Instruction{Opcode: ir.OpCall, Op1: ir.Func("printf")},
	)
	gen, out := generate(t, l)
	expectAll(t, out,
		`t3 = printf("%d %f\n", (int)t1, (double)t2);`,
		`    printf("done");`,
	)
	if len(gen.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", gen.Diagnostics())
	}
}

func TestNestedPrintf(t *testing.T) {
	prog, _ := ast.Sample("calls")
	_, out := generate(t, ir.Generate(prog))

	inner := strings.Index(out, ` = printf("x");`)
	outer := strings.Index(out, ` = printf("%d %d\n", `)
	if inner < 0 || outer < 0 || inner > outer {
		t.Errorf("inner printf must be its own call before the outer one:\n%s", out)
	}
}

func TestUnsupportedCall(t *testing.T) {
	l := mainFunction(
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.IntConst(1)},
		ir.Instruction{Opcode: ir.OpCall, Result: ir.Temp(1, ir.Int), Op1: ir.Func("puts")},
	)
	gen, out := generate(t, l)
	expectAll(t, out, "t1 = 0; /* call puts unsupported */")
	if len(gen.Diagnostics()) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", gen.Diagnostics())
	}
}

func TestOutsideFunction(t *testing.T) {
	l := ir.NewList()
	l.Append(ir.Instruction{Opcode: ir.OpStore, Result: ir.Var("x", ir.Int), Op1: ir.IntConst(3)})
	l.Append(ir.Instruction{Opcode: ir.OpReturn, Op1: ir.Var("x", ir.Int)})

	gen, out := generate(t, l)
	expectAll(t, out, "int main(void) {\n", "    v_x = 3;\n", "    return v_x;\n")
	if len(gen.Diagnostics()) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", gen.Diagnostics())
	}
}

func TestVariablesDoNotCollide(t *testing.T) {
	l := mainFunction(
		ir.Instruction{Opcode: ir.OpStore, Result: ir.Var("t1", ir.Int), Op1: ir.IntConst(4)},
		ir.Instruction{Opcode: ir.OpStore, Result: ir.Var("printf", ir.Float), Op1: ir.FloatConst(1)},
		ir.Instruction{Opcode: ir.OpLoad, Result: ir.Temp(1, ir.Int), Op1: ir.Var("t1", ir.Int)},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.StringLit("%d")},
		ir.Instruction{Opcode: ir.OpParam, Op1: ir.Temp(1, ir.Int)},
		ir.Instruction{Opcode: ir.OpCall, Op1: ir.Func("printf")},
		ir.Instruction{Opcode: ir.OpReturn, Op1: ir.Var("t1", ir.Int)},
	)
	_, out := generate(t, l)
	expectAll(t, out,
		"    int v_t1 = 0;\n",
		"    double v_printf = 0.0;\n",
		"    int t1 = 0;\n",
		"    t1 = v_t1;\n",
		`    printf("%d", t1);`,
		"    return v_t1;\n",
	)
}

func TestDirectives(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"%d", "d"},
		{"100%% %f and %s", "fs"},
		{"%", ""},
		{"%i%x", "ix"},
		{"plain", ""},
	}
	for _, tt := range tests {
		if got := string(Directives(tt.format)); got != tt.want {
			t.Errorf("Directives(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestQuoteC(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hi", `"hi"`},
		{"a\"b\\c\n", `"a\"b\\c\n"`},
		{"??=", `"\?\?="`},
		{"\x01" + "7", `"\0017"`},
		{"\xff", `"\377"`},
	}
	for _, tt := range tests {
		if got := QuoteC(tt.in); got != tt.want {
			t.Errorf("QuoteC(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNilList(t *testing.T) {
	if err := NewGenerator(nil).Generate(nil); err == nil {
		t.Error("expected an error for a nil list")
	}
}
