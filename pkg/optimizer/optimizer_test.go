package optimizer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/interp"
	"github.com/GriffinCanCode/minicc/pkg/ir"
)

func sampleList(t *testing.T, name string) *ir.List {
	t.Helper()
	prog, ok := ast.Sample(name)
	if !ok {
		t.Fatalf("no sample %q", name)
	}
	return ir.Generate(prog)
}

func execute(t *testing.T, l *ir.List) (string, interp.Value) {
	t.Helper()
	var out, errOut bytes.Buffer
	res, err := interp.Execute(l, interp.Options{Stdout: &out, Stderr: &errOut, MaxSteps: 100000})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return out.String(), res.Return
}

func TestLevelConfig(t *testing.T) {
	tests := []struct {
		level int
		want  []Pass
	}{
		{0, nil},
		{1, []Pass{PassConstantFolding, PassConstantPropagation, PassAlgebraicSimplification}},
		{2, []Pass{PassConstantFolding, PassConstantPropagation, PassAlgebraicSimplification,
			PassCopyPropagation, PassDeadCodeElimination}},
		{3, []Pass{PassConstantFolding, PassConstantPropagation, PassAlgebraicSimplification,
			PassCopyPropagation, PassDeadCodeElimination, PassCommonSubexpression}},
	}

	for _, tt := range tests {
		cfg, err := LevelConfig(tt.level)
		if err != nil {
			t.Fatalf("level %d: %v", tt.level, err)
		}
		want := map[Pass]bool{}
		for _, p := range tt.want {
			want[p] = true
		}
		for p := Pass(0); p < passCount; p++ {
			if cfg.Enabled(p) != want[p] {
				t.Errorf("level %d: %s enabled = %v", tt.level, p, cfg.Enabled(p))
			}
		}
		if cfg.MaxIterations != DefaultMaxIterations {
			t.Errorf("level %d: MaxIterations = %d", tt.level, cfg.MaxIterations)
		}
	}

	for _, bad := range []int{-1, 4} {
		if _, err := LevelConfig(bad); !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("LevelConfig(%d) err = %v, want ErrInvalidLevel", bad, err)
		}
		if _, err := Optimize(ir.NewList(), bad); !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("Optimize(%d) err = %v, want ErrInvalidLevel", bad, err)
		}
	}
}

func TestLevelZeroIsPassThrough(t *testing.T) {
	l := sampleList(t, "branch")
	before := ir.Format(l)

	stats, err := Optimize(l, 0)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Changed() || stats.Iterations != 0 {
		t.Errorf("level 0 changed something: %+v", stats)
	}
	if after := ir.Format(l); after != before {
		t.Errorf("listing changed:\n%s\nwant:\n%s", after, before)
	}
}

// comparisonPrograms compare values that folding can evaluate, including
// floats that are equal only within the comparison tolerance
var comparisonPrograms = map[string]func() *ast.FuncDef{
	"float-eq-near": func() *ast.FuncDef {
		return ast.Func("main", "int",
			ast.VarInit("float", "a", ast.Float(0.1)),
			ast.VarInit("float", "b", ast.Float(0.2)),
			ast.IfElse(ast.Bin(ast.Eq, ast.Bin(ast.Add, ast.Name("a"), ast.Name("b")), ast.Float(0.3)),
				ast.Printf("eq"), ast.Printf("ne")),
			ast.IfElse(ast.Bin(ast.Ne, ast.Float(1.0), ast.Float(1.0000001)),
				ast.Printf(" NE"), ast.Printf(" EQ")),
			ast.Ret(ast.Int(0)),
		)
	},
	"float-ne-apart": func() *ast.FuncDef {
		return ast.Func("main", "int",
			ast.VarInit("float", "x", ast.Float(1.5)),
			ast.VarInit("int", "same", ast.Bin(ast.Eq, ast.Name("x"), ast.Float(1.5000004))),
			ast.VarInit("int", "apart", ast.Bin(ast.Ne, ast.Name("x"), ast.Float(1.5001))),
			ast.Printf("%d %d\n", ast.Name("same"), ast.Name("apart")),
			ast.Ret(ast.Bin(ast.Add, ast.Name("same"), ast.Name("apart"))),
		)
	},
	"mixed": func() *ast.FuncDef {
		return ast.Func("main", "int",
			ast.VarInit("int", "i", ast.Int(3)),
			ast.VarInit("float", "f", ast.Float(3.0000001)),
			ast.IfElse(ast.Bin(ast.Eq, ast.Name("i"), ast.Name("f")), ast.Printf("i==f "), nil),
			ast.IfElse(ast.Bin(ast.Lt, ast.Name("i"), ast.Float(2.5)), ast.Printf("lt "), ast.Printf("ge ")),
			ast.VarInit("int", "k", ast.Bin(ast.Ge, ast.Name("i"), ast.Int(3))),
			ast.VarInit("int", "m", ast.Bin(ast.Le, ast.Float(4), ast.Name("i"))),
			ast.Printf("%d %d\n", ast.Name("k"), ast.Name("m")),
			ast.Ret(ast.Name("k")),
		)
	},
}

// TestSoundness runs every sample and comparison program before and after
// optimization at every level
func TestSoundness(t *testing.T) {
	programs := map[string]func() *ast.FuncDef{}
	for _, name := range ast.SampleNames() {
		name := name // per-iteration copy (go 1.22 loopvar semantics)
		programs[name] = func() *ast.FuncDef {
			prog, _ := ast.Sample(name)
			return prog
		}
	}
	for name, build := range comparisonPrograms {
		programs[name] = build
	}

	for name, build := range programs {
		for level := 0; level <= MaxLevel; level++ {
			t.Run(name+"/O"+string(rune('0'+level)), func(t *testing.T) {
				wantOut, wantRet := execute(t, ir.Generate(build()))

				l := ir.Generate(build())
				if _, err := Optimize(l, level); err != nil {
					t.Fatal(err)
				}
				gotOut, gotRet := execute(t, l)

				if gotOut != wantOut {
					t.Errorf("stdout = %q, want %q\n%s", gotOut, wantOut, ir.Format(l))
				}
				if gotRet != wantRet {
					t.Errorf("return = %+v, want %+v\n%s", gotRet, wantRet, ir.Format(l))
				}
			})
		}
	}
}

func TestComparisonOutputs(t *testing.T) {
	tests := map[string]string{
		"float-eq-near":  "eq EQ",
		"float-ne-apart": "1 1\n",
		"mixed":          "i==f ge 1 0\n",
	}
	for name, want := range tests {
		l := ir.Generate(comparisonPrograms[name]())
		if _, err := Optimize(l, MaxLevel); err != nil {
			t.Fatal(err)
		}
		if got, _ := execute(t, l); got != want {
			t.Errorf("%s: stdout = %q, want %q\n%s", name, got, want, ir.Format(l))
		}
	}
}

func TestIdempotent(t *testing.T) {
	for _, name := range ast.SampleNames() {
		for level := 1; level <= MaxLevel; level++ {
			l := sampleList(t, name)
			first, _ := Optimize(l, level)
			if first.Iterations > DefaultMaxIterations {
				t.Errorf("%s O%d: %d iterations", name, level, first.Iterations)
			}
			second, _ := Optimize(l, level)
			if second.Changed() {
				t.Errorf("%s O%d: second run changed %+v\n%s", name, level, second, ir.Format(l))
			}
		}
	}
}

func TestBranchScenarioFolds(t *testing.T) {
	l := sampleList(t, "branch")
	stats, err := Optimize(l, 3)
	if err != nil {
		t.Fatal(err)
	}
	if stats.After >= stats.Before || stats.Folded == 0 || stats.Propagated == 0 || stats.Eliminated == 0 {
		t.Errorf("stats = %+v", stats)
	}

	// the else branch reads result after a label, so only the straight-line
	// prefix is fully constant
	listing := ir.Format(l)
	for _, in := range l.Instructions() {
		if in.Opcode == ir.OpLabel {
			break
		}
		if in.Opcode == ir.OpBinOp {
			t.Errorf("binop survived: %s\n%s", in, listing)
		}
	}
	if !strings.Contains(listing, "result = 59.5") {
		t.Errorf("folded store missing:\n%s", listing)
	}
	if !strings.Contains(listing, "if !1 goto L1") {
		t.Errorf("condition not folded:\n%s", listing)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Level: 2, Iterations: 3, Eliminated: 4, Folded: 5, Propagated: 6, Before: 20, After: 16}
	got := s.String()
	for _, want := range []string{"level 2", "3 iteration", "eliminated: 4", "folded:        5", "propagated:    6", "20 -> 16"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q:\n%s", want, got)
		}
	}
}

func TestDisablePass(t *testing.T) {
	cfg, _ := LevelConfig(3)
	cfg.Disable(PassDeadCodeElimination)

	l := sampleList(t, "branch")
	before := l.Len()
	stats := Run(l, cfg)
	if stats.Eliminated != 0 || l.Len() != before {
		t.Errorf("instructions removed with DCE disabled: %+v", stats)
	}

	cfg, _ = LevelConfig(0)
	cfg.Enable(PassConstantPropagation)
	l = sampleList(t, "branch")
	if stats := Run(l, cfg); stats.Propagated == 0 || stats.Folded != 0 {
		t.Errorf("only propagation should run: %+v", stats)
	}
}
