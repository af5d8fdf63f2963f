package regalloc

import (
	"testing"

	"github.com/GriffinCanCode/minicc/pkg/ir"
)

func TestAllocateFirstFree(t *testing.T) {
	p := NewPool(PseudoConfig())

	r1, ok := p.Allocate(1, General)
	if !ok || r1 != "R0" {
		t.Fatalf("first allocation = %q, %v; want R0", r1, ok)
	}
	r2, _ := p.Allocate(2, General)
	if r2 != "R1" {
		t.Errorf("second allocation = %q, want R1", r2)
	}
	f, _ := p.Allocate(3, Float)
	if f != "F0" {
		t.Errorf("float allocation = %q, want F0", f)
	}

	p.Free(1)
	r4, _ := p.Allocate(4, General)
	if r4 != "R0" {
		t.Errorf("allocation after free = %q, want R0", r4)
	}
}

func TestAllocateIsIdempotent(t *testing.T) {
	p := NewPool(PseudoConfig())
	a, _ := p.Allocate(7, General)
	b, _ := p.Allocate(7, General)
	if a != b {
		t.Errorf("re-allocating the same temp gave %q then %q", a, b)
	}
	if p.InUse() != 1 {
		t.Errorf("InUse = %d, want 1", p.InUse())
	}
}

func TestExhaustion(t *testing.T) {
	p := NewPool(PseudoConfig())
	for i := 1; i <= 4; i++ {
		if _, ok := p.Allocate(i, Float); !ok {
			t.Fatalf("allocation %d failed", i)
		}
	}
	if _, ok := p.Allocate(5, Float); ok {
		t.Error("expected float pool to be exhausted")
	}
	if _, ok := p.Allocate(5, General); !ok {
		t.Error("general pool should be unaffected by float exhaustion")
	}
}

func TestRebind(t *testing.T) {
	p := NewPool(PseudoConfig())
	p.Allocate(1, General)
	reg, ok := p.Rebind(1, 2)
	if !ok || reg != "R0" {
		t.Fatalf("Rebind = %q, %v", reg, ok)
	}
	if _, ok := p.Lookup(1); ok {
		t.Error("temp 1 still bound after rebind")
	}
	if got, _ := p.Lookup(2); got != "R0" {
		t.Errorf("temp 2 bound to %q, want R0", got)
	}
}

func TestUsedCalleeSaved(t *testing.T) {
	p := NewPool(AMD64Config())
	p.Allocate(1, General)
	p.Allocate(2, General)
	p.Allocate(3, Float)
	p.Free(1)
	p.Free(2)

	got := p.UsedCalleeSaved()
	want := []string{"%rbx", "%r12"}
	if len(got) != len(want) {
		t.Fatalf("UsedCalleeSaved = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UsedCalleeSaved[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if len(p.Used()) != 3 {
		t.Errorf("Used = %v, want 3 registers", p.Used())
	}

	p.Reset()
	if len(p.Used()) != 0 || p.InUse() != 0 {
		t.Error("Reset did not clear the pool")
	}
}

func TestConfigValidate(t *testing.T) {
	for name, cfg := range map[string]*Config{"amd64": AMD64Config(), "pseudo": PseudoConfig()} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"reserved", &Config{General: []string{"%rbx", "%rax"}, Reserved: []string{"%rax"}}},
		{"duplicate", &Config{General: []string{"%rbx"}, Float: []string{"%rbx"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestReservedRegistersAreNeverAllocated(t *testing.T) {
	p := NewPool(&Config{General: []string{"%rax", "%rbx"}, Reserved: []string{"%rax"}})
	reg, ok := p.Allocate(1, General)
	if !ok || reg != "%rbx" {
		t.Errorf("Allocate = %q, %v; want %%rbx", reg, ok)
	}
	if _, ok := p.Allocate(2, General); ok {
		t.Error("reserved register was handed out")
	}
}

func TestAMD64PoolSize(t *testing.T) {
	p := NewPool(AMD64Config())
	for i := 1; i <= 11; i++ {
		if _, ok := p.Allocate(i, General); !ok {
			t.Fatalf("general allocation %d failed", i)
		}
	}
	if _, ok := p.Allocate(12, General); ok {
		t.Error("expected the general pool to hold eleven registers")
	}
	if got := len(p.UsedCalleeSaved()); got != 5 {
		t.Errorf("UsedCalleeSaved = %d registers, want 5", got)
	}
}

func TestCallerSavedBound(t *testing.T) {
	p := NewPool(AMD64Config())
	for i := 1; i <= 6; i++ {
		p.Allocate(i, General)
	}
	p.Allocate(7, Float)

	got := p.CallerSavedBound()
	want := []Binding{
		{Temp: 6, Reg: "%r10", Class: General},
		{Temp: 7, Reg: "%xmm8", Class: Float},
	}
	if len(got) != len(want) {
		t.Fatalf("CallerSavedBound = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLivenessStraightLine(t *testing.T) {
	t1 := ir.Temp(1, ir.Int)
	t2 := ir.Temp(2, ir.Int)
	t3 := ir.Temp(3, ir.Int)
	insts := []*ir.Instruction{
		{Opcode: ir.OpLoadConst, Result: t1, Op1: ir.IntConst(1)},
		{Opcode: ir.OpLoadConst, Result: t2, Op1: ir.IntConst(2)},
		{Opcode: ir.OpBinOp, Result: t3, Op1: t1, Op2: t2, BinOp: ir.OpAdd},
		{Opcode: ir.OpStore, Result: ir.Var("x", ir.Int), Op1: t3},
	}

	live := ComputeLiveness(insts)
	tests := []struct {
		temp, start, end int
	}{
		{1, 0, 2},
		{2, 1, 2},
		{3, 2, 3},
	}
	for _, tt := range tests {
		iv := live[tt.temp]
		if iv == nil {
			t.Fatalf("no interval for t%d", tt.temp)
		}
		if iv.Start != tt.start || iv.End != tt.end {
			t.Errorf("t%d = [%d,%d], want [%d,%d]", tt.temp, iv.Start, iv.End, tt.start, tt.end)
		}
	}
	if !live.EndsAt(1, 2) || live.LiveAfter(1, 2) {
		t.Error("t1 should die at its last read")
	}

	index := live.ExpiryIndex()
	if got := index[2]; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expiring at 2 = %v, want [1 2]", got)
	}
	if got := index[3]; len(got) != 1 || got[0] != 3 {
		t.Errorf("expiring at 3 = %v, want [3]", got)
	}
}

func TestLivenessParamExtendsToCall(t *testing.T) {
	t1 := ir.Temp(1, ir.Int)
	t2 := ir.Temp(2, ir.Int)
	insts := []*ir.Instruction{
		{Opcode: ir.OpLoadConst, Result: t1, Op1: ir.IntConst(1)},
		{Opcode: ir.OpParam, Op1: ir.StringLit("%d\n")},
		{Opcode: ir.OpParam, Op1: t1},
		{Opcode: ir.OpLoadConst, Result: ir.Temp(3, ir.Int), Op1: ir.IntConst(9)},
		{Opcode: ir.OpCall, Result: t2, Op1: ir.Func("printf")},
	}

	live := ComputeLiveness(insts)
	if live[1].End != 4 {
		t.Errorf("param temp should live until the call, ends at %d", live[1].End)
	}
}

func TestLivenessLoopBackEdge(t *testing.T) {
	t1 := ir.Temp(1, ir.Int)
	t2 := ir.Temp(2, ir.Int)
	insts := []*ir.Instruction{
		{Opcode: ir.OpLoadConst, Result: t1, Op1: ir.IntConst(5)},
		{Opcode: ir.OpLabel, Op1: ir.Label("L1")},
		{Opcode: ir.OpLoad, Result: t2, Op1: ir.Var("i", ir.Int)},
		{Opcode: ir.OpBinOp, Result: ir.Temp(3, ir.Int), Op1: t2, Op2: t1, BinOp: ir.OpLt},
		{Opcode: ir.OpIfFalseGoto, Op1: ir.Temp(3, ir.Int), Op2: ir.Label("L2")},
		{Opcode: ir.OpStore, Result: ir.Var("i", ir.Int), Op1: ir.IntConst(1)},
		{Opcode: ir.OpGoto, Op1: ir.Label("L1")},
		{Opcode: ir.OpLabel, Op1: ir.Label("L2")},
	}

	live := ComputeLiveness(insts)
	if live[1].End != 6 {
		t.Errorf("loop-invariant temp should live to the back edge, ends at %d", live[1].End)
	}
	if live[2].End != 3 {
		t.Errorf("temp defined inside the loop should not be extended, ends at %d", live[2].End)
	}
}
