package ir

import "testing"

func buildList(n int) (*List, []ID) {
	l := NewList()
	ids := make([]ID, n)
	for i := range ids {
		ids[i] = l.Append(Instruction{Opcode: OpLoadConst, Result: Temp(i+1, Int), Op1: IntConst(int64(i))})
	}
	return l, ids
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		remove []int
		want   []int64
	}{
		{"head", []int{0}, []int64{1, 2, 3}},
		{"tail", []int{3}, []int64{0, 1, 2}},
		{"middle", []int{1, 2}, []int64{0, 3}},
		{"all", []int{0, 1, 2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ids := buildList(4)
			for _, i := range tt.remove {
				l.Remove(ids[i])
			}
			var got []int64
			for _, in := range l.Instructions() {
				got = append(got, in.Op1.Int)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
			if l.Len() != len(tt.want) {
				t.Errorf("Len = %d, want %d", l.Len(), len(tt.want))
			}
		})
	}
}

func TestRemoveWhileIterating(t *testing.T) {
	l, _ := buildList(5)
	for id := l.Head(); id != None; id = l.Next(id) {
		if l.At(id).Op1.Int%2 == 1 {
			l.Remove(id)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3:\n%s", l.Len(), Format(l))
	}
	// removing twice is a no-op
	l.Remove(l.Head())
	l.Remove(0)
	if l.Len() != 2 {
		t.Errorf("Len = %d after double remove, want 2", l.Len())
	}
}

func TestAppendAfterRemoveTail(t *testing.T) {
	l, ids := buildList(2)
	l.Remove(ids[1])
	id := l.Append(Instruction{Opcode: OpFuncEnd})
	if l.Tail() != id || l.Next(ids[0]) != id || l.Prev(id) != ids[0] {
		t.Errorf("bad links after append:\n%s", Format(l))
	}
}

func TestClone(t *testing.T) {
	l, ids := buildList(3)
	c := l.Clone()
	c.Remove(ids[0])
	c.At(ids[1]).Op1 = IntConst(42)
	if l.Len() != 3 || l.At(ids[1]).Op1.Int != 1 {
		t.Errorf("clone shares state with original:\n%s", Format(l))
	}
}

func TestOperandEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Operand
		want bool
	}{
		{"same_temp", Temp(1, Int), Temp(1, Float), true},
		{"diff_temp", Temp(1, Int), Temp(2, Int), false},
		{"same_var", Var("x", Int), Var("x", Int), true},
		{"int_consts", IntConst(3), IntConst(3), true},
		{"int_vs_float", IntConst(3), FloatConst(3), false},
		{"float_consts", FloatConst(2.5), FloatConst(2.5), true},
		{"labels", Label("L1"), Label("L1"), false},
		{"kinds", Temp(1, Int), IntConst(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		5.5:    "5.5",
		40:     "40.0",
		0:      "0.0",
		0.125:  "0.125",
		1e21:   "1e+21",
		-59.25: "-59.25",
	}
	for in, want := range tests {
		if got := FormatFloat(in); got != want {
			t.Errorf("FormatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
