package ast

import "sort"

// Sample programs used by the demo command and by tests across packages.
// Each is a single main function.
var samples = map[string]func() *FuncDef{
	// int x = 10; float y = 5.5; float result = x * y + (x - y);
	// if (result > 40.0) printf("big"); else { result = result * 2.0; }
	"branch": func() *FuncDef {
		return Func("main", "int",
			VarInit("int", "x", Int(10)),
			VarInit("float", "y", Float(5.5)),
			VarInit("float", "result", Bin(Add,
				Bin(Mul, Name("x"), Name("y")),
				Bin(Sub, Name("x"), Name("y")))),
			IfElse(Bin(Gt, Name("result"), Float(40)),
				Printf("big"),
				Seq(Set("result", Bin(Mul, Name("result"), Float(2))))),
			Ret(Int(0)),
		)
	},

	"loop": func() *FuncDef {
		return Func("main", "int",
			VarInit("int", "i", Int(0)),
			VarInit("int", "sum", Int(0)),
			Loop(Bin(Lt, Name("i"), Int(5)), Seq(
				Set("sum", Bin(Add, Name("sum"), Bin(Mul, Name("i"), Int(2)))),
				Set("i", Bin(Add, Name("i"), Int(1))),
			)),
			Printf("sum=%d\n", Name("sum")),
			Ret(Name("sum")),
		)
	},

	"identities": func() *FuncDef {
		return Func("main", "int",
			VarInit("float", "f", Float(1.5)),
			VarInit("int", "n", Int(3)),
			VarInit("float", "g", Bin(Add, Bin(Mul, Name("f"), Name("n")), Int(0))),
			VarInit("int", "k", Bin(Add, Bin(Mul, Name("n"), Int(1)), Bin(Mul, Int(0), Name("n")))),
			Printf("%f %d\n", Name("g"), Name("k")),
			IfElse(Bin(Eq, Name("k"), Int(3)), Printf("three\n"), nil),
			Ret(Name("k")),
		)
	},

	"nested": func() *FuncDef {
		return Func("main", "int",
			VarInit("int", "i", Int(0)),
			VarInit("float", "acc", Float(0)),
			Loop(Bin(Le, Name("i"), Int(6)), Seq(
				IfElse(Bin(Ge, Bin(Div, Name("i"), Int(2)), Int(2)),
					Seq(Set("acc", Bin(Add, Name("acc"), Bin(Div, Name("i"), Float(4))))),
					Seq(Set("acc", Bin(Sub, Name("acc"), Int(1))))),
				Set("i", Bin(Add, Name("i"), Int(1))),
			)),
			Printf("acc=%f i=%d %s\n", Name("acc"), Name("i"), Str("done")),
			IfElse(Bin(Ne, Name("acc"), Float(0)), Printf("nonzero 100%%\n"), nil),
			Ret(Name("i")),
		)
	},

	"calls": func() *FuncDef {
		return Func("main", "int",
			VarInit("int", "a", Int(1)),
			VarInit("int", "b", Int(2)),
			VarInit("int", "c", Int(3)),
			VarInit("int", "d", Int(4)),
			VarInit("int", "e", Int(5)),
			VarInit("int", "f", Int(6)),
			VarInit("int", "s", Bin(Add, Name("a"), Bin(Add, Name("b"), Bin(Add, Name("c"),
				Bin(Add, Name("d"), Bin(Add, Name("e"), Name("f"))))))),
			Printf("%d %d\n", Name("s"), Call("printf", Str("x"))),
			Ret(Name("s")),
		)
	},

	"divzero": func() *FuncDef {
		return Func("main", "int",
			VarInit("int", "z", Int(0)),
			VarInit("int", "q", Bin(Div, Int(10), Name("z"))),
			Printf("%d\n", Name("q")),
			Ret(Name("q")),
		)
	},
}

// Sample returns a fresh copy of the named sample program
func Sample(name string) (*FuncDef, bool) {
	build, ok := samples[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// SampleNames returns the sample names in sorted order
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
