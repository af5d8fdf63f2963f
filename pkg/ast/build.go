package ast

// Constructors mirroring the parser's node builders. They keep hand-built
// trees in tests and the demo readable.

func Func(name, ret string, body ...Stmt) *FuncDef {
	return &FuncDef{Name: name, RetType: ret, Body: &Block{Stmts: body}}
}

func Seq(stmts ...Stmt) *Block { return &Block{Stmts: stmts} }

func Var(typ, name string) *Decl { return &Decl{Name: name, Type: typ} }

func VarInit(typ, name string, value Expr) *DeclAssign {
	return &DeclAssign{Name: name, Type: typ, Value: value}
}

func Set(name string, value Expr) *Assign { return &Assign{Name: name, Value: value} }

func IfElse(cond Expr, then, els Stmt) *If { return &If{Cond: cond, Then: then, Else: els} }

func Loop(cond Expr, body Stmt) *While { return &While{Cond: cond, Body: body} }

func Ret(value Expr) *Return { return &Return{Value: value} }

func Bin(op Operator, l, r Expr) *BinaryExpr { return &BinaryExpr{Op: op, Left: l, Right: r} }

func Name(name string) *Ident { return &Ident{Name: name} }

func Int(v int64) *IntLit { return &IntLit{Value: v} }

func Float(v float64) *FloatLit { return &FloatLit{Value: v} }

func Str(s string) *StringLit { return &StringLit{Value: s} }

func Call(fn string, args ...Expr) *CallExpr { return &CallExpr{Func: fn, Args: args} }

// Printf is a call statement to printf
func Printf(format string, args ...Expr) *ExprStmt {
	return &ExprStmt{X: Call("printf", append([]Expr{Str(format)}, args...)...)}
}
