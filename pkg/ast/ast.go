// Package ast defines the validated syntax tree handed to the back end.
//
// Design: The tree arrives already scope-resolved and type-checked by the
// front end. The back end only reads it; nothing here validates.
package ast

// Node is any syntax tree node
type Node interface {
	node()
}

type Stmt interface {
	Node
	stmt()
}

type Expr interface {
	Node
	expr()
}

// Program is a sequence of top-level nodes (function definitions or bare statements)
type Program struct {
	Body []Node
}

func (*Program) node() {}

// Statements

// FuncDef is a parameterless function definition
type FuncDef struct {
	Name    string
	RetType string
	Body    Stmt
}

func (*FuncDef) node() {}
func (*FuncDef) stmt() {}

// Block is a compound statement
type Block struct {
	Stmts []Stmt
}

func (*Block) node() {}
func (*Block) stmt() {}

// Decl declares a variable without initializer: int x;
type Decl struct {
	Name string
	Type string
}

func (*Decl) node() {}
func (*Decl) stmt() {}

// DeclAssign declares and initializes: float y = 5.5;
type DeclAssign struct {
	Name  string
	Type  string
	Value Expr
}

func (*DeclAssign) node() {}
func (*DeclAssign) stmt() {}

type Assign struct {
	Name  string
	Value Expr
}

func (*Assign) node() {}
func (*Assign) stmt() {}

// Return with a nil Value returns nothing
type Return struct {
	Value Expr
}

func (*Return) node() {}
func (*Return) stmt() {}

// If with a nil Else has no else branch
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

func (*If) node() {}
func (*If) stmt() {}

type While struct {
	Cond Expr
	Body Stmt
}

func (*While) node() {}
func (*While) stmt() {}

// ExprStmt evaluates an expression for its effect (usually a call)
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) node() {}
func (*ExprStmt) stmt() {}

// Expressions

type BinaryExpr struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*BinaryExpr) node() {}
func (*BinaryExpr) expr() {}

type Ident struct {
	Name string
}

func (*Ident) node() {}
func (*Ident) expr() {}

type IntLit struct {
	Value int64
}

func (*IntLit) node() {}
func (*IntLit) expr() {}

type FloatLit struct {
	Value float64
}

func (*FloatLit) node() {}
func (*FloatLit) expr() {}

// StringLit holds already-unescaped text
type StringLit struct {
	Value string
}

func (*StringLit) node() {}
func (*StringLit) expr() {}

type CallExpr struct {
	Func string
	Args []Expr
}

func (*CallExpr) node() {}
func (*CallExpr) expr() {}

// Operator is a binary operator
type Operator int

const (
	Add Operator = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
)

var operatorText = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Eq: "==", Ne: "!=", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",
}

func (op Operator) String() string {
	if int(op) < len(operatorText) {
		return operatorText[op]
	}
	return "?"
}

// IsComparison reports whether op yields a truth value
func (op Operator) IsComparison() bool {
	return op >= Eq
}
