package dsl

// Program is the root node: one expression per statement, in source order.
type Program struct {
	Statements []Expr
}

// Expr is implemented by every expression node. The set of nodes is closed;
// the evaluator switches over exactly these types.
type Expr interface {
	Pos() Position
	isExpr()
}

// BinaryOperator names a binary operation.
type BinaryOperator string

const (
	OpMul BinaryOperator = "*"
	OpDiv BinaryOperator = "/"
	OpMod BinaryOperator = "%"
	OpAdd BinaryOperator = "+"
	OpSub BinaryOperator = "-"
	OpEq  BinaryOperator = "=="
	OpNeq BinaryOperator = "!="
	OpGt  BinaryOperator = ">"
	OpGte BinaryOperator = ">="
	OpLt  BinaryOperator = "<"
	OpLte BinaryOperator = "<="
	OpAnd BinaryOperator = "&&"
	OpOr  BinaryOperator = "||"
)

type NumberLiteral struct {
	Value float64
	At    Position
}

type StringLiteral struct {
	Value string
	At    Position
}

type BoolLiteral struct {
	Value bool
	At    Position
}

type Identifier struct {
	Name string
	At   Position
}

// Assignment binds Name once; the right-hand side is a full expression.
type Assignment struct {
	Name  string
	Value Expr
	At    Position
}

type UnaryNot struct {
	Operand Expr
	At      Position
}

// UnaryMinus negates a numeric operand.
type UnaryMinus struct {
	Operand Expr
	At      Position
}

type BinaryOp struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
	At    Position
}

// Conditional is `if Cond then Then else Else`; only the taken branch is evaluated.
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
	At   Position
}

type Call struct {
	Name string
	Args []Expr
	At   Position
}

type Grouping struct {
	Inner Expr
	At    Position
}

func (n *NumberLiteral) Pos() Position { return n.At }
func (n *StringLiteral) Pos() Position { return n.At }
func (n *BoolLiteral) Pos() Position   { return n.At }
func (n *Identifier) Pos() Position    { return n.At }
func (n *Assignment) Pos() Position    { return n.At }
func (n *UnaryNot) Pos() Position      { return n.At }
func (n *UnaryMinus) Pos() Position    { return n.At }
func (n *BinaryOp) Pos() Position      { return n.At }
func (n *Conditional) Pos() Position   { return n.At }
func (n *Call) Pos() Position          { return n.At }
func (n *Grouping) Pos() Position      { return n.At }

func (*NumberLiteral) isExpr() {}
func (*StringLiteral) isExpr() {}
func (*BoolLiteral) isExpr()   {}
func (*Identifier) isExpr()    {}
func (*Assignment) isExpr()    {}
func (*UnaryNot) isExpr()      {}
func (*UnaryMinus) isExpr()    {}
func (*BinaryOp) isExpr()      {}
func (*Conditional) isExpr()   {}
func (*Call) isExpr()          {}
func (*Grouping) isExpr()      {}
