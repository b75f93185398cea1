package dsl

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Evaluator walks a Program, recording assignments in its symbol table.
// The table is the only side-effect channel; the random builtins draw from rng.
type Evaluator struct {
	symbols *SymbolTable
	rng     *rand.Rand
}

// NewEvaluator creates an evaluator. A nil symbol table starts empty; a nil
// rng is seeded from the clock, which makes the run non-reproducible.
func NewEvaluator(symbols *SymbolTable, rng *rand.Rand) *Evaluator {
	if symbols == nil {
		symbols = NewSymbolTable()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Evaluator{symbols: symbols, rng: rng}
}

// Symbols returns the table the evaluator writes to.
func (e *Evaluator) Symbols() *SymbolTable { return e.symbols }

// Run executes the statements in order and returns the value of the last one.
// Execution stops at the first error.
func (e *Evaluator) Run(prog *Program) (Value, error) {
	var last Value
	for _, stmt := range prog.Statements {
		v, err := e.Eval(stmt)
		if err != nil {
			return Value{}, err
		}
		last = v
	}
	return last, nil
}

// Eval evaluates a single expression node.
func (e *Evaluator) Eval(node Expr) (Value, error) {
	switch n := node.(type) {
	case *NumberLiteral:
		return Number(n.Value), nil
	case *StringLiteral:
		return String(n.Value), nil
	case *BoolLiteral:
		return Bool(n.Value), nil
	case *Identifier:
		v, ok := e.symbols.Lookup(n.Name)
		if !ok {
			return Value{}, newError(UnknownSymbol, n.At, "unknown symbol %q", n.Name)
		}
		return v, nil
	case *Assignment:
		v, err := e.Eval(n.Value)
		if err != nil {
			return Value{}, err
		}
		if err := e.symbols.Define(n.Name, v, n.At); err != nil {
			return Value{}, err
		}
		return v, nil
	case *Grouping:
		return e.Eval(n.Inner)
	case *UnaryNot:
		return e.evalNot(n)
	case *UnaryMinus:
		v, err := e.Eval(n.Operand)
		if err != nil {
			return Value{}, err
		}
		f, ok := v.AsNumber()
		if !ok {
			return Value{}, newError(TypeError, n.At, "operator - expects a number, got %s", v.Type())
		}
		return Number(-f), nil
	case *BinaryOp:
		return e.evalBinary(n)
	case *Conditional:
		cond, err := e.Eval(n.Cond)
		if err != nil {
			return Value{}, err
		}
		b, ok := cond.AsBool()
		if !ok {
			return Value{}, newError(TypeError, n.Cond.Pos(), "if condition must be a boolean, got %s", cond.Type())
		}
		if b {
			return e.Eval(n.Then)
		}
		return e.Eval(n.Else)
	case *Call:
		return e.evalCall(n)
	}
	return Value{}, fmt.Errorf("dsl: unhandled expression node %T", node)
}

func (e *Evaluator) evalNot(n *UnaryNot) (Value, error) {
	v, err := e.Eval(n.Operand)
	if err != nil {
		return Value{}, err
	}
	switch v.Type() {
	case TypeBool:
		return Bool(!v.b), nil
	case TypeNumber:
		return Bool(math.Abs(v.num) <= Epsilon), nil
	}
	return Value{}, newError(TypeError, n.At, "operator ! expects a boolean or number, got %s", v.Type())
}

func (e *Evaluator) evalBinary(n *BinaryOp) (Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case OpMul, OpDiv, OpMod, OpAdd, OpSub:
		return arithmetic(n, left, right)
	case OpEq, OpNeq:
		eq, err := equal(n, left, right)
		if err != nil {
			return Value{}, err
		}
		if n.Op == OpNeq {
			return Bool(!eq), nil
		}
		return Bool(eq), nil
	case OpGt, OpGte, OpLt, OpLte:
		return compare(n, left, right)
	case OpAnd, OpOr:
		a, aok := left.AsBool()
		b, bok := right.AsBool()
		if !aok || !bok {
			return Value{}, newError(TypeError, n.At, "operator %s expects booleans, got %s and %s", n.Op, left.Type(), right.Type())
		}
		if n.Op == OpAnd {
			return Bool(a && b), nil
		}
		return Bool(a || b), nil
	}
	return Value{}, fmt.Errorf("dsl: unhandled binary operator %q", n.Op)
}

func arithmetic(n *BinaryOp, left, right Value) (Value, error) {
	a, aok := left.AsNumber()
	b, bok := right.AsNumber()
	if !aok || !bok {
		return Value{}, newError(TypeError, n.At, "operator %s expects numbers, got %s and %s", n.Op, left.Type(), right.Type())
	}
	var r float64
	switch n.Op {
	case OpMul:
		r = a * b
	case OpAdd:
		r = a + b
	case OpSub:
		r = a - b
	case OpDiv:
		if math.Abs(b) <= Epsilon {
			return Value{}, newError(DivisionByZero, n.At, "division by zero")
		}
		r = a / b
	default: // OpMod
		if math.Abs(b) <= Epsilon {
			return Value{}, newError(DivisionByZero, n.At, "modulo by zero")
		}
		r = math.Mod(a, b)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return Value{}, newError(DomainError, n.At, "result of %s is out of range", n.Op)
	}
	return Number(r), nil
}

func equal(n *BinaryOp, left, right Value) (bool, error) {
	if left.Type() != right.Type() {
		return false, newError(TypeError, n.At, "operator %s expects operands of the same type, got %s and %s", n.Op, left.Type(), right.Type())
	}
	switch left.Type() {
	case TypeNumber:
		return approxEqual(left.num, right.num), nil
	case TypeBool:
		return left.b == right.b, nil
	default:
		return left.str == right.str, nil
	}
}

// compare orders two numbers or two strings. Numbers within Epsilon of each
// other compare equal, so both <= and >= hold for them and neither < nor >.
func compare(n *BinaryOp, left, right Value) (Value, error) {
	if left.Type() != right.Type() {
		return Value{}, newError(TypeError, n.At, "operator %s expects operands of the same type, got %s and %s", n.Op, left.Type(), right.Type())
	}
	var cmp int
	switch left.Type() {
	case TypeNumber:
		switch {
		case approxEqual(left.num, right.num):
			cmp = 0
		case left.num < right.num:
			cmp = -1
		default:
			cmp = 1
		}
	case TypeString:
		switch {
		case left.str == right.str:
			cmp = 0
		case left.str < right.str:
			cmp = -1
		default:
			cmp = 1
		}
	default:
		return Value{}, newError(TypeError, n.At, "operator %s cannot compare booleans", n.Op)
	}

	switch n.Op {
	case OpGt:
		return Bool(cmp > 0), nil
	case OpGte:
		return Bool(cmp >= 0), nil
	case OpLt:
		return Bool(cmp < 0), nil
	default: // OpLte
		return Bool(cmp <= 0), nil
	}
}

func (e *Evaluator) evalCall(n *Call) (Value, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return Value{}, newError(UnknownSymbol, n.At, "unknown function %q", n.Name)
	}
	if len(n.Args) < fn.minArgs || (fn.maxArgs >= 0 && len(n.Args) > fn.maxArgs) {
		return Value{}, newError(ArgumentError, n.At, "%s expects %s, got %d", n.Name, fn.arity(), len(n.Args))
	}
	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := e.Eval(arg)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return fn.call(&callContext{name: n.Name, pos: n.At, rng: e.rng}, args)
}
