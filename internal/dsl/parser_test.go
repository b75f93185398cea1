package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Expr {
	t.Helper()
	prog, err := ParseSource(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	return prog.Statements[0]
}

func TestParseMultiplicationBindsTighter(t *testing.T) {
	expr := parseOne(t, "1 + 2 * 3")

	add, ok := expr.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpAdd, add.Op)
	require.IsType(t, &NumberLiteral{}, add.Left)
	mul, ok := add.Right.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpMul, mul.Op)
}

func TestParseLeftAssociative(t *testing.T) {
	expr := parseOne(t, "10 - 4 - 3")

	outer, ok := expr.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpSub, outer.Op)
	inner, ok := outer.Left.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpSub, inner.Op)
	require.IsType(t, &NumberLiteral{}, outer.Right)
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	expr := parseOne(t, "x = y = 3")

	outer, ok := expr.(*Assignment)
	require.True(t, ok)
	assert.Equal(t, "x", outer.Name)
	inner, ok := outer.Value.(*Assignment)
	require.True(t, ok)
	assert.Equal(t, "y", inner.Name)
}

func TestParseLogicalPrecedence(t *testing.T) {
	expr := parseOne(t, "a || b && c == d")

	or, ok := expr.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpOr, or.Op)
	and, ok := or.Right.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)
	eq, ok := and.Right.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpEq, eq.Op)
}

func TestParseUnaryBindsTighterThanEquality(t *testing.T) {
	expr := parseOne(t, "!a == b")

	eq, ok := expr.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpEq, eq.Op)
	require.IsType(t, &UnaryNot{}, eq.Left)
}

func TestParseCallAndConditional(t *testing.T) {
	expr := parseOne(t, "if x > 0 then round(x, 2) else choice(1, 2, 3)")

	cond, ok := expr.(*Conditional)
	require.True(t, ok)
	require.IsType(t, &BinaryOp{}, cond.Cond)

	call, ok := cond.Then.(*Call)
	require.True(t, ok)
	assert.Equal(t, "round", call.Name)
	assert.Len(t, call.Args, 2)

	other, ok := cond.Else.(*Call)
	require.True(t, ok)
	assert.Len(t, other.Args, 3)
}

func TestParseEmptyCall(t *testing.T) {
	call, ok := parseOne(t, "f()").(*Call)
	require.True(t, ok)
	assert.Empty(t, call.Args)
}

func TestParseStatements(t *testing.T) {
	prog, err := ParseSource("\n\na = 1\n\n\nb = (a +\n  2)\nc = f(a,\n b)\n")
	require.NoError(t, err)
	assert.Len(t, prog.Statements, 3)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"assign to literal":      "1 = 2",
		"assign to group":        "(a) = 2",
		"two expressions":        "1 2",
		"missing else":           "if true then 1",
		"missing then":           "if true 1 else 2",
		"unclosed group":         "(1 + 2",
		"unclosed call":          "f(1, 2",
		"dangling operator":      "1 +",
		"statement starts badly": "* 2",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSource(src)
			require.Error(t, err)
			assert.True(t, IsKind(err, ParseError), "got %v", err)
			assert.True(t, IsAuthoringError(err))
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := ParseSource("a = 1\nb = 2 3")
	var dslErr *Error
	require.ErrorAs(t, err, &dslErr)
	assert.Equal(t, ParseError, dslErr.Kind)
	assert.Equal(t, 2, dslErr.Pos.Line)
	assert.Equal(t, 7, dslErr.Pos.Col)
}
