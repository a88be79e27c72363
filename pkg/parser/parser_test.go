package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmay/timber/pkg/ast"
	"github.com/rmay/timber/pkg/lexer"
)

func TestParseEmptyProgram(t *testing.T) {
	toks, err := lexer.Tokenize(`def main() { }`)
	require.NoError(t, err)

	prog, err := Parse(toks)
	require.NoError(t, err)
	require.Len(t, prog.FnDefs, 1)
	assert.Equal(t, "main", prog.FnDefs[0].Name)
	assert.Empty(t, prog.FnDefs[0].Body.Stmts)
}

func TestParseArithmeticReturn(t *testing.T) {
	toks, err := lexer.Tokenize(`def main() { return add(2, 3); }`)
	require.NoError(t, err)

	prog, err := Parse(toks)
	require.NoError(t, err)
	require.Len(t, prog.FnDefs, 1)
	body := prog.FnDefs[0].Body
	require.Len(t, body.Stmts, 1)

	simple, ok := body.Stmts[0].(*ast.SimpleStmt)
	require.True(t, ok)
	ret, ok := simple.Child.(*ast.ReturnStmt)
	require.True(t, ok)

	call, ok := ret.Child.(*ast.FnCall)
	require.True(t, ok)
	defaultCall, ok := call.Child.(*ast.DefaultFnCall)
	require.True(t, ok)
	assert.Equal(t, "add", defaultCall.Name)
	require.Len(t, defaultCall.Args, 2)
}

func TestParseWhileLoop(t *testing.T) {
	src := `def main() { var n; n = 10; while (n) { n = sub(n, 1); }; }`
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)

	prog, err := Parse(toks)
	require.NoError(t, err)
	body := prog.FnDefs[0].Body
	require.Len(t, body.VarDecls, 1)
	require.Len(t, body.Stmts, 2)

	compound, ok := body.Stmts[1].(*ast.CompoundStmt)
	require.True(t, ok)
	while, ok := compound.Child.(*ast.WhileStmt)
	require.True(t, ok)
	assert.NotNil(t, while.Guard)
	assert.Len(t, while.Body.Stmts, 1)
}

func TestParseIfStatement(t *testing.T) {
	toks, err := lexer.Tokenize(`def f() { if (1) { return 1; }; }`)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)
	compound := prog.FnDefs[0].Body.Stmts[0].(*ast.CompoundStmt)
	_, ok := compound.Child.(*ast.IfStmt)
	assert.True(t, ok)
}

func TestParseParenthesizedExpr(t *testing.T) {
	toks, err := lexer.Tokenize(`def f() { return (1); }`)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)
	simple := prog.FnDefs[0].Body.Stmts[0].(*ast.SimpleStmt)
	ret := simple.Child.(*ast.ReturnStmt)
	paren, ok := ret.Child.(*ast.ParenExpr)
	require.True(t, ok)
	_, ok = paren.Child.(*ast.Lit)
	assert.True(t, ok)
}

func TestParseAssignExpression(t *testing.T) {
	toks, err := lexer.Tokenize(`def f() { var x; x = 5; }`)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)
	simple := prog.FnDefs[0].Body.Stmts[0].(*ast.SimpleStmt)
	assign, ok := simple.Child.(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
	lit, ok := assign.Expr.(*ast.Lit)
	require.True(t, ok)
	intLit := lit.Child.(*ast.IntLit)
	assert.Equal(t, 5, intLit.Value)
}

func TestParseMissingSemicolonFails(t *testing.T) {
	toks, err := lexer.Tokenize(`def f() { return 1 }`)
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

func TestParseSpanMonotonicity(t *testing.T) {
	toks, err := lexer.Tokenize(`def main() { return add(2, 3); }`)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)

	fn := prog.FnDefs[0]
	assert.LessOrEqual(t, fn.SpanVal.Start, fn.Body.SpanVal.Start)
	assert.LessOrEqual(t, fn.Body.SpanVal.End, fn.SpanVal.End)
}

func TestParserTotality(t *testing.T) {
	toks, err := lexer.Tokenize(`def main() { } def other() { }`)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)
	assert.Len(t, prog.FnDefs, 2)
}

func TestParseDuplicateArgNamesAllowedAtParseStage(t *testing.T) {
	// Duplicate-name rejection is a codegen concern (namespace
	// construction), not a parser concern; the parser only checks
	// grammar shape.
	toks, err := lexer.Tokenize(`def f(var a, var a) { return a; }`)
	require.NoError(t, err)
	_, err = Parse(toks)
	require.NoError(t, err)
}
