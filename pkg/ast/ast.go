// Package ast defines the Timber abstract syntax tree and a pretty
// printer for it. Every node carries a Span of token indices so later
// passes and error messages can point back at source.
package ast

// Span is the closed range of token indices a node was parsed from:
// [Start, End], both inclusive, indices into the token slice the
// parser consumed.
type Span struct {
	Start int
	End   int
}

// Node is implemented by every AST variant. Kind is a short label used
// by the pretty printer ("ast" subcommand output) and by error
// messages; it names the concrete Go type, not a parent union, except
// that ParenExpr reports "Expr".
type Node interface {
	Span() Span
	Kind() string
}

// Program is the root of every Timber source file: zero or more
// top-level variable declarations followed by function definitions.
type Program struct {
	SpanVal  Span
	VarDecls []*VarDecl
	FnDefs   []*FnDef
}

func (n *Program) Span() Span  { return n.SpanVal }
func (n *Program) Kind() string { return "Program" }

// VarDecl introduces one name into the enclosing scope.
type VarDecl struct {
	SpanVal Span
	Name    string
}

func (n *VarDecl) Span() Span  { return n.SpanVal }
func (n *VarDecl) Kind() string { return "VarDecl" }

// FnDef is a function definition: a name, its formal arguments (each an
// implicit VarDecl), and a body block.
type FnDef struct {
	SpanVal  Span
	Name     string
	ArgDecls []*VarDecl
	Body     *Block
}

func (n *FnDef) Span() Span  { return n.SpanVal }
func (n *FnDef) Kind() string { return "FnDef" }

// Block is a brace-delimited sequence of interleaved var_decls and
// statements; it introduces a new lexical scope.
type Block struct {
	SpanVal  Span
	VarDecls []*VarDecl
	Stmts    []Stmt
}

func (n *Block) Span() Span  { return n.SpanVal }
func (n *Block) Kind() string { return "Block" }

// Stmt is either a CompoundStmt or a SimpleStmt.
type Stmt interface {
	Node
	stmt()
}

// CompoundStmt wraps a WhileStmt, IfStmt, or nested Block.
type CompoundStmt struct {
	SpanVal Span
	Child   Node // *WhileStmt | *IfStmt | *Block
}

func (n *CompoundStmt) Span() Span  { return n.SpanVal }
func (n *CompoundStmt) Kind() string { return "CompoundStmt" }
func (n *CompoundStmt) stmt()       {}

// SimpleStmt wraps a ReturnStmt or a bare Expr.
type SimpleStmt struct {
	SpanVal Span
	Child   Node // *ReturnStmt | Expr
}

func (n *SimpleStmt) Span() Span  { return n.SpanVal }
func (n *SimpleStmt) Kind() string { return "SimpleStmt" }
func (n *SimpleStmt) stmt()       {}

// WhileStmt loops while guard evaluates non-zero.
type WhileStmt struct {
	SpanVal Span
	Guard   Expr
	Body    *Block
}

func (n *WhileStmt) Span() Span  { return n.SpanVal }
func (n *WhileStmt) Kind() string { return "WhileStmt" }

// IfStmt runs Body once if guard evaluates non-zero.
type IfStmt struct {
	SpanVal Span
	Guard   Expr
	Body    *Block
}

func (n *IfStmt) Span() Span  { return n.SpanVal }
func (n *IfStmt) Kind() string { return "IfStmt" }

// ReturnStmt evaluates Child and returns its value from the enclosing
// function.
type ReturnStmt struct {
	SpanVal Span
	Child   Expr
}

func (n *ReturnStmt) Span() Span  { return n.SpanVal }
func (n *ReturnStmt) Kind() string { return "ReturnStmt" }

// Expr is implemented by every expression-position node: FnCall, Var,
// Lit, a parenthesized Expr, and Assign.
type Expr interface {
	Node
	expr()
}

// ParenExpr wraps another Expr to preserve explicit source-level
// parenthesization through code generation.
type ParenExpr struct {
	SpanVal Span
	Child   Expr
}

func (n *ParenExpr) Span() Span  { return n.SpanVal }
func (n *ParenExpr) Kind() string { return "Expr" }
func (n *ParenExpr) expr()       {}

// FnCall wraps a DefaultFnCall or an InfixFnCall.
type FnCall struct {
	SpanVal Span
	Child   Node // *DefaultFnCall | *InfixFnCall
}

func (n *FnCall) Span() Span  { return n.SpanVal }
func (n *FnCall) Kind() string { return "FnCall" }
func (n *FnCall) expr()       {}

// DefaultFnCall is name(args...).
type DefaultFnCall struct {
	SpanVal Span
	Name    string
	Args    []Expr
}

func (n *DefaultFnCall) Span() Span  { return n.SpanVal }
func (n *DefaultFnCall) Kind() string { return "DefaultFnCall" }

// InfixFnCall is name arg_1 arg_2, recognized grammatically but not
// lowered by the code generator.
type InfixFnCall struct {
	SpanVal Span
	Name    string
	Arg1    Expr
	Arg2    Expr
}

func (n *InfixFnCall) Span() Span  { return n.SpanVal }
func (n *InfixFnCall) Kind() string { return "InfixFnCall" }

// Assign is name = expr. It is itself an Expr: its value is the
// assigned value, so `x = (y = 1)` is legal.
type Assign struct {
	SpanVal Span
	Name    string
	Expr    Expr
}

func (n *Assign) Span() Span  { return n.SpanVal }
func (n *Assign) Kind() string { return "Assign" }
func (n *Assign) expr()       {}

// Var is a bare name reference.
type Var struct {
	SpanVal Span
	Name    string
}

func (n *Var) Span() Span  { return n.SpanVal }
func (n *Var) Kind() string { return "Var" }
func (n *Var) expr()       {}

// Lit wraps an IntLit or a StrLit.
type Lit struct {
	SpanVal Span
	Child   Node // *IntLit | *StrLit
}

func (n *Lit) Span() Span  { return n.SpanVal }
func (n *Lit) Kind() string { return "Lit" }
func (n *Lit) expr()       {}

// IntLit is a decimal integer literal.
type IntLit struct {
	SpanVal Span
	Value   int
}

func (n *IntLit) Span() Span  { return n.SpanVal }
func (n *IntLit) Kind() string { return "IntLit" }

// StrLit is a string literal. Timber's grammar (per spec.md's lowering
// rules) produces these only through code-generation-level interning;
// the parser does not yet have string literal syntax, so StrLit nodes
// are constructed directly by callers that embed strings (e.g. tests),
// not by Parse.
type StrLit struct {
	SpanVal Span
	Value   string
}

func (n *StrLit) Span() Span  { return n.SpanVal }
func (n *StrLit) Kind() string { return "StrLit" }
