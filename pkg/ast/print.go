package ast

import (
	"fmt"
	"strings"
)

// Print renders the full pretty-printed AST, one line per node:
// "START_TOK END_TOK  <indent>KIND fields", matching the `ast`
// subcommand's output format.
func Print(n Node) string {
	var b strings.Builder
	fmtNode(&b, n, 0)
	return b.String()
}

func fmtNode(b *strings.Builder, n Node, lvl int) {
	if n == nil {
		return
	}
	sp := n.Span()
	fmt.Fprintf(b, "%03d %03d  %s%s%s\n", sp.Start, sp.End, strings.Repeat("  ", lvl), n.Kind(), fields(n))

	switch v := n.(type) {
	case *Program:
		for _, d := range v.VarDecls {
			fmtNode(b, d, lvl+1)
		}
		for _, f := range v.FnDefs {
			fmtNode(b, f, lvl+1)
		}
	case *FnDef:
		for _, d := range v.ArgDecls {
			fmtNode(b, d, lvl+1)
		}
		fmtNode(b, v.Body, lvl+1)
	case *Block:
		for _, d := range v.VarDecls {
			fmtNode(b, d, lvl+1)
		}
		for _, s := range v.Stmts {
			fmtNode(b, s, lvl+1)
		}
	case *CompoundStmt:
		fmtNode(b, v.Child, lvl+1)
	case *SimpleStmt:
		fmtNode(b, v.Child, lvl+1)
	case *WhileStmt:
		fmtNode(b, v.Guard, lvl+1)
		fmtNode(b, v.Body, lvl+1)
	case *IfStmt:
		fmtNode(b, v.Guard, lvl+1)
		fmtNode(b, v.Body, lvl+1)
	case *ReturnStmt:
		fmtNode(b, v.Child, lvl+1)
	case *ParenExpr:
		fmtNode(b, v.Child, lvl+1)
	case *FnCall:
		fmtNode(b, v.Child, lvl+1)
	case *DefaultFnCall:
		for _, a := range v.Args {
			fmtNode(b, a, lvl+1)
		}
	case *InfixFnCall:
		fmtNode(b, v.Arg1, lvl+1)
		fmtNode(b, v.Arg2, lvl+1)
	case *Assign:
		fmtNode(b, v.Expr, lvl+1)
	case *Lit:
		fmtNode(b, v.Child, lvl+1)
	}
}

// fields renders a node's leaf-level scalar fields, appended after its
// Kind on the same line (e.g. "Var name=n", "IntLit value=10").
func fields(n Node) string {
	switch v := n.(type) {
	case *VarDecl:
		return fmt.Sprintf(" name=%s", v.Name)
	case *FnDef:
		return fmt.Sprintf(" name=%s", v.Name)
	case *DefaultFnCall:
		return fmt.Sprintf(" name=%s", v.Name)
	case *InfixFnCall:
		return fmt.Sprintf(" name=%s", v.Name)
	case *Assign:
		return fmt.Sprintf(" name=%s", v.Name)
	case *Var:
		return fmt.Sprintf(" name=%s", v.Name)
	case *IntLit:
		return fmt.Sprintf(" value=%d", v.Value)
	case *StrLit:
		return fmt.Sprintf(" value=%q", v.Value)
	}
	return ""
}
