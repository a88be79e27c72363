package codegen

import (
	"fmt"

	"github.com/rmay/timber/pkg/ast"
	"github.com/rmay/timber/pkg/vm"
)

// GenProgram lowers an entire program to a Unit: every FnDef's code,
// the builtin thunks, and an entrypoint that calls `main` before
// halting. The Unit is returned unlinked; Link or Runnable resolves
// its pending jumps.
func GenProgram(prog *ast.Program) (*Unit, error) {
	ctx := NewContext()
	globals := NewNamespace()
	globals.SetGlobals(prog.VarDecls)

	body := NewUnit(ctx)
	for _, fn := range prog.FnDefs {
		fnUnit, err := genFnDef(fn, ctx, globals)
		if err != nil {
			return nil, err
		}
		body.Append(fnUnit)
	}
	body.Builtins()
	return body.Entrypoint(), nil
}

// stackRequired computes a node's frame size in words: nargs plus the
// body's requirement for a FnDef; the max over statements plus local
// count for a Block; passthrough for compound/simple statements and
// while/if bodies; an error for Program (frame size is only defined
// per-function); zero otherwise.
func stackRequired(n ast.Node) (int, error) {
	switch v := n.(type) {
	case *ast.FnDef:
		bodyWords, err := stackRequired(v.Body)
		if err != nil {
			return 0, err
		}
		return len(v.ArgDecls) + bodyWords, nil
	case *ast.Block:
		max := 0
		for _, s := range v.Stmts {
			w, err := stackRequired(s)
			if err != nil {
				return 0, err
			}
			if w > max {
				max = w
			}
		}
		return len(v.VarDecls) + max, nil
	case *ast.CompoundStmt:
		return stackRequired(v.Child)
	case *ast.SimpleStmt:
		return stackRequired(v.Child)
	case *ast.WhileStmt:
		return stackRequired(v.Body)
	case *ast.IfStmt:
		return stackRequired(v.Body)
	case *ast.Program:
		return 0, &CodegenError{Msg: "stack_required is undefined for Program"}
	default:
		return 0, nil
	}
}

func genFnDef(fn *ast.FnDef, ctx *Context, parent *Namespace) (*Unit, error) {
	ns := parent.PushBlock()
	if err := ns.SetVarDecls(fn.ArgDecls); err != nil {
		return nil, err
	}

	frameWords, err := stackRequired(fn)
	if err != nil {
		return nil, err
	}
	frameBytes := vm.ToPtr(frameWords + 1) // +1 word for the saved return PC
	ctx.SetStackPtrOffset(frameBytes)

	bodyUnit, err := genBlock(fn.Body, ctx, ns)
	if err != nil {
		return nil, err
	}

	u := NewUnit(ctx)
	u.TargetAddr(fn.Name)
	u.VIncr(frameBytes)
	u.Append(bodyUnit)
	u.VDecr(frameBytes)
	u.Ret()
	return u, nil
}

func genBlock(b *ast.Block, ctx *Context, parent *Namespace) (*Unit, error) {
	ns := parent.PushBlock()
	if err := ns.SetVarDecls(b.VarDecls); err != nil {
		return nil, err
	}
	u := NewUnit(ctx)
	for _, stmt := range b.Stmts {
		su, err := genStmt(stmt, ctx, ns)
		if err != nil {
			return nil, err
		}
		u.Append(su)
	}
	return u, nil
}

func genStmt(s ast.Stmt, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := s.(type) {
	case *ast.CompoundStmt:
		return genCompoundStmt(v, ctx, ns)
	case *ast.SimpleStmt:
		return genSimpleStmt(v, ctx, ns)
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable statement shape: %T", s)}
	}
}

func genCompoundStmt(s *ast.CompoundStmt, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := s.Child.(type) {
	case *ast.WhileStmt:
		return genWhileStmt(v, ctx, ns)
	case *ast.IfStmt:
		return genIfStmt(v, ctx, ns)
	case *ast.Block:
		return genBlock(v, ctx, ns)
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable compound statement shape: %T", v)}
	}
}

func genSimpleStmt(s *ast.SimpleStmt, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := s.Child.(type) {
	case *ast.ReturnStmt:
		return genReturnStmt(v, ctx, ns)
	case ast.Expr:
		u, err := genExpr(v, ctx, ns)
		if err != nil {
			return nil, err
		}
		u.Pop() // statement-position expressions discard their value
		return u, nil
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable simple statement shape: %T", v)}
	}
}

func genReturnStmt(r *ast.ReturnStmt, ctx *Context, ns *Namespace) (*Unit, error) {
	u, err := genExpr(r.Child, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.VDecr(ctx.StackPtrOffset)
	u.Ret()
	return u, nil
}

func genWhileStmt(w *ast.WhileStmt, ctx *Context, ns *Namespace) (*Unit, error) {
	guardLabel := ctx.FreshLabel("while_guard")
	startLabel := ctx.FreshLabel("while_start")

	u := NewUnit(ctx)
	u.JmpAddr(guardLabel).Jmp(Dummy)
	u.TargetAddr(startLabel)

	bodyUnit, err := genBlock(w.Body, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.Append(bodyUnit)

	u.TargetAddr(guardLabel)
	guardUnit, err := genExpr(w.Guard, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.Append(guardUnit)
	u.JmpAddr(startLabel).JmpNZ(Dummy)
	return u, nil
}

func genIfStmt(s *ast.IfStmt, ctx *Context, ns *Namespace) (*Unit, error) {
	endLabel := ctx.FreshLabel("if_end")

	u := NewUnit(ctx)
	guardUnit, err := genExpr(s.Guard, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.Append(guardUnit)
	u.JmpAddr(endLabel).JmpZ(Dummy)

	bodyUnit, err := genBlock(s.Body, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.Append(bodyUnit)
	u.TargetAddr(endLabel)
	return u, nil
}

func genExpr(e ast.Expr, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := e.(type) {
	case *ast.FnCall:
		return genFnCall(v, ctx, ns)
	case *ast.Var:
		return genVar(v, ctx, ns)
	case *ast.Lit:
		return genLit(v, ctx, ns)
	case *ast.ParenExpr:
		return genExpr(v.Child, ctx, ns)
	case *ast.Assign:
		return genAssign(v, ctx, ns)
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable expression shape: %T", e)}
	}
}

func genFnCall(c *ast.FnCall, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := c.Child.(type) {
	case *ast.DefaultFnCall:
		return genDefaultFnCall(v, ctx, ns)
	case *ast.InfixFnCall:
		return nil, &CodegenError{Msg: "infix function calls are not implemented"}
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable function call shape: %T", v)}
	}
}

// genDefaultFnCall lowers `name(args...)`: each argument is evaluated
// and stored into the callee's slot at offset (i+1)*WORD relative to
// the *current* vtos, which becomes the callee's arg_i once Call
// saves the return PC at offset 0 and the callee performs its VIncr.
func genDefaultFnCall(c *ast.DefaultFnCall, ctx *Context, ns *Namespace) (*Unit, error) {
	u := NewUnit(ctx)
	for i, arg := range c.Args {
		argUnit, err := genExpr(arg, ctx, ns)
		if err != nil {
			return nil, err
		}
		u.Append(argUnit)
		u.VStore(vm.ToPtr(i + 1))
	}
	u.JmpAddr(c.Name).Call(Dummy)
	return u, nil
}

func genVar(v *ast.Var, ctx *Context, ns *Namespace) (*Unit, error) {
	offset, err := ns.GetOffset(v.Name, ctx)
	if err != nil {
		return nil, err
	}
	return NewUnit(ctx).VLoad(offset), nil
}

func genAssign(a *ast.Assign, ctx *Context, ns *Namespace) (*Unit, error) {
	u, err := genExpr(a.Expr, ctx, ns)
	if err != nil {
		return nil, err
	}
	u.Dup() // leave a copy as the expression's own value
	offset, err := ns.GetOffset(a.Name, ctx)
	if err != nil {
		return nil, err
	}
	u.VStore(offset)
	return u, nil
}

func genLit(l *ast.Lit, ctx *Context, ns *Namespace) (*Unit, error) {
	switch v := l.Child.(type) {
	case *ast.IntLit:
		return NewUnit(ctx).Push(int32(v.Value)), nil
	case *ast.StrLit:
		addr := ctx.StrLit(v.Value)
		return NewUnit(ctx).Push(addr), nil
	default:
		return nil, &CodegenError{Msg: fmt.Sprintf("unreachable literal shape: %T", v)}
	}
}
