package codegen

import (
	"fmt"

	"github.com/rmay/timber/pkg/ast"
	"github.com/rmay/timber/pkg/vm"
)

// Namespace is a lexically scoped mapping of variable names to frame
// slot indices. Lookup walks outward through enclosing scopes, so the
// innermost binding always wins (shadowing).
type Namespace struct {
	parent  *Namespace
	indices map[string]int
	globals []*ast.VarDecl
}

// NewNamespace returns the program-level (global) namespace.
func NewNamespace() *Namespace {
	return &Namespace{indices: map[string]int{}}
}

// SetGlobals records the program's top-level var_decls. They are kept
// for completeness but never consulted by GetIndex/GetOffset lookups;
// lookup falls through only to locals, matching the reference
// implementation (spec.md 9.iii).
func (ns *Namespace) SetGlobals(decls []*ast.VarDecl) {
	ns.globals = decls
}

// PushBlock returns a fresh child scope inheriting this one.
func (ns *Namespace) PushBlock() *Namespace {
	return &Namespace{parent: ns, indices: map[string]int{}}
}

// Height is the number of frame slots consumed by this scope and all
// of its ancestors.
func (ns *Namespace) Height() int {
	h := len(ns.indices)
	if ns.parent != nil {
		h += ns.parent.Height()
	}
	return h
}

// SetVarDecls assigns each decl a contiguous frame slot index starting
// at this scope's height (so earlier scopes' slots settle below later
// ones), and rejects duplicate names within this one scope.
func (ns *Namespace) SetVarDecls(decls []*ast.VarDecl) error {
	start := ns.Height()
	for i, d := range decls {
		if _, exists := ns.indices[d.Name]; exists {
			return &CodegenError{Msg: fmt.Sprintf("duplicate variable name in scope: %s", d.Name)}
		}
		ns.indices[d.Name] = start + i
	}
	return nil
}

// GetIndex walks outward from this scope to find name's frame slot
// index.
func (ns *Namespace) GetIndex(name string) (int, bool) {
	for cur := ns; cur != nil; cur = cur.parent {
		if idx, ok := cur.indices[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// GetOffset translates name's frame slot index into a byte offset
// relative to the current vtos: to_ptr(1+index) accounts for the
// saved-PC slot at offset 0, and subtracting the active function's
// frame size converts "index within the callee's own frame" into
// "offset measured from the already-VIncr'd vtos" (spec.md section
// 4.3's frame layout).
func (ns *Namespace) GetOffset(name string, ctx *Context) (int32, error) {
	idx, ok := ns.GetIndex(name)
	if !ok {
		return 0, &CodegenError{Msg: fmt.Sprintf("unknown identifier: %s", name)}
	}
	return vm.ToPtr(1+idx) - ctx.StackPtrOffset, nil
}
