package codegen

import (
	"fmt"
	"strings"

	"github.com/rmay/timber/pkg/vm"
)

// Dummy is the sentinel argument value written into a pending
// Jmp/JmpZ/JmpNZ/Call op until Link resolves its real target.
const Dummy int32 = -1

// Unit is a concatenable fragment of generated code: an instruction
// vector plus a symbolic label table (name -> op index) and a
// pending-jump table (op index -> name). Appending one Unit onto
// another shifts both maps by the host's current op count.
type Unit struct {
	Ctx         *Context
	Ops         []vm.Op
	TargetAddrs map[string]int
	JmpAddrs    map[int]string
}

// NewUnit returns an empty Unit sharing ctx.
func NewUnit(ctx *Context) *Unit {
	return &Unit{Ctx: ctx, TargetAddrs: map[string]int{}, JmpAddrs: map[int]string{}}
}

func (u *Unit) emit(op vm.Op) *Unit {
	u.Ops = append(u.Ops, op)
	return u
}

// TargetAddr records the instruction about to be emitted as the
// target of name.
func (u *Unit) TargetAddr(name string) *Unit {
	u.TargetAddrs[name] = len(u.Ops)
	return u
}

// JmpAddr records the instruction about to be emitted as a pending
// jump to name. Call this immediately before the Jmp/JmpZ/JmpNZ/Call
// builder it refers to.
func (u *Unit) JmpAddr(name string) *Unit {
	u.JmpAddrs[len(u.Ops)] = name
	return u
}

func (u *Unit) Halt() *Unit               { return u.emit(vm.Op{Kind: vm.Halt}) }
func (u *Unit) Push(v int32) *Unit        { return u.emit(vm.Op{Kind: vm.Push, Arg: v}) }
func (u *Unit) Pop() *Unit                { return u.emit(vm.Op{Kind: vm.Pop}) }
func (u *Unit) Rot() *Unit                { return u.emit(vm.Op{Kind: vm.Rot}) }
func (u *Unit) Dup() *Unit                { return u.emit(vm.Op{Kind: vm.Dup}) }
func (u *Unit) VLoad(off int32) *Unit     { return u.emit(vm.Op{Kind: vm.VLoad, Arg: off}) }
func (u *Unit) VStore(off int32) *Unit    { return u.emit(vm.Op{Kind: vm.VStore, Arg: off}) }
func (u *Unit) VIncr(off int32) *Unit     { return u.emit(vm.Op{Kind: vm.VIncr, Arg: off}) }
func (u *Unit) VDecr(off int32) *Unit     { return u.emit(vm.Op{Kind: vm.VDecr, Arg: off}) }
func (u *Unit) Call(addr int32) *Unit     { return u.emit(vm.Op{Kind: vm.Call, Arg: addr}) }
func (u *Unit) Ret() *Unit                { return u.emit(vm.Op{Kind: vm.Ret}) }
func (u *Unit) Jmp(addr int32) *Unit      { return u.emit(vm.Op{Kind: vm.Jmp, Arg: addr}) }
func (u *Unit) JmpZ(addr int32) *Unit     { return u.emit(vm.Op{Kind: vm.JmpZ, Arg: addr}) }
func (u *Unit) JmpNZ(addr int32) *Unit    { return u.emit(vm.Op{Kind: vm.JmpNZ, Arg: addr}) }
func (u *Unit) Add() *Unit                { return u.emit(vm.Op{Kind: vm.Add}) }
func (u *Unit) Sub() *Unit                { return u.emit(vm.Op{Kind: vm.Sub}) }
func (u *Unit) Shl() *Unit                { return u.emit(vm.Op{Kind: vm.Shl}) }
func (u *Unit) Shr() *Unit                { return u.emit(vm.Op{Kind: vm.Shr}) }
func (u *Unit) And() *Unit                { return u.emit(vm.Op{Kind: vm.And}) }
func (u *Unit) Or() *Unit                 { return u.emit(vm.Op{Kind: vm.Or}) }
func (u *Unit) Load() *Unit               { return u.emit(vm.Op{Kind: vm.Load}) }
func (u *Unit) Store() *Unit              { return u.emit(vm.Op{Kind: vm.Store}) }
func (u *Unit) Print() *Unit              { return u.emit(vm.Op{Kind: vm.Print}) }

// Append concatenates other onto u, shifting other's target and
// pending-jump tables by u's current op count. other's contents are
// moved, not shared.
func (u *Unit) Append(other *Unit) *Unit {
	shift := len(u.Ops)
	for name, idx := range other.TargetAddrs {
		u.TargetAddrs[name] = idx + shift
	}
	for idx, name := range other.JmpAddrs {
		u.JmpAddrs[idx+shift] = name
	}
	u.Ops = append(u.Ops, other.Ops...)
	return u
}

// Extend appends every unit in units onto u, in order.
func (u *Unit) Extend(units []*Unit) *Unit {
	for _, o := range units {
		u.Append(o)
	}
	return u
}

// Entrypoint returns a new Unit with `Call main; Halt` prepended
// ahead of u's own instructions.
func (u *Unit) Entrypoint() *Unit {
	entry := NewUnit(u.Ctx).JmpAddr("main").Call(Dummy).Halt()
	return entry.Append(u)
}

// Builtins appends short machine-level thunks exposing arithmetic,
// bitwise, memory, and I/O primitives to the source language:
// print_char, add, sub, shl, shr, and, or, mload, mstore. Each loads
// its arguments from the fixed frame offsets a leaf (zero-local)
// function sees them at, performs one VM op, and returns; print_char
// and mstore push a dummy 0 so their call still leaves exactly one
// value for the caller, matching every other expression.
func (u *Unit) Builtins() *Unit {
	arg0 := vm.ToPtr(1)
	arg1 := vm.ToPtr(2)

	u.TargetAddr("print_char").VLoad(arg0).Print().Push(0).Ret()
	u.TargetAddr("add").VLoad(arg0).VLoad(arg1).Add().Ret()
	u.TargetAddr("sub").VLoad(arg0).VLoad(arg1).Sub().Ret()
	u.TargetAddr("shl").VLoad(arg0).VLoad(arg1).Shl().Ret()
	u.TargetAddr("shr").VLoad(arg0).VLoad(arg1).Shr().Ret()
	u.TargetAddr("and").VLoad(arg0).VLoad(arg1).And().Ret()
	u.TargetAddr("or").VLoad(arg0).VLoad(arg1).Or().Ret()
	u.TargetAddr("mload").VLoad(arg0).Load().Ret()
	u.TargetAddr("mstore").VLoad(arg1).VLoad(arg0).Store().Push(0).Ret()
	return u
}

// Link resolves every pending symbolic jump to a concrete op index.
// The `-1` compensates for the unconditional pc += 1 every VM step
// performs, including after control-flow ops (spec.md section 4.3/4.4).
func (u *Unit) Link() error {
	for idx, name := range u.JmpAddrs {
		switch u.Ops[idx].Kind {
		case vm.Jmp, vm.JmpZ, vm.JmpNZ, vm.Call:
		default:
			return &CodegenError{Msg: fmt.Sprintf("pending jump at instruction %d is not a jump/call op", idx)}
		}
		target, ok := u.TargetAddrs[name]
		if !ok {
			return &CodegenError{Msg: fmt.Sprintf("Unknown target_addr: %s", name)}
		}
		u.Ops[idx].Arg = int32(target) - 1
	}
	return nil
}

// Runnable is a linked program: the instruction vector, an initial
// memory image pre-populated with interned string data, and the
// initial vtos past the static string region.
type Runnable struct {
	Ops  []vm.Op
	Mem  []byte
	VTOS int32
}

// VM builds a fresh virtual machine over this Runnable.
func (r *Runnable) VM(trace ...bool) *vm.VM {
	return vm.New(r.Ops, r.Mem, r.VTOS, trace...)
}

// Runnable links u and assembles its memory image.
func (u *Unit) Runnable() (*Runnable, error) {
	if err := u.Link(); err != nil {
		return nil, err
	}
	mem := u.Ctx.BuildMem(DefaultMemCapacity)
	return &Runnable{Ops: u.Ops, Mem: mem, VTOS: u.Ctx.NextFreeAddr()}, nil
}

// String renders the linked instruction listing: one op per line,
// with any label names targeting that address in a trailing column.
func (u *Unit) String() string {
	labelsAt := map[int][]string{}
	for name, idx := range u.TargetAddrs {
		labelsAt[idx] = append(labelsAt[idx], name)
	}
	var b strings.Builder
	for i, op := range u.Ops {
		line := fmt.Sprintf("%04d %s", i, op)
		if names, ok := labelsAt[i]; ok {
			line = fmt.Sprintf("%-28s %s", line, strings.Join(names, ","))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
