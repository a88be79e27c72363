package vm

import "fmt"

// OpKind identifies one instruction. The set matches spec section 3's
// Op table exactly.
type OpKind int

const (
	Halt OpKind = iota
	Push
	Pop
	Rot
	Dup
	VLoad
	VStore
	VIncr
	VDecr
	Call
	Ret
	Jmp
	JmpZ
	JmpNZ
	Add
	Sub
	Shl
	Shr
	And
	Or
	Load
	Store
	Print
)

var opNames = map[OpKind]string{
	Halt: "HALT", Push: "PUSH", Pop: "POP", Rot: "ROT", Dup: "DUP",
	VLoad: "VLOAD", VStore: "VSTORE", VIncr: "VINCR", VDecr: "VDECR",
	Call: "CALL", Ret: "RET", Jmp: "JMP", JmpZ: "JMPZ", JmpNZ: "JMPNZ",
	Add: "ADD", Sub: "SUB", Shl: "SHL", Shr: "SHR", And: "AND", Or: "OR",
	Load: "LOAD", Store: "STORE", Print: "PRINT",
}

// String renders an OpKind's mnemonic, as used in asm listings and
// trace output.
func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// hasArg reports whether an op carries a meaningful immediate operand,
// used only to decide whether the asm listing prints one.
func (k OpKind) hasArg() bool {
	switch k {
	case Halt, Pop, Rot, Dup, Add, Sub, Shl, Shr, And, Or, Load, Store, Ret, Print:
		return false
	default:
		return true
	}
}

// Op is one linked or pending instruction: its kind, and an immediate
// argument meaningful for Push/VLoad/VStore/VIncr/VDecr/Jmp*/Call.
type Op struct {
	Kind OpKind
	Arg  int32
}

// String renders "KIND ARG" (or bare "KIND" when the op carries no
// argument), the per-instruction half of the asm listing format.
func (o Op) String() string {
	if o.Kind.hasArg() {
		return fmt.Sprintf("%-7s %d", o.Kind, o.Arg)
	}
	return fmt.Sprintf("%-7s", o.Kind)
}
