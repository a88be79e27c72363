// Package vm implements Timber's stack/register-hybrid byte-addressed
// virtual machine: a linked instruction vector runs against a fixed
// byte memory, a value stack, a program counter, and a frame base
// pointer (vtos).
package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WordSize is the byte width of one machine word (MWORD_SIZE in the
// reference; 4 here, matching it).
const WordSize = 4

// ToPtr converts a word-index to a byte offset.
func ToPtr(words int) int32 { return int32(words) * WordSize }

// VMError reports a runtime fault: stack underflow, an out-of-bounds
// or misaligned memory address, a NULL pointer dereference, an
// invalid PC, or stepping after Halt.
type VMError struct {
	Msg string
}

func (e *VMError) Error() string { return "vm error: " + e.Msg }

// VM holds the complete machine state described in spec.md section 3.
type VM struct {
	Ops    []Op
	PC     int
	VTOS   int32
	Stack  []int32
	Mem    []byte
	Halted bool
	Trace  bool
}

// New constructs a VM ready to run ops against mem, starting execution
// at instruction 0 with the given initial frame base.
func New(ops []Op, mem []byte, initialVTOS int32, trace ...bool) *VM {
	traceEnabled := false
	if len(trace) > 0 {
		traceEnabled = trace[0]
	}
	return &VM{
		Ops:   ops,
		PC:    0,
		VTOS:  initialVTOS,
		Stack: make([]int32, 0, 64),
		Mem:   mem,
		Trace: traceEnabled,
	}
}

func (vm *VM) checkPC(pc int) error {
	if pc < 0 || pc >= len(vm.Ops) {
		return &VMError{Msg: fmt.Sprintf("pc out of bounds: %d (len=%d)", pc, len(vm.Ops))}
	}
	return nil
}

func (vm *VM) checkPtr(p int32) error {
	if p == 0 {
		return &VMError{Msg: "NULL pointer dereference"}
	}
	if p < 0 || int(p)+WordSize > len(vm.Mem) {
		return &VMError{Msg: fmt.Sprintf("address out of bounds: %d (mem size %d)", p, len(vm.Mem))}
	}
	if p%WordSize != 0 {
		return &VMError{Msg: fmt.Sprintf("misaligned address: %d", p)}
	}
	return nil
}

// loadWord reads one little-endian word from mem[p:p+WordSize].
func (vm *VM) loadWord(p int32) (int32, error) {
	if err := vm.checkPtr(p); err != nil {
		return 0, err
	}
	var val int32
	for i := 0; i < WordSize; i++ {
		val |= int32(vm.Mem[int(p)+i]) << (8 * i)
	}
	return val, nil
}

// storeWord writes one little-endian word to mem[p:p+WordSize].
func (vm *VM) storeWord(p int32, v int32) error {
	if err := vm.checkPtr(p); err != nil {
		return err
	}
	for i := 0; i < WordSize; i++ {
		shift := uint(8 * i)
		vm.Mem[int(p)+i] = byte((v >> shift) & 0xFF)
	}
	return nil
}

func (vm *VM) pop() (int32, error) {
	if len(vm.Stack) < 1 {
		return 0, &VMError{Msg: "stack underflow: need 1 value"}
	}
	v := vm.Stack[len(vm.Stack)-1]
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	return v, nil
}

func (vm *VM) push(v int32) {
	vm.Stack = append(vm.Stack, v)
}

// Step executes a single instruction. cont is false once the machine
// has halted or run off the end of ops; it never steps past Halt. A
// taken Jmp/JmpZ/JmpNZ/Call/Ret that lands outside ops is an error.
func (vm *VM) Step() (cont bool, err error) {
	if vm.Halted {
		return false, &VMError{Msg: "stepped after halt"}
	}
	if err := vm.checkPC(vm.PC); err != nil {
		return false, err
	}

	op := vm.Ops[vm.PC]
	prev := vm.PC
	if vm.Trace {
		fmt.Fprintf(os.Stderr, "vm: pc=%d op=%s arg=%d stack=%v vtos=%d\n", vm.PC, op.Kind, op.Arg, vm.Stack, vm.VTOS)
	}

	switch op.Kind {
	case Halt:
		vm.Halted = true
		return false, nil

	case Push:
		vm.push(op.Arg)

	case Pop:
		if _, err := vm.pop(); err != nil {
			return false, err
		}

	case Rot:
		// Swap the top two elements. spec.md 9.i: the reference swaps
		// an absolute index (a bug); this implements the intended
		// behavior instead.
		if len(vm.Stack) < 2 {
			return false, &VMError{Msg: "stack underflow: need 2 values for ROT"}
		}
		n := len(vm.Stack)
		vm.Stack[n-1], vm.Stack[n-2] = vm.Stack[n-2], vm.Stack[n-1]

	case Dup:
		if len(vm.Stack) < 1 {
			return false, &VMError{Msg: "stack underflow: need 1 value for DUP"}
		}
		vm.push(vm.Stack[len(vm.Stack)-1])

	case Add, Sub, Shl, Shr, And, Or:
		b, err := vm.pop()
		if err != nil {
			return false, err
		}
		a, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.push(applyBinop(op.Kind, a, b))

	case Load:
		p, err := vm.pop()
		if err != nil {
			return false, err
		}
		v, err := vm.loadWord(p)
		if err != nil {
			return false, err
		}
		vm.push(v)

	case Store:
		p, err := vm.pop()
		if err != nil {
			return false, err
		}
		v, err := vm.pop()
		if err != nil {
			return false, err
		}
		if err := vm.storeWord(p, v); err != nil {
			return false, err
		}

	case VLoad:
		v, err := vm.loadWord(vm.VTOS + op.Arg)
		if err != nil {
			return false, err
		}
		vm.push(v)

	case VStore:
		v, err := vm.pop()
		if err != nil {
			return false, err
		}
		if err := vm.storeWord(vm.VTOS+op.Arg, v); err != nil {
			return false, err
		}

	case VIncr:
		vm.VTOS += op.Arg

	case VDecr:
		vm.VTOS -= op.Arg

	case Call:
		if err := vm.storeWord(vm.VTOS, int32(vm.PC)); err != nil {
			return false, err
		}
		vm.PC = int(op.Arg)

	case Ret:
		savedPC, err := vm.loadWord(vm.VTOS)
		if err != nil {
			return false, err
		}
		vm.PC = int(savedPC)

	case Jmp:
		vm.PC = int(op.Arg)

	case JmpZ:
		g, err := vm.pop()
		if err != nil {
			return false, err
		}
		if g == 0 {
			vm.PC = int(op.Arg)
		}

	case JmpNZ:
		g, err := vm.pop()
		if err != nil {
			return false, err
		}
		if g != 0 {
			vm.PC = int(op.Arg)
		}

	case Print:
		if len(vm.Stack) < 1 {
			return false, &VMError{Msg: "stack underflow: need 1 value for PRINT"}
		}
		fmt.Fprintf(os.Stdout, "%c", rune(vm.Stack[len(vm.Stack)-1]))

	default:
		return false, &VMError{Msg: fmt.Sprintf("unknown opcode %d at pc=%d", op.Kind, vm.PC)}
	}

	vm.PC++
	if vm.PC != prev+1 {
		if err := vm.checkPC(vm.PC); err != nil {
			return false, err
		}
	}
	return !vm.Halted && vm.PC < len(vm.Ops), nil
}

func applyBinop(k OpKind, a, b int32) int32 {
	switch k {
	case Add:
		return a + b
	case Sub:
		return a - b
	case Shl:
		return a << uint(b)
	case Shr:
		return a >> uint(b)
	case And:
		return a & b
	case Or:
		return a | b
	}
	panic("applyBinop: not a binary op")
}

// Run executes instructions until Halt, a fault, or execution falling
// off the end of ops (which returns nil without setting Halted).
func (vm *VM) Run() error {
	for {
		cont, err := vm.Step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// Dbg runs the interactive step debugger described in spec.md section
// 6: before each step it prints the value stack; a blank line steps,
// an integer k prints mem[k*WordSize] and re-prompts without
// stepping, and EOF or "q" ends the session.
func (vm *VM) Dbg(in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for !vm.Halted {
		if err := vm.checkPC(vm.PC); err != nil {
			return err
		}
		fmt.Fprintf(out, "stack=%v vtos=%d pc=%d %s\n", vm.Stack, vm.VTOS, vm.PC, vm.Ops[vm.PC])
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" {
			return nil
		}
		if line != "" {
			k, err := strconv.Atoi(line)
			if err == nil {
				v, loadErr := vm.loadWord(ToPtr(k))
				if loadErr != nil {
					fmt.Fprintf(out, "error: %v\n", loadErr)
				} else {
					fmt.Fprintf(out, "mem[%d] = %d\n", k*WordSize, v)
				}
				continue
			}
		}
		if _, err := vm.Step(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "halted, stack=%v\n", vm.Stack)
	return nil
}

// DebugInfo dumps machine state for error reporting, in the teacher's
// DebugInfo() style.
func (vm *VM) DebugInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PC: %d\n", vm.PC)
	fmt.Fprintf(&b, "VTOS: %d\n", vm.VTOS)
	fmt.Fprintf(&b, "Stack: %v (depth %d)\n", vm.Stack, len(vm.Stack))
	fmt.Fprintf(&b, "Mem size: %d\n", len(vm.Mem))
	if vm.PC >= 0 && vm.PC < len(vm.Ops) {
		fmt.Fprintf(&b, "Current op: %s\n", vm.Ops[vm.PC])
	}
	start := vm.PC - 3
	if start < 0 {
		start = 0
	}
	end := vm.PC + 4
	if end > len(vm.Ops) {
		end = len(vm.Ops)
	}
	fmt.Fprintln(&b, "Ops around PC:")
	for i := start; i < end; i++ {
		marker := " "
		if i == vm.PC {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %04d: %s\n", marker, i, vm.Ops[i])
	}
	return b.String()
}
