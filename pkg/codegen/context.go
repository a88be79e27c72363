// Package codegen lowers a Timber AST to a Unit — an instruction
// vector plus symbolic label tables — and links that Unit into a
// runnable program.
package codegen

import (
	"fmt"

	"github.com/rmay/timber/pkg/vm"
)

// CodegenError reports an unknown label at link time, an unknown
// identifier at lookup, duplicate names within one scope, or an
// unreachable/unsupported AST shape (e.g. an infix call).
type CodegenError struct {
	Msg string
}

func (e *CodegenError) Error() string { return "codegen error: " + e.Msg }

// DefaultMemCapacity is the size of the memory image a Runnable
// program is built against.
const DefaultMemCapacity = 1024 * vm.WordSize

// strLitAddr is the first word-aligned address available for string
// interning; address 0 is reserved (the VM treats it as NULL).
const strLitAddr = vm.WordSize

// Context carries the per-compilation state threaded through code
// generation: the current function's frame size, the string
// interning table, and a counter minting unique control-flow labels.
type Context struct {
	StackPtrOffset int32

	strAddrs      map[string]int32
	strAddrOffset int32
	labelCounter  int
}

// NewContext returns a Context with its string region starting right
// after the reserved NULL word.
func NewContext() *Context {
	return &Context{
		strAddrs:      map[string]int32{},
		strAddrOffset: strLitAddr,
	}
}

// SetStackPtrOffset records the byte size of the function currently
// being generated, used by Namespace.GetOffset to translate frame
// slot indices into vtos-relative offsets.
func (c *Context) SetStackPtrOffset(offset int32) { c.StackPtrOffset = offset }

// StrLit interns s (plus a NUL terminator) into the memory image,
// returning its address. Repeated interning of the same string
// returns the same address.
func (c *Context) StrLit(s string) int32 {
	if addr, ok := c.strAddrs[s]; ok {
		return addr
	}
	addr := c.strAddrOffset
	c.strAddrs[s] = addr
	words := (len(s) + 1 + vm.WordSize - 1) / vm.WordSize
	c.strAddrOffset += int32(words) * vm.WordSize
	return addr
}

// NextFreeAddr is the first word-aligned address past the static
// string region — the initial vtos of a Runnable program.
func (c *Context) NextFreeAddr() int32 { return c.strAddrOffset }

// FreshLabel mints a label name unique within this Context, used for
// while/if guard and join points. The reference implementation used a
// random uuid4 per label; uniqueness, not randomness, is what label
// names actually need, so this uses a monotonic counter instead.
func (c *Context) FreshLabel(prefix string) string {
	c.labelCounter++
	return fmt.Sprintf("%s_%d", prefix, c.labelCounter)
}

// BuildMem allocates a capacity-byte memory image and writes every
// interned string literal into it at its reserved address.
func (c *Context) BuildMem(capacity int32) []byte {
	mem := make([]byte, capacity)
	for s, addr := range c.strAddrs {
		copy(mem[addr:], s)
		mem[int(addr)+len(s)] = 0
	}
	return mem
}
