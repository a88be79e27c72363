package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMem(words int) []byte {
	return make([]byte, ToPtr(words))
}

func TestPushThenHalt(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 42}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))

	cont, err := m.Step()
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, []int32{42}, m.Stack)

	cont, err = m.Step()
	require.NoError(t, err)
	assert.False(t, cont)
	assert.True(t, m.Halted)
}

func TestStepAfterHaltErrors(t *testing.T) {
	ops := []Op{{Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	_, err := m.Step()
	require.NoError(t, err)
	_, err = m.Step()
	require.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 2}, {Kind: Push, Arg: 3}, {Kind: Add}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Equal(t, []int32{5}, m.Stack)
}

func TestRotSwapsTopTwo(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 1}, {Kind: Push, Arg: 2}, {Kind: Push, Arg: 3}, {Kind: Rot}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Equal(t, []int32{1, 3, 2}, m.Stack)
}

func TestDup(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 7}, {Kind: Dup}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Equal(t, []int32{7, 7}, m.Stack)
}

func TestStackUnderflow(t *testing.T) {
	ops := []Op{{Kind: Add}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	_, err := m.Step()
	require.Error(t, err)
	var vmErr *VMError
	assert.ErrorAs(t, err, &vmErr)
}

func TestMemoryRoundTrip(t *testing.T) {
	ops := []Op{
		{Kind: Push, Arg: 1234}, {Kind: Push, Arg: 8}, {Kind: Store},
		{Kind: Push, Arg: 8}, {Kind: Load}, {Kind: Halt},
	}
	m := New(ops, newTestMem(8), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Equal(t, []int32{1234}, m.Stack)
}

func TestNullPointerDeref(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 0}, {Kind: Load}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.Error(t, m.Run())
}

func TestMisalignedAddress(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 3}, {Kind: Load}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.Error(t, m.Run())
}

func TestOutOfBoundsAddress(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 1000}, {Kind: Load}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.Error(t, m.Run())
}

func TestCallRetRoundTrip(t *testing.T) {
	// 0: Jmp -> 2 (skip over callee body), 1: Ret, 2: Call -> 1, 3: Halt.
	// Args are target-1 because the VM increments pc after every op.
	ops := []Op{
		{Kind: Jmp, Arg: 1},
		{Kind: Ret},
		{Kind: Call, Arg: 0},
		{Kind: Halt},
	}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.True(t, m.Halted)
}

func TestJmpZSkipsWhenZero(t *testing.T) {
	ops := []Op{
		{Kind: Push, Arg: 0},
		{Kind: JmpZ, Arg: 2}, // lands on index 3 after pc += 1
		{Kind: Push, Arg: 99},
		{Kind: Halt},
	}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Empty(t, m.Stack)
}

func TestJmpNZTakesBranchWhenNonZero(t *testing.T) {
	ops := []Op{
		{Kind: Push, Arg: 1},
		{Kind: JmpNZ, Arg: 3}, // lands on index 4 after pc += 1
		{Kind: Push, Arg: 99},
		{Kind: Halt},
		{Kind: Halt},
	}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Empty(t, m.Stack)
}

func TestVIncrVDecrFrameConservation(t *testing.T) {
	ops := []Op{
		{Kind: VIncr, Arg: ToPtr(2)},
		{Kind: VDecr, Arg: ToPtr(2)},
		{Kind: Halt},
	}
	start := ToPtr(4)
	m := New(ops, newTestMem(8), start)
	require.NoError(t, m.Run())
	assert.Equal(t, start, m.VTOS)
}

func TestVLoadVStore(t *testing.T) {
	ops := []Op{
		{Kind: Push, Arg: 55},
		{Kind: VStore, Arg: ToPtr(1)},
		{Kind: VLoad, Arg: ToPtr(1)},
		{Kind: Halt},
	}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.NoError(t, m.Run())
	assert.Equal(t, []int32{55}, m.Stack)
}

func TestPCSafety(t *testing.T) {
	ops := []Op{{Kind: Jmp, Arg: 50}}
	m := New(ops, newTestMem(4), ToPtr(1))
	require.Error(t, m.Run())
}

func TestDbgStepsOnBlankLine(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 1}, {Kind: Push, Arg: 2}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	in := strings.NewReader("\n\nq\n")
	var out strings.Builder
	require.NoError(t, m.Dbg(in, &out, false))
	assert.Contains(t, out.String(), "stack=[1]")
}

func TestDbgInspectsMemoryWithoutStepping(t *testing.T) {
	ops := []Op{{Kind: Push, Arg: 9}, {Kind: VStore, Arg: 0}, {Kind: Halt}}
	m := New(ops, newTestMem(4), ToPtr(1))
	_, err := m.Step() // Push 9
	require.NoError(t, err)
	_, err = m.Step() // VStore 0 -> mem[vtos+0] = 9
	require.NoError(t, err)

	in := strings.NewReader("1\nq\n")
	var out strings.Builder
	require.NoError(t, m.Dbg(in, &out, false))
	assert.Contains(t, out.String(), "mem[4] = 9")
}
