package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChunkSeedsReservedConstants(t *testing.T) {
	c := NewChunk()

	require.Equal(t, true, c.Constants[0])
	require.Equal(t, false, c.Constants[1])
	require.Nil(t, c.Constants[2])
	require.Len(t, c.Constants, 3)
}

func TestAddConstantReturnsSlotPastReserved(t *testing.T) {
	c := NewChunk()

	idx := c.AddConstant(int64(42))

	require.Equal(t, 3, idx)
	require.Equal(t, int64(42), c.Constants[idx])
}

func TestPushAndPatchInstruction(t *testing.T) {
	c := NewChunk()

	slot := c.PushInstruction(OpDummy, nil, 1)
	require.Equal(t, 0, slot)
	require.True(t, c.HasDummy())

	c.PatchInstruction(slot, OpJump, 5)

	require.False(t, c.HasDummy())
	require.Equal(t, OpJump, c.Code[slot].Op)
	require.Equal(t, 5, c.Code[slot].Operand)
}

func TestLenTracksInstructionCount(t *testing.T) {
	c := NewChunk()
	require.Equal(t, 0, c.Len())

	c.PushInstruction(OpPop, nil, 1)
	c.PushInstruction(OpPop, nil, 1)

	require.Equal(t, 2, c.Len())
}
