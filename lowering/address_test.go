package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfoof/VC4C/ir"
)

func TestAddressToOffsetZeroWhenPtrIsBaseItself(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	out, next, err := AddressToOffset(m, b.Begin(), base, nil, ir.LocalValue(base))
	require.NoError(t, err)
	assert.True(t, next.IsEndOfBlock())

	lit, ok := out.GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(0), lit.Unsigned())
	assert.Equal(t, 0, b.Size())
}

func TestAddressToOffsetRecognizesAddOfBasePlusOffset(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	idx := m.AddNewLocal("idx", ir.TypeInt32)
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	addInstr := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(ptr), ir.LocalValue(base), ir.LocalValue(idx)))

	out, _, err := AddressToOffset(m, b.End(), base, nil, ir.LocalValue(ptr))
	require.NoError(t, err)
	assert.True(t, out.HasLocal(idx))
	assert.Equal(t, 1, b.Size(), "the existing add is reused, nothing new is emitted")
	_ = addInstr
}

func TestAddressToOffsetRecognizesAddWithBaseSecond(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	idx := m.AddNewLocal("idx", ir.TypeInt32)
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(ptr), ir.LocalValue(idx), ir.LocalValue(base)))

	out, _, err := AddressToOffset(m, b.End(), base, nil, ir.LocalValue(ptr))
	require.NoError(t, err)
	assert.True(t, out.HasLocal(idx))
}

func TestAddressToOffsetFallsBackToSubtraction(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	b.Append(ir.NewOperation(ir.OpCall, ir.LocalValue(ptr)))

	out, next, err := AddressToOffset(m, b.End(), base, nil, ir.LocalValue(ptr))
	require.NoError(t, err)
	assert.True(t, next.IsEndOfBlock())

	instrs := b.Instructions()
	require.Len(t, instrs, 2)
	assert.Equal(t, ir.OpSub, instrs[1].Op)
	assert.True(t, out.HasLocal(instrs[1].Output()))
}

func TestAddressToOffsetDiscountsMemWriterAmongTwoWriters(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	idx := m.AddNewLocal("idx", ir.TypeInt32)
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	addInstr := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(ptr), ir.LocalValue(base), ir.LocalValue(idx)))
	memWriter := b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(ptr), ir.LocalValue(ptr)))

	out, _, err := AddressToOffset(m, b.End(), base, memWriter, ir.LocalValue(ptr))
	require.NoError(t, err)
	assert.True(t, out.HasLocal(idx))
	_ = addInstr
}

func TestAddressToStackOffsetSharedPassesThrough(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	out, _, err := AddressToStackOffset(m, b.Begin(), base, MemoryAccessShared, nil, ir.LocalValue(base))
	require.NoError(t, err)
	lit, ok := out.GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(0), lit.Unsigned())
	assert.Equal(t, 0, b.Size())
}

func TestAddressToStackOffsetPerQPUAddsLaneTerm(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))

	out, next, err := AddressToStackOffset(m, b.Begin(), base, MemoryAccessPerQPU, nil, ir.LocalValue(base))
	require.NoError(t, err)
	assert.True(t, next.IsEndOfBlock())

	instrs := b.Instructions()
	require.Len(t, instrs, 2)
	assert.Equal(t, ir.OpMul24, instrs[0].Op)
	assert.Equal(t, ir.OpAdd, instrs[1].Op)
	assert.True(t, out.HasLocal(instrs[1].Output()))
}

func TestAddressToElementOffsetFoldsLiteralDivision(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(ptr), ir.LocalValue(base),
		ir.LiteralValue(ir.NewLiteral(16), ir.TypeInt32)))

	container := ir.LocalValue(m.AddNewLocal("arr", ir.ArrayOf(ir.TypeInt32, 8)))

	out, _, err := AddressToElementOffset(m, b.End(), base, container, nil, ir.LocalValue(ptr))
	require.NoError(t, err)

	lit, ok := out.GetLiteral()
	require.False(t, ok, "the result is a move destination local, not a raw literal")
	_ = lit

	instrs := b.Instructions()
	last := instrs[len(instrs)-1]
	assert.Equal(t, ir.OpMove, last.Op)
	folded, ok := last.Operands[0].GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(4), folded.Unsigned(), "16 bytes / 4-byte elements = index 4")
}

func TestAddressToElementOffsetEmitsDivisionForDynamicOffset(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	base := m.AddNewLocal("base", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	ptr := m.AddNewLocal("ptr", ir.PointerTo(ir.TypeInt32, ir.AddressSpaceGlobal))
	b.Append(ir.NewOperation(ir.OpCall, ir.LocalValue(ptr)))

	container := ir.LocalValue(m.AddNewLocal("arr", ir.ArrayOf(ir.TypeInt32, 8)))

	_, _, err := AddressToElementOffset(m, b.End(), base, container, nil, ir.LocalValue(ptr))
	require.NoError(t, err)

	instrs := b.Instructions()
	last := instrs[len(instrs)-1]
	assert.Equal(t, ir.OpDiv, last.Op)
}

func TestAddressToWorkItemSpecificOffsetCombinesPartsAndShifts(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	x := m.AddNewLocal("x", ir.TypeInt32)
	y := m.AddNewLocal("y", ir.TypeInt32)
	shift := uint32(2)

	rng := &MemoryAccessRange{
		DynamicParts: []DynamicPart{
			{Value: ir.LocalValue(x), Decorations: ir.UnsignedResult},
			{Value: ir.LocalValue(y), Decorations: ir.UnsignedResult | ir.WorkGroupUniform},
		},
		TypeSizeShift: &shift,
	}

	out, next, err := AddressToWorkItemSpecificOffset(m, b.Begin(), rng)
	require.NoError(t, err)
	assert.True(t, next.IsEndOfBlock())

	instrs := b.Instructions()
	require.Len(t, instrs, 2)
	assert.Equal(t, ir.OpAdd, instrs[0].Op)
	assert.True(t, instrs[0].HasDecoration(ir.UnsignedResult))
	assert.False(t, instrs[0].HasDecoration(ir.WorkGroupUniform), "intersection keeps only flags common to both parts")
	assert.Equal(t, ir.OpShl, instrs[1].Op)
	assert.True(t, out.HasLocal(instrs[1].Output()))
}

func TestAddressToWorkItemSpecificOffsetRejectsConstantPart(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	lit := ir.NewLiteral(4)

	rng := &MemoryAccessRange{ConstantOffset: &lit}
	_, _, err := AddressToWorkItemSpecificOffset(m, b.Begin(), rng)
	require.Error(t, err)

	var ce *ir.CompilationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ir.Unimplemented, ce.Kind)
}

func TestAddressToWorkItemSpecificOffsetRejectsNoDynamicParts(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")

	rng := &MemoryAccessRange{}
	_, _, err := AddressToWorkItemSpecificOffset(m, b.Begin(), rng)
	require.Error(t, err)

	var ce *ir.CompilationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ir.Unimplemented, ce.Kind)
}
