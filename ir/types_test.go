package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarWidths(t *testing.T) {
	assert.Equal(t, uint32(1), TypeInt8.PhysicalWidth())
	assert.Equal(t, uint32(2), TypeInt16.PhysicalWidth())
	assert.Equal(t, uint32(4), TypeInt32.PhysicalWidth())
	assert.Equal(t, uint32(8), TypeInt64.PhysicalWidth())
}

func TestVectorOfCollapsesSingleLane(t *testing.T) {
	assert.Equal(t, TypeInt32, VectorOf(TypeInt32, 0))
	assert.Equal(t, TypeInt32, VectorOf(TypeInt32, 1))

	v := VectorOf(TypeInt32, 4)
	assert.True(t, v.IsVectorType())
	assert.Equal(t, 4, v.VectorWidth())
	assert.Equal(t, uint32(16), v.PhysicalWidth())
	assert.True(t, v.ElementType().Equal(TypeInt32))
}

func TestPointerToRoundTrip(t *testing.T) {
	p := PointerTo(TypeInt32, AddressSpaceGlobal)
	assert.True(t, p.IsPointerType())
	assert.Equal(t, AddressSpaceGlobal, p.AddressSpace())
	assert.True(t, p.ElementType().Equal(TypeInt32))
	assert.Equal(t, uint32(4), p.PhysicalWidth(), "pointers are always 4 bytes regardless of pointee width")
}

func TestArrayOfLengthAndWidth(t *testing.T) {
	arr := ArrayOf(TypeInt32, 8)
	assert.True(t, arr.IsArrayType())
	assert.Equal(t, uint32(8), arr.ArrayLength())
	assert.Equal(t, uint32(32), arr.PhysicalWidth())
}

func TestStructOfAssignsOffsetsInDeclarationOrder(t *testing.T) {
	s := StructOf(
		StructField{Name: "a", Type: TypeInt8},
		StructField{Name: "b", Type: TypeInt32},
		StructField{Name: "c", Type: TypeInt16},
	)
	assert.True(t, s.IsStructType())
	assert.Equal(t, uint32(0), s.StructFieldOffset(0))
	assert.Equal(t, uint32(1), s.StructFieldOffset(1))
	assert.Equal(t, uint32(5), s.StructFieldOffset(2))
	assert.Equal(t, uint32(7), s.PhysicalWidth(), "PhysicalWidth is packed, no trailing padding")
}

func TestDataTypeEqualIsStructural(t *testing.T) {
	a := PointerTo(ArrayOf(TypeInt32, 4), AddressSpaceLocal)
	b := PointerTo(ArrayOf(TypeInt32, 4), AddressSpaceLocal)
	c := PointerTo(ArrayOf(TypeInt32, 4), AddressSpaceGlobal)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "differing address space must not compare equal")
}
