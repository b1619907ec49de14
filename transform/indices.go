package transform

import "github.com/pfoof/VC4C/ir"

func foldAdd(m *ir.Method, w *ir.Walker, a, b ir.Value) ir.Value {
	if litA, ok := a.GetLiteral(); ok && litA.Unsigned() == 0 {
		return b
	}
	if litB, ok := b.GetLiteral(); ok && litB.Unsigned() == 0 {
		return a
	}
	if litA, okA := a.GetLiteral(); okA {
		if litB, okB := b.GetLiteral(); okB {
			return ir.LiteralValue(ir.NewLiteral(litA.Unsigned()+litB.Unsigned()), ir.TypeInt32)
		}
	}
	dest := m.AddNewLocal("offset", ir.TypeInt32)
	instr := ir.NewOperation(ir.OpAdd, ir.LocalValue(dest), a, b)
	*w = (*w).Emplace(instr).Next()
	return ir.LocalValue(dest)
}

func scaledOffset(m *ir.Method, w *ir.Walker, index ir.Value, elemWidth uint32) ir.Value {
	if lit, ok := index.GetLiteral(); ok {
		return ir.LiteralValue(ir.NewLiteral(lit.Unsigned()*uint64(elemWidth)), ir.TypeInt32)
	}
	dest := m.AddNewLocal("idx_scaled", ir.TypeInt32)
	instr := ir.NewOperation(ir.OpMul, ir.LocalValue(dest), index, ir.LiteralValue(ir.NewLiteral(uint64(elemWidth)), ir.TypeInt32))
	*w = (*w).Emplace(instr).Next()
	return ir.LocalValue(dest)
}

// CalculateIndices lowers a multi-level struct/array/vector/pointer index
// chain into a single byte-offset addition, exactly per
// original_source/src/intermediate/Helper.cpp's insertCalculateIndices:
// walk the indices left-to-right carrying a running sub-container type and
// a running offset, folding what can be folded and emitting the rest.
// `firstIndexIsElement` selects SPIR-V "Element" semantics, where the
// first index is an element selector that does not change the pointee
// type. `destType` is the caller's expected result type; it is checked
// against the type this walk actually computes. When the walk ends on an
// array type, the computed type is a pointer to the array's element type,
// not to the array itself.
func CalculateIndices(m *ir.Method, w ir.Walker, container ir.Value, indices []ir.Value, firstIndexIsElement bool, destType ir.DataType) (dest ir.Value, next ir.Walker, err error) {
	subType := container.Type()
	var offset ir.Value = ir.IntZero
	descended := false

	for idx, index := range indices {
		switch {
		case subType.IsPointerType() || subType.IsArrayType():
			elem := subType.ElementType()
			sub := scaledOffset(m, &w, index, elem.PhysicalWidth())
			offset = foldAdd(m, &w, offset, sub)
			if firstIndexIsElement && idx == 0 {
				// SPIR-V "Element" semantics: the first index selects
				// among elements of the pointee without descending.
				continue
			}
			subType = elem
			descended = true

		case subType.IsStructType():
			lit, ok := index.GetLiteral()
			if !ok {
				return ir.Value{}, w, ir.NewNonLiteralStructIndex(ir.StageNormalizer, index)
			}
			fieldIndex := int32(lit.Signed())
			fieldOffset := subType.StructFieldOffset(fieldIndex)
			offset = foldAdd(m, &w, offset, ir.LiteralValue(ir.NewLiteral(uint64(fieldOffset)), ir.TypeInt32))
			subType = subType.Field(fieldIndex).Type
			descended = true

		case subType.IsVectorType():
			elem := subType.ElementType()
			sub := scaledOffset(m, &w, index, elem.PhysicalWidth())
			offset = foldAdd(m, &w, offset, sub)
			subType = elem
			descended = true

		default:
			return ir.Value{}, w, ir.NewInvalidContainerType(ir.StageNormalizer, subType)
		}
	}

	var expectedType ir.DataType
	if firstIndexIsElement && len(indices) == 1 && !descended {
		expectedType = container.Type()
	} else if subType.IsArrayType() {
		expectedType = ir.PointerTo(subType.ElementType(), container.Type().AddressSpace())
	} else {
		expectedType = ir.PointerTo(subType, container.Type().AddressSpace())
	}
	if !expectedType.Equal(destType) {
		return ir.Value{}, w, ir.NewTypeMismatch(ir.StageNormalizer, destType, expectedType)
	}

	destLocal := m.AddNewLocal("gep", destType)
	w = w.Emplace(ir.NewOperation(ir.OpAdd, ir.LocalValue(destLocal), container, offset)).Next()

	refIndex := computeRefIndex(indices, firstIndexIsElement)
	destLocal.SetReference(container.Local(), refIndex)

	return ir.LocalValue(destLocal), w, nil
}

func computeRefIndex(indices []ir.Value, firstIndexIsElement bool) int32 {
	literalIndex := func(v ir.Value) (int32, bool) {
		lit, ok := v.GetLiteral()
		if !ok {
			return 0, false
		}
		return int32(lit.Signed()), true
	}

	if len(indices) == 1 {
		if idx, ok := literalIndex(indices[0]); ok {
			return idx
		}
		return ir.AnyElement
	}
	if firstIndexIsElement {
		if first, ok := literalIndex(indices[0]); ok && first == 0 && len(indices) >= 2 {
			if second, ok2 := literalIndex(indices[1]); ok2 {
				return second
			}
		}
	}
	return ir.AnyElement
}
