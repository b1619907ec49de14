package lowering

import "github.com/pfoof/VC4C/ir"

// singleWriterDiscounting returns the instruction that defines `ptrValue`,
// discounting `memWriter` itself when it is one of exactly two writers --
// the case where a store instruction is also recorded as a writer of its
// own destination pointer local. Grounded on insertAddressToOffset's
// getSingleWriter()/getUsers(WRITER) fallback.
func singleWriterDiscounting(ptrValue ir.Value, memWriter *ir.IntermediateInstruction) *ir.IntermediateInstruction {
	l := ptrValue.Local()
	if l == nil {
		return nil
	}
	if sw := l.SingleWriter(); sw != nil {
		return sw
	}
	writers := l.Writers()
	if len(writers) == 2 && memWriter != nil {
		for _, w := range writers {
			if w != memWriter {
				return w
			}
		}
	}
	return nil
}

// AddressToOffset computes out = ptrValue - baseAddress as an integer
// byte offset, recognizing the two cases that let it avoid emitting a
// subtraction: ptrValue is literally baseAddress, or ptrValue's defining
// instruction is `add` with one operand equal to baseAddress. Grounded on
// original_source/src/normalization/AddressCalculation.cpp's
// insertAddressToOffset.
func AddressToOffset(m *ir.Method, w ir.Walker, baseAddress *ir.Local, memWriter *ir.IntermediateInstruction, ptrValue ir.Value) (ir.Value, ir.Walker, error) {
	if ptrValue.HasLocal(baseAddress) {
		return ir.IntZero, w, nil
	}

	if indexOp := singleWriterDiscounting(ptrValue, memWriter); indexOp != nil && indexOp.Op == ir.OpAdd && indexOp.ReadsLocal(baseAddress) {
		first := indexOp.FirstOperand()
		if first.HasLocal(baseAddress) {
			if second, ok := indexOp.SecondOperand(); ok {
				return second, w, nil
			}
		} else {
			return first, w, nil
		}
	}

	dest := m.AddNewLocal("pointer_diff", baseAddress.Type)
	instr := ir.NewOperation(ir.OpSub, ir.LocalValue(dest), ptrValue, ir.LocalValue(baseAddress))
	w = w.Emplace(instr).Next()
	return ir.LocalValue(dest), w, nil
}

// AddressToStackOffset computes AddressToOffset, then for per-QPU regions
// adds a per-lane stack-frame offset (stackByteSize * laneIndex), where
// stackByteSize is the VPM in-memory width of one stack frame's element
// type. Grounded on insertAddressToStackOffset.
func AddressToStackOffset(m *ir.Method, w ir.Walker, baseAddress *ir.Local, accessType MemoryAccessType, memWriter *ir.IntermediateInstruction, ptrValue ir.Value) (ir.Value, ir.Walker, error) {
	tmpIndex, w, err := AddressToOffset(m, w, baseAddress, memWriter, ptrValue)
	if err != nil {
		return ir.Value{}, w, err
	}
	if accessType != MemoryAccessPerQPU {
		return tmpIndex, w, nil
	}

	stackType := VPMStorageType(baseAddress.Type.ElementType())
	stackByteSize := stackType.InMemoryWidth()

	laneIndex := ir.RegisterValue(ir.Register{Name: "qpu_number"}, ir.TypeInt8)
	ptrType := ir.PointerTo(ir.TypeVoid, ir.AddressSpaceGeneric)

	stackOffsetLocal := m.AddNewLocal("stack_offset", ptrType)
	mulInstr := ir.NewOperation(ir.OpMul24, ir.LocalValue(stackOffsetLocal), ir.LiteralValue(ir.NewLiteral(uint64(stackByteSize)), ir.TypeInt16), laneIndex)
	w = w.Emplace(mulInstr).Next()

	destLocal := m.AddNewLocal("stack_offset", ptrType)
	addInstr := ir.NewOperation(ir.OpAdd, ir.LocalValue(destLocal), tmpIndex, ir.LocalValue(stackOffsetLocal))
	w = w.Emplace(addInstr).Next()

	return ir.LocalValue(destLocal), w, nil
}

// AddressToElementOffset computes AddressToOffset then divides by the
// container's element in-memory width, yielding an element-granular
// index. The caller guarantees the byte offset divides evenly; a literal
// offset is folded directly instead of emitting a runtime division.
// Grounded on insertAddressToElementOffset.
func AddressToElementOffset(m *ir.Method, w ir.Walker, baseAddress *ir.Local, container ir.Value, memWriter *ir.IntermediateInstruction, ptrValue ir.Value) (ir.Value, ir.Walker, error) {
	tmpIndex, w, err := AddressToOffset(m, w, baseAddress, memWriter, ptrValue)
	if err != nil {
		return ir.Value{}, w, err
	}

	elemWidth := container.Type().ElementType().InMemoryWidth()
	ptrType := ir.PointerTo(ir.TypeVoid, ir.AddressSpaceGeneric)
	dest := m.AddNewLocal("element_offset", ptrType)

	if lit, ok := tmpIndex.GetLiteral(); ok && elemWidth != 0 {
		folded := ir.LiteralValue(ir.NewLiteral(lit.Unsigned()/uint64(elemWidth)), ir.TypeInt32)
		w = w.Emplace(ir.NewOperation(ir.OpMove, ir.LocalValue(dest), folded)).Next()
		return ir.LocalValue(dest), w, nil
	}

	instr := ir.NewOperation(ir.OpDiv, ir.LocalValue(dest), tmpIndex, ir.LiteralValue(ir.NewLiteral(uint64(elemWidth)), ir.TypeInt32))
	w = w.Emplace(instr).Next()
	return ir.LocalValue(dest), w, nil
}

// combineAdditions left-folds an ordered list of dynamic address parts with
// add, intersecting decoration bitsets at each step to preserve only the
// properties that hold of both operands combined so far. Grounded on the
// static free function of the same name and shape in
// AddressCalculation.cpp.
func combineAdditions(m *ir.Method, w *ir.Walker, parts []DynamicPart) (ir.Value, ir.Decorations, bool) {
	if len(parts) == 0 {
		return ir.Value{}, 0, false
	}
	prevVal := parts[0].Value
	prevDecos := parts[0].Decorations
	for _, part := range parts[1:] {
		newDecos := prevDecos.Intersect(part.Decorations)
		dest := m.AddNewLocal("combined_offset", prevVal.Type())
		instr := ir.NewDecoratedOperation(ir.OpAdd, ir.LocalValue(dest), newDecos, prevVal, part.Value)
		*w = (*w).Emplace(instr).Next()
		prevVal = ir.LocalValue(dest)
		prevDecos = newDecos
	}
	return prevVal, prevDecos, true
}

// AddressToWorkItemSpecificOffset left-folds a MemoryAccessRange's dynamic
// address parts, then applies an optional log2 element-size left shift.
// Fails with Unimplemented if the range carries a nonzero constant part
// (not yet supported, matching original_source's own limitation) or has no
// dynamic parts to combine. Grounded on insertAddressToWorkItemSpecificOffset.
func AddressToWorkItemSpecificOffset(m *ir.Method, w ir.Walker, rng *MemoryAccessRange) (ir.Value, ir.Walker, error) {
	if rng.ConstantOffset != nil && rng.ConstantOffset.Unsigned() != 0 {
		return ir.Value{}, w, ir.NewUnimplemented(ir.StageNormalizer,
			"calculating work-item specific offset with constant part is not yet implemented")
	}

	combined, _, ok := combineAdditions(m, &w, rng.DynamicParts)
	if !ok {
		return ir.Value{}, w, ir.NewUnimplemented(ir.StageNormalizer, "no dynamic address parts to combine")
	}

	out := combined
	if rng.TypeSizeShift != nil {
		dest := m.AddNewLocal("scaled_offset", combined.Type())
		instr := ir.NewOperation(ir.OpShl, ir.LocalValue(dest), combined, ir.LiteralValue(ir.NewLiteral(uint64(*rng.TypeSizeShift)), ir.TypeInt32))
		w = w.Emplace(instr).Next()
		out = ir.LocalValue(dest)
	}
	return out, w, nil
}
