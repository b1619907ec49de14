package transform

import "github.com/pfoof/VC4C/ir"

func absBits(bits uint64, width int) (abs uint64, negative bool) {
	mask := uint64(1)<<uint(width) - 1
	bits &= mask
	signBit := (bits >> uint(width-1)) & 1
	if signBit == 0 {
		return bits, false
	}
	return (^bits + 1) & mask, true
}

// MakePositive implements the canonical sign-normalization sequence:
// dest = |src| and isNegative, a per-lane 0/-1 writer mask. Grounded on
// original_source/src/intermediate/Helper.cpp's insertMakePositive.
func MakePositive(m *ir.Method, w ir.Walker, src ir.Value) (dest ir.Value, isNegative ir.Value, next ir.Walker, err error) {
	if src.IsUndefined() || src.Type().ScalarBitCount() == 0 {
		return ir.Value{}, ir.Value{}, w, ir.NewInvalidOperand(ir.StageNormalizer, src.Type())
	}

	if lit, ok := src.GetLiteral(); ok {
		width := src.Type().ScalarBitCount()
		abs, neg := absBits(lit.Unsigned(), width)
		destLit := ir.LiteralValue(ir.NewLiteral(abs), src.Type())
		var negLit ir.Value
		if neg {
			negLit = ir.LiteralValue(ir.NewSignedLiteral(-1), src.Type())
		} else {
			negLit = ir.LiteralValue(ir.NewLiteral(0), src.Type())
		}
		return destLit, negLit, w, nil
	}

	if vec, ok := src.GetVector(); ok {
		width := src.Type().ElementType().ScalarBitCount()
		destVec := make(ir.SIMDVector, len(vec))
		negVec := make(ir.SIMDVector, len(vec))
		for i, lane := range vec {
			abs, neg := absBits(lane.Unsigned(), width)
			destVec[i] = ir.NewLiteral(abs)
			if neg {
				negVec[i] = ir.NewSignedLiteral(-1)
			} else {
				negVec[i] = ir.NewLiteral(0)
			}
		}
		return ir.VectorValue(destVec, src.Type()), ir.VectorValue(negVec, src.Type()), w, nil
	}

	if l := src.Local(); l != nil {
		if writer := l.SingleWriter(); writer != nil && writer.HasDecoration(ir.UnsignedResult) {
			return src, ir.LiteralValue(ir.NewLiteral(0), src.Type()), w, nil
		}
	}

	workSrc := src
	if src.Type().ScalarBitCount() < 32 {
		extLocal := m.AddNewLocal("sext", ir.TypeInt32)
		w = w.Emplace(ir.NewOperation(ir.OpMove, ir.LocalValue(extLocal), src)).Next()
		workSrc = ir.LocalValue(extLocal)
	}

	signLocal := m.AddNewLocal("sign", workSrc.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAsr, ir.LocalValue(signLocal), workSrc, ir.LiteralValue(ir.NewLiteral(31), ir.TypeInt32))).Next()
	signVal := ir.LocalValue(signLocal)

	tmpLocal := m.AddNewLocal("abs_xor", workSrc.Type())
	w = w.Emplace(ir.NewOperation(ir.OpXor, ir.LocalValue(tmpLocal), workSrc, signVal)).Next()

	destLocal := m.AddNewLocal("abs", workSrc.Type())
	destInstr := ir.NewDecoratedOperation(ir.OpSub, ir.LocalValue(destLocal), ir.UnsignedResult, ir.LocalValue(tmpLocal), signVal)
	w = w.Emplace(destInstr).Next()

	return ir.LocalValue(destLocal), signVal, w, nil
}

// RestoreSign implements the inverse of MakePositive: dest = (src xor sign)
// - sign, folded statically when both operands are literal (the folded
// literal is sign-extended from the operand width, so Signed() reads the
// restored negative value).
func RestoreSign(m *ir.Method, w ir.Walker, src ir.Value, sign ir.Value) (dest ir.Value, next ir.Walker, err error) {
	if src.IsUndefined() || src.Type().ScalarBitCount() == 0 {
		return ir.Value{}, w, ir.NewInvalidOperand(ir.StageNormalizer, src.Type())
	}

	if srcLit, ok := src.GetLiteral(); ok {
		if signLit, ok2 := sign.GetLiteral(); ok2 {
			width := src.Type().ScalarBitCount()
			mask := uint64(1)<<uint(width) - 1
			bits := ((srcLit.Unsigned() ^ signLit.Unsigned()) - signLit.Unsigned()) & mask
			if width < 64 && (bits>>uint(width-1))&1 == 1 {
				bits |= ^mask
			}
			return ir.LiteralValue(ir.NewLiteral(bits), src.Type()), w, nil
		}
	}

	tmpLocal := m.AddNewLocal("restore_xor", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpXor, ir.LocalValue(tmpLocal), src, sign)).Next()

	destLocal := m.AddNewLocal("restore", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpSub, ir.LocalValue(destLocal), ir.LocalValue(tmpLocal), sign)).Next()

	return ir.LocalValue(destLocal), w, nil
}
