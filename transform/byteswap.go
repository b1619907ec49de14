package transform

import "github.com/pfoof/VC4C/ir"

func imm(v uint64) ir.Value {
	return ir.LiteralValue(ir.NewLiteral(v), ir.TypeInt32)
}

// ByteSwap reverses the byte order of `src` (16 or 32 bits wide) into
// `dest`. Grounded instruction-for-instruction on
// original_source/src/intermediate/Helper.cpp's insertByteSwap: the 16-bit
// path is a shift-left/shift-right/mask/mask/or pentad; the 32-bit path
// rotates by 24 and by 16, masks out one surviving byte lane from each
// rotated value four times, then ORs the pairs back together.
func ByteSwap(m *ir.Method, w ir.Walker, src ir.Value, dest ir.Value) (ir.Walker, error) {
	bits := src.Type().ScalarBitCount()
	switch bits {
	case 16:
		return byteSwap16(m, w, src, dest)
	case 32:
		return byteSwap32(m, w, src, dest)
	default:
		return w, ir.NewUnsupportedWidth(ir.StageOptimizer, bits)
	}
}

func byteSwap16(m *ir.Method, w ir.Walker, src ir.Value, dest ir.Value) (ir.Walker, error) {
	// 16-bit result is treated as unsigned afterward: signedness of the
	// swapped halves is not tracked at this width in this IR.
	tmpA0 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpShr, ir.LocalValue(tmpA0), src, imm(8))).Next()
	tmpB0 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpShl, ir.LocalValue(tmpB0), src, imm(8))).Next()
	tmpA1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpA1), ir.LocalValue(tmpA0), imm(0x000000FF))).Next()
	tmpB1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpB1), ir.LocalValue(tmpB0), imm(0x0000FF00))).Next()
	final := ir.NewDecoratedOperation(ir.OpOr, dest, ir.UnsignedResult, ir.LocalValue(tmpA1), ir.LocalValue(tmpB1))
	w = w.Emplace(final).Next()
	return w, nil
}

func byteSwap32(m *ir.Method, w ir.Walker, src ir.Value, dest ir.Value) (ir.Walker, error) {
	// A B C D -> B C D A
	tmpAC0 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpRor, ir.LocalValue(tmpAC0), src, imm(24))).Next()
	// A B C D -> D A B C
	tmpBD0 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpRor, ir.LocalValue(tmpBD0), src, imm(16))).Next()

	// B C D A -> 0 0 0 A
	tmpA1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpA1), ir.LocalValue(tmpAC0), imm(0x000000FF))).Next()
	// D A B C -> 0 0 B 0
	tmpB1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpB1), ir.LocalValue(tmpBD0), imm(0x0000FF00))).Next()
	// B C D A -> 0 C 0 0
	tmpC1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpC1), ir.LocalValue(tmpAC0), imm(0x00FF0000))).Next()
	// D A B C -> D 0 0 0
	tmpD1 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpAnd, ir.LocalValue(tmpD1), ir.LocalValue(tmpBD0), imm(0xFF000000))).Next()

	tmpAB2 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpOr, ir.LocalValue(tmpAB2), ir.LocalValue(tmpA1), ir.LocalValue(tmpB1))).Next()
	tmpCD2 := m.AddNewLocal("byte_swap", src.Type())
	w = w.Emplace(ir.NewOperation(ir.OpOr, ir.LocalValue(tmpCD2), ir.LocalValue(tmpC1), ir.LocalValue(tmpD1))).Next()

	final := ir.NewOperation(ir.OpOr, dest, ir.LocalValue(tmpAB2), ir.LocalValue(tmpCD2))
	w = w.Emplace(final).Next()
	return w, nil
}
