package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfoof/VC4C/ir"
)

func TestCombineSelectionWithZeroFusesSingleUseDefiner(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(a), ir.IntZero, ir.IntZero))
	mv := b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(c), ir.LocalValue(a)))

	w := mv.Walker()
	next, changed, err := CombineSelectionWithZero(m, w)
	require.NoError(t, err)
	assert.True(t, changed)

	instrs := b.Instructions()
	require.Len(t, instrs, 1)
	assert.Equal(t, ir.OpAdd, instrs[0].Op)
	assert.Equal(t, c, instrs[0].Output())
	assert.True(t, next.IsEndOfBlock())
}

func TestCombineSelectionWithZeroDeclinesWithMultipleReaders(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(a), ir.IntZero, ir.IntZero))
	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a), ir.IntZero))
	mv := b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(c), ir.LocalValue(a)))

	_, changed, err := CombineSelectionWithZero(m, mv.Walker())
	require.NoError(t, err)
	assert.False(t, changed, "a has two readers, so the move cannot be fused into the definer")
}

func TestCombineSelectionWithZeroDeclinesAtStartOfBlock(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	mv := b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(c), ir.LocalValue(a)))

	_, changed, err := CombineSelectionWithZero(m, mv.Walker())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFoldConstantsReplacesWithLiteralMove(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	c := m.AddNewLocal("c", ir.TypeInt32)

	add := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c),
		ir.LiteralValue(ir.NewLiteral(3), ir.TypeInt32),
		ir.LiteralValue(ir.NewLiteral(4), ir.TypeInt32)))

	_, changed, err := FoldConstants(m, add.Walker())
	require.NoError(t, err)
	assert.True(t, changed)

	instrs := b.Instructions()
	require.Len(t, instrs, 1)
	assert.Equal(t, ir.OpMove, instrs[0].Op)
	lit, ok := instrs[0].Operands[0].GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(7), lit.Unsigned())
}

func TestFoldConstantsMasksToOperandWidth(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	c := m.AddNewLocal("c", ir.TypeInt8)

	add := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c),
		ir.LiteralValue(ir.NewLiteral(250), ir.TypeInt8),
		ir.LiteralValue(ir.NewLiteral(10), ir.TypeInt8)))

	_, changed, err := FoldConstants(m, add.Walker())
	require.NoError(t, err)
	assert.True(t, changed)

	lit, _ := b.Instructions()[0].Operands[0].GetLiteral()
	assert.Equal(t, uint64(4), lit.Unsigned(), "260 truncated to 8 bits is 4")
}

func TestFoldConstantsDeclinesWithNonLiteralOperand(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	add := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a), ir.IntZero))

	_, changed, err := FoldConstants(m, add.Walker())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSimplifyArithmeticAddZeroBecomesMove(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	add := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a), ir.IntZero))

	_, changed, err := SimplifyArithmetic(m, add.Walker())
	require.NoError(t, err)
	assert.True(t, changed)

	instrs := b.Instructions()
	assert.Equal(t, ir.OpMove, instrs[0].Op)
	assert.True(t, instrs[0].Operands[0].HasLocal(a))
}

func TestSimplifyArithmeticMulZeroBecomesLiteralZero(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	mul := b.Append(ir.NewOperation(ir.OpMul, ir.LocalValue(c), ir.LocalValue(a), ir.IntZero))

	_, changed, err := SimplifyArithmetic(m, mul.Walker())
	require.NoError(t, err)
	assert.True(t, changed)

	lit, ok := b.Instructions()[0].Operands[0].GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(0), lit.Unsigned())
}

func TestSimplifyArithmeticMulOneBecomesMove(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	mul := b.Append(ir.NewOperation(ir.OpMul, ir.LocalValue(c), ir.LocalValue(a),
		ir.LiteralValue(ir.NewLiteral(1), ir.TypeInt32)))

	_, changed, err := SimplifyArithmetic(m, mul.Walker())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, b.Instructions()[0].Operands[0].HasLocal(a))
}

func TestSimplifyArithmeticSubZeroOnlyFoldsRightOperand(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	sub := b.Append(ir.NewOperation(ir.OpSub, ir.LocalValue(c), ir.IntZero, ir.LocalValue(a)))

	_, changed, err := SimplifyArithmetic(m, sub.Walker())
	require.NoError(t, err)
	assert.False(t, changed, "0 - a is not a - 0; only the right-hand zero is an identity for subtraction")
}

func TestSimplifyArithmeticDeclinesWithoutIdentityOperand(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	add := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a),
		ir.LiteralValue(ir.NewLiteral(5), ir.TypeInt32)))

	_, changed, err := SimplifyArithmetic(m, add.Walker())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDeclinedStepsReportNoChangeButInspectRealTriggerShape(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(a), ir.IntZero, ir.IntZero))
	second := b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a), ir.IntZero))

	for _, step := range []Step{
		CombineSettingSameFlags,
		CombineSettingFlagsWithOutput,
		CombineArithmetics,
		RewriteConstantSFU,
	} {
		_, changed, err := step(m, second.Walker())
		require.NoError(t, err)
		assert.False(t, changed)
	}
}
