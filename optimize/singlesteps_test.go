package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfoof/VC4C/ir"
	"github.com/pfoof/VC4C/transform"
)

func TestRunStepListEmptyMethodIsNoOp(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	changed, err := runStepList(m, []transform.Step{transform.FoldConstants})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRunStepListFoldsThenFusesAcrossARestart(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)

	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(a),
		ir.LiteralValue(ir.NewLiteral(3), ir.TypeInt32), ir.LiteralValue(ir.NewLiteral(4), ir.TypeInt32)))
	b.Append(ir.NewOperation(ir.OpMove, ir.LocalValue(c), ir.LocalValue(a)))

	changed, err := runStepList(m, []transform.Step{
		transform.CombineSelectionWithZero,
		transform.FoldConstants,
		transform.SimplifyArithmetic,
	})
	require.NoError(t, err)
	assert.True(t, changed)

	instrs := b.Instructions()
	require.Len(t, instrs, 1, "folding a's definer and fusing it with the move that consumes it collapses to one instruction")
	assert.Equal(t, ir.OpMove, instrs[0].Op)
	lit, ok := instrs[0].Operands[0].GetLiteral()
	require.True(t, ok)
	assert.Equal(t, uint64(7), lit.Unsigned())
	assert.True(t, instrs[0].Output() == c)
}

func TestRunStepListReportsNoChangeAtQuiescence(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)
	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a),
		ir.LiteralValue(ir.NewLiteral(5), ir.TypeInt32)))

	changed, err := runStepList(m, []transform.Step{
		transform.CombineSelectionWithZero,
		transform.FoldConstants,
		transform.SimplifyArithmetic,
	})
	require.NoError(t, err)
	assert.False(t, changed, "no step's trigger shape is present, so the walk should report no change")
}

func TestCombinePassAppliesNarrowerStepSubset(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	a := m.AddNewLocal("a", ir.TypeInt32)
	c := m.AddNewLocal("c", ir.TypeInt32)
	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c), ir.LocalValue(a),
		ir.LiteralValue(ir.NewLiteral(5), ir.TypeInt32)))

	changed, err := combinePass(m)
	require.NoError(t, err)
	assert.False(t, changed, "combinePass omits FoldConstants/SimplifyArithmetic/CombineSelectionWithZero")
}

func TestSingleStepsPassDelegatesToFullList(t *testing.T) {
	m := ir.NewMethod("k", ir.TypeVoid)
	b := m.AddBlock("entry")
	c := m.AddNewLocal("c", ir.TypeInt32)
	b.Append(ir.NewOperation(ir.OpAdd, ir.LocalValue(c),
		ir.LiteralValue(ir.NewLiteral(1), ir.TypeInt32), ir.LiteralValue(ir.NewLiteral(2), ir.TypeInt32)))

	changed, err := singleStepsPass(m)
	require.NoError(t, err)
	assert.True(t, changed)
}
