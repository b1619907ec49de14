package analysis

import "github.com/pfoof/VC4C/ir"

// FlagState records whether the condition flags at a point are known to
// hold a compile-time-constant combination (and, if so, its sign/zero
// bits), or are unknown because they depend on a runtime value.
type FlagState struct {
	Known    bool
	IsZero   bool
	IsNegative bool
}

// FlagStateAnalysis is a forward Local[FlagState] tracking, after each
// instruction that defines a result, whether the flags it would set are
// statically known. No optimization pass consults it; remove-unused-flags
// declines without it.
type FlagStateAnalysis struct {
	inner *Local[FlagState]
}

func NewFlagStateAnalysis() *FlagStateAnalysis {
	return &FlagStateAnalysis{}
}

func (a *FlagStateAnalysis) Analyze(block *ir.BasicBlock) {
	transfer := func(instr *ir.IntermediateInstruction, in FlagState) FlagState {
		if instr.Output() == nil {
			return in
		}
		// a flag-setting result is statically known only when it comes
		// from moving a literal straight into the output; anything
		// computed from a non-literal operand depends on a runtime value.
		var lit ir.Literal
		var ok bool
		if instr.Op == ir.OpMove {
			lit, ok = instr.FirstOperand().GetLiteral()
		}
		if !ok {
			return FlagState{Known: false}
		}
		return FlagState{
			Known:      true,
			IsZero:     lit.Unsigned() == 0,
			IsNegative: lit.Signed() < 0,
		}
	}
	a.inner = NewLocal[FlagState](Forward, FlagState{}, transfer)
	a.inner.Analyze(block)
}

// StateAfter returns the flag state recorded immediately after `instr`.
func (a *FlagStateAnalysis) StateAfter(instr *ir.IntermediateInstruction) (FlagState, error) {
	return a.inner.GetResult(instr)
}
