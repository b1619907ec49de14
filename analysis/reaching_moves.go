package analysis

import "github.com/pfoof/VC4C/ir"

// MoveMap records, per local, the single unconditional move instruction
// whose output is currently still valid (no intervening redefinition of
// either side) at some program point.
type MoveMap map[*ir.Local]*ir.IntermediateInstruction

func copyMoveMap(from MoveMap) MoveMap {
	out := make(MoveMap, len(from))
	for k, v := range from {
		out[k] = v
	}
	return out
}

// ReachingMovesAnalysis grounds copy-propagation: a forward
// Local[MoveMap] tracking, per instruction, which `mov dst, src` still
// reaches that point unmodified.
type ReachingMovesAnalysis struct {
	inner *Local[MoveMap]
}

func NewReachingMovesAnalysis() *ReachingMovesAnalysis {
	return &ReachingMovesAnalysis{}
}

func (a *ReachingMovesAnalysis) Analyze(block *ir.BasicBlock) {
	transfer := func(instr *ir.IntermediateInstruction, in MoveMap) MoveMap {
		out := copyMoveMap(in)
		// any instruction invalidates a reaching move whose source or
		// destination it redefines.
		if instr.Output() != nil {
			delete(out, instr.Output())
			for dst, mv := range out {
				if mv.ReadsLocal(instr.Output()) {
					delete(out, dst)
				}
			}
		}
		if instr.Op == ir.OpMove && !instr.HasDecoration(ir.ElementInsertion) {
			if src := instr.FirstOperand().Local(); src != nil && instr.Output() != nil {
				out[instr.Output()] = instr
			}
		}
		return out
	}
	a.inner = NewLocal[MoveMap](Forward, MoveMap{}, transfer)
	a.inner.Analyze(block)
}

// ReachingMove returns the move instruction that still defines `l` as a
// copy of another local at the point immediately after `instr`, if any.
func (a *ReachingMovesAnalysis) ReachingMove(instr *ir.IntermediateInstruction, l *ir.Local) (*ir.IntermediateInstruction, bool) {
	result, err := a.inner.GetResult(instr)
	if err != nil {
		return nil, false
	}
	mv, ok := result[l]
	return mv, ok
}
