package analysis

import "github.com/pfoof/VC4C/ir"

// LiveSet is the set of locals live at some program point.
type LiveSet map[*ir.Local]struct{}

func newLiveSet(from LiveSet) LiveSet {
	out := make(LiveSet, len(from))
	for l := range from {
		out[l] = struct{}{}
	}
	return out
}

// Has reports whether `l` is a member.
func (s LiveSet) Has(l *ir.Local) bool {
	_, ok := s[l]
	return ok
}

// Len returns the set's size.
func (s LiveSet) Len() int { return len(s) }

// LivenessAnalysis grounds eliminate-dead-code: a backward Local[LiveSet]
// tracking, at each instruction, the set of locals live immediately before
// it. Locals()'s reader list would give the same answer globally, but
// dead-code elimination needs the *per-point* set so it can drop a write
// whose value is dead before its next use is even reached.
type LivenessAnalysis struct {
	inner *Local[LiveSet]
	block *ir.BasicBlock
}

func NewLivenessAnalysis() *LivenessAnalysis {
	return &LivenessAnalysis{}
}

func (a *LivenessAnalysis) Analyze(block *ir.BasicBlock) {
	transfer := func(instr *ir.IntermediateInstruction, out LiveSet) LiveSet {
		in := newLiveSet(out)
		if instr.Output() != nil {
			delete(in, instr.Output())
		}
		for _, operand := range instr.Operands {
			if l := operand.Local(); l != nil {
				in[l] = struct{}{}
			}
		}
		return in
	}
	a.inner = NewLocal[LiveSet](Backward, LiveSet{}, transfer)
	a.inner.Analyze(block)
	a.block = block
}

// LiveBefore returns the set of locals live immediately before `instr`.
func (a *LivenessAnalysis) LiveBefore(instr *ir.IntermediateInstruction) (LiveSet, error) {
	return a.inner.GetResult(instr)
}

// LiveAfter returns the set of locals live immediately after `instr`: the
// live-before set of its successor within the same block, or the analysis
// seed (nothing live) if `instr` is the block's last instruction.
func (a *LivenessAnalysis) LiveAfter(instr *ir.IntermediateInstruction) (LiveSet, error) {
	w := instr.Walker().Next()
	if w.IsEndOfBlock() {
		return LiveSet{}, nil
	}
	return a.inner.GetResult(w.Get())
}

// IsDead reports whether `instr`'s output (if any) is unused at the point
// immediately after it -- the direct trigger condition for
// eliminate-dead-code.
func (a *LivenessAnalysis) IsDead(instr *ir.IntermediateInstruction) bool {
	out := instr.Output()
	if out == nil {
		return false
	}
	after, err := a.LiveAfter(instr)
	if err != nil {
		return false
	}
	return !after.Has(out)
}
