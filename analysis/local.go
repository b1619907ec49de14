package analysis

import "github.com/pfoof/VC4C/ir"

// Direction selects traversal order for a Local analysis.
type Direction bool

const (
	Forward  Direction = false
	Backward Direction = true
)

// TransferFunc computes the analysis value at an instruction given the
// value flowing in from its predecessor in traversal order.
type TransferFunc[V any] func(instr *ir.IntermediateInstruction, in V) V

// Local is an intra-block dataflow analysis: one instance analyzes exactly
// one block, recording a lattice value V at every instruction. Grounded on
// original_source's Analyzer<V>: a direction, a transfer function, and an
// initial seed value, with a map from instruction to recorded result.
type Local[V any] struct {
	direction Direction
	transfer  TransferFunc[V]
	initial   V

	results map[*ir.IntermediateInstruction]V
	order   []*ir.IntermediateInstruction

	analyzed bool
}

// NewLocal builds an analysis instance. Call Analyze before any lookup.
func NewLocal[V any](direction Direction, initial V, transfer TransferFunc[V]) *Local[V] {
	return &Local[V]{direction: direction, transfer: transfer, initial: initial}
}

// Analyze runs the transfer function across every instruction of `block`
// in the configured direction, seeding the traversal with the initial
// value. Re-running Analyze on the same instance (e.g. after a
// transformation changed the block) discards any prior results.
func (l *Local[V]) Analyze(block *ir.BasicBlock) {
	instrs := block.Instructions()
	l.results = make(map[*ir.IntermediateInstruction]V, len(instrs))
	l.order = instrs

	prev := l.initial
	if l.direction == Forward {
		for _, instr := range instrs {
			v := l.transfer(instr, prev)
			l.results[instr] = v
			prev = v
		}
	} else {
		for i := len(instrs) - 1; i >= 0; i-- {
			instr := instrs[i]
			v := l.transfer(instr, prev)
			l.results[instr] = v
			prev = v
		}
	}
	l.analyzed = true
}

// GetResult returns the recorded value at `instr`, or ErrUnknownKey if this
// instance was never analyzed against a block containing it.
func (l *Local[V]) GetResult(instr *ir.IntermediateInstruction) (V, error) {
	v, ok := l.results[instr]
	if !ok {
		var zero V
		return zero, ErrUnknownKey
	}
	return v, nil
}

// GetStartResult returns the entry-side value: the first instruction's
// result in forward analysis, the last instruction's in backward.
func (l *Local[V]) GetStartResult() (V, error) {
	if !l.analyzed || len(l.order) == 0 {
		var zero V
		return zero, ErrUnknownKey
	}
	if l.direction == Forward {
		return l.GetResult(l.order[0])
	}
	return l.GetResult(l.order[len(l.order)-1])
}

// GetEndResult returns the exit-side value, symmetric to GetStartResult.
func (l *Local[V]) GetEndResult() (V, error) {
	if !l.analyzed || len(l.order) == 0 {
		var zero V
		return zero, ErrUnknownKey
	}
	if l.direction == Forward {
		return l.GetResult(l.order[len(l.order)-1])
	}
	return l.GetResult(l.order[0])
}
