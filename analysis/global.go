package analysis

import "github.com/pfoof/VC4C/ir"

// GlobalTransferFunc computes a block's pre- and post-values independently
// of any other block; Global applies it once per block and does not
// iterate to a fixed point -- a caller needing one composes this under its
// own driver.
type GlobalTransferFunc[V any] func(block *ir.BasicBlock) (pre V, post V)

// Global is an inter-block, per-block-summary dataflow analysis.
type Global[V any] struct {
	transfer GlobalTransferFunc[V]

	pre  map[*ir.BasicBlock]V
	post map[*ir.BasicBlock]V
}

func NewGlobal[V any](transfer GlobalTransferFunc[V]) *Global[V] {
	return &Global[V]{transfer: transfer}
}

// Analyze applies the transfer function to every block of `method`
// independently and records both values keyed by block identity.
func (g *Global[V]) Analyze(method *ir.Method) {
	g.pre = make(map[*ir.BasicBlock]V, len(method.Blocks))
	g.post = make(map[*ir.BasicBlock]V, len(method.Blocks))
	for _, block := range method.Blocks {
		pre, post := g.transfer(block)
		g.pre[block] = pre
		g.post[block] = post
	}
}

// GetInitialResult returns the pre-value recorded for `block`.
func (g *Global[V]) GetInitialResult(block *ir.BasicBlock) (V, error) {
	v, ok := g.pre[block]
	if !ok {
		var zero V
		return zero, ErrUnknownKey
	}
	return v, nil
}

// GetFinalResult returns the post-value recorded for `block`.
func (g *Global[V]) GetFinalResult(block *ir.BasicBlock) (V, error) {
	v, ok := g.post[block]
	if !ok {
		var zero V
		return zero, ErrUnknownKey
	}
	return v, nil
}
