package ir

// node is one cell of a basic block's doubly-linked instruction list. Per
// the spec's design note, a block must not be a contiguous vector: the
// SingleSteps driver depends on a cursor surviving an insert-before or a
// deletion of a *different* position, which a slice cannot guarantee once
// a reallocation or a shift happens. head/tail are sentinel nodes carrying
// no instruction, the same trick container/list uses, so
// IsStartOfBlock/IsEndOfBlock never need a nil check.
type node struct {
	instr      *IntermediateInstruction
	prev, next *node
	block      *BasicBlock
}

// BasicBlock is an ordered, mutable sequence of instructions belonging to
// exactly one Method.
type BasicBlock struct {
	Label string

	method *Method
	head   *node // sentinel: head.next is the first real instruction
	tail   *node // sentinel: tail.prev is the last real instruction

	Predecessors []*BasicBlock
	Successors   []*BasicBlock
}

func NewBasicBlock(label string) *BasicBlock {
	b := &BasicBlock{Label: label}
	b.head = &node{block: b}
	b.tail = &node{block: b}
	b.head.next = b.tail
	b.tail.prev = b.head
	return b
}

// Append adds an instruction at the end of the block and returns it.
func (b *BasicBlock) Append(instr *IntermediateInstruction) *IntermediateInstruction {
	b.End().n.emplaceBefore(instr)
	return instr
}

// Size returns the number of instructions currently in the block.
func (b *BasicBlock) Size() int {
	n := 0
	for cur := b.head.next; cur != b.tail; cur = cur.next {
		n++
	}
	return n
}

// Instructions returns a snapshot slice of this block's instructions, in
// order. Intended for read-only inspection (tests, analyses that don't
// need cursor semantics); mutating passes should use a Walker.
func (b *BasicBlock) Instructions() []*IntermediateInstruction {
	out := make([]*IntermediateInstruction, 0, b.Size())
	for cur := b.head.next; cur != b.tail; cur = cur.next {
		out = append(out, cur.instr)
	}
	return out
}

// Begin returns a walker positioned at the block's first instruction (or
// at end-of-block if the block is empty).
func (b *BasicBlock) Begin() Walker {
	return Walker{n: b.head.next, block: b}
}

// End returns a walker positioned one-past the block's last instruction.
func (b *BasicBlock) End() Walker {
	return Walker{n: b.tail, block: b}
}

func (b *BasicBlock) Method() *Method { return b.method }

// -----------------------------------------------------------------------

// Walker is a bidirectional cursor over instructions within a block and,
// via NextInMethod/PreviousInMethod, across an entire method. It is stable
// under insertion before/at the cursor and under deletion of any other
// position: inserting or deleting splices list nodes in place, never
// relocating the node a live Walker points at.
type Walker struct {
	n     *node
	block *BasicBlock
}

// Get returns the instruction at the cursor. Calling it at end-of-block or
// end-of-method is a programmer error (mirrors dereferencing an
// end-iterator) and panics.
func (w Walker) Get() *IntermediateInstruction {
	if w.n.instr == nil {
		panic("ir: Get() on an end-of-block/method walker")
	}
	return w.n.instr
}

// Copy returns an independent walker at the same position.
func (w Walker) Copy() Walker { return w }

// Walker returns a cursor positioned at this instruction, usable to
// navigate to its neighbors. Panics if the instruction has not been
// inserted into any block yet.
func (i *IntermediateInstruction) Walker() Walker {
	if i.node == nil {
		panic("ir: Walker() on an instruction not yet inserted into a block")
	}
	return Walker{n: i.node, block: i.block}
}

func (w Walker) IsEndOfBlock() bool   { return w.n == w.block.tail }
func (w Walker) IsStartOfBlock() bool { return w.n == w.block.head.next }

// Block returns the block this walker currently belongs to.
func (w Walker) Block() *BasicBlock { return w.block }

// Next moves the cursor one instruction forward within the block. Calling
// it at end-of-block is a no-op (mirrors incrementing an end-iterator not
// past it).
func (w Walker) Next() Walker {
	if w.n.next == nil {
		return w
	}
	return Walker{n: w.n.next, block: w.block}
}

// Previous moves the cursor one instruction back within the block.
func (w Walker) Previous() Walker {
	if w.n.prev == nil {
		return w
	}
	return Walker{n: w.n.prev, block: w.block}
}

// Emplace inserts `instr` immediately before the cursor and leaves the
// cursor itself pointing at the same instruction it did before (or, if the
// cursor was at end-of-block, still at end-of-block) -- the caller
// continues from where it logically was.
func (w Walker) Emplace(instr *IntermediateInstruction) Walker {
	w.n.emplaceBefore(instr)
	return w
}

func (n *node) emplaceBefore(instr *IntermediateInstruction) *node {
	newNode := &node{instr: instr, prev: n.prev, next: n, block: n.block}
	n.prev.next = newNode
	n.prev = newNode
	instr.block = n.block
	instr.node = newNode
	return newNode
}

// Erase removes the instruction at the cursor and returns a walker
// positioned at what was the next instruction (mirrors std::list::erase).
func (w Walker) Erase() Walker {
	if w.n.instr == nil {
		panic("ir: Erase() on an end-of-block/method walker")
	}
	removed := w.n
	next := removed.next
	removed.prev.next = removed.next
	removed.next.prev = removed.prev
	removed.instr.detach()
	return Walker{n: next, block: w.block}
}

// Replace substitutes the instruction at the cursor with `instr` in place,
// preserving the cursor's position; any other live walker pointing at the
// replaced node now observes the new instruction, matching the spec's note
// that a step may "replace it in place" without invalidating other
// cursors. `instr` must already be fully constructed (via NewOperation or
// NewDecoratedOperation), which has already registered it as a
// reader/writer of its operands and output local.
func (w Walker) Replace(instr *IntermediateInstruction) Walker {
	if w.n.instr == nil {
		panic("ir: Replace() on an end-of-block/method walker")
	}
	w.n.instr.detach()
	w.n.instr = instr
	instr.block = w.block
	instr.node = w.n
	return w
}

// NextInMethod advances the cursor to the next instruction in method
// order, hopping to the next block's first instruction when this block is
// exhausted.
func (w Walker) NextInMethod() Walker {
	if w.n.next != w.block.tail {
		return Walker{n: w.n.next, block: w.block}
	}
	nextBlock := w.block.method.blockAfter(w.block)
	for nextBlock != nil {
		nb := nextBlock.Begin()
		if !nb.IsEndOfBlock() {
			return nb
		}
		nextBlock = w.block.method.blockAfter(nextBlock)
	}
	return w.block.method.endWalker()
}

// PreviousInMethod is the symmetric backward hop.
func (w Walker) PreviousInMethod() Walker {
	if w.n.prev != w.block.head {
		return Walker{n: w.n.prev, block: w.block}
	}
	prevBlock := w.block.method.blockBefore(w.block)
	for prevBlock != nil {
		last := prevBlock.tail.prev
		if last != prevBlock.head {
			return Walker{n: last, block: prevBlock}
		}
		prevBlock = w.block.method.blockBefore(prevBlock)
	}
	return w.block.method.beginWalker()
}

// IsEndOfMethod reports whether the cursor has advanced past the last
// instruction of the last block.
func (w Walker) IsEndOfMethod() bool {
	blocks := w.block.method.Blocks
	last := blocks[len(blocks)-1]
	return w.block == last && w.IsEndOfBlock()
}
