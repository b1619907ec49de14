package ir

import "fmt"

// Method is a compiled kernel function: an ordered list of basic blocks and
// the table of locals declared within it. Blocks are stored as a slice
// rather than a linked list -- unlike instructions, the CFG's block order
// is only rearranged during the initial optimization phase (never by the
// repeat-phase SingleSteps driver this spec's cursor-stability invariant
// protects), so a slice costs nothing in practice and keeps Kernels()/
// Blocks iteration simple.
type Method struct {
	Name    string
	Params  []*Local
	ReturnType DataType

	Blocks []*BasicBlock
	locals []*Local

	nextLocalID int
}

func NewMethod(name string, returnType DataType) *Method {
	return &Method{Name: name, ReturnType: returnType}
}

// AddBlock appends a new, empty basic block to the method and returns it.
func (m *Method) AddBlock(label string) *BasicBlock {
	b := NewBasicBlock(label)
	b.method = m
	m.Blocks = append(m.Blocks, b)
	return b
}

// AddNewLocal declares a fresh local of the given type, assigning it a
// unique name derived from `hint`.
func (m *Method) AddNewLocal(hint string, typ DataType) *Local {
	m.nextLocalID++
	l := NewLocal(fmt.Sprintf("%%%s.%d", hint, m.nextLocalID), typ)
	m.locals = append(m.locals, l)
	return l
}

// CreatePointerType returns a pointer-to-`elem` type and, if this is the
// first time this exact pointer shape is requested, has no further
// side effect -- DataType values are immutable and compared structurally,
// so no interning table is required, unlike the teacher's own type-pool
// pattern.
func (m *Method) CreatePointerType(elem DataType, space AddressSpace) DataType {
	return PointerTo(elem, space)
}

// Locals returns every local declared in this method, in declaration order.
func (m *Method) Locals() []*Local { return m.locals }

// CountInstructions returns the total instruction count across all blocks.
func (m *Method) CountInstructions() int {
	n := 0
	for _, b := range m.Blocks {
		n += b.Size()
	}
	return n
}

// WalkAllInstructions visits every instruction in block order, invoking fn
// with a walker positioned at each one. fn may mutate the block at the
// cursor (insert before, replace, erase) without invalidating the
// traversal.
func (m *Method) WalkAllInstructions(fn func(Walker)) {
	w := m.beginWalker()
	for !w.IsEndOfMethod() {
		next := w.NextInMethod()
		fn(w)
		w = next
	}
}

// Begin returns a walker positioned at the method's first instruction
// overall (the first non-empty block's first instruction), usable by
// drivers that need to step backward across block boundaries (e.g. the
// single-steps replay driver), which WalkAllInstructions's callback style
// does not support.
func (m *Method) Begin() Walker { return m.beginWalker() }

// End returns a walker positioned one past the method's last instruction.
func (m *Method) End() Walker { return m.endWalker() }

func (m *Method) beginWalker() Walker {
	for _, b := range m.Blocks {
		w := b.Begin()
		if !w.IsEndOfBlock() {
			return w
		}
	}
	return m.endWalker()
}

func (m *Method) endWalker() Walker {
	if len(m.Blocks) == 0 {
		panic("ir: method has no blocks")
	}
	last := m.Blocks[len(m.Blocks)-1]
	return last.End()
}

// blockAfter returns the block following `b` in method order, or nil.
func (m *Method) blockAfter(b *BasicBlock) *BasicBlock {
	for i, cur := range m.Blocks {
		if cur == b {
			if i+1 < len(m.Blocks) {
				return m.Blocks[i+1]
			}
			return nil
		}
	}
	return nil
}

// blockBefore returns the block preceding `b` in method order, or nil.
func (m *Method) blockBefore(b *BasicBlock) *BasicBlock {
	for i, cur := range m.Blocks {
		if cur == b {
			if i > 0 {
				return m.Blocks[i-1]
			}
			return nil
		}
	}
	return nil
}

func (m *Method) String() string {
	return fmt.Sprintf("method %s (%d blocks, %d instructions)", m.Name, len(m.Blocks), m.CountInstructions())
}
