package ir

// Decorations is a fixed-width bitset of semantic flags attached to an
// instruction. Per the spec's design note, this is a small closed set
// modelled as a bitset with intersect/union, not a hierarchy of marker
// types.
type Decorations uint32

const (
	// UnsignedResult marks an instruction whose output is known to never
	// be negative -- consulted by MakePositive to skip emitting the
	// branchless sign-normalization sequence when it's already a no-op.
	UnsignedResult Decorations = 1 << iota
	// ElementInsertion marks a vector-lane insertion instruction.
	ElementInsertion
	// FixedWidthRotation marks a vector rotation by a compile-time-known
	// amount (supplemental: consulted by the combine-rotations pass to
	// avoid re-deriving the rotation amount from a dynamic operand).
	FixedWidthRotation
	// WorkGroupUniform marks a value known to be identical across every
	// lane of a work-group (supplemental: consulted by the work-group
	// cache pass).
	WorkGroupUniform
)

// Intersect returns the decorations common to both sets -- used by the
// address-lowering left-fold (combineAdditions) to preserve only the
// properties that hold of both operands being combined.
func (d Decorations) Intersect(other Decorations) Decorations {
	return d & other
}

// Union returns the decorations present in either set.
func (d Decorations) Union(other Decorations) Decorations {
	return d | other
}

// Has reports whether every flag in `flags` is set.
func (d Decorations) Has(flags Decorations) bool {
	return d&flags == flags
}
