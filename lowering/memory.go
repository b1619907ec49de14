package lowering

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pfoof/VC4C/ir"
)

// MemoryAccessType distinguishes VPM regions shared across all QPUs from
// regions allocated one slice per lane (register spilling, per-work-item
// stacks). Grounded on original_source's MemoryAccessType /
// toMemoryAccessType (periphery::VPMUsage -> SHARED vs PER_QPU).
type MemoryAccessType int

const (
	MemoryAccessShared MemoryAccessType = iota
	MemoryAccessPerQPU
)

// DynamicPart is one addend of a work-item-specific offset expression,
// paired with the decorations known to hold of it. Represented as a slice
// element rather than a map (as original_source's FastMap<Value,
// InstructionDecorations> is), since ir.Value embeds a slice field
// (SIMDVector) and is therefore not a valid Go map key; the slice also
// makes combineAdditions's fold order deterministic, which this port's
// determinism testable property requires.
type DynamicPart struct {
	Value       ir.Value
	Decorations ir.Decorations
}

// MemoryAccessRange describes one analyzed memory access: the container
// being indexed, the base address it is relative to, and the address
// expression split into a (possibly absent) constant part and an ordered
// list of dynamic parts plus an optional log2 element-size shift.
type MemoryAccessRange struct {
	Container      ir.Value
	BaseAddress    *ir.Local
	ConstantOffset *ir.Literal
	DynamicParts   []DynamicPart
	TypeSizeShift  *uint32
}

// ContentHash returns a stable digest of this range's container, constant
// offset, dynamic parts (sorted, so their order does not matter) and
// shift. Nothing in this module uses it as a cache key; the optimizer's
// MethodCache computes its own key from a method's instructions.
func (r *MemoryAccessRange) ContentHash() common.Hash {
	type encoded struct {
		key  string
		deco ir.Decorations
	}
	parts := make([]encoded, 0, len(r.DynamicParts))
	for _, p := range r.DynamicParts {
		parts = append(parts, encoded{key: p.Value.String(), deco: p.Decorations})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].key < parts[j].key })

	buf := make([]byte, 0, 64)
	buf = append(buf, []byte(r.Container.String())...)
	if r.ConstantOffset != nil {
		buf = append(buf, byte(r.ConstantOffset.Unsigned()))
	}
	for _, p := range parts {
		buf = append(buf, []byte(p.key)...)
		buf = append(buf, byte(p.deco))
	}
	if r.TypeSizeShift != nil {
		buf = append(buf, byte(*r.TypeSizeShift))
	}
	return crypto.Keccak256Hash(buf)
}

// VPMStorageType projects the in-VPM storage type for an element type:
// the on-chip scratchpad always stores one 32-bit word per lane, so any
// narrower scalar element is promoted to a full word for stack/spill
// sizing purposes. Grounded on periphery::VPM::getVPMStorageType.
func VPMStorageType(elem ir.DataType) ir.DataType {
	if elem.IsScalar() && elem.ScalarBitCount() < 32 {
		return ir.TypeInt32
	}
	return elem
}
