package optimize

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pfoof/VC4C/ir"
)

const defaultMethodCacheCapacity = 1024

// CachedResult is what MethodCache remembers about a prior optimization run
// of a byte-identical method: enough to report the same outcome without
// replaying every pass.
type CachedResult struct {
	InstructionCount int
	Trace            []string
}

// MethodCache is an LRU keyed by a content hash of a method's
// pre-optimization instruction stream, directly grounded on the teacher's
// MIRCache (core/opcodeCompiler/compiler/mirCache.go): same
// lru.Cache[common.Hash, V] backing, Get/Store over the LRU's Get/Add, generalized from a
// single global instance to one the Optimizer owns so tests can build
// independent caches. A miss always falls through to actually running the
// passes -- this cache is purely an optimization over repeated identical
// input, never a correctness dependency.
type MethodCache struct {
	inner *lru.Cache[common.Hash, CachedResult]
}

// NewMethodCache builds a cache holding up to `capacity` entries (0 uses the
// teacher's own default capacity).
func NewMethodCache(capacity int) *MethodCache {
	if capacity <= 0 {
		capacity = defaultMethodCacheCapacity
	}
	return &MethodCache{inner: lru.NewCache[common.Hash, CachedResult](capacity)}
}

// Hash computes the method's content-hash cache key: a Keccak256 digest over
// the method name, block labels and the string form of every instruction,
// in block and instruction order. Instruction strings include the locals'
// full names with their generated numeric suffixes; those suffixes are
// derived deterministically from declaration order, so repeated runs of the
// same input yield the same key. Grounded on
// lowering.MemoryAccessRange.ContentHash's shape.
func (c *MethodCache) Hash(m *ir.Method) common.Hash {
	buf := make([]byte, 0, 256)
	buf = append(buf, []byte(m.Name)...)
	for _, b := range m.Blocks {
		buf = append(buf, []byte(b.Label)...)
		for _, instr := range b.Instructions() {
			buf = append(buf, []byte(instr.String())...)
		}
	}
	return crypto.Keccak256Hash(buf)
}

// Get returns the cached result for `hash`, or (zero, false) on a miss.
func (c *MethodCache) Get(hash common.Hash) (CachedResult, bool) {
	return c.inner.Get(hash)
}

// Store records the outcome of optimizing a method under `hash`.
func (c *MethodCache) Store(hash common.Hash, result CachedResult) {
	c.inner.Add(hash, result)
}

// Len returns the number of entries currently cached.
func (c *MethodCache) Len() int { return c.inner.Len() }

func traceKey(phase Phase, index int) string {
	return string(phase) + "#" + strconv.Itoa(index)
}
