package optimize

import (
	"github.com/pfoof/VC4C/analysis"
	"github.com/pfoof/VC4C/ir"
	"github.com/pfoof/VC4C/transform"
)

// Phase is the closed set a catalog entry's tag must fall into; any other
// value reaching the driver is an UnknownPassPhase error.
type Phase string

const (
	PhaseInitial Phase = "initial"
	PhaseRepeat  Phase = "repeat"
	PhaseFinal   Phase = "final"
)

func (p Phase) String() string { return string(p) }

// PassAction runs one optimization pass over an entire method, reporting
// whether it changed anything. Declared as a plain function type rather
// than an interface per the spec's design note preferring tagged records
// with a callable over deep inheritance.
type PassAction func(m *ir.Method) (bool, error)

// OptimizationPass is one catalog entry: a stable user-facing name, the
// phase it runs in, and its action. Grounded on original_source's
// OptimizationPass (name + function pointer), generalized from a raw
// function pointer to a Go closure.
type OptimizationPass struct {
	Name   string
	Phase  Phase
	Action PassAction
}

func namesToSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Catalog is the program-lifetime-constant list of every optimization pass,
// built once at package initialization, grounded on
// Optimizer::ALL_PASSES/SINGLE_STEPS. Every name from spec.md §6 appears
// exactly once, in the order listed there.
var Catalog = []OptimizationPass{
	{"loop-work-groups", PhaseInitial, loopWorkGroups},
	{"reorder-blocks", PhaseInitial, reorderBlocks},
	{"simplify-conditionals", PhaseRepeat, simplifyConditionals},
	{"simplify-branches", PhaseInitial, simplifyBranches},
	{"merge-blocks", PhaseInitial, mergeBlocks},
	{"vectorize-loops", PhaseInitial, vectorizeLoops},
	{"single-steps", PhaseRepeat, singleStepsPass},
	{"combine-rotations", PhaseRepeat, combineRotations},
	{"eliminate-moves", PhaseRepeat, eliminateMoves},
	{"eliminate-common-subexpressions", PhaseRepeat, eliminateCommonSubexpressions},
	{"eliminate-bit-operations", PhaseRepeat, eliminateBitOperations},
	{"copy-propagation", PhaseRepeat, copyPropagation},
	{"remove-unused-flags", PhaseRepeat, removeUnusedFlags},
	{"eliminate-dead-code", PhaseRepeat, eliminateDeadCode},
	{"compress-work-group-info", PhaseInitial, compressWorkGroupInfo},
	{"split-read-write", PhaseInitial, splitReadWrite},
	{"combine-loads", PhaseFinal, combineLoads},
	{"extract-loads-from-loops", PhaseFinal, extractLoadsFromLoops},
	{"work-group-cache", PhaseFinal, workGroupCache},
	{"schedule-instructions", PhaseFinal, scheduleInstructions},
	{"reorder", PhaseFinal, reorderConstants},
	{"combine", PhaseRepeat, combinePass},
}

// LevelPresets maps each optimization level to the set of pass names it
// enables, pre-computed once (per the spec's design note on static
// level-preset subsets) rather than recomputed per method. The cascade is
// inclusive (basic subseteq medium subseteq full) satisfying the level
// monotonicity property of spec.md §8.
//
// compress-work-group-info is deliberately absent from every preset: per
// spec.md §8's level-cascade scenario, `full` enables every catalog name
// except this one, so it is only ever reachable through
// Configuration.AdditionalEnabledOptimizations.
var LevelPresets = buildLevelPresets()

func buildLevelPresets() map[OptimizationLevel]map[string]struct{} {
	none := namesToSet("split-read-write")

	basic := namesToSet("split-read-write",
		"eliminate-dead-code", "simplify-branches", "merge-blocks", "eliminate-moves")

	medium := namesToSet("split-read-write",
		"eliminate-dead-code", "simplify-branches", "merge-blocks", "eliminate-moves",
		"single-steps", "combine-rotations", "copy-propagation",
		"eliminate-common-subexpressions", "eliminate-bit-operations",
		"remove-unused-flags", "reorder-blocks", "simplify-conditionals", "combine")

	full := namesToSet("split-read-write",
		"eliminate-dead-code", "simplify-branches", "merge-blocks", "eliminate-moves",
		"single-steps", "combine-rotations", "copy-propagation",
		"eliminate-common-subexpressions", "eliminate-bit-operations",
		"remove-unused-flags", "reorder-blocks", "simplify-conditionals", "combine",
		"loop-work-groups", "vectorize-loops", "combine-loads",
		"extract-loads-from-loops", "work-group-cache", "schedule-instructions", "reorder")

	return map[OptimizationLevel]map[string]struct{}{
		LevelNone:   none,
		LevelBasic:  basic,
		LevelMedium: medium,
		LevelFull:   full,
	}
}

// -----------------------------------------------------------------------
// Pass actions.
//
// Several of these decline (return false, nil) because the original_source
// rewrite of the same name depends on a hardware concept this IR does not
// model -- condition flags, SFU registers, an explicit Load/Store opcode, or
// work-group-size metadata on Method. Of the declining passes only
// vectorizeLoops looks at the method (for a self-looping block) before
// returning false; the others return false without inspecting it.

// loopWorkGroups would wrap a single-work-item kernel body in a loop over
// the work-group's local size. Declines: Method carries no work-group-size
// field to loop over (this IR's Method models a kernel signature and CFG,
// not its launch configuration).
func loopWorkGroups(m *ir.Method) (bool, error) {
	return false, nil
}

// reorderBlocks places blocks with no successors (returns) at the end of
// the method's block list. A pure slice reorder -- it does not touch
// Predecessors/Successors links, so it cannot violate CFG stability.
func reorderBlocks(m *ir.Method) (bool, error) {
	changed := false
	n := len(m.Blocks)
	reordered := make([]*ir.BasicBlock, 0, n)
	var exits []*ir.BasicBlock
	for _, b := range m.Blocks {
		if len(b.Successors) == 0 {
			exits = append(exits, b)
		} else {
			reordered = append(reordered, b)
		}
	}
	reordered = append(reordered, exits...)
	for i := range reordered {
		if reordered[i] != m.Blocks[i] {
			changed = true
		}
	}
	if changed {
		copy(m.Blocks, reordered)
	}
	return changed, nil
}

// simplifyConditionals would fold a conditional branch whose flag state is
// statically known into an unconditional jump. Declines: this IR has no
// conditional-branch instruction kind (block exits are structural, not an
// IntermediateInstruction), so there is nothing FlagStateAnalysis's result
// could rewrite here.
func simplifyConditionals(m *ir.Method) (bool, error) {
	return false, nil
}

// simplifyBranches removes an empty block with exactly one successor by
// rewiring every one of its predecessors to target that successor directly
// -- collapsing a block that exists only as an unconditional fallthrough.
// A block with no predecessors (such as the entry block) is kept.
// Distinct from mergeBlocks, which folds non-empty linear chains together;
// this handles the degenerate all-instructions-already-eliminated case
// eliminate-dead-code/eliminate-moves can leave behind. Grounded on
// original_source's separate simplifyBranches/mergeBlocks pass pair
// operating over the same adjacency.
func simplifyBranches(m *ir.Method) (bool, error) {
	changed := false
	for {
		removed := false
		for i, b := range m.Blocks {
			if b.Size() != 0 || len(b.Successors) != 1 || len(b.Predecessors) == 0 {
				continue
			}
			succ := b.Successors[0]
			if succ == b {
				continue
			}
			for _, pred := range b.Predecessors {
				if pred == b {
					continue
				}
				for j, s := range pred.Successors {
					if s == b {
						pred.Successors[j] = succ
					}
				}
				succ.Predecessors = append(succ.Predecessors, pred)
			}
			newPreds := succ.Predecessors[:0]
			for _, p := range succ.Predecessors {
				if p != b {
					newPreds = append(newPreds, p)
				}
			}
			succ.Predecessors = newPreds
			m.Blocks = append(m.Blocks[:i], m.Blocks[i+1:]...)
			removed = true
			changed = true
			break
		}
		if !removed {
			break
		}
	}
	return changed, nil
}

// mergeBlocks concatenates a block into its unique predecessor when that
// predecessor's only successor is this block and this block's only
// predecessor is that predecessor -- collapsing a purely linear CFG edge
// into one block. Initial-phase only: it removes a block from Method.Blocks
// and rewrites adjacency, which repeat/final passes must never do (spec §8
// CFG stability).
func mergeBlocks(m *ir.Method) (bool, error) {
	changed := false
	for {
		merged := false
		for i, b := range m.Blocks {
			if len(b.Predecessors) != 1 {
				continue
			}
			pred := b.Predecessors[0]
			if pred == b || len(pred.Successors) != 1 || pred.Successors[0] != b {
				continue
			}
			for _, instr := range b.Instructions() {
				pred.Append(instr)
			}
			pred.Successors = b.Successors
			for _, succ := range b.Successors {
				for j, p := range succ.Predecessors {
					if p == b {
						succ.Predecessors[j] = pred
					}
				}
			}
			m.Blocks = append(m.Blocks[:i], m.Blocks[i+1:]...)
			merged = true
			changed = true
			break
		}
		if !merged {
			break
		}
	}
	return changed, nil
}

// vectorizeLoops would widen a scalar loop body to operate on a vector of
// work-items per iteration. Declines: recognizing a single-block self-loop
// (a block that is its own successor) is the real trigger shape, but
// deciding a safe vector width needs a target lane-count parameter this
// IR's Method does not carry.
func vectorizeLoops(m *ir.Method) (bool, error) {
	for _, b := range m.Blocks {
		for _, succ := range b.Successors {
			if succ == b {
				return false, nil
			}
		}
	}
	return false, nil
}

// singleStepsPass is the repeat-phase entry running the full ordered step
// list via runStepList, grounded on runSingleSteps.
func singleStepsPass(m *ir.Method) (bool, error) {
	return runStepList(m, []transform.Step{
		transform.CombineSelectionWithZero,
		transform.CombineSettingSameFlags,
		transform.CombineSettingFlagsWithOutput,
		transform.FoldConstants,
		transform.SimplifyArithmetic,
		transform.CombineArithmetics,
		transform.RewriteConstantSFU,
	})
}

// combinePass is the generic "combine" catalog entry: a smaller subset of
// the single-steps list, grounded on original_source cataloging a narrower
// combine-only pass distinct from the full single-steps sweep.
func combinePass(m *ir.Method) (bool, error) {
	return runStepList(m, []transform.Step{
		transform.CombineSettingSameFlags,
		transform.CombineSettingFlagsWithOutput,
		transform.CombineArithmetics,
		transform.RewriteConstantSFU,
	})
}

// combineRotations merges two consecutive rotations of the same local into
// one combined rotation amount, when both are compile-time-known (decorated
// FixedWidthRotation) -- grounded on the decoration's own doc comment. The
// first rotation is erased once nothing else reads its result.
func combineRotations(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Op != ir.OpRor || !instr.HasDecoration(ir.FixedWidthRotation) {
				w = w.Next()
				continue
			}
			srcLocal := instr.FirstOperand().Local()
			if srcLocal == nil {
				w = w.Next()
				continue
			}
			prevInstr := srcLocal.SingleWriter()
			if prevInstr == nil || prevInstr == instr || prevInstr.Op != ir.OpRor || !prevInstr.HasDecoration(ir.FixedWidthRotation) {
				w = w.Next()
				continue
			}
			amt1, ok1 := instr.SecondOperand()
			amt2, ok2 := prevInstr.SecondOperand()
			lit1, litOk1 := amt1.GetLiteral()
			lit2, litOk2 := amt2.GetLiteral()
			if !ok1 || !ok2 || !litOk1 || !litOk2 {
				w = w.Next()
				continue
			}
			width := uint64(instr.Operands[0].Type().ScalarBitCount())
			if width == 0 {
				width = 32
			}
			combined := (lit1.Unsigned() + lit2.Unsigned()) % width
			rebuilt := ir.NewDecoratedOperation(ir.OpRor, instr.OutputValue(), instr.Decorations(),
				prevInstr.FirstOperand(), ir.LiteralValue(ir.NewLiteral(combined), amt1.Type()))
			w = w.Replace(rebuilt)
			if len(srcLocal.Readers()) == 0 {
				prevInstr.Walker().Erase()
			}
			changed = true
			w = w.Next()
		}
	}
	return changed, nil
}

// eliminateMoves removes a move whose destination and source are the same
// local -- the trivial case left behind once other passes have retargeted
// operands in place.
func eliminateMoves(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Op == ir.OpMove && instr.Output() != nil && instr.FirstOperand().HasLocal(instr.Output()) {
				w = w.Erase()
				changed = true
				continue
			}
			w = w.Next()
		}
	}
	return changed, nil
}

// cseKey builds the value-numbering key for an instruction: its opcode plus
// every operand's string form. Two instructions sharing a key compute the
// same value as long as neither reads a location that can change between
// them -- true here since this IR has no explicit memory-load opcode
// (combine-loads/work-group-cache are the catalog entries that would guard
// that case, and decline for exactly that reason).
func cseKey(instr *ir.IntermediateInstruction) string {
	key := instr.Op.String()
	for _, op := range instr.Operands {
		key += "|" + op.String()
	}
	return key
}

// eliminateRedundantComputations is the shared engine behind
// eliminate-common-subexpressions and compress-work-group-info: within each
// block, the first instruction matching `filter` establishes a value number;
// a later instruction with the same key and filter match is replaced by a
// move of the first's output.
func eliminateRedundantComputations(m *ir.Method, filter func(*ir.IntermediateInstruction) bool) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		seen := make(map[string]*ir.Local)
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Output() == nil || !filter(instr) {
				w = w.Next()
				continue
			}
			key := cseKey(instr)
			if earlier, ok := seen[key]; ok {
				mv := ir.NewDecoratedOperation(ir.OpMove, instr.OutputValue(), instr.Decorations(), ir.LocalValue(earlier))
				w = w.Replace(mv)
				changed = true
				w = w.Next()
				continue
			}
			seen[key] = instr.Output()
			w = w.Next()
		}
	}
	return changed, nil
}

// eliminateCommonSubexpressions applies value numbering to every
// side-effect-free instruction (everything but OpCall, which may have
// effects beyond its declared output).
func eliminateCommonSubexpressions(m *ir.Method) (bool, error) {
	return eliminateRedundantComputations(m, func(i *ir.IntermediateInstruction) bool {
		return i.Op != ir.OpCall
	})
}

// compressWorkGroupInfo applies the same value numbering restricted to
// instructions decorated WorkGroupUniform -- repeated reads of
// work-group-invariant state (group id, local size) collapse to one,
// grounded on the teacher's work-group-info caching intent even though this
// IR represents "work-group info" as a decoration rather than a dedicated
// intrinsic opcode.
func compressWorkGroupInfo(m *ir.Method) (bool, error) {
	return eliminateRedundantComputations(m, func(i *ir.IntermediateInstruction) bool {
		return i.HasDecoration(ir.WorkGroupUniform)
	})
}

// eliminateBitOperations cancels a double negation (not(not(x)) == x),
// fusing the two instructions the same way transform.CombineSelectionWithZero
// fuses a definer with its trivial consumer.
func eliminateBitOperations(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Op != ir.OpNot {
				w = w.Next()
				continue
			}
			srcLocal := instr.FirstOperand().Local()
			if srcLocal == nil {
				w = w.Next()
				continue
			}
			inner := srcLocal.SingleWriter()
			if inner == nil || inner == instr || inner.Op != ir.OpNot || len(srcLocal.Readers()) != 1 {
				w = w.Next()
				continue
			}
			mv := ir.NewDecoratedOperation(ir.OpMove, instr.OutputValue(), instr.Decorations(), inner.FirstOperand())
			w = w.Replace(mv)
			inner.Walker().Erase()
			changed = true
			w = w.Next()
		}
	}
	return changed, nil
}

// copyPropagation rewrites an operand local with the original source of the
// move that most recently (and still validly) defined it, grounded directly
// on analysis.ReachingMovesAnalysis.
func copyPropagation(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		ra := analysis.NewReachingMovesAnalysis()
		ra.Analyze(b)
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if w.IsStartOfBlock() {
				w = w.Next()
				continue
			}
			prevInstr := w.Previous().Get()
			rewrote := false
			newOperands := make([]ir.Value, len(instr.Operands))
			for i, op := range instr.Operands {
				l := op.Local()
				if l == nil {
					newOperands[i] = op
					continue
				}
				if mv, ok := ra.ReachingMove(prevInstr, l); ok {
					newOperands[i] = mv.FirstOperand()
					rewrote = true
				} else {
					newOperands[i] = op
				}
			}
			if rewrote {
				rebuilt := ir.NewDecoratedOperation(instr.Op, instr.OutputValue(), instr.Decorations(), newOperands...)
				w = w.Replace(rebuilt)
				changed = true
			}
			w = w.Next()
		}
	}
	return changed, nil
}

// removeUnusedFlags would drop a flag-setting side effect nothing downstream
// consults. Declines: analysis.FlagStateAnalysis infers *values*, useful for
// constant-propagation-style reasoning, but this IR's instructions carry no
// separate flags-written bit a later pass could observe as "unused" the way
// original_source's condition-code field can.
func removeUnusedFlags(m *ir.Method) (bool, error) {
	return false, nil
}

// eliminateDeadCode erases every instruction whose output is dead
// immediately after it, per analysis.LivenessAnalysis. Calls are preserved
// even with a dead output since they may carry effects beyond it.
func eliminateDeadCode(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		la := analysis.NewLivenessAnalysis()
		la.Analyze(b)
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Op != ir.OpCall && instr.Output() != nil && la.IsDead(instr) {
				w = w.Erase()
				changed = true
				continue
			}
			w = w.Next()
		}
	}
	return changed, nil
}

// splitReadWrite splits an in-place element insertion (a move decorated
// ElementInsertion whose output local is also one of its own operands) into
// an explicit read of the current value followed by the write of the new
// one -- separating the implicit read-modify-write VPM access pattern the
// teacher's MemoryAccessor tracks structurally. Runs in the initial phase:
// level `none` still enables it per spec.md §9's design note, since
// downstream lowering assumes reads and writes are never fused.
func splitReadWrite(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		for w := b.Begin(); !w.IsEndOfBlock(); {
			instr := w.Get()
			if instr.Op != ir.OpMove || !instr.HasDecoration(ir.ElementInsertion) || instr.Output() == nil {
				w = w.Next()
				continue
			}
			if !instr.FirstOperand().HasLocal(instr.Output()) {
				w = w.Next()
				continue
			}
			tmp := m.AddNewLocal("split_read", instr.Output().Type)
			readInstr := ir.NewOperation(ir.OpMove, ir.LocalValue(tmp), instr.FirstOperand())
			w = w.Emplace(readInstr)
			rebuilt := ir.NewDecoratedOperation(ir.OpMove, instr.OutputValue(), instr.Decorations(), ir.LocalValue(tmp))
			w = w.Replace(rebuilt)
			changed = true
			w = w.Next()
		}
	}
	return changed, nil
}

// combineLoads would merge adjacent loads of overlapping address ranges
// into one wider transfer. Declines: this IR has no explicit Load opcode --
// memory access is represented only in the lowering package's address
// arithmetic, never tagged on an IntermediateInstruction -- so there is no
// instruction-level shape to merge.
func combineLoads(m *ir.Method) (bool, error) {
	return false, nil
}

// extractLoadsFromLoops would hoist a loop-invariant load above a
// self-looping block. Declines for the same reason as combineLoads: no
// Load opcode to hoist.
func extractLoadsFromLoops(m *ir.Method) (bool, error) {
	return false, nil
}

// workGroupCache would cache a VPM read keyed by its address range across
// iterations of a work-group loop. Declines for the same reason as
// combineLoads.
func workGroupCache(m *ir.Method) (bool, error) {
	return false, nil
}

// scheduleInstructions would reorder independent instructions within a
// block to hide issue latency on a specific pipeline. Declines: this IR
// models no per-opcode latency table to schedule against.
func scheduleInstructions(m *ir.Method) (bool, error) {
	return false, nil
}

// reorderConstants hoists a literal-only move (one with no local operands)
// to immediately follow the last already-hoisted constant in its block,
// grouping constant materialization at the front -- a real, safe scheduling
// heuristic that needs no latency model.
func reorderConstants(m *ir.Method) (bool, error) {
	changed := false
	for _, b := range m.Blocks {
		instrs := b.Instructions()
		var consts []*ir.IntermediateInstruction
		for _, instr := range instrs {
			if instr.Op == ir.OpMove && len(instr.Operands) == 1 {
				if _, ok := instr.Operands[0].GetLiteral(); ok {
					consts = append(consts, instr)
				}
			}
		}
		if len(consts) == 0 {
			continue
		}
		alreadyFront := true
		for i, instr := range consts {
			if instrs[i] != instr {
				alreadyFront = false
				break
			}
		}
		if alreadyFront {
			continue
		}
		for _, instr := range consts {
			instr.Walker().Erase()
		}
		insertAt := b.Begin()
		for _, instr := range consts {
			insertAt = insertAt.Emplace(instr)
		}
		changed = true
	}
	return changed, nil
}
