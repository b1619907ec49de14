package optimize

import (
	"github.com/pfoof/VC4C/ir"
	"github.com/pfoof/VC4C/transform"
)

// runStepList is the cursor-replay-on-change driver spec.md §4.4 describes
// for the SingleSteps pass, generalized here to take any ordered step list
// so combinePass can reuse it with a narrower subset. It walks the method
// once; at each position it applies `steps` in order. A step that reports a
// change, or whose returned cursor differs from the one it was given, causes
// the driver to reset to `prev` (the cursor one position before the one
// currently being processed) and replay the whole list from there -- this
// tolerates a step that inserted before the cursor, replaced it in place, or
// erased it.
//
// Per the Open Question this spec leaves unresolved (source only says the
// pass "returns true unconditionally"), this driver tracks real aggregate
// change across the whole walk instead of hardcoding true, so the
// fixed-point driver can actually detect quiescence.
func runStepList(m *ir.Method, steps []transform.Step) (bool, error) {
	if len(m.Blocks) == 0 {
		return false, nil
	}

	anyChanged := false
	w := m.Begin()
	var prev ir.Walker
	havePrev := false

	for !w.IsEndOfMethod() {
		restarted := false
		for _, step := range steps {
			input := w
			next, changed, err := step(m, w)
			if err != nil {
				return false, err
			}
			if changed {
				anyChanged = true
			}
			if changed || next != input {
				if havePrev {
					w = prev
				} else {
					w = m.Begin()
				}
				restarted = true
				break
			}
			w = next
		}
		if restarted {
			continue
		}
		prev = w
		havePrev = true
		w = w.NextInMethod()
	}
	return anyChanged, nil
}
