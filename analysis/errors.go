package analysis

import "errors"

// ErrUnknownKey is returned by a result lookup keyed on an instruction or
// block that this analysis instance never analyzed -- the Go idiom for the
// C++ original's out_of_range thrown by std::map::at.
var ErrUnknownKey = errors.New("analysis: unknown key")
