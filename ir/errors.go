package ir

import "fmt"

// Kind identifies the closed set of structured error kinds the core can
// raise. Transformations fail fast: they never recover from one of these,
// they only propagate it to the pass that invoked them.
type Kind string

const (
	InvalidOperand        Kind = "InvalidOperand"
	InvalidContainerType  Kind = "InvalidContainerType"
	NonLiteralStructIndex Kind = "NonLiteralStructIndex"
	TypeMismatch          Kind = "TypeMismatch"
	UnsupportedWidth      Kind = "UnsupportedWidth"
	UnknownPassPhase      Kind = "UnknownPassPhase"
	Unimplemented         Kind = "Unimplemented"
)

// Stage names the compilation stage that raised a CompilationError.
type Stage string

const (
	StageNormalizer Stage = "normalizer"
	StageOptimizer  Stage = "optimizer"
	StageLowering   Stage = "lowering"
)

// CompilationError is the single structured error type the core raises. It
// carries enough context (stage, kind, a human detail mentioning the
// offending value) for a caller to report something useful without the
// core having to know anything about how diagnostics are rendered.
type CompilationError struct {
	Stage  Stage
	Kind   Kind
	Detail string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Detail)
}

func newErr(stage Stage, kind Kind, format string, args ...interface{}) *CompilationError {
	return &CompilationError{Stage: stage, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func NewInvalidOperand(stage Stage, value fmt.Stringer) *CompilationError {
	return newErr(stage, InvalidOperand, "invalid operand: %s", value)
}

func NewInvalidContainerType(stage Stage, typ fmt.Stringer) *CompilationError {
	return newErr(stage, InvalidContainerType, "invalid container type to retrieve element via index: %s", typ)
}

func NewNonLiteralStructIndex(stage Stage, value fmt.Stringer) *CompilationError {
	return newErr(stage, NonLiteralStructIndex, "can't access struct element with non-literal index: %s", value)
}

func NewTypeMismatch(stage Stage, got, want fmt.Stringer) *CompilationError {
	return newErr(stage, TypeMismatch, "types of retrieving indices do not match: got %s, expected %s", got, want)
}

func NewUnsupportedWidth(stage Stage, bits int) *CompilationError {
	return newErr(stage, UnsupportedWidth, "invalid number of bits for byte-swap: %d", bits)
}

func NewUnknownPassPhase(stage Stage, phase fmt.Stringer) *CompilationError {
	return newErr(stage, UnknownPassPhase, "unhandled optimization phase: %s", phase)
}

func NewUnimplemented(stage Stage, detail string) *CompilationError {
	return newErr(stage, Unimplemented, "%s", detail)
}
