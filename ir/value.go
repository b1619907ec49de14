package ir

import "fmt"

type valueKind byte

const (
	valueUndefined valueKind = iota
	valueLiteral
	valueVector
	valueLocal
	valueRegister
)

// Literal is a scalar immediate, readable as either a signed or unsigned
// view of the same bit pattern.
type Literal struct {
	bits uint64
}

func NewLiteral(unsigned uint64) Literal { return Literal{bits: unsigned} }
func NewSignedLiteral(signed int64) Literal { return Literal{bits: uint64(signed)} }

func (l Literal) Unsigned() uint64 { return l.bits }
func (l Literal) Signed() int64    { return int64(l.bits) }

func (l Literal) String() string { return fmt.Sprintf("%d", l.Signed()) }

// SIMDVector is a fixed-width literal vector: one Literal per lane.
type SIMDVector []Literal

func (v SIMDVector) String() string {
	s := "<"
	for i, l := range v {
		if i > 0 {
			s += ", "
		}
		s += l.String()
	}
	return s + ">"
}

// Register names a hardware register handle this IR refers to without
// owning (e.g. the per-QPU lane-id register consulted by stack-offset
// lowering).
type Register struct {
	Name string
}

// Value is the symbolic operand variant: Literal, Vector, Local, Register or
// Undefined, each carrying a DataType. Represented as a tagged struct
// (teacher convention, see DataType's doc comment) rather than an
// interface, so Values are cheap to copy and compare.
type Value struct {
	kind    valueKind
	typ     DataType
	literal Literal
	vector  SIMDVector
	local   *Local
	reg     Register
}

func Undefined(typ DataType) Value {
	return Value{kind: valueUndefined, typ: typ}
}

func LiteralValue(lit Literal, typ DataType) Value {
	return Value{kind: valueLiteral, typ: typ, literal: lit}
}

func VectorValue(vec SIMDVector, typ DataType) Value {
	return Value{kind: valueVector, typ: typ, vector: vec}
}

func LocalValue(l *Local) Value {
	return Value{kind: valueLocal, typ: l.Type, local: l}
}

func RegisterValue(reg Register, typ DataType) Value {
	return Value{kind: valueRegister, typ: typ, reg: reg}
}

func (v Value) Type() DataType { return v.typ }

func (v Value) IsUndefined() bool { return v.kind == valueUndefined }

// IsReadable reports whether this value can be used as an operand.
// Every variant except a bare Undefined with no producer is readable;
// Undefined itself stands for "no value", so it is not.
func (v Value) IsReadable() bool { return v.kind != valueUndefined }

// IsWriteable reports whether this value can be assigned to -- only Locals
// (and, in principle, writeable hardware sinks, which this port represents
// as Locals bound to a register) qualify.
func (v Value) IsWriteable() bool { return v.kind == valueLocal }

// GetLiteral returns (literal, true) if this value is a literal.
func (v Value) GetLiteral() (Literal, bool) {
	if v.kind == valueLiteral {
		return v.literal, true
	}
	return Literal{}, false
}

// GetVector returns (vector, true) if this value is a SIMD vector literal.
func (v Value) GetVector() (SIMDVector, bool) {
	if v.kind == valueVector {
		return v.vector, true
	}
	return nil, false
}

// Local returns the backing Local, or nil if this value is not a Local.
func (v Value) Local() *Local {
	if v.kind == valueLocal {
		return v.local
	}
	return nil
}

// HasLocal reports whether this value is exactly the given local.
func (v Value) HasLocal(l *Local) bool {
	return v.kind == valueLocal && v.local == l
}

// IsZeroInitializer reports whether this value is the literal/vector zero.
func (v Value) IsZeroInitializer() bool {
	switch v.kind {
	case valueLiteral:
		return v.literal.bits == 0
	case valueVector:
		for _, l := range v.vector {
			if l.bits != 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SingleWriter returns the sole writer instruction of this value's local,
// or nil if this is not a local, or the local has zero or more-than-one
// writers.
func (v Value) SingleWriter() *IntermediateInstruction {
	if v.local == nil {
		return nil
	}
	return v.local.SingleWriter()
}

func (v Value) String() string {
	switch v.kind {
	case valueLiteral:
		return v.literal.String()
	case valueVector:
		return v.vector.String()
	case valueLocal:
		return v.local.Name
	case valueRegister:
		return "%" + v.reg.Name
	default:
		return "undef"
	}
}

var (
	IntZero     = LiteralValue(NewLiteral(0), TypeInt32)
	IntMinusOne = LiteralValue(NewSignedLiteral(-1), TypeInt32)
)
