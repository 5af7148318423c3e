package ir

// ConstantHandle indexes Module.Constants.
type ConstantHandle uint32

// Constant is a typed immediate. Composite constants reference their
// already-discovered element constants by handle, so Module.Constants
// is always populated in dependency order (elements before composites).
type Constant struct {
	Name  string
	Type  TypeHandle
	Value ConstantValue
}

// ConstantValue is the closed set of constant value shapes.
type ConstantValue interface {
	constantValue()
}

// ScalarConst is a bool/int/float immediate. Bits holds the raw bit
// pattern (zero/sign-extended for ints, IEEE-754 for floats); Kind says
// how to interpret them. Bool uses Bits 0 or 1.
type ScalarConst struct {
	Bits uint64
	Kind ScalarKind
}

func (ScalarConst) constantValue() {}

// CompositeConst is a vector/array/struct aggregate built from
// already-emitted element constants.
type CompositeConst struct {
	Components []ConstantHandle
}

func (CompositeConst) constantValue() {}

// NullConst is the zero value of a structured type (struct, array,
// pointer, sampler, image). Scalars and vectors use ScalarConst/
// CompositeConst of zero components instead.
type NullConst struct{}

func (NullConst) constantValue() {}

// UndefConst is an explicitly undefined value. When Options.HackUndef
// is set, the constant emitter rewrites these to NullConst for numeric
// types (a driver workaround named in spec.md §9).
type UndefConst struct{}

func (UndefConst) constantValue() {}
