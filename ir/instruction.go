package ir

// Instruction is one SSA-form operation inside a BasicBlock. Result is
// nil for operations with no value (Store, Fence, Barrier, void Call).
type Instruction struct {
	Result *ValueHandle
	Op     Opcode
}

// Opcode is the closed set of instruction kinds the lowering pass
// understands. Anything else reaching the Instruction Lowerer is an
// "Unsupported IR" fatal error (spec.md §7).
type Opcode interface {
	opcode()
}

// CastKind enumerates the scalar/vector conversion and reinterpretation
// operators the front end can emit.
type CastKind uint8

const (
	CastZExt   CastKind = iota // zero-extend (includes i1 widening)
	CastSExt                   // sign-extend (includes i1 widening)
	CastTrunc                  // truncate (includes i32->i8)
	CastUIToFP                 // unsigned int to float (includes i1 widening)
	CastSIToFP                 // signed int to float
	CastFPToUI                 // float to unsigned int
	CastFPToSI                 // float to signed int
	CastFPTrunc                // narrow float
	CastFPExt                  // widen float
	CastBitcast                // reinterpret bits, same width
)

// Cast converts Value from its current type to ResultType.
type Cast struct {
	Kind       CastKind
	Value      ValueHandle
	ResultType TypeHandle
}

func (Cast) opcode() {}

// BinaryOp enumerates arithmetic, bitwise, and shift binary operators.
// Comparisons are modeled separately (Compare) since they carry a
// predicate rather than living in this set.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinUDiv
	BinSDiv
	BinFDiv
	BinURem
	BinSRem
	BinFRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinLShr // logical right shift
	BinAShr // arithmetic right shift
)

// Binary applies Op to Left and Right, which must have identical
// types; the result has that same type.
type Binary struct {
	Op          BinaryOp
	Left, Right ValueHandle
}

func (Binary) opcode() {}

// UnaryOp enumerates the unary operators.
type UnaryOp uint8

const (
	UnaryFNeg UnaryOp = iota
	UnaryNot  // bitwise/logical not
)

// Unary applies Op to Value.
type Unary struct {
	Op    UnaryOp
	Value ValueHandle
}

func (Unary) opcode() {}

// Predicate is one of the 22 comparison predicates spec.md §4.6 names
// (the LLVM icmp/fcmp set, minus unordered-only predicates folded into
// their ordered counterparts at the front end).
type Predicate uint8

const (
	PredIEq Predicate = iota
	PredINe
	PredUGt
	PredUGe
	PredULt
	PredULe
	PredSGt
	PredSGe
	PredSLt
	PredSLe
	PredOEq
	PredONe
	PredOGt
	PredOGe
	PredOLt
	PredOLe
	PredUEq
	PredUNe
	PredUNo // unordered, no relation (isnan-ish)
	PredOrd // ordered (neither operand is NaN)
	PredFTrue
	PredFFalse
)

// Compare evaluates Pred over Left and Right, producing a bool or
// bool-vector result. Pointer equality (PredIEq/PredINe over pointer
// operands) is a fatal "Unsupported IR" error.
type Compare struct {
	Pred        Predicate
	Left, Right ValueHandle
}

func (Compare) opcode() {}

// GetElementPtr computes a pointer to a sub-object of Base by walking
// Indices. The first index, if present and non-zero, steps through an
// array dimension (pointer arithmetic); later indices step through
// array/struct/vector layers. All-constant-zero-first-index GEPs are
// the common "field access" shape; a non-constant or non-zero first
// index requires OpPtrAccessChain at lowering time.
type GetElementPtr struct {
	Base       ValueHandle
	Indices    []ValueHandle
	ResultType TypeHandle
}

func (GetElementPtr) opcode() {}

// ConstIndex, when non-nil on an index operand's defining instruction,
// lets the lowering pass recognize a compile-time-constant GEP index
// without a full constant-folding pass. Populated by the front end for
// literal indices only.
type ConstIndex struct {
	Value int64
}

func (ConstIndex) opcode() {}

// Load reads the value pointed to by Pointer.
type Load struct {
	Pointer ValueHandle
}

func (Load) opcode() {}

// Store writes Value to the location Pointer addresses. Never has a
// Result.
type Store struct {
	Pointer ValueHandle
	Value   ValueHandle
}

func (Store) opcode() {}

// ExtractElement reads one component out of a vector (or the packed
// <4 x i8> alias) at a dynamic Index.
type ExtractElement struct {
	Vector ValueHandle
	Index  ValueHandle
}

func (ExtractElement) opcode() {}

// InsertElement writes one component into a copy of a vector at a
// dynamic Index.
type InsertElement struct {
	Vector ValueHandle
	Value  ValueHandle
	Index  ValueHandle
}

func (InsertElement) opcode() {}

// ExtractValue reads one field out of an aggregate (array/struct) at a
// compile-time-constant Index path.
type ExtractValue struct {
	Aggregate ValueHandle
	Indices   []uint32
}

func (ExtractValue) opcode() {}

// InsertValue writes one field into a copy of an aggregate at a
// compile-time-constant Index path.
type InsertValue struct {
	Aggregate ValueHandle
	Value     ValueHandle
	Indices   []uint32
}

func (InsertValue) opcode() {}

// Select is the value-level ternary operator.
type Select struct {
	Condition    ValueHandle
	True, False  ValueHandle
}

func (Select) opcode() {}

// CompositeConstruct assembles a vector/array/struct from its
// components in one step; the front end emits this for aggregate
// literals rather than a chain of InsertValue.
type CompositeConstruct struct {
	ResultType TypeHandle
	Components []ValueHandle
}

func (CompositeConstruct) opcode() {}

// AtomicOp enumerates the OpenCL C atomic_* family.
type AtomicOp uint8

const (
	AtomicAdd AtomicOp = iota
	AtomicSub
	AtomicAnd
	AtomicOr
	AtomicXor
	AtomicMin
	AtomicMax
	AtomicExchange
)

// AtomicRMW performs a read-modify-write atomic operation and produces
// the prior value. Scope is always Device and Semantics is always
// UniformMemory|SequentiallyConsistent at this IR's level (OpenCL C
// 1.2-style atomics carry no explicit memory order); see spec.md §4.2
// item 4.
type AtomicRMW struct {
	Op      AtomicOp
	Pointer ValueHandle
	Value   ValueHandle
}

func (AtomicRMW) opcode() {}

// AtomicCmpXchg is unsupported IR: clspv-lineage kernels never emit it,
// and spec.md §7 lists it explicitly as a fatal "Unsupported IR" case.
// It is still modeled here so the discovery walker can recognize and
// reject it with a precise diagnostic instead of an opaque type error.
type AtomicCmpXchg struct {
	Pointer         ValueHandle
	Expected, New   ValueHandle
}

func (AtomicCmpXchg) opcode() {}

// Fence is unsupported IR (spec.md §7); modeled for the same reason as
// AtomicCmpXchg.
type Fence struct{}

func (Fence) opcode() {}

// BuiltinCall invokes one of the recognized OpenCL C builtin families
// (spec.md §4.6): image reads/writes/queries, math functions dispatched
// to GLSL.std.450, barriers, dot/fmod/popcount, isinf/isnan/any/all,
// and sampler-literal initialization. Mangled is the front end's
// mangled callee name and is what the builtin dispatch trie matches
// against (spec.md §9 "a sorted table lookup suffices").
type BuiltinCall struct {
	Mangled string
	Args    []ValueHandle
}

func (BuiltinCall) opcode() {}

// Call invokes a non-builtin function defined elsewhere in the module.
type Call struct {
	Callee FunctionHandle
	Args   []ValueHandle
}

func (Call) opcode() {}

// Alloca reserves a Function-address-space local (OpenCL C automatic
// variable, including arrays and structs); always emitted at function
// entry regardless of where it appears in source, matching spec.md
// §4.6's "stack allocations first" rule.
type Alloca struct {
	Type TypeHandle
}

func (Alloca) opcode() {}

// WorkgroupSizeBuiltin references the built-in get_local_size-style
// workgroup-size vector. Lowered either to a composed spec-constant
// vector or, with Options.HackInitializers, a private variable load
// (spec.md §4.6 "driver workaround").
type WorkgroupSizeBuiltin struct{}

func (WorkgroupSizeBuiltin) opcode() {}

// IsPhi reports whether inst is a Phi, which BasicBlock requires to be
// grouped at the head of Instructions.
func IsPhi(inst Instruction) bool {
	_, ok := inst.Op.(Phi)
	return ok
}

// Phi selects a value based on which predecessor block transferred
// control here. Naga's structured IR has no use for phi (if/loop
// statements make merges implicit); this CFG IR's correctness depends
// on it, and on the Deferred Fixup phase resolving it once every
// block's SPIR-V label id is known (spec.md §3 "Invariants").
type Phi struct {
	Type        TypeHandle
	Incoming    []PhiEdge
}

func (Phi) opcode() {}

// PhiEdge is one (value, predecessor) pair of a Phi.
type PhiEdge struct {
	Value ValueHandle
	Pred  BlockHandle
}
