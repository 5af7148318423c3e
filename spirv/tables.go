package spirv

import (
	"fmt"

	"github.com/clspv-go/clspv/ir"
)

// IDAllocator hands out monotonic result ids starting at 1, matching
// the SPIR-V convention that id 0 never names a result.
type IDAllocator struct {
	next uint32
}

// NewIDAllocator starts a fresh allocator.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Reserve returns the next id and advances the counter.
func (a *IDAllocator) Reserve() ID {
	id := ID(a.next)
	a.next++
	return id
}

// Bound is one past the largest id handed out so far; this is the
// value the module header's "bound" word records.
func (a *IDAllocator) Bound() uint32 { return a.next }

// ArgKind classifies a kernel argument for storage-class mapping and
// descriptor-map record shape (spec.md §4.3).
type ArgKind uint8

const (
	ArgSampler ArgKind = iota
	ArgImageReadOnly
	ArgImageWriteOnly
	ArgPointerLocal
	ArgPointerGlobal
	ArgPOD
	ArgPODUniform
)

// KernelArgResource is the module-scope binding synthesized for one
// kernel argument (spec.md §3 "Kernel-arg resource").
type KernelArgResource struct {
	Kernel        string
	Ordinal       int
	Kind          ArgKind
	StorageClass  StorageClass
	PointeeType   ir.TypeHandle
	VariableID    ID
	DescriptorSet uint32
	Binding       uint32
	Offset        uint32
}

// ConstGlobalResource is the module-scope resource synthesized for a
// __constant global kept as a storage buffer rather than rewritten
// into private scope (spec.md §4.2 item 6, "constants as storage
// buffer" mode; §6 "constant" sidecar record). It wraps the global's
// data in the same single-field-struct-of-runtime-array pattern a
// global-pointer kernel argument uses, so it is indexed the same way.
type ConstGlobalResource struct {
	Global        ir.GlobalVariableHandle
	Name          string
	WrappedType   ir.TypeHandle
	VariableID    ID
	DescriptorSet uint32
	Data          []byte
}

// LocalArgInfo is the specialization-constant-sized Workgroup array
// synthesized for a pointer-to-local kernel argument.
type LocalArgInfo struct {
	Kernel      string
	Ordinal     int
	SpecConstID ID
	SpecID      uint32
	ElemType    ir.TypeHandle
	ArrayTypeID ID
	VariableID  ID

	// ElemPointerTypeID is the Workgroup-class pointer-to-element type,
	// the Result Type operand of the precomputed element-0 AccessChain
	// (distinct from ArrayTypeID, which is the pointer-to-array type
	// used by the OpVariable itself).
	ElemPointerTypeID ID
	ElemPointerID     ID // id of the precomputed AccessChain to element 0
	ElemSize          uint32
}

// Tables holds every interning map and side table the lowering pass
// threads through its phases (spec.md §4.1). All maps are plain Go
// maps; iteration over them is never relied on for ordering — ordered
// lists (Types, Constants, kernel/argument slices) carry discovery
// order instead, per spec.md §5's determinism requirement.
type Tables struct {
	IDs *IDAllocator

	TypeID     map[ir.TypeHandle]ID
	ConstantID map[ir.ConstantHandle]ID
	ValueID    map[ir.ValueHandle]ID

	// TypeOrder and ConstantOrder record discovery order for the Type
	// and Constant Emitters to drain deterministically.
	TypeOrder     []ir.TypeHandle
	ConstantOrder []ir.ConstantHandle

	// SampledImageID maps an image TypeHandle to the OpTypeSampledImage
	// id emitted for it (one per distinct image type used in a read).
	SampledImageID map[ir.TypeHandle]ID

	// KernelArgs holds every synthesized resource, in (kernel,
	// ordinal) discovery order.
	KernelArgs []*KernelArgResource
	// LocalArgs holds every pointer-to-local argument's array info.
	LocalArgs []*LocalArgInfo

	// NeedsArrayStride is the set of (runtime- or fixed-size) array
	// type ids requiring an ArrayStride decoration.
	NeedsArrayStride map[ID]uint32 // type id -> element stride

	// ConstantPtrFuncType records, per regular Function, that one of its
	// parameters was a constant-space pointer whose address space
	// Discovery already rewrote to Private in place (spec.md §4.4
	// "Function types"); kept for downstream consumers that need to
	// know a signature was touched, since the OpTypeFunction builder
	// itself just reads the (already-rewritten) parameter types.
	ConstantPtrFuncType map[ir.FunctionHandle]bool

	// ConstGlobals holds every storage-buffer-mode constant global's
	// synthesized resource, in discovery order. ConstGlobalByHandle
	// indexes the same resources by the GlobalVariableHandle they
	// wrap, for O(1) lookup while lowering a reference to one.
	// ConstGlobalVariableID maps an inline-mode (rewritten-to-private)
	// constant global straight to its emitted OpVariable id.
	ConstGlobals          []*ConstGlobalResource
	ConstGlobalByHandle   map[ir.GlobalVariableHandle]*ConstGlobalResource
	ConstGlobalVariableID map[ir.GlobalVariableHandle]ID

	// WorkgroupSizeValueID is the composed vec3 value (spec-constant
	// composite, or hack-initializer load) representing
	// get_local_size(); WorkgroupSizeVariableID is the Private-class
	// shadow variable used by the hack-initializers path.
	WorkgroupSizeValueID    ID
	WorkgroupSizeVariableID ID
	WorkgroupSizeSpecIDs    [3]ID

	// ScalarZeroI32 is the id of the constant `i32 0`, reused by
	// AccessChains stepping into wrapper structs (spec.md §4.5).
	ScalarZeroI32 ID

	// UsesVariablePointers is set the first time an OpPtrAccessChain is
	// emitted (spec.md §4.6).
	UsesVariablePointers bool

	// ExtInstGLSL is the id of the imported "GLSL.std.450" set, zero
	// until the first extended-instruction call is discovered.
	ExtInstGLSL ID

	// blockLabel maps (function, block) to its OpLabel result id;
	// populated by the Instruction Lowerer, read by Deferred Fixup.
	blockLabel map[blockKey]ID

	// UsesImageQuery, UsesWriteOnlyImage, UsesInt8/16/64,
	// UsesFloat16/64 drive capability emission (spec.md §4.9).
	UsesImageQuery     bool
	UsesWriteOnlyImage bool
	UsesInt8           bool
	UsesInt16          bool
	UsesInt64          bool
	UsesFloat16        bool
	UsesFloat64        bool
}

// NewTables builds an empty Tables ready for the Discovery Walker.
func NewTables() *Tables {
	return &Tables{
		IDs:                 NewIDAllocator(),
		TypeID:              make(map[ir.TypeHandle]ID),
		ConstantID:          make(map[ir.ConstantHandle]ID),
		ValueID:             make(map[ir.ValueHandle]ID),
		SampledImageID:      make(map[ir.TypeHandle]ID),
		NeedsArrayStride:    make(map[ID]uint32),
		ConstantPtrFuncType: make(map[ir.FunctionHandle]bool),

		ConstGlobalByHandle:   make(map[ir.GlobalVariableHandle]*ConstGlobalResource),
		ConstGlobalVariableID: make(map[ir.GlobalVariableHandle]ID),
	}
}

// InternType records th as needing emission the first time it is seen,
// reserving no id yet (the Type Emitter allocates ids as it drains
// TypeOrder). It returns whether this was a new sighting.
func (t *Tables) InternType(h ir.TypeHandle) bool {
	if _, ok := t.TypeID[h]; ok {
		return false
	}
	t.TypeID[h] = 0 // placeholder; Type Emitter overwrites with a real id
	t.TypeOrder = append(t.TypeOrder, h)
	return true
}

// InternConstant records ch as needing emission, same contract as
// InternType.
func (t *Tables) InternConstant(ch ir.ConstantHandle) bool {
	if _, ok := t.ConstantID[ch]; ok {
		return false
	}
	t.ConstantID[ch] = 0
	t.ConstantOrder = append(t.ConstantOrder, ch)
	return true
}

// LookupType resolves a TypeHandle to its emitted id, fatal if absent
// or not yet emitted (spec.md §4.1 "lookups that must succeed fail
// fatally").
func (t *Tables) LookupType(h ir.TypeHandle) (ID, error) {
	id, ok := t.TypeID[h]
	if !ok || id == 0 {
		return 0, errUnknownMapping("type not discovered", h)
	}
	return id, nil
}

// LookupConstant resolves a ConstantHandle to its emitted id.
func (t *Tables) LookupConstant(ch ir.ConstantHandle) (ID, error) {
	id, ok := t.ConstantID[ch]
	if !ok || id == 0 {
		return 0, errUnknownMapping("constant not discovered", ch)
	}
	return id, nil
}

// LookupValue resolves a ValueHandle to its id, fatal if no
// instruction has defined it yet.
func (t *Tables) LookupValue(v ir.ValueHandle) (ID, error) {
	id, ok := t.ValueID[v]
	if !ok {
		return 0, errUnknownMapping("value not yet defined", v)
	}
	return id, nil
}

func (t *Tables) String() string {
	return fmt.Sprintf("Tables{types=%d constants=%d values=%d bound=%d}",
		len(t.TypeOrder), len(t.ConstantOrder), len(t.ValueID), t.IDs.Bound())
}
