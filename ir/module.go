package ir

// Module is an entire compiled translation unit: every type and
// constant it can reference, its module-scope variables, and its
// functions (kernels and the regular functions they call).
type Module struct {
	Types     *TypeRegistry
	Constants []Constant

	GlobalVariables []GlobalVariable
	Functions       []Function

	// Metadata mirrors LLVM-style named module metadata, such as
	// "kernel_arg_map", a []KernelArgMapEntry giving front-end-supplied
	// names/kinds for kernel arguments. The spirv package does not read
	// it.
	Metadata map[string]any
}

// GlobalVariableHandle indexes Module.GlobalVariables.
type GlobalVariableHandle uint32

// GlobalVariable is a module-scope variable: an OpenCL __constant
// global (before or after storage-class rewriting), or a synthesized
// resource the lowering pass itself introduces (handled entirely
// inside the spirv package and never appearing here).
type GlobalVariable struct {
	Name string
	Type TypeHandle
	// Space is SpaceConstant for __constant globals as written by the
	// front end; the discovery walker may rewrite this to SpacePrivate
	// (inline mode). The original space is not kept.
	Space AddressSpace
	Init  *ConstantHandle
	// Data holds the global's raw little-endian byte contents, used by
	// "constants as storage buffer" mode to populate the descriptor map
	// sidecar's hex dump.
	Data []byte
}

// FunctionHandle indexes Module.Functions.
type FunctionHandle uint32

// FunctionKind distinguishes Vulkan compute entry points from ordinary
// callees.
type FunctionKind uint8

const (
	FuncRegular FunctionKind = iota
	FuncKernel
)

// KernelArgMapEntry is one front-end-supplied hint from the
// "kernel_arg_map" module metadata (spec.md §6).
type KernelArgMapEntry struct {
	Kernel  string
	ArgName string
	Ordinal int
}

// FunctionArgument is one parameter of a Function, in declaration
// order. Ordinal is its position among the function's OpenCL C
// parameters (0-based); it is also this argument's descriptor-binding
// ordinal before pointer-to-local arguments are skipped (see
// spirv.lowerArguments).
type FunctionArgument struct {
	Name    string
	Type    TypeHandle
	Ordinal int
}

// ValueHandle indexes Function.Values: every SSA-defined value
// (instruction result, phi result, or argument) in a function.
type ValueHandle uint32

// ValueKind says where a ValueHandle's definition lives.
type ValueKind uint8

const (
	ValueArgument ValueKind = iota
	ValueInstruction
	ValuePhi
	// ValueGlobal denotes an SSA value that is a reference to a
	// module-scope GlobalVariable (an OpenCL __constant global), rather
	// than a value produced within the function itself.
	ValueGlobal
)

// ValueDef locates a ValueHandle's definition site.
type ValueDef struct {
	Kind  ValueKind
	Block BlockHandle // zero for ValueArgument, ValueGlobal
	// Index is the argument index, the instruction/phi index within
	// Block, or — for ValueGlobal — the GlobalVariableHandle it refers
	// to.
	Index int
}

// BlockHandle indexes Function.Blocks.
type BlockHandle uint32

// Function is one OpenCL C function: a kernel (Vulkan compute entry
// point) or a regular helper function called by one.
type Function struct {
	Name      string
	Kind      FunctionKind
	Result    TypeHandle // ScalarVoid for kernels
	Arguments []FunctionArgument

	Blocks []BasicBlock
	Values []ValueDef // parallel definition table for every ValueHandle

	// ReqdWorkGroupSize is non-nil when the OpenCL
	// __attribute__((reqd_work_group_size(x,y,z))) was present; all
	// kernels in a module must agree when more than one sets it
	// (spec.md §7 "Structural violation").
	ReqdWorkGroupSize *[3]uint32

	Dominators *DominatorTree
	Loops      *LoopInfo
}

// Entry returns the function's entry block handle, which is always
// block 0 by construction of the structurization pass that produced
// this IR.
func (f *Function) Entry() BlockHandle { return 0 }

// BasicBlock is a single-entry/single-exit straight-line instruction
// sequence ending in exactly one Terminator. Phis, if present, are the
// block's first instructions (IsPhi() true) by construction.
type BasicBlock struct {
	Name         string
	Instructions []Instruction
	Terminator   Terminator
}
