package spirv

// Options configures the IR-to-SPIR-V lowering pass (spec.md §6
// "Options (configuration surface)").
type Options struct {
	// Version is the target SPIR-V version.
	Version Version

	// ConstantsInStorageBuffer emits __constant module data as a
	// descriptor-bound storage buffer instead of inlining it into the
	// private address space. Enforces the 64 KiB size cap.
	ConstantsInStorageBuffer bool

	// PodArgsInUniformBuffer puts by-value kernel arguments in a
	// Uniform-class buffer (kind pod_ubo) instead of StorageBuffer.
	PodArgsInUniformBuffer bool

	// DistinctKernelDescriptorSets gives each kernel its own descriptor
	// set instead of sharing one set across the whole module.
	DistinctKernelDescriptorSets bool

	// HackUndef rewrites undef numeric constants to zero, working
	// around drivers that mishandle OpUndef.
	HackUndef bool

	// HackInitializers emits a module-scope Private-class variable
	// initialized with the workgroup-size value. No store to it is made
	// at kernel entry blocks.
	HackInitializers bool

	// ShowIDs is not read by the backend; no id trace is written.
	ShowIDs bool

	// Debug is not read by the backend; no OpName/OpMemberName
	// annotations are emitted.
	Debug bool
}

// DefaultOptions returns the options a plain `clc2spv` invocation uses.
func DefaultOptions() Options {
	return Options{Version: Version1_0}
}
