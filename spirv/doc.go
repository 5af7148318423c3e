// Package spirv lowers a typed, basic-block compute-kernel IR (see
// package ir) for OpenCL C-style kernels into a Vulkan-consumable
// SPIR-V shader module, alongside a descriptor-map sidecar describing
// how each kernel argument binds to a Vulkan resource.
//
// The pass runs in the phases named by its source design: a Discovery
// Walker populates interning tables with every type, constant, and
// resource the module will need; Argument Lowering synthesizes the
// module-scope variables and descriptor bindings Vulkan needs that
// OpenCL kernels never mention; the Type and Constant Emitters drain
// those tables into SPIR-V instructions; the Instruction Lowerer
// appends per-function code, deferring anything whose operand ids
// aren't known yet; Deferred Fixup resolves those once every label and
// function id exists; the Decoration Emitter inserts annotations at
// the region the spec requires; and the Serializer streams the result
// as a SPIR-V binary, a textual assembly listing, or a wrapped C
// initializer list.
package spirv
