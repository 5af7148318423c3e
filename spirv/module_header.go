package spirv

import "github.com/clspv-go/clspv/ir"

// moduleHeaderBuilder assembles the fixed-prefix instruction region
// (spec.md §4.9, §8 invariant 4): capabilities, extensions, the
// extended-instruction import, the memory model, one entry point and
// execution mode per kernel, and the OpSource declaration.
type moduleHeaderBuilder struct {
	mod    *ir.Module
	tables *Tables
	opts   Options
}

func newModuleHeaderBuilder(mod *ir.Module, tables *Tables, opts Options) *moduleHeaderBuilder {
	return &moduleHeaderBuilder{mod: mod, tables: tables, opts: opts}
}

// build returns the fixed-prefix instruction list. entryInterfaces
// maps a kernel name to the ids of every Input-storage-class global it
// reads or writes (spec.md GLOSSARY "Entry point"); funcIDs maps
// FunctionHandle to the OpFunction result id.
func (b *moduleHeaderBuilder) build(entryInterfaces map[string][]ID, funcIDs map[ir.FunctionHandle]ID) *InstructionList {
	list := &InstructionList{}

	for _, cap := range b.capabilities() {
		list.Append(NewInstruction(OpCapability).Arg(uint32(cap)))
	}
	for _, ext := range b.extensions() {
		list.Append(NewInstruction(OpExtension).ArgString(ext))
	}
	if b.tables.ExtInstGLSL != 0 {
		id := b.tables.IDs.Reserve()
		b.tables.ExtInstGLSL = id
		list.Append(NewInstruction(OpExtInstImport).ArgID(id).ArgString("GLSL.std.450"))
	}
	list.Append(NewInstruction(OpMemoryModel).Arg(uint32(AddressingModelLogical)).Arg(uint32(MemoryModelGLSL450)))

	for fi := range b.mod.Functions {
		f := &b.mod.Functions[fi]
		if f.Kind != ir.FuncKernel {
			continue
		}
		funcID := funcIDs[ir.FunctionHandle(fi)]
		inst := NewInstruction(OpEntryPoint).Arg(uint32(ExecutionModelGLCompute)).ArgID(funcID).ArgString(f.Name)
		for _, iface := range entryInterfaces[f.Name] {
			inst.ArgID(iface)
		}
		list.Append(inst)
		if f.ReqdWorkGroupSize != nil {
			size := f.ReqdWorkGroupSize
			list.Append(NewInstruction(OpExecutionMode).ArgID(funcID).Arg(uint32(ExecutionModeLocalSize)).
				Arg(size[0]).Arg(size[1]).Arg(size[2]))
		}
	}

	list.Append(NewInstruction(OpSource).Arg(3 /* OpenCL_C */).Arg(120))
	return list
}

// capabilities returns the capability list per spec.md §4.9: Shader
// and VariablePointers are always enabled; the rest are conditional on
// what Discovery found referenced in the module.
func (b *moduleHeaderBuilder) capabilities() []Capability {
	caps := []Capability{CapabilityShader}
	if b.tables.UsesInt8 {
		caps = append(caps, CapabilityInt8)
	}
	if b.tables.UsesInt16 {
		caps = append(caps, CapabilityInt16)
	}
	if b.tables.UsesInt64 {
		caps = append(caps, CapabilityInt64)
	}
	if b.tables.UsesFloat16 {
		caps = append(caps, CapabilityFloat16)
	}
	if b.tables.UsesFloat64 {
		caps = append(caps, CapabilityFloat64)
	}
	if b.tables.UsesWriteOnlyImage {
		caps = append(caps, CapabilityStorageImageWriteWithoutFormat)
	}
	if b.tables.UsesImageQuery {
		caps = append(caps, CapabilityImageQuery)
	}
	caps = append(caps, CapabilityVariablePointers)
	if b.tables.UsesVariablePointers {
		caps = append(caps, CapabilityVariablePointersStorageBuffer)
	}
	return caps
}

func (b *moduleHeaderBuilder) extensions() []string {
	return []string{"SPV_KHR_storage_buffer_storage_class", "SPV_KHR_variable_pointers"}
}
