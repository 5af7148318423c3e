package spirv

import "github.com/clspv-go/clspv/ir"

// argumentLowerer assigns kernel arguments to module-scope variables
// and descriptor bindings (spec.md §4.3). It runs as part of
// discovery (kind classification and resource synthesis happen
// together, since a later kernel's argument may reuse an earlier
// kernel's variable).
type argumentLowerer struct {
	mod    *ir.Module
	opts   Options
	tables *Tables

	nextSpecID uint32
	// nextFreeSet is the next descriptor set number nothing has claimed
	// yet. lowerKernel only advances it past 0 when
	// DistinctKernelDescriptorSets gives each kernel its own set; a
	// shared-set-0 module instead bumps it to 1 the first time any
	// kernel runs, so a module-scope __constant resource (which always
	// gets its own fresh set; see discoverConstantResources) never
	// collides with the kernels' shared set 0.
	nextFreeSet uint32
	reuse       map[reuseKey]*KernelArgResource
	records     []DescriptorMapRecord
}

// reuseKey identifies interchangeable kernel-argument variables:
// identical SPIR-V type at the same binding index within the same
// descriptor set (spec.md §4.3 "Variable reuse"). Selection is keyed
// on ordinal rather than object identity, matching the spec's
// explicit call to pin iteration order.
type reuseKey struct {
	set     uint32
	binding uint32
	typ     ir.TypeHandle
}

func newArgumentLowerer(mod *ir.Module, opts Options, tables *Tables) *argumentLowerer {
	return &argumentLowerer{
		mod:    mod,
		opts:   opts,
		tables: tables,
		reuse:  make(map[reuseKey]*KernelArgResource),
	}
}

// discoverKernelArguments classifies and lowers every argument of one
// kernel function, called from the Discovery Walker in kernel-first,
// declaration order (spec.md §4.2 item 7, §4.3, §5 "deterministic
// given a fixed iteration order").
func (d *discoverer) discoverKernelArguments(fh ir.FunctionHandle, f *ir.Function) error {
	if d.args == nil {
		d.args = newArgumentLowerer(d.mod, d.opts, d.tables)
	}
	return d.args.lowerKernel(f)
}

func (al *argumentLowerer) lowerKernel(f *ir.Function) error {
	set := uint32(0)
	if al.opts.DistinctKernelDescriptorSets {
		set = al.nextDescriptorSet()
	} else if al.nextFreeSet == 0 {
		al.nextFreeSet = 1
	}
	binding := uint32(0)
	for _, arg := range f.Arguments {
		kind, err := al.classify(arg.Type)
		if err != nil {
			return err
		}
		if kind == ArgPointerLocal {
			if err := al.lowerLocalArg(f, arg); err != nil {
				return err
			}
			continue
		}
		res, isNew, err := al.lowerBoundArg(f, arg, kind, set, binding)
		if err != nil {
			return err
		}
		binding++
		if isNew {
			al.tables.KernelArgs = append(al.tables.KernelArgs, res)
		}
		al.records = append(al.records, al.recordFor(f.Name, arg, res))
	}
	return nil
}

// nextDescriptorSet hands out the next unclaimed descriptor set
// number: used per-kernel when DistinctKernelDescriptorSets is on, and
// once per module-scope __constant resource regardless of that option
// (spec.md §4.3 "distinct sets per kernel"; §4.2 item 6).
func (al *argumentLowerer) nextDescriptorSet() uint32 {
	set := al.nextFreeSet
	al.nextFreeSet++
	return set
}

func (al *argumentLowerer) classify(th ir.TypeHandle) (ArgKind, error) {
	ty, ok := al.mod.Types.Lookup(th)
	if !ok {
		return 0, errUnknownMapping("kernel argument type not found", th)
	}
	switch t := ty.Inner.(type) {
	case ir.SamplerType:
		return ArgSampler, nil
	case ir.ImageType:
		if t.Access == ir.ImageReadOnly {
			return ArgImageReadOnly, nil
		}
		return ArgImageWriteOnly, nil
	case ir.PointerType:
		if t.Space == ir.SpaceLocal {
			return ArgPointerLocal, nil
		}
		return ArgPointerGlobal, nil
	default:
		if al.opts.PodArgsInUniformBuffer {
			return ArgPODUniform, nil
		}
		return ArgPOD, nil
	}
}

// storageClassFor maps an ArgKind to the Vulkan storage class it
// binds into (spec.md §4.3 "Storage class mapping").
func storageClassFor(kind ArgKind) StorageClass {
	switch kind {
	case ArgSampler, ArgImageReadOnly, ArgImageWriteOnly:
		return StorageClassUniformConstant
	case ArgPointerLocal:
		return StorageClassWorkgroup
	case ArgPODUniform:
		return StorageClassUniform
	default: // ArgPointerGlobal, ArgPOD
		return StorageClassStorageBuffer
	}
}

// lowerBoundArg assigns a descriptor-bound resource. The wrapper
// struct type itself is interned here (as plain ir types, reusing the
// existing TypeRegistry) so that Type Emission later sees it in
// discovery order and two arguments of identical underlying type
// collapse onto the same wrapper (spec.md §4.3 "Wrapping").
func (al *argumentLowerer) lowerBoundArg(f *ir.Function, arg ir.FunctionArgument, kind ArgKind, set, binding uint32) (*KernelArgResource, bool, error) {
	wrapped := al.wrapperType(arg.Type, kind)
	key := reuseKey{set: set, binding: binding, typ: wrapped}
	if existing, ok := al.reuse[key]; ok {
		return existing, false, nil
	}

	res := &KernelArgResource{
		Kernel:        f.Name,
		Ordinal:       arg.Ordinal,
		Kind:          kind,
		StorageClass:  storageClassFor(kind),
		PointeeType:   wrapped,
		DescriptorSet: set,
		Binding:       binding,
		Offset:        0,
	}
	al.tables.InternType(wrapped)
	al.reuse[key] = res
	return res, true, nil
}

// wrapperType builds (or reuses, via TypeRegistry interning) the
// struct-of-one-field wrapper Vulkan needs to treat the argument as a
// shader-interface block (spec.md §4.3 "Wrapping"). Pointer arguments
// wrap a runtime array of the pointee; POD arguments wrap the value
// type directly.
func (al *argumentLowerer) wrapperType(th ir.TypeHandle, kind ArgKind) ir.TypeHandle {
	if kind == ArgSampler || kind == ArgImageReadOnly || kind == ArgImageWriteOnly {
		return th
	}
	var field ir.TypeHandle
	switch kind {
	case ArgPointerGlobal:
		ty, _ := al.mod.Types.Lookup(th)
		ptr := ty.Inner.(ir.PointerType)
		field = al.mod.Types.Intern("", ir.ArrayType{Elem: ptr.Pointee, Size: ir.ArraySize{}})
	default: // POD, POD-uniform
		field = th
	}
	return al.mod.Types.Intern("", ir.StructType{
		Members: []ir.StructMember{{Name: "field0", Type: field, Offset: 0}},
	})
}

// constBufferWrapperType builds the struct-of-runtime-array wrapper a
// storage-buffer-mode __constant global uses, the same shape
// wrapperType gives a global-pointer kernel argument (spec.md §4.2
// item 6, §4.3 "Wrapping") so both are indexed identically.
func constBufferWrapperType(mod *ir.Module, elem ir.TypeHandle) ir.TypeHandle {
	arr := mod.Types.Intern("", ir.ArrayType{Elem: elem, Size: ir.ArraySize{}})
	return mod.Types.Intern("", ir.StructType{
		Members: []ir.StructMember{{Name: "field0", Type: arr, Offset: 0}},
	})
}

// lowerLocalArg synthesizes the specialization-constant-sized
// Workgroup array for a pointer-to-local argument (spec.md §4.3
// "Pointer-to-local arguments").
func (al *argumentLowerer) lowerLocalArg(f *ir.Function, arg ir.FunctionArgument) error {
	ty, ok := al.mod.Types.Lookup(arg.Type)
	if !ok {
		return errUnknownMapping("local argument type not found", arg.Type)
	}
	ptr := ty.Inner.(ir.PointerType)

	info := &LocalArgInfo{
		Kernel:   f.Name,
		Ordinal:  arg.Ordinal,
		SpecID:   al.nextSpecID,
		ElemType: ptr.Pointee,
	}
	al.nextSpecID++

	al.tables.LocalArgs = append(al.tables.LocalArgs, info)
	al.records = append(al.records, DescriptorMapRecord{
		Kind:      RecordKernelArgLocal,
		Kernel:    f.Name,
		Arg:       arg.Name,
		Ordinal:   arg.Ordinal,
		ArgKind:   "local",
		ArraySpec: info.SpecID,
	})
	return nil
}

func (al *argumentLowerer) recordFor(kernel string, arg ir.FunctionArgument, res *KernelArgResource) DescriptorMapRecord {
	return DescriptorMapRecord{
		Kind:          RecordKernelArg,
		Kernel:        kernel,
		Arg:           arg.Name,
		Ordinal:       arg.Ordinal,
		DescriptorSet: res.DescriptorSet,
		Binding:       res.Binding,
		Offset:        res.Offset,
		ArgKind:       argKindName(res.Kind),
	}
}

func argKindName(k ArgKind) string {
	switch k {
	case ArgSampler:
		return "sampler"
	case ArgImageReadOnly:
		return "image_ro"
	case ArgImageWriteOnly:
		return "image_wo"
	case ArgPointerGlobal:
		return "buffer"
	case ArgPODUniform:
		return "pod_ubo"
	case ArgPointerLocal:
		return "local"
	default:
		return "pod"
	}
}
