package spirv

import "github.com/clspv-go/clspv/ir"

// Backend owns every table and instruction list the lowering pass
// threads through its phases and drives them in the order spec.md §2
// names: Discovery → Argument Lowering (folded into Discovery, see
// arguments.go) → Type/Constant Emission → Globals → Instruction
// Lowering → Deferred Fixup → Decoration Emission → module header →
// Serializer.
type Backend struct {
	mod    *ir.Module
	opts   Options
	tables *Tables

	builtins *builtinDispatch
	types    *typeEmitter
	globals  *InstructionList

	funcLists map[ir.FunctionHandle]*InstructionList
	funcIDs   map[ir.FunctionHandle]ID
	funcType  map[ir.FunctionHandle]ID

	deferred []*deferredItem

	DescriptorMap *DescriptorMap
}

// NewBackend prepares an empty Backend for mod under opts.
func NewBackend(mod *ir.Module, opts Options) *Backend {
	return &Backend{
		mod:       mod,
		opts:      opts,
		tables:    NewTables(),
		builtins:  newBuiltinDispatch(),
		globals:   &InstructionList{},
		funcLists: make(map[ir.FunctionHandle]*InstructionList),
		funcIDs:   make(map[ir.FunctionHandle]ID),
		funcType:  make(map[ir.FunctionHandle]ID),
	}
}

// Compile runs every phase and returns the finished module alongside
// its descriptor-map sidecar.
func (b *Backend) Compile() (*Module, error) {
	disc := newDiscoverer(b.mod, b.opts, b.tables, b.builtins)
	if err := disc.discover(); err != nil {
		return nil, err
	}

	b.types = newTypeEmitter(b.mod, b.tables, b.globals)
	if err := b.types.emitAll(); err != nil {
		return nil, err
	}

	constants := newConstantEmitter(b.mod, b.opts, b.tables, b.types, b.globals)
	if err := constants.emitAll(); err != nil {
		return nil, err
	}

	if err := b.emitResourceVariables(); err != nil {
		return nil, err
	}

	if err := b.lowerFunctions(); err != nil {
		return nil, err
	}

	fx := newFixupEngine(b.mod, b.tables, b.funcLists, b.funcIDs)
	if err := fx.drain(b.deferred); err != nil {
		return nil, err
	}

	functionList := b.concatFunctionLists()

	decorations := newDecorationEmitter(b.tables, b.globals)
	insertAt := findDecorationInsertionPoint(b.globals)
	decorations.emit(insertAt)

	header := newModuleHeaderBuilder(b.mod, b.tables, b.opts)
	entryInterfaces := b.entryInterfaces()
	prefix := header.build(entryInterfaces, b.funcIDs)

	final := &InstructionList{}
	for i := 0; i < prefix.Len(); i++ {
		final.Append(prefix.At(i))
	}
	for i := 0; i < b.globals.Len(); i++ {
		final.Append(b.globals.At(i))
	}
	for i := 0; i < functionList.Len(); i++ {
		final.Append(functionList.At(i))
	}

	if b.DescriptorMap == nil {
		b.DescriptorMap = &DescriptorMap{}
	}
	if disc.args != nil {
		b.DescriptorMap.Records = disc.args.records
	}

	return &Module{Version: b.opts.Version, Bound: b.tables.IDs.Bound(), List: final}, nil
}

// emitResourceVariables emits the OpVariable for every kernel-argument
// resource and pointer-to-local array, and the workgroup-size shadow
// variable if Options.HackInitializers needs one (spec.md §4.3, §4.6).
func (b *Backend) emitResourceVariables() error {
	for _, res := range b.tables.KernelArgs {
		if res.VariableID != 0 {
			continue
		}
		pointeeID, err := b.types.emit(res.PointeeType)
		if err != nil {
			return err
		}
		ptrTypeID := b.types.emitRawPointer(res.StorageClass, pointeeID)
		id := b.tables.IDs.Reserve()
		res.VariableID = id
		inst := NewInstruction(OpVariable).ArgID(ptrTypeID).ArgID(id).Arg(uint32(res.StorageClass))
		b.globals.Append(inst)
		b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationDescriptorSet)).Arg(res.DescriptorSet))
		b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationBinding)).Arg(res.Binding))
		if res.Kind == ArgImageReadOnly {
			b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationNonWritable)))
		}
		if res.Kind == ArgImageWriteOnly {
			b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationNonReadable)))
		}
	}

	for _, info := range b.tables.LocalArgs {
		u32 := b.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
		u32ID, err := b.types.emit(u32)
		if err != nil {
			return err
		}
		specID := b.tables.IDs.Reserve()
		info.SpecConstID = specID
		b.globals.Append(NewInstruction(OpSpecConstant).ArgID(u32ID).ArgID(specID).Arg(1))

		elemTypeID, err := b.types.emit(info.ElemType)
		if err != nil {
			return err
		}

		arrTypeID := b.tables.IDs.Reserve()
		info.ArrayTypeID = arrTypeID
		b.globals.Append(NewInstruction(OpTypeArray).ArgID(arrTypeID).ArgID(elemTypeID).ArgID(specID))

		ptrTypeID := b.types.emitRawPointer(StorageClassWorkgroup, arrTypeID)
		info.ElemPointerTypeID = b.types.emitRawPointer(StorageClassWorkgroup, elemTypeID)

		varID := b.tables.IDs.Reserve()
		info.VariableID = varID
		b.globals.Append(NewInstruction(OpVariable).ArgID(ptrTypeID).ArgID(varID).Arg(uint32(StorageClassWorkgroup)))
	}

	if err := b.emitConstGlobals(); err != nil {
		return err
	}

	if b.hasWorkgroupSizeUsage() {
		if err := b.emitWorkgroupSizeConstant(); err != nil {
			return err
		}
	}
	return nil
}

// emitConstGlobals emits the OpVariable for every __constant global
// (spec.md §4.2 item 6): a Private-class variable with its original
// initializer for each one Discovery rewrote into private scope
// (inline mode), and a StorageBuffer-class resource, decorated with
// its own descriptor set at binding 0, for each one Discovery
// synthesized a ConstGlobalResource for (storage-buffer mode).
func (b *Backend) emitConstGlobals() error {
	for gi := range b.mod.GlobalVariables {
		g := &b.mod.GlobalVariables[gi]
		if g.Space != ir.SpacePrivate {
			continue
		}
		gh := ir.GlobalVariableHandle(gi)
		if _, ok := b.tables.ConstGlobalVariableID[gh]; ok {
			continue
		}
		pointeeID, err := b.types.emit(g.Type)
		if err != nil {
			return err
		}
		ptrTypeID := b.types.emitRawPointer(StorageClassPrivate, pointeeID)
		id := b.tables.IDs.Reserve()
		inst := NewInstruction(OpVariable).ArgID(ptrTypeID).ArgID(id).Arg(uint32(StorageClassPrivate))
		if g.Init != nil {
			initID, err := b.tables.LookupConstant(*g.Init)
			if err != nil {
				return err
			}
			inst.ArgID(initID)
		}
		b.globals.Append(inst)
		b.tables.ConstGlobalVariableID[gh] = id
	}

	for _, res := range b.tables.ConstGlobals {
		if res.VariableID != 0 {
			continue
		}
		wrappedID, err := b.types.emit(res.WrappedType)
		if err != nil {
			return err
		}
		ptrTypeID := b.types.emitRawPointer(StorageClassStorageBuffer, wrappedID)
		id := b.tables.IDs.Reserve()
		res.VariableID = id
		b.globals.Append(NewInstruction(OpVariable).ArgID(ptrTypeID).ArgID(id).Arg(uint32(StorageClassStorageBuffer)))
		b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationDescriptorSet)).Arg(res.DescriptorSet))
		b.globals.Append(NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationBinding)).Arg(0))
	}
	return nil
}

func (b *Backend) hasWorkgroupSizeUsage() bool {
	for fi := range b.mod.Functions {
		for _, blk := range b.mod.Functions[fi].Blocks {
			for _, inst := range blk.Instructions {
				if _, ok := inst.Op.(ir.WorkgroupSizeBuiltin); ok {
					return true
				}
			}
		}
	}
	return false
}

// emitWorkgroupSizeConstant composes the workgroup-size vec3, either
// from the three fixed-size integer constants Discovery registered
// (reqd_work_group_size present) or from fresh OpSpecConstant defaults
// of 1 decorated with sequential SpecIds (spec.md §8 boundary
// behavior: "three OpSpecConstant initializers with default 1").
func (b *Backend) emitWorkgroupSizeConstant() error {
	u32 := b.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	u32ID, err := b.types.emit(u32)
	if err != nil {
		return err
	}
	vec3 := b.mod.Types.Intern("", ir.VectorType{Size: ir.Vec3, Elem: ir.ScalarType{Kind: ir.ScalarUint, Width: 4}})
	vec3ID, err := b.types.emit(vec3)
	if err != nil {
		return err
	}

	var fixed *[3]uint32
	for fi := range b.mod.Functions {
		if f := &b.mod.Functions[fi]; f.Kind == ir.FuncKernel && f.ReqdWorkGroupSize != nil {
			fixed = f.ReqdWorkGroupSize
		}
	}

	componentIDs := [3]ID{}
	for i := 0; i < 3; i++ {
		if fixed != nil {
			if componentIDs[i], err = lookupU32Constant(b.mod, b.tables, fixed[i]); err != nil {
				return err
			}
			continue
		}
		id := b.tables.IDs.Reserve()
		componentIDs[i] = id
		b.tables.WorkgroupSizeSpecIDs[i] = id
		b.globals.Append(NewInstruction(OpSpecConstant).ArgID(u32ID).ArgID(id).Arg(1))
	}
	composedID := b.tables.IDs.Reserve()
	b.tables.WorkgroupSizeValueID = composedID
	composedOp := OpSpecConstantComposite
	if fixed != nil {
		composedOp = OpConstantComposite
	}
	b.globals.Append(NewInstruction(composedOp).ArgID(vec3ID).ArgID(composedID).
		ArgID(componentIDs[0]).ArgID(componentIDs[1]).ArgID(componentIDs[2]))

	if b.opts.HackInitializers {
		ptrType := b.mod.Types.Intern("", ir.PointerType{Pointee: vec3, Space: ir.SpacePrivate})
		ptrTypeID, err := b.types.emit(ptrType)
		if err != nil {
			return err
		}
		varID := b.tables.IDs.Reserve()
		b.tables.WorkgroupSizeVariableID = varID
		b.globals.Append(NewInstruction(OpVariable).ArgID(ptrTypeID).ArgID(varID).Arg(uint32(StorageClassPrivate)).ArgID(composedID))
	}
	return nil
}

func (b *Backend) lowerFunctions() error {
	for fi := range b.mod.Functions {
		fh := ir.FunctionHandle(fi)
		fn := &b.mod.Functions[fi]
		funcID := b.tables.IDs.Reserve()
		b.funcIDs[fh] = funcID

		fnType := b.functionTypeFor(fh, fn)
		funcTypeID, err := b.types.emit(fnType)
		if err != nil {
			return err
		}
		b.funcType[fh] = funcTypeID

		list := &InstructionList{}
		b.funcLists[fh] = list

		lw := newLowerer(b.mod, b.opts, b.tables, b.types, b.builtins)
		if err := lw.lowerFunction(fh, fn, list, funcID, funcTypeID); err != nil {
			return err
		}
		b.deferred = append(b.deferred, lw.deferred...)
	}
	return nil
}

// functionTypeFor builds the OpTypeFunction signature: kernels take no
// parameters (Vulkan entry points take none); regular functions keep
// their declared parameter types. A constant-pointer parameter's
// address space is already rewritten to private by this point —
// rewriteConstantPointerParams does it during Discovery, in place,
// the same way discoverGlobalTypes rewrites the global itself — so
// Tables.ConstantPtrFuncType (set alongside that rewrite) is purely
// bookkeeping here (spec.md §4.4 "Function types").
func (b *Backend) functionTypeFor(fh ir.FunctionHandle, fn *ir.Function) ir.TypeHandle {
	if fn.Kind == ir.FuncKernel {
		return b.mod.Types.Intern("", ir.FunctionType{Result: fn.Result})
	}
	params := make([]ir.TypeHandle, len(fn.Arguments))
	for i, arg := range fn.Arguments {
		params[i] = arg.Type
	}
	return b.mod.Types.Intern("", ir.FunctionType{Result: fn.Result, Params: params})
}

func (b *Backend) concatFunctionLists() *InstructionList {
	out := &InstructionList{}
	for fi := range b.mod.Functions {
		fh := ir.FunctionHandle(fi)
		list := b.funcLists[fh]
		if list == nil {
			continue
		}
		for i := 0; i < list.Len(); i++ {
			out.Append(list.At(i))
		}
	}
	return out
}

// entryInterfaces returns, per kernel name, the ids of its Input-class
// interface variables. This module's lowering never synthesizes
// Input-storage-class globals (workgroup/global invocation ids are
// modeled as the WorkgroupSizeBuiltin expression and its siblings, not
// as loadable module-scope variables), so every kernel's interface
// list is empty; retained as a named seam for a front end that adds
// built-in input variables later.
func (b *Backend) entryInterfaces() map[string][]ID {
	return make(map[string][]ID)
}
