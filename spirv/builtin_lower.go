package spirv

import "github.com/clspv-go/clspv/ir"

// lowerBuiltinCall dispatches one of the recognized OpenCL C builtin
// families to its SPIR-V lowering sequence (spec.md §4.6). Calls whose
// mangled name the dispatch table doesn't recognize defer to
// OpFunctionCall, same as a user-defined Call.
func (l *lowerer) lowerBuiltinCall(bh ir.BlockHandle, idx int, inst ir.Instruction, c ir.BuiltinCall) error {
	entry, ok := l.builtins.lookup(c.Mangled)
	if !ok {
		return errUnknownMapping("unrecognized builtin call", c.Mangled)
	}

	switch entry.class {
	case builtinImageSample:
		return l.lowerImageSample(inst, c)
	case builtinImageRead:
		return l.lowerImageSample(inst, c)
	case builtinImageWrite:
		return l.lowerImageWrite(c)
	case builtinImageSize:
		return l.lowerImageSize(inst, c)
	case builtinDot:
		return l.lowerDot(inst, c)
	case builtinFmod:
		return l.lowerFmod(inst, c)
	case builtinPopcount:
		return l.lowerPopcount(inst, c)
	case builtinBarrier:
		return l.lowerBarrier(c)
	case builtinIsInf:
		return l.lowerIsInfOrNan(inst, c, OpIsInf)
	case builtinIsNan:
		return l.lowerIsInfOrNan(inst, c, OpIsNan)
	case builtinAny:
		return l.lowerAnyAll(inst, c, OpAny)
	case builtinAll:
		return l.lowerAnyAll(inst, c, OpAll)
	case builtinCompositeConstruct:
		return l.lowerBuiltinCompositeConstruct(inst, c)
	case builtinSamplerInit:
		return l.lowerSamplerInit(inst, c)
	case builtinExtInst:
		l.enqueueExtInst(bh, idx, inst, c, entry)
		return nil
	default:
		return errUnknownMapping("unhandled builtin class", entry.class)
	}
}

func (l *lowerer) resultTypeFor(inst ir.Instruction) (ir.TypeHandle, error) {
	if inst.Result == nil {
		return 0, nil
	}
	return l.valueType(*inst.Result)
}

func (l *lowerer) argIDs(args []ir.ValueHandle) ([]ID, error) {
	ids := make([]ID, len(args))
	for i, a := range args {
		id, err := l.valueID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// lowerImageSample implements read_image*: OpSampledImage then
// OpImageSampleExplicitLod with Lod 0.0 (spec.md §4.6, §8 scenario 6).
func (l *lowerer) lowerImageSample(inst ir.Instruction, c ir.BuiltinCall) error {
	if len(c.Args) < 3 {
		return errUnsupported("image read call missing operands", c)
	}
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	imageID, samplerID, coordID := args[0], args[1], args[2]

	imageType, err := l.valueType(c.Args[0])
	if err != nil {
		return err
	}
	sampledTypeID, ok := l.tables.SampledImageID[imageType]
	if !ok {
		return errUnknownMapping("sampled image type not discovered", imageType)
	}

	sampledImgResult := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpSampledImage).ArgID(sampledTypeID).ArgID(sampledImgResult).ArgID(imageID).ArgID(samplerID))

	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	resultTypeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	floatZero, err := lookupFloatConstant(l.mod, l.tables, 0.0)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpImageSampleExplicitLod).ArgID(resultTypeID).ArgID(id).
		ArgID(sampledImgResult).ArgID(coordID).Arg(2 /* Lod */).ArgID(floatZero))
	return nil
}

func (l *lowerer) lowerImageWrite(c ir.BuiltinCall) error {
	if len(c.Args) < 3 {
		return errUnsupported("image write call missing operands", c)
	}
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	l.list.Append(NewInstruction(OpImageWrite).ArgID(args[0]).ArgID(args[1]).ArgID(args[2]))
	return nil
}

// lowerImageSize implements get_image_width/height/dim: OpImageQuerySize
// then OpCompositeExtract for the requested component (spec.md §4.6,
// §9 open question on 3D support — this pass supports both 2- and
// 3-component query results uniformly since OpImageQuerySize already
// returns per-dimension components).
func (l *lowerer) lowerImageSize(inst ir.Instruction, c ir.BuiltinCall) error {
	if len(c.Args) < 1 {
		return errUnsupported("image size call missing operand", c)
	}
	imageID, err := l.valueID(c.Args[0])
	if err != nil {
		return err
	}
	imageType, err := l.valueType(c.Args[0])
	if err != nil {
		return err
	}
	ty, _ := l.mod.Types.Lookup(imageType)
	img := ty.Inner.(ir.ImageType)
	dims := uint8(2)
	if img.Dim == ir.Dim3D {
		dims = 3
	}
	sizeVecType := l.mod.Types.Intern("", ir.VectorType{Size: ir.VectorSize(dims), Elem: ir.ScalarType{Kind: ir.ScalarSint, Width: 4}})
	sizeTypeID, err := l.types.emit(sizeVecType)
	if err != nil {
		return err
	}
	sizeID := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpImageQuerySize).ArgID(sizeTypeID).ArgID(sizeID).ArgID(imageID))

	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	resultTypeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	component := componentIndexFor(c.Mangled)
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpCompositeExtract).ArgID(resultTypeID).ArgID(id).ArgID(sizeID).Arg(component))
	return nil
}

func componentIndexFor(mangled string) uint32 {
	switch mangled {
	case "get_image_height":
		return 1
	default:
		return 0
	}
}

func (l *lowerer) lowerDot(inst ir.Instruction, c ir.BuiltinCall) error {
	if len(c.Args) != 2 {
		return errUnsupported("dot call expects two operands", c)
	}
	leftType, err := l.valueType(c.Args[0])
	if err != nil {
		return err
	}
	ty, _ := l.mod.Types.Lookup(leftType)
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	resultTypeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	op := OpFMul
	if _, isVec := ty.Inner.(ir.VectorType); isVec {
		op = OpDot
	}
	l.list.Append(NewInstruction(op).ArgID(resultTypeID).ArgID(id).ArgID(args[0]).ArgID(args[1]))
	return nil
}

func (l *lowerer) lowerFmod(inst ir.Instruction, c ir.BuiltinCall) error {
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	resultTypeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpFRem).ArgID(resultTypeID).ArgID(id).ArgID(args[0]).ArgID(args[1]))
	return nil
}

func (l *lowerer) lowerPopcount(inst ir.Instruction, c ir.BuiltinCall) error {
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	resultTypeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpBitCount).ArgID(resultTypeID).ArgID(id).ArgID(args[0]))
	return nil
}

// lowerBarrier implements the work_group_barrier/barrier intrinsics as
// a work-group-scoped control barrier over local memory (spec.md
// §4.6). Execution and Memory scope are both Workgroup; this pass
// always orders local (Workgroup) memory, matching CLK_LOCAL_MEM_FENCE;
// CLK_GLOBAL_MEM_FENCE gets no separate ordering.
func (l *lowerer) lowerBarrier(c ir.BuiltinCall) error {
	scopeID, err := lookupU32Constant(l.mod, l.tables, barrierScopeWorkgroup)
	if err != nil {
		return err
	}
	semanticsID, err := lookupU32Constant(l.mod, l.tables, barrierSemanticsWorkgroupRelease)
	if err != nil {
		return err
	}
	l.list.Append(NewInstruction(OpControlBarrier).ArgID(scopeID).ArgID(scopeID).ArgID(semanticsID))
	return nil
}

func (l *lowerer) lowerIsInfOrNan(inst ir.Instruction, c ir.BuiltinCall, op OpCode) error {
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	boolType := l.mod.Types.Intern("bool", ir.ScalarType{Kind: ir.ScalarBool})
	typeID, err := l.types.emit(boolType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(op).ArgID(typeID).ArgID(id).ArgID(args[0]))
	return nil
}

func (l *lowerer) lowerAnyAll(inst ir.Instruction, c ir.BuiltinCall, op OpCode) error {
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	boolType := l.mod.Types.Intern("bool", ir.ScalarType{Kind: ir.ScalarBool})
	typeID, err := l.types.emit(boolType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(op).ArgID(typeID).ArgID(id).ArgID(args[0]))
	return nil
}

func (l *lowerer) lowerBuiltinCompositeConstruct(inst ir.Instruction, c ir.BuiltinCall) error {
	resultType, err := l.resultTypeFor(inst)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	args, err := l.argIDs(c.Args)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	inst2 := NewInstruction(OpCompositeConstruct).ArgID(typeID).ArgID(id)
	for _, a := range args {
		inst2.ArgID(a)
	}
	l.list.Append(inst2)
	return nil
}

// lowerSamplerInit lowers a sampler initializer to an OpLoad of the
// sampler through the call's single argument. A call without exactly
// one argument is a "Missing dependency" error.
func (l *lowerer) lowerSamplerInit(inst ir.Instruction, c ir.BuiltinCall) error {
	if len(c.Args) != 1 {
		return errMissingDependency("literal sampler used without sampler map", c)
	}
	samplerType := l.mod.Types.Intern("opencl.sampler_t", ir.SamplerType{})
	typeID, err := l.types.emit(samplerType)
	if err != nil {
		return err
	}
	ptrID, err := l.valueID(c.Args[0])
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpLoad).ArgID(typeID).ArgID(id).ArgID(ptrID))
	return nil
}

// enqueueExtInst defers the OpExtInst call (it needs the
// already-discovered GLSL.std.450 import id, resolved during Deferred
// Fixup once the import instruction itself has been emitted) and its
// "indirect" follow-up op if any (spec.md §4.6).
func (l *lowerer) enqueueExtInst(bh ir.BlockHandle, idx int, inst ir.Instruction, c ir.BuiltinCall, entry builtinEntry) {
	var result ID
	if inst.Result != nil {
		result = l.tables.IDs.Reserve()
		l.tables.ValueID[*inst.Result] = result
	}
	var rawResult ID
	if entry.indirect != indirectNone {
		// the indirect follow-up op (OpISub/OpFMul) consumes the raw
		// OpExtInst output and produces the final result; both need
		// their own id.
		rawResult = l.tables.IDs.Reserve()
	}
	item := &deferredItem{
		kind: deferredExtInst, block: bh, fn: l.fh, index: l.list.Len(), result: result,
		builtin: entry, rawResult: rawResult,
	}
	// record the args alongside via a lookaside, since deferredItem's
	// builtin field is a value-type table entry with no arg storage of
	// its own
	item.extInstArgs = c.Args
	item.resultType, _ = l.resultTypeFor(inst)
	l.deferred = append(l.deferred, item)
}
