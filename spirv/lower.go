package spirv

import "github.com/clspv-go/clspv/ir"

// deferredKind tags what a deferredItem still needs to resolve.
type deferredKind uint8

const (
	deferredBranch deferredKind = iota
	deferredPhi
	deferredCall
	deferredExtInst
)

// deferredItem is queued when an instruction's operand ids (block
// labels, phi predecessors, callee ids) aren't known yet at emission
// time (spec.md §3 "Deferred item", §4.7).
type deferredItem struct {
	kind   deferredKind
	block  ir.BlockHandle
	fn     ir.FunctionHandle
	index  int // position within fn's InstructionList at time of enqueue
	result ID  // reserved result id, 0 if none

	term     ir.Terminator
	phi      ir.Phi
	call     ir.Call
	builtin  builtinEntry
	args     []ValueHandleOrID

	extInstArgs []ir.ValueHandle
	resultType  ir.TypeHandle
	rawResult   ID // raw OpExtInst result id, reserved separately when an indirect follow-up op adjusts it into the final result
}

// ValueHandleOrID lets a deferred call carry either an already-resolved
// id (literal/constant operand) or a ValueHandle to resolve once its
// defining instruction has run — in this pass every operand reaching
// a BuiltinCall/Call is a ValueHandle, so this is a thin wrapper kept
// for readability at call sites in fixup.go.
type ValueHandleOrID = ir.ValueHandle

// lowerer translates one function's IR instructions into SPIR-V,
// deferring anything whose operands are not yet resolvable (spec.md
// §4.6). It is grounded on the teacher's writer.go per-opcode emit
// helpers, reshaped around the CFG+phi IR this pass consumes instead
// of naga's structured statements.
type lowerer struct {
	mod      *ir.Module
	opts     Options
	tables   *Tables
	types    *typeEmitter
	builtins *builtinDispatch

	fn       *ir.Function
	fh       ir.FunctionHandle
	list     *InstructionList
	deferred []*deferredItem

	// workgroupSizeFakePointer is the synthetic ValueHandle the front
	// end uses to mark a load as addressing the workgroup-size shadow
	// variable under Options.HackInitializers (spec.md §4.6, §9).
	workgroupSizeFakePointer ir.ValueHandle
}

func newLowerer(mod *ir.Module, opts Options, tables *Tables, types *typeEmitter, builtins *builtinDispatch) *lowerer {
	return &lowerer{mod: mod, opts: opts, tables: tables, types: types, builtins: builtins}
}

// lowerFunction emits OpFunction/parameters/blocks for fn into list,
// appending its own deferred items to l.deferred for Deferred Fixup
// to drain afterward.
func (l *lowerer) lowerFunction(fh ir.FunctionHandle, fn *ir.Function, list *InstructionList, funcID ID, funcTypeID ID) error {
	l.fn, l.fh, l.list = fn, fh, list

	resultTypeID, err := l.types.emit(fn.Result)
	if err != nil {
		return err
	}
	list.Append(NewInstruction(OpFunction).ArgID(resultTypeID).ArgID(funcID).Arg(uint32(FunctionControlNone)).ArgID(funcTypeID))

	if fn.Kind != ir.FuncKernel {
		for _, arg := range fn.Arguments {
			paramTypeID, err := l.types.emit(arg.Type)
			if err != nil {
				return err
			}
			id := l.tables.IDs.Reserve()
			l.tables.ValueID[l.argValueHandle(arg)] = id
			list.Append(NewInstruction(OpFunctionParameter).ArgID(paramTypeID).ArgID(id))
		}
	}

	l.bindConstGlobalValues()

	for bi := range fn.Blocks {
		if err := l.lowerBlock(ir.BlockHandle(bi), &fn.Blocks[bi]); err != nil {
			return err
		}
	}

	list.Append(NewInstruction(OpFunctionEnd))
	return nil
}

// bindConstGlobalValues resolves every ValueGlobal definition in fn to
// the SPIR-V id addressing it (spec.md §4.2 item 6). In storage-buffer
// mode that is the synthesized resource's own wrapped-struct variable
// — exactly how a global-pointer kernel argument binds (see
// bindArgResultValue) — so lowerGEP's zero-prepend logic treats the
// two identically. In inline mode it is the rewritten-to-private
// OpVariable directly, already an unwrapped pointer to the global's
// type.
func (l *lowerer) bindConstGlobalValues() {
	for i, def := range l.fn.Values {
		if def.Kind != ir.ValueGlobal {
			continue
		}
		gh := ir.GlobalVariableHandle(def.Index)
		if res, ok := l.tables.ConstGlobalByHandle[gh]; ok {
			l.tables.ValueID[ir.ValueHandle(i)] = res.VariableID
			continue
		}
		if id, ok := l.tables.ConstGlobalVariableID[gh]; ok {
			l.tables.ValueID[ir.ValueHandle(i)] = id
		}
	}
}

// argValueHandle recovers the ValueHandle a FunctionArgument's
// definition site uses; Function.Values is the arena's source of
// truth, matched by (ValueArgument, Index==Ordinal).
func (l *lowerer) argValueHandle(arg ir.FunctionArgument) ir.ValueHandle {
	for i, def := range l.fn.Values {
		if def.Kind == ir.ValueArgument && def.Index == arg.Ordinal {
			return ir.ValueHandle(i)
		}
	}
	return ir.ValueHandle(0)
}

func (l *lowerer) lowerBlock(bh ir.BlockHandle, blk *ir.BasicBlock) error {
	labelID := l.tables.IDs.Reserve()
	l.labelFor(bh, labelID)
	l.list.Append(NewInstruction(OpLabel).ArgID(labelID))

	if bh == l.fn.Entry() {
		if err := l.emitAllocas(); err != nil {
			return err
		}
		if l.fn.Kind == ir.FuncKernel {
			if err := l.emitKernelPrologue(); err != nil {
				return err
			}
		}
	}

	for i, inst := range blk.Instructions {
		if ir.IsPhi(inst) {
			l.enqueuePhi(bh, inst)
			continue
		}
		if _, isAlloca := inst.Op.(ir.Alloca); isAlloca && bh == l.fn.Entry() {
			continue // already emitted by emitAllocas
		}
		if err := l.lowerInstruction(bh, i, inst); err != nil {
			return err
		}
	}

	return l.lowerTerminator(bh, blk.Terminator)
}

// labelFor/blockLabel hold block->label-id in a side table on Tables
// keyed by a synthetic handle space; reusing ValueID would collide
// with value handles, so a dedicated map lives on the lowerer and is
// merged into Tables for Deferred Fixup to read.
func (l *lowerer) labelFor(bh ir.BlockHandle, id ID) {
	if l.tables.blockLabel == nil {
		l.tables.blockLabel = make(map[blockKey]ID)
	}
	l.tables.blockLabel[blockKey{l.fh, bh}] = id
}

type blockKey struct {
	fn ir.FunctionHandle
	bh ir.BlockHandle
}

func (l *lowerer) emitAllocas() error {
	for _, inst := range l.fn.Blocks[l.fn.Entry()].Instructions {
		alloca, ok := inst.Op.(ir.Alloca)
		if !ok {
			continue
		}
		ptrType := l.mod.Types.Intern("", ir.PointerType{Pointee: alloca.Type, Space: ir.SpaceFunction})
		typeID, err := l.types.emit(ptrType)
		if err != nil {
			return err
		}
		id := l.tables.IDs.Reserve()
		if inst.Result != nil {
			l.tables.ValueID[*inst.Result] = id
		}
		l.list.Append(NewInstruction(OpVariable).ArgID(typeID).ArgID(id).Arg(uint32(StorageClassFunction)))
	}
	return nil
}

// emitKernelPrologue emits the argument-prologue instructions spec.md
// §4.6 calls for: sampler/image loads, AccessChain into the wrapper
// struct for POD, AccessChain to element 0 for pointer-to-local.
func (l *lowerer) emitKernelPrologue() error {
	for _, res := range l.tables.KernelArgs {
		if res.Kernel != l.fn.Name {
			continue
		}
		if err := l.emitArgPrologue(res); err != nil {
			return err
		}
	}
	for _, info := range l.tables.LocalArgs {
		if info.Kernel != l.fn.Name {
			continue
		}
		if err := l.emitLocalArgPrologue(info); err != nil {
			return err
		}
	}
	return nil
}

// emitArgPrologue binds a kernel argument's own ValueHandle to the
// resource it addresses (spec.md §4.6). Sampler and image arguments
// need a genuine OpLoad of the UniformConstant-class variable. A
// pointer-global argument binds straight to the wrapper-struct
// variable itself, since lowerGEP already knows to prepend the zero
// index that steps through the wrapper the first time a use of this
// argument indexes it. A POD argument is used directly as a value —
// never through a GEP, since it isn't a pointer — so its prologue must
// step through the wrapper itself: AccessChain to field0, then Load.
func (l *lowerer) emitArgPrologue(res *KernelArgResource) error {
	switch res.Kind {
	case ArgSampler, ArgImageReadOnly, ArgImageWriteOnly:
		typeID, err := l.types.emit(res.PointeeType)
		if err != nil {
			return err
		}
		resultID := l.tables.IDs.Reserve()
		l.bindArgResultValue(res, resultID)
		l.list.Append(NewInstruction(OpLoad).ArgID(typeID).ArgID(resultID).ArgID(res.VariableID))
	case ArgPointerGlobal:
		l.bindArgResultValue(res, res.VariableID)
	default: // ArgPOD, ArgPODUniform
		fieldType, err := l.podFieldType(res)
		if err != nil {
			return err
		}
		fieldTypeID, err := l.types.emit(fieldType)
		if err != nil {
			return err
		}
		ptrTypeID := l.types.emitRawPointer(res.StorageClass, fieldTypeID)
		acID := l.tables.IDs.Reserve()
		l.list.Append(NewInstruction(OpAccessChain).ArgID(ptrTypeID).ArgID(acID).ArgID(res.VariableID).ArgID(l.tables.ScalarZeroI32))
		loadID := l.tables.IDs.Reserve()
		l.bindArgResultValue(res, loadID)
		l.list.Append(NewInstruction(OpLoad).ArgID(fieldTypeID).ArgID(loadID).ArgID(acID))
	}
	return nil
}

// podFieldType recovers the unwrapped scalar/vector type a POD
// argument's one-field wrapper struct holds (spec.md §4.3 "Wrapping").
func (l *lowerer) podFieldType(res *KernelArgResource) (ir.TypeHandle, error) {
	ty, ok := l.mod.Types.Lookup(res.PointeeType)
	if !ok {
		return 0, errUnknownMapping("POD wrapper type not found", res.PointeeType)
	}
	st, ok := ty.Inner.(ir.StructType)
	if !ok || len(st.Members) == 0 {
		return 0, errUnknownMapping("POD wrapper is not a one-field struct", res.PointeeType)
	}
	return st.Members[0].Type, nil
}

func (l *lowerer) emitLocalArgPrologue(info *LocalArgInfo) error {
	resultID := l.tables.IDs.Reserve()
	info.ElemPointerID = resultID
	l.bindLocalArgResultValue(info, resultID)
	l.list.Append(NewInstruction(OpAccessChain).ArgID(info.ElemPointerTypeID).ArgID(resultID).ArgID(info.VariableID).ArgID(l.tables.ScalarZeroI32))
	return nil
}

// bindArgResultValue associates the prologue result with the
// FunctionArgument's own ValueHandle, so later instructions that
// reference the argument resolve to the AccessChain/Load result.
func (l *lowerer) bindArgResultValue(res *KernelArgResource, id ID) {
	for _, arg := range l.fn.Arguments {
		if arg.Ordinal == res.Ordinal {
			l.tables.ValueID[l.argValueHandle(arg)] = id
			return
		}
	}
}

// bindLocalArgResultValue does the same for a pointer-to-local
// argument, whose "value" is the precomputed pointer to element 0 —
// unlike a wrapped global/POD argument, no further zero-prepend is
// needed at GEP time (spec.md §4.6).
func (l *lowerer) bindLocalArgResultValue(info *LocalArgInfo, id ID) {
	for _, arg := range l.fn.Arguments {
		if arg.Ordinal == info.Ordinal {
			l.tables.ValueID[l.argValueHandle(arg)] = id
			return
		}
	}
}

func (l *lowerer) lowerInstruction(bh ir.BlockHandle, idx int, inst ir.Instruction) error {
	switch op := inst.Op.(type) {
	case ir.Cast:
		return l.lowerCast(inst, op)
	case ir.Binary:
		return l.lowerBinary(inst, op)
	case ir.Unary:
		return l.lowerUnary(inst, op)
	case ir.Compare:
		return l.lowerCompare(inst, op)
	case ir.GetElementPtr:
		return l.lowerGEP(inst, op)
	case ir.Load:
		return l.lowerLoad(inst, op)
	case ir.Store:
		return l.lowerStore(op)
	case ir.ExtractElement:
		return l.lowerExtractElement(inst, op)
	case ir.InsertElement:
		return l.lowerInsertElement(inst, op)
	case ir.ExtractValue:
		return l.lowerExtractValue(inst, op)
	case ir.InsertValue:
		return l.lowerInsertValue(inst, op)
	case ir.Select:
		return l.lowerSelect(inst, op)
	case ir.CompositeConstruct:
		return l.lowerCompositeConstruct(inst, op)
	case ir.AtomicRMW:
		return l.lowerAtomic(inst, op)
	case ir.BuiltinCall:
		return l.lowerBuiltinCall(bh, idx, inst, op)
	case ir.Call:
		l.enqueueCall(bh, idx, inst, op)
		return nil
	case ir.WorkgroupSizeBuiltin:
		return l.lowerWorkgroupSize(inst)
	case ir.Alloca:
		return nil // handled by emitAllocas
	case ir.ConstIndex:
		return l.lowerConstIndex(inst, op)
	default:
		return errUnknownMapping("unrecognized opcode", op)
	}
}

// lowerConstIndex resolves a compile-time-constant GEP index to the
// literal constant discovery registered for it; ConstIndex carries no
// SPIR-V operation of its own (spec.md §4.6).
func (l *lowerer) lowerConstIndex(inst ir.Instruction, ci ir.ConstIndex) error {
	id, err := lookupI32Constant(l.mod, l.tables, ci.Value)
	if err != nil {
		return err
	}
	if inst.Result != nil {
		l.tables.ValueID[*inst.Result] = id
	}
	return nil
}

func (l *lowerer) resultID(inst ir.Instruction) (ID, TypeHint) {
	id := l.tables.IDs.Reserve()
	if inst.Result != nil {
		l.tables.ValueID[*inst.Result] = id
	}
	return id, TypeHint{}
}

// TypeHint is currently unused payload kept for symmetry with the
// teacher's per-opcode emit helpers that return both an id and a type;
// this pass derives result types from the IR's own type annotations
// instead (ResultType fields on Cast/GEP, Type on Phi).
type TypeHint struct{}

func (l *lowerer) valueID(v ir.ValueHandle) (ID, error) {
	return l.tables.LookupValue(v)
}

// wideningOperands resolves the pair of constants an OpSelect needs for
// an i1-widening cast, per spec.md §4.2 item 1 and §4.6: zext selects
// between 1 and 0, sext between all-bits-set and 0 (so the widened
// result is properly sign-extended rather than just set to 1), and
// uitofp between the floats 1.0 and 0.0 — each matching the cast's
// actual result scalar kind and width, scalar or splatted across the
// result vector's lanes.
func wideningOperands(mod *ir.Module, resultType ir.TypeHandle, kind ir.CastKind) (elemType ir.TypeHandle, trueVal, falseVal ir.ScalarConst, vecSize int, isVector bool, err error) {
	ty, ok := mod.Types.Lookup(resultType)
	if !ok {
		return 0, ir.ScalarConst{}, ir.ScalarConst{}, 0, false, errUnknownMapping("widening cast result type not found", resultType)
	}
	var scalar ir.ScalarType
	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		scalar = t
	case ir.VectorType:
		scalar = t.Elem
		vecSize = int(t.Size)
		isVector = true
	default:
		return 0, ir.ScalarConst{}, ir.ScalarConst{}, 0, false, errUnknownMapping("widening cast result type is not scalar or vector", ty.Inner)
	}
	elemType = mod.Types.Intern("", scalar)

	switch kind {
	case ir.CastZExt:
		trueVal = ir.ScalarConst{Bits: 1, Kind: scalar.Kind}
		falseVal = ir.ScalarConst{Bits: 0, Kind: scalar.Kind}
	case ir.CastSExt:
		trueVal = ir.ScalarConst{Bits: allOnesBits(scalar.Width), Kind: scalar.Kind}
		falseVal = ir.ScalarConst{Bits: 0, Kind: scalar.Kind}
	case ir.CastUIToFP:
		trueVal = ir.ScalarConst{Bits: floatBits(1.0, scalar.Width), Kind: ir.ScalarFloat}
		falseVal = ir.ScalarConst{Bits: floatBits(0.0, scalar.Width), Kind: ir.ScalarFloat}
	default:
		return 0, ir.ScalarConst{}, ir.ScalarConst{}, 0, false, errUnknownMapping("not a boolean-widening cast kind", kind)
	}
	return elemType, trueVal, falseVal, vecSize, isVector, nil
}

// allOnesBits returns the all-bits-set pattern for a scalar of the
// given byte width, used as sext's "true" operand.
func allOnesBits(width uint8) uint64 {
	bits := uint(width) * 8
	if bits == 0 || bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// findConstantHandle scans Module.Constants for a scalar literal
// matching (th, val), mirroring lookupConstantID but returning the
// handle instead of the emitted id — needed to build the ConstantHandle
// component list a splatted (vector) widening constant looks up by.
func findConstantHandle(mod *ir.Module, th ir.TypeHandle, val ir.ScalarConst) (ir.ConstantHandle, bool) {
	for i, c := range mod.Constants {
		if c.Type != th {
			continue
		}
		if sc, ok := c.Value.(ir.ScalarConst); ok && sc == val {
			return ir.ConstantHandle(i), true
		}
	}
	return 0, false
}

// lookupCompositeConstant recovers the emitted id of a composite
// constant built from components, the splat form a vector-result
// widening cast's OpSelect operands take.
func lookupCompositeConstant(mod *ir.Module, tables *Tables, th ir.TypeHandle, components []ir.ConstantHandle) (ID, error) {
	for i, c := range mod.Constants {
		if c.Type != th {
			continue
		}
		if cc, ok := c.Value.(ir.CompositeConst); ok && constantHandlesEqual(cc.Components, components) {
			return tables.LookupConstant(ir.ConstantHandle(i))
		}
	}
	return 0, errUnknownMapping("composite constant not discovered", components)
}

func constantHandlesEqual(a, b []ir.ConstantHandle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wideningSelectOperands resolves the OpSelect true/false operand ids
// discovery registered for a boolean-widening cast's result type,
// looking up a plain scalar pair or the splatted composite pair
// depending on whether resultType is a vector (spec.md §4.2 item 1).
func (l *lowerer) wideningSelectOperands(resultType ir.TypeHandle, kind ir.CastKind) (ID, ID, error) {
	elemType, trueVal, falseVal, vecSize, isVector, err := wideningOperands(l.mod, resultType, kind)
	if err != nil {
		return 0, 0, err
	}
	if !isVector {
		trueID, err := lookupConstantID(l.mod, l.tables, elemType, trueVal)
		if err != nil {
			return 0, 0, err
		}
		falseID, err := lookupConstantID(l.mod, l.tables, elemType, falseVal)
		if err != nil {
			return 0, 0, err
		}
		return trueID, falseID, nil
	}
	trueCh, ok := findConstantHandle(l.mod, elemType, trueVal)
	if !ok {
		return 0, 0, errUnknownMapping("widening true constant not discovered", trueVal)
	}
	falseCh, ok := findConstantHandle(l.mod, elemType, falseVal)
	if !ok {
		return 0, 0, errUnknownMapping("widening false constant not discovered", falseVal)
	}
	trueComponents := make([]ir.ConstantHandle, vecSize)
	falseComponents := make([]ir.ConstantHandle, vecSize)
	for i := range trueComponents {
		trueComponents[i] = trueCh
		falseComponents[i] = falseCh
	}
	trueID, err := lookupCompositeConstant(l.mod, l.tables, resultType, trueComponents)
	if err != nil {
		return 0, 0, err
	}
	falseID, err := lookupCompositeConstant(l.mod, l.tables, resultType, falseComponents)
	if err != nil {
		return 0, 0, err
	}
	return trueID, falseID, nil
}

func (l *lowerer) lowerCast(inst ir.Instruction, c ir.Cast) error {
	resultTypeID, err := l.types.emit(c.ResultType)
	if err != nil {
		return err
	}
	srcID, err := l.valueID(c.Value)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)

	switch c.Kind {
	case ir.CastZExt, ir.CastSExt, ir.CastUIToFP:
		trueID, falseID, err := l.wideningSelectOperands(c.ResultType, c.Kind)
		if err != nil {
			return err
		}
		l.list.Append(NewInstruction(OpSelect).ArgID(resultTypeID).ArgID(id).ArgID(srcID).ArgID(trueID).ArgID(falseID))
	case ir.CastTrunc:
		maskID, err := lookupU32Constant(l.mod, l.tables, 0xFF)
		if err != nil {
			return err
		}
		l.list.Append(NewInstruction(OpBitwiseAnd).ArgID(resultTypeID).ArgID(id).ArgID(srcID).ArgID(maskID))
	case ir.CastBitcast:
		l.list.Append(NewInstruction(OpBitcast).ArgID(resultTypeID).ArgID(id).ArgID(srcID))
	default:
		op := castOpcode(c.Kind)
		l.list.Append(NewInstruction(op).ArgID(resultTypeID).ArgID(id).ArgID(srcID))
	}
	return nil
}

func castOpcode(k ir.CastKind) OpCode {
	switch k {
	case ir.CastFPToUI:
		return OpConvertFToU
	case ir.CastFPToSI:
		return OpConvertFToS
	case ir.CastSIToFP:
		return OpConvertSToF
	case ir.CastFPTrunc, ir.CastFPExt:
		return OpFConvert
	default:
		return OpUConvert
	}
}

func (l *lowerer) binaryResultType(left ir.ValueHandle) (ir.TypeHandle, error) {
	return l.valueType(left)
}

// valueType looks up the declared IR type of a ValueHandle's
// definition; needed since most opcodes don't carry an explicit
// ResultType the way Cast/GEP/CompositeConstruct do. Opcodes whose
// result type equals one of their operands' types (Binary, Unary,
// Select, InsertElement, InsertValue) recurse into that operand rather
// than requiring their own annotation.
func (l *lowerer) valueType(v ir.ValueHandle) (ir.TypeHandle, error) {
	return resolveValueType(l.mod, l.fn, v)
}

// resolveValueType looks up the declared IR type of a ValueHandle's
// definition within fn; needed since most opcodes don't carry an
// explicit ResultType the way Cast/GEP/CompositeConstruct do. Shared
// between the Instruction Lowerer (as the valueType method) and the
// Discovery Walker, which needs the same recovery to classify a
// ExtractElement/InsertElement's vector operand ahead of lowering.
func resolveValueType(mod *ir.Module, fn *ir.Function, v ir.ValueHandle) (ir.TypeHandle, error) {
	if int(v) >= len(fn.Values) {
		return 0, errUnknownMapping("value handle out of range", v)
	}
	def := fn.Values[v]
	switch def.Kind {
	case ir.ValueArgument:
		for _, arg := range fn.Arguments {
			if arg.Ordinal == def.Index {
				return arg.Type, nil
			}
		}
	case ir.ValueInstruction:
		inst := fn.Blocks[def.Block].Instructions[def.Index]
		return resolveResultTypeOf(mod, fn, inst.Op)
	case ir.ValuePhi:
		inst := fn.Blocks[def.Block].Instructions[def.Index]
		return inst.Op.(ir.Phi).Type, nil
	case ir.ValueGlobal:
		gh := ir.GlobalVariableHandle(def.Index)
		g := mod.GlobalVariables[gh]
		return mod.Types.Intern("", ir.PointerType{Space: g.Space, Pointee: g.Type}), nil
	}
	return 0, errUnknownMapping("cannot recover value type", v)
}

func (l *lowerer) resultTypeOf(op ir.Opcode) (ir.TypeHandle, error) {
	return resolveResultTypeOf(l.mod, l.fn, op)
}

// resolveResultTypeOf recovers op's result type, recursing through
// resolveValueType for opcodes whose result shares an operand's type.
func resolveResultTypeOf(mod *ir.Module, fn *ir.Function, op ir.Opcode) (ir.TypeHandle, error) {
	switch o := op.(type) {
	case ir.Cast:
		return o.ResultType, nil
	case ir.GetElementPtr:
		return o.ResultType, nil
	case ir.CompositeConstruct:
		return o.ResultType, nil
	case ir.Binary:
		return resolveValueType(mod, fn, o.Left)
	case ir.Unary:
		return resolveValueType(mod, fn, o.Value)
	case ir.Select:
		return resolveValueType(mod, fn, o.True)
	case ir.InsertElement:
		return resolveValueType(mod, fn, o.Vector)
	case ir.InsertValue:
		return resolveValueType(mod, fn, o.Aggregate)
	case ir.Load:
		ptrType, err := resolveValueType(mod, fn, o.Pointer)
		if err != nil {
			return 0, err
		}
		ty, ok := mod.Types.Lookup(ptrType)
		if !ok {
			return 0, errUnknownMapping("load pointer type not found", ptrType)
		}
		return ty.Inner.(ir.PointerType).Pointee, nil
	case ir.AtomicRMW:
		ptrType, err := resolveValueType(mod, fn, o.Pointer)
		if err != nil {
			return 0, err
		}
		ty, ok := mod.Types.Lookup(ptrType)
		if !ok {
			return 0, errUnknownMapping("atomic pointer type not found", ptrType)
		}
		return ty.Inner.(ir.PointerType).Pointee, nil
	case ir.ExtractElement:
		vecType, err := resolveValueType(mod, fn, o.Vector)
		if err != nil {
			return 0, err
		}
		ty, ok := mod.Types.Lookup(vecType)
		if !ok {
			return 0, errUnknownMapping("extractelement vector type not found", vecType)
		}
		v := ty.Inner.(ir.VectorType)
		return mod.Types.Intern("", v.Elem), nil
	case ir.ExtractValue:
		aggType, err := resolveValueType(mod, fn, o.Aggregate)
		if err != nil {
			return 0, err
		}
		return resolveFieldTypeAt(mod, aggType, o.Indices)
	case ir.Compare:
		return mod.Types.Intern("bool", ir.ScalarType{Kind: ir.ScalarBool}), nil
	}
	return 0, errUnknownMapping("cannot recover result type for opcode", op)
}

func (l *lowerer) lowerBinary(inst ir.Instruction, b ir.Binary) error {
	resultType, err := l.binaryResultType(b.Left)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	leftID, err := l.valueID(b.Left)
	if err != nil {
		return err
	}
	rightID, err := l.valueID(b.Right)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(l.binaryOpcode(b.Op, resultType)).ArgID(typeID).ArgID(id).ArgID(leftID).ArgID(rightID))
	return nil
}

// binaryOpcode picks the float or integer opcode for the ops (Add,
// Sub, Mul) the IR doesn't split by operand kind the way it splits
// Div/Rem (spec.md §4.6).
func (l *lowerer) binaryOpcode(op ir.BinaryOp, resultType ir.TypeHandle) OpCode {
	isFloat := l.isFloatType(resultType)
	switch op {
	case ir.BinAdd:
		if isFloat {
			return OpFAdd
		}
		return OpIAdd
	case ir.BinSub:
		if isFloat {
			return OpFSub
		}
		return OpISub
	case ir.BinMul:
		if isFloat {
			return OpFMul
		}
		return OpIMul
	case ir.BinUDiv:
		return OpUDiv
	case ir.BinSDiv:
		return OpSDiv
	case ir.BinFDiv:
		return OpFDiv
	case ir.BinURem:
		return OpUMod
	case ir.BinSRem:
		return OpSRem
	case ir.BinFRem:
		return OpFRem
	case ir.BinAnd:
		return OpBitwiseAnd
	case ir.BinOr:
		return OpBitwiseOr
	case ir.BinXor:
		return OpBitwiseXor
	case ir.BinShl:
		return OpShiftLeftLogical
	case ir.BinLShr:
		return OpShiftRightLogical
	case ir.BinAShr:
		return OpShiftRightArithmetic
	default:
		return OpIAdd
	}
}

// isFloatType reports whether h is a float scalar or a vector of
// float scalars.
func (l *lowerer) isFloatType(h ir.TypeHandle) bool {
	ty, ok := l.mod.Types.Lookup(h)
	if !ok {
		return false
	}
	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		return t.Kind == ir.ScalarFloat
	case ir.VectorType:
		return t.Elem.Kind == ir.ScalarFloat
	}
	return false
}

func (l *lowerer) lowerUnary(inst ir.Instruction, u ir.Unary) error {
	resultType, err := l.valueType(u.Value)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	valID, err := l.valueID(u.Value)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	op := OpFNegate
	if u.Op == ir.UnaryNot {
		op = OpLogicalNot
	}
	l.list.Append(NewInstruction(op).ArgID(typeID).ArgID(id).ArgID(valID))
	return nil
}

func (l *lowerer) lowerCompare(inst ir.Instruction, c ir.Compare) error {
	if (c.Pred == ir.PredIEq || c.Pred == ir.PredINe) {
		leftType, err := l.valueType(c.Left)
		if err == nil {
			if ty, ok := l.mod.Types.Lookup(leftType); ok {
				if _, isPtr := ty.Inner.(ir.PointerType); isPtr {
					return errUnsupported("pointer equality comparison is not lowerable", c)
				}
			}
		}
	}
	boolType := l.mod.Types.Intern("bool", ir.ScalarType{Kind: ir.ScalarBool})
	typeID, err := l.types.emit(boolType)
	if err != nil {
		return err
	}
	leftID, err := l.valueID(c.Left)
	if err != nil {
		return err
	}
	rightID, err := l.valueID(c.Right)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(compareOpcode(c.Pred)).ArgID(typeID).ArgID(id).ArgID(leftID).ArgID(rightID))
	return nil
}

func compareOpcode(p ir.Predicate) OpCode {
	switch p {
	case ir.PredIEq:
		return OpIEqual
	case ir.PredINe:
		return OpINotEqual
	case ir.PredUGt:
		return OpUGreaterThan
	case ir.PredUGe:
		return OpUGreaterThanEqual
	case ir.PredULt:
		return OpULessThan
	case ir.PredULe:
		return OpULessThanEqual
	case ir.PredSGt:
		return OpSGreaterThan
	case ir.PredSGe:
		return OpSGreaterThanEqual
	case ir.PredSLt:
		return OpSLessThan
	case ir.PredSLe:
		return OpSLessThanEqual
	case ir.PredOEq:
		return OpFOrdEqual
	case ir.PredONe:
		return OpFOrdNotEqual
	case ir.PredOGt:
		return OpFOrdGreaterThan
	case ir.PredOGe:
		return OpFOrdGreaterThanEqual
	case ir.PredOLt:
		return OpFOrdLessThan
	case ir.PredOLe:
		return OpFOrdLessThanEqual
	case ir.PredUEq:
		return OpFUnordEqual
	case ir.PredUNe:
		return OpFUnordNotEqual
	default:
		return OpFUnordNotEqual
	}
}

// lowerGEP implements spec.md §4.6's GEP rule, including the
// kernel-argument wrapper-struct index prepend and the
// OpPtrAccessChain/variable-pointers escalation.
func (l *lowerer) lowerGEP(inst ir.Instruction, g ir.GetElementPtr) error {
	typeID, err := l.types.emit(g.ResultType)
	if err != nil {
		return err
	}
	baseID, err := l.valueID(g.Base)
	if err != nil {
		return err
	}

	wrappedBase := l.isKernelArgumentPointer(g.Base) || l.isConstGlobalPointer(g.Base)
	indexIDs := make([]ID, 0, len(g.Indices)+1)
	if wrappedBase {
		indexIDs = append(indexIDs, l.tables.ScalarZeroI32)
	}
	needsPtrAccessChain := false
	for i, idx := range g.Indices {
		idxID, err := l.valueID(idx)
		if err != nil {
			return err
		}
		if i == 0 && !l.isConstantZero(idx) {
			needsPtrAccessChain = true
		}
		indexIDs = append(indexIDs, idxID)
	}

	id, _ := l.resultID(inst)
	op := OpAccessChain
	if needsPtrAccessChain && !wrappedBase {
		op = OpPtrAccessChain
		l.tables.UsesVariablePointers = true
		l.tables.NeedsArrayStride[typeID] = typeByteSize(l.mod, g.ResultType)
	}
	inst2 := NewInstruction(op).ArgID(typeID).ArgID(id).ArgID(baseID)
	for _, iid := range indexIDs {
		inst2.ArgID(iid)
	}
	l.list.Append(inst2)
	return nil
}

// isKernelArgumentPointer reports whether v is a wrapped global-buffer
// kernel argument, the only argument kind whose base pointer needs a
// zero index prepended to step through its wrapper struct. A
// pointer-to-local argument's value is already the precomputed
// pointer to element 0 (see bindLocalArgResultValue) and needs no
// such prepend.
func (l *lowerer) isKernelArgumentPointer(v ir.ValueHandle) bool {
	if int(v) >= len(l.fn.Values) || l.fn.Values[v].Kind != ir.ValueArgument {
		return false
	}
	ordinal := l.fn.Values[v].Index
	for _, res := range l.tables.KernelArgs {
		if res.Kernel == l.fn.Name && res.Ordinal == ordinal && res.Kind == ArgPointerGlobal {
			return true
		}
	}
	return false
}

// isConstGlobalPointer reports whether v is a storage-buffer-mode
// __constant global, wrapped the same way a global-buffer kernel
// argument is, so it needs the same zero-index prepend (spec.md §4.2
// item 6). An inline-mode (rewritten-to-private) global binds to an
// unwrapped pointer and needs no such prepend.
func (l *lowerer) isConstGlobalPointer(v ir.ValueHandle) bool {
	if int(v) >= len(l.fn.Values) || l.fn.Values[v].Kind != ir.ValueGlobal {
		return false
	}
	gh := ir.GlobalVariableHandle(l.fn.Values[v].Index)
	_, ok := l.tables.ConstGlobalByHandle[gh]
	return ok
}

func (l *lowerer) isConstantZero(v ir.ValueHandle) bool {
	// Front-end-supplied ConstIndex instructions mark compile-time
	// constant indices (see ir.ConstIndex); absent that, conservatively
	// treat the index as dynamic.
	if int(v) >= len(l.fn.Values) {
		return false
	}
	def := l.fn.Values[v]
	if def.Kind != ir.ValueInstruction {
		return false
	}
	inst := l.fn.Blocks[def.Block].Instructions[def.Index]
	if ci, ok := inst.Op.(ir.ConstIndex); ok {
		return ci.Value == 0
	}
	return false
}

func (l *lowerer) lowerLoad(inst ir.Instruction, load ir.Load) error {
	if l.isWorkgroupSizeFakeVariable(load.Pointer) {
		// driver workaround: replace the load with a bitwise-and of the
		// initializer value with itself (spec.md §4.6).
		valID, err := l.valueID(load.Pointer)
		if err != nil {
			return err
		}
		typeID, err := l.workgroupVecType()
		if err != nil {
			return err
		}
		id, _ := l.resultID(inst)
		l.list.Append(NewInstruction(OpBitwiseAnd).ArgID(typeID).ArgID(id).ArgID(valID).ArgID(valID))
		return nil
	}

	ptrType, err := l.valueType(load.Pointer)
	if err != nil {
		return err
	}
	ty, ok := l.mod.Types.Lookup(ptrType)
	if !ok {
		return errUnknownMapping("load pointer type not found", ptrType)
	}
	pointee := ty.Inner.(ir.PointerType).Pointee
	typeID, err := l.types.emit(pointee)
	if err != nil {
		return err
	}
	ptrID, err := l.valueID(load.Pointer)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpLoad).ArgID(typeID).ArgID(id).ArgID(ptrID))
	return nil
}

func (l *lowerer) isWorkgroupSizeFakeVariable(v ir.ValueHandle) bool {
	return v == l.workgroupSizeFakePointer
}

func (l *lowerer) workgroupVecType() (ID, error) {
	u32 := l.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	vec := l.mod.Types.Intern("", ir.VectorType{Size: ir.Vec3, Elem: ir.ScalarType{Kind: ir.ScalarUint, Width: 4}})
	l.tables.InternType(u32)
	return l.types.emit(vec)
}

func (l *lowerer) lowerStore(s ir.Store) error {
	ptrID, err := l.valueID(s.Pointer)
	if err != nil {
		return err
	}
	valID, err := l.valueID(s.Value)
	if err != nil {
		return err
	}
	l.list.Append(NewInstruction(OpStore).ArgID(ptrID).ArgID(valID))
	return nil
}

func (l *lowerer) lowerExtractElement(inst ir.Instruction, e ir.ExtractElement) error {
	vecType, err := l.valueType(e.Vector)
	if err != nil {
		return err
	}
	if is4xI8(l.mod, vecType) {
		return l.lowerPackedExtract(inst, e)
	}
	ty, _ := l.mod.Types.Lookup(vecType)
	elemType := l.mod.Types.Intern("", ty.Inner.(ir.VectorType).Elem)
	typeID, err := l.types.emit(elemType)
	if err != nil {
		return err
	}
	vecID, err := l.valueID(e.Vector)
	if err != nil {
		return err
	}
	idxID, err := l.valueID(e.Index)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpCompositeExtract).ArgID(typeID).ArgID(id).ArgID(vecID).ArgID(idxID))
	return nil
}

// lowerPackedExtract implements the <4×i8> shift+mask element-read
// path spec.md §4.6/§8 names explicitly.
func (l *lowerer) lowerPackedExtract(inst ir.Instruction, e ir.ExtractElement) error {
	u32 := l.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	typeID, err := l.types.emit(u32)
	if err != nil {
		return err
	}
	vecID, err := l.valueID(e.Vector)
	if err != nil {
		return err
	}
	idxID, err := l.valueID(e.Index)
	if err != nil {
		return err
	}
	eightID, err := lookupU32Constant(l.mod, l.tables, 8)
	if err != nil {
		return err
	}
	maskID, err := lookupU32Constant(l.mod, l.tables, 0xFF)
	if err != nil {
		return err
	}
	shiftAmount := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpIMul).ArgID(typeID).ArgID(shiftAmount).ArgID(idxID).ArgID(eightID))
	shifted := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpShiftRightLogical).ArgID(typeID).ArgID(shifted).ArgID(vecID).ArgID(shiftAmount))
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpBitwiseAnd).ArgID(typeID).ArgID(id).ArgID(shifted).ArgID(maskID))
	return nil
}

func (l *lowerer) lowerInsertElement(inst ir.Instruction, e ir.InsertElement) error {
	vecType, err := l.valueType(e.Vector)
	if err != nil {
		return err
	}
	if is4xI8(l.mod, vecType) {
		return l.lowerPackedInsert(inst, e)
	}
	typeID, err := l.types.emit(vecType)
	if err != nil {
		return err
	}
	vecID, err := l.valueID(e.Vector)
	if err != nil {
		return err
	}
	valID, err := l.valueID(e.Value)
	if err != nil {
		return err
	}
	idxID, err := l.valueID(e.Index)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpCompositeInsert).ArgID(typeID).ArgID(id).ArgID(valID).ArgID(vecID).ArgID(idxID))
	return nil
}

// lowerPackedInsert implements the mask-clear-then-shifted-OR
// six-step <4×i8> element-write path (spec.md §4.6/§8).
func (l *lowerer) lowerPackedInsert(inst ir.Instruction, e ir.InsertElement) error {
	u32 := l.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	typeID, err := l.types.emit(u32)
	if err != nil {
		return err
	}
	vecID, err := l.valueID(e.Vector)
	if err != nil {
		return err
	}
	valID, err := l.valueID(e.Value)
	if err != nil {
		return err
	}
	idxID, err := l.valueID(e.Index)
	if err != nil {
		return err
	}
	eightID, err := lookupU32Constant(l.mod, l.tables, 8)
	if err != nil {
		return err
	}
	maskID, err := lookupU32Constant(l.mod, l.tables, 0xFF)
	if err != nil {
		return err
	}
	shiftAmount := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpIMul).ArgID(typeID).ArgID(shiftAmount).ArgID(idxID).ArgID(eightID))
	byteMask := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpShiftLeftLogical).ArgID(typeID).ArgID(byteMask).ArgID(maskID).ArgID(shiftAmount))
	invMask := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpNot).ArgID(typeID).ArgID(invMask).ArgID(byteMask))
	cleared := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpBitwiseAnd).ArgID(typeID).ArgID(cleared).ArgID(vecID).ArgID(invMask))
	shiftedVal := l.tables.IDs.Reserve()
	l.list.Append(NewInstruction(OpShiftLeftLogical).ArgID(typeID).ArgID(shiftedVal).ArgID(valID).ArgID(shiftAmount))
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpBitwiseOr).ArgID(typeID).ArgID(id).ArgID(cleared).ArgID(shiftedVal))
	return nil
}

func is4xI8(mod *ir.Module, h ir.TypeHandle) bool {
	ty, ok := mod.Types.Lookup(h)
	if !ok {
		return false
	}
	v, ok := ty.Inner.(ir.VectorType)
	return ok && v.Size == ir.Vec4 && v.Elem.Width == 1 && v.Elem.Kind != ir.ScalarFloat
}

// fieldTypeAt walks a chain of compile-time-constant struct/array
// indices from aggType, returning the type of the field they name
// (spec.md §4.6 "ExtractValue"). OpCompositeExtract's Result Type
// operand is this field type, never the aggregate's own type.
func (l *lowerer) fieldTypeAt(aggType ir.TypeHandle, indices []uint32) (ir.TypeHandle, error) {
	return resolveFieldTypeAt(l.mod, aggType, indices)
}

func resolveFieldTypeAt(mod *ir.Module, aggType ir.TypeHandle, indices []uint32) (ir.TypeHandle, error) {
	cur := aggType
	for _, idx := range indices {
		ty, ok := mod.Types.Lookup(cur)
		if !ok {
			return 0, errUnknownMapping("aggregate type not found", cur)
		}
		switch t := ty.Inner.(type) {
		case ir.StructType:
			if int(idx) >= len(t.Members) {
				return 0, errUnknownMapping("struct member index out of range", idx)
			}
			cur = t.Members[idx].Type
		case ir.ArrayType:
			cur = t.Elem
		default:
			return 0, errUnknownMapping("cannot index into non-aggregate type", ty)
		}
	}
	return cur, nil
}

func (l *lowerer) lowerExtractValue(inst ir.Instruction, e ir.ExtractValue) error {
	aggType, err := l.valueType(e.Aggregate)
	if err != nil {
		return err
	}
	fieldType, err := l.fieldTypeAt(aggType, e.Indices)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(fieldType)
	if err != nil {
		return err
	}
	aggID, err := l.valueID(e.Aggregate)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	inst2 := NewInstruction(OpCompositeExtract).ArgID(typeID).ArgID(id).ArgID(aggID)
	for _, idx := range e.Indices {
		inst2.Arg(idx)
	}
	l.list.Append(inst2)
	return nil
}

func (l *lowerer) lowerInsertValue(inst ir.Instruction, e ir.InsertValue) error {
	aggType, err := l.valueType(e.Aggregate)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(aggType)
	if err != nil {
		return err
	}
	aggID, err := l.valueID(e.Aggregate)
	if err != nil {
		return err
	}
	valID, err := l.valueID(e.Value)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	inst2 := NewInstruction(OpCompositeInsert).ArgID(typeID).ArgID(id).ArgID(valID).ArgID(aggID)
	for _, idx := range e.Indices {
		inst2.Arg(idx)
	}
	l.list.Append(inst2)
	return nil
}

func (l *lowerer) lowerSelect(inst ir.Instruction, s ir.Select) error {
	resultType, err := l.valueType(s.True)
	if err != nil {
		return err
	}
	typeID, err := l.types.emit(resultType)
	if err != nil {
		return err
	}
	condID, err := l.valueID(s.Condition)
	if err != nil {
		return err
	}
	trueID, err := l.valueID(s.True)
	if err != nil {
		return err
	}
	falseID, err := l.valueID(s.False)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(OpSelect).ArgID(typeID).ArgID(id).ArgID(condID).ArgID(trueID).ArgID(falseID))
	return nil
}

func (l *lowerer) lowerCompositeConstruct(inst ir.Instruction, c ir.CompositeConstruct) error {
	typeID, err := l.types.emit(c.ResultType)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	inst2 := NewInstruction(OpCompositeConstruct).ArgID(typeID).ArgID(id)
	for _, comp := range c.Components {
		cid, err := l.valueID(comp)
		if err != nil {
			return err
		}
		inst2.ArgID(cid)
	}
	l.list.Append(inst2)
	return nil
}

func (l *lowerer) lowerAtomic(inst ir.Instruction, a ir.AtomicRMW) error {
	ptrType, err := l.valueType(a.Pointer)
	if err != nil {
		return err
	}
	ty, _ := l.mod.Types.Lookup(ptrType)
	pointee := ty.Inner.(ir.PointerType).Pointee
	typeID, err := l.types.emit(pointee)
	if err != nil {
		return err
	}
	ptrID, err := l.valueID(a.Pointer)
	if err != nil {
		return err
	}
	valID, err := l.valueID(a.Value)
	if err != nil {
		return err
	}
	id, _ := l.resultID(inst)
	l.list.Append(NewInstruction(atomicOpcode(a.Op)).ArgID(typeID).ArgID(id).ArgID(ptrID).
		Arg(uint32(ScopeDevice)).Arg(uint32(MemorySemanticsUniformMemory | MemorySemanticsSequentiallyConsistent)).ArgID(valID))
	return nil
}

func atomicOpcode(op ir.AtomicOp) OpCode {
	switch op {
	case ir.AtomicAdd:
		return OpAtomicIAdd
	case ir.AtomicSub:
		return OpAtomicISub
	case ir.AtomicAnd:
		return OpAtomicAnd
	case ir.AtomicOr:
		return OpAtomicOr
	case ir.AtomicXor:
		return OpAtomicXor
	case ir.AtomicMin:
		return OpAtomicUMin
	case ir.AtomicMax:
		return OpAtomicUMax
	case ir.AtomicExchange:
		return OpAtomicExchange
	default:
		return OpAtomicIAdd
	}
}

func (l *lowerer) lowerWorkgroupSize(inst ir.Instruction) error {
	id, _ := l.resultID(inst)
	if inst.Result != nil {
		l.tables.ValueID[*inst.Result] = l.tables.WorkgroupSizeValueID
	}
	_ = id
	return nil
}

func (l *lowerer) enqueueCall(bh ir.BlockHandle, idx int, inst ir.Instruction, c ir.Call) {
	var result ID
	if inst.Result != nil {
		result = l.tables.IDs.Reserve()
		l.tables.ValueID[*inst.Result] = result
	}
	l.deferred = append(l.deferred, &deferredItem{
		kind: deferredCall, block: bh, fn: l.fh, index: l.list.Len(), result: result, call: c,
	})
}

func (l *lowerer) enqueuePhi(bh ir.BlockHandle, inst ir.Instruction) {
	phi := inst.Op.(ir.Phi)
	var result ID
	if inst.Result != nil {
		result = l.tables.IDs.Reserve()
		l.tables.ValueID[*inst.Result] = result
	}
	l.deferred = append(l.deferred, &deferredItem{
		kind: deferredPhi, block: bh, fn: l.fh, index: l.list.Len(), result: result, phi: phi,
	})
}

func (l *lowerer) lowerTerminator(bh ir.BlockHandle, term ir.Terminator) error {
	switch t := term.(type) {
	case ir.Br:
		l.deferred = append(l.deferred, &deferredItem{kind: deferredBranch, block: bh, fn: l.fh, index: l.list.Len(), term: t})
	case ir.CondBr:
		l.deferred = append(l.deferred, &deferredItem{kind: deferredBranch, block: bh, fn: l.fh, index: l.list.Len(), term: t})
	case ir.Ret:
		if t.Value == nil {
			l.list.Append(NewInstruction(OpReturn))
		} else {
			valID, err := l.valueID(*t.Value)
			if err != nil {
				return err
			}
			l.list.Append(NewInstruction(OpReturnValue).ArgID(valID))
		}
	case ir.Unreachable:
		l.list.Append(NewInstruction(OpUnreachable))
	default:
		return errUnknownMapping("unrecognized terminator", term)
	}
	return nil
}
