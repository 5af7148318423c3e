package spirv

import (
	"math"

	"github.com/clspv-go/clspv/ir"
)

// oneOverPi is the 1/π constant acospi/asinpi/atan2pi multiply by
// (spec.md §4.2 item 5).
const oneOverPi = 0.318309886183790671538

// discoverer runs the two discovery passes over a module, populating
// Tables with every type, constant, and resource the lowering pass
// will later need (spec.md §4.2). It is grounded on the teacher's
// two-pass emitDebugNames/emitDecorations shape generalized to walk
// instructions rather than only declared globals.
type discoverer struct {
	mod     *ir.Module
	opts    Options
	tables  *Tables
	builtin *builtinDispatch
	args    *argumentLowerer
}

func newDiscoverer(mod *ir.Module, opts Options, tables *Tables, b *builtinDispatch) *discoverer {
	return &discoverer{mod: mod, opts: opts, tables: tables, builtin: b}
}

// discover runs the walker: kernels first, then regular functions,
// matching spec.md §4.2's "two symmetric passes".
func (d *discoverer) discover() error {
	if err := d.discoverGlobalTypes(); err != nil {
		return err
	}
	for fi := range d.mod.Functions {
		f := &d.mod.Functions[fi]
		if f.Kind == ir.FuncKernel {
			if err := d.discoverFunction(ir.FunctionHandle(fi), f); err != nil {
				return err
			}
		}
	}
	for fi := range d.mod.Functions {
		f := &d.mod.Functions[fi]
		if f.Kind != ir.FuncKernel {
			if err := d.discoverFunction(ir.FunctionHandle(fi), f); err != nil {
				return err
			}
		}
	}
	if err := d.discoverConstantResources(); err != nil {
		return err
	}
	if err := d.discoverWorkgroupSize(); err != nil {
		return err
	}
	return nil
}

// discoverGlobalTypes rewrites __constant globals per spec.md §4.2
// item 6. In the default (inline) mode every constant global moves
// into private module scope right away, since nothing further needs
// to know it was ever constant-space. In storage-buffer mode the
// space is left as SpaceConstant so discoverConstantResources (which
// must run after argument discovery, to avoid colliding with kernel
// descriptor bindings) can still find them.
func (d *discoverer) discoverGlobalTypes() error {
	for gi := range d.mod.GlobalVariables {
		g := &d.mod.GlobalVariables[gi]
		if g.Space != ir.SpaceConstant {
			continue
		}
		if d.opts.ConstantsInStorageBuffer {
			if len(g.Data) > 65536 {
				return errStructural("__constant data exceeds 64 KiB storage-buffer-mode cap", g.Name)
			}
			d.internType(g.Type)
			continue
		}
		// Inline mode: rewrite to private scope, intern its type as before.
		g.Space = ir.SpacePrivate
		d.internType(g.Type)
		if g.Init != nil {
			d.internConstant(*g.Init)
		}
	}
	return nil
}

// discoverConstantResources synthesizes the storage-buffer resource
// for each __constant global discoverGlobalTypes left in constant
// space (spec.md §4.2 item 6, "constants as storage buffer" mode).
// Each gets its own descriptor set, so assignment runs after all
// kernel arguments have claimed theirs (spec.md §6: the sidecar
// "constant" record always reads binding 0, meaning the buffer owns
// its set outright rather than sharing one with kernel arguments).
func (d *discoverer) discoverConstantResources() error {
	if !d.opts.ConstantsInStorageBuffer {
		return nil
	}
	for gi := range d.mod.GlobalVariables {
		g := &d.mod.GlobalVariables[gi]
		if g.Space != ir.SpaceConstant {
			continue
		}
		if d.args == nil {
			d.args = newArgumentLowerer(d.mod, d.opts, d.tables)
		}
		set := d.args.nextDescriptorSet()
		wrapped := constBufferWrapperType(d.mod, g.Type)
		d.tables.InternType(wrapped)
		gh := ir.GlobalVariableHandle(gi)
		res := &ConstGlobalResource{
			Global:        gh,
			Name:          g.Name,
			WrappedType:   wrapped,
			DescriptorSet: set,
			Data:          g.Data,
		}
		d.tables.ConstGlobals = append(d.tables.ConstGlobals, res)
		d.tables.ConstGlobalByHandle[gh] = res
		d.args.records = append(d.args.records, DescriptorMapRecord{
			Kind:          RecordConstant,
			DescriptorSet: set,
			HexBytes:      g.Data,
		})
	}
	return nil
}

// rewriteConstantPointerParams rewrites a regular (non-kernel)
// function's constant-space pointer parameters to the private address
// space in place, mirroring discoverGlobalTypes' own rewrite, and
// records the function in Tables.ConstantPtrFuncType (spec.md §4.2
// item 6, §4.4 "Function types"). Kernel parameters need no such
// rewrite: discoverKernelArguments already maps any non-local pointer
// argument, constant-space included, straight to a StorageBuffer
// resource. In storage-buffer mode a constant-space parameter instead
// stays constant-space, addressing the resource discoverConstantResources
// synthesizes.
func (d *discoverer) rewriteConstantPointerParams(fh ir.FunctionHandle, f *ir.Function) {
	if d.opts.ConstantsInStorageBuffer {
		return
	}
	for i, arg := range f.Arguments {
		ty, ok := d.mod.Types.Lookup(arg.Type)
		if !ok {
			continue
		}
		ptr, ok := ty.Inner.(ir.PointerType)
		if !ok || ptr.Space != ir.SpaceConstant {
			continue
		}
		f.Arguments[i].Type = d.mod.Types.Intern("", ir.PointerType{Space: ir.SpacePrivate, Pointee: ptr.Pointee})
		d.tables.ConstantPtrFuncType[fh] = true
	}
}

// discoverFunction walks one function's instructions.
func (d *discoverer) discoverFunction(fh ir.FunctionHandle, f *ir.Function) error {
	if f.Kind == ir.FuncKernel {
		if err := d.discoverKernelArguments(fh, f); err != nil {
			return err
		}
	} else {
		d.rewriteConstantPointerParams(fh, f)
	}
	d.internType(f.Result)
	for _, blk := range f.Blocks {
		for _, inst := range blk.Instructions {
			if err := d.discoverInstruction(f, inst); err != nil {
				return err
			}
		}
		if err := d.discoverTerminator(blk.Terminator); err != nil {
			return err
		}
	}
	return nil
}

func (d *discoverer) discoverTerminator(term ir.Terminator) error {
	switch term.(type) {
	case ir.Switch:
		return errUnsupported("switch terminator is not lowerable", term)
	case ir.IndirectBr:
		return errUnsupported("indirect branch is not lowerable", term)
	}
	return nil
}

func (d *discoverer) discoverInstruction(f *ir.Function, inst ir.Instruction) error {
	switch op := inst.Op.(type) {
	case ir.Cast:
		return d.discoverCast(op)
	case ir.Compare:
		if op.Pred == ir.PredIEq || op.Pred == ir.PredINe {
			// pointer-equality detection happens at lowering time, once
			// operand types are known; discovery registers nothing for it.
		}
	case ir.AtomicRMW:
		d.registerAtomicSemantics()
	case ir.AtomicCmpXchg:
		return errUnsupported("atomic_cmpxchg is not lowerable", op)
	case ir.Fence:
		return errUnsupported("fence is not lowerable", op)
	case ir.BuiltinCall:
		return d.discoverBuiltinCall(op)
	case ir.Alloca:
		d.internType(op.Type)
	case ir.ConstIndex:
		d.internConstIndexConstant(op.Value)
	case ir.ExtractElement:
		return d.discoverPackedByteOp(f, op.Vector)
	case ir.InsertElement:
		return d.discoverPackedByteOp(f, op.Vector)
	}
	return nil
}

// discoverPackedByteOp registers the shift-amount and mask constants
// the <4×i8> packed-byte extract/insert lowering needs (spec.md §4.2
// item 4, §4.6): a literal 8 to scale the element index into a bit
// shift, and a 0xFF mask to isolate a single byte.
func (d *discoverer) discoverPackedByteOp(f *ir.Function, vec ir.ValueHandle) error {
	vecType, err := resolveValueType(d.mod, f, vec)
	if err != nil {
		return err
	}
	if !is4xI8(d.mod, vecType) {
		return nil
	}
	d.internU32Constant(8)
	d.internU32Constant(0xFF)
	return nil
}

// internConstIndexConstant registers the i32 literal a ConstIndex
// instruction carries, so the Instruction Lowerer can resolve it to a
// real constant id instead of emitting anything at its use site
// (ConstIndex values are compile-time GEP index metadata, not
// SPIR-V-level operations).
func (d *discoverer) internConstIndexConstant(v int64) {
	th := d.mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	d.internType(th)
	ch := d.syntheticConstant(th, ir.ScalarConst{Bits: uint64(v), Kind: ir.ScalarSint})
	d.internConstant(ch)
}

// discoverCast registers the select-constants an i1-widening cast
// needs (spec.md §4.2 item 1): zext needs 0/1, sext needs the
// all-bits-set pattern and 0 (not the same pair as zext — a sign
// extension of true must set every bit, not just bit 0), and uitofp
// needs the floats 0.0/1.0, each sized/splatted to match the cast's
// actual result type rather than assumed to be scalar u32.
func (d *discoverer) discoverCast(c ir.Cast) error {
	switch c.Kind {
	case ir.CastZExt, ir.CastSExt, ir.CastUIToFP:
		if err := d.internWideningConstants(c.ResultType, c.Kind); err != nil {
			return err
		}
	case ir.CastTrunc:
		d.internU32Constant(0xFF)
	}
	d.internType(c.ResultType)
	return nil
}

// internWideningConstants registers the scalar (and, for a vector
// result, splatted composite) true/false constant pair an i1-widening
// cast's OpSelect will reference.
func (d *discoverer) internWideningConstants(resultType ir.TypeHandle, kind ir.CastKind) error {
	elemType, trueVal, falseVal, vecSize, isVector, err := wideningOperands(d.mod, resultType, kind)
	if err != nil {
		return err
	}
	d.internType(elemType)
	trueCh := d.syntheticConstant(elemType, trueVal)
	falseCh := d.syntheticConstant(elemType, falseVal)
	d.internConstant(trueCh)
	d.internConstant(falseCh)
	if isVector {
		d.internSplatConstant(resultType, trueCh, vecSize)
		d.internSplatConstant(resultType, falseCh, vecSize)
	}
	return nil
}

// internSplatConstant registers the <vecSize x elemType> composite
// built from n copies of scalarCh, the splat form a vector-result
// widening cast's OpSelect operands take (spec.md §4.2 item 1,
// "scalar or splatted as the result type demands").
func (d *discoverer) internSplatConstant(vecType ir.TypeHandle, scalarCh ir.ConstantHandle, n int) {
	components := make([]ir.ConstantHandle, n)
	for i := range components {
		components[i] = scalarCh
	}
	ch := d.syntheticComposite(vecType, components)
	d.internConstant(ch)
}

// syntheticComposite appends a discovery-time composite literal to
// Module.Constants if an identical one doesn't already exist,
// returning its handle; same dedup contract as syntheticConstant.
func (d *discoverer) syntheticComposite(th ir.TypeHandle, components []ir.ConstantHandle) ir.ConstantHandle {
	for i, c := range d.mod.Constants {
		if c.Type != th {
			continue
		}
		if cc, ok := c.Value.(ir.CompositeConst); ok && constantHandlesEqual(cc.Components, components) {
			return ir.ConstantHandle(i)
		}
	}
	h := ir.ConstantHandle(len(d.mod.Constants))
	d.mod.Constants = append(d.mod.Constants, ir.Constant{Type: th, Value: ir.CompositeConst{Components: components}})
	return h
}

func (d *discoverer) registerAtomicSemantics() {
	// ScopeDevice and MemorySemantics are packed enum literals, not
	// constant ids, so no interning is needed here; retained as a named
	// hook matching spec.md §4.2 item 4 for symmetry with the other
	// synthetic-constant steps.
}

// discoverBuiltinCall dispatches the known OpenCL C builtin families
// (spec.md §4.2 items 2 and 5).
func (d *discoverer) discoverBuiltinCall(call ir.BuiltinCall) error {
	fam, ok := d.builtin.lookup(call.Mangled)
	if !ok {
		return nil // non-recognized calls lower to OpFunctionCall; nothing to discover
	}
	switch fam.class {
	case builtinImageSample, builtinImageRead:
		d.internFloatConstant(0.0) // LOD literal
	case builtinBarrier:
		d.internU32Constant(barrierScopeWorkgroup)
		d.internU32Constant(barrierSemanticsWorkgroupRelease)
	case builtinExtInst:
		d.tables.ExtInstGLSL = 1 // non-zero placeholder; real id assigned at emit time
		if fam.indirect == indirectClz {
			d.internU32Constant(31)
		}
		if fam.indirect == indirectPiInverse {
			d.internFloatConstant(oneOverPi)
		}
	}
	return nil
}

// barrierScopeWorkgroup and barrierSemanticsWorkgroupRelease are the
// Scope/MemorySemantics literal values OpControlBarrier's operands
// reference as constant ids for a work-group barrier over local
// memory: Scope Workgroup (2), MemorySemantics
// WorkgroupMemory|SequentiallyConsistent (0x100|0x10).
const (
	barrierScopeWorkgroup            = 2
	barrierSemanticsWorkgroupRelease = 0x110
)

// lookupConstantID recovers the emitted id of the scalar literal
// (th, val) that discovery registered up front, for lowering stages
// that need to reference a synthetic constant by value rather than by
// ConstantHandle (spec.md §4.2 items 2/3/5).
func lookupConstantID(mod *ir.Module, tables *Tables, th ir.TypeHandle, val ir.ScalarConst) (ID, error) {
	for i, c := range mod.Constants {
		if c.Type != th {
			continue
		}
		if sc, ok := c.Value.(ir.ScalarConst); ok && sc == val {
			return tables.LookupConstant(ir.ConstantHandle(i))
		}
	}
	return 0, errUnknownMapping("constant not discovered", val)
}

func lookupU32Constant(mod *ir.Module, tables *Tables, v uint32) (ID, error) {
	th := mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	return lookupConstantID(mod, tables, th, ir.ScalarConst{Bits: uint64(v), Kind: ir.ScalarUint})
}

func lookupFloatConstant(mod *ir.Module, tables *Tables, v float64) (ID, error) {
	th := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	bits := uint64(math.Float32bits(float32(v)))
	return lookupConstantID(mod, tables, th, ir.ScalarConst{Bits: bits, Kind: ir.ScalarFloat})
}

func lookupI32Constant(mod *ir.Module, tables *Tables, v int64) (ID, error) {
	th := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	return lookupConstantID(mod, tables, th, ir.ScalarConst{Bits: uint64(v), Kind: ir.ScalarSint})
}

// floatBits encodes v as the IEEE-754 bit pattern for a float of the
// given byte width (4 for float, 8 for double), the representation
// ScalarConst.Bits holds for a float-kind constant.
func floatBits(v float64, width uint8) uint64 {
	if width == 8 {
		return math.Float64bits(v)
	}
	return uint64(math.Float32bits(float32(v)))
}

// discoverWorkgroupSize registers the three workgroup-size constants
// if any kernel declares a fixed size and the program references the
// builtin (spec.md §4.2 item 3).
func (d *discoverer) discoverWorkgroupSize() error {
	var fixed *[3]uint32
	usesBuiltin := false
	for fi := range d.mod.Functions {
		f := &d.mod.Functions[fi]
		if f.Kind != ir.FuncKernel {
			continue
		}
		if f.ReqdWorkGroupSize != nil {
			if fixed != nil && *fixed != *f.ReqdWorkGroupSize {
				return errStructural("kernels disagree on reqd_work_group_size", f.Name)
			}
			fixed = f.ReqdWorkGroupSize
		}
		for _, blk := range f.Blocks {
			for _, inst := range blk.Instructions {
				if _, ok := inst.Op.(ir.WorkgroupSizeBuiltin); ok {
					usesBuiltin = true
				}
			}
		}
	}
	if fixed != nil && usesBuiltin {
		for _, v := range fixed {
			d.internU32Constant(v)
		}
	}
	return nil
}

// internType interns h and recurses into its structural dependents so
// e.g. an array's length operand (always i32) is discovered too
// (spec.md §4.2 "recurses into subtypes").
func (d *discoverer) internType(h ir.TypeHandle) {
	if !d.tables.InternType(h) {
		return
	}
	ty, ok := d.mod.Types.Lookup(h)
	if !ok {
		return
	}
	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		switch t.Width {
		case 1:
			d.tables.UsesInt8 = true
		case 2:
			d.tables.UsesInt16 = true
		case 8:
			if t.Kind == ir.ScalarFloat {
				d.tables.UsesFloat64 = true
			} else {
				d.tables.UsesInt64 = true
			}
		}
		if t.Width == 2 && t.Kind == ir.ScalarFloat {
			d.tables.UsesFloat16 = true
		}
	case ir.VectorType:
		d.internType(d.scalarHandle(t.Elem))
	case ir.ArrayType:
		d.internType(d.i32Handle())
		d.internType(t.Elem)
	case ir.StructType:
		for _, m := range t.Members {
			d.internType(m.Type)
		}
	case ir.PointerType:
		d.internType(t.Pointee)
	case ir.FunctionType:
		d.internType(t.Result)
		for _, p := range t.Params {
			d.internType(p)
		}
	case ir.ImageType:
		if t.Access == ir.ImageWriteOnly {
			d.tables.UsesWriteOnlyImage = true
		}
	case ir.SampledImageType:
		d.internType(t.Image)
	}
}

// scalarHandle/i32Handle re-intern a bare scalar type by shape; since
// TypeRegistry dedups structurally, this is safe to call even if the
// exact handle used elsewhere differs.
func (d *discoverer) scalarHandle(s ir.ScalarType) ir.TypeHandle {
	return d.mod.Types.Intern("", s)
}

func (d *discoverer) i32Handle() ir.TypeHandle {
	return d.mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
}

func (d *discoverer) internConstant(ch ir.ConstantHandle) {
	if !d.tables.InternConstant(ch) {
		return
	}
	if ch < ir.ConstantHandle(len(d.mod.Constants)) {
		c := d.mod.Constants[ch]
		d.internType(c.Type)
		if comp, ok := c.Value.(ir.CompositeConst); ok {
			for _, elem := range comp.Components {
				d.internConstant(elem)
			}
		}
	}
}

// internU32Constant interns a synthetic unsigned 32-bit constant not
// necessarily present in Module.Constants (discovery-synthesized
// literals such as 0xFF, 31, the i1-widening 0/1 pair).
func (d *discoverer) internU32Constant(v uint32) {
	th := d.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	d.internType(th)
	ch := d.syntheticConstant(th, ir.ScalarConst{Bits: uint64(v), Kind: ir.ScalarUint})
	d.internConstant(ch)
}

func (d *discoverer) internFloatConstant(v float64) {
	th := d.mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	d.internType(th)
	bits := uint64(math.Float32bits(float32(v)))
	ch := d.syntheticConstant(th, ir.ScalarConst{Bits: bits, Kind: ir.ScalarFloat})
	d.internConstant(ch)
}

// syntheticConstant appends a discovery-time literal to Module.Constants
// if an identical one doesn't already exist, returning its handle.
// Module.Constants is append-only and not structurally interned the
// way types are (spec.md §3: "ordered by first discovery"), so this
// does a short linear scan — acceptable since synthetic constants are
// a handful of scalars per module.
func (d *discoverer) syntheticConstant(th ir.TypeHandle, val ir.ScalarConst) ir.ConstantHandle {
	for i, c := range d.mod.Constants {
		if c.Type != th {
			continue
		}
		if sc, ok := c.Value.(ir.ScalarConst); ok && sc == val {
			return ir.ConstantHandle(i)
		}
	}
	h := ir.ConstantHandle(len(d.mod.Constants))
	d.mod.Constants = append(d.mod.Constants, ir.Constant{Type: th, Value: val})
	return h
}
