package spirv

import (
	"testing"

	"github.com/clspv-go/clspv/ir"
)

func newDiscovererForTest() (*ir.Module, *Tables, *discoverer) {
	mod := &ir.Module{Types: ir.NewTypeRegistry()}
	tables := NewTables()
	return mod, tables, newDiscoverer(mod, DefaultOptions(), tables, nil)
}

func newDiscovererForTestOpts(opts Options) (*ir.Module, *Tables, *discoverer) {
	mod := &ir.Module{Types: ir.NewTypeRegistry()}
	tables := NewTables()
	return mod, tables, newDiscoverer(mod, opts, tables, nil)
}

// emitDiscoveredConstants runs the Type and Constant Emitters over what
// discovery interned. The lookup helpers resolve only emitted ids, so
// the tests below call this before checking what was registered.
func emitDiscoveredConstants(t *testing.T, mod *ir.Module, tables *Tables) {
	t.Helper()
	list := &InstructionList{}
	types := newTypeEmitter(mod, tables, list)
	if err := newConstantEmitter(mod, DefaultOptions(), tables, types, list).emitAll(); err != nil {
		t.Fatalf("emitting discovered constants: %v", err)
	}
}

func TestDiscoverConstIndexRegistersI32Constant(t *testing.T) {
	mod, tables, d := newDiscovererForTest()

	fn := &ir.Function{}
	inst := ir.Instruction{Op: ir.ConstIndex{Value: 3}}
	if err := d.discoverInstruction(fn, inst); err != nil {
		t.Fatalf("discoverInstruction: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	id, err := lookupI32Constant(mod, tables, 3)
	if err != nil {
		t.Fatalf("lookupI32Constant should have found the registered literal: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero emitted constant id")
	}
}

func TestDiscoverConstIndexZeroIsDistinguishableFromOtherLiterals(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	fn := &ir.Function{}

	if err := d.discoverInstruction(fn, ir.Instruction{Op: ir.ConstIndex{Value: 0}}); err != nil {
		t.Fatalf("discoverInstruction(0): %v", err)
	}
	if err := d.discoverInstruction(fn, ir.Instruction{Op: ir.ConstIndex{Value: 1}}); err != nil {
		t.Fatalf("discoverInstruction(1): %v", err)
	}

	if len(tables.ConstantOrder) != 2 {
		t.Fatalf("expected 2 distinct synthetic constants, got %d", len(tables.ConstantOrder))
	}
	emitDiscoveredConstants(t, mod, tables)
	zeroH, err := lookupI32Constant(mod, tables, 0)
	if err != nil {
		t.Fatalf("lookupI32Constant(0): %v", err)
	}
	oneH, err := lookupI32Constant(mod, tables, 1)
	if err != nil {
		t.Fatalf("lookupI32Constant(1): %v", err)
	}
	if zeroH == oneH {
		t.Error("the 0 and 1 literals should be distinct constant ids")
	}
}

func TestDiscoverCastZExtRegistersBoolWideningPair(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	u32 := mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})

	if err := d.discoverCast(ir.Cast{Kind: ir.CastZExt, ResultType: u32}); err != nil {
		t.Fatalf("discoverCast: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	if _, err := lookupU32Constant(mod, tables, 0); err != nil {
		t.Errorf("expected the widening-zero constant to be registered: %v", err)
	}
	if _, err := lookupU32Constant(mod, tables, 1); err != nil {
		t.Errorf("expected the widening-one constant to be registered: %v", err)
	}
}

func TestDiscoverCastSExtRegistersAllBitsSetPair(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})

	if err := d.discoverCast(ir.Cast{Kind: ir.CastSExt, ResultType: i32}); err != nil {
		t.Fatalf("discoverCast: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	trueID, err := lookupConstantID(mod, tables, i32, ir.ScalarConst{Bits: uint64(0xFFFFFFFF), Kind: ir.ScalarSint})
	if err != nil {
		t.Fatalf("expected the all-bits-set sext constant to be registered: %v", err)
	}
	falseID, err := lookupConstantID(mod, tables, i32, ir.ScalarConst{Bits: 0, Kind: ir.ScalarSint})
	if err != nil {
		t.Fatalf("expected the zero sext constant to be registered: %v", err)
	}
	if trueID == falseID {
		t.Error("sext's true/false constants must be distinct")
	}
}

func TestDiscoverCastUIToFPRegistersFloatPair(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	f32 := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})

	if err := d.discoverCast(ir.Cast{Kind: ir.CastUIToFP, ResultType: f32}); err != nil {
		t.Fatalf("discoverCast: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	if _, err := lookupFloatConstant(mod, tables, 1.0); err != nil {
		t.Errorf("expected the widening 1.0 float constant to be registered: %v", err)
	}
	if _, err := lookupFloatConstant(mod, tables, 0.0); err != nil {
		t.Errorf("expected the widening 0.0 float constant to be registered: %v", err)
	}
}

func TestDiscoverCastSExtOnVectorResultRegistersSplatComposite(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	vecTy := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: ir.ScalarType{Kind: ir.ScalarSint, Width: 4}})

	if err := d.discoverCast(ir.Cast{Kind: ir.CastSExt, ResultType: vecTy}); err != nil {
		t.Fatalf("discoverCast: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	trueCh, ok := findConstantHandle(mod, i32, ir.ScalarConst{Bits: uint64(0xFFFFFFFF), Kind: ir.ScalarSint})
	if !ok {
		t.Fatalf("expected the scalar all-bits-set constant to be registered")
	}
	components := []ir.ConstantHandle{trueCh, trueCh, trueCh, trueCh}
	if _, err := lookupCompositeConstant(mod, tables, vecTy, components); err != nil {
		t.Errorf("expected a splatted <4xi32> true-constant to be registered: %v", err)
	}
}

func TestDiscoverPackedByteOpRegistersShiftAndMaskConstants(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	byteVecTy := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: ir.ScalarType{Kind: ir.ScalarUint, Width: 1}})

	vVec := ir.ValueHandle(0)
	vIdx := ir.ValueHandle(1)
	fn := &ir.Function{
		Arguments: []ir.FunctionArgument{
			{Name: "v", Type: byteVecTy, Ordinal: 0},
			{Name: "i", Type: mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4}), Ordinal: 1},
		},
		Values: []ir.ValueDef{
			{Kind: ir.ValueArgument, Index: 0},
			{Kind: ir.ValueArgument, Index: 1},
		},
	}

	if err := d.discoverInstruction(fn, ir.Instruction{Op: ir.ExtractElement{Vector: vVec, Index: vIdx}}); err != nil {
		t.Fatalf("discoverInstruction(ExtractElement): %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	if _, err := lookupU32Constant(mod, tables, 8); err != nil {
		t.Errorf("expected the shift-amount-scale constant 8 to be registered: %v", err)
	}
	if _, err := lookupU32Constant(mod, tables, 0xFF); err != nil {
		t.Errorf("expected the byte mask constant 0xFF to be registered: %v", err)
	}
}

func TestDiscoverPackedByteOpSkipsNonByteVectors(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	floatVecTy := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})

	vVec := ir.ValueHandle(0)
	vIdx := ir.ValueHandle(1)
	fn := &ir.Function{
		Arguments: []ir.FunctionArgument{
			{Name: "v", Type: floatVecTy, Ordinal: 0},
			{Name: "i", Type: mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4}), Ordinal: 1},
		},
		Values: []ir.ValueDef{
			{Kind: ir.ValueArgument, Index: 0},
			{Kind: ir.ValueArgument, Index: 1},
		},
	}

	if err := d.discoverInstruction(fn, ir.Instruction{Op: ir.ExtractElement{Vector: vVec, Index: vIdx}}); err != nil {
		t.Fatalf("discoverInstruction(ExtractElement): %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	if _, err := lookupU32Constant(mod, tables, 8); err == nil {
		t.Error("a float4 extract should not register the packed-byte shift constant")
	}
}

func TestDiscoverCastTruncRegistersMaskConstant(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})

	if err := d.discoverCast(ir.Cast{Kind: ir.CastTrunc, ResultType: i32}); err != nil {
		t.Fatalf("discoverCast: %v", err)
	}
	emitDiscoveredConstants(t, mod, tables)

	if _, err := lookupU32Constant(mod, tables, 0xFF); err != nil {
		t.Errorf("expected the 0xFF mask constant to be registered: %v", err)
	}
}

func TestDiscoverTerminatorRejectsSwitch(t *testing.T) {
	_, _, d := newDiscovererForTest()
	if err := d.discoverTerminator(ir.Switch{Selector: 0, Default: 0}); err == nil {
		t.Error("expected an error for a switch terminator")
	}
}

func TestDiscoverTerminatorRejectsIndirectBr(t *testing.T) {
	_, _, d := newDiscovererForTest()
	if err := d.discoverTerminator(ir.IndirectBr{}); err == nil {
		t.Error("expected an error for an indirect branch terminator")
	}
}

func TestDiscoverTerminatorAcceptsRetAndBr(t *testing.T) {
	_, _, d := newDiscovererForTest()
	if err := d.discoverTerminator(ir.Ret{}); err != nil {
		t.Errorf("Ret should be accepted, got: %v", err)
	}
	if err := d.discoverTerminator(ir.Br{Target: 0}); err != nil {
		t.Errorf("Br should be accepted, got: %v", err)
	}
}

func TestInternTypeRecursesIntoArrayElementAndLengthType(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	arrTy := mod.Types.Intern("", ir.ArrayType{Elem: floatTy, Size: ir.ArraySize{}})

	d.internType(arrTy)

	if _, ok := tables.TypeID[floatTy]; !ok {
		t.Error("expected the array's element type to be interned")
	}
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	if _, ok := tables.TypeID[i32]; !ok {
		t.Error("expected the array's implicit i32 length type to be interned")
	}
}

func TestInternTypeSetsUsesInt8ForByteWidthScalars(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	charTy := mod.Types.Intern("char", ir.ScalarType{Kind: ir.ScalarSint, Width: 1})

	d.internType(charTy)

	if !tables.UsesInt8 {
		t.Error("expected UsesInt8 to be set after interning a 1-byte scalar")
	}
}

func TestInternTypeSetsUsesFloat64ForDoubleWidthFloat(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	doubleTy := mod.Types.Intern("double", ir.ScalarType{Kind: ir.ScalarFloat, Width: 8})

	d.internType(doubleTy)

	if !tables.UsesFloat64 {
		t.Error("expected UsesFloat64 to be set after interning an 8-byte float")
	}
	if tables.UsesInt64 {
		t.Error("an 8-byte float should not set UsesInt64")
	}
}

func TestSyntheticConstantDedupesByValue(t *testing.T) {
	_, _, d := newDiscovererForTest()
	th := d.mod.Types.Intern("uint", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})

	h1 := d.syntheticConstant(th, ir.ScalarConst{Bits: 7, Kind: ir.ScalarUint})
	h2 := d.syntheticConstant(th, ir.ScalarConst{Bits: 7, Kind: ir.ScalarUint})
	h3 := d.syntheticConstant(th, ir.ScalarConst{Bits: 8, Kind: ir.ScalarUint})

	if h1 != h2 {
		t.Errorf("identical (type, value) pairs should return the same handle, got %d and %d", h1, h2)
	}
	if h1 == h3 {
		t.Error("different values should get distinct handles")
	}
	if len(d.mod.Constants) != 2 {
		t.Errorf("expected 2 distinct constants recorded, got %d", len(d.mod.Constants))
	}
}

func TestDiscoverGlobalTypesRewritesConstantToPrivateInInlineMode(t *testing.T) {
	mod, _, d := newDiscovererForTest()
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	mod.GlobalVariables = []ir.GlobalVariable{
		{Name: "table", Type: i32, Space: ir.SpaceConstant},
	}

	if err := d.discoverGlobalTypes(); err != nil {
		t.Fatalf("discoverGlobalTypes: %v", err)
	}

	if mod.GlobalVariables[0].Space != ir.SpacePrivate {
		t.Errorf("expected inline mode to rewrite the global to SpacePrivate, got %v", mod.GlobalVariables[0].Space)
	}
}

func TestDiscoverGlobalTypesLeavesConstantSpaceInStorageBufferMode(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstantsInStorageBuffer = true
	mod, _, d := newDiscovererForTestOpts(opts)
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	mod.GlobalVariables = []ir.GlobalVariable{
		{Name: "table", Type: i32, Space: ir.SpaceConstant, Data: []byte{1, 2, 3, 4}},
	}

	if err := d.discoverGlobalTypes(); err != nil {
		t.Fatalf("discoverGlobalTypes: %v", err)
	}

	if mod.GlobalVariables[0].Space != ir.SpaceConstant {
		t.Errorf("expected storage-buffer mode to leave the global in SpaceConstant, got %v", mod.GlobalVariables[0].Space)
	}
}

func TestDiscoverGlobalTypesRejectsOversizedStorageBufferConstant(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstantsInStorageBuffer = true
	mod, _, d := newDiscovererForTestOpts(opts)
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	mod.GlobalVariables = []ir.GlobalVariable{
		{Name: "table", Type: i32, Space: ir.SpaceConstant, Data: make([]byte, 65537)},
	}

	if err := d.discoverGlobalTypes(); err == nil {
		t.Error("expected a 65537-byte constant to be rejected over the 64 KiB storage-buffer cap")
	}
}

func TestDiscoverConstantResourcesSynthesizesResourceAndSidecarRecord(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstantsInStorageBuffer = true
	mod, tables, d := newDiscovererForTestOpts(opts)
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	mod.GlobalVariables = []ir.GlobalVariable{
		{Name: "table", Type: i32, Space: ir.SpaceConstant, Data: []byte{0xAA, 0xBB}},
	}

	if err := d.discoverConstantResources(); err != nil {
		t.Fatalf("discoverConstantResources: %v", err)
	}

	if len(tables.ConstGlobals) != 1 {
		t.Fatalf("expected one ConstGlobalResource, got %d", len(tables.ConstGlobals))
	}
	res := tables.ConstGlobals[0]
	if res.Global != 0 {
		t.Errorf("expected the resource to reference GlobalVariableHandle 0, got %d", res.Global)
	}
	if _, ok := tables.ConstGlobalByHandle[0]; !ok {
		t.Error("expected ConstGlobalByHandle to index the new resource")
	}
	if d.args == nil || len(d.args.records) != 1 {
		t.Fatalf("expected one descriptor-map record queued, got %v", d.args)
	}
	rec := d.args.records[0]
	if rec.Kind != RecordConstant {
		t.Errorf("expected a RecordConstant, got kind %d", rec.Kind)
	}
	if string(rec.HexBytes) != "\xAA\xBB" {
		t.Errorf("expected the record's HexBytes to carry the global's raw data, got %v", rec.HexBytes)
	}
}

func TestDiscoverConstantResourcesAvoidsSharedKernelSet(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstantsInStorageBuffer = true
	mod, tables, d := newDiscovererForTestOpts(opts)
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	ptr := mod.Types.Intern("", ir.PointerType{Space: ir.SpaceGlobal, Pointee: i32})
	kernel := &ir.Function{
		Name: "k",
		Kind: ir.FuncKernel,
		Arguments: []ir.FunctionArgument{
			{Name: "y", Type: ptr, Ordinal: 0},
		},
	}
	if err := d.discoverKernelArguments(0, kernel); err != nil {
		t.Fatalf("discoverKernelArguments: %v", err)
	}

	mod.GlobalVariables = []ir.GlobalVariable{
		{Name: "table", Type: i32, Space: ir.SpaceConstant, Data: []byte{1}},
	}
	if err := d.discoverConstantResources(); err != nil {
		t.Fatalf("discoverConstantResources: %v", err)
	}

	if len(tables.KernelArgs) != 1 || tables.KernelArgs[0].DescriptorSet != 0 {
		t.Fatalf("expected the kernel argument to land on the shared set 0")
	}
	if tables.ConstGlobals[0].DescriptorSet == 0 {
		t.Error("expected the constant resource to get its own descriptor set distinct from the kernels' shared set 0")
	}
}

func TestRewriteConstantPointerParamsRewritesToPrivateAndMarksFunction(t *testing.T) {
	mod, tables, d := newDiscovererForTest()
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	constPtr := mod.Types.Intern("", ir.PointerType{Space: ir.SpaceConstant, Pointee: i32})
	fn := &ir.Function{
		Kind: ir.FuncRegular,
		Arguments: []ir.FunctionArgument{
			{Name: "p", Type: constPtr, Ordinal: 0},
		},
	}

	d.rewriteConstantPointerParams(5, fn)

	rewrittenTy, ok := mod.Types.Lookup(fn.Arguments[0].Type)
	if !ok {
		t.Fatalf("rewritten argument type not found")
	}
	ptr, ok := rewrittenTy.Inner.(ir.PointerType)
	if !ok || ptr.Space != ir.SpacePrivate {
		t.Errorf("expected the parameter to be rewritten to a private-space pointer, got %#v", rewrittenTy.Inner)
	}
	if !tables.ConstantPtrFuncType[5] {
		t.Error("expected the function to be marked in Tables.ConstantPtrFuncType")
	}
}

func TestRewriteConstantPointerParamsSkipsInStorageBufferMode(t *testing.T) {
	opts := DefaultOptions()
	opts.ConstantsInStorageBuffer = true
	mod, tables, d := newDiscovererForTestOpts(opts)
	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	constPtr := mod.Types.Intern("", ir.PointerType{Space: ir.SpaceConstant, Pointee: i32})
	fn := &ir.Function{
		Kind: ir.FuncRegular,
		Arguments: []ir.FunctionArgument{
			{Name: "p", Type: constPtr, Ordinal: 0},
		},
	}

	d.rewriteConstantPointerParams(0, fn)

	if fn.Arguments[0].Type != constPtr {
		t.Error("expected storage-buffer mode to leave the parameter's constant-space type untouched")
	}
	if tables.ConstantPtrFuncType[0] {
		t.Error("expected storage-buffer mode not to mark the function in ConstantPtrFuncType")
	}
}
