package spirv

import (
	"testing"

	"github.com/clspv-go/clspv/ir"
)

func newTypeEmitterForTest() (*ir.Module, *Tables, *InstructionList, *typeEmitter) {
	mod := &ir.Module{Types: ir.NewTypeRegistry()}
	tables := NewTables()
	list := &InstructionList{}
	return mod, tables, list, newTypeEmitter(mod, tables, list)
}

func TestEmitScalarI8AliasesToI32(t *testing.T) {
	mod, _, list, e := newTypeEmitterForTest()

	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	i8 := mod.Types.Intern("char", ir.ScalarType{Kind: ir.ScalarSint, Width: 1})

	id32, err := e.emit(i32)
	if err != nil {
		t.Fatalf("emit(i32): %v", err)
	}
	id8, err := e.emit(i8)
	if err != nil {
		t.Fatalf("emit(i8): %v", err)
	}

	if id32 != id8 {
		t.Errorf("i8 id = %d, i32 id = %d, want equal (i8 aliases to i32)", id8, id32)
	}
	if list.Len() != 1 {
		t.Errorf("expected only one OpTypeInt emitted for the alias pair, got %d instructions", list.Len())
	}
}

func TestEmitVectorFourByteAliasesToI32(t *testing.T) {
	mod, _, list, e := newTypeEmitterForTest()

	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	id32, err := e.emit(i32)
	if err != nil {
		t.Fatalf("emit(i32): %v", err)
	}

	vec := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: ir.ScalarType{Kind: ir.ScalarUint, Width: 1}})
	idVec, err := e.emit(vec)
	if err != nil {
		t.Fatalf("emit(<4xi8>): %v", err)
	}

	if idVec != id32 {
		t.Errorf("<4xi8> id = %d, i32 id = %d, want equal", idVec, id32)
	}
	if list.Len() != 1 {
		t.Errorf("expected no OpTypeVector emitted for the <4xi8> alias, got %d instructions", list.Len())
	}
}

func TestEmitVectorNonAliasedEmitsOpTypeVector(t *testing.T) {
	mod, _, list, e := newTypeEmitterForTest()

	vec := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})
	if _, err := e.emit(vec); err != nil {
		t.Fatalf("emit(<4xfloat>): %v", err)
	}

	found := false
	for i := 0; i < list.Len(); i++ {
		if list.At(i).Op == OpTypeVector {
			found = true
		}
	}
	if !found {
		t.Error("expected an OpTypeVector instruction for a float vector")
	}
}

func TestEmitArrayFixedSizeEmitsLengthConstant(t *testing.T) {
	mod, _, list, e := newTypeEmitterForTest()

	elem := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	n := uint32(16)
	arr := mod.Types.Intern("", ir.ArrayType{Elem: elem, Size: ir.ArraySize{Constant: &n}})

	id, err := e.emit(arr)
	if err != nil {
		t.Fatalf("emit(array): %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero array type id")
	}

	var sawConst, sawArrayType bool
	var constLen uint32
	for i := 0; i < list.Len(); i++ {
		inst := list.At(i)
		if inst.Op == OpConstant {
			sawConst = true
			constLen = inst.Operand[2]
		}
		if inst.Op == OpTypeArray {
			sawArrayType = true
		}
	}
	if !sawConst {
		t.Error("expected an OpConstant for the array length")
	}
	if constLen != n {
		t.Errorf("array length constant = %d, want %d", constLen, n)
	}
	if !sawArrayType {
		t.Error("expected an OpTypeArray instruction")
	}
}

func TestEmitArrayRuntimeSizedEmitsRuntimeArray(t *testing.T) {
	mod, tables, list, e := newTypeEmitterForTest()

	elem := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	arr := mod.Types.Intern("", ir.ArrayType{Elem: elem, Size: ir.ArraySize{}})

	id, err := e.emit(arr)
	if err != nil {
		t.Fatalf("emit(runtime array): %v", err)
	}

	var sawRuntimeArray bool
	for i := 0; i < list.Len(); i++ {
		if list.At(i).Op == OpTypeRuntimeArray {
			sawRuntimeArray = true
		}
	}
	if !sawRuntimeArray {
		t.Error("expected an OpTypeRuntimeArray instruction for an unsized array")
	}
	if _, ok := tables.NeedsArrayStride[id]; !ok {
		t.Error("expected the runtime array id to be recorded for an ArrayStride decoration")
	}
}

func TestEmitPointerCanonicalizesGlobalAndConstantSpaces(t *testing.T) {
	mod, _, _, e := newTypeEmitterForTest()

	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	globalPtr := mod.Types.Intern("", ir.PointerType{Pointee: floatTy, Space: ir.SpaceGlobal})
	constPtr := mod.Types.Intern("", ir.PointerType{Pointee: floatTy, Space: ir.SpaceConstant})

	idGlobal, err := e.emit(globalPtr)
	if err != nil {
		t.Fatalf("emit(global ptr): %v", err)
	}
	idConst, err := e.emit(constPtr)
	if err != nil {
		t.Fatalf("emit(constant ptr): %v", err)
	}

	if idGlobal != idConst {
		t.Errorf("global ptr id = %d, constant ptr id = %d, want equal (both map to StorageBuffer)", idGlobal, idConst)
	}
}

func TestEmitRawPointerCachesByClassAndPointee(t *testing.T) {
	_, _, list, e := newTypeEmitterForTest()

	id1 := e.emitRawPointer(StorageClassUniform, 7)
	id2 := e.emitRawPointer(StorageClassUniform, 7)
	id3 := e.emitRawPointer(StorageClassWorkgroup, 7)

	if id1 != id2 {
		t.Errorf("expected the same (class, pointee) pair to reuse the same pointer type id, got %d and %d", id1, id2)
	}
	if id1 == id3 {
		t.Errorf("expected a different storage class to mint a new pointer type id, got %d for both", id1)
	}
	if list.Len() != 2 {
		t.Errorf("expected exactly 2 OpTypePointer instructions, got %d", list.Len())
	}
}
