package spirv

import (
	"testing"

	"github.com/clspv-go/clspv/ir"
)

func newConstantEmitterForTest(opts Options) (*ir.Module, *Tables, *InstructionList, *constantEmitter) {
	mod := &ir.Module{Types: ir.NewTypeRegistry()}
	tables := NewTables()
	list := &InstructionList{}
	// Types go to a list of their own, so list holds only what the
	// constant emitter itself appends.
	types := newTypeEmitter(mod, tables, &InstructionList{})
	return mod, tables, list, newConstantEmitter(mod, opts, tables, types, list)
}

func TestEmitScalarZeroI32RecordsScalarZeroI32(t *testing.T) {
	mod, tables, _, e := newConstantEmitterForTest(DefaultOptions())

	i32 := mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
	mod.Constants = []ir.Constant{{Type: i32, Value: ir.ScalarConst{Bits: 0, Kind: ir.ScalarSint}}}
	ch := ir.ConstantHandle(0)
	tables.InternConstant(ch)

	if err := e.emit(ch); err != nil {
		t.Fatalf("emit: %v", err)
	}

	id, err := tables.LookupConstant(ch)
	if err != nil {
		t.Fatalf("LookupConstant: %v", err)
	}
	if tables.ScalarZeroI32 != id {
		t.Errorf("ScalarZeroI32 = %d, want %d (the emitted zero constant's id)", tables.ScalarZeroI32, id)
	}
}

func TestEmitScalarFloatZeroDoesNotRecordScalarZeroI32(t *testing.T) {
	mod, tables, _, e := newConstantEmitterForTest(DefaultOptions())

	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	mod.Constants = []ir.Constant{{Type: floatTy, Value: ir.ScalarConst{Bits: 0, Kind: ir.ScalarFloat}}}
	ch := ir.ConstantHandle(0)
	tables.InternConstant(ch)

	if err := e.emit(ch); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if tables.ScalarZeroI32 != 0 {
		t.Errorf("ScalarZeroI32 = %d, want 0 (a float zero is not the i32-zero alias)", tables.ScalarZeroI32)
	}
}

func TestEmitScalarBoolEmitsConstantTrueOrFalse(t *testing.T) {
	mod, tables, list, e := newConstantEmitterForTest(DefaultOptions())

	boolTy := mod.Types.Intern("bool", ir.ScalarType{Kind: ir.ScalarBool})
	mod.Constants = []ir.Constant{
		{Type: boolTy, Value: ir.ScalarConst{Bits: 1, Kind: ir.ScalarBool}},
		{Type: boolTy, Value: ir.ScalarConst{Bits: 0, Kind: ir.ScalarBool}},
	}
	tables.InternConstant(0)
	tables.InternConstant(1)

	if err := e.emit(0); err != nil {
		t.Fatalf("emit(true): %v", err)
	}
	if err := e.emit(1); err != nil {
		t.Fatalf("emit(false): %v", err)
	}

	var sawTrue, sawFalse bool
	for i := 0; i < list.Len(); i++ {
		switch list.At(i).Op {
		case OpConstantTrue:
			sawTrue = true
		case OpConstantFalse:
			sawFalse = true
		}
	}
	if !sawTrue {
		t.Error("expected an OpConstantTrue instruction")
	}
	if !sawFalse {
		t.Error("expected an OpConstantFalse instruction")
	}
}

func TestEmitCompositePacksFourByteVectorIntoSingleI32Constant(t *testing.T) {
	mod, tables, list, e := newConstantEmitterForTest(DefaultOptions())

	i8 := ir.ScalarType{Kind: ir.ScalarUint, Width: 1}
	i8Handle := mod.Types.Intern("uchar", i8)
	vecTy := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: i8})

	mod.Constants = []ir.Constant{
		{Type: i8Handle, Value: ir.ScalarConst{Bits: 0x11, Kind: ir.ScalarUint}},
		{Type: i8Handle, Value: ir.ScalarConst{Bits: 0x22, Kind: ir.ScalarUint}},
		{Type: i8Handle, Value: ir.ScalarConst{Bits: 0x33, Kind: ir.ScalarUint}},
		{Type: i8Handle, Value: ir.ScalarConst{Bits: 0x44, Kind: ir.ScalarUint}},
	}
	mod.Constants = append(mod.Constants, ir.Constant{
		Type:  vecTy,
		Value: ir.CompositeConst{Components: []ir.ConstantHandle{0, 1, 2, 3}},
	})
	vecHandle := ir.ConstantHandle(4)
	tables.InternConstant(vecHandle)

	if err := e.emit(vecHandle); err != nil {
		t.Fatalf("emit(composite): %v", err)
	}

	var packed uint32
	found := false
	for i := 0; i < list.Len(); i++ {
		inst := list.At(i)
		if inst.Op == OpConstant && len(inst.Operand) == 3 {
			packed = inst.Operand[2]
			found = true
		}
		if inst.Op == OpConstantComposite {
			t.Error("expected no OpConstantComposite for a <4xi8> pattern, should fold to OpConstant")
		}
	}
	if !found {
		t.Fatal("expected a packed OpConstant for the <4xi8> composite")
	}
	if want := uint32(0x11223344); packed != want {
		t.Errorf("packed constant = 0x%08x, want 0x%08x", packed, want)
	}
}

func TestEmitCompositeReusesPackedIDForRepeatedPattern(t *testing.T) {
	mod, tables, _, e := newConstantEmitterForTest(DefaultOptions())

	i8 := ir.ScalarType{Kind: ir.ScalarUint, Width: 1}
	i8Handle := mod.Types.Intern("uchar", i8)
	vecTy := mod.Types.Intern("", ir.VectorType{Size: ir.Vec4, Elem: i8})

	mod.Constants = []ir.Constant{
		{Type: i8Handle, Value: ir.ScalarConst{Bits: 0x01, Kind: ir.ScalarUint}},
		{Type: vecTy, Value: ir.CompositeConst{Components: []ir.ConstantHandle{0, 0, 0, 0}}},
		{Type: vecTy, Value: ir.CompositeConst{Components: []ir.ConstantHandle{0, 0, 0, 0}}},
	}
	tables.InternConstant(1)
	tables.InternConstant(2)

	if err := e.emit(1); err != nil {
		t.Fatalf("emit(first composite): %v", err)
	}
	if err := e.emit(2); err != nil {
		t.Fatalf("emit(second composite): %v", err)
	}

	id1, _ := tables.LookupConstant(1)
	id2, _ := tables.LookupConstant(2)
	if id1 != id2 {
		t.Errorf("expected identical packed patterns to reuse the same id, got %d and %d", id1, id2)
	}
}

func TestEmitUndefHonorsHackUndefForNumericTypes(t *testing.T) {
	mod, tables, list, e := newConstantEmitterForTest(Options{HackUndef: true})

	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	mod.Constants = []ir.Constant{{Type: floatTy, Value: ir.UndefConst{}}}
	tables.InternConstant(0)

	if err := e.emit(0); err != nil {
		t.Fatalf("emit(undef): %v", err)
	}

	if list.Len() != 1 || list.At(0).Op != OpConstantNull {
		t.Errorf("expected a single OpConstantNull with HackUndef set, got %d instructions", list.Len())
	}
}

func TestEmitUndefWithoutHackEmitsOpUndef(t *testing.T) {
	mod, tables, list, e := newConstantEmitterForTest(DefaultOptions())

	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	mod.Constants = []ir.Constant{{Type: floatTy, Value: ir.UndefConst{}}}
	tables.InternConstant(0)

	if err := e.emit(0); err != nil {
		t.Fatalf("emit(undef): %v", err)
	}

	if list.Len() != 1 || list.At(0).Op != OpUndef {
		t.Errorf("expected a single OpUndef without HackUndef, got %d instructions", list.Len())
	}
}
