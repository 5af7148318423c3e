package spirv

import (
	"testing"

	"github.com/clspv-go/clspv/ir"
)

func TestIDAllocatorStartsAtOneAndIsMonotonic(t *testing.T) {
	a := NewIDAllocator()
	first := a.Reserve()
	second := a.Reserve()

	if first != 1 {
		t.Errorf("first reserved id = %d, want 1 (id 0 never names a result)", first)
	}
	if second != 2 {
		t.Errorf("second reserved id = %d, want 2", second)
	}
	if got := a.Bound(); got != 3 {
		t.Errorf("Bound() = %d, want 3 (one past the last id handed out)", got)
	}
}

func TestTablesInternTypeDedupes(t *testing.T) {
	tabs := NewTables()

	if !tabs.InternType(5) {
		t.Error("first InternType(5) should report a new sighting")
	}
	if tabs.InternType(5) {
		t.Error("second InternType(5) should report no new sighting")
	}
	if len(tabs.TypeOrder) != 1 {
		t.Errorf("TypeOrder has %d entries, want 1", len(tabs.TypeOrder))
	}
}

func TestTablesLookupTypeFailsBeforeEmission(t *testing.T) {
	tabs := NewTables()
	tabs.InternType(5)

	if _, err := tabs.LookupType(5); err == nil {
		t.Error("expected LookupType to fail before the Type Emitter assigns a real id")
	}

	tabs.TypeID[5] = 42
	id, err := tabs.LookupType(5)
	if err != nil {
		t.Fatalf("LookupType returned an error after assignment: %v", err)
	}
	if id != 42 {
		t.Errorf("LookupType = %d, want 42", id)
	}
}

func TestTablesLookupConstantUnknownFails(t *testing.T) {
	tabs := NewTables()
	if _, err := tabs.LookupConstant(99); err == nil {
		t.Error("expected LookupConstant to fail for a never-interned handle")
	}
}

func TestTablesLookupValueUndefinedFails(t *testing.T) {
	tabs := NewTables()
	if _, err := tabs.LookupValue(ir.ValueHandle(7)); err == nil {
		t.Error("expected LookupValue to fail for a value no instruction has defined")
	}

	tabs.ValueID[ir.ValueHandle(7)] = 3
	id, err := tabs.LookupValue(ir.ValueHandle(7))
	if err != nil {
		t.Fatalf("LookupValue returned an error after assignment: %v", err)
	}
	if id != 3 {
		t.Errorf("LookupValue = %d, want 3", id)
	}
}

func TestTablesInternConstantPreservesOrder(t *testing.T) {
	tabs := NewTables()
	tabs.InternConstant(3)
	tabs.InternConstant(1)
	tabs.InternConstant(2)

	want := []ir.ConstantHandle{3, 1, 2}
	if len(tabs.ConstantOrder) != len(want) {
		t.Fatalf("ConstantOrder has %d entries, want %d", len(tabs.ConstantOrder), len(want))
	}
	for i, h := range want {
		if tabs.ConstantOrder[i] != h {
			t.Errorf("ConstantOrder[%d] = %v, want %v", i, tabs.ConstantOrder[i], h)
		}
	}
}
