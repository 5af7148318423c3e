package spirv

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestSerializeHeaderWords(t *testing.T) {
	list := &InstructionList{}
	list.Append(NewInstruction(OpReturn))
	mod := &Module{Version: Version1_0, Bound: 5, List: list}

	words := mod.Serialize()
	if len(words) < 5 {
		t.Fatalf("expected at least 5 header words, got %d", len(words))
	}
	if words[0] != uint32(MagicNumber) {
		t.Errorf("words[0] (magic) = 0x%08x, want 0x%08x", words[0], uint32(MagicNumber))
	}
	if words[1] != versionWord(Version1_0) {
		t.Errorf("words[1] (version) = 0x%08x, want 0x%08x", words[1], versionWord(Version1_0))
	}
	if words[2] != uint32(GeneratorID) {
		t.Errorf("words[2] (generator) = 0x%08x, want 0x%08x", words[2], uint32(GeneratorID))
	}
	if words[3] != 5 {
		t.Errorf("words[3] (bound) = %d, want 5", words[3])
	}
	if words[4] != uint32(SchemaWord) {
		t.Errorf("words[4] (schema) = %d, want %d", words[4], uint32(SchemaWord))
	}
}

func TestVersionWordPacksMajorMinor(t *testing.T) {
	v := Version{Major: 1, Minor: 3}
	got := versionWord(v)
	want := uint32(1)<<16 | uint32(3)<<8
	if got != want {
		t.Errorf("versionWord(%v) = 0x%08x, want 0x%08x", v, got, want)
	}
}

func TestSerializeBinaryIsLittleEndianOfSerialize(t *testing.T) {
	list := &InstructionList{}
	list.Append(NewInstruction(OpReturn))
	mod := &Module{Version: Version1_0, Bound: 1, List: list}

	words := mod.Serialize()
	bin := mod.SerializeBinary()

	if len(bin) != 4*len(words) {
		t.Fatalf("binary length %d, want %d", len(bin), 4*len(words))
	}
	for i, w := range words {
		got := binary.LittleEndian.Uint32(bin[i*4:])
		if got != w {
			t.Errorf("word %d: binary decodes to 0x%08x, want 0x%08x", i, got, w)
		}
	}
}

func TestWrapCWrapsAsCommaSeparatedHex(t *testing.T) {
	out := WrapC([]uint32{0x07230203, 0x00010000})

	if !strings.HasPrefix(out, "{\n") {
		t.Errorf("expected output to start with '{\\n', got %q", out)
	}
	if !strings.HasSuffix(out, "\n}\n") {
		t.Errorf("expected output to end with '\\n}\\n', got %q", out)
	}
	if !strings.Contains(out, "0x07230203,") {
		t.Errorf("expected 0x07230203, to appear, got %q", out)
	}
}

func TestDisassembleIncludesHeaderCommentsAndOpcodeNames(t *testing.T) {
	list := &InstructionList{}
	list.Append(NewInstruction(OpReturn))
	mod := &Module{Version: Version1_0, Bound: 1, List: list}

	out := mod.Disassemble()
	if !strings.Contains(out, "; Magic:") {
		t.Error("expected a Magic header comment")
	}
	if !strings.Contains(out, "; Bound:     1") {
		t.Error("expected the bound to appear in the header")
	}
	if !strings.Contains(out, "OpReturn") {
		t.Error("expected OpReturn to appear in the listing")
	}
}

func TestDisassembleFallsBackToNumericNameForUnknownOpcode(t *testing.T) {
	list := &InstructionList{}
	unknown := OpCode(9999)
	list.Append(NewInstruction(unknown).ArgID(1))
	mod := &Module{Version: Version1_0, Bound: 2, List: list}

	out := mod.Disassemble()
	if !strings.Contains(out, "%op9999") {
		t.Errorf("expected a numeric fallback name for an unrecognized opcode, got:\n%s", out)
	}
}

func TestDisassembleFormatsOperandsAsPercentIDs(t *testing.T) {
	list := &InstructionList{}
	list.Append(NewInstruction(OpReturnValue).ArgID(42))
	mod := &Module{Version: Version1_0, Bound: 43, List: list}

	out := mod.Disassemble()
	if !strings.Contains(out, "OpReturnValue %42") {
		t.Errorf("expected 'OpReturnValue %%42', got:\n%s", out)
	}
}
