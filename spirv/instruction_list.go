package spirv

import "encoding/binary"

// ID is a SPIR-V result/type id.
type ID uint32

// Instruction is one fully word-encoded SPIR-V instruction, following
// the <wordCount|opcode> + operands shape every SPIR-V instruction
// shares. Operands are appended pre-encoded (ids, literals, packed
// strings) rather than kept as a typed operand list, matching the
// teacher's writer.go Instruction shape.
type Instruction struct {
	Op      OpCode
	Operand []uint32
}

// NewInstruction starts an instruction with no operands yet.
func NewInstruction(op OpCode) *Instruction {
	return &Instruction{Op: op}
}

// Arg appends a raw operand word (an id, a packed enum, a literal).
func (i *Instruction) Arg(word uint32) *Instruction {
	i.Operand = append(i.Operand, word)
	return i
}

// ArgID appends an id operand.
func (i *Instruction) ArgID(id ID) *Instruction {
	return i.Arg(uint32(id))
}

// ArgString appends a NUL-terminated, word-padded UTF-8 string operand,
// the encoding SPIR-V uses for OpName/OpEntryPoint/OpSource literals.
func (i *Instruction) ArgString(s string) *Instruction {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	for off := 0; off < len(b); off += 4 {
		i.Operand = append(i.Operand, binary.LittleEndian.Uint32(b[off:off+4]))
	}
	return i
}

// wordCount is this instruction's total word length including the
// opening <wordCount|opcode> word.
func (i *Instruction) wordCount() uint32 {
	return uint32(1 + len(i.Operand))
}

func (i *Instruction) encodeInto(out []uint32) []uint32 {
	out = append(out, i.wordCount()<<16|uint32(i.Op))
	out = append(out, i.Operand...)
	return out
}

// InstructionList is an ordered, splice-capable sequence of
// instructions. Plain append suffices for most SPIR-V sections, but
// Deferred Fixup and the Decoration Emitter both need to insert into
// the middle of an already-built function body or type/annotation
// section (spec.md §4.7, §4.8) — something the teacher's ModuleBuilder
// section slices never needed, since naga's backend only ever appends.
type InstructionList struct {
	items []*Instruction
}

// Append adds inst at the end of the list and returns it for chaining
// Arg calls at the call site.
func (l *InstructionList) Append(inst *Instruction) *Instruction {
	l.items = append(l.items, inst)
	return inst
}

// Len reports the number of instructions currently in the list.
func (l *InstructionList) Len() int { return len(l.items) }

// At returns the instruction at position i.
func (l *InstructionList) At(i int) *Instruction { return l.items[i] }

// InsertAt splices inst into the list immediately before position i,
// shifting everything from i onward. i == Len() appends.
func (l *InstructionList) InsertAt(i int, inst *Instruction) {
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = inst
}

// Words returns the word-encoded form of every instruction in order.
func (l *InstructionList) Words() []uint32 {
	var out []uint32
	for _, inst := range l.items {
		out = inst.encodeInto(out)
	}
	return out
}

// WordCount returns the total word length of the list without
// allocating the encoded form.
func (l *InstructionList) WordCount() int {
	n := 0
	for _, inst := range l.items {
		n += int(inst.wordCount())
	}
	return n
}
