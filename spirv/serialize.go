package spirv

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Module is the fully lowered, fixed-up, decorated instruction stream
// ready to serialize (spec.md §4.9).
type Module struct {
	Version Version
	Bound   uint32
	List    *InstructionList
}

// Serialize streams the module as a SPIR-V binary: a 5-word header
// (magic, version, generator, bound, schema) followed by every
// instruction's word encoding, little-endian (spec.md §6 "Primary
// output (binary mode)").
func (m *Module) Serialize() []uint32 {
	words := make([]uint32, 0, 5+m.List.WordCount())
	words = append(words,
		uint32(MagicNumber),
		versionWord(m.Version),
		uint32(GeneratorID),
		m.Bound,
		uint32(SchemaWord),
	)
	words = append(words, m.List.Words()...)
	return words
}

// SerializeBinary returns the little-endian byte encoding of
// Serialize's word stream.
func (m *Module) SerializeBinary() []byte {
	words := m.Serialize()
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func versionWord(v Version) uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

// WrapC rewrites a binary blob as a comma-separated C initializer
// list, the optional wrapping mode spec.md §4.9/§6 names.
func WrapC(binaryWords []uint32) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, w := range binaryWords {
		fmt.Fprintf(&b, "0x%08x,", w)
		if (i+1)%8 == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("\n}\n")
	return b.String()
}

// opcodeNames backs the assembly emitter's symbolic names; entries not
// present fall back to a numeric %op<N> placeholder.
var opcodeNames = map[OpCode]string{
	OpNop: "OpNop", OpUndef: "OpUndef", OpSource: "OpSource", OpExtension: "OpExtension",
	OpName: "OpName", OpMemberName: "OpMemberName", OpExtInstImport: "OpExtInstImport",
	OpExtInst: "OpExtInst", OpMemoryModel: "OpMemoryModel", OpEntryPoint: "OpEntryPoint",
	OpExecutionMode: "OpExecutionMode", OpCapability: "OpCapability",
	OpTypeVoid: "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector", OpTypeImage: "OpTypeImage",
	OpTypeSampler: "OpTypeSampler", OpTypeSampledImage: "OpTypeSampledImage",
	OpTypeArray: "OpTypeArray", OpTypeRuntimeArray: "OpTypeRuntimeArray",
	OpTypeStruct: "OpTypeStruct", OpTypePointer: "OpTypePointer", OpTypeFunction: "OpTypeFunction",
	OpConstantTrue: "OpConstantTrue", OpConstantFalse: "OpConstantFalse", OpConstant: "OpConstant",
	OpConstantComposite: "OpConstantComposite", OpConstantNull: "OpConstantNull",
	OpFunction: "OpFunction", OpFunctionParameter: "OpFunctionParameter",
	OpFunctionEnd: "OpFunctionEnd", OpFunctionCall: "OpFunctionCall",
	OpVariable: "OpVariable", OpLoad: "OpLoad", OpStore: "OpStore",
	OpAccessChain: "OpAccessChain", OpPtrAccessChain: "OpPtrAccessChain",
	OpDecorate: "OpDecorate", OpMemberDecorate: "OpMemberDecorate",
	OpCompositeConstruct: "OpCompositeConstruct", OpCompositeExtract: "OpCompositeExtract",
	OpCompositeInsert: "OpCompositeInsert", OpSampledImage: "OpSampledImage",
	OpImageSampleExplicitLod: "OpImageSampleExplicitLod", OpImageRead: "OpImageRead",
	OpImageWrite: "OpImageWrite", OpImageQuerySize: "OpImageQuerySize",
	OpIAdd: "OpIAdd", OpFAdd: "OpFAdd", OpISub: "OpISub", OpFSub: "OpFSub",
	OpIMul: "OpIMul", OpFMul: "OpFMul", OpSelect: "OpSelect", OpPhi: "OpPhi",
	OpLoopMerge: "OpLoopMerge", OpSelectionMerge: "OpSelectionMerge",
	OpLabel: "OpLabel", OpBranch: "OpBranch", OpBranchConditional: "OpBranchConditional",
	OpReturn: "OpReturn", OpReturnValue: "OpReturnValue", OpUnreachable: "OpUnreachable",
}

// Disassemble writes a textual assembly listing: the header as
// comments, then each instruction with symbolic opcode names and
// "%<decimal>" result ids (spec.md §6 "Primary output (assembly
// mode)").
func (m *Module) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; Magic:     0x%08x\n", MagicNumber)
	fmt.Fprintf(&b, "; Version:   0x%08x\n", versionWord(m.Version))
	fmt.Fprintf(&b, "; Generator: 0x%08x\n", GeneratorID)
	fmt.Fprintf(&b, "; Bound:     %d\n", m.Bound)
	fmt.Fprintf(&b, "; Schema:    %d\n", SchemaWord)

	for i := 0; i < m.List.Len(); i++ {
		inst := m.List.At(i)
		name, ok := opcodeNames[inst.Op]
		if !ok {
			name = fmt.Sprintf("%%op%d", inst.Op)
		}
		fmt.Fprintf(&b, "%s", name)
		for _, w := range inst.Operand {
			fmt.Fprintf(&b, " %%%d", w)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
