package spirv

// Version is a SPIR-V version number.
type Version struct {
	Major uint8
	Minor uint8
}

// Version1_0 is the only version Vulkan 1.0 compute pipelines require.
var Version1_0 = Version{1, 0}

// MagicNumber and GeneratorID are the fixed SPIR-V module header words
// this tool emits (spec.md §6).
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00030000
	SchemaWord  = 0
)

// OpCode is a SPIR-V instruction opcode.
type OpCode uint16

// Opcodes used by this lowering pass. Numeric values follow the
// Khronos SPIR-V specification.
const (
	OpNop                            OpCode = 0
	OpUndef                          OpCode = 1
	OpSource                         OpCode = 3
	OpExtension                      OpCode = 10
	OpName                           OpCode = 5
	OpMemberName                     OpCode = 6
	OpExtInstImport                  OpCode = 11
	OpExtInst                        OpCode = 12
	OpMemoryModel                    OpCode = 14
	OpEntryPoint                     OpCode = 15
	OpExecutionMode                  OpCode = 16
	OpCapability                     OpCode = 17
	OpTypeVoid                       OpCode = 19
	OpTypeBool                       OpCode = 20
	OpTypeInt                        OpCode = 21
	OpTypeFloat                      OpCode = 22
	OpTypeVector                     OpCode = 23
	OpTypeImage                      OpCode = 25
	OpTypeSampler                    OpCode = 26
	OpTypeSampledImage               OpCode = 27
	OpTypeArray                      OpCode = 28
	OpTypeRuntimeArray               OpCode = 29
	OpTypeStruct                     OpCode = 30
	OpTypePointer                    OpCode = 32
	OpTypeFunction                   OpCode = 33
	OpConstantTrue                   OpCode = 41
	OpConstantFalse                  OpCode = 42
	OpConstant                       OpCode = 43
	OpConstantComposite              OpCode = 44
	OpConstantNull                   OpCode = 46
	OpSpecConstantTrue               OpCode = 48
	OpSpecConstantFalse              OpCode = 49
	OpSpecConstant                   OpCode = 50
	OpSpecConstantComposite          OpCode = 51
	OpFunction                       OpCode = 54
	OpFunctionParameter              OpCode = 55
	OpFunctionEnd                    OpCode = 56
	OpFunctionCall                   OpCode = 57
	OpVariable                       OpCode = 59
	OpLoad                           OpCode = 61
	OpStore                         OpCode = 62
	OpAccessChain                    OpCode = 65
	OpPtrAccessChain                 OpCode = 67
	OpDecorate                       OpCode = 71
	OpMemberDecorate                 OpCode = 72
	OpVectorShuffle                  OpCode = 79
	OpCompositeConstruct             OpCode = 80
	OpCompositeExtract               OpCode = 81
	OpCompositeInsert                OpCode = 82
	OpSampledImage                   OpCode = 86
	OpImageSampleExplicitLod         OpCode = 88
	OpImageRead                      OpCode = 98
	OpImageWrite                     OpCode = 99
	OpImageQuerySize                 OpCode = 104
	OpConvertFToU                    OpCode = 109
	OpConvertFToS                    OpCode = 110
	OpConvertSToF                    OpCode = 111
	OpConvertUToF                    OpCode = 112
	OpUConvert                       OpCode = 113
	OpSConvert                       OpCode = 114
	OpFConvert                       OpCode = 115
	OpBitcast                        OpCode = 124
	OpSNegate                        OpCode = 126
	OpFNegate                        OpCode = 127
	OpIAdd                           OpCode = 128
	OpFAdd                           OpCode = 129
	OpISub                           OpCode = 130
	OpFSub                           OpCode = 131
	OpIMul                           OpCode = 132
	OpFMul                           OpCode = 133
	OpUDiv                           OpCode = 134
	OpSDiv                           OpCode = 135
	OpFDiv                           OpCode = 136
	OpUMod                           OpCode = 137
	OpSRem                           OpCode = 138
	OpSMod                           OpCode = 139
	OpFRem                           OpCode = 140
	OpFMod                           OpCode = 141
	OpDot                            OpCode = 148
	OpAny                            OpCode = 154
	OpAll                            OpCode = 155
	OpIsNan                          OpCode = 156
	OpIsInf                          OpCode = 157
	OpLogicalEqual                   OpCode = 164
	OpLogicalNotEqual                OpCode = 165
	OpLogicalOr                      OpCode = 166
	OpLogicalAnd                     OpCode = 167
	OpLogicalNot                     OpCode = 168
	OpSelect                         OpCode = 169
	OpIEqual                         OpCode = 170
	OpINotEqual                      OpCode = 171
	OpUGreaterThan                   OpCode = 172
	OpSGreaterThan                   OpCode = 173
	OpUGreaterThanEqual              OpCode = 174
	OpSGreaterThanEqual              OpCode = 175
	OpULessThan                      OpCode = 176
	OpSLessThan                      OpCode = 177
	OpULessThanEqual                 OpCode = 178
	OpSLessThanEqual                 OpCode = 179
	OpFOrdEqual                      OpCode = 180
	OpFUnordEqual                    OpCode = 181
	OpFOrdNotEqual                   OpCode = 182
	OpFUnordNotEqual                 OpCode = 183
	OpFOrdLessThan                   OpCode = 184
	OpFUnordLessThan                 OpCode = 185
	OpFOrdGreaterThan                OpCode = 186
	OpFUnordGreaterThan              OpCode = 187
	OpFOrdLessThanEqual              OpCode = 188
	OpFUnordLessThanEqual            OpCode = 189
	OpFOrdGreaterThanEqual           OpCode = 190
	OpFUnordGreaterThanEqual         OpCode = 191
	OpShiftRightLogical              OpCode = 194
	OpShiftRightArithmetic           OpCode = 195
	OpShiftLeftLogical               OpCode = 196
	OpBitwiseOr                      OpCode = 197
	OpBitwiseXor                     OpCode = 198
	OpBitwiseAnd                     OpCode = 199
	OpNot                            OpCode = 200
	OpBitCount                       OpCode = 205
	OpControlBarrier                 OpCode = 224
	OpMemoryBarrier                  OpCode = 225
	OpAtomicExchange                 OpCode = 229
	OpAtomicIIncrement               OpCode = 232
	OpAtomicIDecrement               OpCode = 233
	OpAtomicIAdd                     OpCode = 234
	OpAtomicISub                     OpCode = 235
	OpAtomicUMin                     OpCode = 237
	OpAtomicSMin                     OpCode = 236
	OpAtomicUMax                     OpCode = 239
	OpAtomicSMax                     OpCode = 238
	OpAtomicAnd                      OpCode = 240
	OpAtomicOr                       OpCode = 241
	OpAtomicXor                      OpCode = 242
	OpPhi                            OpCode = 245
	OpLoopMerge                      OpCode = 246
	OpSelectionMerge                 OpCode = 247
	OpLabel                          OpCode = 248
	OpBranch                         OpCode = 249
	OpBranchConditional              OpCode = 250
	OpReturn                         OpCode = 253
	OpReturnValue                    OpCode = 254
	OpUnreachable                    OpCode = 255
)

// Decoration is a SPIR-V OpDecorate/OpMemberDecorate enumerant.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationArrayStride   Decoration = 6
	DecorationBuiltIn       Decoration = 11
	DecorationNonWritable   Decoration = 24
	DecorationNonReadable   Decoration = 25
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
	DecorationSpecId        Decoration = 1
)

// BuiltIn is a SPIR-V BuiltIn enumerant used to decorate Input
// interface variables (e.g. the compute GlobalInvocationId).
type BuiltIn uint32

const (
	BuiltInWorkgroupSize        BuiltIn = 25
	BuiltInWorkgroupId          BuiltIn = 26
	BuiltInLocalInvocationId    BuiltIn = 27
	BuiltInGlobalInvocationId   BuiltIn = 28
	BuiltInLocalInvocationIndex BuiltIn = 29
	BuiltInNumWorkgroups        BuiltIn = 24
)

// StorageClass is a SPIR-V pointer storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassWorkgroup       StorageClass = 4
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassStorageBuffer   StorageClass = 12
)

// Capability is a SPIR-V optional-feature capability.
type Capability uint32

const (
	CapabilityShader                       Capability = 1
	CapabilityInt8                         Capability = 39
	CapabilityInt16                        Capability = 22
	CapabilityInt64                        Capability = 11
	CapabilityFloat16                      Capability = 9
	CapabilityFloat64                      Capability = 10
	CapabilityImageQuery                   Capability = 50
	CapabilityStorageImageWriteWithoutFormat Capability = 56
	CapabilityVariablePointersStorageBuffer Capability = 4441
	CapabilityVariablePointers              Capability = 4442
)

// ExecutionModel names the shader stage of an entry point. This pass
// only ever emits GLCompute (spec.md Non-goals: "supporting non-kernel
// entry points").
type ExecutionModel uint32

const ExecutionModelGLCompute ExecutionModel = 5

// ExecutionMode is a SPIR-V OpExecutionMode enumerant.
type ExecutionMode uint32

const ExecutionModeLocalSize ExecutionMode = 17

// AddressingModel and MemoryModel select OpMemoryModel's operands.
type AddressingModel uint32
type MemoryModel uint32

const (
	AddressingModelLogical AddressingModel = 0
	MemoryModelGLSL450     MemoryModel    = 1
)

// Scope and MemorySemantics parameterize atomics and barriers.
type Scope uint32
type MemorySemantics uint32

const (
	ScopeDevice    Scope = 1
	ScopeWorkgroup Scope = 2

	MemorySemanticsUniformMemory        MemorySemantics = 0x40
	MemorySemanticsWorkgroupMemory      MemorySemantics = 0x100
	MemorySemanticsSequentiallyConsistent MemorySemantics = 0x10
)

// SelectionControl and LoopControl are the (always "None") control
// operands of OpSelectionMerge/OpLoopMerge.
type SelectionControl uint32
type LoopControl uint32

const (
	SelectionControlNone SelectionControl = 0
	LoopControlNone      LoopControl      = 0
)

// FunctionControl is the (always "None") control operand of OpFunction.
type FunctionControl uint32

const FunctionControlNone FunctionControl = 0

// ImageFormat is always Unknown for the images this pass emits
// (spec.md §4.4: "Format=Unknown").
type ImageFormat uint32

const ImageFormatUnknown ImageFormat = 0

// GLSLExtInst is an opcode number within the imported "GLSL.std.450"
// extended instruction set (spec.md §4.2 item 5, §4.6).
type GLSLExtInst uint32

const (
	GLSLRound       GLSLExtInst = 1
	GLSLTrunc       GLSLExtInst = 3
	GLSLFAbs        GLSLExtInst = 4
	GLSLSAbs        GLSLExtInst = 5
	GLSLFSign       GLSLExtInst = 6
	GLSLFloor       GLSLExtInst = 8
	GLSLCeil        GLSLExtInst = 9
	GLSLFract       GLSLExtInst = 10
	GLSLSin         GLSLExtInst = 13
	GLSLCos         GLSLExtInst = 14
	GLSLTan         GLSLExtInst = 15
	GLSLAsin        GLSLExtInst = 16
	GLSLAcos        GLSLExtInst = 17
	GLSLAtan        GLSLExtInst = 18
	GLSLSinh        GLSLExtInst = 19
	GLSLCosh        GLSLExtInst = 20
	GLSLTanh        GLSLExtInst = 21
	GLSLAsinh       GLSLExtInst = 22
	GLSLAcosh       GLSLExtInst = 23
	GLSLAtanh       GLSLExtInst = 24
	GLSLAtan2       GLSLExtInst = 25
	GLSLPow         GLSLExtInst = 26
	GLSLExp         GLSLExtInst = 27
	GLSLLog         GLSLExtInst = 28
	GLSLExp2        GLSLExtInst = 29
	GLSLLog2        GLSLExtInst = 30
	GLSLSqrt        GLSLExtInst = 31
	GLSLInverseSqrt GLSLExtInst = 32
	GLSLFMin        GLSLExtInst = 37
	GLSLUMin        GLSLExtInst = 38
	GLSLSMin        GLSLExtInst = 39
	GLSLFMax        GLSLExtInst = 40
	GLSLUMax        GLSLExtInst = 41
	GLSLSMax        GLSLExtInst = 42
	GLSLFClamp      GLSLExtInst = 43
	GLSLFMix        GLSLExtInst = 46
	GLSLStep        GLSLExtInst = 48
	GLSLSmoothStep  GLSLExtInst = 49
	GLSLFma         GLSLExtInst = 50
	GLSLLength      GLSLExtInst = 66
	GLSLDistance    GLSLExtInst = 67
	GLSLCross       GLSLExtInst = 68
	GLSLNormalize   GLSLExtInst = 69
	GLSLFindUMsb    GLSLExtInst = 75
	GLSLFindSMsb    GLSLExtInst = 74
)
