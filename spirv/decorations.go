package spirv

import "sort"

// decorationEmitter inserts ArrayStride and SpecId decorations at the
// designated region: after capabilities/extensions/import/memory
// model/entry points/execution modes/source, before any type,
// constant, or function instruction (spec.md §4.8, §3 invariant
// "Decorations precede all non-decoration, non-extension,
// non-capability instructions").
//
// Binding/DescriptorSet/BuiltIn/Block/Offset/NonReadable/NonWritable
// decorations are appended inline by Argument Lowering and Type
// Emission as they run, since those phases already know the
// decoration region's insertion point at the time they execute; only
// the decorations whose target id isn't known until later (array
// strides discovered mid-lowering, per-argument spec ids) need this
// deferred pass.
type decorationEmitter struct {
	tables *Tables
	list   *InstructionList
}

func newDecorationEmitter(tables *Tables, list *InstructionList) *decorationEmitter {
	return &decorationEmitter{tables: tables, list: list}
}

// emit inserts at insertionPoint (found by the caller via a linear
// scan for the first non-decoration/non-capability/non-extension
// instruction, per spec.md §4.8).
func (e *decorationEmitter) emit(insertionPoint int) int {
	pos := insertionPoint
	strideTypes := make([]ID, 0, len(e.tables.NeedsArrayStride))
	for typeID := range e.tables.NeedsArrayStride {
		strideTypes = append(strideTypes, typeID)
	}
	sort.Slice(strideTypes, func(i, j int) bool { return strideTypes[i] < strideTypes[j] })
	for _, typeID := range strideTypes {
		stride := e.tables.NeedsArrayStride[typeID]
		e.list.InsertAt(pos, NewInstruction(OpDecorate).ArgID(typeID).Arg(uint32(DecorationArrayStride)).Arg(stride))
		pos++
	}
	for _, info := range e.tables.LocalArgs {
		e.list.InsertAt(pos, NewInstruction(OpDecorate).ArgID(info.SpecConstID).Arg(uint32(DecorationSpecId)).Arg(info.SpecID))
		pos++
	}
	for i, id := range e.tables.WorkgroupSizeSpecIDs {
		if id == 0 {
			continue
		}
		e.list.InsertAt(pos, NewInstruction(OpDecorate).ArgID(id).Arg(uint32(DecorationSpecId)).Arg(uint32(i)))
		pos++
	}
	return pos
}

// findDecorationInsertionPoint implements the linear scan spec.md
// §4.8 calls for: the first instruction that is not itself a
// Capability, Extension, ExtInstImport, or already a Decorate.
func findDecorationInsertionPoint(list *InstructionList) int {
	for i := 0; i < list.Len(); i++ {
		op := list.At(i).Op
		switch op {
		case OpCapability, OpExtension, OpExtInstImport, OpMemoryModel, OpEntryPoint, OpExecutionMode, OpSource, OpDecorate, OpMemberDecorate, OpName, OpMemberName:
			continue
		default:
			return i
		}
	}
	return list.Len()
}
