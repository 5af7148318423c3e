package spirv

import "github.com/clspv-go/clspv/ir"

// typeEmitter drains Tables.TypeOrder into OpType* instructions in
// dependency order, applying the aliasing rules spec.md §4.4 names:
// constant/global pointer canonicalization, i8≡i32, <4×i8>≡i32.
type typeEmitter struct {
	mod    *ir.Module
	tables *Tables
	list   *InstructionList

	// ptrCanonical maps (space-erased pointee, storage-class) to the
	// first-emitted id for constant/global pointer aliasing.
	ptrCanonical map[ptrKey]ID
	// ptrRaw caches pointer types built directly from a storage class
	// and an already-emitted pointee id, for callers (resource and
	// prologue emission) that need a pointer type the IR's own
	// AddressSpace enum can't express, e.g. a Uniform-class pointer.
	ptrRaw map[ptrRawKey]ID
	// i32Alias is the id of the canonical 32-bit unsigned/signed int
	// type; both i8 and i32 uses resolve to it once either is emitted.
	i32Alias ID
	i32Seen  bool
}

type ptrKey struct {
	pointee ir.TypeHandle
	class   StorageClass
}

type ptrRawKey struct {
	pointee ID
	class   StorageClass
}

func newTypeEmitter(mod *ir.Module, tables *Tables, list *InstructionList) *typeEmitter {
	return &typeEmitter{mod: mod, tables: tables, list: list, ptrCanonical: make(map[ptrKey]ID), ptrRaw: make(map[ptrRawKey]ID)}
}

// emitRawPointer returns a pointer-to-pointeeID type in storage class
// class, emitting a fresh OpTypePointer the first time this (class,
// pointeeID) pair is requested. Used where the caller already holds a
// resolved pointee id and a concrete storage class rather than an
// ir.PointerType (resource-variable and local-argument prologue
// pointer types, which address Uniform/Workgroup classes the IR's
// AddressSpace enum does not distinguish from StorageBuffer/Private).
func (e *typeEmitter) emitRawPointer(class StorageClass, pointeeID ID) ID {
	key := ptrRawKey{pointee: pointeeID, class: class}
	if id, ok := e.ptrRaw[key]; ok {
		return id
	}
	id := e.tables.IDs.Reserve()
	e.list.Append(NewInstruction(OpTypePointer).ArgID(id).Arg(uint32(class)).ArgID(pointeeID))
	e.ptrRaw[key] = id
	return id
}

func (e *typeEmitter) emitAll() error {
	for _, h := range e.tables.TypeOrder {
		if _, err := e.emit(h); err != nil {
			return err
		}
	}
	return e.emitSampledImages()
}

// emit returns h's SPIR-V id, emitting the instruction if this is the
// first time h resolves to a new id (aliased types return the alias's
// id without emitting anything).
func (e *typeEmitter) emit(h ir.TypeHandle) (ID, error) {
	if id := e.tables.TypeID[h]; id != 0 {
		return id, nil
	}
	ty, ok := e.mod.Types.Lookup(h)
	if !ok {
		return 0, errUnknownMapping("type not found during emission", h)
	}

	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		return e.emitScalar(h, t)
	case ir.VectorType:
		return e.emitVector(h, t)
	case ir.ArrayType:
		return e.emitArray(h, t)
	case ir.StructType:
		return e.emitStruct(h, t)
	case ir.PointerType:
		return e.emitPointer(h, t)
	case ir.FunctionType:
		return e.emitFunctionType(h, t)
	case ir.SamplerType:
		id := e.alloc(h)
		e.list.Append(NewInstruction(OpTypeSampler).ArgID(id))
		return id, nil
	case ir.ImageType:
		return e.emitImage(h, t)
	case ir.SampledImageType:
		return 0, nil // emitted in the post-pass, see emitSampledImages
	default:
		return 0, errUnknownMapping("unrecognized type kind", t)
	}
}

func (e *typeEmitter) alloc(h ir.TypeHandle) ID {
	id := e.tables.IDs.Reserve()
	e.tables.TypeID[h] = id
	return id
}

func (e *typeEmitter) emitScalar(h ir.TypeHandle, t ir.ScalarType) (ID, error) {
	switch t.Kind {
	case ir.ScalarVoid:
		id := e.alloc(h)
		e.list.Append(NewInstruction(OpTypeVoid).ArgID(id))
		return id, nil
	case ir.ScalarBool:
		id := e.alloc(h)
		e.list.Append(NewInstruction(OpTypeBool).ArgID(id))
		return id, nil
	case ir.ScalarFloat:
		id := e.alloc(h)
		e.list.Append(NewInstruction(OpTypeFloat).ArgID(id).Arg(uint32(t.Width) * 8))
		return id, nil
	default: // Sint / Uint
		if t.Width == 1 || t.Width == 4 {
			if e.i32Seen {
				e.tables.TypeID[h] = e.i32Alias
				return e.i32Alias, nil
			}
			id := e.alloc(h)
			signed := uint32(0)
			if t.Kind == ir.ScalarSint {
				signed = 1
			}
			e.list.Append(NewInstruction(OpTypeInt).ArgID(id).Arg(32).Arg(signed))
			e.i32Alias = id
			e.i32Seen = true
			return id, nil
		}
		id := e.alloc(h)
		signed := uint32(0)
		if t.Kind == ir.ScalarSint {
			signed = 1
		}
		e.list.Append(NewInstruction(OpTypeInt).ArgID(id).Arg(uint32(t.Width) * 8).Arg(signed))
		return id, nil
	}
}

// emitVector handles the <4×i8>≡i32 alias: a 4-lane vector of
// 1-byte-wide ints never gets its own OpTypeVector, it resolves to
// the canonical i32 id instead (spec.md §4.4).
func (e *typeEmitter) emitVector(h ir.TypeHandle, t ir.VectorType) (ID, error) {
	if t.Size == ir.Vec4 && t.Elem.Width == 1 && t.Elem.Kind != ir.ScalarFloat {
		elemHandle := e.mod.Types.Intern("", t.Elem)
		id, err := e.emit(elemHandle)
		if err != nil {
			return 0, err
		}
		e.tables.TypeID[h] = id
		return id, nil
	}
	elemHandle := e.mod.Types.Intern("", t.Elem)
	elemID, err := e.emit(elemHandle)
	if err != nil {
		return 0, err
	}
	id := e.alloc(h)
	e.list.Append(NewInstruction(OpTypeVector).ArgID(id).ArgID(elemID).Arg(uint32(t.Size)))
	return id, nil
}

// emitArray emits the length constant first, then OpTypeArray (or
// OpTypeRuntimeArray), remembering it for a later ArrayStride
// decoration (spec.md §4.4).
func (e *typeEmitter) emitArray(h ir.TypeHandle, t ir.ArrayType) (ID, error) {
	elemID, err := e.emit(t.Elem)
	if err != nil {
		return 0, err
	}
	stride := t.Stride
	if stride == 0 {
		stride = typeByteSize(e.mod, t.Elem)
	}
	if t.Size.Constant == nil {
		id := e.alloc(h)
		e.list.Append(NewInstruction(OpTypeRuntimeArray).ArgID(id).ArgID(elemID))
		e.tables.NeedsArrayStride[id] = stride
		return id, nil
	}
	lenHandle := e.mod.Types.Intern("int", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	lenTypeID, err := e.emit(lenHandle)
	if err != nil {
		return 0, err
	}
	lenConstID := e.tables.IDs.Reserve()
	e.list.Append(NewInstruction(OpConstant).ArgID(lenTypeID).ArgID(lenConstID).Arg(*t.Size.Constant))
	id := e.alloc(h)
	e.list.Append(NewInstruction(OpTypeArray).ArgID(id).ArgID(elemID).ArgID(lenConstID))
	e.tables.NeedsArrayStride[id] = stride
	return id, nil
}

func (e *typeEmitter) emitStruct(h ir.TypeHandle, t ir.StructType) (ID, error) {
	memberIDs := make([]ID, len(t.Members))
	for i, m := range t.Members {
		mid, err := e.emit(m.Type)
		if err != nil {
			return 0, err
		}
		memberIDs[i] = mid
	}
	id := e.alloc(h)
	inst := NewInstruction(OpTypeStruct).ArgID(id)
	for _, mid := range memberIDs {
		inst.ArgID(mid)
	}
	e.list.Append(inst)
	return id, nil
}

// emitPointer canonicalizes constant/global address-space pointers
// onto the same id (spec.md §4.4 "Pointer canonicalization").
func (e *typeEmitter) emitPointer(h ir.TypeHandle, t ir.PointerType) (ID, error) {
	class := addressSpaceToStorageClass(t.Space)
	key := ptrKey{pointee: t.Pointee, class: class}
	if class != StorageClassUniformConstant {
		if id, ok := e.ptrCanonical[key]; ok {
			e.tables.TypeID[h] = id
			return id, nil
		}
	}
	pointeeID, err := e.emit(t.Pointee)
	if err != nil {
		return 0, err
	}
	id := e.alloc(h)
	e.list.Append(NewInstruction(OpTypePointer).ArgID(id).Arg(uint32(class)).ArgID(pointeeID))
	if class != StorageClassUniformConstant {
		e.ptrCanonical[key] = id
	}
	return id, nil
}

func (e *typeEmitter) emitFunctionType(h ir.TypeHandle, t ir.FunctionType) (ID, error) {
	resultID, err := e.emit(t.Result)
	if err != nil {
		return 0, err
	}
	paramIDs := make([]ID, 0, len(t.Params))
	for _, p := range t.Params {
		pid, err := e.emit(p)
		if err != nil {
			return 0, err
		}
		paramIDs = append(paramIDs, pid)
	}
	id := e.alloc(h)
	inst := NewInstruction(OpTypeFunction).ArgID(id).ArgID(resultID)
	for _, pid := range paramIDs {
		inst.ArgID(pid)
	}
	e.list.Append(inst)
	return id, nil
}

func (e *typeEmitter) emitImage(h ir.TypeHandle, t ir.ImageType) (ID, error) {
	sampledType, err := e.emit(e.mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}))
	if err != nil {
		return 0, err
	}
	dim := uint32(1) // Dim2D
	if t.Dim == ir.Dim3D {
		dim = 2 // Dim3D
	}
	sampled := uint32(1)
	if t.Access == ir.ImageWriteOnly {
		sampled = 2
	}
	id := e.alloc(h)
	e.list.Append(NewInstruction(OpTypeImage).ArgID(id).ArgID(sampledType).
		Arg(dim).Arg(0).Arg(0).Arg(0).Arg(sampled).Arg(uint32(ImageFormatUnknown)))
	return id, nil
}

// emitSampledImages emits one OpTypeSampledImage per distinct image
// type discovered during image-read calls (spec.md §4.4 "Sampled
// images": emitted after normal types).
func (e *typeEmitter) emitSampledImages() error {
	for _, h := range e.tables.TypeOrder {
		ty, ok := e.mod.Types.Lookup(h)
		if !ok {
			continue
		}
		si, ok := ty.Inner.(ir.SampledImageType)
		if !ok {
			continue
		}
		imageID, err := e.emit(si.Image)
		if err != nil {
			return err
		}
		id := e.tables.IDs.Reserve()
		e.tables.TypeID[h] = id
		e.tables.SampledImageID[si.Image] = id
		e.list.Append(NewInstruction(OpTypeSampledImage).ArgID(id).ArgID(imageID))
	}
	return nil
}

func addressSpaceToStorageClass(space ir.AddressSpace) StorageClass {
	switch space {
	case ir.SpaceGlobal, ir.SpaceConstant:
		return StorageClassStorageBuffer
	case ir.SpaceLocal:
		return StorageClassWorkgroup
	case ir.SpacePrivate:
		return StorageClassPrivate
	case ir.SpaceFunction:
		return StorageClassFunction
	case ir.SpaceUniformConstant:
		return StorageClassUniformConstant
	default:
		return StorageClassFunction
	}
}

// typeByteSize computes a struct/array-stride-worthy size for common
// scalar/vector element types; aggregate element types carry their own
// recorded Span/Stride and never reach this path.
func typeByteSize(mod *ir.Module, h ir.TypeHandle) uint32 {
	ty, ok := mod.Types.Lookup(h)
	if !ok {
		return 4
	}
	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		if t.Width == 1 {
			return 4 // i8 aliases to i32
		}
		return uint32(t.Width)
	case ir.VectorType:
		return uint32(t.Size) * typeByteSize(mod, mod.Types.Intern("", t.Elem))
	case ir.StructType:
		return t.Span
	default:
		return 4
	}
}
