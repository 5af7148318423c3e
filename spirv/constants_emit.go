package spirv

import "github.com/clspv-go/clspv/ir"

// constantEmitter drains Tables.ConstantOrder into OpConstant* (or
// OpSpecConstant* for specialization-constant-backed entries, though
// this pass currently routes spec constants through a dedicated path
// in backend.go, emitResourceVariables and emitWorkgroupSizeConstant,
// rather than through Module.Constants).
type constantEmitter struct {
	mod    *ir.Module
	opts   Options
	tables *Tables
	types  *typeEmitter
	list   *InstructionList

	// packedI8 remembers the id already emitted for a given folded
	// <4×i8> byte pattern, so repeats reuse the id (spec.md §4.5).
	packedI8 map[uint32]ID
}

func newConstantEmitter(mod *ir.Module, opts Options, tables *Tables, types *typeEmitter, list *InstructionList) *constantEmitter {
	return &constantEmitter{mod: mod, opts: opts, tables: tables, types: types, list: list, packedI8: make(map[uint32]ID)}
}

func (e *constantEmitter) emitAll() error {
	for _, ch := range e.tables.ConstantOrder {
		if err := e.emit(ch); err != nil {
			return err
		}
	}
	return nil
}

func (e *constantEmitter) emit(ch ir.ConstantHandle) error {
	if id := e.tables.ConstantID[ch]; id != 0 {
		return nil
	}
	c := e.mod.Constants[ch]
	typeID, err := e.types.emit(c.Type)
	if err != nil {
		return err
	}
	ty, _ := e.mod.Types.Lookup(c.Type)

	switch v := c.Value.(type) {
	case ir.ScalarConst:
		return e.emitScalar(ch, typeID, ty, v)
	case ir.CompositeConst:
		return e.emitComposite(ch, typeID, ty, v)
	case ir.NullConst:
		id := e.alloc(ch)
		e.list.Append(NewInstruction(OpConstantNull).ArgID(typeID).ArgID(id))
		return nil
	case ir.UndefConst:
		if e.opts.HackUndef && isNumeric(ty) {
			id := e.alloc(ch)
			e.list.Append(NewInstruction(OpConstantNull).ArgID(typeID).ArgID(id))
			return nil
		}
		id := e.alloc(ch)
		e.list.Append(NewInstruction(OpUndef).ArgID(typeID).ArgID(id))
		return nil
	default:
		return errUnknownMapping("unrecognized constant value kind", v)
	}
}

func (e *constantEmitter) alloc(ch ir.ConstantHandle) ID {
	id := e.tables.IDs.Reserve()
	e.tables.ConstantID[ch] = id
	return id
}

func (e *constantEmitter) emitScalar(ch ir.ConstantHandle, typeID ID, ty ir.Type, v ir.ScalarConst) error {
	scalar, ok := ty.Inner.(ir.ScalarType)
	if !ok {
		return errUnknownMapping("scalar constant's type is not scalar", ty)
	}
	if scalar.Kind == ir.ScalarBool {
		id := e.alloc(ch)
		op := OpConstantFalse
		if v.Bits != 0 {
			op = OpConstantTrue
		}
		e.list.Append(NewInstruction(op).ArgID(typeID).ArgID(id))
		return nil
	}

	id := e.alloc(ch)
	inst := NewInstruction(OpConstant).ArgID(typeID).ArgID(id)
	if scalar.Width == 8 {
		inst.Arg(uint32(v.Bits)).Arg(uint32(v.Bits >> 32))
	} else {
		inst.Arg(uint32(v.Bits))
	}
	e.list.Append(inst)

	if scalar.Kind != ir.ScalarFloat && v.Bits == 0 && scalar.Width == 4 {
		e.tables.ScalarZeroI32 = id
	}
	return nil
}

// emitComposite implements the <4×i8> folding rule: a 4-element
// composite of 1-byte ints collapses into a single i32 OpConstant
// whose bit pattern is the four bytes, big-endian by index, reusing
// an existing id if the same pattern already exists (spec.md §4.5).
func (e *constantEmitter) emitComposite(ch ir.ConstantHandle, typeID ID, ty ir.Type, v ir.CompositeConst) error {
	if vec, ok := ty.Inner.(ir.VectorType); ok && vec.Size == ir.Vec4 && vec.Elem.Width == 1 && vec.Elem.Kind != ir.ScalarFloat && len(v.Components) == 4 {
		packed := uint32(0)
		for i, comp := range v.Components {
			b := e.mod.Constants[comp].Value.(ir.ScalarConst).Bits
			packed |= uint32(byte(b)) << uint(8*(3-i))
		}
		if id, ok := e.packedI8[packed]; ok {
			e.tables.ConstantID[ch] = id
			return nil
		}
		id := e.alloc(ch)
		e.list.Append(NewInstruction(OpConstant).ArgID(typeID).ArgID(id).Arg(packed))
		e.packedI8[packed] = id
		return nil
	}

	componentIDs := make([]ID, 0, len(v.Components))
	for _, comp := range v.Components {
		if err := e.emit(comp); err != nil {
			return err
		}
		componentIDs = append(componentIDs, e.tables.ConstantID[comp])
	}
	id := e.alloc(ch)
	inst := NewInstruction(OpConstantComposite).ArgID(typeID).ArgID(id)
	for _, cid := range componentIDs {
		inst.ArgID(cid)
	}
	e.list.Append(inst)
	return nil
}

func isNumeric(ty ir.Type) bool {
	switch ty.Inner.(type) {
	case ir.ScalarType, ir.VectorType:
		return true
	default:
		return false
	}
}
