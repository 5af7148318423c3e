// Package ir defines the compute-kernel intermediate representation
// consumed by the spirv lowering pass.
//
// This is the "collaborator" framework described as out of scope for
// the lowering pass itself: a typed, basic-block SSA IR with phi nodes,
// produced by an OpenCL C front end and already reduced to single-entry/
// single-exit regions by an earlier structurization pass. Dominator and
// loop analyses are likewise assumed already computed and attached to
// each Function.
//
// Handles (TypeHandle, ConstantHandle, ValueHandle, BlockHandle,
// FunctionHandle) are arena indices, not pointers: two handles compare
// equal iff they name the same arena slot, which lets the lowering pass
// use them as map keys without worrying about aliasing.
package ir
