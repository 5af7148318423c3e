// Package clspv lowers an OpenCL C-style compute-kernel IR (package
// ir) into a Vulkan SPIR-V compute shader module, alongside a
// descriptor-map sidecar describing how each kernel argument binds to
// a Vulkan resource (package spirv does the work; this package is the
// single entry point a driver or CLI calls).
package clspv

import (
	"io"

	"github.com/clspv-go/clspv/ir"
	"github.com/clspv-go/clspv/spirv"
)

// Result is everything one Compile call produces: the lowered module
// in every output shape the Serializer supports, plus its
// descriptor-map sidecar.
type Result struct {
	Module        *spirv.Module
	DescriptorMap *spirv.DescriptorMap
}

// Binary returns the little-endian SPIR-V binary encoding.
func (r *Result) Binary() []byte {
	return r.Module.SerializeBinary()
}

// Assembly returns a textual disassembly listing.
func (r *Result) Assembly() string {
	return r.Module.Disassemble()
}

// WrapC returns the binary encoding wrapped as a C initializer list,
// the shape a generated header embeds a module as.
func (r *Result) WrapC() string {
	return spirv.WrapC(r.Module.Serialize())
}

// WriteDescriptorMap writes the descriptor-map sidecar to w in the
// line-record format spec'd for external consumption by a Vulkan
// runtime loader.
func (r *Result) WriteDescriptorMap(w io.Writer) error {
	_, err := r.DescriptorMap.WriteTo(w)
	return err
}

// Compile lowers mod under opts and returns every output the pass
// produces. mod is a fully-formed kernel IR module — this package does
// not parse OpenCL C source; that is a front end's job, out of scope
// for this pass (see SPEC_FULL.md's Non-goals).
func Compile(mod *ir.Module, opts spirv.Options) (*Result, error) {
	backend := spirv.NewBackend(mod, opts)
	module, err := backend.Compile()
	if err != nil {
		return nil, err
	}
	return &Result{Module: module, DescriptorMap: backend.DescriptorMap}, nil
}
