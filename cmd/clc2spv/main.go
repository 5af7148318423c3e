// Command clc2spv drives the IR-to-SPIR-V compute lowering pass.
//
// Usage:
//
//	clc2spv [options]
//
// A front end that parses OpenCL C into the ir.Module this pass
// consumes is out of scope for this repo (see SPEC_FULL.md's
// Non-goals); clc2spv instead compiles a small built-in placeholder
// kernel, exercising the same Compile entry point a driver embedding a
// real front end would call.
//
// Examples:
//
//	clc2spv -o kernel.spv           # Compile to a .spv file
//	clc2spv -disassemble            # Print a textual assembly listing
//	clc2spv -descriptor-map map.csv # Also write the descriptor-map sidecar
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/clspv-go/clspv"
	"github.com/clspv-go/clspv/ir"
	"github.com/clspv-go/clspv/spirv"
)

var (
	output          = flag.String("o", "", "output .spv file (default: stdout)")
	disassemble     = flag.Bool("disassemble", false, "print a textual assembly listing instead of binary")
	wrapC           = flag.Bool("wrap-c", false, "print the binary as a C initializer list instead of raw bytes")
	descriptorMap   = flag.String("descriptor-map", "", "also write the descriptor-map sidecar to this path")
	constSB         = flag.Bool("constants-in-storage-buffer", false, "emit __constant module data as a descriptor-bound storage buffer instead of inlining it")
	podUBO          = flag.Bool("pod-ubo", false, "bind POD kernel arguments through a uniform buffer instead of storage buffer")
	distinctSets    = flag.Bool("distinct-descriptor-sets", false, "give every kernel its own descriptor set instead of sharing set 0")
	debugInfo       = flag.Bool("debug", false, "set Options.Debug (no debug instructions are emitted)")
	versionFlag     = flag.Bool("version", false, "print version")
)

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("clc2spv version %s\n", version())
		return
	}

	opts := spirv.Options{
		Version:                     spirv.Version1_0,
		ConstantsInStorageBuffer:    *constSB,
		PodArgsInUniformBuffer:      *podUBO,
		DistinctKernelDescriptorSets: *distinctSets,
		Debug:                       *debugInfo,
	}

	mod := placeholderKernel()

	result, err := clspv.Compile(mod, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		os.Exit(1)
	}

	if *descriptorMap != "" {
		f, err := os.Create(*descriptorMap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating descriptor map file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := result.WriteDescriptorMap(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing descriptor map: %v\n", err)
			os.Exit(1)
		}
	}

	var out []byte
	switch {
	case *disassemble:
		out = []byte(result.Assembly())
	case *wrapC:
		out = []byte(result.WrapC())
	default:
		out = result.Binary()
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled to %s (%d bytes)\n", *output, len(out))
		return
	}

	if _, err := os.Stdout.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

// placeholderKernel builds the IR for a single kernel equivalent to:
//
//	kernel void scale(global float *buf, float factor) {
//	    buf[0] = buf[0] * factor;
//	}
//
// standing in for the real front-end output this pass would otherwise
// receive.
func placeholderKernel() *ir.Module {
	mod := &ir.Module{Types: ir.NewTypeRegistry()}

	floatTy := mod.Types.Intern("float", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	voidTy := mod.Types.Intern("void", ir.ScalarType{Kind: ir.ScalarVoid})
	bufPtrTy := mod.Types.Intern("", ir.PointerType{Pointee: floatTy, Space: ir.SpaceGlobal})

	args := []ir.FunctionArgument{
		{Name: "buf", Type: bufPtrTy, Ordinal: 0},
		{Name: "factor", Type: floatTy, Ordinal: 1},
	}

	vIdx := ir.ValueHandle(2)
	vGep := ir.ValueHandle(3)
	vLoad := ir.ValueHandle(4)
	vMul := ir.ValueHandle(5)

	block := ir.BasicBlock{
		Name: "entry",
		Instructions: []ir.Instruction{
			{Result: &vIdx, Op: ir.ConstIndex{Value: 0}},
			{Result: &vGep, Op: ir.GetElementPtr{Base: 0, Indices: []ir.ValueHandle{vIdx}, ResultType: bufPtrTy}},
			{Result: &vLoad, Op: ir.Load{Pointer: vGep}},
			{Result: &vMul, Op: ir.Binary{Op: ir.BinMul, Left: vLoad, Right: 1}},
			{Op: ir.Store{Pointer: vGep, Value: vMul}},
		},
		Terminator: ir.Ret{},
	}

	fn := ir.Function{
		Name:      "scale",
		Kind:      ir.FuncKernel,
		Result:    voidTy,
		Arguments: args,
		Blocks:    []ir.BasicBlock{block},
		Values: []ir.ValueDef{
			{Kind: ir.ValueArgument, Index: 0},
			{Kind: ir.ValueArgument, Index: 1},
			{Kind: ir.ValueInstruction, Block: 0, Index: 0},
			{Kind: ir.ValueInstruction, Block: 0, Index: 1},
			{Kind: ir.ValueInstruction, Block: 0, Index: 2},
			{Kind: ir.ValueInstruction, Block: 0, Index: 3},
		},
	}

	mod.Functions = []ir.Function{fn}
	return mod
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: clc2spv [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  clc2spv -o kernel.spv               Compile to a .spv file\n")
	fmt.Fprintf(os.Stderr, "  clc2spv -disassemble                Print a textual assembly listing\n")
	fmt.Fprintf(os.Stderr, "  clc2spv -descriptor-map map.csv      Also write the descriptor-map sidecar\n")
}
