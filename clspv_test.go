package clspv

import (
	"strings"
	"testing"

	"github.com/clspv-go/clspv/ir"
	"github.com/clspv-go/clspv/spirv"
)

// buildScaleKernel builds the IR for a single kernel equivalent to:
//
//	kernel void scale(global float *buf, float factor) {
//	    buf[0] = buf[0] * factor;
//	}
//
// by hand, the way a front end would hand it to Compile.
func buildScaleKernel() *ir.Module {
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

func TestCompileScaleKernel(t *testing.T) {
	mod := buildScaleKernel()

	result, err := Compile(mod, spirv.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}

	bin := result.Binary()
	if len(bin) < 20 {
		t.Fatalf("binary too short to hold a SPIR-V header: %d bytes", len(bin))
	}

	magic := uint32(bin[0]) | uint32(bin[1])<<8 | uint32(bin[2])<<16 | uint32(bin[3])<<24
	if magic != uint32(spirv.MagicNumber) {
		t.Errorf("wrong magic number: got 0x%08x, want 0x%08x", magic, spirv.MagicNumber)
	}

	bound := uint32(bin[12]) | uint32(bin[13])<<8 | uint32(bin[14])<<16 | uint32(bin[15])<<24
	if bound != result.Module.Bound {
		t.Errorf("header bound %d does not match Module.Bound %d", bound, result.Module.Bound)
	}
	if bound == 0 {
		t.Error("bound should be non-zero for a non-empty module")
	}

	t.Logf("compiled %d bytes, bound=%d", len(bin), bound)
}

func TestCompileScaleKernelAssemblyMentionsCoreInstructions(t *testing.T) {
	mod := buildScaleKernel()

	result, err := Compile(mod, spirv.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}

	asm := result.Assembly()
	for _, want := range []string{"OpFunction", "OpLabel", "OpLoad", "OpFMul", "OpStore", "OpReturn", "OpFunctionEnd"} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected assembly listing to contain %s:\n%s", want, asm)
		}
	}
}

func TestCompileScaleKernelDescriptorMap(t *testing.T) {
	mod := buildScaleKernel()

	result, err := Compile(mod, spirv.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}

	var b strings.Builder
	if err := result.WriteDescriptorMap(&b); err != nil {
		t.Fatalf("WriteDescriptorMap returned an error: %v", err)
	}

	out := b.String()
	if !strings.Contains(out, "kernel,scale,arg,buf") {
		t.Errorf("expected a descriptor-map record for buf, got:\n%s", out)
	}
	if !strings.Contains(out, "kernel,scale,arg,factor") {
		t.Errorf("expected a descriptor-map record for factor, got:\n%s", out)
	}
}

func TestCompileRejectsSwitchTerminator(t *testing.T) {
	mod := buildScaleKernel()
	mod.Functions[0].Blocks[0].Terminator = ir.Switch{Selector: 0, Default: 0}

	if _, err := Compile(mod, spirv.DefaultOptions()); err == nil {
		t.Error("expected an error lowering a switch terminator, got nil")
	}
}

func TestCompileWrapC(t *testing.T) {
	mod := buildScaleKernel()

	result, err := Compile(mod, spirv.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}

	c := result.WrapC()
	if !strings.HasPrefix(c, "{\n") {
		t.Errorf("expected a C initializer list, got:\n%s", c)
	}
	if !strings.Contains(c, "0x07230203") {
		t.Errorf("expected the magic number to appear in the wrapped output, got:\n%s", c)
	}
}
