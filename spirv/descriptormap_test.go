package spirv

import (
	"strings"
	"testing"
)

func TestDescriptorMapRecordKernelArgRenderShape(t *testing.T) {
	r := DescriptorMapRecord{
		Kind:          RecordKernelArg,
		Kernel:        "scale",
		Arg:           "buf",
		Ordinal:       0,
		DescriptorSet: 0,
		Binding:       1,
		Offset:        0,
		ArgKind:       "buffer",
	}

	got := r.render()
	want := "kernel,scale,arg,buf,argOrdinal,0,descriptorSet,0,binding,1,offset,0,argKind,buffer"
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
}

func TestDescriptorMapRecordKernelArgLocalRenderShape(t *testing.T) {
	r := DescriptorMapRecord{
		Kind:      RecordKernelArgLocal,
		Kernel:    "blur",
		Arg:       "scratch",
		Ordinal:   2,
		ArgKind:   "local",
		ElemSize:  4,
		ArraySpec: 7,
	}

	got := r.render()
	want := "kernel,blur,arg,scratch,argOrdinal,2,argKind,local,arrayElemSize,4,arrayNumElemSpecId,7"
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
}

func TestDescriptorMapRecordSamplerRenderShape(t *testing.T) {
	r := DescriptorMapRecord{
		Kind:           RecordSampler,
		SamplerLiteral: 19,
		SamplerExpr:    "CLK_NORMALIZED_COORDS_FALSE",
		DescriptorSet:  0,
		Binding:        3,
	}

	got := r.render()
	if !strings.HasPrefix(got, "sampler,19,samplerExpr,") {
		t.Errorf("render() = %q, want prefix %q", got, "sampler,19,samplerExpr,")
	}
	if !strings.Contains(got, "descriptorSet,0,binding,3") {
		t.Errorf("render() = %q, missing descriptor-set/binding suffix", got)
	}
}

func TestDescriptorMapRecordConstantRenderShape(t *testing.T) {
	r := DescriptorMapRecord{
		Kind:          RecordConstant,
		DescriptorSet: 0,
		HexBytes:      []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}

	got := r.render()
	want := "constant,descriptorSet,0,binding,0,kind,buffer,hexbytes,deadbeef"
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
}

func TestDescriptorMapWriteToJoinsRecordsWithNewlines(t *testing.T) {
	m := &DescriptorMap{Records: []DescriptorMapRecord{
		{Kind: RecordKernelArg, Kernel: "scale", Arg: "buf", ArgKind: "buffer"},
		{Kind: RecordKernelArg, Kernel: "scale", Arg: "factor", ArgKind: "buffer"},
	}}

	var b strings.Builder
	n, err := m.WriteTo(&b)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if int(n) != b.Len() {
		t.Errorf("WriteTo reported %d bytes written, builder has %d", n, b.Len())
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), b.String())
	}
	if !strings.Contains(lines[0], "arg,buf") || !strings.Contains(lines[1], "arg,factor") {
		t.Errorf("unexpected line contents: %q", b.String())
	}
}
