package spirv

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// DescriptorMapRecordKind selects which of the four line shapes
// spec.md §6 defines a DescriptorMapRecord renders as.
type DescriptorMapRecordKind uint8

const (
	RecordKernelArg DescriptorMapRecordKind = iota
	RecordKernelArgLocal
	RecordSampler
	RecordConstant
)

// DescriptorMapRecord is one line of the sidecar descriptor-map
// output (spec.md §6 "Sidecar output"). Not every field is relevant
// to every Kind; render picks the shape.
type DescriptorMapRecord struct {
	Kind DescriptorMapRecordKind

	Kernel  string
	Arg     string
	Ordinal int
	ArgKind string

	DescriptorSet uint32
	Binding       uint32
	Offset        uint32

	ElemSize  uint32
	ArraySpec uint32

	SamplerLiteral uint32
	SamplerExpr    string

	HexBytes []byte
}

func (r DescriptorMapRecord) render() string {
	switch r.Kind {
	case RecordKernelArg:
		return fmt.Sprintf(
			"kernel,%s,arg,%s,argOrdinal,%d,descriptorSet,%d,binding,%d,offset,%d,argKind,%s",
			r.Kernel, r.Arg, r.Ordinal, r.DescriptorSet, r.Binding, r.Offset, r.ArgKind)
	case RecordKernelArgLocal:
		return fmt.Sprintf(
			"kernel,%s,arg,%s,argOrdinal,%d,argKind,%s,arrayElemSize,%d,arrayNumElemSpecId,%d",
			r.Kernel, r.Arg, r.Ordinal, r.ArgKind, r.ElemSize, r.ArraySpec)
	case RecordSampler:
		return fmt.Sprintf(
			"sampler,%d,samplerExpr,%q,descriptorSet,%d,binding,%d",
			r.SamplerLiteral, r.SamplerExpr, r.DescriptorSet, r.Binding)
	case RecordConstant:
		return fmt.Sprintf(
			"constant,descriptorSet,%d,binding,0,kind,buffer,hexbytes,%s",
			r.DescriptorSet, hex.EncodeToString(r.HexBytes))
	default:
		return ""
	}
}

// DescriptorMap is the full sidecar: an ordered list of records,
// written one per line.
type DescriptorMap struct {
	Records []DescriptorMapRecord
}

// WriteTo streams the descriptor map as newline-terminated CSV-like
// records (spec.md §6).
func (m *DescriptorMap) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, r := range m.Records {
		b.WriteString(r.render())
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
