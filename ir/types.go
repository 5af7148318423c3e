package ir

// TypeHandle indexes Module.Types.
type TypeHandle uint32

// Type is a node in the module's type graph, identified by structural
// identity (see TypeRegistry) rather than by declaration order.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner is the closed set of type kinds. Each concrete type
// implements typeInner as a marker so only types defined in this
// package can satisfy the interface.
type TypeInner interface {
	typeInner()
}

// ScalarKind enumerates the base scalar kinds.
type ScalarKind uint8

const (
	ScalarVoid ScalarKind = iota
	ScalarBool
	ScalarSint
	ScalarUint
	ScalarFloat
)

// ScalarType is void, bool, or a sized signed/unsigned int or float.
// Width is in bytes; it is meaningless for Void and Bool.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8
}

func (ScalarType) typeInner() {}

// VectorSize is the component count of a vector type.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// VectorType is a fixed-size vector of a scalar type.
type VectorType struct {
	Size VectorSize
	Elem ScalarType
}

func (VectorType) typeInner() {}

// ArraySize is nil for a runtime-sized array (the last member of a
// storage-buffer struct), otherwise the fixed element count.
type ArraySize struct {
	Constant *uint32
}

// ArrayType is a fixed- or runtime-sized array.
type ArrayType struct {
	Elem   TypeHandle
	Size   ArraySize
	Stride uint32 // byte stride between elements; 0 means "derive from Elem"
}

func (ArrayType) typeInner() {}

// StructMember is one field of a StructType.
type StructMember struct {
	Name   string
	Type   TypeHandle
	Offset uint32
}

// StructType is an aggregate of named, offset fields.
type StructType struct {
	Members []StructMember
	Span    uint32 // total size in bytes
}

func (StructType) typeInner() {}

// AddressSpace is an OpenCL C address space, conflated at lowering time
// onto a smaller set of Vulkan storage classes (see spirv package).
type AddressSpace uint8

const (
	SpacePrivate AddressSpace = iota
	SpaceFunction
	SpaceGlobal    // OpenCL __global
	SpaceConstant  // OpenCL __constant
	SpaceLocal     // OpenCL __local
	SpaceUniformConstant
)

// PointerType is a pointer into one OpenCL address space.
type PointerType struct {
	Pointee TypeHandle
	Space   AddressSpace
}

func (PointerType) typeInner() {}

// FunctionType is a function signature. Kernel signatures are rewritten
// to take no parameters when lowered (Vulkan entry points take none);
// FunctionType itself still records the original OpenCL C signature.
type FunctionType struct {
	Result TypeHandle
	Params []TypeHandle
}

func (FunctionType) typeInner() {}

// SamplerType is an opaque OpenCL sampler_t.
type SamplerType struct{}

func (SamplerType) typeInner() {}

// ImageDimension is the image's addressable dimensionality.
type ImageDimension uint8

const (
	Dim2D ImageDimension = iota
	Dim3D
)

// ImageAccess is the access mode an OpenCL image type was declared with.
type ImageAccess uint8

const (
	ImageReadOnly ImageAccess = iota
	ImageWriteOnly
)

// ImageType is an opaque OpenCL image2d_t/image3d_t, read-only or
// write-only (OpenCL kernels never declare read_write images).
type ImageType struct {
	Dim    ImageDimension
	Access ImageAccess
}

func (ImageType) typeInner() {}

// SampledImageType pairs an image with the sampler needed to read it.
// Discovered on demand: one is emitted per distinct ImageType used by a
// read_image{f,i,ui} call.
type SampledImageType struct {
	Image TypeHandle
}

func (SampledImageType) typeInner() {}
