package ir

import (
	"fmt"
	"strconv"
)

// TypeRegistry interns Type values by structural identity: two types
// built from the same shape (not the same Go value) collapse to one
// TypeHandle. The SPIR-V spec requires each unique type be declared
// exactly once, and the lowering pass leans on that here rather than
// re-deduplicating at emission time.
type TypeRegistry struct {
	types   []Type
	byKey   map[string]TypeHandle
	keyBuf  []byte
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:  make([]Type, 0, 16),
		byKey:  make(map[string]TypeHandle, 16),
		keyBuf: make([]byte, 0, 64),
	}
}

// Intern returns the handle for inner, creating one if this is the
// first time a type of this shape has been seen. name is attached only
// to freshly created entries; later calls with the same shape but a
// different name keep the original name.
func (r *TypeRegistry) Intern(name string, inner TypeInner) TypeHandle {
	key := r.key(inner)
	if h, ok := r.byKey[key]; ok {
		return h
	}
	h := TypeHandle(len(r.types))
	r.types = append(r.types, Type{Name: name, Inner: inner})
	r.byKey[key] = h
	return h
}

// Types returns all interned types in discovery order.
func (r *TypeRegistry) Types() []Type {
	return r.types
}

// Lookup resolves a handle back to its Type.
func (r *TypeRegistry) Lookup(h TypeHandle) (Type, bool) {
	if int(h) >= len(r.types) {
		return Type{}, false
	}
	return r.types[h], true
}

// key builds a structural key for inner. Scalar-ish leaves reuse a
// shared buffer to avoid fmt.Sprintf allocation on the hot path;
// recursive cases fall back to string concatenation since they clobber
// the buffer on the way back up.
func (r *TypeRegistry) key(inner TypeInner) string {
	b := r.keyBuf[:0]

	switch t := inner.(type) {
	case ScalarType:
		b = append(b, "scalar:"...)
		b = strconv.AppendInt(b, int64(t.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
		r.keyBuf = b
		return string(b)

	case VectorType:
		return "vec:" + strconv.FormatUint(uint64(t.Size), 10) + ":" + r.key(t.Elem)

	case ArrayType:
		size := "runtime"
		if t.Size.Constant != nil {
			size = strconv.FormatUint(uint64(*t.Size.Constant), 10)
		}
		return "array:" + strconv.FormatUint(uint64(t.Elem), 10) + ":" + size + ":" + strconv.FormatUint(uint64(t.Stride), 10)

	case StructType:
		key := fmt.Sprintf("struct:%d:%d", len(t.Members), t.Span)
		for _, m := range t.Members {
			key += fmt.Sprintf(":m(%s,%d,%d)", m.Name, m.Type, m.Offset)
		}
		return key

	case PointerType:
		return "ptr:" + strconv.FormatUint(uint64(t.Pointee), 10) + ":" + strconv.FormatInt(int64(t.Space), 10)

	case FunctionType:
		key := "fn:" + strconv.FormatUint(uint64(t.Result), 10)
		for _, p := range t.Params {
			key += ":" + strconv.FormatUint(uint64(p), 10)
		}
		return key

	case SamplerType:
		return "sampler"

	case ImageType:
		return fmt.Sprintf("image:%d:%d", t.Dim, t.Access)

	case SampledImageType:
		return "sampled_image:" + strconv.FormatUint(uint64(t.Image), 10)

	default:
		return fmt.Sprintf("unknown:%T", inner)
	}
}
