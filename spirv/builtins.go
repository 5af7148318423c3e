package spirv

import "sort"

// builtinClass groups a recognized OpenCL C builtin by the lowering
// shape it needs (spec.md §4.6).
type builtinClass uint8

const (
	builtinImageSample builtinClass = iota
	builtinImageRead
	builtinImageWrite
	builtinImageSize
	builtinDot
	builtinFmod
	builtinPopcount
	builtinBarrier
	builtinIsInf
	builtinIsNan
	builtinAny
	builtinAll
	builtinCompositeConstruct
	builtinSamplerInit
	builtinExtInst
)

// indirectKind names the follow-up op an "indirect" extended
// instruction needs after the OpExtInst itself (spec.md §4.6).
type indirectKind uint8

const (
	indirectNone indirectKind = iota
	indirectClz               // FindUMsb, then OpISub by 31
	indirectPiInverse         // ExtInst, then OpFMul by 1/π
)

// builtinEntry is one row of the dispatch table.
type builtinEntry struct {
	mangled  string
	class    builtinClass
	ext      GLSLExtInst
	indirect indirectKind
}

// builtinDispatch is a sorted-table lookup over mangled builtin names,
// matching spec.md §9's "a sorted table lookup suffices" guidance in
// place of a string trie.
type builtinDispatch struct {
	entries []builtinEntry
}

func newBuiltinDispatch() *builtinDispatch {
	entries := []builtinEntry{
		{mangled: "read_imagef", class: builtinImageRead},
		{mangled: "read_imagei", class: builtinImageRead},
		{mangled: "read_imageui", class: builtinImageRead},
		{mangled: "write_imagef", class: builtinImageWrite},
		{mangled: "write_imagei", class: builtinImageWrite},
		{mangled: "write_imageui", class: builtinImageWrite},
		{mangled: "get_image_width", class: builtinImageSize},
		{mangled: "get_image_height", class: builtinImageSize},
		{mangled: "get_image_dim", class: builtinImageSize},
		{mangled: "dot", class: builtinDot},
		{mangled: "fmod", class: builtinFmod},
		{mangled: "popcount", class: builtinPopcount},
		{mangled: "barrier", class: builtinBarrier},
		{mangled: "work_group_barrier", class: builtinBarrier},
		{mangled: "isinf", class: builtinIsInf},
		{mangled: "isnan", class: builtinIsNan},
		{mangled: "any", class: builtinAny},
		{mangled: "all", class: builtinAll},
		{mangled: "__spirv_CompositeConstruct", class: builtinCompositeConstruct},
		{mangled: "__translate_sampler_initializer", class: builtinSamplerInit},

		{mangled: "round", class: builtinExtInst, ext: GLSLRound},
		{mangled: "trunc", class: builtinExtInst, ext: GLSLTrunc},
		{mangled: "fabs", class: builtinExtInst, ext: GLSLFAbs},
		{mangled: "abs", class: builtinExtInst, ext: GLSLSAbs},
		{mangled: "sign", class: builtinExtInst, ext: GLSLFSign},
		{mangled: "floor", class: builtinExtInst, ext: GLSLFloor},
		{mangled: "ceil", class: builtinExtInst, ext: GLSLCeil},
		{mangled: "fract", class: builtinExtInst, ext: GLSLFract},
		{mangled: "sin", class: builtinExtInst, ext: GLSLSin},
		{mangled: "cos", class: builtinExtInst, ext: GLSLCos},
		{mangled: "tan", class: builtinExtInst, ext: GLSLTan},
		{mangled: "asin", class: builtinExtInst, ext: GLSLAsin},
		{mangled: "acos", class: builtinExtInst, ext: GLSLAcos},
		{mangled: "atan", class: builtinExtInst, ext: GLSLAtan},
		{mangled: "sinh", class: builtinExtInst, ext: GLSLSinh},
		{mangled: "cosh", class: builtinExtInst, ext: GLSLCosh},
		{mangled: "tanh", class: builtinExtInst, ext: GLSLTanh},
		{mangled: "atan2", class: builtinExtInst, ext: GLSLAtan2},
		{mangled: "pow", class: builtinExtInst, ext: GLSLPow},
		{mangled: "exp", class: builtinExtInst, ext: GLSLExp},
		{mangled: "log", class: builtinExtInst, ext: GLSLLog},
		{mangled: "exp2", class: builtinExtInst, ext: GLSLExp2},
		{mangled: "log2", class: builtinExtInst, ext: GLSLLog2},
		{mangled: "sqrt", class: builtinExtInst, ext: GLSLSqrt},
		{mangled: "rsqrt", class: builtinExtInst, ext: GLSLInverseSqrt},
		{mangled: "fmin", class: builtinExtInst, ext: GLSLFMin},
		{mangled: "fmax", class: builtinExtInst, ext: GLSLFMax},
		{mangled: "clamp", class: builtinExtInst, ext: GLSLFClamp},
		{mangled: "mix", class: builtinExtInst, ext: GLSLFMix},
		{mangled: "step", class: builtinExtInst, ext: GLSLStep},
		{mangled: "smoothstep", class: builtinExtInst, ext: GLSLSmoothStep},
		{mangled: "fma", class: builtinExtInst, ext: GLSLFma},
		{mangled: "mad", class: builtinExtInst, ext: GLSLFma},
		{mangled: "length", class: builtinExtInst, ext: GLSLLength},
		{mangled: "distance", class: builtinExtInst, ext: GLSLDistance},
		{mangled: "cross", class: builtinExtInst, ext: GLSLCross},
		{mangled: "normalize", class: builtinExtInst, ext: GLSLNormalize},
		{mangled: "clz", class: builtinExtInst, ext: GLSLFindUMsb, indirect: indirectClz},
		{mangled: "acospi", class: builtinExtInst, ext: GLSLAcos, indirect: indirectPiInverse},
		{mangled: "asinpi", class: builtinExtInst, ext: GLSLAsin, indirect: indirectPiInverse},
		{mangled: "atan2pi", class: builtinExtInst, ext: GLSLAtan2, indirect: indirectPiInverse},
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mangled < entries[j].mangled })
	return &builtinDispatch{entries: entries}
}

// lookup finds the dispatch entry whose mangled name is a prefix of
// (or exact match for) name, the shape spec.md §9 calls for. Exact
// matches are tried first so a longer specific name never loses to a
// shorter generic prefix.
func (d *builtinDispatch) lookup(name string) (builtinEntry, bool) {
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].mangled >= name })
	if i < len(d.entries) && d.entries[i].mangled == name {
		return d.entries[i], true
	}
	for _, e := range d.entries {
		if len(name) >= len(e.mangled) && name[:len(e.mangled)] == e.mangled {
			return e, true
		}
	}
	return builtinEntry{}, false
}
