package objheap

// Cloner is implemented by typed object payloads (build targets,
// dependencies, options, …) that need custom deep-copy behavior when
// Clone crosses heaps. Payloads that don't implement Cloner are copied by
// value (Go's default assignment), which is correct for simple structs
// with no handle fields; payloads with handle fields that point into the
// source heap must implement Cloner to re-home those handles.
type Cloner interface {
	CloneInto(dst *Heap, src *Heap) interface{}
}

// MakeTyped allocates an object of one of the higher-level type tags
// (TypeBuildTarget, TypeDependency, TypeOption, …) whose payload struct is
// owned by a higher-level package. objheap does not interpret the payload;
// it only stores it behind the tag.
func (h *Heap) MakeTyped(tag Type, payload interface{}) Handle {
	return h.alloc(tag, payload)
}

// GetTyped returns the payload stored at handle if its tag matches want.
func (h *Heap) GetTyped(handle Handle, want Type) (interface{}, bool) {
	return h.get(handle, want)
}

// SetTyped overwrites the payload at an already-allocated handle, keeping
// its tag. Used when a typed object's fields are filled in after the
// handle has already been referenced by other objects (e.g. a build
// target that must exist before its sources are evaluated).
func (h *Heap) SetTyped(handle Handle, payload interface{}) {
	if int(handle) >= len(h.objects) || handle == Null {
		return
	}
	h.objects[handle].payload = payload
}

// Clone deep-copies the value subgraph rooted at handle from src into dst,
// returning the new handle in dst. Arrays and dicts are cloned
// recursively, preserving insertion order. Typed payloads implementing
// Cloner are cloned via CloneInto; others are copied by value.
//
// Clone is used both at subproject evaluation boundaries (a subproject's
// workspace may graft values from its parent) and by the serializer, which
// always loads into a fresh scratch workspace before grafting the result
// into the caller's heap.
func Clone(dst, src *Heap, handle Handle) Handle {
	if handle == Null {
		return Null
	}
	switch src.TypeOf(handle) {
	case TypeBool:
		v, _ := src.GetBool(handle)
		return dst.MakeBool(v)
	case TypeNumber:
		v, _ := src.GetNumber(handle)
		return dst.MakeNumber(v)
	case TypeString:
		v, _ := src.GetString(handle)
		return dst.MakeString(v)
	case TypeArray:
		out := dst.MakeArray()
		src.ArrayForeach(handle, func(_ int, elem Handle) bool {
			dst.ArrayPush(out, Clone(dst, src, elem))
			return true
		})
		return out
	case TypeDict:
		out := dst.MakeDict()
		src.DictForeach(handle, func(key, val Handle) bool {
			dst.DictSet(out, Clone(dst, src, key), Clone(dst, src, val))
			return true
		})
		return out
	default:
		tag := src.TypeOf(handle)
		payload, ok := src.get(handle, tag)
		if !ok {
			return Null
		}
		if cloner, ok := payload.(Cloner); ok {
			return dst.alloc(tag, cloner.CloneInto(dst, src))
		}
		return dst.alloc(tag, payload)
	}
}
