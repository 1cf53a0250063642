package objheap

// MakeBool allocates a boolean object and returns its handle.
func (h *Heap) MakeBool(v bool) Handle {
	return h.alloc(TypeBool, v)
}

// GetBool returns the boolean stored at handle. ok is false if handle does
// not refer to a bool.
func (h *Heap) GetBool(handle Handle) (v bool, ok bool) {
	p, ok := h.get(handle, TypeBool)
	if !ok {
		return false, false
	}
	return p.(bool), true
}

// MakeNumber allocates an integer-valued number object. Meson numbers are
// always integers; there is no floating point in the language.
func (h *Heap) MakeNumber(v int64) Handle {
	return h.alloc(TypeNumber, v)
}

// GetNumber returns the number stored at handle.
func (h *Heap) GetNumber(handle Handle) (v int64, ok bool) {
	p, ok := h.get(handle, TypeNumber)
	if !ok {
		return 0, false
	}
	return p.(int64), true
}
