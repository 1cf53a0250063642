package objheap

// arrayObj is a dynamic ordered sequence of handles. It is stored behind a
// pointer so that pushing to the array never invalidates the array's own
// Handle (only the arrayObj's internal slice may reallocate).
type arrayObj struct {
	elems []Handle
}

// MakeArray allocates an empty array object.
func (h *Heap) MakeArray() Handle {
	return h.alloc(TypeArray, &arrayObj{})
}

func (h *Heap) array(handle Handle) (*arrayObj, bool) {
	p, ok := h.get(handle, TypeArray)
	if !ok {
		return nil, false
	}
	return p.(*arrayObj), true
}

// ArrayPush appends elem to the array at handle, in amortized O(1).
func (h *Heap) ArrayPush(handle, elem Handle) {
	a, ok := h.array(handle)
	if !ok {
		return
	}
	a.elems = append(a.elems, elem)
}

// ArrayLen reports the number of elements in the array at handle.
func (h *Heap) ArrayLen(handle Handle) int {
	a, ok := h.array(handle)
	if !ok {
		return 0
	}
	return len(a.elems)
}

// ArrayGet returns the element at idx (0-based, insertion order).
func (h *Heap) ArrayGet(handle Handle, idx int) (Handle, bool) {
	a, ok := h.array(handle)
	if !ok || idx < 0 || idx >= len(a.elems) {
		return Null, false
	}
	return a.elems[idx], true
}

// ArrayIndexOf returns the index of the first element equal to elem
// (handle equality, or string-content equality when both are strings), or
// -1 if no element matches.
func (h *Heap) ArrayIndexOf(handle, elem Handle) int {
	a, ok := h.array(handle)
	if !ok {
		return -1
	}
	elemIsString := h.TypeOf(elem) == TypeString
	for i, e := range a.elems {
		if e == elem {
			return i
		}
		if elemIsString && h.TypeOf(e) == TypeString && h.StringEqual(e, elem) {
			return i
		}
	}
	return -1
}

// ArrayForeach visits every element in insertion order, stopping early if
// fn returns false.
func (h *Heap) ArrayForeach(handle Handle, fn func(i int, elem Handle) bool) {
	a, ok := h.array(handle)
	if !ok {
		return
	}
	for i, e := range a.elems {
		if !fn(i, e) {
			return
		}
	}
}

// ArrayToSlice materializes the array's elements as a plain slice, for
// callers that want to range without a callback.
func (h *Heap) ArrayToSlice(handle Handle) []Handle {
	a, ok := h.array(handle)
	if !ok {
		return nil
	}
	out := make([]Handle, len(a.elems))
	copy(out, a.elems)
	return out
}

// ArrayDedup removes duplicate elements in place, preserving the order of
// first occurrence. Two handles are duplicates if they are handle-equal, or
// if both are strings with identical contents.
func (h *Heap) ArrayDedup(handle Handle) {
	a, ok := h.array(handle)
	if !ok {
		return
	}
	out := a.elems[:0]
	seenHandles := make(map[Handle]bool, len(a.elems))
	var seenStrings map[string]bool
	for _, e := range a.elems {
		if seenHandles[e] {
			continue
		}
		if h.TypeOf(e) == TypeString {
			s, _ := h.GetString(e)
			if seenStrings == nil {
				seenStrings = make(map[string]bool, len(a.elems))
			}
			if seenStrings[s] {
				continue
			}
			seenStrings[s] = true
		}
		seenHandles[e] = true
		out = append(out, e)
	}
	a.elems = out
}
