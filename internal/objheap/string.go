package objheap

// smallStringLimit is the threshold past which a string is considered
// "big" for serialization purposes (see internal/serialize): short strings
// are assumed to come from the bump buffer, long ones from their own
// allocation. The heap itself stores every string the same way in memory
// (a plain Go string, which the runtime already manages); the distinction
// only matters when the string is written out.
const smallStringLimit = 128

type stringObj struct {
	s   string
	big bool
}

// MakeString allocates a string object. Strings longer than
// smallStringLimit are flagged "big" for the serializer.
func (h *Heap) MakeString(s string) Handle {
	return h.alloc(TypeString, stringObj{s: s, big: len(s) > smallStringLimit})
}

// GetString returns the string stored at handle.
func (h *Heap) GetString(handle Handle) (s string, ok bool) {
	p, ok := h.get(handle, TypeString)
	if !ok {
		return "", false
	}
	return p.(stringObj).s, true
}

// IsBigString reports whether the string at handle was flagged "big" (see
// MakeString). It is used by the serializer to decide whether to write the
// bytes into the bump buffer or the big-string blob.
func (h *Heap) IsBigString(handle Handle) bool {
	p, ok := h.get(handle, TypeString)
	if !ok {
		return false
	}
	return p.(stringObj).big
}

// StringEqual reports whether a and b are both strings with identical
// contents.
func (h *Heap) StringEqual(a, b Handle) bool {
	sa, ok := h.GetString(a)
	if !ok {
		return false
	}
	sb, ok := h.GetString(b)
	if !ok {
		return false
	}
	return sa == sb
}
