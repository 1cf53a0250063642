package objheap

// dictObj is an insertion-ordered mapping from handle to handle. String
// keys (the overwhelmingly common case) are additionally indexed for O(1)
// lookup; non-string keys fall back to a linear scan, which is acceptable
// because Meson dicts are essentially always string-keyed.
type dictObj struct {
	keys   []Handle
	vals   []Handle
	strIdx map[string]int // string key -> index into keys/vals
}

// MakeDict allocates an empty dict object.
func (h *Heap) MakeDict() Handle {
	return h.alloc(TypeDict, &dictObj{strIdx: make(map[string]int)})
}

func (h *Heap) dict(handle Handle) (*dictObj, bool) {
	p, ok := h.get(handle, TypeDict)
	if !ok {
		return nil, false
	}
	return p.(*dictObj), true
}

func (h *Heap) dictFind(d *dictObj, key Handle) int {
	if h.TypeOf(key) == TypeString {
		s, _ := h.GetString(key)
		if idx, ok := d.strIdx[s]; ok {
			return idx
		}
		return -1
	}
	for i, k := range d.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// DictSet inserts or overwrites the value for key, preserving the
// position of an existing key (Meson dict semantics: insertion order of
// first assignment, later assignments update value in place).
func (h *Heap) DictSet(handle, key, value Handle) {
	d, ok := h.dict(handle)
	if !ok {
		return
	}
	if idx := h.dictFind(d, key); idx >= 0 {
		d.vals[idx] = value
		return
	}
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, value)
	if h.TypeOf(key) == TypeString {
		s, _ := h.GetString(key)
		d.strIdx[s] = len(d.keys) - 1
	}
}

// DictGet looks up key in the dict at handle.
func (h *Heap) DictGet(handle, key Handle) (Handle, bool) {
	d, ok := h.dict(handle)
	if !ok {
		return Null, false
	}
	idx := h.dictFind(d, key)
	if idx < 0 {
		return Null, false
	}
	return d.vals[idx], true
}

// DictGetStr is a convenience wrapper for the common case of a string key.
func (h *Heap) DictGetStr(handle Handle, key string) (Handle, bool) {
	d, ok := h.dict(handle)
	if !ok {
		return Null, false
	}
	idx, ok := d.strIdx[key]
	if !ok {
		return Null, false
	}
	return d.vals[idx], true
}

// DictHas reports whether key is present in the dict at handle.
func (h *Heap) DictHas(handle, key Handle) bool {
	_, ok := h.DictGet(handle, key)
	return ok
}

// DictLen reports the number of entries in the dict at handle.
func (h *Heap) DictLen(handle Handle) int {
	d, ok := h.dict(handle)
	if !ok {
		return 0
	}
	return len(d.keys)
}

// DictForeach visits every entry in insertion order, stopping early if fn
// returns false.
func (h *Heap) DictForeach(handle Handle, fn func(key, value Handle) bool) {
	d, ok := h.dict(handle)
	if !ok {
		return
	}
	for i, k := range d.keys {
		if !fn(k, d.vals[i]) {
			return
		}
	}
}
