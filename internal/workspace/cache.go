package workspace

import (
	"io"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/serialize"
)

// DumpCompilerCheckCache persists cache to w (compiler_check_cache.dat,
// §4.11), in the same objheap-dict-of-values shape
// internal/testrunner and internal/installrunner use for their own
// side-channel files.
func DumpCompilerCheckCache(w io.Writer, cache map[string]CompilerCheckResult) error {
	h := objheap.New()
	root := h.MakeDict()
	for key, res := range cache {
		entry := h.MakeDict()
		h.DictSet(entry, h.MakeString("output"), h.MakeString(res.Output))
		h.DictSet(entry, h.MakeString("ok"), h.MakeBool(res.Ok))
		h.DictSet(root, h.MakeString(key), entry)
	}
	return serialize.Dump(w, h, root)
}

// LoadCompilerCheckCache reverses DumpCompilerCheckCache.
func LoadCompilerCheckCache(r io.Reader) (map[string]CompilerCheckResult, error) {
	h, root, err := serialize.Load(r)
	if err != nil {
		return nil, err
	}
	out := map[string]CompilerCheckResult{}
	h.DictForeach(root, func(key, value objheap.Handle) bool {
		k, _ := h.GetString(key)
		var res CompilerCheckResult
		res.Key = k
		if out, ok := h.DictGetStr(value, "output"); ok {
			res.Output, _ = h.GetString(out)
		}
		if ok, present := h.DictGetStr(value, "ok"); present {
			res.Ok, _ = h.GetBool(ok)
		}
		out[k] = res
		return true
	})
	return out, nil
}

// DumpOptionInfo persists the global option registry to w
// (option_info.dat, §4.11), so a subsequent `muon configure` or
// `ninja reconfigure` can report current values without re-evaluating
// every project() file.
func DumpOptionInfo(w io.Writer, names []string, values map[string]interface{}) error {
	h := objheap.New()
	root := h.MakeDict()
	for _, name := range names {
		v := values[name]
		root = setOptionValue(h, root, name, v)
	}
	return serialize.Dump(w, h, root)
}

func setOptionValue(h *objheap.Heap, dict objheap.Handle, name string, v interface{}) objheap.Handle {
	var val objheap.Handle
	switch x := v.(type) {
	case bool:
		val = h.MakeBool(x)
	case int64:
		val = h.MakeNumber(x)
	case int:
		val = h.MakeNumber(int64(x))
	case string:
		val = h.MakeString(x)
	case []string:
		val = h.MakeArray()
		for _, s := range x {
			h.ArrayPush(val, h.MakeString(s))
		}
	default:
		val = h.MakeString("")
	}
	h.DictSet(dict, h.MakeString(name), val)
	return dict
}
