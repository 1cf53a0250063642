package testrunner

import (
	"io"
	"time"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/serialize"
)

// DumpTests writes tests to w in the tests.dat format: a dict with key
// "tests" mapping to an array of per-test dicts, each holding the plain
// value fields a Test carries. Richer typed objects never enter this
// path (per internal/serialize's own doc comment, only value types
// round-trip), so every field here is a string, number, bool, or array
// of those.
func DumpTests(w io.Writer, tests []Test) error {
	h := objheap.New()
	root := h.MakeDict()
	arr := h.MakeArray()
	h.DictSet(root, h.MakeString("tests"), arr)

	for _, t := range tests {
		d := h.MakeDict()
		h.DictSet(d, h.MakeString("name"), h.MakeString(t.Name))
		h.DictSet(d, h.MakeString("project"), h.MakeString(t.Project))
		h.DictSet(d, h.MakeString("workdir"), h.MakeString(t.Workdir))
		h.DictSet(d, h.MakeString("timeout_ms"), h.MakeNumber(int64(t.Timeout/time.Millisecond)))
		h.DictSet(d, h.MakeString("protocol"), h.MakeString(t.Protocol.String()))
		h.DictSet(d, h.MakeString("category"), h.MakeNumber(int64(t.Category)))
		h.DictSet(d, h.MakeString("should_fail"), h.MakeBool(t.ShouldFail))
		h.DictSet(d, h.MakeString("is_parallel"), h.MakeBool(t.IsParallel))
		h.DictSet(d, h.MakeString("priority"), h.MakeNumber(int64(t.Priority)))
		h.DictSet(d, h.MakeString("argv"), stringArray(h, t.Argv))
		h.DictSet(d, h.MakeString("env"), stringArray(h, t.Env))
		h.DictSet(d, h.MakeString("suites"), stringArray(h, t.Suites))
		h.DictSet(d, h.MakeString("depends"), stringArray(h, t.Depends))
		h.ArrayPush(arr, d)
	}

	return serialize.Dump(w, h, root)
}

// LoadTests reads a tests.dat produced by DumpTests.
func LoadTests(r io.Reader) ([]Test, error) {
	h, root, err := serialize.Load(r)
	if err != nil {
		return nil, err
	}
	arrHandle, _ := h.DictGetStr(root, "tests")
	var out []Test
	for _, elem := range h.ArrayToSlice(arrHandle) {
		var t Test
		t.Name = dictString(h, elem, "name")
		t.Project = dictString(h, elem, "project")
		t.Workdir = dictString(h, elem, "workdir")
		t.Timeout = time.Duration(dictNumber(h, elem, "timeout_ms")) * time.Millisecond
		if dictString(h, elem, "protocol") == "tap" {
			t.Protocol = ProtocolTAP
		}
		t.Category = Category(dictNumber(h, elem, "category"))
		t.ShouldFail = dictBool(h, elem, "should_fail")
		t.IsParallel = dictBool(h, elem, "is_parallel")
		t.Priority = int(dictNumber(h, elem, "priority"))
		t.Argv = dictStrings(h, elem, "argv")
		t.Env = dictStrings(h, elem, "env")
		t.Suites = dictStrings(h, elem, "suites")
		t.Depends = dictStrings(h, elem, "depends")
		out = append(out, t)
	}
	return out, nil
}

func stringArray(h *objheap.Heap, ss []string) objheap.Handle {
	arr := h.MakeArray()
	for _, s := range ss {
		h.ArrayPush(arr, h.MakeString(s))
	}
	return arr
}

func dictString(h *objheap.Heap, dict objheap.Handle, key string) string {
	v, ok := h.DictGetStr(dict, key)
	if !ok {
		return ""
	}
	s, _ := h.GetString(v)
	return s
}

func dictNumber(h *objheap.Heap, dict objheap.Handle, key string) int64 {
	v, ok := h.DictGetStr(dict, key)
	if !ok {
		return 0
	}
	n, _ := h.GetNumber(v)
	return n
}

func dictBool(h *objheap.Heap, dict objheap.Handle, key string) bool {
	v, ok := h.DictGetStr(dict, key)
	if !ok {
		return false
	}
	b, _ := h.GetBool(v)
	return b
}

func dictStrings(h *objheap.Heap, dict objheap.Handle, key string) []string {
	v, ok := h.DictGetStr(dict, key)
	if !ok {
		return nil
	}
	elems := h.ArrayToSlice(v)
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		s, _ := h.GetString(e)
		out = append(out, s)
	}
	return out
}
