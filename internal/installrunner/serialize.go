package installrunner

import (
	"io"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/serialize"
)

// DumpManifest writes m to w as install.dat: a dict of prefix/targets/
// scripts, each target and script reduced to plain value fields the way
// DumpTests projects a testrunner.Test down to serializable values.
func DumpManifest(w io.Writer, m Manifest) error {
	h := objheap.New()
	root := h.MakeDict()
	h.DictSet(root, h.MakeString("prefix"), h.MakeString(m.Prefix))

	targets := h.MakeArray()
	for _, t := range m.Targets {
		d := h.MakeDict()
		h.DictSet(d, h.MakeString("kind"), h.MakeNumber(int64(t.Kind)))
		h.DictSet(d, h.MakeString("src"), h.MakeString(t.Src))
		h.DictSet(d, h.MakeString("dest"), h.MakeString(t.Dest))
		h.DictSet(d, h.MakeString("mode"), h.MakeNumber(int64(t.Mode)))
		h.DictSet(d, h.MakeString("fix_rpath"), h.MakeBool(t.FixRpath))
		h.DictSet(d, h.MakeString("exclude_files"), stringArray(h, t.ExcludeFiles))
		h.DictSet(d, h.MakeString("exclude_dirs"), stringArray(h, t.ExcludeDirs))
		h.ArrayPush(targets, d)
	}
	h.DictSet(root, h.MakeString("targets"), targets)

	scripts := h.MakeArray()
	for _, s := range m.Scripts {
		d := h.MakeDict()
		h.DictSet(d, h.MakeString("argv"), stringArray(h, s.Argv))
		h.DictSet(d, h.MakeString("env"), stringArray(h, s.Env))
		h.DictSet(d, h.MakeString("skip_if_destdir"), h.MakeBool(s.SkipIfDestdir))
		h.ArrayPush(scripts, d)
	}
	h.DictSet(root, h.MakeString("scripts"), scripts)

	return serialize.Dump(w, h, root)
}

// LoadManifest reads an install.dat produced by DumpManifest.
func LoadManifest(r io.Reader) (Manifest, error) {
	h, root, err := serialize.Load(r)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	m.Prefix = dictString(h, root, "prefix")

	if targets, ok := h.DictGetStr(root, "targets"); ok {
		for _, elem := range h.ArrayToSlice(targets) {
			m.Targets = append(m.Targets, Target{
				Kind:         Kind(dictNumber(h, elem, "kind")),
				Src:          dictString(h, elem, "src"),
				Dest:         dictString(h, elem, "dest"),
				Mode:         uint32(dictNumber(h, elem, "mode")),
				FixRpath:     dictBool(h, elem, "fix_rpath"),
				ExcludeFiles: dictStrings(h, elem, "exclude_files"),
				ExcludeDirs:  dictStrings(h, elem, "exclude_dirs"),
			})
		}
	}
	if scripts, ok := h.DictGetStr(root, "scripts"); ok {
		for _, elem := range h.ArrayToSlice(scripts) {
			m.Scripts = append(m.Scripts, Script{
				Argv:          dictStrings(h, elem, "argv"),
				Env:           dictStrings(h, elem, "env"),
				SkipIfDestdir: dictBool(h, elem, "skip_if_destdir"),
			})
		}
	}
	return m, nil
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
