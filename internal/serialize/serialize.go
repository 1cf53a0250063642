// Package serialize implements muon's object-graph dump/load format: an
// 8-byte magic, a format version, a string bump-buffer, a big-string
// blob, and an object table referencing strings by offset into whichever
// blob holds them.
//
// The design is lifted from ninja's deps/build logs (maruel/ginja's
// deps_log.go, build_log.go): a magic-signature-and-version-prefixed
// binary stream that can be read fully into memory at startup, with
// string content kept in a side table rather than inline (each string
// object is written there separately; equal strings are not merged). Ninja's logs are append-only streams of two fixed record
// kinds (paths and dependency lists); this format generalizes that idea
// to an arbitrary value graph (strings, arrays, dicts) rather than two
// hardcoded record shapes, since a workspace's persisted state (install
// manifests, option values, the summary dict) is general Meson data, not
// a fixed dependency-log schema.
//
// Only the value types — null, bool, number, string, array, dict — are
// persisted. The richer typed objects (build targets, compilers,
// dependencies, …) hold live process and filesystem state that does not
// survive a dump/load round trip meaningfully, so a caller that needs to
// persist workspace state first projects it down to plain values (an
// install manifest is already a dict of strings and arrays; so is the
// summary dict and the option-info table) before calling Dump.
package serialize

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"muon.build/muon/internal/objheap"
)

const (
	magic         = "muondump"
	formatVersion = 7
)

const (
	flagBigString = 1 << 0
)

// Dump writes the value subgraph rooted at root (from h) to w in muon's
// binary dump format.
func Dump(w io.Writer, h *objheap.Heap, root objheap.Handle) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(formatVersion)); err != nil {
		return err
	}

	var bump []byte     // small-string bump buffer, length-prefixed buckets
	var bigBlob []byte  // concatenated big-string bytes
	type strLoc struct {
		offset uint64
		length uint64
		big    bool
	}
	locs := make(map[objheap.Handle]strLoc, h.Len())

	n := h.Len()
	for i := 1; i <= n; i++ {
		handle := objheap.Handle(i)
		if h.TypeOf(handle) != objheap.TypeString {
			continue
		}
		s, _ := h.GetString(handle)
		if h.IsBigString(handle) {
			locs[handle] = strLoc{offset: uint64(len(bigBlob)), length: uint64(len(s)), big: true}
			bigBlob = append(bigBlob, s...)
		} else {
			var lenBuf [4]byte
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
			locs[handle] = strLoc{offset: uint64(len(bump)), length: uint64(len(s))}
			bump = append(bump, lenBuf[:]...)
			bump = append(bump, s...)
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(bump))); err != nil {
		return err
	}
	if _, err := bw.Write(bump); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(bigBlob))); err != nil {
		return err
	}
	if _, err := bw.Write(bigBlob); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(root)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(n)); err != nil {
		return err
	}

	for i := 1; i <= n; i++ {
		handle := objheap.Handle(i)
		tag := h.TypeOf(handle)
		if err := bw.WriteByte(byte(tag)); err != nil {
			return err
		}
		switch tag {
		case objheap.TypeBool:
			v, _ := h.GetBool(handle)
			b := byte(0)
			if v {
				b = 1
			}
			if err := bw.WriteByte(b); err != nil {
				return err
			}
		case objheap.TypeNumber:
			v, _ := h.GetNumber(handle)
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				return err
			}
		case objheap.TypeString:
			loc := locs[handle]
			flags := byte(0)
			if loc.big {
				flags = flagBigString
			}
			if err := binary.Write(bw, binary.LittleEndian, loc.offset); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, loc.length); err != nil {
				return err
			}
			if err := bw.WriteByte(flags); err != nil {
				return err
			}
		case objheap.TypeArray:
			elems := h.ArrayToSlice(handle)
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(elems))); err != nil {
				return err
			}
			for _, e := range elems {
				if err := binary.Write(bw, binary.LittleEndian, uint32(e)); err != nil {
					return err
				}
			}
		case objheap.TypeDict:
			var keys, vals []objheap.Handle
			h.DictForeach(handle, func(k, v objheap.Handle) bool {
				keys = append(keys, k)
				vals = append(vals, v)
				return true
			})
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(keys))); err != nil {
				return err
			}
			for i := range keys {
				if err := binary.Write(bw, binary.LittleEndian, uint32(keys[i])); err != nil {
					return err
				}
				if err := binary.Write(bw, binary.LittleEndian, uint32(vals[i])); err != nil {
					return err
				}
			}
		case objheap.TypeNull:
			// no payload
		default:
			return fmt.Errorf("serialize: cannot dump typed object of kind %v (handle %d): only value types are serializable", tag, handle)
		}
	}

	return bw.Flush()
}

// Load reads a dump produced by Dump and returns a fresh scratch heap
// plus the root handle within it. Callers must deep-clone the root into
// their own workspace's heap (objheap.Clone) rather than retaining the
// scratch heap directly, so that a corrupt or foreign dump can never
// graft live bucket pointers into running state.
func Load(r io.Reader) (scratch *objheap.Heap, root objheap.Handle, err error) {
	br := bufio.NewReader(r)

	gotMagic := make([]byte, len(magic))
	if _, err := io.ReadFull(br, gotMagic); err != nil {
		return nil, objheap.Null, fmt.Errorf("serialize: reading magic: %w", err)
	}
	if string(gotMagic) != magic {
		return nil, objheap.Null, fmt.Errorf("serialize: bad magic %q, want %q", gotMagic, magic)
	}

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, objheap.Null, fmt.Errorf("serialize: reading version: %w", err)
	}
	if version != formatVersion {
		return nil, objheap.Null, fmt.Errorf("serialize: format version %d, want %d", version, formatVersion)
	}

	var bumpLen uint64
	if err := binary.Read(br, binary.LittleEndian, &bumpLen); err != nil {
		return nil, objheap.Null, err
	}
	bump := make([]byte, bumpLen)
	if _, err := io.ReadFull(br, bump); err != nil {
		return nil, objheap.Null, fmt.Errorf("serialize: reading bump buffer: %w", err)
	}

	var bigLen uint64
	if err := binary.Read(br, binary.LittleEndian, &bigLen); err != nil {
		return nil, objheap.Null, err
	}
	bigBlob := make([]byte, bigLen)
	if _, err := io.ReadFull(br, bigBlob); err != nil {
		return nil, objheap.Null, fmt.Errorf("serialize: reading big-string blob: %w", err)
	}

	var rootHandle, count uint32
	if err := binary.Read(br, binary.LittleEndian, &rootHandle); err != nil {
		return nil, objheap.Null, err
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, objheap.Null, err
	}

	h := objheap.New()
	// remap[i] is the handle the i'th serialized object ends up at in h.
	// A container's elements can have a *higher* serialized handle number
	// than the container itself (an array created before an element is
	// pushed into it retains its earlier handle), so arrays/dicts are
	// decoded in two passes: first every record is allocated (creating
	// empty containers as placeholders), then a second pass resolves each
	// container's element/key/value references once every handle in the
	// dump is known to exist in remap.
	remap := make(map[uint32]objheap.Handle, count)

	type pendingArray struct {
		handle objheap.Handle
		refs   []uint32
	}
	type pendingDict struct {
		handle  objheap.Handle
		keyRefs []uint32
		valRefs []uint32
	}
	var pendingArrays []pendingArray
	var pendingDicts []pendingDict

	for i := uint32(1); i <= count; i++ {
		tagByte, err := br.ReadByte()
		if err != nil {
			return nil, objheap.Null, err
		}
		tag := objheap.Type(tagByte)
		switch tag {
		case objheap.TypeNull:
			remap[i] = objheap.Null
		case objheap.TypeBool:
			b, err := br.ReadByte()
			if err != nil {
				return nil, objheap.Null, err
			}
			remap[i] = h.MakeBool(b != 0)
		case objheap.TypeNumber:
			var v int64
			if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
				return nil, objheap.Null, err
			}
			remap[i] = h.MakeNumber(v)
		case objheap.TypeString:
			var offset, length uint64
			var flags byte
			if err := binary.Read(br, binary.LittleEndian, &offset); err != nil {
				return nil, objheap.Null, err
			}
			if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
				return nil, objheap.Null, err
			}
			if flags, err = br.ReadByte(); err != nil {
				return nil, objheap.Null, err
			}
			var s string
			if flags&flagBigString != 0 {
				if offset+length > uint64(len(bigBlob)) {
					return nil, objheap.Null, fmt.Errorf("serialize: big-string offset out of range")
				}
				s = string(bigBlob[offset : offset+length])
			} else {
				if offset+4+length > uint64(len(bump)) {
					return nil, objheap.Null, fmt.Errorf("serialize: bump-buffer offset out of range")
				}
				s = string(bump[offset+4 : offset+4+length])
			}
			remap[i] = h.MakeString(s)
		case objheap.TypeArray:
			var elemCount uint32
			if err := binary.Read(br, binary.LittleEndian, &elemCount); err != nil {
				return nil, objheap.Null, err
			}
			refs := make([]uint32, elemCount)
			for j := range refs {
				if err := binary.Read(br, binary.LittleEndian, &refs[j]); err != nil {
					return nil, objheap.Null, err
				}
			}
			arr := h.MakeArray()
			remap[i] = arr
			pendingArrays = append(pendingArrays, pendingArray{handle: arr, refs: refs})
		case objheap.TypeDict:
			var pairCount uint32
			if err := binary.Read(br, binary.LittleEndian, &pairCount); err != nil {
				return nil, objheap.Null, err
			}
			keyRefs := make([]uint32, pairCount)
			valRefs := make([]uint32, pairCount)
			for j := range keyRefs {
				if err := binary.Read(br, binary.LittleEndian, &keyRefs[j]); err != nil {
					return nil, objheap.Null, err
				}
				if err := binary.Read(br, binary.LittleEndian, &valRefs[j]); err != nil {
					return nil, objheap.Null, err
				}
			}
			d := h.MakeDict()
			remap[i] = d
			pendingDicts = append(pendingDicts, pendingDict{handle: d, keyRefs: keyRefs, valRefs: valRefs})
		default:
			return nil, objheap.Null, fmt.Errorf("serialize: dump contains non-value type %v at record %d", tag, i)
		}
	}

	for _, pa := range pendingArrays {
		for _, ref := range pa.refs {
			h.ArrayPush(pa.handle, remap[ref])
		}
	}
	for _, pd := range pendingDicts {
		for j := range pd.keyRefs {
			h.DictSet(pd.handle, remap[pd.keyRefs[j]], remap[pd.valRefs[j]])
		}
	}

	return h, remap[rootHandle], nil
}
