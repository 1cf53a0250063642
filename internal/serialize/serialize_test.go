package serialize

import (
	"bytes"
	"strings"
	"testing"

	"muon.build/muon/internal/objheap"
)

func TestDumpLoadRoundTrip(t *testing.T) {
	h := objheap.New()
	d := h.MakeDict()
	h.DictSet(d, h.MakeString("name"), h.MakeString("muon"))
	arr := h.MakeArray()
	h.ArrayPush(arr, h.MakeNumber(1))
	h.ArrayPush(arr, h.MakeNumber(2))
	h.ArrayPush(arr, h.MakeBool(true))
	h.DictSet(d, h.MakeString("values"), arr)
	big := strings.Repeat("x", 500)
	h.DictSet(d, h.MakeString("big"), h.MakeString(big))

	var buf bytes.Buffer
	if err := Dump(&buf, h, d); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	scratch, root, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	dst := objheap.New()
	cloned := objheap.Clone(dst, scratch, root)

	if dst.TypeOf(cloned) != objheap.TypeDict {
		t.Fatalf("root type = %v, want dict", dst.TypeOf(cloned))
	}
	name, ok := dst.DictGetStr(cloned, "name")
	if !ok {
		t.Fatal("missing key name")
	}
	if s, _ := dst.GetString(name); s != "muon" {
		t.Errorf("name = %q, want muon", s)
	}
	bigHandle, ok := dst.DictGetStr(cloned, "big")
	if !ok {
		t.Fatal("missing key big")
	}
	if s, _ := dst.GetString(bigHandle); s != big {
		t.Errorf("big string round-trip mismatch, len got %d want %d", len(s), len(big))
	}
	valuesHandle, ok := dst.DictGetStr(cloned, "values")
	if !ok {
		t.Fatal("missing key values")
	}
	if dst.ArrayLen(valuesHandle) != 3 {
		t.Fatalf("values len = %d, want 3", dst.ArrayLen(valuesHandle))
	}
	n0, _ := dst.ArrayGet(valuesHandle, 0)
	if v, _ := dst.GetNumber(n0); v != 1 {
		t.Errorf("values[0] = %d, want 1", v)
	}
	n2, _ := dst.ArrayGet(valuesHandle, 2)
	if b, _ := dst.GetBool(n2); !b {
		t.Error("values[2] = false, want true")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("notmuon!" + "\x07\x00\x00\x00")
	if _, _, err := Load(buf); err == nil {
		t.Error("expected error for bad magic")
	}
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	h := objheap.New()
	root := h.MakeString("hi")
	var buf bytes.Buffer
	if err := Dump(&buf, h, root); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	data := buf.Bytes()
	// Corrupt the version field (bytes 8..12, little-endian uint32).
	data[8] = 0xff
	if _, _, err := Load(bytes.NewReader(data)); err == nil {
		t.Error("expected error for version mismatch")
	}
}
