package objheap

import "testing"

func TestStringRoundTrip(t *testing.T) {
	h := New()
	s := h.MakeString("hello")
	got, ok := h.GetString(s)
	if !ok || got != "hello" {
		t.Fatalf("GetString() = %q, %v, want %q, true", got, ok, "hello")
	}
	if h.TypeOf(s) != TypeString {
		t.Fatalf("TypeOf() = %v, want %v", h.TypeOf(s), TypeString)
	}
}

func TestTypeNeverChanges(t *testing.T) {
	h := New()
	handles := []Handle{
		h.MakeString("a"),
		h.MakeNumber(1),
		h.MakeBool(true),
		h.MakeArray(),
		h.MakeDict(),
	}
	want := []Type{TypeString, TypeNumber, TypeBool, TypeArray, TypeDict}
	for i, hd := range handles {
		if got := h.TypeOf(hd); got != want[i] {
			t.Errorf("TypeOf(%d) = %v, want %v", hd, got, want[i])
		}
		// Mutating the heap further must not change already-assigned tags.
		h.MakeString("noise")
		if got := h.TypeOf(hd); got != want[i] {
			t.Errorf("TypeOf(%d) changed after further allocation: %v, want %v", hd, got, want[i])
		}
	}
}

func TestArrayDedupPreservesFirstOccurrence(t *testing.T) {
	h := New()
	arr := h.MakeArray()
	a := h.MakeString("a")
	b := h.MakeString("b")
	a2 := h.MakeString("a") // distinct handle, same contents
	for _, e := range []Handle{a, b, a2, b, a} {
		h.ArrayPush(arr, e)
	}
	h.ArrayDedup(arr)
	if got, want := h.ArrayLen(arr), 2; got != want {
		t.Fatalf("ArrayLen() = %d, want %d", got, want)
	}
	first, _ := h.ArrayGet(arr, 0)
	second, _ := h.ArrayGet(arr, 1)
	if first != a {
		t.Errorf("first element = %d, want original handle %d (first occurrence)", first, a)
	}
	s, _ := h.GetString(second)
	if s != "b" {
		t.Errorf("second element = %q, want %q", s, "b")
	}
}

func TestDictInsertionOrderAndOverwrite(t *testing.T) {
	h := New()
	d := h.MakeDict()
	h.DictSet(d, h.MakeString("k1"), h.MakeNumber(1))
	h.DictSet(d, h.MakeString("k2"), h.MakeNumber(2))
	h.DictSet(d, h.MakeString("k1"), h.MakeNumber(3)) // overwrite, keeps position

	var order []string
	h.DictForeach(d, func(k, v Handle) bool {
		ks, _ := h.GetString(k)
		order = append(order, ks)
		return true
	})
	if len(order) != 2 || order[0] != "k1" || order[1] != "k2" {
		t.Fatalf("iteration order = %v, want [k1 k2]", order)
	}
	v, ok := h.DictGetStr(d, "k1")
	if !ok {
		t.Fatal("DictGetStr(k1) not found")
	}
	n, _ := h.GetNumber(v)
	if n != 3 {
		t.Errorf("k1 value = %d, want 3 (overwritten)", n)
	}
}

func TestMarkRelease(t *testing.T) {
	h := New()
	h.MakeString("keep")
	before := h.Len()
	h.Mark()
	h.MakeString("scratch1")
	h.MakeArray()
	h.Release()
	if got := h.Len(); got != before {
		t.Fatalf("Len() after Release = %d, want %d", got, before)
	}
}

func TestCloneDeepCopiesArraysAndDicts(t *testing.T) {
	src := New()
	dst := New()

	arr := src.MakeArray()
	src.ArrayPush(arr, src.MakeString("x"))
	src.ArrayPush(arr, src.MakeNumber(42))

	d := src.MakeDict()
	src.DictSet(d, src.MakeString("arr"), arr)

	cloned := Clone(dst, src, d)
	if dst.TypeOf(cloned) != TypeDict {
		t.Fatalf("cloned type = %v, want dict", dst.TypeOf(cloned))
	}
	clonedArr, ok := dst.DictGetStr(cloned, "arr")
	if !ok {
		t.Fatal("cloned dict missing key arr")
	}
	if dst.ArrayLen(clonedArr) != 2 {
		t.Fatalf("cloned array len = %d, want 2", dst.ArrayLen(clonedArr))
	}
	s, _ := dst.ArrayGet(clonedArr, 0)
	str, _ := dst.GetString(s)
	if str != "x" {
		t.Errorf("cloned array[0] = %q, want x", str)
	}
	// Source heap must be untouched.
	if got := src.ArrayLen(arr); got != 2 {
		t.Errorf("source array mutated by clone, len = %d", got)
	}
}
