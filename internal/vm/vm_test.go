package vm

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"muon.build/muon/internal/objheap"
)

func TestPushConstAndHalt(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Consts: []objheap.Handle{h.MakeNumber(42)},
		Instructions: []Instruction{
			{Op: OpPushConst, A: 0},
			{Op: OpHalt},
		},
	}
	m := New(h, p)
	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n, ok := h.GetNumber(res)
	if !ok || n != 42 {
		t.Errorf("result = %v, want 42", n)
	}
}

func TestMakeArrayAndIndex(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Consts: []objheap.Handle{h.MakeNumber(10), h.MakeNumber(20), h.MakeNumber(0)},
		Instructions: []Instruction{
			{Op: OpPushConst, A: 0},
			{Op: OpPushConst, A: 1},
			{Op: OpMakeArray, A: 2},
			{Op: OpPushConst, A: 2}, // index 0
			{Op: OpIndex},
			{Op: OpHalt},
		},
	}
	m := New(h, p)
	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n, _ := h.GetNumber(res)
	if n != 10 {
		t.Errorf("arr[0] = %v, want 10", n)
	}
}

func TestCallBuiltinDispatches(t *testing.T) {
	h := objheap.New()
	nameConst := h.MakeString("my_builtin")
	argConst := h.MakeNumber(7)
	p := &Program{
		Consts: []objheap.Handle{nameConst, argConst},
		Instructions: []Instruction{
			{Op: OpPushConst, A: 1},
			{Op: OpCallBuiltin, A: 0, B: 1},
			{Op: OpHalt},
		},
	}
	m := New(h, p)
	called := false
	m.Builtins["my_builtin"] = func(mm *Machine, args []objheap.Handle, kwargs objheap.Handle) (objheap.Handle, error) {
		called = true
		n, _ := mm.Heap.GetNumber(args[0])
		return mm.Heap.MakeNumber(n * 2), nil
	}
	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("builtin was not invoked")
	}
	n, _ := h.GetNumber(res)
	if n != 14 {
		t.Errorf("result = %v, want 14", n)
	}
}

func TestCallFuncReturnsToCaller(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Consts: []objheap.Handle{h.MakeNumber(5)},
		Instructions: []Instruction{
			{Op: OpCallFunc, A: 3, B: 0}, // jump to function at index 3
			{Op: OpHalt},
			{Op: OpNop}, // padding, unreachable
			{Op: OpPushConst, A: 0}, // function body: push 5
			{Op: OpReturn},
		},
	}
	m := New(h, p)
	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n, _ := h.GetNumber(res)
	if n != 5 {
		t.Errorf("result = %v, want 5", n)
	}
}

func TestICountBudgetExceeded(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Instructions: []Instruction{
			{Op: OpJump, A: 0}, // infinite loop
		},
	}
	m := New(h, p)
	m.Debug.ICountBudget = 10
	_, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected instruction budget error")
	}
}

func TestBreakpointTriggersOnBreak(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Files: []string{"meson.build"},
		Instructions: []Instruction{
			{Op: OpPushNull, Line: 1, FileIdx: 0},
			{Op: OpHalt, Line: 2, FileIdx: 0},
		},
	}
	m := New(h, p)
	m.SetBreakpoint("meson.build", 1)
	hit := false
	m.Debug.OnBreak = func(mm *Machine) { hit = true }
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("breakpoint did not fire")
	}
}

func TestBacktraceIncludesLiveFrame(t *testing.T) {
	h := objheap.New()
	p := &Program{
		Files: []string{"meson.build"},
		Instructions: []Instruction{
			{Op: OpHalt, Line: 5, FileIdx: 0},
		},
	}
	m := New(h, p)
	bt := m.Backtrace()
	want := []string{"<ip meson.build:5>"}
	if diff := cmp.Diff(want, bt); diff != "" {
		t.Fatalf("Backtrace() mismatch (-want +got):\n%s", diff)
	}
}
