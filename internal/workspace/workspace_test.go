package workspace

import (
	"bytes"
	"testing"
)

func TestPushPopProjectRestoresCurrent(t *testing.T) {
	w := New(nil, "/src", "/build")
	if w.Current() != w.Root() {
		t.Fatalf("Current should start at root project")
	}
	sub := &Project{Name: "libfoo", Subproject: "libfoo"}
	prev := 0
	idx := w.PushProject(sub)
	if w.Current() != sub {
		t.Fatalf("Current should be the pushed subproject")
	}
	w.PopProject(prev)
	if w.Current() != w.Root() {
		t.Fatalf("Current should be restored to root after PopProject")
	}
	if idx != 1 {
		t.Errorf("PushProject index = %d, want 1", idx)
	}
}

func TestPopProjectInvalidIndexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid PopProject index")
		}
	}()
	w := New(nil, "/src", "/build")
	w.PopProject(99)
}

func TestFrameStackPushPop(t *testing.T) {
	w := New(nil, "/src", "/build")
	w.PushFrame(Frame{Function: "executable", File: "meson.build", Line: 3})
	w.PushFrame(Frame{Function: "shared_library", File: "sub/meson.build", Line: 10})
	bt := w.Backtrace()
	if len(bt) != 2 || bt[1].Function != "shared_library" {
		t.Fatalf("Backtrace = %+v", bt)
	}
	w.PopFrame()
	if len(w.Backtrace()) != 1 {
		t.Fatalf("expected one frame remaining after PopFrame")
	}
}

func TestPopFrameEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping an empty call stack")
		}
	}()
	w := New(nil, "/src", "/build")
	w.PopFrame()
}

func TestRegenerateDepsDeduplicate(t *testing.T) {
	w := New(nil, "/src", "/build")
	w.AddRegenerateDep("meson.build")
	w.AddRegenerateDep("meson.build")
	w.AddRegenerateDep("sub/meson.build")
	deps := w.RegenerateManifest()
	if len(deps) != 2 {
		t.Errorf("RegenerateManifest = %v, want 2 unique entries", deps)
	}
}

func TestAtExitRunsInOrderAndStopsOnError(t *testing.T) {
	w := New(nil, "/src", "/build")
	var ran []int
	w.RegisterAtExit(func() error { ran = append(ran, 1); return nil })
	w.RegisterAtExit(func() error { ran = append(ran, 2); return errFailing })
	w.RegisterAtExit(func() error { ran = append(ran, 3); return nil })

	if err := w.RunAtExit(); err != errFailing {
		t.Fatalf("RunAtExit() err = %v, want errFailing", err)
	}
	if len(ran) != 2 {
		t.Errorf("ran = %v, want hooks 1 and 2 only", ran)
	}
}

func TestRegisterAtExitAfterCloseCausesPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering an at-exit hook after RunAtExit")
		}
	}()
	w := New(nil, "/src", "/build")
	if err := w.RunAtExit(); err != nil {
		t.Fatal(err)
	}
	w.RegisterAtExit(func() error { return nil })
}

func TestCompilerCheckCacheRoundTrip(t *testing.T) {
	cache := map[string]CompilerCheckResult{
		"has_header:stdio.h": {Key: "has_header:stdio.h", Output: "", Ok: true},
		"sizeof:int":         {Key: "sizeof:int", Output: "4", Ok: true},
	}
	var buf bytes.Buffer
	if err := DumpCompilerCheckCache(&buf, cache); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCompilerCheckCache(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got["has_header:stdio.h"].Ok || got["sizeof:int"].Output != "4" {
		t.Errorf("round-tripped cache = %+v", got)
	}
}

var errFailing = errFail{}

type errFail struct{}

func (errFail) Error() string { return "failing hook" }
