package option

import "testing"

func TestSetPrecedence(t *testing.T) {
	r := NewRegistry()
	if err := r.Define(Option{Name: "foo", Type: TypeString, Default: "default-val"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("foo", "from-file", SourceDefaultFile); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("foo", "from-cli", SourceCommandline); err != nil {
		t.Fatal(err)
	}
	v, _ := r.Get("foo")
	if v != "from-cli" {
		t.Errorf("Get(foo) = %v, want from-cli", v)
	}
	// A later, lower-precedence write must not clobber the higher one.
	if err := r.Set("foo", "from-subproject-default", SourceSubprojectDefault); err != nil {
		t.Fatal(err)
	}
	v, _ = r.Get("foo")
	if v != "from-cli" {
		t.Errorf("Get(foo) after lower-precedence write = %v, want from-cli (unchanged)", v)
	}
}

func TestSetSameSourceSameValueIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Define(Option{Name: "foo", Type: TypeString, Default: ""})
	if err := r.Set("foo", "y", SourceCommandline); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("foo", "y", SourceCommandline); err != nil {
		t.Errorf("repeated identical commandline write should be a no-op, got error: %v", err)
	}
}

func TestSetSameSourceDifferentValueIsError(t *testing.T) {
	r := NewRegistry()
	r.Define(Option{Name: "foo", Type: TypeString, Default: ""})
	if err := r.Set("foo", "y", SourceCommandline); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("foo", "z", SourceCommandline); err == nil {
		t.Error("expected error for conflicting same-source writes (-Dfoo=y -Dfoo=z)")
	}
}

func TestDefineTwiceIsError(t *testing.T) {
	r := NewRegistry()
	r.Define(Option{Name: "foo", Type: TypeString})
	if err := r.Define(Option{Name: "foo", Type: TypeString}); err == nil {
		t.Error("expected error re-defining an existing option")
	}
}

func TestResolveOptimizationDebug(t *testing.T) {
	pair, ok := ResolveOptimizationDebug("debugoptimized")
	if !ok || pair.Optimization != "2" || !pair.Debug {
		t.Errorf("ResolveOptimizationDebug(debugoptimized) = %+v, %v", pair, ok)
	}
	_, ok = ResolveOptimizationDebug("custom")
	if ok {
		t.Error("ResolveOptimizationDebug(custom) should report ok=false")
	}
}

func TestCascade(t *testing.T) {
	global := NewRegistry()
	global.Define(Option{Name: "warning_level", Type: TypeCombo, Default: "1"})
	project := NewRegistry()
	project.Define(Option{Name: "warning_level", Type: TypeCombo, Default: "1"})
	project.Set("warning_level", "3", SourceDefaultFile)
	overrides := map[string]interface{}{"warning_level": "everything"}

	v, ok := Cascade("warning_level", overrides, project, global)
	if !ok || v != "everything" {
		t.Errorf("Cascade with target override = %v, %v, want everything, true", v, ok)
	}
	v, ok = Cascade("warning_level", nil, project, global)
	if !ok || v != "3" {
		t.Errorf("Cascade project-level = %v, %v, want 3, true", v, ok)
	}
}
