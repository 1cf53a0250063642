package toolchain

import "testing"

func TestInvokeBuiltinGCC(t *testing.T) {
	c := &Compiler{Kind: KindGCC}
	got, err := c.Invoke("include", "/usr/include/foo")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"-I/usr/include/foo"}; !equalSlices(got, want) {
		t.Errorf("Invoke(include) = %v, want %v", got, want)
	}
	got, err = c.Invoke("warning_lvl", "3")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"-Wall", "-Wextra", "-Wpedantic"}; !equalSlices(got, want) {
		t.Errorf("Invoke(warning_lvl, 3) = %v, want %v", got, want)
	}
}

func TestInvokeBuiltinMSVC(t *testing.T) {
	c := &Compiler{Kind: KindMSVC}
	got, err := c.Invoke("include", `C:\include\foo`)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{`/IC:\include\foo`}; !equalSlices(got, want) {
		t.Errorf("Invoke(include) = %v, want %v", got, want)
	}
}

func TestOverrideTakesPriorityOverBuiltin(t *testing.T) {
	c := &Compiler{
		Kind: KindGCC,
		CompilerOverrides: map[string]Handler{
			"include": func(a ...string) []string { return []string{"-iquote", a[0]} },
		},
	}
	got, err := c.Invoke("include", "dir")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"-iquote", "dir"}; !equalSlices(got, want) {
		t.Errorf("Invoke(include) with override = %v, want %v", got, want)
	}
}

func TestInvokeUnknownHandlerErrors(t *testing.T) {
	c := &Compiler{Kind: KindGCC}
	if _, err := c.Invoke("nonexistent_handler"); err == nil {
		t.Error("expected error for unknown handler")
	}
}

func TestLinkerWholeArchiveWrapsArgs(t *testing.T) {
	c := &Compiler{Kind: KindGCC}
	got, err := c.InvokeLinker("whole_archive", "libfoo.a")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-Wl,--whole-archive", "libfoo.a", "-Wl,--no-whole-archive"}
	if !equalSlices(got, want) {
		t.Errorf("InvokeLinker(whole_archive) = %v, want %v", got, want)
	}
}

func TestStaticLinkerBuiltin(t *testing.T) {
	c := &Compiler{Kind: KindMSVC}
	got, err := c.InvokeStaticLinker("input_output", "a.obj", "b.obj", "out.lib")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.obj", "b.obj", "/OUT:out.lib"}
	if !equalSlices(got, want) {
		t.Errorf("InvokeStaticLinker(input_output) = %v, want %v", got, want)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
