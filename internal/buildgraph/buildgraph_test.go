package buildgraph

import (
	"testing"

	"muon.build/muon/internal/depresolver"
	"muon.build/muon/internal/option"
	"muon.build/muon/internal/toolchain"
)

func testRegistry(t *testing.T) *option.Registry {
	t.Helper()
	r := option.NewRegistry()
	defs := []option.Option{
		{Name: "c_std", Type: option.TypeCombo, Default: "c11"},
		{Name: "buildtype", Type: option.TypeCombo, Default: "debug"},
		{Name: "optimization", Type: option.TypeCombo, Default: "0"},
		{Name: "debug", Type: option.TypeBool, Default: true},
		{Name: "warning_level", Type: option.TypeCombo, Default: "1"},
		{Name: "werror", Type: option.TypeBool, Default: false},
		{Name: "b_sanitize", Type: option.TypeCombo, Default: "none"},
		{Name: "b_lto", Type: option.TypeBool, Default: false},
		{Name: "b_coverage", Type: option.TypeBool, Default: false},
		{Name: "b_pgo", Type: option.TypeCombo, Default: "off"},
		{Name: "b_vscrt", Type: option.TypeCombo, Default: ""},
		{Name: "b_colorout", Type: option.TypeCombo, Default: ""},
	}
	for _, d := range defs {
		if err := r.Define(d); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestPrepareStepOrder(t *testing.T) {
	p := &Project{Options: testRegistry(t)}
	c := &toolchain.Compiler{Kind: toolchain.KindGCC}
	tgt := &Target{
		Name:        "prog",
		IncludeDirs: []IncludeDir{{Path: "include"}},
		Deps: []depresolver.Dependency{
			{Name: "zlib", Dep: depresolver.BuildDep{CompileArgs: []string{"-DHAVE_ZLIB"}}},
		},
		ExtraArgs: map[string][]string{"c": {"-DFOO"}},
		PIC:       true,
	}
	if err := Prepare(p, tgt, "c", c); err != nil {
		t.Fatal(err)
	}
	args := tgt.ProcessedArgs["c"]

	mustContainInOrder(t, args, []string{"-std=c11"}, "std flag")
	mustContainInOrder(t, args, []string{"-Iinclude"}, "include flag")
	mustContainInOrder(t, args, []string{"-DHAVE_ZLIB"}, "dependency compile arg")
	mustContainInOrder(t, args, []string{"-DFOO"}, "target-specific arg")
	mustContainInOrder(t, args, []string{"-fPIC"}, "pic flag")

	idxStd := indexOf(args, "-std=c11")
	idxInc := indexOf(args, "-Iinclude")
	idxDep := indexOf(args, "-DHAVE_ZLIB")
	idxExtra := indexOf(args, "-DFOO")
	idxPIC := indexOf(args, "-fPIC")
	if !(idxStd < idxInc && idxInc < idxDep && idxDep < idxExtra && idxExtra < idxPIC) {
		t.Errorf("args out of step order: %v", args)
	}
}

func TestPrepareGeneratedInclude(t *testing.T) {
	dir := t.TempDir() + "/gen"
	p := &Project{Options: testRegistry(t)}
	c := &toolchain.Compiler{Kind: toolchain.KindGCC}
	tgt := &Target{GeneratedInclude: true, PrivateDir: dir}
	if err := Prepare(p, tgt, "c", c); err != nil {
		t.Fatal(err)
	}
	if len(tgt.IncludeDirs) != 1 || tgt.IncludeDirs[0].Path != dir {
		t.Errorf("IncludeDirs = %v, want private dir prepended", tgt.IncludeDirs)
	}
}

func TestSetupLinkerArgsSharedLibrary(t *testing.T) {
	p := &Project{Options: testRegistry(t)}
	c := &toolchain.Compiler{Kind: toolchain.KindGCC}
	tgt := &Target{
		Kind:     KindSharedLibrary,
		LinkWith: []string{"liba.so", "liba.so"},
		Soname:   "libfoo.so.1",
	}
	if err := SetupLinkerArgs(p, tgt, c); err != nil {
		t.Fatal(err)
	}
	if len(tgt.LinkWith) != 1 {
		t.Errorf("LinkWith not deduped: %v", tgt.LinkWith)
	}
	if indexOf(tgt.LinkerArgs, "-shared") == -1 {
		t.Errorf("expected -shared in linker args: %v", tgt.LinkerArgs)
	}
	if idx := indexOf(tgt.LinkerArgs, "-Wl,-soname,libfoo.so.1"); idx == -1 {
		t.Errorf("expected soname flag in linker args: %v", tgt.LinkerArgs)
	}
}

func TestSetupLinkerArgsSharedModule(t *testing.T) {
	p := &Project{Options: testRegistry(t)}
	c := &toolchain.Compiler{Kind: toolchain.KindGCC}
	tgt := &Target{Kind: KindSharedModule}
	if err := SetupLinkerArgs(p, tgt, c); err != nil {
		t.Fatal(err)
	}
	if indexOf(tgt.LinkerArgs, "-Wl,--no-undefined") != -1 {
		t.Errorf("shared modules must not get no_undefined: %v", tgt.LinkerArgs)
	}
	if indexOf(tgt.LinkerArgs, "-shared") != -1 {
		t.Errorf("shared modules must not emit plain -shared: %v", tgt.LinkerArgs)
	}
}

func mustContainInOrder(t *testing.T, args []string, want []string, label string) {
	t.Helper()
	for _, w := range want {
		if indexOf(args, w) == -1 {
			t.Errorf("%s: missing %q in %v", label, w, args)
		}
	}
}

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}
