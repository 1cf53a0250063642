package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"muon.build/muon/internal/option"
)

func TestVerbsDispatchTable(t *testing.T) {
	v := verbs()
	for _, name := range []string{"setup", "configure", "compile", "test", "install", "subprojects", "internal"} {
		if _, ok := v[name]; !ok {
			t.Errorf("verbs(): missing entry for %q", name)
		}
	}
	if _, ok := v["bogus"]; ok {
		t.Errorf("verbs(): unexpected entry for %q", "bogus")
	}
}

func TestMuonDataDir(t *testing.T) {
	got := muonDataDir("/tmp/build")
	want := "/tmp/build/.muon"
	if got != want {
		t.Errorf("muonDataDir() = %q, want %q", got, want)
	}
}

func TestDefineBuiltinOptionsNoDuplicateDefine(t *testing.T) {
	r := option.NewRegistry()
	if err := defineBuiltinOptions(r); err != nil {
		t.Fatalf("defineBuiltinOptions: %v", err)
	}
	for _, name := range []string{"buildtype", "default_library", "warning_level", "werror", "prefix", "c_std"} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("defineBuiltinOptions: %q not defined", name)
		}
	}
}

func TestParseDOptionsSetsValue(t *testing.T) {
	r := option.NewRegistry()
	if err := defineBuiltinOptions(r); err != nil {
		t.Fatalf("defineBuiltinOptions: %v", err)
	}
	if err := parseDOptions(r, []string{"prefix=/opt/foo"}); err != nil {
		t.Fatalf("parseDOptions: %v", err)
	}
	got, ok := r.Get("prefix")
	if !ok || got != "/opt/foo" {
		t.Errorf("prefix = %v, %v, want /opt/foo, true", got, ok)
	}
}

func TestParseDOptionsRejectsMissingEquals(t *testing.T) {
	r := option.NewRegistry()
	if err := defineBuiltinOptions(r); err != nil {
		t.Fatalf("defineBuiltinOptions: %v", err)
	}
	if err := parseDOptions(r, []string{"prefix"}); err == nil {
		t.Errorf("parseDOptions(%q): expected error, got nil", "prefix")
	}
}

func TestStringOptionMissingReturnsEmpty(t *testing.T) {
	r := option.NewRegistry()
	if got := stringOption(r, "nonexistent"); got != "" {
		t.Errorf("stringOption(missing) = %q, want empty", got)
	}
}

func TestIsUnimplementedMatchesSentinel(t *testing.T) {
	if !isUnimplemented(errUnimplementedParser) {
		t.Errorf("isUnimplemented(errUnimplementedParser) = false, want true")
	}
	if isUnimplemented(nil) {
		t.Errorf("isUnimplemented(nil) = true, want false")
	}
}

func TestFsLocatorFindsMesonBuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meson.build")
	if err := os.WriteFile(path, []byte("project('t')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ast, label, err := fsLocator{}.Locate(dir)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if label != path {
		t.Errorf("Locate() label = %q, want %q", label, path)
	}
	if ast == nil {
		t.Errorf("Locate() ast = nil, want non-nil opaque handle")
	}
}

func TestFsLocatorMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := (fsLocator{}).Locate(dir); err == nil {
		t.Errorf("Locate(%s): expected error for missing meson.build", dir)
	}
}

func TestUnimplementedCompilerReturnsSentinel(t *testing.T) {
	_, err := unimplementedCompiler{}.Compile(nil, 0)
	if err != errUnimplementedParser {
		t.Errorf("unimplementedCompiler.Compile() err = %v, want %v", err, errUnimplementedParser)
	}
}

// TestWriteExeDataRoundTrip exercises the internal-exe side channel
// end to end: writeExeData encodes argv/env/dir, cmdInternalExe decodes
// and execs them, confirming the two halves of the custom_target()
// non-Ninja-safe-command path agree on wire format.
func TestWriteExeDataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "exe.dat")
	if err := writeExeData(dataPath, []string{"echo", "hello"}, []string{"FOO=bar"}, dir); err != nil {
		t.Fatalf("writeExeData: %v", err)
	}
	if err := cmdInternalExe(context.Background(), []string{dataPath}); err != nil {
		t.Fatalf("cmdInternalExe: %v", err)
	}
}

func TestCmdInternalUnknownSubMode(t *testing.T) {
	if err := cmdInternal(context.Background(), []string{"bogus"}); err == nil {
		t.Errorf("cmdInternal(bogus): expected error, got nil")
	}
}

func TestCmdInternalRequiresArgs(t *testing.T) {
	if err := cmdInternal(context.Background(), nil); err == nil {
		t.Errorf("cmdInternal(nil): expected error, got nil")
	}
}
