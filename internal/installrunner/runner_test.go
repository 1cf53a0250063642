package installrunner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunInstallsDefaultFile(t *testing.T) {
	srcDir := t.TempDir()
	destRoot := t.TempDir()

	src := filepath.Join(srcDir, "prog")
	if err := os.WriteFile(src, []byte("binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	m := Manifest{
		Prefix: "/usr",
		Targets: []Target{
			{Kind: KindDefault, Src: src, Dest: "bin/prog", Mode: 0o755},
		},
	}
	if err := Run(context.Background(), m, Options{Destdir: destRoot}); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(destRoot, "usr", "bin", "prog"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "binary" {
		t.Errorf("installed content = %q, want %q", got, "binary")
	}
}

func TestRunInstallsSubdirWithExclusion(t *testing.T) {
	srcDir := t.TempDir()
	for _, name := range []string{"keep.h", "skip.h"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	destRoot := t.TempDir()

	m := Manifest{
		Prefix: "/usr",
		Targets: []Target{
			{Kind: KindSubdir, Src: srcDir, Dest: "include/pkg", ExcludeFiles: []string{"skip.h"}},
		},
	}
	if err := Run(context.Background(), m, Options{Destdir: destRoot}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(destRoot, "usr", "include", "pkg", "keep.h")); err != nil {
		t.Errorf("keep.h missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(destRoot, "usr", "include", "pkg", "skip.h")); !os.IsNotExist(err) {
		t.Errorf("skip.h should have been excluded, stat err = %v", err)
	}
}

func TestRunInstallsSymlink(t *testing.T) {
	destRoot := t.TempDir()
	m := Manifest{
		Prefix:  "/usr",
		Targets: []Target{{Kind: KindSymlink, Src: "libfoo.so.1", Dest: "lib/libfoo.so"}},
	}
	if err := Run(context.Background(), m, Options{Destdir: destRoot}); err != nil {
		t.Fatal(err)
	}
	got, err := os.Readlink(filepath.Join(destRoot, "usr", "lib", "libfoo.so"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "libfoo.so.1" {
		t.Errorf("symlink target = %q, want %q", got, "libfoo.so.1")
	}
}

func TestRunSkipsScriptWhenDestdirSet(t *testing.T) {
	m := Manifest{
		Scripts: []Script{{Argv: []string{"/bin/false"}, SkipIfDestdir: true}},
	}
	if err := Run(context.Background(), m, Options{Destdir: t.TempDir()}); err != nil {
		t.Fatalf("expected script to be skipped, got error: %v", err)
	}
}

func TestRunFailsOnScriptNonZeroExit(t *testing.T) {
	m := Manifest{
		Scripts: []Script{{Argv: []string{"sh", "-c", "exit 1"}}},
	}
	if err := Run(context.Background(), m, Options{}); err == nil {
		t.Fatal("expected error from failing install script")
	}
}

func TestDumpLoadManifestRoundTrip(t *testing.T) {
	m := Manifest{
		Prefix: "/usr/local",
		Targets: []Target{
			{Kind: KindSubdir, Src: "a", Dest: "b", ExcludeFiles: []string{"x"}, FixRpath: true},
		},
		Scripts: []Script{{Argv: []string{"true"}, SkipIfDestdir: true}},
	}
	var buf bytes.Buffer
	if err := DumpManifest(&buf, m); err != nil {
		t.Fatal(err)
	}
	got, err := LoadManifest(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Prefix != m.Prefix || len(got.Targets) != 1 || len(got.Scripts) != 1 {
		t.Fatalf("round-tripped manifest = %+v", got)
	}
	if !got.Targets[0].FixRpath || got.Targets[0].ExcludeFiles[0] != "x" {
		t.Errorf("target = %+v", got.Targets[0])
	}
}
