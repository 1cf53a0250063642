package ninjawriter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddRuleDedupsByCommand(t *testing.T) {
	w := NewWriter()
	n1 := w.AddRule(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	n2 := w.AddRule(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	if n1 != n2 {
		t.Errorf("identical rules got different names: %q vs %q", n1, n2)
	}
	if len(w.rules) != 1 {
		t.Errorf("got %d rules, want 1 (deduped)", len(w.rules))
	}
}

func TestAddRuleSuffixesOnCollision(t *testing.T) {
	w := NewWriter()
	n1 := w.AddRule(Rule{Name: "cc", Command: "gcc -c $in -o $out"})
	n2 := w.AddRule(Rule{Name: "cc", Command: "clang -c $in -o $out"})
	if n1 == n2 {
		t.Fatalf("distinct rules got the same name %q", n1)
	}
	if n2 != "cc_2" {
		t.Errorf("second rule name = %q, want cc_2", n2)
	}
}

func TestAddBuildHoistsMultipleOrderDeps(t *testing.T) {
	w := NewWriter()
	w.AddBuild(Build{
		Rule:            "link",
		Outputs:         []string{"out/prog"},
		Inputs:          []string{"a.o"},
		OrderOnlyInputs: []string{"gen1.h", "gen2.h"},
	})
	if len(w.builds) != 2 {
		t.Fatalf("got %d build statements, want 2 (phony hoist + real build)", len(w.builds))
	}
	phony := w.builds[0]
	if phony.Rule != "phony" || len(phony.Inputs) != 2 {
		t.Errorf("phony hoist = %+v", phony)
	}
	real := w.builds[1]
	if len(real.OrderOnlyInputs) != 0 {
		t.Errorf("real build still carries order deps: %+v", real.OrderOnlyInputs)
	}
	if len(real.ImplicitInputs) != 1 || real.ImplicitInputs[0] != "out/prog-order_deps" {
		t.Errorf("real build implicit deps = %v, want [out/prog-order_deps]", real.ImplicitInputs)
	}
}

func TestAddBuildSingleOrderDepNotHoisted(t *testing.T) {
	w := NewWriter()
	w.AddBuild(Build{Rule: "link", Outputs: []string{"out/prog"}, OrderOnlyInputs: []string{"gen1.h"}})
	if len(w.builds) != 1 {
		t.Fatalf("got %d build statements, want 1 (no hoist needed)", len(w.builds))
	}
	if len(w.builds[0].OrderOnlyInputs) != 1 {
		t.Errorf("single order dep should stay inline: %+v", w.builds[0])
	}
}

func TestEscapeSpacesAndDollars(t *testing.T) {
	got := escape("path with space/$file")
	want := "path$ with$ space/$$file"
	if got != want {
		t.Errorf("escape() = %q, want %q", got, want)
	}
}

func TestWriteToProducesRuleAndBuildLines(t *testing.T) {
	w := NewWriter()
	w.AddRule(Rule{Name: "cc", Command: "gcc -c $in -o $out", Deps: "gcc", Depfile: "$out.d"})
	w.AddBuild(Build{Rule: "cc", Outputs: []string{"a.o"}, Inputs: []string{"a.c"}})
	w.AddDefault("a.o")

	var buf bytes.Buffer
	if err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"rule cc", "deps = gcc", "depfile = $out.d", "build a.o: cc a.c", "default a.o"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestWriteFileAtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.ninja")

	w := NewWriter()
	w.AddBuild(Build{Rule: "phony", Outputs: []string{"all"}})
	if err := w.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, ".*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover temp files after WriteFile: %v", entries)
	}
}
