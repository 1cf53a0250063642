package testrunner

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSelectFiltersBySuite(t *testing.T) {
	tests := []Test{
		{Name: "a", Project: "proj", Suites: []string{"fast"}},
		{Name: "b", Project: "proj", Suites: []string{"slow"}},
	}
	got := Select(tests, Filter{Suites: []string{"fast"}}, nil)
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("Select = %+v, want only %q", got, "a")
	}
}

func TestSelectAppliesSetupEnvAndTimeout(t *testing.T) {
	tests := []Test{{Name: "a", Timeout: 10 * time.Second}}
	setup := &Setup{Env: []string{"FOO=bar"}, TimeoutMultiply: 2}
	got := Select(tests, Filter{}, setup)
	if len(got) != 1 {
		t.Fatalf("Select returned %d tests", len(got))
	}
	if got[0].Timeout != 20*time.Second {
		t.Errorf("Timeout = %v, want 20s", got[0].Timeout)
	}
	if len(got[0].Env) != 1 || got[0].Env[0] != "FOO=bar" {
		t.Errorf("Env = %v", got[0].Env)
	}
}

func TestSelectExcludesSetupSuites(t *testing.T) {
	tests := []Test{{Name: "a", Suites: []string{"slow"}}}
	setup := &Setup{ExcludeSuites: []string{"slow"}}
	got := Select(tests, Filter{}, setup)
	if len(got) != 0 {
		t.Fatalf("Select = %+v, want none (excluded by setup)", got)
	}
}

func TestRunnerPassAndFail(t *testing.T) {
	tests := []Test{
		{Name: "ok", Argv: []string{"true"}, IsParallel: true},
		{Name: "bad", Argv: []string{"false"}, IsParallel: true},
	}
	r := &Runner{Jobs: 2}
	report := r.Run(context.Background(), tests)
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
	if !report.Failed() {
		t.Errorf("Failed() = false, want true (one test failed)")
	}
}

func TestRunnerShouldFailInverts(t *testing.T) {
	tests := []Test{{Name: "expected-fail", Argv: []string{"false"}, ShouldFail: true, IsParallel: true}}
	r := &Runner{Jobs: 1}
	report := r.Run(context.Background(), tests)
	if report.Failed() {
		t.Errorf("Failed() = true, want false: should_fail test that failed counts as pass")
	}
}

func TestRunnerNonParallelDrainsPool(t *testing.T) {
	tests := []Test{
		{Name: "par1", Argv: []string{"true"}, IsParallel: true},
		{Name: "serial", Argv: []string{"true"}, IsParallel: false},
		{Name: "par2", Argv: []string{"true"}, IsParallel: true},
	}
	r := &Runner{Jobs: 4}
	report := r.Run(context.Background(), tests)
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
}

func TestParseTAPAllOK(t *testing.T) {
	const doc = "1..3\nok 1 - first\nok 2 - second # SKIP not supported\nok 3 - third\n"
	r := ParseTAP([]byte(doc))
	if !r.AllOK() {
		t.Errorf("AllOK() = false, want true for %q", doc)
	}
	if len(r.Skipped) != 1 {
		t.Errorf("Skipped = %v, want 1 entry", r.Skipped)
	}
}

func TestParseTAPNotOKFails(t *testing.T) {
	const doc = "1..2\nok 1\nnot ok 2 - broke\n"
	r := ParseTAP([]byte(doc))
	if r.AllOK() {
		t.Errorf("AllOK() = true, want false: test 2 failed")
	}
}

func TestDumpLoadTestsRoundTrip(t *testing.T) {
	tests := []Test{
		{
			Name:     "roundtrip",
			Project:  "proj",
			Suites:   []string{"fast"},
			Argv:     []string{"/bin/true"},
			Env:      []string{"A=1"},
			Timeout:  5 * time.Second,
			Protocol: ProtocolTAP,
			Category: CategoryBenchmark,
			Priority: 3,
		},
	}
	var buf bytes.Buffer
	if err := DumpTests(&buf, tests); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTests(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tests, want 1", len(got))
	}
	gt := got[0]
	if gt.Name != "roundtrip" || gt.Project != "proj" || gt.Timeout != 5*time.Second ||
		gt.Protocol != ProtocolTAP || gt.Category != CategoryBenchmark || gt.Priority != 3 {
		t.Errorf("round-tripped test = %+v", gt)
	}
	if len(gt.Argv) != 1 || gt.Argv[0] != "/bin/true" {
		t.Errorf("Argv = %v", gt.Argv)
	}
}
