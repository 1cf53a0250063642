package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"muon.build/muon/internal/testrunner"
)

type suiteList []string

func (s *suiteList) String() string { return fmt.Sprint(*s) }
func (s *suiteList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// cmdTest loads tests.dat (written by the ninjawriter.Generate run
// during setup) and drives internal/testrunner.Runner over the
// selected subset, per spec §4.12.
func cmdTest(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("test", flag.ExitOnError)
	buildDir := fset.String("C", ".", "build directory")
	jobs := fset.Int("j", 0, "number of parallel jobs (0 = GOMAXPROCS)")
	failFast := fset.Bool("fail-fast", false, "stop scheduling new tests after the first failure")
	bench := fset.Bool("benchmark", false, "run benchmarks instead of regular tests")
	var suites suiteList
	fset.Var(&suites, "suite", "restrict to a test suite (repeatable)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	nameGlobs := fset.Args()

	datPath := filepath.Join(muonDataDir(*buildDir), "tests.dat")
	f, err := os.Open(datPath)
	if err != nil {
		return fmt.Errorf("test: %w (did you run `muon setup`/`muon compile` first?)", err)
	}
	defer f.Close()

	tests, err := testrunner.LoadTests(f)
	if err != nil {
		return fmt.Errorf("test: loading %s: %w", datPath, err)
	}

	cat := testrunner.CategoryTest
	if *bench {
		cat = testrunner.CategoryBenchmark
	}
	selected := testrunner.Select(tests, testrunner.Filter{
		Suites:     suites,
		NameGlobs:  nameGlobs,
		Category:   cat,
		AllowBench: *bench,
	}, nil)

	r := testrunner.Runner{Jobs: *jobs, FailFast: *failFast, Out: os.Stdout}
	if r.Jobs <= 0 {
		r.Jobs = runtime.GOMAXPROCS(0)
	}

	report := r.Run(ctx, selected)
	for _, res := range report.Results {
		fmt.Fprintf(os.Stdout, "%-40s %-8s %s\n", res.Test.Name, res.Outcome, res.Duration)
	}
	if report.Failed() {
		return fmt.Errorf("test: %d test(s) failed", countFailed(report))
	}
	return nil
}

func countFailed(r *testrunner.Report) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == testrunner.OutcomeFail || res.Outcome == testrunner.OutcomeHardFail || res.Outcome == testrunner.OutcomeTimeout {
			n++
		}
	}
	return n
}
