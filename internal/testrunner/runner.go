package testrunner

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"muon.build/muon/internal/procrunner"
	"muon.build/muon/internal/strutil"
)

// Filter selects which loaded tests a Run actually executes, mirroring
// §4.12's `--suite`/name-glob/`--benchmark` selection.
type Filter struct {
	Suites     []string // proj:name or bare name, OR'd together; empty means no suite filter
	NameGlobs  []string // glob against Test.Name; empty means no name filter
	Category   Category
	AllowBench bool // if false, Category==CategoryBenchmark tests are excluded entirely
}

func (f Filter) matches(t Test) bool {
	if t.Category == CategoryBenchmark && !f.AllowBench {
		return false
	}
	if len(f.Suites) > 0 {
		ok := false
		fq := t.FullyQualifiedSuites()
		for _, want := range f.Suites {
			for _, have := range fq {
				if want == have {
					ok = true
				}
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.NameGlobs) > 0 {
		ok := false
		for _, g := range f.NameGlobs {
			if strutil.GlobMatch(g, t.Name) {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Select filters and applies setup to the loaded test list, per §4.12.
func Select(tests []Test, f Filter, setup *Setup) []Test {
	var out []Test
	for _, t := range tests {
		if !f.matches(t) {
			continue
		}
		if setup != nil {
			excluded := false
			for _, s := range setup.ExcludeSuites {
				for _, have := range t.FullyQualifiedSuites() {
					if s == have {
						excluded = true
					}
				}
			}
			if excluded {
				continue
			}
			t.Env = append(append([]string{}, setup.Env...), t.Env...)
			if len(setup.ExeWrapper) > 0 {
				t.Argv = append(append([]string{}, setup.ExeWrapper...), t.Argv...)
			}
			if setup.TimeoutMultiply > 0 {
				t.Timeout = time.Duration(float64(t.Timeout) * setup.TimeoutMultiply)
			}
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// Runner executes a selected test list with bounded concurrency.
type Runner struct {
	Jobs     int
	Log      *log.Logger
	FailFast bool
	Out      *os.File // progress display target; nil means os.Stderr
}

// Report is the outcome of a full Run.
type Report struct {
	Results []TestResult
}

// Failed reports whether the run should make the `test` subcommand exit
// non-zero: any not-should_fail test failed or timed out (§4.12, §6 exit
// codes).
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeFail, OutcomeTimeout, OutcomeHardFail:
			return true
		}
	}
	return false
}

// Run drives tests to completion. Non-parallel tests force the pool to
// drain first, run alone, and only then does parallel execution resume,
// per §4.12 ("A non-parallel test forces serial execution").
func (r *Runner) Run(ctx context.Context, tests []Test) *Report {
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}
	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	logger := r.Log
	if logger == nil {
		logger = log.Default()
	}

	report := &Report{}
	disp := newDisplay(out, len(tests))

	var mu sync.Mutex
	stop := false

	runOne := func(t Test) TestResult {
		disp.started()
		res := r.runTest(ctx, t)
		disp.completed(res.Outcome)
		return res
	}

	i := 0
	for i < len(tests) {
		t := tests[i]
		if !t.IsParallel {
			// Drain in-flight parallel tests before running this one alone.
			res := runOne(t)
			mu.Lock()
			report.Results = append(report.Results, res)
			if r.FailFast && res.Outcome != OutcomePass && res.Outcome != OutcomeSkip {
				stop = true
			}
			mu.Unlock()
			i++
			if stop {
				break
			}
			continue
		}

		// Gather a run of consecutive parallel tests and run them with a
		// bounded worker pool, the way batch.go's scheduler bounds
		// concurrent package builds.
		var batch []Test
		for i < len(tests) && tests[i].IsParallel {
			batch = append(batch, tests[i])
			i++
		}

		work := make(chan Test)
		var wg sync.WaitGroup
		for w := 0; w < jobs; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for t := range work {
					mu.Lock()
					skip := stop
					mu.Unlock()
					if skip {
						continue
					}
					res := runOne(t)
					mu.Lock()
					report.Results = append(report.Results, res)
					if r.FailFast && res.Outcome != OutcomePass && res.Outcome != OutcomeSkip {
						stop = true
					}
					mu.Unlock()
				}
			}()
		}
	feed:
		for _, t := range batch {
			mu.Lock()
			skip := stop
			mu.Unlock()
			if skip {
				break feed
			}
			select {
			case work <- t:
			case <-ctx.Done():
				break feed
			}
		}
		close(work)
		wg.Wait()
		if stop {
			break
		}
	}

	disp.finish()
	logger.Printf("ran %d tests, %d failed", len(report.Results), countFailed(report.Results))
	return report
}

func countFailed(rs []TestResult) int {
	n := 0
	for _, r := range rs {
		if r.Outcome != OutcomePass && r.Outcome != OutcomeSkip {
			n++
		}
	}
	return n
}

// runTest spawns one test process via procrunner.Run (§4.3's
// blocking convenience wrapper around the non-blocking Set, adequate
// here since each worker goroutine already gives the pool its
// concurrency) and interprets its result per protocol.
func (r *Runner) runTest(ctx context.Context, t Test) TestResult {
	start := time.Now()
	res := procrunner.Run(ctx, procrunner.Spec{
		Argv:        t.Argv,
		Dir:         t.Workdir,
		Env:         t.Env,
		MergeOutput: true,
	}, t.Timeout)
	dur := time.Since(start)

	tr := TestResult{Test: t, Duration: dur, Output: res.Combined, ExitCode: res.ExitCode, Err: res.Err}

	if res.Err != nil {
		tr.Outcome = OutcomeTimeout
		return tr
	}

	outcome := interpret(t, res)
	if t.ShouldFail {
		switch outcome {
		case OutcomePass:
			outcome = OutcomeFail
		case OutcomeFail:
			outcome = OutcomePass
		}
	}
	tr.Outcome = outcome
	return tr
}

func interpret(t Test, res procrunner.Result) Outcome {
	switch t.Protocol {
	case ProtocolTAP:
		tap := ParseTAP(res.Combined)
		if tap.AllOK() && res.ExitCode == 0 {
			return OutcomePass
		}
		return OutcomeFail
	default: // ProtocolExitCode
		switch res.ExitCode {
		case 0:
			return OutcomePass
		case 77:
			return OutcomeSkip
		case 99:
			return OutcomeHardFail
		default:
			return OutcomeFail
		}
	}
}
