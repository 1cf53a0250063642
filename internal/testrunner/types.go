// Package testrunner implements muon's `test` subcommand: load the
// Ninja writer's tests.dat side channel, filter by suite/name/category,
// and drive a bounded-concurrency job pool of test processes through
// internal/procrunner with exitcode/tap protocol interpretation, a
// SIGTERM-then-SIGKILL timeout escalation, and a dots-or-progress-bar
// display chosen the way internal/batch/batch.go picks between its
// terminal and non-terminal status renderers.
//
// The job pool and live status line are grounded on
// internal/batch/batch.go's scheduler (worker goroutines draining a
// buffered channel under an errgroup, cursor-up ANSI redraw gated on
// golang.org/x/sys/unix.IoctlGetTermios); per spec §4.12 a non-parallel
// test additionally forces the pool to drain before it runs alone, which
// batch.go's package-build scheduler has no equivalent of (packages have
// no "serial" flag), so Runner.Run adds a drain barrier batch.go doesn't
// need.
package testrunner

import "time"

// Protocol selects how a finished test process's result is interpreted.
type Protocol int

const (
	ProtocolExitCode Protocol = iota
	ProtocolTAP
)

func (p Protocol) String() string {
	if p == ProtocolTAP {
		return "tap"
	}
	return "exitcode"
}

// Category distinguishes ordinary tests from benchmarks, which Select
// drops unless Filter.AllowBench is set (§4.12's `--benchmark` split).
// Once selected, a benchmark is run and reported like any other test,
// and its failure fails the run.
type Category int

const (
	CategoryTest Category = iota
	CategoryBenchmark
)

// Setup is a named bundle of environment/wrapper/timeout overrides and
// suite exclusions a caller can apply with `--setup NAME`.
type Setup struct {
	Name            string
	Project         string
	Env             []string
	ExeWrapper      []string
	TimeoutMultiply float64
	ExcludeSuites   []string
}

// Test is one test() or benchmark() target, as recorded into tests.dat
// by the Ninja writer.
type Test struct {
	Name     string
	Project  string // empty means the root project
	Suites   []string
	Argv     []string
	Env      []string
	Workdir  string
	Timeout  time.Duration
	Protocol Protocol
	Category Category

	ShouldFail bool
	IsParallel bool // false forces serial execution (§4.12)
	Priority   int  // higher runs first when the pool has free slots

	// Depends lists build targets (by Ninja output path) this test needs
	// rebuilt before it can run; the runner's caller is responsible for
	// invoking the Ninja backend over these unless --no-rebuild is set.
	Depends []string
}

// FullyQualifiedSuites returns every "proj:suite" pairing plus each bare
// suite name, which is what --suite NAME must be able to match against
// (§4.12: "matches either proj:name fully qualified or name unqualified
// against the root project").
func (t Test) FullyQualifiedSuites() []string {
	out := make([]string, 0, len(t.Suites)*2)
	for _, s := range t.Suites {
		out = append(out, s)
		if t.Project != "" {
			out = append(out, t.Project+":"+s)
		}
	}
	return out
}

// Outcome is a finished test's pass/fail/skip/timeout verdict, already
// accounting for should_fail inversion.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	OutcomeSkip
	OutcomeTimeout
	OutcomeHardFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeSkip:
		return "skip"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeHardFail:
		return "hard fail"
	default:
		return "unknown"
	}
}

// TestResult is one completed test's outcome, captured output, and
// duration.
type TestResult struct {
	Test     Test
	Outcome  Outcome
	Duration time.Duration
	Output   []byte
	ExitCode int
	Err      error
}
