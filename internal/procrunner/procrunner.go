// Package procrunner runs external commands the way the build graph,
// wrap fetchers, and test runner all need to: non-blocking so a caller
// can poll many in flight at once, with PATH search, shebang-interpreter
// detection for scripts lacking the executable bit, and a
// terminate-then-kill escalation on timeout.
//
// The non-blocking Set contract is grounded on maruel/ginja's
// SubprocessSet (Add/DoWork/NextFinished), adapted from its dumbest
// "just get going" shape into one that actually reaps state without
// busy-polling ProcessState. The timeout/kill escalation is grounded on
// android's cmd/run_with_timeout, generalized from a single SIGKILL to a
// SIGTERM-then-SIGKILL pair.
package procrunner

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Result holds a finished process's captured output and exit status.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Combined []byte
	ExitCode int
	Err      error
}

// Spec describes a command to run.
type Spec struct {
	Argv []string
	Dir  string
	Env  []string

	// MergeOutput combines stdout and stderr into Result.Combined instead
	// of keeping them separate, matching how Meson captures a test's
	// output for TAP/log purposes.
	MergeOutput bool
}

// ResolveInterpreter rewrites argv to invoke an explicit interpreter when
// path's shebang line names one and the file isn't independently
// executable (or the host doesn't honor shebangs, i.e. Windows), the way
// muon's script-running built-ins are documented to need. It returns argv
// unchanged if no shebang is present or the line can't be parsed.
func ResolveInterpreter(path string, argv []string, shebang []byte) []string {
	if !bytes.HasPrefix(shebang, []byte("#!")) {
		return argv
	}
	line := string(shebang[2:])
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return argv
	}
	return append(fields, argv...)
}

// LookPath finds an executable named file in the given search directories
// (an already-split list, not a PATH string), against an explicit path
// list rather than the process environment. No suffix is appended on any
// host: on Windows a candidate matches only if file already carries its
// ".exe"/".bat"/".cmd"/".com" extension. The build
// graph and wrap fetchers both need to search a native-compiler PATH or a
// subproject's private bin directory rather than the invoking shell's.
func LookPath(file string, searchPath []string) (string, error) {
	if strings.Contains(file, string(filepath.Separator)) {
		if isExecutable(file) {
			return file, nil
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
	for _, dir := range searchPath {
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Run executes spec and blocks until it completes, ctx is canceled, or
// timeout elapses (zero means no timeout). On timeout, the process is
// sent SIGTERM, then SIGKILL half a second later if it hasn't exited,
// mirroring run_with_timeout's escalation but with an intermediate
// termination grace period rather than going straight to SIGKILL.
func Run(ctx context.Context, spec Spec, timeout time.Duration) Result {
	if len(spec.Argv) == 0 {
		return Result{Err: &exec.Error{Name: "", Err: exec.ErrNotFound}}
	}
	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	var stdout, stderr, combined bytes.Buffer
	if spec.MergeOutput {
		cmd.Stdout = &combined
		cmd.Stderr = &combined
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Start(); err != nil {
		return Result{Err: err}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-waitCh:
		return finishResult(cmd, stdout, stderr, combined, err)
	case <-timeoutCh:
		cmd.Process.Signal(syscall.SIGTERM)
		select {
		case err := <-waitCh:
			res := finishResult(cmd, stdout, stderr, combined, err)
			res.Err = context.DeadlineExceeded
			return res
		case <-time.After(500 * time.Millisecond):
			cmd.Process.Kill()
			err := <-waitCh
			res := finishResult(cmd, stdout, stderr, combined, err)
			res.Err = context.DeadlineExceeded
			return res
		}
	}
}

func finishResult(cmd *exec.Cmd, stdout, stderr, combined bytes.Buffer, waitErr error) Result {
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Combined: combined.Bytes(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		if _, ok := waitErr.(*exec.ExitError); !ok {
			res.Err = waitErr
		}
	}
	return res
}
