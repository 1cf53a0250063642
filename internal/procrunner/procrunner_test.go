package procrunner

import (
	"context"
	"runtime"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only fixture")
	}
	res := Run(context.Background(), Spec{Argv: []string{"/bin/echo", "hello"}, MergeOutput: true}, 0)
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if got := string(res.Combined); got != "hello\n" {
		t.Errorf("Combined = %q, want %q", got, "hello\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only fixture")
	}
	start := time.Now()
	res := Run(context.Background(), Spec{Argv: []string{"/bin/sleep", "5"}}, 200*time.Millisecond)
	if res.Err != context.DeadlineExceeded {
		t.Fatalf("Err = %v, want context.DeadlineExceeded", res.Err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Run took %v, expected kill escalation well under 2s", elapsed)
	}
}

func TestResolveInterpreter(t *testing.T) {
	argv := []string{"script.py", "arg1"}
	got := ResolveInterpreter("script.py", argv, []byte("#!/usr/bin/env python3\nprint('hi')\n"))
	want := []string{"/usr/bin/env", "python3", "script.py", "arg1"}
	if len(got) != len(want) {
		t.Fatalf("ResolveInterpreter() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ResolveInterpreter()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolveInterpreterNoShebang(t *testing.T) {
	argv := []string{"binary"}
	got := ResolveInterpreter("binary", argv, []byte{0x7f, 'E', 'L', 'F'})
	if len(got) != 1 || got[0] != "binary" {
		t.Errorf("ResolveInterpreter() = %v, want unchanged %v", got, argv)
	}
}
