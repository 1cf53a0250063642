package procrunner

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"
)

// handle is one process tracked by a Set.
type handle struct {
	id       int
	cmd      *exec.Cmd
	buf      bytes.Buffer
	started  time.Time
	timeout  time.Duration
	termSent bool
	termAt   time.Time
}

// Set manages a bounded pool of concurrently running processes the way a
// test runner or install-script driver needs to: start them without
// blocking, poll for completions, and escalate a SIGTERM-then-SIGKILL on
// processes that overrun their timeout.
//
// Grounded on maruel/ginja's SubprocessSet (Add/DoWork/NextFinished), but
// DoWork's polling loop is driven by actually checking exec.Cmd state
// instead of spinning on an always-true ProcessState.Exited() check — the
// ginja port left that as a known TODO ("hard block in an inefficient
// way"); Set resolves it by tracking completion through a per-process
// done channel instead.
type Set struct {
	nextID   int
	running  map[int]*handle
	finished []Finished
	done     chan int
}

// Finished is a completed process's result, tagged with the id Add
// returned so the caller can correlate it back to the job it queued.
type Finished struct {
	ID     int
	Result Result
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{running: make(map[int]*handle), done: make(chan int, 64)}
}

// Add starts spec running and returns an id for later correlation via
// NextFinished. timeout of zero means no timeout.
func (s *Set) Add(spec Spec, timeout time.Duration) (int, error) {
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	id := s.nextID
	s.nextID++
	h := &handle{id: id, cmd: cmd, started: time.Now(), timeout: timeout}
	cmd.Stdout = &h.buf
	cmd.Stderr = &h.buf

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	s.running[id] = h
	go func() {
		cmd.Wait()
		s.done <- id
	}()
	return id, nil
}

// Running reports how many processes are currently in flight.
func (s *Set) Running() int { return len(s.running) }

// DoWork waits up to 100ms for one process to finish and moves it onto
// the finished queue; if none finishes in that time it checks running
// processes' timeouts instead. It returns true in both cases, and false
// only if there was nothing to wait on.
func (s *Set) DoWork() bool {
	if len(s.running) == 0 {
		return false
	}
	tick := time.NewTimer(100 * time.Millisecond)
	defer tick.Stop()
	select {
	case id := <-s.done:
		s.reap(id)
		return true
	case <-tick.C:
		s.checkTimeouts()
		return true
	}
}

func (s *Set) reap(id int) {
	h, ok := s.running[id]
	if !ok {
		return
	}
	delete(s.running, id)
	res := Result{Combined: h.buf.Bytes(), ExitCode: -1}
	if h.cmd.ProcessState != nil {
		res.ExitCode = h.cmd.ProcessState.ExitCode()
	}
	if h.termSent {
		res.Err = context.DeadlineExceeded
	}
	s.finished = append(s.finished, Finished{ID: id, Result: res})
}

func (s *Set) checkTimeouts() {
	now := time.Now()
	for _, h := range s.running {
		if h.timeout == 0 {
			continue
		}
		switch {
		case !h.termSent && now.Sub(h.started) >= h.timeout:
			h.cmd.Process.Signal(syscall.SIGTERM)
			h.termSent = true
			h.termAt = now
		case h.termSent && now.Sub(h.termAt) >= 500*time.Millisecond:
			h.cmd.Process.Kill()
		}
	}
}

// NextFinished pops the oldest finished process, or returns ok=false if
// none are ready yet.
func (s *Set) NextFinished() (Finished, bool) {
	if len(s.finished) == 0 {
		return Finished{}, false
	}
	f := s.finished[0]
	s.finished = s.finished[1:]
	return f, true
}

// Clear terminates every running process (used on interrupt or fatal
// error) without waiting for graceful shutdown.
func (s *Set) Clear() {
	for _, h := range s.running {
		h.cmd.Process.Kill()
	}
	s.running = make(map[int]*handle)
}
