package testrunner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// isTerminal reports whether fd is attached to a terminal, the same
// IoctlGetTermios probe internal/batch/batch.go uses to decide between a
// redrawn status line and append-only log output.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}

// display renders the test run's progress, in one of two modes chosen
// once at construction the way batch.go's scheduler picks isTerminal
// once and never reconsiders mid-run.
type display struct {
	w        io.Writer
	terminal bool

	mu        sync.Mutex
	total     int
	done      int
	fail      int
	skip      int
	inflight  int
	lastDraw  time.Time
	dotsWidth int
}

func newDisplay(w io.Writer, total int) *display {
	term := false
	if f, ok := w.(*os.File); ok {
		term = isTerminal(f.Fd())
	}
	return &display{w: w, terminal: term, total: total}
}

// started records a test beginning execution, for the in-flight counter
// in progress-bar mode.
func (d *display) started() {
	d.mu.Lock()
	d.inflight++
	d.mu.Unlock()
}

// completed records one test's outcome and redraws, throttled to avoid
// flooding a fast terminal the way batch.go's updateStatus throttles to
// roughly 10 updates/sec.
func (d *display) completed(o Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight--
	d.done++
	switch o {
	case OutcomeFail, OutcomeHardFail, OutcomeTimeout:
		d.fail++
	case OutcomeSkip:
		d.skip++
	}

	if d.terminal {
		if time.Since(d.lastDraw) < 100*time.Millisecond && d.done < d.total {
			return
		}
		d.redraw()
		return
	}

	var ch byte
	switch o {
	case OutcomeTimeout:
		ch = 'T'
	case OutcomeFail, OutcomeHardFail:
		ch = 'E'
	case OutcomeSkip:
		ch = 's'
	default:
		ch = '.'
	}
	fmt.Fprintf(d.w, "%c", ch)
	d.dotsWidth++
	if d.dotsWidth >= 80 {
		fmt.Fprintln(d.w)
		d.dotsWidth = 0
	}
}

// redraw rewrites the single status line in place using a carriage
// return and an erase-line escape.
func (d *display) redraw() {
	fmt.Fprintf(d.w, "\r\033[K(%d/%d f:%d s:%d j:%d)",
		d.done, d.total, d.fail, d.skip, d.inflight)
	d.lastDraw = time.Now()
}

// finish prints a trailing newline so the final status line or dots row
// isn't left dangling without one.
func (d *display) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.terminal {
		d.redraw()
	}
	fmt.Fprintln(d.w)
}
