package wrap

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend failure")

type fakeBackend struct {
	delay time.Duration
	err   error
}

func (b *fakeBackend) EnsureSource(f *File, destDir string, mode Mode, onProgress func(Progress)) error {
	if onProgress != nil {
		onProgress(Progress{Downloaded: 1, Total: 1})
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.err
}

func TestDriverRunReportsEveryHandler(t *testing.T) {
	d := NewDriver()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		d.Add(NewHandler(n, &File{Method: MethodFile}, t.TempDir(), ModeDefault, &fakeBackend{}))
	}

	seen := map[string]bool{}
	for done := range d.Run(nil) {
		if done.Err != nil {
			t.Errorf("handler %s: %v", done.Handler.Subproject, done.Err)
		}
		if done.Handler.State() != StateComplete {
			t.Errorf("handler %s: state = %v, want complete", done.Handler.Subproject, done.Handler.State())
		}
		seen[done.Handler.Subproject] = true
	}
	for _, n := range names {
		if !seen[n] {
			t.Errorf("handler %s never reported completion", n)
		}
	}
}

func TestDriverPropagatesBackendError(t *testing.T) {
	d := NewDriver()
	wantErr := errBackend
	d.Add(NewHandler("broken", &File{Method: MethodFile}, t.TempDir(), ModeDefault, &fakeBackend{err: wantErr}))

	var got Done
	for done := range d.Run(nil) {
		got = done
	}
	if got.Err != wantErr {
		t.Errorf("Err = %v, want %v", got.Err, wantErr)
	}
}
