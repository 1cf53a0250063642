package wrap

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Driver runs a batch of subproject wrap handlers concurrently and
// reports each one's completion as it happens, mirroring the "multiple
// wraps may be in flight, the loop polls each context" orchestration the
// wrap handler describes. Because Backend.EnsureSource already blocks for
// the duration of its own network/process work, each Handler.Step simply
// runs on its own errgroup goroutine; Driver's contribution is the
// completion fan-in, not scheduling within a handler.
type Driver struct {
	handlers []*Handler
}

func NewDriver() *Driver { return &Driver{} }

func (d *Driver) Add(h *Handler) { d.handlers = append(d.handlers, h) }

// Done is sent once per handler as it finishes, in whatever order they
// complete.
type Done struct {
	Handler *Handler
	Err     error
}

// Run starts every added handler and returns a channel that receives one
// Done per handler, closed once every handler has reported in (Run itself
// does not fail the group on a handler error: a failed subproject wrap is
// the caller's decision to treat as fatal or, for an optional subproject,
// recoverable). onProgress, if non-nil, is called from whichever handler's
// goroutine is currently downloading; callers needing to attribute
// progress to a specific subproject should wrap it themselves per-handler
// before calling Add.
func (d *Driver) Run(onProgress func(*Handler, Progress)) <-chan Done {
	out := make(chan Done, len(d.handlers))
	g, _ := errgroup.WithContext(context.Background())
	for _, h := range d.handlers {
		h := h
		g.Go(func() error {
			var cb func(Progress)
			if onProgress != nil {
				cb = func(p Progress) { onProgress(h, p) }
			}
			h.Step(cb)
			out <- Done{Handler: h, Err: h.Err()}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(out)
	}()
	return out
}
