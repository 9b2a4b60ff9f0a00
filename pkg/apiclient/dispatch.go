package apiclient

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/james2doyle/sublime-simpleai/pkg/settings"
)

// InFlight is one outstanding network call, correlated with the buffer region
// that originated it. Exactly one of the dispatch callbacks fires per
// request; once cancellation is observed, only the error callback ever runs.
type InFlight struct {
	ID     uuid.UUID
	ViewID string
	Region editor.Region

	cancel     context.CancelFunc
	done       chan struct{}
	once       sync.Once
	onComplete func(text string)
	onError    func(err error)
}

// Cancel signals the request's cancellation token. Before send this prevents
// any network call; after send it aborts the underlying transport. Calling it
// more than once, or after completion, is a no-op.
func (r *InFlight) Cancel() { r.cancel() }

// Done is closed once the request has delivered its callback (completion,
// failure, or cancellation).
func (r *InFlight) Done() <-chan struct{} { return r.done }

// deliver invokes exactly one callback. A cancellation that raced with a
// successful completion wins: the result is dropped and the error callback
// fires instead.
func (r *InFlight) deliver(ctx context.Context, text string, err error) {
	r.once.Do(func() {
		defer close(r.done)

		if err == nil && ctx.Err() != nil {
			err = classifyCtx(ctx)
		}
		if err != nil {
			r.onError(err)
			return
		}

		r.onComplete(text)
	})
}

// Dispatch issues a chat-completion request without blocking the caller.
// Completion is delivered asynchronously through exactly one of onComplete or
// onError, from the request's own goroutine. The returned InFlight carries
// the cancellation token; cancelling before send guarantees no network
// traffic, and cancelling after send suppresses onComplete in favour of
// onError(ErrCancelled).
func (c *Client) Dispatch(
	ctx context.Context,
	cfg settings.EffectiveConfig,
	prompt string,
	viewID string,
	region editor.Region,
	onComplete func(text string),
	onError func(err error),
) *InFlight {
	ctx, cancel := context.WithCancel(ctx)

	r := &InFlight{
		ID:         uuid.New(),
		ViewID:     viewID,
		Region:     region,
		cancel:     cancel,
		done:       make(chan struct{}),
		onComplete: onComplete,
		onError:    onError,
	}

	go func() {
		defer cancel()

		// Token check before any request is built or sent.
		if ctx.Err() != nil {
			r.deliver(ctx, "", classifyCtx(ctx))
			return
		}

		text, err := c.complete(ctx, cfg, prompt)
		r.deliver(ctx, text, err)
	}()

	return r
}

// classifyCtx maps a finished context onto the taxonomy: explicit
// cancellation is expected, a deadline expiry is a timeout.
func classifyCtx(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &NetworkError{Err: ctx.Err()}
	}
	return ErrCancelled
}
