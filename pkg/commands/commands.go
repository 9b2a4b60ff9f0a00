// Package commands orchestrates the two user-facing operations, completion
// and instruct. Each invocation resolves settings, captures the prompt
// context, renders the prompt snippet, and dispatches one cancellable API
// request. Results are applied back into the originating buffer; every error
// is terminal for its invocation and leaves the buffer untouched.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/james2doyle/sublime-simpleai/pkg/apiclient"
	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/james2doyle/sublime-simpleai/pkg/promptctx"
	"github.com/james2doyle/sublime-simpleai/pkg/settings"
	"github.com/james2doyle/sublime-simpleai/pkg/snippets"
)

// ErrNoSelection is returned when completion is invoked without a selection.
// Completion needs a seed; instruct falls back to the whole buffer instead.
var ErrNoSelection = errors.New("commands: highlight a section of code first")

// SettingsSource supplies the raw settings documents for one invocation.
// Documents are re-read per invocation so a settings change between commands
// takes effect without restarting.
type SettingsSource interface {
	Documents() (project *settings.Document, global settings.Document, err error)
}

// SettingsFunc adapts a plain function to the SettingsSource interface.
type SettingsFunc func() (*settings.Document, settings.Document, error)

// Documents calls the underlying function.
func (f SettingsFunc) Documents() (*settings.Document, settings.Document, error) {
	return f()
}

// regionKey correlates an in-flight request with the buffer region that
// originated it. At most one request is tracked per key.
type regionKey struct {
	viewID string
	region editor.Region
}

// Orchestrator drives the full request lifecycle for both command kinds and
// owns the in-flight request bookkeeping.
type Orchestrator struct {
	Settings    SettingsSource
	Store       snippets.Store
	Client      *apiclient.Client
	Results     editor.ResultSink // Optional; instruct result documents go here.
	ProjectRoot string            // "" when not inside a project.
	Logger      *slog.Logger      // nil disables debug logging.

	mu       sync.Mutex
	inflight map[regionKey]*apiclient.InFlight
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Completion sends the current selection as a completion seed and appends the
// model's continuation after the selection. An empty selection is an error:
// there is nothing to complete.
func (o *Orchestrator) Completion(ctx context.Context, view editor.View) (*apiclient.InFlight, error) {
	region := view.Selection()
	if region.Empty() {
		view.Notify("Please highlight a section of code.", editor.LevelStatus)
		return nil, ErrNoSelection
	}

	source := view.Substr(region)

	return o.run(ctx, view, settings.Completions, region, source, "", func(text string) {
		view.InsertAt(region.End, text)
		view.Notify("Simple AI completion inserted.", editor.LevelStatus)
	})
}

// Instruct sends the selection (or the whole buffer when nothing is selected)
// together with a free-form instruction, then replaces the selection with the
// result. When the whole buffer served as context the result is inserted at
// the caret instead, and the buffer is otherwise left alone.
func (o *Orchestrator) Instruct(ctx context.Context, view editor.View, instruction string) (*apiclient.InFlight, error) {
	region := view.Selection()
	wholeBuffer := region.Empty()

	source := view.Substr(region)
	if wholeBuffer {
		source = view.BufferText()
	}

	return o.run(ctx, view, settings.Instruct, region, source, instruction, func(text string) {
		if wholeBuffer {
			view.InsertAt(region.Begin, text)
		} else {
			view.Replace(region, text)
		}

		if o.Results != nil {
			o.Results.ShowDocument("Simple AI Results", resultDocument(instruction, source, text))
		}

		view.Notify("Simple AI instruction applied.", editor.LevelStatus)
	})
}

// run performs the shared pipeline: resolve settings, capture context, render
// the snippet, cancel any request already in flight for the same region, and
// dispatch. Every pre-dispatch failure is surfaced and aborts before any
// network activity.
func (o *Orchestrator) run(
	ctx context.Context,
	view editor.View,
	kind settings.CommandKind,
	region editor.Region,
	source, instruction string,
	apply func(text string),
) (*apiclient.InFlight, error) {
	project, global, err := o.Settings.Documents()
	if err != nil {
		view.Notify(err.Error(), editor.LevelError)
		return nil, err
	}

	cfg, err := settings.Resolve(kind, project, global)
	if err != nil {
		view.Notify(err.Error(), editor.LevelError)
		return nil, err
	}

	pctx := promptctx.Capture(view, o.ProjectRoot, source, instruction)

	tmpl, err := o.Store.Load(cfg.PromptSnippet)
	if err != nil {
		view.Notify(err.Error(), editor.LevelError)
		return nil, err
	}

	prompt := snippets.Render(tmpl, pctx.Vars())
	o.logger().Debug("dispatching", "kind", kind, "view", view.ID(), "model", cfg.Model)

	key := regionKey{viewID: view.ID(), region: region}

	// Last writer wins: a prior request for the same region is cancelled, not
	// queued behind.
	o.cancelKey(key)

	reqCtx, cancelTimeout := context.WithTimeout(ctx, time.Duration(cfg.MaxSeconds)*time.Second)

	// The callbacks can fire before Dispatch returns; they wait here until
	// the request is tracked so teardown always sees a registered request.
	registered := make(chan *apiclient.InFlight, 1)

	r := o.Client.Dispatch(reqCtx, cfg, prompt, view.ID(), region,
		func(text string) {
			req := <-registered
			cancelTimeout()
			o.untrack(key, req)
			apply(text)
		},
		func(err error) {
			req := <-registered
			cancelTimeout()
			o.untrack(key, req)
			o.surfaceError(view, err, cfg.MaxSeconds)
		},
	)

	o.track(key, r)
	registered <- r
	o.watchProgress(view, r, cfg.MaxSeconds)

	return r, nil
}

// surfaceError turns a post-dispatch failure into a notification. Cancelled
// requests are expected and stay quiet; timeouts get their own message so the
// user can raise max_seconds.
func (o *Orchestrator) surfaceError(view editor.View, err error, maxSeconds int) {
	if errors.Is(err, apiclient.ErrCancelled) {
		o.logger().Debug("request cancelled", "view", view.ID())
		return
	}

	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) && errors.Is(netErr.Err, context.DeadlineExceeded) {
		view.Notify(fmt.Sprintf("Simple AI ran out of time! %ds", maxSeconds), editor.LevelError)
		return
	}

	view.Notify("Simple AI error: "+err.Error(), editor.LevelError)
}

// watchProgress posts elapsed-time status messages while the request is in
// flight, mirroring the per-second feedback of the host's status bar.
func (o *Orchestrator) watchProgress(view editor.View, r *apiclient.InFlight, maxSeconds int) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for elapsed := 1; ; elapsed++ {
			select {
			case <-r.Done():
				return
			case <-ticker.C:
				view.Notify(fmt.Sprintf("Simple AI is thinking, one moment... (%d/%ds)", elapsed, maxSeconds), editor.LevelStatus)
			}
		}
	}()
}

// --- in-flight bookkeeping ---

func (o *Orchestrator) track(key regionKey, r *apiclient.InFlight) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inflight == nil {
		o.inflight = make(map[regionKey]*apiclient.InFlight)
	}
	o.inflight[key] = r
}

// untrack removes the request from the registry, but only while it is still
// the tracked one: a replacement dispatched for the same region must not be
// evicted by its predecessor's teardown.
func (o *Orchestrator) untrack(key regionKey, r *apiclient.InFlight) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.inflight[key]; ok && cur == r {
		delete(o.inflight, key)
	}
}

func (o *Orchestrator) cancelKey(key regionKey) {
	o.mu.Lock()
	prior, ok := o.inflight[key]
	if ok {
		delete(o.inflight, key)
	}
	o.mu.Unlock()

	if ok {
		prior.Cancel()
		<-prior.Done()
	}
}

// CancelView cancels every in-flight request associated with a buffer. Used
// when the buffer is torn down or its selection changes.
func (o *Orchestrator) CancelView(viewID string) {
	o.mu.Lock()
	var victims []*apiclient.InFlight
	for key, r := range o.inflight {
		if key.viewID == viewID {
			victims = append(victims, r)
			delete(o.inflight, key)
		}
	}
	o.mu.Unlock()

	for _, r := range victims {
		r.Cancel()
	}
}

// InFlightCount reports how many requests are currently tracked.
func (o *Orchestrator) InFlightCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}
