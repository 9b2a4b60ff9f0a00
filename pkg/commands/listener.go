package commands

import (
	"github.com/james2doyle/sublime-simpleai/pkg/editor"
)

// Listener reacts to surface events by cancelling stale in-flight requests.
// It holds no state of its own beyond the subscription; the region-to-request
// associations live in the Orchestrator.
type Listener struct {
	bus  *editor.EventBus
	sub  *editor.Subscription
	done chan struct{}
}

// NewListener subscribes to the bus and starts forwarding teardown events to
// the orchestrator. Call Close to stop.
func NewListener(bus *editor.EventBus, orch *Orchestrator) *Listener {
	l := &Listener{
		bus:  bus,
		sub:  bus.Subscribe(16),
		done: make(chan struct{}),
	}

	go func() {
		defer close(l.done)

		for ev := range l.sub.C {
			switch ev.Kind {
			case editor.EventViewClosed, editor.EventSelectionModified:
				orch.CancelView(ev.ViewID)
			}
		}
	}()

	return l
}

// Close unsubscribes from the bus and waits for the forwarding goroutine to
// drain.
func (l *Listener) Close() {
	l.bus.Unsubscribe(l.sub)
	<-l.done
}
