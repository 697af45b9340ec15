package mocks

import (
	"context"
	"sync"

	"group-service/internal/notify"
)

// NotifyCall is one recorded fan-out.
type NotifyCall struct {
	GroupID string
	Targets []string
	Event   notify.Event
}

// RecordingNotifier captures fan-outs instead of delivering them.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []NotifyCall
}

func (n *RecordingNotifier) Notify(ctx context.Context, groupID string, recipients, exclude []string, ev notify.Event) notify.Report {
	targets := notify.Targets(recipients, exclude)
	n.mu.Lock()
	n.calls = append(n.calls, NotifyCall{GroupID: groupID, Targets: targets, Event: ev})
	n.mu.Unlock()
	return notify.Report{Targets: targets, Persisted: len(targets)}
}

// Calls returns every recorded fan-out in order.
func (n *RecordingNotifier) Calls() []NotifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotifyCall(nil), n.calls...)
}

// ByType returns the recorded fan-outs of one event type.
func (n *RecordingNotifier) ByType(eventType string) []NotifyCall {
	var out []NotifyCall
	for _, c := range n.Calls() {
		if c.Event.Type == eventType {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded fan-outs.
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	n.calls = nil
	n.mu.Unlock()
}
