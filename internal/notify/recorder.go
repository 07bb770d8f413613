package notify

import (
	"context"
	"sync"
)

// Recorder is a Notifier fake that captures every send for assertions.
type Recorder struct {
	mu     sync.Mutex
	single []RecordedSend
	many   []RecordedFanout
	// Fail makes every send report failure, for exercising best-effort
	// paths.
	Fail bool
}

// RecordedSend is one NotifySingle call.
type RecordedSend struct {
	Target string
	Text   string
}

// RecordedFanout is one NotifyMany call.
type RecordedFanout struct {
	Targets []string
	Text    string
}

func (r *Recorder) NotifySingle(ctx context.Context, target, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.single = append(r.single, RecordedSend{Target: target, Text: text})
	if r.Fail {
		return errRecorderFail
	}
	return nil
}

func (r *Recorder) NotifyMany(ctx context.Context, targets []string, text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.many = append(r.many, RecordedFanout{Targets: append([]string(nil), targets...), Text: text})
	if r.Fail {
		return 0
	}
	return len(targets)
}

// Singles returns a copy of all NotifySingle calls so far.
func (r *Recorder) Singles() []RecordedSend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedSend(nil), r.single...)
}

// Fanouts returns a copy of all NotifyMany calls so far.
func (r *Recorder) Fanouts() []RecordedFanout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedFanout(nil), r.many...)
}

var _ Notifier = (*Recorder)(nil)

type recorderError string

func (e recorderError) Error() string { return string(e) }

const errRecorderFail = recorderError("notify: recorder configured to fail")
