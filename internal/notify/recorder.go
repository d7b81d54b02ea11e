package notify

import (
	"context"
	"sync"

	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
)

// Recorder is a Sink that keeps everything in memory. Used in tests and by
// shopctl dry runs.
type Recorder struct {
	mu   sync.Mutex
	sent []contracts.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, n contracts.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *Recorder) Sent() []contracts.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contracts.Notification(nil), r.sent...)
}
