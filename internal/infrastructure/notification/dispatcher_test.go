package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordingPusher struct {
	mu        sync.Mutex
	delivered []string
	err       error
}

func (p *recordingPusher) Push(_ context.Context, recipientID, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.delivered = append(p.delivered, recipientID)
	return nil
}

func (p *recordingPusher) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.delivered))
	copy(out, p.delivered)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DeliversAsynchronously(t *testing.T) {
	pusher := &recordingPusher{}
	d, err := NewDispatcher(pusher, 2, time.Second, discardLogger())
	if err != nil {
		t.Fatalf("create dispatcher: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := d.Notify(context.Background(), "organizer-1", "new pending submission", "trn-001"); err != nil {
			t.Fatalf("queue notification %d: %v", i, err)
		}
	}

	d.Close()

	if got := len(pusher.recipients()); got != 5 {
		t.Fatalf("expected 5 deliveries after Close, got %d", got)
	}
}

func TestDispatcher_DeliveryFailureDoesNotSurface(t *testing.T) {
	pusher := &recordingPusher{err: errors.New("webhook down")}
	d, err := NewDispatcher(pusher, 1, time.Second, discardLogger())
	if err != nil {
		t.Fatalf("create dispatcher: %v", err)
	}

	if err := d.Notify(context.Background(), "player-1", "score approved", "trn-001"); err != nil {
		t.Fatalf("queueing must not surface delivery errors: %v", err)
	}

	d.Close()
}

func TestNewDispatcher_NormalizesArguments(t *testing.T) {
	d, err := NewDispatcher(&recordingPusher{}, 0, 0, nil)
	if err != nil {
		t.Fatalf("create dispatcher with zero values: %v", err)
	}
	defer d.Close()

	if d.pushTimeout != 10*time.Second {
		t.Fatalf("unexpected default push timeout: %s", d.pushTimeout)
	}
	if d.pool.Cap() != 4 {
		t.Fatalf("unexpected default pool size: %d", d.pool.Cap())
	}
}
