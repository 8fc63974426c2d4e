package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Pusher is the synchronous delivery half of the dispatcher.
type Pusher interface {
	Push(ctx context.Context, recipientID, message, tournamentID string) error
}

// Dispatcher delivers notifications asynchronously on a bounded worker pool
// so webhook latency never sits on the submission path.
type Dispatcher struct {
	pusher      Pusher
	pool        *ants.Pool
	logger      *slog.Logger
	pushTimeout time.Duration
	inFlight    sync.WaitGroup
}

func NewDispatcher(pusher Pusher, workerCount int, pushTimeout time.Duration, logger *slog.Logger) (*Dispatcher, error) {
	if workerCount <= 0 {
		workerCount = 4
	}
	if pushTimeout <= 0 {
		pushTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create notification worker pool: %w", err)
	}

	return &Dispatcher{
		pusher:      pusher,
		pool:        pool,
		logger:      logger,
		pushTimeout: pushTimeout,
	}, nil
}

// Notify queues a delivery. The request context is not carried into the
// worker; deliveries run under their own timeout so an aborted request does
// not cancel the push.
func (d *Dispatcher) Notify(ctx context.Context, recipientID, message, tournamentID string) error {
	d.inFlight.Add(1)
	err := d.pool.Submit(func() {
		defer d.inFlight.Done()

		pushCtx, cancel := context.WithTimeout(context.Background(), d.pushTimeout)
		defer cancel()

		if err := d.pusher.Push(pushCtx, recipientID, message, tournamentID); err != nil {
			d.logger.WarnContext(pushCtx, "notification delivery failed",
				"recipient_id", recipientID,
				"tournament_id", tournamentID,
				"error", err,
			)
		}
	})
	if err != nil {
		d.inFlight.Done()
		d.logger.WarnContext(ctx, "notification dispatch rejected", "error", err)
		return fmt.Errorf("queue notification: %w", err)
	}

	return nil
}

// Close waits for queued deliveries to finish, then releases the pool.
func (d *Dispatcher) Close() {
	d.inFlight.Wait()
	d.pool.Release()
}
