package usecase

import "context"

// Notifier delivers short messages to users. Delivery is best-effort: callers
// log failures and never abort the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message, tournamentID string) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, string) error { return nil }
