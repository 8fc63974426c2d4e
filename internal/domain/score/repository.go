package score

import (
	"context"
	"time"
)

// UserTotal is one row of the per-user approved-value aggregation.
type UserTotal struct {
	UserID string
	Total  int
}

type Repository interface {
	GetByID(ctx context.Context, scoreID string) (Score, bool, error)

	// GetApprovedDirect returns the approved manual/bookmarklet record for
	// the triple, if any. Approved image records are tracked separately.
	GetApprovedDirect(ctx context.Context, tournamentID, userID, songID string) (Score, bool, error)

	// Insert persists a new record. A concurrent insert losing the race on
	// the approved-record uniqueness returns ErrDuplicateApproved.
	Insert(ctx context.Context, record Score) error

	// UpdateApprovedValue raises the value of an approved record in place.
	// The write is conditional on the record still being approved with a
	// lower value; it reports whether a row was updated.
	UpdateApprovedValue(ctx context.Context, scoreID string, value int, channel Channel, submittedAt time.Time) (bool, error)

	// ApprovePending transitions a pending record to approved with the
	// organizer-entered value. Reports false when the record is no longer
	// pending.
	ApprovePending(ctx context.Context, scoreID string, value int, approvedAt time.Time, approvedBy string) (bool, error)

	// RejectPending transitions a pending record to rejected. Reports false
	// when the record is no longer pending.
	RejectPending(ctx context.Context, scoreID string) (bool, error)

	ListApprovedByTournament(ctx context.Context, tournamentID string) ([]Score, error)
	ListPendingByTournament(ctx context.Context, tournamentID string) ([]Score, error)

	// SumApprovedByTournament aggregates approved values per user across
	// all channels.
	SumApprovedByTournament(ctx context.Context, tournamentID string) ([]UserTotal, error)
}
