package participant

import "context"

type Repository interface {
	Get(ctx context.Context, tournamentID, userID string) (Participant, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Participant, error)

	// Insert registers a join. A duplicate (tournament, user) pair returns
	// ErrAlreadyJoined.
	Insert(ctx context.Context, item Participant) error

	// Delete removes a participant (leave or organizer removal). Reports
	// whether a row was removed.
	Delete(ctx context.Context, tournamentID, userID string) (bool, error)
}
