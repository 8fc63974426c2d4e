package tournament

import "context"

type Repository interface {
	GetByID(ctx context.Context, tournamentID string) (Tournament, bool, error)
	ListPublic(ctx context.Context) ([]Tournament, error)

	// Insert persists a new tournament. An organizer with an active
	// tournament in the same window returns ErrActiveTournamentExists.
	Insert(ctx context.Context, item Tournament) error
}
