package song

import "context"

type Repository interface {
	GetByID(ctx context.Context, songID string) (Song, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Song, error)

	// InPool reports whether the song belongs to the tournament's pool.
	InPool(ctx context.Context, tournamentID, songID string) (bool, error)

	AddToPool(ctx context.Context, tournamentID, songID string) error
}
