package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Awes0314/gcm-arena/internal/domain/song"
	qb "github.com/Awes0314/gcm-arena/internal/platform/querybuilder"
)

type SongRepository struct {
	db *sqlx.DB
}

func NewSongRepository(db *sqlx.DB) *SongRepository {
	return &SongRepository{db: db}
}

func (r *SongRepository) GetByID(ctx context.Context, songID string) (song.Song, bool, error) {
	query, args, err := qb.Select("*").From("songs").
		Where(
			qb.Eq("public_id", songID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return song.Song{}, false, fmt.Errorf("build get song by id query: %w", err)
	}

	var row songTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return song.Song{}, false, nil
		}
		return song.Song{}, false, fmt.Errorf("get song by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SongRepository) ListByTournament(ctx context.Context, tournamentID string) ([]song.Song, error) {
	const query = `
SELECT s.id, s.public_id, s.game_type, s.title, s.difficulty, s.level, s.created_at, s.updated_at, s.deleted_at
FROM songs s
JOIN tournament_songs ts ON ts.song_public_id = s.public_id
WHERE ts.tournament_public_id = $1
  AND ts.deleted_at IS NULL
  AND s.deleted_at IS NULL
ORDER BY ts.id`

	var rows []songTableModel
	if err := r.db.SelectContext(ctx, &rows, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list tournament songs: %w", err)
	}

	out := make([]song.Song, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *SongRepository) InPool(ctx context.Context, tournamentID, songID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("tournament_songs").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.Eq("song_public_id", songID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build song pool membership query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check song pool membership: %w", err)
	}

	return count > 0, nil
}

func (r *SongRepository) AddToPool(ctx context.Context, tournamentID, songID string) error {
	model := tournamentSongInsertModel{
		TournamentID: tournamentID,
		SongID:       songID,
	}

	const suffix = `
ON CONFLICT (tournament_public_id, song_public_id)
DO UPDATE SET
    deleted_at = NULL,
    updated_at = NOW()`

	query, args, err := qb.InsertModel("tournament_songs", model, suffix)
	if err != nil {
		return fmt.Errorf("build add song to pool query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add song to pool: %w", err)
	}

	return nil
}
