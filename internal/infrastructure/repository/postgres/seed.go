package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Awes0314/gcm-arena/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the starter song catalog into an empty database so a
// fresh deployment has something to build pools from.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM songs WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count songs for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range memory.SeedSongs() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO songs (public_id, game_type, title, difficulty, level)
VALUES (:public_id, :game_type, :title, :difficulty, :level)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":  s.ID,
			"game_type":  s.GameType,
			"title":      s.Title,
			"difficulty": s.Difficulty,
			"level":      s.Level,
		})
		if err != nil {
			return fmt.Errorf("bind seed song %s query: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed song %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
