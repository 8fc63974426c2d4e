package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
	qb "github.com/Awes0314/gcm-arena/internal/platform/querybuilder"
)

// constraintOrganizerActive is the exclusion constraint rejecting a second
// tournament by the same organizer with an overlapping window.
const constraintOrganizerActive = "tournaments_organizer_window_excl"

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(
			qb.Eq("public_id", tournamentID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build get tournament by id query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("get tournament by id: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return tournament.Tournament{}, false, err
	}

	return item, true, nil
}

func (r *TournamentRepository) ListPublic(ctx context.Context) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(
			qb.EqLiteral("visibility", string(tournament.VisibilityPublic)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("starts_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list public tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list public tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}

func (r *TournamentRepository) Insert(ctx context.Context, item tournament.Tournament) error {
	rules, err := encodeRules(item.Rules)
	if err != nil {
		return err
	}

	model := tournamentInsertModel{
		PublicID:    item.ID,
		OrganizerID: item.OrganizerID,
		Name:        item.Name,
		GameType:    item.GameType,
		Policy:      string(item.Policy),
		Visibility:  string(item.Visibility),
		StartsAt:    item.StartsAt,
		EndsAt:      item.EndsAt,
		Rules:       rules,
	}

	query, args, err := qb.InsertModel("tournaments", model, "")
	if err != nil {
		return fmt.Errorf("build insert tournament query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isExclusionViolation(err, constraintOrganizerActive) {
			return tournament.ErrActiveTournamentExists
		}
		return fmt.Errorf("insert tournament: %w", err)
	}

	return nil
}
