package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	qb "github.com/Awes0314/gcm-arena/internal/platform/querybuilder"
)

const constraintParticipantUnique = "participants_tournament_user_unique"

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Get(ctx context.Context, tournamentID, userID string) (participant.Participant, bool, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) ListByTournament(ctx context.Context, tournamentID string) ([]participant.Participant, error) {
	query, args, err := qb.Select("*").From("participants").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("joined_at", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *ParticipantRepository) Insert(ctx context.Context, item participant.Participant) error {
	model := participantInsertModel{
		TournamentID: item.TournamentID,
		UserID:       item.UserID,
		DisplayName:  item.DisplayName,
		JoinedAt:     item.JoinedAt,
	}

	// rejoin after leaving revives the soft-deleted row
	const suffix = `
ON CONFLICT (tournament_public_id, user_id)
DO UPDATE SET
    display_name = EXCLUDED.display_name,
    joined_at = EXCLUDED.joined_at,
    deleted_at = NULL,
    updated_at = NOW()
WHERE participants.deleted_at IS NOT NULL`

	query, args, err := qb.InsertModel("participants", model, suffix)
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, constraintParticipantUnique) {
			return participant.ErrAlreadyJoined
		}
		return fmt.Errorf("insert participant: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert participant rows affected: %w", err)
	}
	if affected == 0 {
		// conflict row was live, so the user is already a member
		return participant.ErrAlreadyJoined
	}

	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, tournamentID, userID string) (bool, error) {
	query, args, err := qb.Update("participants").
		SetExpr("deleted_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete participant query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete participant: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete participant rows affected: %w", err)
	}

	return affected > 0, nil
}
