package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
	qb "github.com/Awes0314/gcm-arena/internal/platform/querybuilder"
)

// constraintDirectApproved is the partial unique index guarding one approved
// manual/bookmarklet record per (tournament, user, song).
const constraintDirectApproved = "scores_direct_approved_unique"

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) GetByID(ctx context.Context, scoreID string) (score.Score, bool, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(
			qb.Eq("public_id", scoreID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build get score by id query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("get score by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ScoreRepository) GetApprovedDirect(ctx context.Context, tournamentID, userID, songID string) (score.Score, bool, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.Eq("user_id", userID),
			qb.Eq("song_public_id", songID),
			qb.EqLiteral("status", string(score.StatusApproved)),
			qb.In("channel", []any{string(score.ChannelManual), string(score.ChannelBookmarklet)}),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build get approved score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("get approved score: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ScoreRepository) Insert(ctx context.Context, record score.Score) error {
	model := scoreInsertModel{
		PublicID:     record.ID,
		TournamentID: record.TournamentID,
		UserID:       record.UserID,
		SongID:       record.SongID,
		Value:        record.Value,
		Status:       string(record.Status),
		Channel:      string(record.Channel),
		ImageRef:     nullString(record.ImageRef),
		SubmittedAt:  record.SubmittedAt,
	}

	query, args, err := qb.InsertModel("scores", model, "")
	if err != nil {
		return fmt.Errorf("build insert score query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, constraintDirectApproved) {
			return score.ErrDuplicateApproved
		}
		return fmt.Errorf("insert score: %w", err)
	}

	return nil
}

func (r *ScoreRepository) UpdateApprovedValue(ctx context.Context, scoreID string, value int, channel score.Channel, submittedAt time.Time) (bool, error) {
	query, args, err := qb.Update("scores").
		Set("value", value).
		Set("channel", string(channel)).
		Set("submitted_at", submittedAt).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", scoreID),
			qb.EqLiteral("status", string(score.StatusApproved)),
			qb.Expr("value < ?", value),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update approved score query: %w", err)
	}

	return r.execReportingAffected(ctx, query, args, "update approved score")
}

func (r *ScoreRepository) ApprovePending(ctx context.Context, scoreID string, value int, approvedAt time.Time, approvedBy string) (bool, error) {
	query, args, err := qb.Update("scores").
		Set("value", value).
		Set("status", string(score.StatusApproved)).
		Set("approved_at", approvedAt).
		Set("approved_by", approvedBy).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", scoreID),
			qb.EqLiteral("status", string(score.StatusPending)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build approve pending score query: %w", err)
	}

	return r.execReportingAffected(ctx, query, args, "approve pending score")
}

func (r *ScoreRepository) RejectPending(ctx context.Context, scoreID string) (bool, error) {
	query, args, err := qb.Update("scores").
		Set("status", string(score.StatusRejected)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", scoreID),
			qb.EqLiteral("status", string(score.StatusPending)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build reject pending score query: %w", err)
	}

	return r.execReportingAffected(ctx, query, args, "reject pending score")
}

func (r *ScoreRepository) ListApprovedByTournament(ctx context.Context, tournamentID string) ([]score.Score, error) {
	return r.listByStatus(ctx, tournamentID, score.StatusApproved)
}

func (r *ScoreRepository) ListPendingByTournament(ctx context.Context, tournamentID string) ([]score.Score, error) {
	return r.listByStatus(ctx, tournamentID, score.StatusPending)
}

func (r *ScoreRepository) listByStatus(ctx context.Context, tournamentID string, status score.Status) ([]score.Score, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.EqLiteral("status", string(status)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scores query: %w", err)
	}

	var rows []scoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *ScoreRepository) SumApprovedByTournament(ctx context.Context, tournamentID string) ([]score.UserTotal, error) {
	query, args, err := qb.Select("user_id", "COALESCE(SUM(value), 0) AS total").From("scores").
		Where(
			qb.Eq("tournament_public_id", tournamentID),
			qb.EqLiteral("status", string(score.StatusApproved)),
			qb.IsNull("deleted_at"),
		).
		GroupBy("user_id").
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sum approved scores query: %w", err)
	}

	var rows []struct {
		UserID string `db:"user_id"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sum approved scores: %w", err)
	}

	out := make([]score.UserTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, score.UserTotal{UserID: row.UserID, Total: row.Total})
	}

	return out, nil
}

func (r *ScoreRepository) execReportingAffected(ctx context.Context, query string, args []any, op string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}

	return affected > 0, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
