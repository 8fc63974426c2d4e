package postgres

import (
	"database/sql"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
)

type scoreTableModel struct {
	ID           int64          `db:"id"`
	PublicID     string         `db:"public_id"`
	TournamentID string         `db:"tournament_public_id"`
	UserID       string         `db:"user_id"`
	SongID       string         `db:"song_public_id"`
	Value        int            `db:"value"`
	Status       string         `db:"status"`
	Channel      string         `db:"channel"`
	ImageRef     sql.NullString `db:"image_ref"`
	SubmittedAt  time.Time      `db:"submitted_at"`
	ApprovedAt   *time.Time     `db:"approved_at"`
	ApprovedBy   sql.NullString `db:"approved_by"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	DeletedAt    *time.Time     `db:"deleted_at"`
}

type scoreInsertModel struct {
	PublicID     string         `db:"public_id"`
	TournamentID string         `db:"tournament_public_id"`
	UserID       string         `db:"user_id"`
	SongID       string         `db:"song_public_id"`
	Value        int            `db:"value"`
	Status       string         `db:"status"`
	Channel      string         `db:"channel"`
	ImageRef     sql.NullString `db:"image_ref"`
	SubmittedAt  time.Time      `db:"submitted_at"`
}

func (m scoreTableModel) toDomain() score.Score {
	return score.Score{
		ID:           m.PublicID,
		TournamentID: m.TournamentID,
		UserID:       m.UserID,
		SongID:       m.SongID,
		Value:        m.Value,
		Status:       score.Status(m.Status),
		Channel:      score.Channel(m.Channel),
		ImageRef:     m.ImageRef.String,
		SubmittedAt:  m.SubmittedAt,
		ApprovedAt:   m.ApprovedAt,
		ApprovedBy:   m.ApprovedBy.String,
	}
}
