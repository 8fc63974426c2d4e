package postgres

import (
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
)

type participantTableModel struct {
	ID           int64      `db:"id"`
	TournamentID string     `db:"tournament_public_id"`
	UserID       string     `db:"user_id"`
	DisplayName  string     `db:"display_name"`
	JoinedAt     time.Time  `db:"joined_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type participantInsertModel struct {
	TournamentID string    `db:"tournament_public_id"`
	UserID       string    `db:"user_id"`
	DisplayName  string    `db:"display_name"`
	JoinedAt     time.Time `db:"joined_at"`
}

func (m participantTableModel) toDomain() participant.Participant {
	return participant.Participant{
		TournamentID: m.TournamentID,
		UserID:       m.UserID,
		DisplayName:  m.DisplayName,
		JoinedAt:     m.JoinedAt,
	}
}
