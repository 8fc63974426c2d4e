package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	OrganizerID string     `db:"organizer_id"`
	Name        string     `db:"name"`
	GameType    string     `db:"game_type"`
	Policy      string     `db:"submission_policy"`
	Visibility  string     `db:"visibility"`
	StartsAt    time.Time  `db:"starts_at"`
	EndsAt      time.Time  `db:"ends_at"`
	Rules       []byte     `db:"rules"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type tournamentInsertModel struct {
	PublicID    string    `db:"public_id"`
	OrganizerID string    `db:"organizer_id"`
	Name        string    `db:"name"`
	GameType    string    `db:"game_type"`
	Policy      string    `db:"submission_policy"`
	Visibility  string    `db:"visibility"`
	StartsAt    time.Time `db:"starts_at"`
	EndsAt      time.Time `db:"ends_at"`
	Rules       []byte    `db:"rules"`
}

func (m tournamentTableModel) toDomain() (tournament.Tournament, error) {
	rules := map[string]string{}
	if len(m.Rules) > 0 {
		if err := sonic.Unmarshal(m.Rules, &rules); err != nil {
			return tournament.Tournament{}, fmt.Errorf("decode tournament rules: %w", err)
		}
	}

	return tournament.Tournament{
		ID:          m.PublicID,
		OrganizerID: m.OrganizerID,
		Name:        m.Name,
		GameType:    m.GameType,
		Policy:      tournament.SubmissionPolicy(m.Policy),
		Visibility:  tournament.Visibility(m.Visibility),
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
		Rules:       rules,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func encodeRules(rules map[string]string) ([]byte, error) {
	if len(rules) == 0 {
		return []byte("{}"), nil
	}

	raw, err := sonic.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encode tournament rules: %w", err)
	}

	return raw, nil
}
