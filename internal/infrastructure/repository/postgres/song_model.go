package postgres

import (
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/song"
)

type songTableModel struct {
	ID         int64      `db:"id"`
	PublicID   string     `db:"public_id"`
	GameType   string     `db:"game_type"`
	Title      string     `db:"title"`
	Difficulty string     `db:"difficulty"`
	Level      int        `db:"level"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

type tournamentSongInsertModel struct {
	TournamentID string `db:"tournament_public_id"`
	SongID       string `db:"song_public_id"`
}

func (m songTableModel) toDomain() song.Song {
	return song.Song{
		ID:         m.PublicID,
		GameType:   m.GameType,
		Title:      m.Title,
		Difficulty: m.Difficulty,
		Level:      m.Level,
	}
}
