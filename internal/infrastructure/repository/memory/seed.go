package memory

import (
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/song"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
)

const (
	GameTypeChunithm = "chunithm"
	GameTypeMaimai   = "maimai"

	TournamentIDChunithmOpen = "chunithm-open-2026"
)

func SeedTournaments(now time.Time) []tournament.Tournament {
	return []tournament.Tournament{
		{
			ID:          TournamentIDChunithmOpen,
			OrganizerID: "seed-organizer",
			Name:        "Chunithm Open 2026",
			GameType:    GameTypeChunithm,
			Policy:      tournament.PolicyBoth,
			Visibility:  tournament.VisibilityPublic,
			StartsAt:    now.Add(-24 * time.Hour),
			EndsAt:      now.Add(14 * 24 * time.Hour),
			Rules:       map[string]string{"format": "total score over the song pool"},
			CreatedAt:   now.Add(-48 * time.Hour),
			UpdatedAt:   now.Add(-48 * time.Hour),
		},
	}
}

func SeedSongs() []song.Song {
	return []song.Song{
		{ID: "chn-001", GameType: GameTypeChunithm, Title: "Garakuta Doll Play", Difficulty: "master", Level: 14},
		{ID: "chn-002", GameType: GameTypeChunithm, Title: "Ikazuchi", Difficulty: "master", Level: 14},
		{ID: "chn-003", GameType: GameTypeChunithm, Title: "Trrricksters!!", Difficulty: "master", Level: 15},
		{ID: "chn-004", GameType: GameTypeChunithm, Title: "World Vanquisher", Difficulty: "expert", Level: 13},
		{ID: "mai-001", GameType: GameTypeMaimai, Title: "PANDORA PARADOXXX", Difficulty: "re:master", Level: 15},
		{ID: "mai-002", GameType: GameTypeMaimai, Title: "QZKago Requiem", Difficulty: "master", Level: 14},
	}
}

// SeedPool links the seeded chunithm songs to the seeded tournament.
func SeedPool() map[string][]string {
	return map[string][]string{
		TournamentIDChunithmOpen: {"chn-001", "chn-002", "chn-003", "chn-004"},
	}
}
