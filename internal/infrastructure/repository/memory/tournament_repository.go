package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
)

type TournamentRepository struct {
	mu   sync.RWMutex
	byID map[string]tournament.Tournament
}

func NewTournamentRepository(items []tournament.Tournament) *TournamentRepository {
	byID := make(map[string]tournament.Tournament, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	return &TournamentRepository{byID: byID}
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[tournamentID]
	return item, ok, nil
}

func (r *TournamentRepository) ListPublic(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.byID))
	for _, item := range r.byID {
		if item.Visibility == tournament.VisibilityPublic {
			out = append(out, item)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *TournamentRepository) Insert(_ context.Context, item tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.OrganizerID != item.OrganizerID {
			continue
		}
		// overlapping windows count as an active tournament
		if item.StartsAt.Before(existing.EndsAt) && existing.StartsAt.Before(item.EndsAt) {
			return tournament.ErrActiveTournamentExists
		}
	}

	r.byID[item.ID] = item
	return nil
}
