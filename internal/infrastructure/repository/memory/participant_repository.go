package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
)

type ParticipantRepository struct {
	mu           sync.RWMutex
	byTournament map[string]map[string]participant.Participant
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{
		byTournament: make(map[string]map[string]participant.Participant),
	}
}

func (r *ParticipantRepository) Get(_ context.Context, tournamentID, userID string) (participant.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byTournament[tournamentID][userID]
	return item, ok, nil
}

func (r *ParticipantRepository) ListByTournament(_ context.Context, tournamentID string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byTournament[tournamentID]
	out := make([]participant.Participant, 0, len(members))
	for _, item := range members {
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})

	return out, nil
}

func (r *ParticipantRepository) Insert(_ context.Context, item participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.byTournament[item.TournamentID]
	if !ok {
		members = make(map[string]participant.Participant)
		r.byTournament[item.TournamentID] = members
	}
	if _, taken := members[item.UserID]; taken {
		return participant.ErrAlreadyJoined
	}

	members[item.UserID] = item
	return nil
}

func (r *ParticipantRepository) Delete(_ context.Context, tournamentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.byTournament[tournamentID]
	if _, ok := members[userID]; !ok {
		return false, nil
	}

	delete(members, userID)
	return true, nil
}
