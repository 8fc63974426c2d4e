package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
)

// ScoreRepository mirrors the postgres uniqueness and conditional-update
// semantics under a single mutex so usecase behavior matches either backend.
type ScoreRepository struct {
	mu     sync.RWMutex
	byID   map[string]score.Score
	// direct approved records keyed by tournament|user|song
	directIndex map[string]string
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{
		byID:        make(map[string]score.Score),
		directIndex: make(map[string]string),
	}
}

func directKey(tournamentID, userID, songID string) string {
	return tournamentID + "|" + userID + "|" + songID
}

func (r *ScoreRepository) GetByID(_ context.Context, scoreID string) (score.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[scoreID]
	return item, ok, nil
}

func (r *ScoreRepository) GetApprovedDirect(_ context.Context, tournamentID, userID, songID string) (score.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.directIndex[directKey(tournamentID, userID, songID)]
	if !ok {
		return score.Score{}, false, nil
	}

	item, ok := r.byID[id]
	return item, ok, nil
}

func (r *ScoreRepository) Insert(_ context.Context, record score.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.Status == score.StatusApproved && record.Channel.IsDirect() {
		key := directKey(record.TournamentID, record.UserID, record.SongID)
		if _, taken := r.directIndex[key]; taken {
			return score.ErrDuplicateApproved
		}
		r.directIndex[key] = record.ID
	}

	r.byID[record.ID] = record
	return nil
}

func (r *ScoreRepository) UpdateApprovedValue(_ context.Context, scoreID string, value int, channel score.Channel, submittedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[scoreID]
	if !ok || item.Status != score.StatusApproved || item.Value >= value {
		return false, nil
	}

	item.Value = value
	item.Channel = channel
	item.SubmittedAt = submittedAt
	r.byID[scoreID] = item

	return true, nil
}

func (r *ScoreRepository) ApprovePending(_ context.Context, scoreID string, value int, approvedAt time.Time, approvedBy string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[scoreID]
	if !ok || item.Status != score.StatusPending {
		return false, nil
	}

	item.Value = value
	item.Status = score.StatusApproved
	item.ApprovedAt = &approvedAt
	item.ApprovedBy = approvedBy
	r.byID[scoreID] = item

	return true, nil
}

func (r *ScoreRepository) RejectPending(_ context.Context, scoreID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[scoreID]
	if !ok || item.Status != score.StatusPending {
		return false, nil
	}

	item.Status = score.StatusRejected
	r.byID[scoreID] = item

	return true, nil
}

func (r *ScoreRepository) ListApprovedByTournament(_ context.Context, tournamentID string) ([]score.Score, error) {
	return r.listByStatus(tournamentID, score.StatusApproved), nil
}

func (r *ScoreRepository) ListPendingByTournament(_ context.Context, tournamentID string) ([]score.Score, error) {
	return r.listByStatus(tournamentID, score.StatusPending), nil
}

func (r *ScoreRepository) listByStatus(tournamentID string, status score.Status) []score.Score {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]score.Score, 0)
	for _, item := range r.byID {
		if item.TournamentID == tournamentID && item.Status == status {
			out = append(out, item)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

func (r *ScoreRepository) SumApprovedByTournament(_ context.Context, tournamentID string) ([]score.UserTotal, error) {
	r.mu.RLock()
	totals := make(map[string]int)
	for _, item := range r.byID {
		if item.TournamentID == tournamentID && item.Status == score.StatusApproved {
			totals[item.UserID] += item.Value
		}
	}
	r.mu.RUnlock()

	out := make([]score.UserTotal, 0, len(totals))
	for userID, total := range totals {
		out = append(out, score.UserTotal{UserID: userID, Total: total})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}
