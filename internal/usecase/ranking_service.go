package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/ranking"
	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
)

// RankingService derives tournament rankings on demand. Nothing is persisted:
// every read sums the approved records and orders the participants fresh, so
// a ranking can never drift from the score store.
type RankingService struct {
	tournamentRepo  tournament.Repository
	participantRepo participant.Repository
	scoreRepo       score.Repository
}

func NewRankingService(
	tournamentRepo tournament.Repository,
	participantRepo participant.Repository,
	scoreRepo score.Repository,
) *RankingService {
	return &RankingService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		scoreRepo:       scoreRepo,
	}
}

// GetRanking returns the current standings for a tournament. Every
// participant appears, including those with no approved score yet; ties share
// a rank and the next rank is skipped (1, 1, 3).
func (s *RankingService) GetRanking(ctx context.Context, tournamentID, viewerID string) ([]ranking.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.GetRanking")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("get tournament for ranking: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	if err := s.authorizeRead(ctx, t, viewerID); err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants for ranking: %w", err)
	}

	totals, err := s.scoreRepo.SumApprovedByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("sum approved scores for ranking: %w", err)
	}

	byUser := make(map[string]int, len(totals))
	for _, row := range totals {
		byUser[row.UserID] = row.Total
	}

	entries := make([]ranking.Entry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, ranking.Entry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			TotalScore:  byUser[p.UserID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].UserID < entries[j].UserID
	})

	rank := 0
	lastTotal := -1
	for i := range entries {
		if i == 0 || entries[i].TotalScore != lastTotal {
			rank = i + 1
			lastTotal = entries[i].TotalScore
		}
		entries[i].Rank = rank
	}

	return entries, nil
}

// authorizeRead gates ranking reads on visibility. Public tournaments are
// open to everyone; private ones require the organizer or a participant.
func (s *RankingService) authorizeRead(ctx context.Context, t tournament.Tournament, viewerID string) error {
	if t.Visibility == tournament.VisibilityPublic {
		return nil
	}

	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return fmt.Errorf("%w: sign in to view this ranking", ErrUnauthorized)
	}
	if viewerID == t.OrganizerID {
		return nil
	}

	_, joined, err := s.participantRepo.Get(ctx, t.ID, viewerID)
	if err != nil {
		return fmt.Errorf("get participant for ranking access: %w", err)
	}
	if !joined {
		return fmt.Errorf("%w: ranking is restricted to tournament members", ErrForbidden)
	}

	return nil
}
