package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
)

// ApprovalService is the organizer-facing review path for pending image
// submissions. Pending is the only non-terminal status: once a record is
// approved or rejected no further transition is possible.
type ApprovalService struct {
	tournamentRepo tournament.Repository
	scoreRepo      score.Repository
	notifier       Notifier
	logger         *slog.Logger
	now            func() time.Time
}

func NewApprovalService(
	tournamentRepo tournament.Repository,
	scoreRepo score.Repository,
	notifier Notifier,
	logger *slog.Logger,
) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &ApprovalService{
		tournamentRepo: tournamentRepo,
		scoreRepo:      scoreRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// Approve sets the organizer-entered value on a pending record and marks it
// approved. The value the player claimed alongside the image is never
// trusted. Approval does not consult the only-improve rule: a reviewed image
// score stands on its own next to any direct record for the same triple.
func (s *ApprovalService) Approve(ctx context.Context, scoreID, organizerID string, value int) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApprovalService.Approve")
	defer span.End()

	if !score.ValidValue(value) {
		return score.Score{}, fmt.Errorf("%w: value must be within [0, %d]", ErrInvalidInput, score.MaxValue)
	}

	record, err := s.loadForReview(ctx, scoreID, organizerID)
	if err != nil {
		return score.Score{}, err
	}

	now := s.now().UTC()
	transitioned, err := s.scoreRepo.ApprovePending(ctx, record.ID, value, now, organizerID)
	if err != nil {
		return score.Score{}, fmt.Errorf("approve pending score: %w", err)
	}
	if !transitioned {
		return score.Score{}, fmt.Errorf("%w: score is no longer pending", ErrConflict)
	}

	record.Value = value
	record.Status = score.StatusApproved
	record.ApprovedAt = &now
	record.ApprovedBy = organizerID

	s.notifySubmitter(ctx, record, "Your image score submission was approved.")

	return record, nil
}

// Reject marks a pending record rejected. The record keeps its submitted
// metadata for history; no value or approval fields change.
func (s *ApprovalService) Reject(ctx context.Context, scoreID, organizerID string) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApprovalService.Reject")
	defer span.End()

	record, err := s.loadForReview(ctx, scoreID, organizerID)
	if err != nil {
		return score.Score{}, err
	}

	transitioned, err := s.scoreRepo.RejectPending(ctx, record.ID)
	if err != nil {
		return score.Score{}, fmt.Errorf("reject pending score: %w", err)
	}
	if !transitioned {
		return score.Score{}, fmt.Errorf("%w: score is no longer pending", ErrConflict)
	}

	record.Status = score.StatusRejected

	s.notifySubmitter(ctx, record, "Your image score submission was rejected.")

	return record, nil
}

// ListPending returns the organizer's review queue for a tournament, oldest
// submission first.
func (s *ApprovalService) ListPending(ctx context.Context, tournamentID, organizerID string) ([]score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApprovalService.ListPending")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("get tournament for pending queue: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}
	if t.OrganizerID != organizerID {
		return nil, fmt.Errorf("%w: only the organizer may review submissions", ErrForbidden)
	}

	items, err := s.scoreRepo.ListPendingByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list pending scores: %w", err)
	}

	return items, nil
}

func (s *ApprovalService) loadForReview(ctx context.Context, scoreID, organizerID string) (score.Score, error) {
	scoreID = strings.TrimSpace(scoreID)
	organizerID = strings.TrimSpace(organizerID)
	if scoreID == "" {
		return score.Score{}, fmt.Errorf("%w: score id is required", ErrInvalidInput)
	}
	if organizerID == "" {
		return score.Score{}, fmt.Errorf("%w: caller identity is required", ErrUnauthorized)
	}

	record, exists, err := s.scoreRepo.GetByID(ctx, scoreID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get score for review: %w", err)
	}
	if !exists {
		return score.Score{}, fmt.Errorf("%w: score=%s", ErrNotFound, scoreID)
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, record.TournamentID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get tournament for review: %w", err)
	}
	if !exists {
		return score.Score{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, record.TournamentID)
	}
	if t.OrganizerID != organizerID {
		return score.Score{}, fmt.Errorf("%w: only the organizer may review submissions", ErrForbidden)
	}
	if record.Status != score.StatusPending {
		return score.Score{}, fmt.Errorf("%w: score is not pending review", ErrConflict)
	}

	return record, nil
}

func (s *ApprovalService) notifySubmitter(ctx context.Context, record score.Score, message string) {
	if err := s.notifier.Notify(ctx, record.UserID, message, record.TournamentID); err != nil {
		s.logger.WarnContext(ctx, "notify submitter failed",
			"tournament_id", record.TournamentID,
			"user_id", record.UserID,
			"error", err,
		)
	}
}
