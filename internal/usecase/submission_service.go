package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/domain/song"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
	idgen "github.com/Awes0314/gcm-arena/internal/platform/id"
)

// SubmitOutcome tells the caller how a submission was reconciled against the
// existing approved record for its (tournament, user, song) triple.
type SubmitOutcome string

const (
	// OutcomeCreated means a new approved record was inserted.
	OutcomeCreated SubmitOutcome = "created"
	// OutcomeImproved means the existing approved record was raised in place.
	OutcomeImproved SubmitOutcome = "improved"
	// OutcomeKeptExisting means the candidate did not beat the stored value
	// and nothing was written.
	OutcomeKeptExisting SubmitOutcome = "kept_existing"
	// OutcomePending means an image submission was stored for organizer review.
	OutcomePending SubmitOutcome = "pending_review"
)

type SubmitScoreInput struct {
	TournamentID string
	UserID       string
	SongID       string
	Value        int
	Channel      score.Channel
	ImageRef     string
}

// SubmissionService reconciles incoming score submissions with the stored
// approved record for the same triple: insert when none exists, raise in
// place when the candidate is higher, no-op otherwise. Image submissions
// always become new pending records and defer the decision to review.
type SubmissionService struct {
	tournamentRepo  tournament.Repository
	participantRepo participant.Repository
	songRepo        song.Repository
	scoreRepo       score.Repository
	ids             idgen.Generator
	notifier        Notifier
	logger          *slog.Logger
	now             func() time.Time
}

func NewSubmissionService(
	tournamentRepo tournament.Repository,
	participantRepo participant.Repository,
	songRepo song.Repository,
	scoreRepo score.Repository,
	ids idgen.Generator,
	notifier Notifier,
	logger *slog.Logger,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &SubmissionService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		songRepo:        songRepo,
		scoreRepo:       scoreRepo,
		ids:             ids,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, input SubmitScoreInput) (score.Score, SubmitOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit")
	defer span.End()

	input.TournamentID = strings.TrimSpace(input.TournamentID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.SongID = strings.TrimSpace(input.SongID)
	input.ImageRef = strings.TrimSpace(input.ImageRef)

	if input.TournamentID == "" || input.UserID == "" || input.SongID == "" {
		return score.Score{}, "", fmt.Errorf("%w: tournament, user and song ids are required", ErrInvalidInput)
	}
	if !input.Channel.Valid() {
		return score.Score{}, "", fmt.Errorf("%w: unknown submission channel %q", ErrInvalidInput, input.Channel)
	}
	if !score.ValidValue(input.Value) {
		return score.Score{}, "", fmt.Errorf("%w: value must be within [0, %d]", ErrInvalidInput, score.MaxValue)
	}
	if input.Channel == score.ChannelImage && input.ImageRef == "" {
		return score.Score{}, "", fmt.Errorf("%w: image submissions require an image reference", ErrInvalidInput)
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		return score.Score{}, "", fmt.Errorf("get tournament for submission: %w", err)
	}
	if !exists {
		return score.Score{}, "", fmt.Errorf("%w: tournament=%s", ErrNotFound, input.TournamentID)
	}

	now := s.now().UTC()
	if !t.IsOpenAt(now) {
		return score.Score{}, "", fmt.Errorf("%w: tournament submission window is closed", ErrConflict)
	}
	if !t.Policy.AllowsChannel(input.Channel) {
		return score.Score{}, "", fmt.Errorf("%w: channel %q is not accepted by this tournament", ErrInvalidInput, input.Channel)
	}

	if _, joined, err := s.participantRepo.Get(ctx, input.TournamentID, input.UserID); err != nil {
		return score.Score{}, "", fmt.Errorf("get participant for submission: %w", err)
	} else if !joined {
		return score.Score{}, "", fmt.Errorf("%w: user is not a participant of this tournament", ErrForbidden)
	}

	if _, exists, err := s.songRepo.GetByID(ctx, input.SongID); err != nil {
		return score.Score{}, "", fmt.Errorf("get song for submission: %w", err)
	} else if !exists {
		return score.Score{}, "", fmt.Errorf("%w: song=%s", ErrNotFound, input.SongID)
	}
	if inPool, err := s.songRepo.InPool(ctx, input.TournamentID, input.SongID); err != nil {
		return score.Score{}, "", fmt.Errorf("check song pool for submission: %w", err)
	} else if !inPool {
		return score.Score{}, "", fmt.Errorf("%w: song is not part of this tournament's pool", ErrForbidden)
	}

	if input.Channel == score.ChannelImage {
		return s.submitImage(ctx, t, input, now)
	}

	return s.submitDirect(ctx, t, input, now)
}

// submitImage always creates a fresh pending record. The player-claimed value
// is not trusted; the stored value stays at zero until an organizer enters
// one during review.
func (s *SubmissionService) submitImage(ctx context.Context, t tournament.Tournament, input SubmitScoreInput, now time.Time) (score.Score, SubmitOutcome, error) {
	newID, err := s.ids.NewID()
	if err != nil {
		return score.Score{}, "", fmt.Errorf("generate score id: %w", err)
	}

	record := score.Score{
		ID:           newID,
		TournamentID: input.TournamentID,
		UserID:       input.UserID,
		SongID:       input.SongID,
		Value:        0,
		Status:       score.StatusPending,
		Channel:      score.ChannelImage,
		ImageRef:     input.ImageRef,
		SubmittedAt:  now,
	}
	if err := s.scoreRepo.Insert(ctx, record); err != nil {
		return score.Score{}, "", fmt.Errorf("insert pending image score: %w", err)
	}

	s.notifyOrganizer(ctx, t, input.UserID, "A new image score submission is waiting for review.")

	return record, OutcomePending, nil
}

func (s *SubmissionService) submitDirect(ctx context.Context, t tournament.Tournament, input SubmitScoreInput, now time.Time) (score.Score, SubmitOutcome, error) {
	existing, exists, err := s.scoreRepo.GetApprovedDirect(ctx, input.TournamentID, input.UserID, input.SongID)
	if err != nil {
		return score.Score{}, "", fmt.Errorf("get approved score for submission: %w", err)
	}

	if !exists {
		newID, err := s.ids.NewID()
		if err != nil {
			return score.Score{}, "", fmt.Errorf("generate score id: %w", err)
		}

		record := score.Score{
			ID:           newID,
			TournamentID: input.TournamentID,
			UserID:       input.UserID,
			SongID:       input.SongID,
			Value:        input.Value,
			Status:       score.StatusApproved,
			Channel:      input.Channel,
			SubmittedAt:  now,
		}
		err = s.scoreRepo.Insert(ctx, record)
		if err == nil {
			s.notifyOrganizer(ctx, t, input.UserID, "A new score was recorded.")
			return record, OutcomeCreated, nil
		}
		if !errors.Is(err, score.ErrDuplicateApproved) {
			return score.Score{}, "", fmt.Errorf("insert approved score: %w", err)
		}

		// Lost the insert race against a concurrent submission for the same
		// triple; re-read and reconcile against the winner.
		existing, exists, err = s.scoreRepo.GetApprovedDirect(ctx, input.TournamentID, input.UserID, input.SongID)
		if err != nil {
			return score.Score{}, "", fmt.Errorf("re-read approved score after conflict: %w", err)
		}
		if !exists {
			return score.Score{}, "", fmt.Errorf("%w: concurrent submission conflict", ErrConflict)
		}
	}

	if input.Value <= existing.Value {
		return existing, OutcomeKeptExisting, nil
	}

	updated, err := s.scoreRepo.UpdateApprovedValue(ctx, existing.ID, input.Value, input.Channel, now)
	if err != nil {
		return score.Score{}, "", fmt.Errorf("update approved score: %w", err)
	}
	if !updated {
		// A concurrent submission raised the record past the candidate first.
		refreshed, _, err := s.scoreRepo.GetApprovedDirect(ctx, input.TournamentID, input.UserID, input.SongID)
		if err != nil {
			return score.Score{}, "", fmt.Errorf("re-read approved score after no-op update: %w", err)
		}
		return refreshed, OutcomeKeptExisting, nil
	}

	existing.Value = input.Value
	existing.Channel = input.Channel
	existing.SubmittedAt = now

	s.notifyOrganizer(ctx, t, input.UserID, "A recorded score was improved.")

	return existing, OutcomeImproved, nil
}

func (s *SubmissionService) notifyOrganizer(ctx context.Context, t tournament.Tournament, submitterID, message string) {
	if t.OrganizerID == "" || t.OrganizerID == submitterID {
		return
	}
	if err := s.notifier.Notify(ctx, t.OrganizerID, message, t.ID); err != nil {
		s.logger.WarnContext(ctx, "notify organizer failed",
			"tournament_id", t.ID,
			"organizer_id", t.OrganizerID,
			"error", err,
		)
	}
}
