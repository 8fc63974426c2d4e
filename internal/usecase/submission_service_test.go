package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/repository/memory"
)

type seqIDGenerator struct {
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

type recordedNotification struct {
	RecipientID  string
	Message      string
	TournamentID string
}

type recordingNotifier struct {
	sent []recordedNotification
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID, message, tournamentID string) error {
	n.sent = append(n.sent, recordedNotification{
		RecipientID:  recipientID,
		Message:      message,
		TournamentID: tournamentID,
	})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type submissionFixture struct {
	tournamentRepo  *memory.TournamentRepository
	participantRepo *memory.ParticipantRepository
	songRepo        *memory.SongRepository
	scoreRepo       *memory.ScoreRepository
	notifier        *recordingNotifier
	service         *SubmissionService
	now             time.Time
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	f := &submissionFixture{
		tournamentRepo:  memory.NewTournamentRepository(memory.SeedTournaments(now)),
		participantRepo: memory.NewParticipantRepository(),
		songRepo:        memory.NewSongRepository(memory.SeedSongs()),
		scoreRepo:       memory.NewScoreRepository(),
		notifier:        &recordingNotifier{},
		now:             now,
	}

	for tournamentID, songIDs := range memory.SeedPool() {
		for _, songID := range songIDs {
			if err := f.songRepo.AddToPool(t.Context(), tournamentID, songID); err != nil {
				t.Fatalf("seed song pool: %v", err)
			}
		}
	}

	f.service = NewSubmissionService(
		f.tournamentRepo,
		f.participantRepo,
		f.songRepo,
		f.scoreRepo,
		&seqIDGenerator{prefix: "score"},
		f.notifier,
		discardLogger(),
	)
	f.service.now = func() time.Time { return now }

	return f
}

func (f *submissionFixture) join(t *testing.T, userID string) {
	t.Helper()
	err := f.participantRepo.Insert(t.Context(), participant.Participant{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       userID,
		DisplayName:  userID,
		JoinedAt:     f.now,
	})
	if err != nil {
		t.Fatalf("join participant %s: %v", userID, err)
	}
}

func TestSubmissionService_Submit_CreateImproveKeep(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	input := SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        990_000,
		Channel:      score.ChannelManual,
	}

	created, outcome, err := f.service.Submit(t.Context(), input)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected outcome %s, got %s", OutcomeCreated, outcome)
	}
	if created.Status != score.StatusApproved {
		t.Fatalf("direct submissions should be approved immediately, got %s", created.Status)
	}
	if created.Value != 990_000 {
		t.Fatalf("expected value 990000, got %d", created.Value)
	}

	input.Value = 1_002_500
	input.Channel = score.ChannelBookmarklet
	improved, outcome, err := f.service.Submit(t.Context(), input)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if outcome != OutcomeImproved {
		t.Fatalf("expected outcome %s, got %s", OutcomeImproved, outcome)
	}
	if improved.ID != created.ID {
		t.Fatalf("improvement must update the record in place, got new id %s", improved.ID)
	}
	if improved.Value != 1_002_500 || improved.Channel != score.ChannelBookmarklet {
		t.Fatalf("expected value 1002500 via bookmarklet, got %d via %s", improved.Value, improved.Channel)
	}

	input.Value = 995_000
	kept, outcome, err := f.service.Submit(t.Context(), input)
	if err != nil {
		t.Fatalf("third submit failed: %v", err)
	}
	if outcome != OutcomeKeptExisting {
		t.Fatalf("expected outcome %s, got %s", OutcomeKeptExisting, outcome)
	}
	if kept.Value != 1_002_500 {
		t.Fatalf("a lower submission must not touch the stored value, got %d", kept.Value)
	}

	stored, exists, err := f.scoreRepo.GetApprovedDirect(t.Context(), input.TournamentID, input.UserID, input.SongID)
	if err != nil || !exists {
		t.Fatalf("expected stored approved record, exists=%v err=%v", exists, err)
	}
	if stored.Value != 1_002_500 {
		t.Fatalf("stored value drifted, got %d", stored.Value)
	}
}

func TestSubmissionService_Submit_EqualValueKeepsExisting(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	input := SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-002",
		Value:        1_000_000,
		Channel:      score.ChannelManual,
	}
	if _, _, err := f.service.Submit(t.Context(), input); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, outcome, err := f.service.Submit(t.Context(), input)
	if err != nil {
		t.Fatalf("equal resubmit failed: %v", err)
	}
	if outcome != OutcomeKeptExisting {
		t.Fatalf("an equal value must not count as an improvement, got %s", outcome)
	}
}

func TestSubmissionService_Submit_ImageCreatesPending(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-2")

	record, outcome, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-2",
		SongID:       "chn-003",
		Value:        1_009_999,
		Channel:      score.ChannelImage,
		ImageRef:     "uploads/result-20260314.png",
	})
	if err != nil {
		t.Fatalf("image submit failed: %v", err)
	}
	if outcome != OutcomePending {
		t.Fatalf("expected outcome %s, got %s", OutcomePending, outcome)
	}
	if record.Status != score.StatusPending {
		t.Fatalf("expected pending status, got %s", record.Status)
	}
	if record.Value != 0 {
		t.Fatalf("the claimed value must not be stored before review, got %d", record.Value)
	}
	if record.ImageRef != "uploads/result-20260314.png" {
		t.Fatalf("image reference lost, got %q", record.ImageRef)
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one organizer notification, got %d", len(f.notifier.sent))
	}
	if f.notifier.sent[0].RecipientID != "seed-organizer" {
		t.Fatalf("notification should target the organizer, got %s", f.notifier.sent[0].RecipientID)
	}

	// A second image for the same song piles up as its own pending record.
	second, _, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-2",
		SongID:       "chn-003",
		Channel:      score.ChannelImage,
		ImageRef:     "uploads/result-20260314b.png",
	})
	if err != nil {
		t.Fatalf("second image submit failed: %v", err)
	}
	if second.ID == record.ID {
		t.Fatalf("each image submission must create a fresh record")
	}
}

func TestSubmissionService_Submit_Validation(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	base := SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        900_000,
		Channel:      score.ChannelManual,
	}

	cases := []struct {
		name    string
		mutate  func(*SubmitScoreInput)
		wantErr error
	}{
		{
			name:    "unknown channel",
			mutate:  func(in *SubmitScoreInput) { in.Channel = "fax" },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "value above cap",
			mutate:  func(in *SubmitScoreInput) { in.Value = score.MaxValue + 1 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative value",
			mutate:  func(in *SubmitScoreInput) { in.Value = -1 },
			wantErr: ErrInvalidInput,
		},
		{
			name: "negative claimed value on image channel",
			mutate: func(in *SubmitScoreInput) {
				in.Channel = score.ChannelImage
				in.ImageRef = "uploads/evidence.png"
				in.Value = -5
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "image without reference",
			mutate: func(in *SubmitScoreInput) {
				in.Channel = score.ChannelImage
				in.ImageRef = ""
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown tournament",
			mutate:  func(in *SubmitScoreInput) { in.TournamentID = "missing" },
			wantErr: ErrNotFound,
		},
		{
			name:    "not a participant",
			mutate:  func(in *SubmitScoreInput) { in.UserID = "stranger" },
			wantErr: ErrForbidden,
		},
		{
			name:    "unknown song",
			mutate:  func(in *SubmitScoreInput) { in.SongID = "chn-999" },
			wantErr: ErrNotFound,
		},
		{
			name:    "song outside the pool",
			mutate:  func(in *SubmitScoreInput) { in.SongID = "mai-001" },
			wantErr: ErrForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, _, err := f.service.Submit(t.Context(), input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSubmissionService_Submit_ClosedWindow(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	f.service.now = func() time.Time { return f.now.Add(30 * 24 * time.Hour) }

	_, _, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        900_000,
		Channel:      score.ChannelManual,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after the window closes, got %v", err)
	}
}

func TestSubmissionService_Submit_PolicyRejectsChannel(t *testing.T) {
	f := newSubmissionFixture(t)

	restricted := memory.SeedTournaments(f.now)[0]
	restricted.ID = "image-only-cup"
	restricted.OrganizerID = "organizer-2"
	restricted.Policy = "image"
	if err := f.tournamentRepo.Insert(t.Context(), restricted); err != nil {
		t.Fatalf("insert restricted tournament: %v", err)
	}
	if err := f.participantRepo.Insert(t.Context(), participant.Participant{
		TournamentID: restricted.ID,
		UserID:       "player-1",
		DisplayName:  "player-1",
		JoinedAt:     f.now,
	}); err != nil {
		t.Fatalf("join restricted tournament: %v", err)
	}
	if err := f.songRepo.AddToPool(t.Context(), restricted.ID, "chn-001"); err != nil {
		t.Fatalf("seed restricted pool: %v", err)
	}

	_, _, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: restricted.ID,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        900_000,
		Channel:      score.ChannelBookmarklet,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a channel the policy rejects, got %v", err)
	}

	// Manual entry stays available regardless of policy.
	_, outcome, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: restricted.ID,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        900_000,
		Channel:      score.ChannelManual,
	})
	if err != nil {
		t.Fatalf("manual submit on image-only tournament failed: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected outcome %s, got %s", OutcomeCreated, outcome)
	}
}

func TestSubmissionService_ApprovedImageCoexistsWithDirectRecord(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	direct, _, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        900_000,
		Channel:      score.ChannelManual,
	})
	if err != nil {
		t.Fatalf("manual submit failed: %v", err)
	}

	// An image for the same triple still lands as a fresh pending record.
	pending, outcome, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Channel:      score.ChannelImage,
		ImageRef:     "uploads/result-chn-001.png",
	})
	if err != nil {
		t.Fatalf("image submit alongside an approved record failed: %v", err)
	}
	if outcome != OutcomePending {
		t.Fatalf("expected outcome %s, got %s", OutcomePending, outcome)
	}
	if pending.ID == direct.ID {
		t.Fatalf("image submission must not touch the direct record")
	}

	approvals := NewApprovalService(f.tournamentRepo, f.scoreRepo, f.notifier, discardLogger())
	approvals.now = func() time.Time { return f.now.Add(time.Hour) }
	if _, err := approvals.Approve(t.Context(), pending.ID, "seed-organizer", 920_000); err != nil {
		t.Fatalf("approve image record failed: %v", err)
	}

	// The direct record is untouched by the review.
	stored, exists, err := f.scoreRepo.GetApprovedDirect(t.Context(), memory.TournamentIDChunithmOpen, "player-1", "chn-001")
	if err != nil || !exists {
		t.Fatalf("expected direct record to survive, exists=%v err=%v", exists, err)
	}
	if stored.ID != direct.ID || stored.Value != 900_000 || stored.Status != score.StatusApproved || stored.Channel != score.ChannelManual {
		t.Fatalf("direct record changed by image approval: %+v", stored)
	}

	// Both approved records count toward the total.
	rankings := NewRankingService(f.tournamentRepo, f.participantRepo, f.scoreRepo)
	entries, err := rankings.GetRanking(t.Context(), memory.TournamentIDChunithmOpen, "")
	if err != nil {
		t.Fatalf("get ranking failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ranking entry, got %d", len(entries))
	}
	if entries[0].TotalScore != 1_820_000 {
		t.Fatalf("expected both approved records summed to 1820000, got %d", entries[0].TotalScore)
	}
}

// racingScoreRepo makes the first Insert lose against a planted concurrent
// winner, the way the partial unique index behaves under a real race.
type racingScoreRepo struct {
	*memory.ScoreRepository
	winner  score.Score
	planted bool
}

func (r *racingScoreRepo) Insert(ctx context.Context, record score.Score) error {
	if !r.planted {
		r.planted = true
		if err := r.ScoreRepository.Insert(ctx, r.winner); err != nil {
			return err
		}
		return score.ErrDuplicateApproved
	}
	return r.ScoreRepository.Insert(ctx, record)
}

func TestSubmissionService_Submit_InsertRaceReconciles(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	winner := score.Score{
		ID:           "score-winner",
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        980_000,
		Status:       score.StatusApproved,
		Channel:      score.ChannelBookmarklet,
		SubmittedAt:  f.now,
	}
	racing := &racingScoreRepo{ScoreRepository: f.scoreRepo, winner: winner}
	f.service.scoreRepo = racing

	record, outcome, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        990_000,
		Channel:      score.ChannelManual,
	})
	if err != nil {
		t.Fatalf("submit after losing the insert race failed: %v", err)
	}
	if outcome != OutcomeImproved {
		t.Fatalf("a higher candidate must improve the race winner, got %s", outcome)
	}
	if record.ID != "score-winner" || record.Value != 990_000 {
		t.Fatalf("expected winner record raised to 990000, got id=%s value=%d", record.ID, record.Value)
	}
}

func TestSubmissionService_Submit_InsertRaceKeepsHigherWinner(t *testing.T) {
	f := newSubmissionFixture(t)
	f.join(t, "player-1")

	winner := score.Score{
		ID:           "score-winner",
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        999_000,
		Status:       score.StatusApproved,
		Channel:      score.ChannelManual,
		SubmittedAt:  f.now,
	}
	racing := &racingScoreRepo{ScoreRepository: f.scoreRepo, winner: winner}
	f.service.scoreRepo = racing

	record, outcome, err := f.service.Submit(t.Context(), SubmitScoreInput{
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       "player-1",
		SongID:       "chn-001",
		Value:        990_000,
		Channel:      score.ChannelManual,
	})
	if err != nil {
		t.Fatalf("submit after losing the insert race failed: %v", err)
	}
	if outcome != OutcomeKeptExisting {
		t.Fatalf("a lower candidate must defer to the race winner, got %s", outcome)
	}
	if record.Value != 999_000 {
		t.Fatalf("expected winner value 999000, got %d", record.Value)
	}
}
