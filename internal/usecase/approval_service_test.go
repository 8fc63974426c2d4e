package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/repository/memory"
)

type approvalFixture struct {
	tournamentRepo *memory.TournamentRepository
	scoreRepo      *memory.ScoreRepository
	notifier       *recordingNotifier
	service        *ApprovalService
	now            time.Time
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	f := &approvalFixture{
		tournamentRepo: memory.NewTournamentRepository(memory.SeedTournaments(now)),
		scoreRepo:      memory.NewScoreRepository(),
		notifier:       &recordingNotifier{},
		now:            now,
	}

	f.service = NewApprovalService(f.tournamentRepo, f.scoreRepo, f.notifier, discardLogger())
	f.service.now = func() time.Time { return now }

	return f
}

func (f *approvalFixture) insertPending(t *testing.T, id, userID, songID string) score.Score {
	t.Helper()
	record := score.Score{
		ID:           id,
		TournamentID: memory.TournamentIDChunithmOpen,
		UserID:       userID,
		SongID:       songID,
		Value:        0,
		Status:       score.StatusPending,
		Channel:      score.ChannelImage,
		ImageRef:     "uploads/" + id + ".png",
		SubmittedAt:  f.now.Add(-time.Hour),
	}
	if err := f.scoreRepo.Insert(t.Context(), record); err != nil {
		t.Fatalf("insert pending score %s: %v", id, err)
	}
	return record
}

func TestApprovalService_Approve(t *testing.T) {
	f := newApprovalFixture(t)
	f.insertPending(t, "score-001", "player-1", "chn-001")

	approved, err := f.service.Approve(t.Context(), "score-001", "seed-organizer", 1_007_500)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != score.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if approved.Value != 1_007_500 {
		t.Fatalf("expected the organizer-entered value, got %d", approved.Value)
	}
	if approved.ApprovedBy != "seed-organizer" {
		t.Fatalf("expected approver seed-organizer, got %s", approved.ApprovedBy)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(f.now) {
		t.Fatalf("expected approved_at %v, got %v", f.now, approved.ApprovedAt)
	}

	if len(f.notifier.sent) != 1 || f.notifier.sent[0].RecipientID != "player-1" {
		t.Fatalf("expected a notification to the submitter, got %+v", f.notifier.sent)
	}

	stored, exists, err := f.scoreRepo.GetByID(t.Context(), "score-001")
	if err != nil || !exists {
		t.Fatalf("expected stored record, exists=%v err=%v", exists, err)
	}
	if stored.Status != score.StatusApproved || stored.Value != 1_007_500 {
		t.Fatalf("store not updated, status=%s value=%d", stored.Status, stored.Value)
	}
}

func TestApprovalService_Approve_TerminalStates(t *testing.T) {
	f := newApprovalFixture(t)
	f.insertPending(t, "score-001", "player-1", "chn-001")
	f.insertPending(t, "score-002", "player-2", "chn-002")

	if _, err := f.service.Approve(t.Context(), "score-001", "seed-organizer", 950_000); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if _, err := f.service.Approve(t.Context(), "score-001", "seed-organizer", 960_000); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict approving an approved record, got %v", err)
	}
	if _, err := f.service.Reject(t.Context(), "score-001", "seed-organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict rejecting an approved record, got %v", err)
	}

	if _, err := f.service.Reject(t.Context(), "score-002", "seed-organizer"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := f.service.Approve(t.Context(), "score-002", "seed-organizer", 900_000); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict approving a rejected record, got %v", err)
	}
}

func TestApprovalService_Approve_Authorization(t *testing.T) {
	f := newApprovalFixture(t)
	f.insertPending(t, "score-001", "player-1", "chn-001")

	if _, err := f.service.Approve(t.Context(), "score-001", "", 900_000); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a caller, got %v", err)
	}
	if _, err := f.service.Approve(t.Context(), "score-001", "player-1", 900_000); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a non-organizer, got %v", err)
	}
	if _, err := f.service.Approve(t.Context(), "missing", "seed-organizer", 900_000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown score, got %v", err)
	}
	if _, err := f.service.Approve(t.Context(), "score-001", "seed-organizer", score.MaxValue+1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an out-of-range value, got %v", err)
	}
}

func TestApprovalService_Reject_KeepsSubmittedMetadata(t *testing.T) {
	f := newApprovalFixture(t)
	inserted := f.insertPending(t, "score-001", "player-1", "chn-001")

	rejected, err := f.service.Reject(t.Context(), "score-001", "seed-organizer")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != score.StatusRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}
	if rejected.Value != 0 || rejected.ApprovedAt != nil || rejected.ApprovedBy != "" {
		t.Fatalf("rejection must not set approval fields: %+v", rejected)
	}
	if rejected.ImageRef != inserted.ImageRef {
		t.Fatalf("submitted metadata lost on rejection")
	}
}

func TestApprovalService_ListPending(t *testing.T) {
	f := newApprovalFixture(t)
	f.insertPending(t, "score-002", "player-2", "chn-002")
	f.insertPending(t, "score-001", "player-1", "chn-001")

	items, err := f.service.ListPending(t.Context(), memory.TournamentIDChunithmOpen, "seed-organizer")
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 pending scores, got %d", len(items))
	}

	if _, err := f.service.ListPending(t.Context(), memory.TournamentIDChunithmOpen, "player-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a non-organizer, got %v", err)
	}
	if _, err := f.service.ListPending(t.Context(), "missing", "seed-organizer"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown tournament, got %v", err)
	}
}
