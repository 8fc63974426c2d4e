package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/usecase"
)

type submitScoreRequest struct {
	SongID   string `json:"song_id" validate:"required"`
	Value    int    `json:"value" validate:"min=0,max=1010000"`
	Channel  string `json:"channel" validate:"required,oneof=manual bookmarklet image"`
	ImageRef string `json:"image_ref" validate:"max=512"`
}

type approveScoreRequest struct {
	Value int `json:"value" validate:"min=0,max=1010000"`
}

type scoreDTO struct {
	ID           string     `json:"id"`
	TournamentID string     `json:"tournament_id"`
	UserID       string     `json:"user_id"`
	SongID       string     `json:"song_id"`
	Value        int        `json:"value"`
	Status       string     `json:"status"`
	Channel      string     `json:"channel"`
	ImageRef     string     `json:"image_ref,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
}

type submitScoreResponse struct {
	Outcome string   `json:"outcome"`
	Score   scoreDTO `json:"score"`
}

func scoreToDTO(item score.Score) scoreDTO {
	return scoreDTO{
		ID:           item.ID,
		TournamentID: item.TournamentID,
		UserID:       item.UserID,
		SongID:       item.SongID,
		Value:        item.Value,
		Status:       string(item.Status),
		Channel:      string(item.Channel),
		ImageRef:     item.ImageRef,
		SubmittedAt:  item.SubmittedAt,
		ApprovedAt:   item.ApprovedAt,
		ApprovedBy:   item.ApprovedBy,
	}
}

func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitScore")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req submitScoreRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, outcome, err := h.submissionService.Submit(ctx, usecase.SubmitScoreInput{
		TournamentID: tournamentID,
		UserID:       principal.UserID,
		SongID:       req.SongID,
		Value:        req.Value,
		Channel:      score.Channel(req.Channel),
		ImageRef:     req.ImageRef,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit score failed",
			"tournament_id", tournamentID,
			"user_id", principal.UserID,
			"song_id", req.SongID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if outcome == usecase.OutcomeCreated || outcome == usecase.OutcomePending {
		status = http.StatusCreated
	}

	writeSuccess(ctx, w, status, submitScoreResponse{
		Outcome: string(outcome),
		Score:   scoreToDTO(item),
	})
}

func (h *Handler) ListPendingScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPendingScores")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	items, err := h.approvalService.ListPending(ctx, tournamentID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list pending scores failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]scoreDTO, 0, len(items))
	for _, item := range items {
		out = append(out, scoreToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ApproveScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveScore")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	scoreID := strings.TrimSpace(r.PathValue("scoreID"))

	var req approveScoreRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.approvalService.Approve(ctx, scoreID, principal.UserID, req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "approve score failed", "score_id", scoreID, "organizer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreToDTO(item))
}

func (h *Handler) RejectScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectScore")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	scoreID := strings.TrimSpace(r.PathValue("scoreID"))
	item, err := h.approvalService.Reject(ctx, scoreID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "reject score failed", "score_id", scoreID, "organizer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreToDTO(item))
}
