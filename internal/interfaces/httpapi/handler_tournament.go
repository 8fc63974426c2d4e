package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/song"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
	"github.com/Awes0314/gcm-arena/internal/usecase"
)

type createTournamentRequest struct {
	Name       string            `json:"name" validate:"required,max=200"`
	GameType   string            `json:"game_type" validate:"required,max=50"`
	Policy     string            `json:"submission_policy" validate:"required,oneof=bookmarklet image both"`
	Visibility string            `json:"visibility" validate:"required,oneof=public private"`
	StartsAt   time.Time         `json:"starts_at" validate:"required"`
	EndsAt     time.Time         `json:"ends_at" validate:"required"`
	Rules      map[string]string `json:"rules"`
}

type joinTournamentRequest struct {
	DisplayName string `json:"display_name" validate:"max=100"`
}

type addSongRequest struct {
	SongID string `json:"song_id" validate:"required"`
}

type tournamentDTO struct {
	ID         string            `json:"id"`
	Organizer  string            `json:"organizer_id"`
	Name       string            `json:"name"`
	GameType   string            `json:"game_type"`
	Policy     string            `json:"submission_policy"`
	Visibility string            `json:"visibility"`
	StartsAt   time.Time         `json:"starts_at"`
	EndsAt     time.Time         `json:"ends_at"`
	Rules      map[string]string `json:"rules,omitempty"`
}

type participantDTO struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

type songDTO struct {
	ID         string `json:"id"`
	GameType   string `json:"game_type"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Level      int    `json:"level"`
}

func tournamentToDTO(t tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:         t.ID,
		Organizer:  t.OrganizerID,
		Name:       t.Name,
		GameType:   t.GameType,
		Policy:     string(t.Policy),
		Visibility: string(t.Visibility),
		StartsAt:   t.StartsAt,
		EndsAt:     t.EndsAt,
		Rules:      t.Rules,
	}
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createTournamentRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.tournamentService.Create(ctx, usecase.CreateTournamentInput{
		OrganizerID: principal.UserID,
		Name:        req.Name,
		GameType:    req.GameType,
		Policy:      tournament.SubmissionPolicy(req.Policy),
		Visibility:  tournament.Visibility(req.Visibility),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Rules:       req.Rules,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create tournament failed", "organizer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tournamentToDTO(item))
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	items, err := h.tournamentService.ListPublic(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]tournamentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, tournamentToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournament")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	viewerID := ""
	if principal, ok := principalFromContext(ctx); ok {
		viewerID = principal.UserID
	}

	item, err := h.tournamentService.GetForViewer(ctx, tournamentID, viewerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) JoinTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinTournament")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req joinTournamentRequest
	if r.ContentLength > 0 {
		if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = principal.DisplayName
	}

	item, err := h.tournamentService.Join(ctx, tournamentID, principal.UserID, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(ctx, "join tournament failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, participantDTO{
		UserID:      item.UserID,
		DisplayName: item.DisplayName,
		JoinedAt:    item.JoinedAt,
	})
}

func (h *Handler) LeaveTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveTournament")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	if err := h.tournamentService.Leave(ctx, tournamentID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "leave tournament failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *Handler) RemoveTournamentParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTournamentParticipant")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	if err := h.tournamentService.RemoveParticipant(ctx, tournamentID, principal.UserID, userID); err != nil {
		h.logger.WarnContext(ctx, "remove participant failed", "tournament_id", tournamentID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) AddTournamentSong(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddTournamentSong")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req addSongRequest
	if err := h.decodeRequest(ctx, r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.tournamentService.AddSong(ctx, tournamentID, principal.UserID, req.SongID); err != nil {
		h.logger.WarnContext(ctx, "add song to pool failed", "tournament_id", tournamentID, "song_id", req.SongID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *Handler) ListTournamentSongs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentSongs")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	items, err := h.tournamentService.ListSongs(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list tournament songs failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, songsToDTO(items))
}

func (h *Handler) ListTournamentParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentParticipants")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	items, err := h.tournamentService.ListParticipants(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list participants failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantsToDTO(items))
}

func songsToDTO(items []song.Song) []songDTO {
	out := make([]songDTO, 0, len(items))
	for _, item := range items {
		out = append(out, songDTO{
			ID:         item.ID,
			GameType:   item.GameType,
			Title:      item.Title,
			Difficulty: item.Difficulty,
			Level:      item.Level,
		})
	}
	return out
}

func participantsToDTO(items []participant.Participant) []participantDTO {
	out := make([]participantDTO, 0, len(items))
	for _, item := range items {
		out = append(out, participantDTO{
			UserID:      item.UserID,
			DisplayName: item.DisplayName,
			JoinedAt:    item.JoinedAt,
		})
	}
	return out
}
