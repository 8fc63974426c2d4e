package httpapi

import (
	"net/http"
	"strings"
)

type rankingEntryDTO struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TotalScore  int    `json:"total_score"`
}

func (h *Handler) GetTournamentRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentRanking")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	viewerID := ""
	if principal, ok := principalFromContext(ctx); ok {
		viewerID = principal.UserID
	}

	entries, err := h.rankingService.GetRanking(ctx, tournamentID, viewerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get ranking failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]rankingEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, rankingEntryDTO{
			Rank:        entry.Rank,
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			TotalScore:  entry.TotalScore,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}
