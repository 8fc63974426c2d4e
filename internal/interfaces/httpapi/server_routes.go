package httpapi

import (
	"net/http"

	"github.com/Awes0314/gcm-arena/internal/platform/ratelimit"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.HandleFunc("GET /v1/tournaments", handler.ListTournaments)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/songs", handler.ListTournamentSongs)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/participants", handler.ListTournamentParticipants)

	// visibility depends on who is asking, so the token is read when present
	// but never required up front
	mux.Handle("GET /v1/tournaments/{tournamentID}", OptionalAuth(verifier, http.HandlerFunc(handler.GetTournament)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/ranking", OptionalAuth(verifier, http.HandlerFunc(handler.GetTournamentRanking)))
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, limiter ratelimit.Limiter) {
	mux.Handle("POST /v1/tournaments", RequireAuth(verifier, http.HandlerFunc(handler.CreateTournament)))
	mux.Handle("POST /v1/tournaments/{tournamentID}/participants", RequireAuth(verifier, http.HandlerFunc(handler.JoinTournament)))
	mux.Handle("DELETE /v1/tournaments/{tournamentID}/participants/me", RequireAuth(verifier, http.HandlerFunc(handler.LeaveTournament)))
	mux.Handle("DELETE /v1/tournaments/{tournamentID}/participants/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveTournamentParticipant)))
	mux.Handle("POST /v1/tournaments/{tournamentID}/songs", RequireAuth(verifier, http.HandlerFunc(handler.AddTournamentSong)))

	mux.Handle("POST /v1/tournaments/{tournamentID}/scores", RequireAuth(verifier, RateLimit(limiter, http.HandlerFunc(handler.SubmitScore))))
	mux.Handle("GET /v1/tournaments/{tournamentID}/scores/pending", RequireAuth(verifier, http.HandlerFunc(handler.ListPendingScores)))
	mux.Handle("POST /v1/scores/{scoreID}/approve", RequireAuth(verifier, http.HandlerFunc(handler.ApproveScore)))
	mux.Handle("POST /v1/scores/{scoreID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectScore)))
}
