package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/song"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
	"github.com/Awes0314/gcm-arena/internal/platform/cache"
	idgen "github.com/Awes0314/gcm-arena/internal/platform/id"
)

const maxRuleEntries = 32

type CreateTournamentInput struct {
	OrganizerID string
	Name        string
	GameType    string
	Policy      tournament.SubmissionPolicy
	Visibility  tournament.Visibility
	StartsAt    time.Time
	EndsAt      time.Time
	Rules       map[string]string
}

// TournamentService manages tournament lifecycle and membership. Song pools
// are append-only while a tournament exists; removing songs would orphan
// scores already recorded against them.
type TournamentService struct {
	tournamentRepo  tournament.Repository
	participantRepo participant.Repository
	songRepo        song.Repository
	ids             idgen.Generator
	songPoolCache   *cache.Store
	logger          *slog.Logger
	now             func() time.Time
}

func NewTournamentService(
	tournamentRepo tournament.Repository,
	participantRepo participant.Repository,
	songRepo song.Repository,
	ids idgen.Generator,
	songPoolCache *cache.Store,
	logger *slog.Logger,
) *TournamentService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		songRepo:        songRepo,
		ids:             ids,
		songPoolCache:   songPoolCache,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Create")
	defer span.End()

	input.OrganizerID = strings.TrimSpace(input.OrganizerID)
	input.Name = strings.TrimSpace(input.Name)
	input.GameType = strings.TrimSpace(input.GameType)

	if input.OrganizerID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: caller identity is required", ErrUnauthorized)
	}
	if input.Name == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}
	if input.GameType == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: game type is required", ErrInvalidInput)
	}
	if !input.Policy.Valid() {
		return tournament.Tournament{}, fmt.Errorf("%w: unknown submission policy %q", ErrInvalidInput, input.Policy)
	}
	if !input.Visibility.Valid() {
		return tournament.Tournament{}, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, input.Visibility)
	}
	if !input.EndsAt.After(input.StartsAt) {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament must end after it starts", ErrInvalidInput)
	}
	if len(input.Rules) > maxRuleEntries {
		return tournament.Tournament{}, fmt.Errorf("%w: at most %d rule entries are allowed", ErrInvalidInput, maxRuleEntries)
	}

	newID, err := s.ids.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("generate tournament id: %w", err)
	}

	now := s.now().UTC()
	item := tournament.Tournament{
		ID:          newID,
		OrganizerID: input.OrganizerID,
		Name:        input.Name,
		GameType:    input.GameType,
		Policy:      input.Policy,
		Visibility:  input.Visibility,
		StartsAt:    input.StartsAt.UTC(),
		EndsAt:      input.EndsAt.UTC(),
		Rules:       input.Rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tournamentRepo.Insert(ctx, item); err != nil {
		if errors.Is(err, tournament.ErrActiveTournamentExists) {
			return tournament.Tournament{}, fmt.Errorf("%w: organizer already runs an active tournament", ErrConflict)
		}
		return tournament.Tournament{}, fmt.Errorf("insert tournament: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		"tournament_id", item.ID,
		"organizer_id", item.OrganizerID,
	)

	return item, nil
}

func (s *TournamentService) Get(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Get")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	item, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	return item, nil
}

// GetForViewer returns a tournament with its visibility enforced. Private
// tournaments are only shown to the organizer and members.
func (s *TournamentService) GetForViewer(ctx context.Context, tournamentID, viewerID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.GetForViewer")
	defer span.End()

	item, err := s.Get(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, err
	}
	if item.Visibility == tournament.VisibilityPublic {
		return item, nil
	}

	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: sign in to view this tournament", ErrUnauthorized)
	}
	if viewerID == item.OrganizerID {
		return item, nil
	}

	_, joined, err := s.participantRepo.Get(ctx, item.ID, viewerID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get participant for tournament access: %w", err)
	}
	if !joined {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament is restricted to members", ErrForbidden)
	}

	return item, nil
}

// ListPublic returns the public tournaments for discovery pages.
func (s *TournamentService) ListPublic(ctx context.Context) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListPublic")
	defer span.End()

	items, err := s.tournamentRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public tournaments: %w", err)
	}

	return items, nil
}

// Join registers a user as a participant. Joining an ended tournament is
// rejected; joining twice is a conflict.
func (s *TournamentService) Join(ctx context.Context, tournamentID, userID, displayName string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Join")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)

	if tournamentID == "" {
		return participant.Participant{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if userID == "" {
		return participant.Participant{}, fmt.Errorf("%w: caller identity is required", ErrUnauthorized)
	}
	if displayName == "" {
		displayName = userID
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("get tournament for join: %w", err)
	}
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	now := s.now().UTC()
	if !now.Before(t.EndsAt) {
		return participant.Participant{}, fmt.Errorf("%w: tournament has ended", ErrConflict)
	}

	item := participant.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		DisplayName:  displayName,
		JoinedAt:     now,
	}
	if err := s.participantRepo.Insert(ctx, item); err != nil {
		if errors.Is(err, participant.ErrAlreadyJoined) {
			return participant.Participant{}, fmt.Errorf("%w: user already joined this tournament", ErrConflict)
		}
		return participant.Participant{}, fmt.Errorf("insert participant: %w", err)
	}

	return item, nil
}

// Leave removes the caller from a tournament.
func (s *TournamentService) Leave(ctx context.Context, tournamentID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Leave")
	defer span.End()

	return s.removeParticipant(ctx, tournamentID, userID)
}

// RemoveParticipant lets the organizer expel a participant.
func (s *TournamentService) RemoveParticipant(ctx context.Context, tournamentID, organizerID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.RemoveParticipant")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	organizerID = strings.TrimSpace(organizerID)

	t, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament for removal: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}
	if t.OrganizerID != organizerID {
		return fmt.Errorf("%w: only the organizer may remove participants", ErrForbidden)
	}

	return s.removeParticipant(ctx, tournamentID, userID)
}

func (s *TournamentService) removeParticipant(ctx context.Context, tournamentID, userID string) error {
	tournamentID = strings.TrimSpace(tournamentID)
	userID = strings.TrimSpace(userID)
	if tournamentID == "" || userID == "" {
		return fmt.Errorf("%w: tournament and user ids are required", ErrInvalidInput)
	}

	removed, err := s.participantRepo.Delete(ctx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: user is not a participant of this tournament", ErrNotFound)
	}

	return nil
}

// AddSong appends a catalog song to the tournament's pool. Organizer only.
func (s *TournamentService) AddSong(ctx context.Context, tournamentID, organizerID, songID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.AddSong")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	organizerID = strings.TrimSpace(organizerID)
	songID = strings.TrimSpace(songID)
	if tournamentID == "" || songID == "" {
		return fmt.Errorf("%w: tournament and song ids are required", ErrInvalidInput)
	}

	t, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament for song pool: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}
	if t.OrganizerID != organizerID {
		return fmt.Errorf("%w: only the organizer may edit the song pool", ErrForbidden)
	}

	item, exists, err := s.songRepo.GetByID(ctx, songID)
	if err != nil {
		return fmt.Errorf("get song for pool: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: song=%s", ErrNotFound, songID)
	}
	if item.GameType != t.GameType {
		return fmt.Errorf("%w: song belongs to a different game", ErrInvalidInput)
	}

	if inPool, err := s.songRepo.InPool(ctx, tournamentID, songID); err != nil {
		return fmt.Errorf("check song pool: %w", err)
	} else if inPool {
		return fmt.Errorf("%w: song is already in the pool", ErrConflict)
	}

	if err := s.songRepo.AddToPool(ctx, tournamentID, songID); err != nil {
		return fmt.Errorf("add song to pool: %w", err)
	}

	if s.songPoolCache != nil {
		s.songPoolCache.Delete(ctx, songPoolCacheKey(tournamentID))
	}

	return nil
}

// ListSongs returns the tournament's song pool. Pools are append-only, so
// the cached copy only needs invalidation on AddSong.
func (s *TournamentService) ListSongs(ctx context.Context, tournamentID string) ([]song.Song, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListSongs")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	if _, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, fmt.Errorf("get tournament for song pool: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	if s.songPoolCache == nil {
		return s.songRepo.ListByTournament(ctx, tournamentID)
	}

	value, err := s.songPoolCache.GetOrLoad(ctx, songPoolCacheKey(tournamentID), func(ctx context.Context) (any, error) {
		items, err := s.songRepo.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("list tournament songs: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, ok := value.([]song.Song)
	if !ok {
		return s.songRepo.ListByTournament(ctx, tournamentID)
	}

	return items, nil
}

// ListParticipants returns the tournament roster.
func (s *TournamentService) ListParticipants(ctx context.Context, tournamentID string) ([]participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListParticipants")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	if _, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, fmt.Errorf("get tournament for roster: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	items, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return items, nil
}

func songPoolCacheKey(tournamentID string) string {
	return "songpool:" + tournamentID
}
