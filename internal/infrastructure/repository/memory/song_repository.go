package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Awes0314/gcm-arena/internal/domain/song"
)

type SongRepository struct {
	mu    sync.RWMutex
	byID  map[string]song.Song
	pools map[string]map[string]struct{}
}

func NewSongRepository(songs []song.Song) *SongRepository {
	byID := make(map[string]song.Song, len(songs))
	for _, item := range songs {
		byID[item.ID] = item
	}

	return &SongRepository{
		byID:  byID,
		pools: make(map[string]map[string]struct{}),
	}
}

func (r *SongRepository) GetByID(_ context.Context, songID string) (song.Song, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[songID]
	return item, ok, nil
}

func (r *SongRepository) ListByTournament(_ context.Context, tournamentID string) ([]song.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool := r.pools[tournamentID]
	out := make([]song.Song, 0, len(pool))
	for id := range pool {
		if item, ok := r.byID[id]; ok {
			out = append(out, item)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *SongRepository) InPool(_ context.Context, tournamentID, songID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.pools[tournamentID][songID]
	return ok, nil
}

func (r *SongRepository) AddToPool(_ context.Context, tournamentID, songID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool, ok := r.pools[tournamentID]
	if !ok {
		pool = make(map[string]struct{})
		r.pools[tournamentID] = pool
	}
	pool[songID] = struct{}{}

	return nil
}
