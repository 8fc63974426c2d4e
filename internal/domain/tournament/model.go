package tournament

import (
	"errors"
	"time"

	"github.com/Awes0314/gcm-arena/internal/domain/score"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// SubmissionPolicy selects which automated channels a tournament accepts.
// Manual form submissions are always allowed.
type SubmissionPolicy string

const (
	PolicyBookmarklet SubmissionPolicy = "bookmarklet"
	PolicyImage       SubmissionPolicy = "image"
	PolicyBoth        SubmissionPolicy = "both"
)

var ErrActiveTournamentExists = errors.New("organizer already has an active tournament")

type Tournament struct {
	ID          string
	OrganizerID string
	Name        string
	GameType    string
	Policy      SubmissionPolicy
	Visibility  Visibility
	StartsAt    time.Time
	EndsAt      time.Time
	Rules       map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p SubmissionPolicy) Valid() bool {
	switch p {
	case PolicyBookmarklet, PolicyImage, PolicyBoth:
		return true
	default:
		return false
	}
}

func (p SubmissionPolicy) AllowsChannel(c score.Channel) bool {
	switch c {
	case score.ChannelManual:
		return true
	case score.ChannelBookmarklet:
		return p == PolicyBookmarklet || p == PolicyBoth
	case score.ChannelImage:
		return p == PolicyImage || p == PolicyBoth
	default:
		return false
	}
}

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// IsOpenAt reports whether submissions are accepted at the given instant.
// The window is half-open: [StartsAt, EndsAt).
func (t Tournament) IsOpenAt(now time.Time) bool {
	return !now.Before(t.StartsAt) && now.Before(t.EndsAt)
}
