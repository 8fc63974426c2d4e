package score

import (
	"errors"
	"time"
)

// MaxValue is the highest score the supported rhythm games can produce.
const MaxValue = 1_010_000

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Channel string

const (
	ChannelManual      Channel = "manual"
	ChannelBookmarklet Channel = "bookmarklet"
	ChannelImage       Channel = "image"
)

var (
	ErrValueOutOfRange = errors.New("score value out of range")
	// ErrDuplicateApproved is surfaced by stores when a concurrent insert
	// races against the partial uniqueness of approved records.
	ErrDuplicateApproved = errors.New("approved score already exists")
)

// Score is one submission attempt for a (tournament, user, song) triple.
// Direct channels (manual, bookmarklet) hold at most one approved record per
// triple; image submissions accumulate pending history until reviewed.
type Score struct {
	ID           string
	TournamentID string
	UserID       string
	SongID       string
	Value        int
	Status       Status
	Channel      Channel
	ImageRef     string
	SubmittedAt  time.Time
	ApprovedAt   *time.Time
	ApprovedBy   string
}

// IsDirect reports whether the channel is trusted without organizer review.
func (c Channel) IsDirect() bool {
	return c == ChannelManual || c == ChannelBookmarklet
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelManual, ChannelBookmarklet, ChannelImage:
		return true
	default:
		return false
	}
}

func ValidValue(v int) bool {
	return v >= 0 && v <= MaxValue
}
