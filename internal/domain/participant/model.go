package participant

import (
	"errors"
	"time"
)

var ErrAlreadyJoined = errors.New("user already joined this tournament")

// Participant links a user to a tournament they joined.
type Participant struct {
	TournamentID string
	UserID       string
	DisplayName  string
	JoinedAt     time.Time
}
