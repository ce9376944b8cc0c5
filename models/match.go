package models

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID             uuid.UUID  `json:"id"`
	TournamentID   uuid.UUID  `json:"tournamentId"`
	PlayerAID      uuid.UUID  `json:"playerAId"`
	PlayerBID      uuid.UUID  `json:"playerBId"`
	WinnerID       *uuid.UUID `json:"winnerId"`
	RoundNumber    int        `json:"roundNumber"`
	TableNumber    *int       `json:"tableNumber,omitempty"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`

	PlayerA *User `json:"playerA,omitempty"`
	PlayerB *User `json:"playerB,omitempty"`
	Winner  *User `json:"winner,omitempty"`
}

// IsBye reports whether the match is a bye: a self-match created pre-completed
// to advance a participant with no round-one opponent.
func (m *Match) IsBye() bool {
	return m.PlayerAID == m.PlayerBID
}

// IsComplete is decided solely from the winner; completed_at is a display
// timestamp, not the completion predicate.
func (m *Match) IsComplete() bool {
	return m.WinnerID != nil
}
