package models

import (
	"time"

	"github.com/google/uuid"
)

// Participation is a user's enrollment in one tournament. Wins and losses are
// cumulative for that tournament only and are reset whenever a bracket is
// regenerated.
type Participation struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournamentId"`
	UserID       uuid.UUID `json:"userId"`
	Seed         *int      `json:"seed,omitempty"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	CreatedAt    time.Time `json:"createdAt"`

	User       *User       `json:"user,omitempty"`
	Tournament *Tournament `json:"tournament,omitempty"`
}
