package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "UPCOMING"
	StatusActive    TournamentStatus = "ACTIVE"
	StatusCompleted TournamentStatus = "COMPLETED"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

type Tournament struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Location    *string          `json:"location,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      TournamentStatus `json:"status"`
	StartDate   time.Time        `json:"startDate"`
	EndDate     *time.Time       `json:"endDate,omitempty"`
	LogoKey     *string          `json:"-"`
	LogoURL     *string          `json:"logoUrl,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`

	// Optional related entities, loaded on demand.
	Participations []Participation `json:"participations,omitempty"`
	Matches        []*Match        `json:"matches,omitempty"`
}
