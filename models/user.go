package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	GoogleID      string    `json:"-"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	AvatarURL     *string   `json:"avatarUrl,omitempty"`
	ExpoPushToken *string   `json:"expoPushToken,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Loaded only for the /users/me profile response.
	Participations []Participation `json:"participations,omitempty"`
}
