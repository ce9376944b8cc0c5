package services

import "errors"

// Shared service-layer errors, mapped to HTTP statuses in the handler layer.
var (
	// Missing resources
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")

	// Bracket preconditions
	ErrBracketAlreadyExists         = errors.New("bracket already exists, delete existing matches first")
	ErrBracketNotEnoughParticipants = errors.New("need at least 2 participants to generate a bracket")

	// Registration / roster rules
	ErrRegistrationConflict = errors.New("user is already registered for this tournament")
	ErrRegistrationClosed   = errors.New("tournament is not open for registration")

	// Match validation
	ErrPlayersMustDiffer = errors.New("players must be different")
	ErrWinnerNotInMatch  = errors.New("winner must be one of the assigned players")

	// Tournament rules
	ErrTournamentInvalidStatus = errors.New("invalid tournament status provided")

	// Authentication
	ErrAuthInvalidToken = errors.New("unable to verify Google token")
)
