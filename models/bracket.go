package models

import "github.com/google/uuid"

// BracketRound is one round of the derived bracket view. The bracket is never
// persisted; it is recomputed from match rows on every read.
type BracketRound struct {
	RoundNumber int      `json:"roundNumber"`
	RoundName   string   `json:"roundName"`
	Matches     []*Match `json:"matches"`
}

type BracketData struct {
	Rounds          []BracketRound `json:"rounds"`
	NumRounds       int            `json:"numRounds"`
	NumParticipants int            `json:"numParticipants"`
}

type BracketGenerationResult struct {
	TournamentID    uuid.UUID `json:"tournamentId"`
	NumRounds       int       `json:"numRounds"`
	NumParticipants int       `json:"numParticipants"`
	NumByes         int       `json:"numByes"`
	Matches         []*Match  `json:"matches"`
}
