package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
)

const (
	defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	reminderWindow     = time.Hour
)

// ExpoPushMessage is the Expo push API request shape.
type ExpoPushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Sound string                 `json:"sound,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type NotificationService interface {
	// SendMatchReminders pushes a reminder to both players of every match
	// starting within the next hour, once per scheduling. Called periodically
	// by the scheduler.
	SendMatchReminders(ctx context.Context) error
}

type notificationService struct {
	matchRepo repositories.MatchRepository
	client    *http.Client
	pushURL   string
	logger    *slog.Logger
	now       func() time.Time
}

type NotificationOption func(*notificationService)

// WithExpoPushURL overrides the Expo endpoint, used by tests.
func WithExpoPushURL(url string) NotificationOption {
	return func(s *notificationService) { s.pushURL = url }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) NotificationOption {
	return func(s *notificationService) { s.now = now }
}

func NewNotificationService(matchRepo repositories.MatchRepository, logger *slog.Logger, opts ...NotificationOption) NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &notificationService{
		matchRepo: matchRepo,
		client:    &http.Client{Timeout: 10 * time.Second},
		pushURL:   defaultExpoPushURL,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *notificationService) SendMatchReminders(ctx context.Context) error {
	now := s.now()
	matches, err := s.matchRepo.ListDueReminders(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return fmt.Errorf("failed to load matches due for reminders: %w", err)
	}
	if len(matches) == 0 {
		return nil
	}

	var messages []ExpoPushMessage
	var matchIDs []uuid.UUID
	for _, match := range matches {
		matchMessages := s.buildMessages(match)
		// A match with no reachable players is still marked as sent so it is
		// not retried every tick.
		messages = append(messages, matchMessages...)
		matchIDs = append(matchIDs, match.ID)
	}

	if len(messages) > 0 {
		if err := s.push(ctx, messages); err != nil {
			return err
		}
	}

	if err := s.matchRepo.MarkRemindersSent(ctx, matchIDs, now); err != nil {
		return err
	}

	s.logger.Info("match reminders sent",
		slog.Int("matches", len(matchIDs)),
		slog.Int("notifications", len(messages)),
	)
	return nil
}

func (s *notificationService) buildMessages(match *models.Match) []ExpoPushMessage {
	var at string
	if match.ScheduledAt != nil {
		at = match.ScheduledAt.Format("15:04")
	}

	players := []*models.User{match.PlayerA}
	if !match.IsBye() {
		players = append(players, match.PlayerB)
	}

	var messages []ExpoPushMessage
	for _, player := range players {
		if player == nil || player.ExpoPushToken == nil || *player.ExpoPushToken == "" {
			continue
		}
		opponent := match.PlayerB
		if player == match.PlayerB {
			opponent = match.PlayerA
		}
		body := "Your match starts soon"
		if opponent != nil && opponent != player {
			body = fmt.Sprintf("Your match against %s starts at %s", opponent.DisplayName, at)
		}
		messages = append(messages, ExpoPushMessage{
			To:    *player.ExpoPushToken,
			Title: "Upcoming match",
			Body:  body,
			Sound: "default",
			Data: map[string]interface{}{
				"matchId":      match.ID.String(),
				"tournamentId": match.TournamentID.String(),
			},
		})
	}
	return messages
}

func (s *notificationService) push(ctx context.Context, messages []ExpoPushMessage) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Expo push API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}
	return nil
}
