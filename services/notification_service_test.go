package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMatchReminders(t *testing.T) {
	env := newBracketEnv(t, 2)
	ctx := context.Background()

	token := "ExponentPushToken[abc123]"
	env.users[0].ExpoPushToken = &token

	now := time.Now()
	soon := now.Add(30 * time.Minute)
	farOut := now.Add(3 * time.Hour)

	due, err := env.matchRepo.Create(ctx, &models.Match{
		TournamentID: env.tournament.ID,
		PlayerAID:    env.users[0].ID,
		PlayerBID:    env.users[1].ID,
		ScheduledAt:  &soon,
	})
	require.NoError(t, err)

	// Outside the one-hour window, must not be picked up.
	_, err = env.matchRepo.Create(ctx, &models.Match{
		TournamentID: env.tournament.ID,
		PlayerAID:    env.users[0].ID,
		PlayerBID:    env.users[1].ID,
		ScheduledAt:  &farOut,
	})
	require.NoError(t, err)

	var received []ExpoPushMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"status":"ok"}]}`))
	}))
	defer server.Close()

	svc := NewNotificationService(env.matchRepo, nil,
		WithExpoPushURL(server.URL),
		WithClock(func() time.Time { return now }),
	)

	require.NoError(t, svc.SendMatchReminders(ctx))

	// Only player A has a push token registered.
	require.Len(t, received, 1)
	assert.Equal(t, token, received[0].To)
	assert.Contains(t, received[0].Body, env.users[1].DisplayName)
	assert.Equal(t, due.ID.String(), received[0].Data["matchId"])

	// The reminded match is marked and not picked up again.
	received = nil
	require.NoError(t, svc.SendMatchReminders(ctx))
	assert.Empty(t, received)
}

func TestSendMatchReminders_NoDueMatches(t *testing.T) {
	env := newBracketEnv(t, 2)

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	svc := NewNotificationService(env.matchRepo, nil, WithExpoPushURL(server.URL))
	require.NoError(t, svc.SendMatchReminders(context.Background()))
	assert.False(t, called)
}

func TestSendMatchReminders_ByeGetsSingleMessage(t *testing.T) {
	env := newBracketEnv(t, 1)
	ctx := context.Background()

	token := "ExponentPushToken[solo]"
	env.users[0].ExpoPushToken = &token

	now := time.Now()
	soon := now.Add(10 * time.Minute)
	_, err := env.matchRepo.Create(ctx, &models.Match{
		TournamentID: env.tournament.ID,
		PlayerAID:    env.users[0].ID,
		PlayerBID:    env.users[0].ID,
		ScheduledAt:  &soon,
	})
	require.NoError(t, err)

	var received []ExpoPushMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	svc := NewNotificationService(env.matchRepo, nil,
		WithExpoPushURL(server.URL),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, svc.SendMatchReminders(ctx))
	assert.Len(t, received, 1)
}

func TestSendMatchReminders_PushFailureLeavesUnmarked(t *testing.T) {
	env := newBracketEnv(t, 2)
	ctx := context.Background()

	token := "ExponentPushToken[xyz]"
	env.users[0].ExpoPushToken = &token

	now := time.Now()
	soon := now.Add(15 * time.Minute)
	match, err := env.matchRepo.Create(ctx, &models.Match{
		TournamentID: env.tournament.ID,
		PlayerAID:    env.users[0].ID,
		PlayerBID:    env.users[1].ID,
		ScheduledAt:  &soon,
	})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewNotificationService(env.matchRepo, nil,
		WithExpoPushURL(server.URL),
		WithClock(func() time.Time { return now }),
	)
	require.Error(t, svc.SendMatchReminders(ctx))

	// A failed delivery is retried on the next tick.
	dueAgain, err := env.matchRepo.ListDueReminders(ctx, now, now.Add(reminderWindow))
	require.NoError(t, err)
	require.Len(t, dueAgain, 1)
	assert.Equal(t, match.ID, dueAgain[0].ID)
}
