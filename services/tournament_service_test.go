package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/bolaenmano/tournament-api/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	objects map[string][]byte
	deleted []string
}

func newMemUploader() *memUploader {
	return &memUploader{objects: make(map[string][]byte)}
}

func (u *memUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTournamentEnv(t *testing.T) (*bracketEnv, *memUploader, TournamentService) {
	t.Helper()
	env := newBracketEnv(t, 2)
	uploader := newMemUploader()
	svc := NewTournamentService(env.tournamentRepo, env.partRepo, env.matchRepo, uploader, nil)
	return env, uploader, svc
}

func TestTournamentCreate_InvalidStatus(t *testing.T) {
	_, _, svc := newTournamentEnv(t)

	err := svc.Create(context.Background(), &models.Tournament{
		Name:      "Bad",
		Status:    models.TournamentStatus("PAUSED"),
		StartDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)
}

func TestTournamentGetByID_LoadsRelations(t *testing.T) {
	env, _, svc := newTournamentEnv(t)
	ctx := context.Background()

	_, err := env.svc.GenerateBracket(ctx, env.tournament.ID)
	require.NoError(t, err)

	tournament, err := svc.GetByID(ctx, env.tournament.ID)
	require.NoError(t, err)
	assert.Len(t, tournament.Participations, 2)
	assert.Len(t, tournament.Matches, 1)
}

func TestTournamentGetByID_NotFound(t *testing.T) {
	_, _, svc := newTournamentEnv(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentGetCurrent_PrefersEarliestOpen(t *testing.T) {
	env, _, svc := newTournamentEnv(t)

	env.tournament.StartDate = time.Now().Add(48 * time.Hour)
	earlier := env.tournamentRepo.add(&models.Tournament{
		Name:      "Weekly",
		Status:    models.StatusUpcoming,
		StartDate: time.Now().Add(24 * time.Hour),
	})
	env.tournamentRepo.add(&models.Tournament{
		Name:      "Done",
		Status:    models.StatusCompleted,
		StartDate: time.Now().Add(-24 * time.Hour),
	})

	current, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, current.ID)
}

func TestTournamentHistory_OnlyCompleted(t *testing.T) {
	env, _, svc := newTournamentEnv(t)

	ended := time.Now().Add(-time.Hour)
	env.tournamentRepo.add(&models.Tournament{
		Name:      "Done",
		Status:    models.StatusCompleted,
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   &ended,
	})

	history, err := svc.ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Done", history[0].Name)
}

func TestTournamentHistory_IncludesStandings(t *testing.T) {
	env, _, svc := newTournamentEnv(t)
	ctx := context.Background()

	require.NoError(t, env.partRepo.IncrementWins(ctx, env.tournament.ID, env.users[1].ID))
	require.NoError(t, env.partRepo.IncrementLosses(ctx, env.tournament.ID, env.users[0].ID))
	ended := time.Now().Add(-time.Hour)
	env.tournament.Status = models.StatusCompleted
	env.tournament.EndDate = &ended

	history, err := svc.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	standings := history[0].Participations
	require.Len(t, standings, 2)
	assert.Equal(t, env.users[1].ID, standings[0].UserID)
	assert.Equal(t, 1, standings[0].Wins)
	assert.Equal(t, env.users[0].ID, standings[1].UserID)
}

func TestTournamentGetByID_OrdersStandings(t *testing.T) {
	env, _, svc := newTournamentEnv(t)
	ctx := context.Background()

	require.NoError(t, env.partRepo.IncrementWins(ctx, env.tournament.ID, env.users[1].ID))
	require.NoError(t, env.partRepo.IncrementLosses(ctx, env.tournament.ID, env.users[0].ID))

	tournament, err := svc.GetByID(ctx, env.tournament.ID)
	require.NoError(t, err)
	require.Len(t, tournament.Participations, 2)
	assert.Equal(t, env.users[1].ID, tournament.Participations[0].UserID)
}

func TestTournamentUpdate_StatusValidation(t *testing.T) {
	env, _, svc := newTournamentEnv(t)

	bad := models.TournamentStatus("CANCELLED")
	_, err := svc.Update(context.Background(), env.tournament.ID, repositories.TournamentUpdateParams{Status: &bad})
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)

	good := models.StatusCompleted
	updated, err := svc.Update(context.Background(), env.tournament.ID, repositories.TournamentUpdateParams{Status: &good})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
}

func TestUploadLogo_ReplacesPrevious(t *testing.T) {
	env, uploader, svc := newTournamentEnv(t)
	ctx := context.Background()

	first, err := svc.UploadLogo(ctx, env.tournament.ID, "logo.png", "image/png", strings.NewReader("first"))
	require.NoError(t, err)
	require.NotNil(t, first.LogoURL)
	assert.Contains(t, *first.LogoURL, "cdn.example.com")

	second, err := svc.UploadLogo(ctx, env.tournament.ID, "logo2.png", "image/png", strings.NewReader("second"))
	require.NoError(t, err)
	require.NotNil(t, second.LogoURL)
	assert.NotEqual(t, *first.LogoURL, *second.LogoURL)

	require.Len(t, uploader.deleted, 1)
	assert.Len(t, uploader.objects, 1)
}
