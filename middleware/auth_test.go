package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bolaenmano/tournament-api/auth"
	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserService struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserService) UpsertFromGoogle(ctx context.Context, googleID, email, displayName string, avatarURL *string) (*models.User, error) {
	return nil, nil
}

func (s *stubUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.GetByID(ctx, id)
}

func (s *stubUserService) List(ctx context.Context) ([]*models.User, error) { return nil, nil }

func (s *stubUserService) SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	return nil
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	userID := uuid.New()

	var gotUserID uuid.UUID
	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = id
	}))

	token, err := tokens.Issue(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticate_Rejects(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer nope",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	adminID := uuid.New()
	playerID := uuid.New()

	userService := &stubUserService{users: map[uuid.UUID]*models.User{
		adminID:  {ID: adminID, Email: "admin@example.com"},
		playerID: {ID: playerID, Email: "player@example.com"},
	}}
	allowlist := auth.NewAllowlist([]string{"admin@example.com"})

	handler := Authenticate(tokens)(RequireAdmin(userService, allowlist)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	))

	send := func(userID uuid.UUID) int {
		token, err := tokens.Issue(userID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(adminID))
	assert.Equal(t, http.StatusForbidden, send(playerID))
	assert.Equal(t, http.StatusUnauthorized, send(uuid.New()))
}
