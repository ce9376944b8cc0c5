package handlers

import (
	"context"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/bolaenmano/tournament-api/services"
	"github.com/google/uuid"
)

// In-memory service stubs backing the handler tests.

type stubUserService struct {
	users map[uuid.UUID]*models.User
}

func newStubUserService() *stubUserService {
	return &stubUserService{users: make(map[uuid.UUID]*models.User)}
}

func (s *stubUserService) add(email, name string) *models.User {
	u := &models.User{ID: uuid.New(), Email: email, DisplayName: name}
	s.users[u.ID] = u
	return u
}

func (s *stubUserService) UpsertFromGoogle(ctx context.Context, googleID, email, displayName string, avatarURL *string) (*models.User, error) {
	for _, u := range s.users {
		if u.GoogleID == googleID {
			return u, nil
		}
	}
	u := &models.User{ID: uuid.New(), GoogleID: googleID, Email: email, DisplayName: displayName, AvatarURL: avatarURL}
	s.users[u.ID] = u
	return u, nil
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

func (s *stubUserService) List(ctx context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserService) SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	u, ok := s.users[id]
	if !ok {
		return services.ErrUserNotFound
	}
	u.ExpoPushToken = token
	return nil
}

type stubMatchService struct {
	matches map[uuid.UUID]*models.Match
	updates []repositories.MatchUpdateParams
}

func newStubMatchService() *stubMatchService {
	return &stubMatchService{matches: make(map[uuid.UUID]*models.Match)}
}

func (s *stubMatchService) add(m *models.Match) *models.Match {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.matches[m.ID] = m
	return m
}

func (s *stubMatchService) List(ctx context.Context, filter repositories.MatchListFilter) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	return out, nil
}

func (s *stubMatchService) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, services.ErrMatchNotFound
	}
	return m, nil
}

func (s *stubMatchService) Create(ctx context.Context, match *models.Match) (*models.Match, error) {
	return s.add(match), nil
}

func (s *stubMatchService) Update(ctx context.Context, id uuid.UUID, params repositories.MatchUpdateParams) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, services.ErrMatchNotFound
	}
	s.updates = append(s.updates, params)
	if params.WinnerID.Set {
		m.WinnerID = params.WinnerID.Value
	}
	if params.TableNumber.Set {
		m.TableNumber = params.TableNumber.Value
	}
	return m, nil
}

func (s *stubMatchService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.matches[id]; !ok {
		return services.ErrMatchNotFound
	}
	delete(s.matches, id)
	return nil
}

func (s *stubMatchService) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	var deleted int64
	for id, m := range s.matches {
		if m.TournamentID == tournamentID {
			delete(s.matches, id)
			deleted++
		}
	}
	return deleted, nil
}
