package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
)

// In-memory repository fakes backing the service tests.

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[uuid.UUID]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[uuid.UUID]*models.Tournament)}
}

func (r *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	r.tournaments[t.ID] = t
	return t
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.add(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) GetCurrent(ctx context.Context) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.StatusCompleted {
			continue
		}
		if current == nil || t.StartDate.Before(current.StartDate) {
			current = t
		}
	}
	if current == nil {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *current
	return &clone, nil
}

func (r *fakeTournamentRepo) ListCompleted(ctx context.Context) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.StatusCompleted {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].EndDate, out[j].EndDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return out, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, id uuid.UUID, params repositories.TournamentUpdateParams) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	if params.Name != nil {
		t.Name = *params.Name
	}
	if params.Location != nil {
		t.Location = params.Location
	}
	if params.Description != nil {
		t.Description = params.Description
	}
	if params.StartDate != nil {
		t.StartDate = *params.StartDate
	}
	if params.EndDate.Set {
		t.EndDate = params.EndDate.Value
	}
	if params.Status != nil {
		t.Status = *params.Status
	}
	if params.LogoKey.Set {
		t.LogoKey = params.LogoKey.Value
	}
	clone := *t
	return &clone, nil
}

type fakeParticipationRepo struct {
	mu             sync.Mutex
	participations []*models.Participation
	users          map[uuid.UUID]*models.User
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeParticipationRepo) addUser(name string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.User{ID: uuid.New(), DisplayName: name, Email: name + "@example.com"}
	r.users[u.ID] = u
	return u
}

func (r *fakeParticipationRepo) register(tournamentID, userID uuid.UUID) *models.Participation {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &models.Participation{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       userID,
		CreatedAt:    time.Now(),
	}
	r.participations = append(r.participations, p)
	return p
}

func (r *fakeParticipationRepo) stats(tournamentID, userID uuid.UUID) (wins, losses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.TournamentID == tournamentID && p.UserID == userID {
			return p.Wins, p.Losses
		}
	}
	return 0, 0
}

func (r *fakeParticipationRepo) Create(ctx context.Context, p *models.Participation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participations {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipationConflict
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	clone := *p
	r.participations = append(r.participations, &clone)
	return nil
}

func (r *fakeParticipationRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Participation, 0)
	for _, p := range r.participations {
		if p.TournamentID == tournamentID {
			clone := *p
			if u, ok := r.users[p.UserID]; ok {
				clone.User = u
			}
			out = append(out, clone)
		}
	}
	return out, nil
}

func (r *fakeParticipationRepo) ListStandings(ctx context.Context, tournamentID uuid.UUID) ([]models.Participation, error) {
	out, err := r.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Losses < out[j].Losses
	})
	return out, nil
}

func (r *fakeParticipationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Participation, 0)
	for _, p := range r.participations {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeParticipationRepo) DeleteByTournamentAndUser(ctx context.Context, tournamentID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participations {
		if p.TournamentID == tournamentID && p.UserID == userID {
			r.participations = append(r.participations[:i], r.participations[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipationNotFound
}

func (r *fakeParticipationRepo) ResetStats(ctx context.Context, tournamentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.TournamentID == tournamentID {
			p.Wins, p.Losses = 0, 0
		}
	}
	return nil
}

func (r *fakeParticipationRepo) IncrementWins(ctx context.Context, tournamentID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.TournamentID == tournamentID && p.UserID == userID {
			p.Wins++
		}
	}
	return nil
}

func (r *fakeParticipationRepo) IncrementLosses(ctx context.Context, tournamentID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.TournamentID == tournamentID && p.UserID == userID {
			p.Losses++
		}
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []*models.Match
	users   map[uuid.UUID]*models.User
	seq     int
}

func newFakeMatchRepo(users map[uuid.UUID]*models.User) *fakeMatchRepo {
	if users == nil {
		users = make(map[uuid.UUID]*models.User)
	}
	return &fakeMatchRepo{users: users}
}

func (r *fakeMatchRepo) clone(m *models.Match) *models.Match {
	c := *m
	c.PlayerA = r.users[m.PlayerAID]
	c.PlayerB = r.users[m.PlayerBID]
	if m.WinnerID != nil {
		c.Winner = r.users[*m.WinnerID]
	}
	return &c
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.RoundNumber == 0 {
		match.RoundNumber = 1
	}
	r.seq++
	stored := *match
	stored.CreatedAt = time.Unix(int64(r.seq), 0)
	r.matches = append(r.matches, &stored)
	return r.clone(&stored), nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			return r.clone(m), nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			out = append(out, r.clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMatchRepo) List(ctx context.Context, filter repositories.MatchListFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if filter.TournamentID != nil && m.TournamentID != *filter.TournamentID {
			continue
		}
		switch filter.Scope {
		case repositories.MatchScopeUpcoming:
			if m.CompletedAt != nil {
				continue
			}
		case repositories.MatchScopeCompleted:
			if m.CompletedAt == nil {
				continue
			}
		}
		out = append(out, r.clone(m))
	}
	return out, nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, id uuid.UUID, params repositories.MatchUpdateParams) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID != id {
			continue
		}
		if params.PlayerAID != nil {
			m.PlayerAID = *params.PlayerAID
		}
		if params.PlayerBID != nil {
			m.PlayerBID = *params.PlayerBID
		}
		if params.TableNumber.Set {
			m.TableNumber = params.TableNumber.Value
		}
		if params.ScheduledAt.Set {
			m.ScheduledAt = params.ScheduledAt.Value
			m.ReminderSentAt = nil
		}
		if params.CompletedAt.Set {
			m.CompletedAt = params.CompletedAt.Value
		}
		if params.WinnerID.Set {
			m.WinnerID = params.WinnerID.Value
		}
		return r.clone(m), nil
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.Match
	var deleted int64
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.matches = kept
	return deleted, nil
}

func (r *fakeMatchRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.CompletedAt != nil || m.ReminderSentAt != nil || m.ScheduledAt == nil {
			continue
		}
		if m.ScheduledAt.Before(from) || m.ScheduledAt.After(to) {
			continue
		}
		out = append(out, r.clone(m))
	}
	return out, nil
}

func (r *fakeMatchRepo) MarkRemindersSent(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	marked := at
	for _, m := range r.matches {
		for _, id := range ids {
			if m.ID == id {
				m.ReminderSentAt = &marked
			}
		}
	}
	return nil
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func (r *stubUserRepo) store(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = make(map[uuid.UUID]*models.User)
	}
	r.users[u.ID] = u
}

func (r *stubUserRepo) UpsertByGoogleID(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = make(map[uuid.UUID]*models.User)
	}
	for _, existing := range r.users {
		if existing.GoogleID == user.GoogleID {
			existing.Email = user.Email
			existing.DisplayName = user.DisplayName
			existing.AvatarURL = user.AvatarURL
			*user = *existing
			return nil
		}
	}
	user.ID = uuid.New()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.store(user)
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ExpoPushToken = token
	return nil
}

func matchWinnerParams(winnerID uuid.UUID, at time.Time) repositories.MatchUpdateParams {
	return repositories.MatchUpdateParams{
		WinnerID:    models.OptOf(winnerID),
		CompletedAt: models.OptOf(at),
	}
}

type fakePublisher struct {
	mu              sync.Mutex
	matchUpdates    []*models.Match
	bracketAdvances [][]*models.Match
}

func (p *fakePublisher) PublishMatchUpdated(tournamentID uuid.UUID, match *models.Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchUpdates = append(p.matchUpdates, match)
}

func (p *fakePublisher) PublishBracketAdvanced(tournamentID uuid.UUID, matches []*models.Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bracketAdvances = append(p.bracketAdvances, matches)
}
