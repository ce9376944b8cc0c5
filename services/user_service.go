package services

import (
	"context"
	"errors"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/google/uuid"
)

type UserService interface {
	// UpsertFromGoogle creates or refreshes the account for a verified Google
	// identity and returns the stored user.
	UpsertFromGoogle(ctx context.Context, googleID, email, displayName string, avatarURL *string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetProfile returns the user with their tournament participations loaded.
	GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error
}

type userService struct {
	userRepo          repositories.UserRepository
	participationRepo repositories.ParticipationRepository
}

func NewUserService(userRepo repositories.UserRepository, participationRepo repositories.ParticipationRepository) UserService {
	return &userService{userRepo: userRepo, participationRepo: participationRepo}
}

func (s *userService) UpsertFromGoogle(ctx context.Context, googleID, email, displayName string, avatarURL *string) (*models.User, error) {
	user := &models.User{
		GoogleID:    googleID,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	if err := s.userRepo.UpsertByGoogleID(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	participations, err := s.participationRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Participations = participations
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) SetExpoPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	if err := s.userRepo.SetExpoPushToken(ctx, id, token); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
