package service

import (
	"context"
	"errors"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

type UserService struct {
	userRepo repository.UserRepository
	cost     int
}

// NewUserService returns a service hashing passwords at bcrypt cost; cost <= 0 means bcrypt.DefaultCost.
func NewUserService(userRepo repository.UserRepository, cost int) *UserService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{userRepo: userRepo, cost: cost}
}

// GetByUsername loads a user; unknown usernames are NotFound.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// GetByID loads a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Register creates a user from validated signup data.
func (s *UserService) Register(ctx context.Context, in forms.SignupData) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if models.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// HashPassword hashes a raw password at the service cost.
func (s *UserService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
