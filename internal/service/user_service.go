package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/repository"
)

// UserService handles user accounts and credential verification.
type UserService struct {
	userRepo   repository.UserRepository
	locker     lock.Locker
	lockTTL    time.Duration
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, locker lock.Locker, lockTTL time.Duration, bcryptCost int, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		locker:     locker,
		lockTTL:    lockTTL,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// CreateUserInput contains the data needed to create a new user.
type CreateUserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// CreateUserOutput contains the result of creating a user.
type CreateUserOutput struct {
	User *domain.User
}

// Create registers a new user account.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*CreateUserOutput, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	// Reserve the username for the check-then-insert window. Best-effort:
	// the database unique constraint is the final arbiter.
	lockKey := lock.Keys.UsernameReservation(input.Username)
	if acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL); err != nil {
		s.logger.Warn().Err(err).Str("username", input.Username).Msg("username reservation unavailable")
	} else if !acquired {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrUsernameTaken, input.Username)
	} else {
		defer func() {
			if _, err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn().Err(err).Str("username", input.Username).Msg("failed to release username reservation")
			}
		}()
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrUsernameTaken, input.Username)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, string(passwordHash), input.FirstName, input.LastName)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, fmt.Errorf("%w: username '%s'", domain.ErrUsernameTaken, input.Username)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return &CreateUserOutput{User: user}, nil
}

// Authenticate verifies user credentials and returns the user.
// Username lookup is case-sensitive, and an unknown username is reported
// the same way as a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Log but don't expose whether username exists
		s.logger.Debug().Str("username", username).Msg("user not found during authentication")
		return nil, domain.ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, domain.ErrAuthenticationFailed
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// UpdateUserInput contains the fields a user may change on their own
// account. Nil fields are left untouched; the username is immutable.
type UpdateUserInput struct {
	UserID    int64
	FirstName *string
	LastName  *string
	Password  *string
}

// IsEmpty reports whether the update changes nothing.
func (i UpdateUserInput) IsEmpty() bool {
	return i.FirstName == nil && i.LastName == nil && i.Password == nil
}

// Update changes a user's profile fields. The caller is responsible for
// verifying that the requester is the account owner.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	if input.IsEmpty() {
		return nil, domain.ErrEmptyUpdate
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, ErrMissingName
		}
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, ErrMissingName
		}
		user.LastName = *input.LastName
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, ErrInvalidPassword
		}
		newHash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = string(newHash)
	}

	user.AccountUpdated = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// validateCreateInput validates the input for creating a user.
func (s *UserService) validateCreateInput(input CreateUserInput) error {
	if _, err := mail.ParseAddress(input.Username); err != nil {
		return ErrInvalidEmail
	}
	if input.Password == "" {
		return ErrInvalidPassword
	}
	if input.FirstName == "" || input.LastName == "" {
		return ErrMissingName
	}
	return nil
}
