package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
)

const minPasswordLength = 8

// UserServiceArgs contains the mandatory arguments for the UserService.
type UserServiceArgs struct {
	// Repository is the repository for persistance operations.
	Repository ports.UserRepository
}

// UserServiceOptArgs are the optional arguments for building a UserService.
type UserServiceOptArgs = func(*UserService)

// WithUserNowFunc can be used to override the nowFunc. Useful for testing.
func WithUserNowFunc(nowFunc func() time.Time) UserServiceOptArgs {
	return func(s *UserService) {
		s.nowFunc = nowFunc
	}
}

// WithHashParams overrides the argon2id parameters. Cheaper parameters speed up tests.
func WithHashParams(params *argon2id.Params) UserServiceOptArgs {
	return func(s *UserService) {
		s.hashParams = params
	}
}

// NewUserService creates a new UserService.
func NewUserService(args UserServiceArgs, optArgs ...UserServiceOptArgs) *UserService {
	s := &UserService{
		repository: args.Repository,
		nowFunc:    func() time.Time { return time.Now().UTC() },
		hashParams: argon2id.DefaultParams,
	}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// UserService gathers the functionality around the user-lifecycle
type UserService struct {
	repository ports.UserRepository
	nowFunc    func() time.Time
	hashParams *argon2id.Params
}

// Register creates a user with a unique username and a hashed password.
func (s *UserService) Register(ctx context.Context, args model.RegisterUserArgs) (*model.RegisterUserResponse, error) {
	username := strings.TrimSpace(args.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username must not be blank", model.ErrValidation)
	}
	if len(args.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", model.ErrValidation, minPasswordLength)
	}
	profile, err := model.NewProfile(args.Profile)
	if err != nil {
		return nil, err
	}

	taken, err := s.repository.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking username availability: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q already taken", model.ErrValidation, username)
	}

	// CreateHash returns a Argon2id hash of a plain-text password using the
	// provided algorithm parameters. The returned hash follows the format used
	// by the Argon2 reference C implementation and looks like this:
	// $argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$RdescudvJCsgt3ub+b+dWRWJTmaaJObG
	hash, err := argon2id.CreateHash(args.Password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("error creating password hash: %w", err)
	}

	user := model.NewUser(model.UserArgs{
		Username:     username,
		PasswordHash: hash,
		Profile:      profile,
	}, s.nowFunc())
	if err := s.repository.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("error saving user in repository: %w", err)
	}
	return &model.RegisterUserResponse{User: user}, nil
}

// Authenticate returns the user owning the credentials or model.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repository.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user by username: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash())
	if err != nil {
		return nil, fmt.Errorf("error comparing password hash: %w", err)
	}
	if !match {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the user or model.ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user [%s]: %w", id, err)
	}
	return user, nil
}

// UpdateProfile replaces the profile of a user. It returns model.ErrNotFound if the ID does not correspond to an existing user.
func (s *UserService) UpdateProfile(ctx context.Context, args model.UpdateProfileArgs) (*model.UpdateProfileResponse, error) {
	profile, err := model.NewProfile(args.Profile)
	if err != nil {
		return nil, err
	}
	user, err := s.mutate(ctx, args.ID, func(u *model.User, now time.Time) error {
		return u.UpdateProfile(profile, now)
	})
	if err != nil {
		return nil, err
	}
	return &model.UpdateProfileResponse{User: user}, nil
}

// Activate moves a user to ACTIVE.
func (s *UserService) Activate(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.mutate(ctx, id, func(u *model.User, now time.Time) error {
		return u.Activate(now)
	})
}

// Pause hides an active user from discovery.
func (s *UserService) Pause(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.mutate(ctx, id, func(u *model.User, now time.Time) error {
		return u.Pause(now)
	})
}

// Ban permanently disables a user.
func (s *UserService) Ban(ctx context.Context, id model.UserID, reason string) (*model.User, error) {
	return s.mutate(ctx, id, func(u *model.User, now time.Time) error {
		u.Ban(reason, now)
		return nil
	})
}

func (s *UserService) mutate(ctx context.Context, id model.UserID, fn func(u *model.User, now time.Time) error) (*model.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user [%s]: %w", id, err)
	}
	if err := fn(user, s.nowFunc()); err != nil {
		return nil, err
	}
	if err := s.repository.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("error saving user [%s]: %w", id, err)
	}
	return user, nil
}
