package auth

import (
	"context"
	"fmt"
	"strings"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service resolves request actors and provisions users.
type Service struct {
	users     UserRepository
	txManager tx.Manager
	hasher    *PasswordHasher
}

// NewService creates a new auth service.
func NewService(users UserRepository, txManager tx.Manager, hasher *PasswordHasher) *Service {
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &Service{users: users, txManager: txManager, hasher: hasher}
}

// Resolve loads an active user as a request actor.
// Unknown and inactive users are UNAUTHORIZED.
func (s *Service) Resolve(ctx context.Context, userID id.ID) (*appctx.Actor, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("unknown user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("user is disabled")
	}
	return &appctx.Actor{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// CreateUser provisions a user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user := NewUser(req.Username, req.FullName, req.Role)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role)

	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("user is disabled")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	return user, nil
}
