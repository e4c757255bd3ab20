// Package users is the credential engine and user registry. The whole user
// list lives in one document; every mutation is a read-modify-write of that
// document. Accounts are never deleted, only disabled.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) load(ctx context.Context) ([]*models.User, error) {
	list := make([]*models.User, 0)
	if _, err := s.store.Get(ctx, docstore.KeyUsers, &list); err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}
	return list, nil
}

func (s *Service) save(ctx context.Context, list []*models.User) error {
	if err := s.store.Put(ctx, docstore.KeyUsers, list); err != nil {
		return fmt.Errorf("error saving users: %w", err)
	}
	return nil
}

// Create adds a new account. Username comparison is case-sensitive exact
// match. Password strength checks are the caller's job; the first-admin flow
// uses CreateFirstAdmin instead.
func (s *Service) Create(ctx context.Context, username, password string, role models.Role, areas []string) (*models.User, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range list {
		if u.UserName == username {
			return nil, common.ErrDuplicateUsername
		}
	}

	salt := common.GenerateRandByteArray(SaltSize)
	if areas == nil {
		areas = make([]string, 0)
	}

	user := &models.User{
		ID:            uuid.NewString(),
		UserName:      username,
		Role:          role,
		Salt:          salt,
		PasswordHash:  HashPassword(password, salt),
		AssignedAreas: areas,
		Disabled:      false,
		CreatedAt:     time.Now(),
	}

	list = append(list, user)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFirstAdmin bootstraps the initial admin account. It enforces the
// minimum password length that interactive flows promise before calling
// Create.
func (s *Service) CreateFirstAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if len(password) < 6 {
		return nil, common.ErrPasswordTooShort
	}
	return s.Create(ctx, username, password, models.RoleAdmin, nil)
}

// Get returns the user with the given username or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, username string) (*models.User, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		if u.UserName == username {
			return u, nil
		}
	}
	return nil, common.ErrUserNotFound
}

// List returns all accounts in creation order.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	return s.load(ctx)
}

// HasAny reports whether any account exists (first-run detection).
func (s *Service) HasAny(ctx context.Context) (bool, error) {
	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}

// Verify checks the password against the stored salt and hash. It does not
// consider disabled state; the login flow checks that separately so a
// disabled account fails with its own error.
func (s *Service) Verify(ctx context.Context, username, password string) (bool, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return CheckPassword(password, user.Salt, user.PasswordHash), nil
}

func (s *Service) update(ctx context.Context, username string, fn func(*models.User)) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		if u.UserName == username {
			fn(u)
			return s.save(ctx, list)
		}
	}
	return common.ErrUserNotFound
}

// ResetPassword regenerates salt and hash together so no intermediate state
// has a mismatched pair.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	return s.update(ctx, username, func(u *models.User) {
		salt := common.GenerateRandByteArray(SaltSize)
		u.Salt = salt
		u.PasswordHash = HashPassword(newPassword, salt)
	})
}

// SetDisabled toggles the disabled flag.
func (s *Service) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return s.update(ctx, username, func(u *models.User) {
		u.Disabled = disabled
	})
}

// SetRole changes the account role.
func (s *Service) SetRole(ctx context.Context, username string, role models.Role) error {
	return s.update(ctx, username, func(u *models.User) {
		u.Role = role
	})
}

// SetAssignedAreas replaces the account's area assignments.
func (s *Service) SetAssignedAreas(ctx context.Context, username string, areas []string) error {
	return s.update(ctx, username, func(u *models.User) {
		if areas == nil {
			areas = make([]string, 0)
		}
		u.AssignedAreas = areas
	})
}

// ReplaceAreaName rewrites every user's assignedAreas when an area is
// renamed. Part of the cross-cutting rename propagation.
func (s *Service) ReplaceAreaName(ctx context.Context, oldName, newName string) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		for i, a := range u.AssignedAreas {
			if a == oldName {
				u.AssignedAreas[i] = newName
			}
		}
	}
	return s.save(ctx, list)
}

// RemoveAreaName drops a deleted area from every user's assignedAreas.
func (s *Service) RemoveAreaName(ctx context.Context, name string) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		kept := u.AssignedAreas[:0]
		for _, a := range u.AssignedAreas {
			if a != name {
				kept = append(kept, a)
			}
		}
		u.AssignedAreas = kept
	}
	return s.save(ctx, list)
}
