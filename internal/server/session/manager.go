// Package session implements the login/lockout/session state machine. The
// session is a process-wide singleton document in the store; the failed-login
// throttle is global and independent of any one account.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

// MaxLoginAttempts failed credential checks arm the global cooldown.
const MaxLoginAttempts = 5

// Default durations. Fixed configuration, not per-user.
const (
	DefaultSessionDuration = 8 * time.Hour
	DefaultLockoutDuration = 5 * time.Minute
)

// timeNow is a test seam.
var timeNow = time.Now

type Manager struct {
	store           docstore.Store
	users           *users.Service
	sessionDuration time.Duration
	lockoutDuration time.Duration
}

func NewManager(store docstore.Store, us *users.Service, sessionDuration, lockoutDuration time.Duration) *Manager {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return &Manager{
		store:           store,
		users:           us,
		sessionDuration: sessionDuration,
		lockoutDuration: lockoutDuration,
	}
}

func (m *Manager) load(ctx context.Context) (*models.Session, error) {
	sess := &models.Session{}
	if _, err := m.store.Get(ctx, docstore.KeySession, sess); err != nil {
		return nil, fmt.Errorf("error loading session: %w", err)
	}
	return sess, nil
}

func (m *Manager) save(ctx context.Context, sess *models.Session) error {
	if err := m.store.Put(ctx, docstore.KeySession, sess); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

// remainingMinutes is the ceiling of the time left until t.
func remainingMinutes(now, t time.Time) int {
	rem := t.Sub(now)
	if rem <= 0 {
		return 0
	}
	return int((rem + time.Minute - 1) / time.Minute)
}

func (m *Manager) recordFailure(ctx context.Context, sess *models.Session, now time.Time) error {
	sess.FailedLogin.Count++
	if sess.FailedLogin.Count >= MaxLoginAttempts {
		until := now.Add(m.lockoutDuration)
		sess.FailedLogin.CooldownUntil = &until
	}
	return m.save(ctx, sess)
}

// Login runs the credential check in the fixed order: global cooldown first,
// then user lookup, then disabled state, then the password. An unknown
// username and a wrong password fail the same way so the error does not leak
// which part was wrong; a disabled account does not count toward the lockout.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	now := timeNow()

	sess, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	if until := sess.FailedLogin.CooldownUntil; until != nil && now.Before(*until) {
		return nil, &common.AccountLockedError{RemainingMinutes: remainingMinutes(now, *until)}
	}

	user, err := m.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			if err := m.recordFailure(ctx, sess, now); err != nil {
				return nil, err
			}
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Disabled {
		return nil, common.ErrAccountDisabled
	}

	if !users.CheckPassword(password, user.Salt, user.PasswordHash) {
		if err := m.recordFailure(ctx, sess, now); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}

	expires := now.Add(m.sessionDuration)
	sess.CurrentUser = username
	sess.ExpiresAt = &expires
	sess.FailedLogin = models.FailedLogin{}

	if err := m.save(ctx, sess); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the live authenticated user, or nil when nobody is
// logged in. This is a side-effecting read: an expired session, or one
// referencing a missing or disabled account, is cleared on the spot.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	now := timeNow()

	sess, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	if sess.CurrentUser == "" {
		return nil, nil
	}

	if sess.ExpiresAt == nil || now.After(*sess.ExpiresAt) {
		return nil, m.clearIdentity(ctx, sess)
	}

	user, err := m.users.Get(ctx, sess.CurrentUser)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, m.clearIdentity(ctx, sess)
		}
		return nil, err
	}
	if user.Disabled {
		return nil, m.clearIdentity(ctx, sess)
	}

	return user, nil
}

// Logout clears the identity fields. The failed-login throttle is left
// untouched.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.load(ctx)
	if err != nil {
		return err
	}
	return m.clearIdentity(ctx, sess)
}

func (m *Manager) clearIdentity(ctx context.Context, sess *models.Session) error {
	sess.CurrentUser = ""
	sess.ExpiresAt = nil
	return m.save(ctx, sess)
}
