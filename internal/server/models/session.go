package models

import "time"

// FailedLogin is the global login throttle. It counts failed credential
// checks regardless of which username was attempted; it is not tied to any
// one account.
type FailedLogin struct {
	Count         int        `json:"count"`
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
}

// Session is the process-wide session singleton document. CurrentUser is
// empty when nobody is logged in.
type Session struct {
	CurrentUser string      `json:"currentUser,omitempty"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
	FailedLogin FailedLogin `json:"failedLogin"`
}

// Active reports whether the session carries a non-expired identity at the
// given instant. It does not check whether the referenced user still exists
// or is disabled; that is the session manager's job.
func (s *Session) Active(now time.Time) bool {
	return s.CurrentUser != "" && s.ExpiresAt != nil && !now.After(*s.ExpiresAt)
}
