package ledger

import (
	"context"

	"github.com/mkarpovs/crewtally/internal/server/models"
)

// AuditTrail returns a date's audit ring, newest first. A date with no
// history yields an empty slice, never an error. Audit scope is per-date;
// there is no cross-date query.
func (s *Service) AuditTrail(ctx context.Context, date string) ([]models.AuditEntry, error) {
	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if doc.Audit == nil {
		return make([]models.AuditEntry, 0), nil
	}
	return doc.Audit, nil
}

// AppendAudit records one field-level change attributed to the current
// identity. Without a live session it is a silent no-op. UpdateRow calls the
// document ring directly so the entry and the row change land in one write;
// this entry point exists for collaborators that mutate rows out of band.
func (s *Service) AppendAudit(ctx context.Context, date, area, key string, field models.AuditField, from, to string) error {
	user, err := s.sessions.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return err
	}

	doc.AppendAudit(models.AuditEntry{
		TS:             timeNow(),
		User:           user.UserName,
		Area:           area,
		DesignationKey: key,
		Field:          field,
		From:           from,
		To:             to,
	})

	return s.saveDate(ctx, doc)
}
