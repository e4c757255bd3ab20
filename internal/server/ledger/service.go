// Package ledger is the attendance row store: per-date, per-area,
// per-designation headcount rows, their aggregates, and the per-date audit
// ring. Mutations require a live session and degrade to silent no-ops
// without one, matching the tolerant edit-in-place UI the ledger serves.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/session"
)

// timeNow is a test seam.
var timeNow = time.Now

type Service struct {
	store    docstore.Store
	sessions *session.Manager
	index    *designations.Index
}

func NewService(store docstore.Store, sessions *session.Manager, index *designations.Index) *Service {
	return &Service{store: store, sessions: sessions, index: index}
}

// PresentUpdate carries a new present value inside a RowPatch. Value nil
// clears the count.
type PresentUpdate struct {
	Value *int
}

// RowPatch lists the fields an UpdateRow call wants to change. A nil field
// is left untouched.
type RowPatch struct {
	Present   *PresentUpdate
	Confirmed *bool
}

// Totals aggregates one area on one date. Rows without a present count
// contribute 0 to Total but still count toward RowCount.
type Totals struct {
	Total          int `json:"total"`
	ConfirmedCount int `json:"confirmedCount"`
	RowCount       int `json:"rowCount"`
}

func (s *Service) loadDate(ctx context.Context, date string) (*models.DateAttendance, error) {
	doc := models.NewDateAttendance(date)
	if _, err := s.store.Get(ctx, docstore.AttendanceKey(date), doc); err != nil {
		return nil, fmt.Errorf("error loading attendance for %s: %w", date, err)
	}
	if doc.Areas == nil {
		doc.Areas = make(map[string]*models.AreaAttendance)
	}
	return doc, nil
}

func (s *Service) saveDate(ctx context.Context, doc *models.DateAttendance) error {
	if err := s.store.Put(ctx, docstore.AttendanceKey(doc.Date), doc); err != nil {
		return fmt.Errorf("error saving attendance for %s: %w", doc.Date, err)
	}
	return nil
}

// GetDate returns the whole date document. Read-only accessor for export and
// report collaborators; the document is created lazily and never persisted
// by a read.
func (s *Service) GetDate(ctx context.Context, date string) (*models.DateAttendance, error) {
	return s.loadDate(ctx, date)
}

// ListDates returns all dates with a persisted attendance document, sorted.
func (s *Service) ListDates(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, docstore.AttendancePrefix)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		if d, ok := docstore.DateFromKey(k); ok {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// GetRow returns the row identified by date+area+designationKey, or nil when
// the area or row does not exist. Never auto-creates.
func (s *Service) GetRow(ctx context.Context, date, area, key string) (*models.AttendanceRow, error) {
	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return doc.Area(area).FindRow(key), nil
}

// AddRow adds a designation row for date+area. Idempotent on the normalized
// key: re-adding an existing designation returns it unchanged, preserving
// present/confirmed. Without a live session (or with a blank label) it is a
// silent no-op returning nil.
func (s *Service) AddRow(ctx context.Context, date, area, label string) (*models.AttendanceRow, error) {
	user, err := s.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	key := designations.Normalize(label)
	if key == "" {
		return nil, nil
	}

	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if row := doc.Area(area).FindRow(key); row != nil {
		return row, nil
	}

	now := timeNow()
	row := &models.AttendanceRow{
		DesignationKey:   key,
		DesignationLabel: label,
		Present:          nil,
		Confirmed:        false,
		UpdatedAt:        now,
		UpdatedBy:        user.UserName,
	}

	if doc.Areas[area] == nil {
		doc.Areas[area] = &models.AreaAttendance{Rows: make([]*models.AttendanceRow, 0)}
	}
	doc.Areas[area].Rows = append(doc.Areas[area].Rows, row)
	doc.UpdatedAt = now
	doc.UpdatedBy = user.UserName

	if err := s.saveDate(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.index.RecordUsage(ctx, label, area); err != nil {
		return nil, err
	}
	return row, nil
}

func renderPresent(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// UpdateRow applies a patch to an existing row. Each actually-changed field
// produces one audit entry, captured before the change lands. Missing
// session or row is a silent no-op. Present values must be nil or a
// non-negative integer; anything else is rejected hard.
func (s *Service) UpdateRow(ctx context.Context, date, area, key string, patch RowPatch) error {
	if patch.Present != nil && patch.Present.Value != nil && *patch.Present.Value < 0 {
		return common.ErrInvalidPresentValue
	}

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

	row := doc.Area(area).FindRow(key)
	if row == nil {
		return nil
	}

	now := timeNow()
	changed := false

	if patch.Present != nil {
		oldVal, newVal := renderPresent(row.Present), renderPresent(patch.Present.Value)
		if oldVal != newVal {
			doc.AppendAudit(models.AuditEntry{
				TS:             now,
				User:           user.UserName,
				Area:           area,
				DesignationKey: key,
				Field:          models.FieldPresent,
				From:           oldVal,
				To:             newVal,
			})
			row.Present = patch.Present.Value
			changed = true
		}
	}

	if patch.Confirmed != nil && *patch.Confirmed != row.Confirmed {
		doc.AppendAudit(models.AuditEntry{
			TS:             now,
			User:           user.UserName,
			Area:           area,
			DesignationKey: key,
			Field:          models.FieldConfirmed,
			From:           strconv.FormatBool(row.Confirmed),
			To:             strconv.FormatBool(*patch.Confirmed),
		})
		row.Confirmed = *patch.Confirmed
		changed = true
	}

	if !changed {
		return nil
	}

	row.UpdatedAt = now
	row.UpdatedBy = user.UserName
	doc.UpdatedAt = now
	doc.UpdatedBy = user.UserName

	return s.saveDate(ctx, doc)
}

// DeleteRow removes the row if present. Row lifecycle is not audited, only
// field-level changes are. Missing session or row is a silent no-op.
func (s *Service) DeleteRow(ctx context.Context, date, area, key string) error {
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

	a := doc.Area(area)
	if a == nil {
		return nil
	}

	kept := a.Rows[:0]
	removed := false
	for _, r := range a.Rows {
		if r.DesignationKey == key {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return nil
	}
	a.Rows = kept

	now := timeNow()
	doc.UpdatedAt = now
	doc.UpdatedBy = user.UserName

	return s.saveDate(ctx, doc)
}

// AreaTotals sums one area on one date.
func (s *Service) AreaTotals(ctx context.Context, date, area string) (Totals, error) {
	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return Totals{}, err
	}

	var t Totals
	a := doc.Area(area)
	if a == nil {
		return t, nil
	}
	for _, r := range a.Rows {
		t.RowCount++
		if r.Present != nil {
			t.Total += *r.Present
		}
		if r.Confirmed {
			t.ConfirmedCount++
		}
	}
	return t, nil
}

// GrandTotal sums AreaTotals over the given areas. The list is role-scoped
// and must be supplied by the caller; the ledger does not infer visibility.
func (s *Service) GrandTotal(ctx context.Context, date string, areas []string) (int, error) {
	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, area := range areas {
		a := doc.Area(area)
		if a == nil {
			continue
		}
		for _, r := range a.Rows {
			if r.Present != nil {
				total += *r.Present
			}
		}
	}
	return total, nil
}

// ConfirmAllValid confirms every unconfirmed row with a present count in the
// given areas. Each flip goes through UpdateRow so it is individually
// audited. Rows without a count are silently skipped. Returns the number of
// rows flipped.
func (s *Service) ConfirmAllValid(ctx context.Context, date string, areas []string) (int, error) {
	doc, err := s.loadDate(ctx, date)
	if err != nil {
		return 0, err
	}

	confirmed := true
	flipped := 0
	for _, area := range areas {
		a := doc.Area(area)
		if a == nil {
			continue
		}
		for _, r := range a.Rows {
			if r.Confirmed || r.Present == nil {
				continue
			}
			if err := s.UpdateRow(ctx, date, area, r.DesignationKey, RowPatch{Confirmed: &confirmed}); err != nil {
				return flipped, err
			}
			flipped++
		}
	}
	return flipped, nil
}

// ReplaceAreaName moves every date's rows for a renamed area under the new
// key; row data is unchanged. Part of the cross-cutting rename propagation.
func (s *Service) ReplaceAreaName(ctx context.Context, oldName, newName string) error {
	keys, err := s.store.List(ctx, docstore.AttendancePrefix)
	if err != nil {
		return err
	}

	for _, k := range keys {
		date, ok := docstore.DateFromKey(k)
		if !ok {
			continue
		}
		doc, err := s.loadDate(ctx, date)
		if err != nil {
			return err
		}
		a, ok := doc.Areas[oldName]
		if !ok {
			continue
		}
		delete(doc.Areas, oldName)
		doc.Areas[newName] = a
		if err := s.saveDate(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAreaName drops a deleted area's rows from every date.
func (s *Service) RemoveAreaName(ctx context.Context, name string) error {
	keys, err := s.store.List(ctx, docstore.AttendancePrefix)
	if err != nil {
		return err
	}

	for _, k := range keys {
		date, ok := docstore.DateFromKey(k)
		if !ok {
			continue
		}
		doc, err := s.loadDate(ctx, date)
		if err != nil {
			return err
		}
		if _, ok := doc.Areas[name]; !ok {
			continue
		}
		delete(doc.Areas, name)
		if err := s.saveDate(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// PruneOldDates deletes attendance documents older than retentionDays.
// Explicitly invoked; nothing in the core runs on a timer.
func (s *Service) PruneOldDates(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := timeNow().AddDate(0, 0, -retentionDays)

	keys, err := s.store.List(ctx, docstore.AttendancePrefix)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, k := range keys {
		date, ok := docstore.DateFromKey(k)
		if !ok {
			continue
		}
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			if err := s.store.Delete(ctx, k); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
