package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditField names the row field an audit entry refers to. Only field-level
// present/confirmed changes are audited, not row lifecycle.
type AuditField string

const (
	FieldPresent   AuditField = "present"
	FieldConfirmed AuditField = "confirmed"
)

// AuditCapacity bounds the per-date audit ring.
const AuditCapacity = 10

// AttendanceRow is one designation's headcount within an area on one date.
// DesignationKey is the normalized form of DesignationLabel and is the
// identity used for lookup and merge; the label keeps the original casing
// and spacing for display.
type AttendanceRow struct {
	DesignationKey   string     `json:"designationKey"`
	DesignationLabel string     `json:"designationLabel"`
	Present          *int       `json:"present"`
	Confirmed        bool       `json:"confirmed"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	UpdatedBy        string     `json:"updatedBy"`
}

// AreaAttendance holds the rows of one area within a date document.
type AreaAttendance struct {
	Rows []*AttendanceRow `json:"rows"`
}

// AuditEntry records one field-level change. From and To hold the rendered
// old and new values ("" for an unset present count, "true"/"false" for
// confirmation) so the ring survives JSON round-trips without type drift.
type AuditEntry struct {
	ID             string     `json:"id"`
	TS             time.Time  `json:"ts"`
	User           string     `json:"user"`
	Area           string     `json:"area"`
	DesignationKey string     `json:"designationKey"`
	Field          AuditField `json:"field"`
	From           string     `json:"from"`
	To             string     `json:"to"`
}

// DateAttendance is the whole-document unit for one date. It is created
// lazily on first access and replaced wholly on each write. Audit is a
// bounded ring, newest first.
type DateAttendance struct {
	Date      string                     `json:"date"`
	Areas     map[string]*AreaAttendance `json:"areas"`
	Audit     []AuditEntry               `json:"audit"`
	UpdatedAt time.Time                  `json:"updatedAt"`
	UpdatedBy string                     `json:"updatedBy"`
}

// NewDateAttendance returns an empty document for the given date.
func NewDateAttendance(date string) *DateAttendance {
	return &DateAttendance{
		Date:  date,
		Areas: make(map[string]*AreaAttendance),
		Audit: make([]AuditEntry, 0),
	}
}

// AppendAudit inserts an entry at the front of the audit ring and evicts the
// oldest entries beyond AuditCapacity. Eviction is FIFO by insertion order,
// not by timestamp.
func (d *DateAttendance) AppendAudit(e AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	d.Audit = append([]AuditEntry{e}, d.Audit...)
	if len(d.Audit) > AuditCapacity {
		d.Audit = d.Audit[:AuditCapacity]
	}
}

// Area returns the area's row container, or nil when the area has no rows
// recorded on this date.
func (d *DateAttendance) Area(name string) *AreaAttendance {
	if d.Areas == nil {
		return nil
	}
	return d.Areas[name]
}

// FindRow returns the row with the given normalized key, or nil.
func (a *AreaAttendance) FindRow(key string) *AttendanceRow {
	if a == nil {
		return nil
	}
	for _, r := range a.Rows {
		if r.DesignationKey == key {
			return r
		}
	}
	return nil
}
