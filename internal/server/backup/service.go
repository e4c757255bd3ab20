// Package backup produces and restores full-state snapshots: the union of
// every persisted document plus a version tag. Import is a wholesale
// replacement of each document present in the payload, not a merge.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

// Version tags exported payloads. Bump when the document shapes change.
const Version = 1

// timeNow is a test seam.
var timeNow = time.Now

// Payload is the JSON shape of a full-state export. Absent documents stay
// nil and are skipped on import.
type Payload struct {
	Version      int                                `json:"version"`
	ExportedAt   time.Time                          `json:"exportedAt"`
	Settings     *models.Settings                   `json:"settings,omitempty"`
	Areas        []string                           `json:"areas,omitempty"`
	Users        []*models.User                     `json:"users,omitempty"`
	Session      *models.Session                    `json:"session,omitempty"`
	Attendance   map[string]*models.DateAttendance  `json:"attendance,omitempty"`
	Designations *models.DesignationHistory         `json:"designations,omitempty"`
}

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Export collects every document into one payload.
func (s *Service) Export(ctx context.Context) (*Payload, error) {
	p := &Payload{
		Version:    Version,
		ExportedAt: timeNow(),
		Settings:   models.DefaultSettings(),
	}

	if _, err := s.store.Get(ctx, docstore.KeySettings, p.Settings); err != nil {
		return nil, err
	}

	areas := make([]string, 0)
	if _, err := s.store.Get(ctx, docstore.KeyAreas, &areas); err != nil {
		return nil, err
	}
	p.Areas = areas

	userList := make([]*models.User, 0)
	if _, err := s.store.Get(ctx, docstore.KeyUsers, &userList); err != nil {
		return nil, err
	}
	p.Users = userList

	sess := &models.Session{}
	if _, err := s.store.Get(ctx, docstore.KeySession, sess); err != nil {
		return nil, err
	}
	p.Session = sess

	hist := models.NewDesignationHistory()
	if _, err := s.store.Get(ctx, docstore.KeyDesignations, hist); err != nil {
		return nil, err
	}
	p.Designations = hist

	keys, err := s.store.List(ctx, docstore.AttendancePrefix)
	if err != nil {
		return nil, err
	}
	p.Attendance = make(map[string]*models.DateAttendance, len(keys))
	for _, k := range keys {
		date, ok := docstore.DateFromKey(k)
		if !ok {
			continue
		}
		doc := models.NewDateAttendance(date)
		if found, err := s.store.Get(ctx, k, doc); err != nil {
			return nil, err
		} else if found {
			p.Attendance[date] = doc
		}
	}

	return p, nil
}

// ExportJSON marshals the full state with indentation for human inspection.
func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	p, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// Import validates and applies a payload. A payload without a version tag or
// settings document is rejected with ErrInvalidBackup. Each document key
// present in the payload wholesale-replaces the stored document; absent keys
// are left alone. The attendance document set is replaced as a whole.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	p := &Payload{}
	if err := json.Unmarshal(raw, p); err != nil {
		return common.ErrInvalidBackup
	}
	if p.Version == 0 || p.Settings == nil {
		return common.ErrInvalidBackup
	}

	if err := s.store.Put(ctx, docstore.KeySettings, p.Settings); err != nil {
		return err
	}
	if p.Areas != nil {
		if err := s.store.Put(ctx, docstore.KeyAreas, p.Areas); err != nil {
			return err
		}
	}
	if p.Users != nil {
		if err := s.store.Put(ctx, docstore.KeyUsers, p.Users); err != nil {
			return err
		}
	}
	if p.Session != nil {
		if err := s.store.Put(ctx, docstore.KeySession, p.Session); err != nil {
			return err
		}
	}
	if p.Designations != nil {
		if err := s.store.Put(ctx, docstore.KeyDesignations, p.Designations); err != nil {
			return err
		}
	}

	if p.Attendance != nil {
		existing, err := s.store.List(ctx, docstore.AttendancePrefix)
		if err != nil {
			return err
		}
		for _, k := range existing {
			if err := s.store.Delete(ctx, k); err != nil {
				return err
			}
		}
		for date, doc := range p.Attendance {
			if err := s.store.Put(ctx, docstore.AttendanceKey(date), doc); err != nil {
				return fmt.Errorf("error restoring attendance for %s: %w", date, err)
			}
		}
	}

	return nil
}
