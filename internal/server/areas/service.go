// Package areas manages the ordered area list. Attendance rows are keyed by
// area name, not a stable id, so renaming or deleting an area is a
// cross-cutting rewrite over the user list, every date's attendance document
// and the designation history.
package areas

import (
	"context"
	"fmt"
	"slices"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

type Service struct {
	store  docstore.Store
	users  *users.Service
	ledger *ledger.Service
	index  *designations.Index
}

func NewService(store docstore.Store, us *users.Service, ls *ledger.Service, idx *designations.Index) *Service {
	return &Service{store: store, users: us, ledger: ls, index: idx}
}

func (s *Service) load(ctx context.Context) ([]string, error) {
	list := make([]string, 0)
	if _, err := s.store.Get(ctx, docstore.KeyAreas, &list); err != nil {
		return nil, fmt.Errorf("error loading areas: %w", err)
	}
	return list, nil
}

func (s *Service) save(ctx context.Context, list []string) error {
	if err := s.store.Put(ctx, docstore.KeyAreas, list); err != nil {
		return fmt.Errorf("error saving areas: %w", err)
	}
	return nil
}

// List returns the areas in display order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.load(ctx)
}

// Add appends a new area. Names are unique within the list.
func (s *Service) Add(ctx context.Context, name string) error {
	if name == "" {
		return common.ErrAreaNotFound
	}

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(list, name) {
		return common.ErrDuplicateArea
	}
	return s.save(ctx, append(list, name))
}

// Rename replaces oldName with newName in place, keeping display order, then
// propagates the new name to every user's assignedAreas, every date's
// attendance map key and the designation history.
func (s *Service) Rename(ctx context.Context, oldName, newName string) error {
	if oldName == newName {
		return nil
	}

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	i := slices.Index(list, oldName)
	if i < 0 {
		return common.ErrAreaNotFound
	}
	if slices.Contains(list, newName) {
		return common.ErrDuplicateArea
	}

	list[i] = newName
	if err := s.save(ctx, list); err != nil {
		return err
	}

	if err := s.users.ReplaceAreaName(ctx, oldName, newName); err != nil {
		return err
	}
	if err := s.ledger.ReplaceAreaName(ctx, oldName, newName); err != nil {
		return err
	}
	return s.index.ReplaceAreaName(ctx, oldName, newName)
}

// Delete removes the area and propagates the removal everywhere the name is
// referenced. Attendance rows under the name are dropped with it.
func (s *Service) Delete(ctx context.Context, name string) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	i := slices.Index(list, name)
	if i < 0 {
		return common.ErrAreaNotFound
	}

	if err := s.save(ctx, slices.Delete(list, i, i+1)); err != nil {
		return err
	}

	if err := s.users.RemoveAreaName(ctx, name); err != nil {
		return err
	}
	if err := s.ledger.RemoveAreaName(ctx, name); err != nil {
		return err
	}
	return s.index.RemoveAreaName(ctx, name)
}

// VisibleTo returns the role-scoped area list for a user: all areas for an
// admin, the intersection of the list with assignedAreas otherwise. Callers
// feed this to GrandTotal and ConfirmAllValid.
func (s *Service) VisibleTo(ctx context.Context, user *models.User) ([]string, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return list, nil
	}
	visible := make([]string, 0, len(user.AssignedAreas))
	for _, a := range list {
		if slices.Contains(user.AssignedAreas, a) {
			visible = append(visible, a)
		}
	}
	return visible, nil
}
