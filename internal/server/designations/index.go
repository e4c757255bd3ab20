// Package designations maintains the autocomplete index for free-text
// designation labels. Labels are merged by their normalized key; the most
// recently used casing/spacing is the one shown in suggestions.
package designations

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

const (
	GlobalCap      = 100
	AreaCap        = 50
	MaxSuggestions = 5
)

// Normalize turns a label into its canonical key: trimmed, internal
// whitespace runs collapsed to single spaces, lower-cased. This is the merge
// key everywhere designations are compared.
func Normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

type Index struct {
	store docstore.Store
}

func NewIndex(store docstore.Store) *Index {
	return &Index{store: store}
}

func (i *Index) load(ctx context.Context) (*models.DesignationHistory, error) {
	h := models.NewDesignationHistory()
	if _, err := i.store.Get(ctx, docstore.KeyDesignations, h); err != nil {
		return nil, fmt.Errorf("error loading designation history: %w", err)
	}
	if h.ByArea == nil {
		h.ByArea = make(map[string][]string)
	}
	return h, nil
}

func (i *Index) save(ctx context.Context, h *models.DesignationHistory) error {
	if err := i.store.Put(ctx, docstore.KeyDesignations, h); err != nil {
		return fmt.Errorf("error saving designation history: %w", err)
	}
	return nil
}

// pushFront removes any entry whose normalized key matches label's, inserts
// the literal label at the front, and truncates to limit.
func pushFront(list []string, label string, limit int) []string {
	key := Normalize(label)

	kept := make([]string, 0, len(list)+1)
	kept = append(kept, label)
	for _, l := range list {
		if Normalize(l) != key {
			kept = append(kept, l)
		}
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// RecordUsage promotes label to the front of both the global list and the
// area's list.
func (i *Index) RecordUsage(ctx context.Context, label, area string) error {
	h, err := i.load(ctx)
	if err != nil {
		return err
	}

	h.Global = pushFront(h.Global, label, GlobalCap)
	h.ByArea[area] = pushFront(h.ByArea[area], label, AreaCap)

	return i.save(ctx, h)
}

// Suggest returns up to MaxSuggestions labels whose normalized form contains
// the normalized partial as a substring. Area-scoped matches come first in
// recency order, then global matches not already included.
func (i *Index) Suggest(ctx context.Context, partial, area string) ([]string, error) {
	h, err := i.load(ctx)
	if err != nil {
		return nil, err
	}

	needle := Normalize(partial)
	out := make([]string, 0, MaxSuggestions)
	seen := make(map[string]struct{})

	appendMatches := func(list []string) {
		for _, label := range list {
			if len(out) >= MaxSuggestions {
				return
			}
			key := Normalize(label)
			if _, dup := seen[key]; dup {
				continue
			}
			if strings.Contains(key, needle) {
				out = append(out, label)
				seen[key] = struct{}{}
			}
		}
	}

	appendMatches(h.ByArea[area])
	appendMatches(h.Global)

	return out, nil
}

// ReplaceAreaName moves an area's recency list under its new name when the
// area is renamed. Part of the cross-cutting rename propagation.
func (i *Index) ReplaceAreaName(ctx context.Context, oldName, newName string) error {
	h, err := i.load(ctx)
	if err != nil {
		return err
	}
	if list, ok := h.ByArea[oldName]; ok {
		delete(h.ByArea, oldName)
		h.ByArea[newName] = list
	}
	return i.save(ctx, h)
}

// RemoveAreaName drops a deleted area's recency list.
func (i *Index) RemoveAreaName(ctx context.Context, name string) error {
	h, err := i.load(ctx)
	if err != nil {
		return err
	}
	delete(h.ByArea, name)
	return i.save(ctx, h)
}
