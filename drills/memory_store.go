package drills

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu     sync.RWMutex
	drills map[uuid.UUID]*Drill
}

// NewMemStore creates an empty in-memory drill store.
func NewMemStore() *MemStore {
	return &MemStore{drills: make(map[uuid.UUID]*Drill)}
}

// Put inserts or replaces a drill.
func (s *MemStore) Put(d Drill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drills[d.ID] = &d
}

func (s *MemStore) List(ctx context.Context, filter Filter) ([]Drill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Drill
	for _, d := range s.drills {
		if !d.Published || !matches(d, filter) {
			continue
		}
		out = append(out, *d)
	}

	// Stable ordering: newest first, slug as tiebreaker. Listing position
	// drives the free preview, so the most recent drills are the open ones.
	slices.SortFunc(out, func(a, b Drill) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Slug, b.Slug)
	})

	return out, nil
}

func (s *MemStore) GetBySlug(ctx context.Context, slug string) (*Drill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.drills {
		if d.Slug == slug && d.Published {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrDrillNotFound
}

func (s *MemStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drills[id]
	if !ok {
		return nil, ErrDrillNotFound
	}

	applyPatch(d, patch)
	d.UpdatedAt = time.Now().UTC()

	copied := *d
	return &copied, nil
}

func (s *MemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drills[id]; !ok {
		return ErrDrillNotFound
	}
	delete(s.drills, id)
	return nil
}

func matches(d *Drill, filter Filter) bool {
	if filter.Sport != "" && d.Sport != filter.Sport {
		return false
	}
	if filter.AgeGroup != "" && !slices.Contains(d.AgeGroups, filter.AgeGroup) {
		return false
	}
	if filter.SkillLevel != "" && d.SkillLevel != filter.SkillLevel {
		return false
	}
	if filter.FocusTag != "" && !slices.Contains(d.FocusTags, filter.FocusTag) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(d.Title), needle) &&
			!strings.Contains(strings.ToLower(d.Goal), needle) {
			return false
		}
	}
	return true
}

func applyPatch(d *Drill, patch Patch) {
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Goal != nil {
		d.Goal = *patch.Goal
	}
	if patch.Instructions != nil {
		d.Instructions = patch.Instructions
	}
	if patch.CoachingCues != nil {
		d.CoachingCues = patch.CoachingCues
	}
	if patch.CommonMistakes != nil {
		d.CommonMistakes = patch.CommonMistakes
	}
	if patch.Equipment != nil {
		d.Equipment = patch.Equipment
	}
	if patch.DiagramURL != nil {
		d.DiagramURL = *patch.DiagramURL
	}
	if patch.DurationMins != nil {
		d.DurationMins = *patch.DurationMins
	}
	if patch.SafetyNotes != nil {
		d.SafetyNotes = *patch.SafetyNotes
	}
	if patch.FocusTags != nil {
		d.FocusTags = patch.FocusTags
	}
	if patch.Published != nil {
		d.Published = *patch.Published
	}
}
