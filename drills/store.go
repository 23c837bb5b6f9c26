package drills

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDrillNotFound = errors.New("drill not found")
)

// Filter narrows a drill listing. Zero values mean "any".
type Filter struct {
	Sport      Sport
	AgeGroup   AgeGroup
	SkillLevel SkillLevel
	FocusTag   string
	Search     string // matched against title and goal
}

// Patch carries the admin-editable fields. Nil means "leave unchanged".
type Patch struct {
	Title          *string
	Goal           *string
	Instructions   []string
	CoachingCues   []string
	CommonMistakes []string
	Equipment      []string
	DiagramURL     *string
	DurationMins   *int
	SafetyNotes    *string
	FocusTags      []string
	Published      *bool
}

// Store is the drill catalog persistence interface. List returns
// published drills only, in a stable order, so listing positions are
// deterministic inputs to the access gate.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Drill, error)
	GetBySlug(ctx context.Context, slug string) (*Drill, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Drill, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
