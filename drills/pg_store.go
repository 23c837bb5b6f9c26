package drills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/practicelab/practicelab/pkg/pg"
)

// PGStore is the Postgres-backed drill store.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Postgres drill store.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const drillColumns = `id, title, slug, sport, age_groups, skill_level, goal,
	instructions, coaching_cues, common_mistakes, equipment, diagram_url,
	duration_mins, min_players, max_players, space, variation_easier,
	variation_harder, safety_notes, focus_tags, published, created_at, updated_at`

func (s *PGStore) List(ctx context.Context, filter Filter) ([]Drill, error) {
	var (
		conds = []string{"published = true"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Sport != "" {
		conds = append(conds, "sport = "+arg(string(filter.Sport)))
	}
	if filter.AgeGroup != "" {
		conds = append(conds, arg(string(filter.AgeGroup))+" = ANY(age_groups)")
	}
	if filter.SkillLevel != "" {
		conds = append(conds, "skill_level = "+arg(string(filter.SkillLevel)))
	}
	if filter.FocusTag != "" {
		conds = append(conds, arg(filter.FocusTag)+" = ANY(focus_tags)")
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR goal ILIKE %s)", p, p))
	}

	query := fmt.Sprintf(
		"SELECT %s FROM drills WHERE %s ORDER BY created_at DESC, slug",
		drillColumns, strings.Join(conds, " AND "),
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drills: %w", err)
	}
	defer rows.Close()

	var out []Drill
	for rows.Next() {
		d, err := scanDrill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read drill rows: %w", err)
	}

	return out, nil
}

func (s *PGStore) GetBySlug(ctx context.Context, slug string) (*Drill, error) {
	query := fmt.Sprintf("SELECT %s FROM drills WHERE slug = $1 AND published = true", drillColumns)

	row := s.db.QueryRow(ctx, query, slug)
	d, err := scanDrill(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, errors.Join(ErrDrillNotFound, err)
		}
		return nil, err
	}

	return d, nil
}

func (s *PGStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Drill, error) {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	set := func(column string, v any) {
		sets = append(sets, column+" = "+arg(v))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Goal != nil {
		set("goal", *patch.Goal)
	}
	if patch.Instructions != nil {
		set("instructions", patch.Instructions)
	}
	if patch.CoachingCues != nil {
		set("coaching_cues", patch.CoachingCues)
	}
	if patch.CommonMistakes != nil {
		set("common_mistakes", patch.CommonMistakes)
	}
	if patch.Equipment != nil {
		set("equipment", patch.Equipment)
	}
	if patch.DiagramURL != nil {
		set("diagram_url", *patch.DiagramURL)
	}
	if patch.DurationMins != nil {
		set("duration_mins", *patch.DurationMins)
	}
	if patch.SafetyNotes != nil {
		set("safety_notes", *patch.SafetyNotes)
	}
	if patch.FocusTags != nil {
		set("focus_tags", patch.FocusTags)
	}
	if patch.Published != nil {
		set("published", *patch.Published)
	}

	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(
		"UPDATE drills SET %s WHERE id = %s RETURNING %s",
		strings.Join(sets, ", "), arg(id), drillColumns,
	)

	row := s.db.QueryRow(ctx, query, args...)
	d, err := scanDrill(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, errors.Join(ErrDrillNotFound, err)
		}
		return nil, err
	}

	return d, nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM drills WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete drill %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDrillNotFound
	}
	return nil
}

func scanDrill(row pgx.Row) (*Drill, error) {
	var (
		d               Drill
		ageGroups       []string
		diagramURL      *string
		space           *string
		variationEasier *string
		variationHarder *string
		safetyNotes     *string
	)

	err := row.Scan(
		&d.ID, &d.Title, &d.Slug, &d.Sport, &ageGroups, &d.SkillLevel, &d.Goal,
		&d.Instructions, &d.CoachingCues, &d.CommonMistakes, &d.Equipment, &diagramURL,
		&d.DurationMins, &d.MinPlayers, &d.MaxPlayers, &space, &variationEasier,
		&variationHarder, &safetyNotes, &d.FocusTags, &d.Published, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan drill row: %w", err)
	}

	d.AgeGroups = make([]AgeGroup, len(ageGroups))
	for i, a := range ageGroups {
		d.AgeGroups[i] = AgeGroup(a)
	}
	if diagramURL != nil {
		d.DiagramURL = *diagramURL
	}
	if space != nil {
		d.Space = *space
	}
	if variationEasier != nil {
		d.Variations.Easier = *variationEasier
	}
	if variationHarder != nil {
		d.Variations.Harder = *variationHarder
	}
	if safetyNotes != nil {
		d.SafetyNotes = *safetyNotes
	}

	return &d, nil
}
