package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/practicelab/practicelab/binder"
	"github.com/practicelab/practicelab/drills"
	"github.com/practicelab/practicelab/handler"
	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/subscription"
)

// Config carries the catalog module settings.
type Config struct {
	AdminEmail  string `env:"ADMIN_EMAIL,required"`            // exact match against the verified identity
	FreePreview int    `env:"FREE_DRILL_LIMIT" envDefault:"2"` // always-unlocked listing positions
}

// Deps bundles the stores the catalog module reads.
type Deps struct {
	Drills    drills.Store
	Customers subscription.CustomerStore
	Tiers     *subscription.Catalog
	Log       *slog.Logger
}

// Router mounts the drill listing, detail, pricing, and admin endpoints.
func Router(cfg Config, deps Deps) chi.Router {
	m := &module{
		cfg:  cfg,
		deps: deps,
		gate: drills.Gate{FreePreview: cfg.FreePreview},
	}

	r := chi.NewRouter()

	r.Get("/drills", handler.Wrap(
		m.listDrills(),
		handler.WithBinder[handler.Context, listDrillsRequest](binder.Query()),
	))
	r.Get("/drills/{slug}", handler.Wrap(
		m.getDrill(),
		handler.WithBinders[handler.Context, getDrillRequest](binder.Path(chi.URLParam)),
	))
	r.Get("/pricing", handler.Wrap(m.pricing()))

	r.Route("/admin/drills", func(admin chi.Router) {
		admin.Patch("/{id}", handler.Wrap(
			m.updateDrill(),
			handler.WithBinders[handler.Context, updateDrillRequest](
				binder.Path(chi.URLParam),
				binder.JSON(),
			),
		))
		admin.Delete("/{id}", handler.Wrap(
			m.deleteDrill(),
			handler.WithBinders[handler.Context, deleteDrillRequest](binder.Path(chi.URLParam)),
		))
	})

	return r
}

type module struct {
	cfg  Config
	deps Deps
	gate drills.Gate
}

// entitlementFor resolves the caller's persisted entitlement. Anonymous
// callers and users without a record get the zero entitlement.
func (m *module) entitlementFor(ctx handler.Context) subscription.Entitlement {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return subscription.Entitlement{}
	}

	customer, err := m.deps.Customers.Get(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, subscription.ErrCustomerNotFound) {
			m.deps.Log.WarnContext(ctx, "failed to load entitlement, treating as anonymous",
				slog.String("user_id", identity.UserID.String()),
				slog.Any("error", err))
		}
		return subscription.Entitlement{}
	}

	return customer.Entitlement
}

type listDrillsRequest struct {
	Sport      string `query:"sport"`
	AgeGroup   string `query:"age_group"`
	SkillLevel string `query:"skill_level"`
	FocusTag   string `query:"focus"`
	Search     string `query:"search"`
}

type listedDrill struct {
	drills.Drill
	Locked bool `json:"locked"`
}

// listDrills returns the filtered listing with each item gated by its
// zero-based position. Locked items carry teaser fields only.
func (m *module) listDrills() handler.HandlerFunc[handler.Context, listDrillsRequest] {
	return func(ctx handler.Context, req listDrillsRequest) handler.Response {
		list, err := m.deps.Drills.List(ctx, drills.Filter{
			Sport:      drills.Sport(req.Sport),
			AgeGroup:   drills.AgeGroup(req.AgeGroup),
			SkillLevel: drills.SkillLevel(req.SkillLevel),
			FocusTag:   req.FocusTag,
			Search:     req.Search,
		})
		if err != nil {
			return handler.JSONError(handler.ErrInternalServerError)
		}

		ent := m.entitlementFor(ctx)

		out := make([]listedDrill, len(list))
		for i, d := range list {
			if m.gate.Evaluate(i, ent) == drills.AccessLocked {
				out[i] = listedDrill{Drill: d.Teaser(), Locked: true}
				continue
			}
			out[i] = listedDrill{Drill: d}
		}

		return handler.JSON(out)
	}
}

type getDrillRequest struct {
	Slug string `path:"slug"`
}

// getDrill returns one drill, gated at its position within the full
// listing so detail and listing agree on what is locked.
func (m *module) getDrill() handler.HandlerFunc[handler.Context, getDrillRequest] {
	return func(ctx handler.Context, req getDrillRequest) handler.Response {
		d, err := m.deps.Drills.GetBySlug(ctx, req.Slug)
		if err != nil {
			if errors.Is(err, drills.ErrDrillNotFound) {
				return handler.JSONError(handler.ErrNotFound)
			}
			return handler.JSONError(handler.ErrInternalServerError)
		}

		position, err := m.position(ctx, d.Slug)
		if err != nil {
			return handler.JSONError(handler.ErrInternalServerError)
		}

		if m.gate.Evaluate(position, m.entitlementFor(ctx)) == drills.AccessLocked {
			return handler.JSON(listedDrill{Drill: d.Teaser(), Locked: true})
		}

		return handler.JSON(listedDrill{Drill: *d})
	}
}

// position locates a drill's zero-based index in the unfiltered listing.
func (m *module) position(ctx handler.Context, slug string) (int, error) {
	list, err := m.deps.Drills.List(ctx, drills.Filter{})
	if err != nil {
		return 0, err
	}
	for i, d := range list {
		if d.Slug == slug {
			return i, nil
		}
	}
	// Unreachable for published drills; gate it as beyond the preview.
	return len(list), nil
}

func (m *module) pricing() handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		return handler.JSON(m.deps.Tiers.Tiers())
	}
}

// requireAdmin enforces the exact-match administrator identity check.
func (m *module) requireAdmin(ctx handler.Context) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity.Email == "" || identity.Email != m.cfg.AdminEmail {
		return handler.ErrUnauthorized
	}
	return nil
}

type updateDrillRequest struct {
	ID string `path:"id" json:"-"`

	Title          *string  `json:"title"`
	Goal           *string  `json:"goal"`
	Instructions   []string `json:"instructions"`
	CoachingCues   []string `json:"coaching_cues"`
	CommonMistakes []string `json:"common_mistakes"`
	Equipment      []string `json:"equipment"`
	DiagramURL     *string  `json:"diagram_url"`
	DurationMins   *int     `json:"duration_mins"`
	SafetyNotes    *string  `json:"safety_notes"`
	FocusTags      []string `json:"focus_tags"`
	Published      *bool    `json:"published"`
}

func (m *module) updateDrill() handler.HandlerFunc[handler.Context, updateDrillRequest] {
	return func(ctx handler.Context, req updateDrillRequest) handler.Response {
		if err := m.requireAdmin(ctx); err != nil {
			return handler.JSONError(err)
		}

		id, err := uuid.Parse(req.ID)
		if err != nil {
			return handler.JSONError(handler.NewHTTPError(http.StatusBadRequest, "invalid_drill_id"))
		}

		d, err := m.deps.Drills.Update(ctx, id, drills.Patch{
			Title:          req.Title,
			Goal:           req.Goal,
			Instructions:   req.Instructions,
			CoachingCues:   req.CoachingCues,
			CommonMistakes: req.CommonMistakes,
			Equipment:      req.Equipment,
			DiagramURL:     req.DiagramURL,
			DurationMins:   req.DurationMins,
			SafetyNotes:    req.SafetyNotes,
			FocusTags:      req.FocusTags,
			Published:      req.Published,
		})
		if err != nil {
			if errors.Is(err, drills.ErrDrillNotFound) {
				return handler.JSONError(handler.ErrNotFound)
			}
			return handler.JSONError(handler.ErrInternalServerError)
		}

		return handler.JSON(d)
	}
}

type deleteDrillRequest struct {
	ID string `path:"id"`
}

func (m *module) deleteDrill() handler.HandlerFunc[handler.Context, deleteDrillRequest] {
	return func(ctx handler.Context, req deleteDrillRequest) handler.Response {
		if err := m.requireAdmin(ctx); err != nil {
			return handler.JSONError(err)
		}

		id, err := uuid.Parse(req.ID)
		if err != nil {
			return handler.JSONError(handler.NewHTTPError(http.StatusBadRequest, "invalid_drill_id"))
		}

		if err := m.deps.Drills.Delete(ctx, id); err != nil {
			if errors.Is(err, drills.ErrDrillNotFound) {
				return handler.JSONError(handler.ErrNotFound)
			}
			return handler.JSONError(handler.ErrInternalServerError)
		}

		return handler.JSON(map[string]bool{"deleted": true})
	}
}
