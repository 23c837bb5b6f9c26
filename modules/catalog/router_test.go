package catalog_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicelab/practicelab/drills"
	"github.com/practicelab/practicelab/modules/catalog"
	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/pkg/logger"
	"github.com/practicelab/practicelab/subscription"
)

const adminEmail = "admin@practicelab.test"

type fixture struct {
	router    http.Handler
	drills    *drills.MemStore
	customers *subscription.MemStore
	drillIDs  map[string]uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	drillStore := drills.NewMemStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make(map[string]uuid.UUID)

	for i, spec := range []struct {
		slug  string
		sport drills.Sport
	}{
		{"tee-work-ladder", drills.SportBaseball},
		{"crossover-dribble-ladder", drills.SportBasketball},
		{"wrist-shot-basics", drills.SportHockey},
		{"cradle-and-go", drills.SportLacrosse},
	} {
		id := uuid.New()
		ids[spec.slug] = id
		drillStore.Put(drills.Drill{
			ID:           id,
			Title:        spec.slug,
			Slug:         spec.slug,
			Sport:        spec.sport,
			SkillLevel:   drills.SkillBeginner,
			Goal:         "goal for " + spec.slug,
			Instructions: []string{"step one", "step two"},
			Published:    true,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
	}

	customers := subscription.NewMemStore()

	tiers, err := subscription.NewCatalog(subscription.CatalogConfig{
		Tier1MonthlyPriceID: "price_t1_m",
		Tier1YearlyPriceID:  "price_t1_y",
		Tier2MonthlyPriceID: "price_t2_m",
		Tier2YearlyPriceID:  "price_t2_y",
		Tier3MonthlyPriceID: "price_t3_m",
		Tier3YearlyPriceID:  "price_t3_y",
	})
	require.NoError(t, err)

	router := catalog.Router(
		catalog.Config{AdminEmail: adminEmail, FreePreview: 2},
		catalog.Deps{
			Drills:    drillStore,
			Customers: customers,
			Tiers:     tiers,
			Log:       logger.New(),
		},
	)

	return &fixture{router: router, drills: drillStore, customers: customers, drillIDs: ids}
}

func (f *fixture) subscriber(t *testing.T) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	f.customers.Put(subscription.Customer{
		UserID: userID,
		Email:  "subscriber@example.com",
		Entitlement: subscription.Entitlement{
			Tier:   subscription.TierAllSports,
			Status: subscription.StatusActive,
		},
	})
	return userID
}

func withIdentity(r *http.Request, userID uuid.UUID, email string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID, Email: email}))
}

type listedDrill struct {
	Slug         string   `json:"slug"`
	Instructions []string `json:"instructions"`
	Locked       bool     `json:"locked"`
}

func decodeList(t *testing.T, body []byte) []listedDrill {
	t.Helper()

	var resp struct {
		Data []listedDrill `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data
}

func TestListDrills(t *testing.T) {
	t.Parallel()

	t.Run("anonymous gets free preview then teasers", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		r := httptest.NewRequest("GET", "/drills", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		list := decodeList(t, w.Body.Bytes())
		require.Len(t, list, 4)

		// Newest first, so the two most recent drills are the open preview.
		assert.Equal(t, "cradle-and-go", list[0].Slug)
		assert.Equal(t, "wrist-shot-basics", list[1].Slug)
		assert.Equal(t, "tee-work-ladder", list[3].Slug)

		assert.False(t, list[0].Locked)
		assert.False(t, list[1].Locked)
		assert.True(t, list[2].Locked)
		assert.True(t, list[3].Locked)

		assert.NotEmpty(t, list[0].Instructions)
		assert.Empty(t, list[2].Instructions)
	})

	t.Run("active subscriber sees everything", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		userID := f.subscriber(t)

		r := withIdentity(httptest.NewRequest("GET", "/drills", nil), userID, "subscriber@example.com")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		for _, item := range decodeList(t, w.Body.Bytes()) {
			assert.False(t, item.Locked, item.Slug)
			assert.NotEmpty(t, item.Instructions, item.Slug)
		}
	})

	t.Run("sport filter applies before gating", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		r := httptest.NewRequest("GET", "/drills?sport=hockey", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		list := decodeList(t, w.Body.Bytes())
		require.Len(t, list, 1)
		assert.Equal(t, "wrist-shot-basics", list[0].Slug)
		// Position 0 within the filtered listing is a free preview.
		assert.False(t, list[0].Locked)
	})
}

func TestGetDrill(t *testing.T) {
	t.Parallel()

	t.Run("free preview position is open", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		r := httptest.NewRequest("GET", "/drills/cradle-and-go", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data listedDrill `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Locked)
		assert.NotEmpty(t, resp.Data.Instructions)
	})

	t.Run("gated position is stripped for anonymous", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		r := httptest.NewRequest("GET", "/drills/tee-work-ladder", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data listedDrill `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Locked)
		assert.Empty(t, resp.Data.Instructions)
	})

	t.Run("unknown slug is 404", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		r := httptest.NewRequest("GET", "/drills/nope", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPricing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := httptest.NewRequest("GET", "/pricing", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []subscription.TierInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, subscription.TierSingleSport, resp.Data[0].Tier)
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("admin can update", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := f.drillIDs["wrist-shot-basics"]

		body := `{"title":"Wrist Shot Fundamentals","published":false}`
		r := httptest.NewRequest("PATCH", fmt.Sprintf("/admin/drills/%s", id), strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, withIdentity(r, uuid.New(), adminEmail))

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data drills.Drill `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Wrist Shot Fundamentals", resp.Data.Title)
		assert.False(t, resp.Data.Published)
	})

	t.Run("admin can delete", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := f.drillIDs["cradle-and-go"]

		r := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/drills/%s", id), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, withIdentity(r, uuid.New(), adminEmail))

		require.Equal(t, http.StatusOK, w.Code)

		_, err := f.drills.GetBySlug(r.Context(), "cradle-and-go")
		require.ErrorIs(t, err, drills.ErrDrillNotFound)
	})

	t.Run("non-admin identity is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := f.drillIDs["wrist-shot-basics"]

		r := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/drills/%s", id), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, withIdentity(r, uuid.New(), "coach@example.com"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := f.drillIDs["wrist-shot-basics"]

		r := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/drills/%s", id), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("near-match admin email is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := f.drillIDs["wrist-shot-basics"]

		r := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/drills/%s", id), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, withIdentity(r, uuid.New(), strings.ToUpper(adminEmail)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
