package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicelab/practicelab/modules/billing"
	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/pkg/logger"
	"github.com/practicelab/practicelab/subscription"
)

type fakeProvider struct {
	createCustomer func(ctx context.Context, req subscription.CustomerRequest) (string, error)
	checkoutLink   func(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error)
	portalLink     func(ctx context.Context, req subscription.PortalRequest) (*subscription.PortalLink, error)
	parseWebhook   func(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error)
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, req subscription.CustomerRequest) (string, error) {
	return f.createCustomer(ctx, req)
}

func (f *fakeProvider) CreateCheckoutLink(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	return f.checkoutLink(ctx, req)
}

func (f *fakeProvider) GetCustomerPortalLink(ctx context.Context, req subscription.PortalRequest) (*subscription.PortalLink, error) {
	return f.portalLink(ctx, req)
}

func (f *fakeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error) {
	return f.parseWebhook(ctx, payload, signature)
}

// failingStore simulates a persistence outage.
type failingStore struct{}

func (failingStore) Get(context.Context, uuid.UUID) (*subscription.Customer, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) SetBillingCustomerID(context.Context, uuid.UUID, string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingStore) SaveEntitlement(context.Context, uuid.UUID, subscription.Entitlement) error {
	return errors.New("connection refused")
}

func testCatalog(t *testing.T) *subscription.Catalog {
	t.Helper()

	catalog, err := subscription.NewCatalog(subscription.CatalogConfig{
		Tier1MonthlyPriceID: "price_t1_m",
		Tier1YearlyPriceID:  "price_t1_y",
		Tier2MonthlyPriceID: "price_t2_m",
		Tier2YearlyPriceID:  "price_t2_y",
		Tier3MonthlyPriceID: "price_t3_m",
		Tier3YearlyPriceID:  "price_t3_y",
	})
	require.NoError(t, err)
	return catalog
}

func newRouter(t *testing.T, provider subscription.BillingProvider, store subscription.CustomerStore) http.Handler {
	t.Helper()

	svc := subscription.NewService(testCatalog(t), provider, store)
	return billing.Router(billing.Config{
		SignatureHeader: "Stripe-Signature",
		PricingPath:     "/pricing",
		LoginPath:       "/auth/login",
	}, svc, logger.New())
}

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	identity := auth.Identity{UserID: userID, Email: "coach@example.com"}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	newStore := func() *subscription.MemStore {
		store := subscription.NewMemStore()
		store.Put(subscription.Customer{UserID: userID, BillingCustomerID: "cus_1"})
		return store
	}

	t.Run("returns checkout url", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{
			checkoutLink: func(_ context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
				assert.Equal(t, "price_t2_y", req.PriceID)
				return &subscription.CheckoutLink{URL: "https://checkout.example.com/s1"}, nil
			},
		}
		router := newRouter(t, provider, newStore())

		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"tier":"tier2","billing":"yearly"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		require.Equal(t, http.StatusOK, w.Code)

		// The checkout body is top-level, not wrapped in the data envelope.
		var body struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "https://checkout.example.com/s1", body.URL)
		assert.NotContains(t, w.Body.String(), `"data"`)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, &fakeProvider{}, newStore())

		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"tier":"tier1","billing":"monthly"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, &fakeProvider{}, newStore())

		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"tier":"tier9","billing":"monthly"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, &fakeProvider{}, newStore())

		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"tier":"tier1"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, &fakeProvider{}, newStore())

		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{broken`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPortalEndpoint(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("redirects to portal", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemStore()
		store.Put(subscription.Customer{UserID: userID, BillingCustomerID: "cus_1"})

		provider := &fakeProvider{
			portalLink: func(context.Context, subscription.PortalRequest) (*subscription.PortalLink, error) {
				return &subscription.PortalLink{URL: "https://portal.example.com/p1"}, nil
			},
		}
		router := newRouter(t, provider, store)

		r := httptest.NewRequest("GET", "/portal", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://portal.example.com/p1", w.Header().Get("Location"))
	})

	t.Run("no billing account falls back to pricing", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemStore()
		store.Put(subscription.Customer{UserID: userID})

		router := newRouter(t, &fakeProvider{}, store)

		r := httptest.NewRequest("GET", "/portal", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(r, userID))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/pricing", w.Header().Get("Location"))
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, &fakeProvider{}, subscription.NewMemStore())

		r := httptest.NewRequest("GET", "/portal", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("acknowledges processed event", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemStore()
		store.Put(subscription.Customer{UserID: userID, BillingCustomerID: "cus_1"})

		provider := &fakeProvider{
			parseWebhook: func(_ context.Context, _ []byte, signature string) (*subscription.WebhookEvent, error) {
				assert.Equal(t, "t=1,v1=abc", signature)
				return &subscription.WebhookEvent{
					Kind:    subscription.EventSubscriptionCreated,
					UserID:  userID.String(),
					PriceID: "price_t1_m",
					Status:  "active",
				}, nil
			},
		}
		router := newRouter(t, provider, store)

		r := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{"type":"customer.subscription.created"}`))
		r.Header.Set("Stripe-Signature", "t=1,v1=abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())

		stored, err := store.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.TierSingleSport, stored.Entitlement.Tier)
	})

	t.Run("invalid signature is a client error", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{
			parseWebhook: func(context.Context, []byte, string) (*subscription.WebhookEvent, error) {
				return nil, subscription.ErrInvalidSignature
			},
		}
		router := newRouter(t, provider, subscription.NewMemStore())

		r := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("persistence failure is a server error", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{
			parseWebhook: func(context.Context, []byte, string) (*subscription.WebhookEvent, error) {
				return &subscription.WebhookEvent{
					Kind:    subscription.EventSubscriptionUpdated,
					UserID:  userID.String(),
					PriceID: "price_t1_m",
					Status:  "active",
				}, nil
			},
		}
		router := newRouter(t, provider, failingStore{})

		r := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unprocessable event is still acknowledged", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{
			parseWebhook: func(context.Context, []byte, string) (*subscription.WebhookEvent, error) {
				return &subscription.WebhookEvent{
					Kind:    subscription.EventSubscriptionUpdated,
					UserID:  userID.String(),
					PriceID: "price_unknown",
					Status:  "active",
				}, nil
			},
		}
		router := newRouter(t, provider, subscription.NewMemStore())

		r := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})
}
