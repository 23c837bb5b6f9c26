package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/practicelab/practicelab/binder"
	"github.com/practicelab/practicelab/handler"
	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/subscription"
)

const maxWebhookBodySize = 1 << 20 // provider events are small; cap the body read

// Config carries the billing module's HTTP-level settings.
type Config struct {
	SignatureHeader string `env:"BILLING_SIGNATURE_HEADER" envDefault:"Stripe-Signature"`
	PricingPath     string `env:"BILLING_PRICING_PATH" envDefault:"/pricing"`
	LoginPath       string `env:"BILLING_LOGIN_PATH" envDefault:"/auth/login"`
}

// Router mounts the checkout, portal, and webhook endpoints.
//
//	r.Mount("/billing", billing.Router(cfg, svc, log))
func Router(cfg Config, svc *subscription.Service, log *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Post("/checkout", handler.Wrap(
		checkoutHandler(svc),
		handler.WithBinder[handler.Context, checkoutRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, checkoutRequest](checkoutErrorHandler),
	))
	r.Get("/portal", handler.Wrap(portalHandler(cfg, svc)))
	r.Post("/webhook", webhookHandler(cfg, svc, log))

	return r
}

type checkoutRequest struct {
	Tier    string `json:"tier"`
	Billing string `json:"billing"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// checkoutHandler resolves the authenticated user and opens a hosted
// checkout session for the requested plan.
func checkoutHandler(svc *subscription.Service) handler.HandlerFunc[handler.Context, checkoutRequest] {
	return func(ctx handler.Context, req checkoutRequest) handler.Response {
		identity, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return handler.JSONError(handler.ErrUnauthorized)
		}

		if req.Tier == "" || req.Billing == "" {
			return handler.JSONError(handler.NewHTTPError(http.StatusBadRequest, "missing_plan_fields"))
		}

		link, err := svc.CreateCheckoutLink(ctx,
			identity.UserID,
			subscription.Tier(req.Tier),
			subscription.Interval(req.Billing),
		)
		if err != nil {
			return handler.JSONError(checkoutError(err))
		}

		// Top-level body, not the envelope: checkout clients read {"url": ...}.
		return handler.JSONRaw(checkoutResponse{URL: link.URL})
	}
}

// checkoutError maps service failures onto the endpoint's status contract:
// 400 for an unknown plan, 401 for a missing actor, 500 otherwise.
func checkoutError(err error) error {
	switch {
	case errors.Is(err, subscription.ErrInvalidPlan):
		return handler.NewHTTPError(http.StatusBadRequest, "invalid_plan")
	case errors.Is(err, subscription.ErrUnauthenticated):
		return handler.ErrUnauthorized
	default:
		return handler.ErrInternalServerError
	}
}

// checkoutErrorHandler keeps bind failures on the endpoint's 400 contract.
func checkoutErrorHandler(ctx handler.Context, err error) {
	var httpErr handler.HTTPError
	if !errors.As(err, &httpErr) {
		err = handler.NewHTTPError(http.StatusBadRequest, "malformed_request")
	}
	_ = handler.JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// portalHandler redirects to the provider's self-service portal, degrading
// to the pricing page when no billing customer exists and to login for
// anonymous callers.
func portalHandler(cfg Config, svc *subscription.Service) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		identity, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return handler.Redirect(cfg.LoginPath)
		}

		link, err := svc.GetCustomerPortalLink(ctx, identity.UserID)
		switch {
		case errors.Is(err, subscription.ErrNoBillingAccount):
			return handler.Redirect(cfg.PricingPath)
		case errors.Is(err, subscription.ErrUnauthenticated):
			return handler.Redirect(cfg.LoginPath)
		case err != nil:
			return handler.JSONError(handler.ErrInternalServerError)
		}

		return handler.Redirect(link.URL)
	}
}

// webhookHandler feeds raw provider events to the reconciler. The body
// must be read before any parsing: the signature is computed over the
// exact payload bytes.
func webhookHandler(cfg Config, svc *subscription.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
		if err != nil {
			log.WarnContext(r.Context(), "failed to read webhook body", slog.Any("error", err))
			_ = handler.JSONError(handler.ErrBadRequest).Render(w, r)
			return
		}

		err = svc.HandleWebhook(r.Context(), payload, r.Header.Get(cfg.SignatureHeader))
		switch {
		case errors.Is(err, subscription.ErrInvalidSignature):
			_ = handler.JSONError(handler.NewHTTPError(http.StatusBadRequest, "invalid_signature")).Render(w, r)
		case err != nil:
			_ = handler.JSONError(handler.ErrInternalServerError).Render(w, r)
		default:
			_ = handler.JSONRaw(map[string]bool{"received": true}).Render(w, r)
		}
	}
}
