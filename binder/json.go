package binder

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// JSON creates a JSON body binder function.
//
// Example:
//
//	handler := handler.HandlerFunc[handler.Context, CheckoutRequest](
//		func(ctx handler.Context, req CheckoutRequest) handler.Response {
//			// req is populated from the JSON body
//			return handler.JSON(link)
//		},
//	)
//
//	r.Post("/billing/checkout", handler.Wrap(handler,
//		handler.WithBinder(binder.JSON()),
//	))
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		// GET/HEAD/DELETE requests carry no body to decode.
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
			return ErrBinderNotApplicable
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}

		mediaType := contentType
		if idx := strings.Index(contentType, ";"); idx != -1 {
			mediaType = strings.TrimSpace(contentType[:idx])
		}
		if mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
		}

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields() // Strict mode

		if err := decoder.Decode(v); err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}

		// Ensure entire body was consumed
		var extra json.RawMessage
		if err := decoder.Decode(&extra); err != io.EOF {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}

		return nil
	}
}
