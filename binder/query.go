package binder

import (
	"net/http"
)

// Query creates a query parameter binder function.
//
// It supports struct tags for custom parameter names:
//   - `query:"name"` - binds to query parameter "name"
//   - `query:"-"` - skips the field
//
// Supported types:
//   - Basic types: string, int, int64, uint, uint64, float32, float64, bool
//   - Slices of basic types for multi-value parameters
//   - Pointers for optional fields
//
// Example:
//
//	type ListDrillsRequest struct {
//		Sport      string `query:"sport"`
//		AgeGroup   string `query:"age_group"`
//		SkillLevel string `query:"skill_level"`
//		Search     string `query:"search"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
