package binder

import (
	"net/http"
	"reflect"
	"strings"
)

// Path creates a path parameter binder using the provided extractor.
// The extractor is called for each tagged struct field to get the raw
// path value (e.g. chi.URLParam).
//
// It supports struct tags for custom parameter names:
//   - `path:"name"` - binds to path parameter "name"
//   - `path:"-"` - skips the field
//
// Example with chi:
//
//	type GetDrillRequest struct {
//		Slug string `path:"slug"`
//	}
//
//	r.Get("/drills/{slug}", handler.Wrap(h,
//		handler.WithBinders(binder.Path(chi.URLParam)),
//	))
func Path(extractor func(r *http.Request, fieldName string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := make(map[string][]string)

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return bindToStruct(v, "path", values, ErrInvalidPath)
		}
		rt := rv.Elem().Type()
		if rt.Kind() != reflect.Struct {
			return bindToStruct(v, "path", values, ErrInvalidPath)
		}

		for i := 0; i < rt.NumField(); i++ {
			tag := rt.Field(i).Tag.Get("path")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			if raw := extractor(r, name); raw != "" {
				values[name] = []string{raw}
			}
		}

		return bindToStruct(v, "path", values, ErrInvalidPath)
	}
}
