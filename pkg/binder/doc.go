// Package binder populates request structs from JSON bodies, path parameters
// and query strings.
//
// Each binder processes only its own struct tags, so several can be chained:
//
//	type ActivateRequest struct {
//		UserID       string `path:"userID" json:"-"`
//		StartPayload string `json:"start_payload"`
//	}
//
//	handler.Wrap(h.activate, handler.WithBinders[ActivateRequest](
//		binder.Path(chi.URLParam),
//		binder.JSON(),
//	))
//
// JSON decoding is strict: unknown fields, trailing data and bodies over
// DefaultMaxJSONSize are rejected. JSON returns ErrBinderNotApplicable for
// methods without a body so handlers can share request types across verbs.
package binder
