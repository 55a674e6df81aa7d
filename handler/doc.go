// Package handler provides typed JSON HTTP handlers.
//
// A HandlerFunc receives a request struct populated by binders and returns a
// Response. Wrap turns it into an http.HandlerFunc:
//
//	type CheckoutRequest struct {
//		UserID string `path:"userID" json:"-"`
//		PlanID string `json:"plan_id"`
//	}
//
//	func (h *Handler) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
//		session, err := h.svc.CreateCheckoutSession(ctx, req.UserID, req.PlanID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(session, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	r.Post("/users/{userID}/checkout", handler.Wrap(h.checkout,
//		handler.WithBinders[CheckoutRequest](binder.Path(chi.URLParam), binder.JSON()),
//		handler.WithErrorHandler[CheckoutRequest](handler.NewErrorHandler(log)),
//	))
//
// # Responses
//
// Every JSON body uses the JSONResponse envelope with data, meta and error
// fields. JSONError maps HTTPError values to their status code and
// validator.ValidationErrors to 422 with per-field details; other errors are
// reported as an opaque 500.
//
// # Errors
//
// Binding failures are joined with ErrBadRequest. A handler returning nil
// triggers ErrNilResponse.
package handler
