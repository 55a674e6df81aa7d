package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/moneylens/pkg/logger"
	"github.com/dmitrymomot/moneylens/pkg/requestid"
)

// NewErrorHandler returns an ErrorHandler that logs the error with request
// context and renders it as a JSON envelope. Client errors log at warn level.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		resp := JSONError(err)
		status := http.StatusInternalServerError
		if jr, ok := resp.(*jsonResponse); ok {
			status = jr.status
		}

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil && !errors.Is(renderErr, http.ErrHandlerTimeout) {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
