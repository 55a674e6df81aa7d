// Package requestid attaches a correlation id to every HTTP request.
//
// The middleware reuses a well-formed id sent by the caller (X-Request-ID, or
// any additional header passed through WithHeaders such as the bot front
// end's update id) and generates a UUID otherwise. The id is stored in the
// request context, echoed in the X-Request-ID response header and, through
// LoggerExtractor, added to every log record written with that context.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware(requestid.WithHeaders("X-Update-ID")))
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
// Invalid ids are silently replaced; the package never returns errors.
package requestid
