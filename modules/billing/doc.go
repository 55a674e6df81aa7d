// Package billing exposes the entitlement service over HTTP for the bot front
// end and the payment provider.
//
// Routes:
//
//	POST /webhooks/{provider}                 signed provider events
//	GET  /v1/plans                            public catalog, ?lang= for price formatting
//	POST /v1/users/{userID}/checkout          {"plan_id"} -> hosted checkout URL
//	POST /v1/users/{userID}/activate          {"start_payload"} or {"plan_id"} after the return redirect
//	GET  /v1/users/{userID}/entitlement       evaluated access
//
// Webhooks answer 400 when the signature cannot be verified, 500 when the
// event could not be persisted (the provider retries), and 200 otherwise,
// including for events that were deliberately ignored.
//
//	r.Mount("/", billing.New(svc, billing.WithLogger(log)).Handle())
package billing
