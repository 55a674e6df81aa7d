// Package tools serves the premium calculators behind the access gate.
//
// Every route lives under Pattern (/v1/users/{userID}/tools). All but
// /roulette run the entitlement check on each request, so an expired grant is
// denied on the first call after its end. Denied users get 402 with a pointer
// to the plan catalog.
//
//	r.Mount(tools.Pattern, tools.New(svc, tools.WithLogger(log)).Handle())
//
// Inputs are JSON bodies; invalid values are answered with 422 and per-field
// details from the calculator validation.
package tools
