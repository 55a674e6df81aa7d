// Package environment names the deployment environment the service runs in
// and carries it through request contexts.
//
// Parse normalizes APP_ENV values, including the short aliases "dev",
// "stage" and "prod". Unknown values fall back to Development so a missing
// variable never switches on production behaviour.
//
//	env := environment.Parse(cfg.Env)
//	r.Use(environment.Middleware(env))
//
//	if environment.IsProduction(ctx) {
//	    // production-only behaviour
//	}
package environment
