// Package validator builds declarative field checks.
//
// A Rule pairs a deferred Check with the ValidationError it reports. Apply
// runs a set of rules and returns every failure at once as ValidationErrors,
// which implements error and survives errors.Join, so callers can wrap it
// with a sentinel and still recover the per-field details:
//
//	err := validator.Apply(
//		validator.RequiredString("plan_id", req.PlanID),
//		validator.Probability("win_prob", in.WinProb),
//		validator.RangeNum("rounds", in.Rounds, 1, 1_000_000),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//		for _, field := range verrs.Fields() {
//			_ = verrs.Get(field)
//		}
//	}
//
// Rules hold no state and are safe to build from any goroutine.
package validator
