// Package calc implements the probability calculators offered to premium users.
//
// Every calculator is a pure function: it validates its input with the validator
// package and returns a result struct ready to be serialized. No calculator keeps
// state between calls, so they are safe for concurrent use.
//
// # Calculators
//
//   - StreakRisk: chance of at least one run of L identical outcomes in N fair trials.
//   - LossStreak: the same for an arbitrary per-trial loss probability.
//   - ExpectedValue: per-round and total expectation, variance and standard deviation.
//   - Variance: variance model with coefficient of variation.
//   - Roulette: expectation of common European roulette bets.
//   - BlackjackBust: chance of busting on the next card from a given hand total.
//   - Bankroll: simplified bankroll survival estimate.
//   - MonteCarlo: fixed-length ±1 random walk simulation with summary statistics.
//
// # Usage
//
//	res, err := calc.StreakRisk(calc.StreakRiskInput{Trials: 100, Length: 7})
//	if err != nil {
//	    // err is a validator.ValidationErrors value
//	}
//	fmt.Printf("%.2f%%\n", res.Percent)
package calc
