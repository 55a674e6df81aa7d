package tools

import (
	"math"
	"math/rand/v2"

	"github.com/dmitrymomot/moneylens/pkg/calc"
)

func (m *Module) streakRisk(req calc.StreakRiskInput) (any, error) {
	return calc.StreakRisk(req)
}

func (m *Module) lossStreak(req calc.LossStreakInput) (any, error) {
	return calc.LossStreak(req)
}

func (m *Module) expectedValue(req calc.BetInput) (any, error) {
	return calc.ExpectedValue(req)
}

// VarianceView is calc.VarianceResult with an undefined coefficient of
// variation (zero expectation) rendered as null.
type VarianceView struct {
	calc.ExpectedValueResult
	CoefficientOfVariation *float64 `json:"coefficient_of_variation"`
}

func (m *Module) variance(req calc.BetInput) (any, error) {
	res, err := calc.Variance(req)
	if err != nil {
		return nil, err
	}
	view := VarianceView{ExpectedValueResult: res.ExpectedValueResult}
	if !math.IsInf(res.CoefficientOfVariation, 0) && !math.IsNaN(res.CoefficientOfVariation) {
		cv := res.CoefficientOfVariation
		view.CoefficientOfVariation = &cv
	}
	return view, nil
}

// MonteCarloRequest sets the number of simulated walks.
type MonteCarloRequest struct {
	Simulations int `json:"simulations"`
}

func (m *Module) monteCarlo(req MonteCarloRequest) (any, error) {
	var rng *rand.Rand
	if m.rng != nil {
		rng = m.rng()
	}
	return calc.MonteCarlo(req.Simulations, rng)
}

// RouletteRequest names the bet, e.g. "red" or "straight".
type RouletteRequest struct {
	Bet string `json:"bet"`
}

func (m *Module) roulette(req RouletteRequest) (any, error) {
	return calc.Roulette(calc.RouletteBet(req.Bet))
}

// BlackjackRequest holds the current hand total.
type BlackjackRequest struct {
	Total int `json:"total"`
}

func (m *Module) blackjack(req BlackjackRequest) (any, error) {
	return calc.BlackjackBust(req.Total)
}

func (m *Module) bankroll(req calc.BankrollInput) (any, error) {
	return calc.Bankroll(req)
}
