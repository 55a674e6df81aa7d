package calc

import (
	"errors"
	"math"

	"github.com/dmitrymomot/moneylens/pkg/validator"
)

// BetInput describes a repeated binary bet.
type BetInput struct {
	WinProb float64 `json:"win_prob"`
	Payout  float64 `json:"payout"`
	Loss    float64 `json:"loss"`
	Rounds  int     `json:"rounds"`
}

func (in BetInput) validate() error {
	if err := validator.Apply(
		validator.Probability("win_prob", in.WinProb),
		validator.PositiveFinite("payout", in.Payout),
		validator.PositiveFinite("loss", in.Loss),
		validator.RangeNum("rounds", in.Rounds, 1, MaxTrials),
	); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	return nil
}

// ExpectedValueResult holds per-round and aggregate moments of a bet.
type ExpectedValueResult struct {
	EVPerRound       float64 `json:"ev_per_round"`
	EVTotal          float64 `json:"ev_total"`
	VariancePerRound float64 `json:"variance_per_round"`
	StdDevPerRound   float64 `json:"stddev_per_round"`
	VarianceTotal    float64 `json:"variance_total"`
	StdDevTotal      float64 `json:"stddev_total"`
}

// ExpectedValue computes the mean and spread of Rounds independent bets.
func ExpectedValue(in BetInput) (ExpectedValueResult, error) {
	if err := in.validate(); err != nil {
		return ExpectedValueResult{}, err
	}
	return moments(in), nil
}

// VarianceResult extends the moments with the coefficient of variation of the total.
type VarianceResult struct {
	ExpectedValueResult
	// CoefficientOfVariation is the total standard deviation as a percentage of
	// the absolute expected total. Infinite when the expectation is zero.
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// Variance computes the variance model of Rounds independent bets.
func Variance(in BetInput) (VarianceResult, error) {
	if err := in.validate(); err != nil {
		return VarianceResult{}, err
	}
	m := moments(in)
	cv := math.Inf(1)
	if m.EVTotal != 0 {
		cv = m.StdDevTotal / math.Abs(m.EVTotal) * 100
	}
	return VarianceResult{ExpectedValueResult: m, CoefficientOfVariation: cv}, nil
}

func moments(in BetInput) ExpectedValueResult {
	p := in.WinProb
	mean := p*in.Payout - (1-p)*in.Loss
	v := p*math.Pow(in.Payout-mean, 2) + (1-p)*math.Pow(-in.Loss-mean, 2)
	rounds := float64(in.Rounds)
	return ExpectedValueResult{
		EVPerRound:       mean,
		EVTotal:          mean * rounds,
		VariancePerRound: v,
		StdDevPerRound:   math.Sqrt(v),
		VarianceTotal:    v * rounds,
		StdDevTotal:      math.Sqrt(v * rounds),
	}
}
