package calc

import (
	"errors"
	"math"

	"github.com/dmitrymomot/moneylens/pkg/validator"
)

// MaxTrials bounds the number of trials accepted by the streak calculators.
const MaxTrials = 1_000_000

// StreakRiskInput describes a sequence of fair binary trials.
type StreakRiskInput struct {
	Trials int `json:"trials"`
	Length int `json:"length"`
}

// StreakResult is the probability of seeing at least one streak.
type StreakResult struct {
	Trials      int     `json:"trials"`
	Length      int     `json:"length"`
	Probability float64 `json:"probability"`
	Percent     float64 `json:"percent"`
}

// StreakRisk estimates the chance of at least one run of Length identical
// outcomes in Trials fair coin flips.
func StreakRisk(in StreakRiskInput) (StreakResult, error) {
	if err := validator.Apply(
		validator.RangeNum("trials", in.Trials, 1, MaxTrials),
		validator.RangeNum("length", in.Length, 1, MaxTrials),
	); err != nil {
		return StreakResult{}, errors.Join(ErrInvalidInput, err)
	}

	p := streakProbability(0.5, in.Trials, in.Length)
	return StreakResult{
		Trials:      in.Trials,
		Length:      in.Length,
		Probability: p,
		Percent:     p * 100,
	}, nil
}

// LossStreakInput describes trials with an arbitrary per-trial loss probability.
type LossStreakInput struct {
	Trials   int     `json:"trials"`
	Length   int     `json:"length"`
	LossProb float64 `json:"loss_prob"`
}

// LossStreak estimates the chance of at least one run of Length consecutive
// losses in Trials rounds.
func LossStreak(in LossStreakInput) (StreakResult, error) {
	if err := validator.Apply(
		validator.RangeNum("trials", in.Trials, 1, MaxTrials),
		validator.RangeNum("length", in.Length, 1, MaxTrials),
		validator.Probability("loss_prob", in.LossProb),
	); err != nil {
		return StreakResult{}, errors.Join(ErrInvalidInput, err)
	}

	p := streakProbability(in.LossProb, in.Trials, in.Length)
	return StreakResult{
		Trials:      in.Trials,
		Length:      in.Length,
		Probability: p,
		Percent:     p * 100,
	}, nil
}

// streakProbability uses the approximation 1-(1-p^L)^(N-L+1).
// A streak longer than the sequence is impossible.
func streakProbability(p float64, trials, length int) float64 {
	if length > trials {
		return 0
	}
	windows := float64(trials - length + 1)
	q := math.Pow(p, float64(length))
	return clamp01(1 - math.Pow(1-q, windows))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
