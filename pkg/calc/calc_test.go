package calc_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/calc"
	"github.com/dmitrymomot/moneylens/pkg/validator"
)

func TestStreakRisk(t *testing.T) {
	t.Parallel()

	t.Run("matches closed form", func(t *testing.T) {
		t.Parallel()
		res, err := calc.StreakRisk(calc.StreakRiskInput{Trials: 10, Length: 3})
		require.NoError(t, err)
		want := 1 - math.Pow(1-math.Pow(0.5, 3), 8)
		assert.InDelta(t, want, res.Probability, 1e-12)
		assert.InDelta(t, want*100, res.Percent, 1e-9)
	})

	t.Run("single flip", func(t *testing.T) {
		t.Parallel()
		res, err := calc.StreakRisk(calc.StreakRiskInput{Trials: 1, Length: 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res.Probability, 1e-12)
	})

	t.Run("streak longer than sequence is impossible", func(t *testing.T) {
		t.Parallel()
		res, err := calc.StreakRisk(calc.StreakRiskInput{Trials: 5, Length: 6})
		require.NoError(t, err)
		assert.Zero(t, res.Probability)
	})

	t.Run("rejects non-positive values", func(t *testing.T) {
		t.Parallel()
		_, err := calc.StreakRisk(calc.StreakRiskInput{Trials: 0, Length: -1})
		require.ErrorIs(t, err, calc.ErrInvalidInput)
		verrs := validator.ExtractValidationErrors(err)
		assert.True(t, verrs.Has("trials"))
		assert.True(t, verrs.Has("length"))
	})
}

func TestLossStreak(t *testing.T) {
	t.Parallel()

	res, err := calc.LossStreak(calc.LossStreakInput{Trials: 50, Length: 5, LossProb: 0.6})
	require.NoError(t, err)
	assert.InDelta(t, 1-math.Pow(1-math.Pow(0.6, 5), 46), res.Probability, 1e-12)

	certain, err := calc.LossStreak(calc.LossStreakInput{Trials: 3, Length: 3, LossProb: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, certain.Probability, 1e-12)

	_, err = calc.LossStreak(calc.LossStreakInput{Trials: 3, Length: 3, LossProb: 1.5})
	require.ErrorIs(t, err, calc.ErrInvalidInput)
}

func TestExpectedValue(t *testing.T) {
	t.Parallel()

	t.Run("fair coin", func(t *testing.T) {
		t.Parallel()
		res, err := calc.ExpectedValue(calc.BetInput{WinProb: 0.5, Payout: 1, Loss: 1, Rounds: 100})
		require.NoError(t, err)
		assert.InDelta(t, 0, res.EVPerRound, 1e-12)
		assert.InDelta(t, 1, res.VariancePerRound, 1e-12)
		assert.InDelta(t, 1, res.StdDevPerRound, 1e-12)
		assert.InDelta(t, 100, res.VarianceTotal, 1e-9)
		assert.InDelta(t, 10, res.StdDevTotal, 1e-9)
	})

	t.Run("favourable bet", func(t *testing.T) {
		t.Parallel()
		res, err := calc.ExpectedValue(calc.BetInput{WinProb: 0.6, Payout: 1, Loss: 1, Rounds: 100})
		require.NoError(t, err)
		assert.InDelta(t, 0.2, res.EVPerRound, 1e-12)
		assert.InDelta(t, 20, res.EVTotal, 1e-9)
		assert.InDelta(t, 0.96, res.VariancePerRound, 1e-12)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		_, err := calc.ExpectedValue(calc.BetInput{WinProb: -0.1, Payout: 0, Loss: math.NaN(), Rounds: 0})
		require.ErrorIs(t, err, calc.ErrInvalidInput)
		verrs := validator.ExtractValidationErrors(err)
		assert.ElementsMatch(t, []string{"win_prob", "payout", "loss", "rounds"}, verrs.Fields())
	})
}

func TestVariance(t *testing.T) {
	t.Parallel()

	res, err := calc.Variance(calc.BetInput{WinProb: 0.6, Payout: 1, Loss: 1, Rounds: 100})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(96)/20*100, res.CoefficientOfVariation, 1e-9)

	fair, err := calc.Variance(calc.BetInput{WinProb: 0.5, Payout: 1, Loss: 1, Rounds: 10})
	require.NoError(t, err)
	assert.True(t, math.IsInf(fair.CoefficientOfVariation, 1))
}

func TestRoulette(t *testing.T) {
	t.Parallel()

	for _, bet := range []calc.RouletteBet{
		calc.BetRed, calc.BetBlack, calc.BetEven, calc.BetOdd, calc.BetHigh,
		calc.BetLow, calc.BetStraight, calc.BetSplit, calc.BetStreet,
	} {
		t.Run(string(bet), func(t *testing.T) {
			t.Parallel()
			res, err := calc.Roulette(bet)
			require.NoError(t, err)
			assert.InDelta(t, -1.0/37, res.EVPerUnit, 1e-12)
			assert.InDelta(t, 100.0/37, res.HouseEdgePc, 1e-9)
		})
	}

	res, err := calc.Roulette("RED")
	require.NoError(t, err)
	assert.Equal(t, calc.BetRed, res.Bet)
	assert.InDelta(t, 18.0/37, res.WinProb, 1e-12)

	_, err = calc.Roulette("corner")
	require.ErrorIs(t, err, calc.ErrUnknownBet)
}

func TestBlackjackBust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int
		want  float64
	}{
		{4, 0},
		{11, 0},
		{12, 4.0 / 13},
		{16, 8.0 / 13},
		{20, 12.0 / 13},
	}
	for _, tt := range tests {
		res, err := calc.BlackjackBust(tt.total)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, res.Probability, 1e-12, "total %d", tt.total)
	}

	_, err := calc.BlackjackBust(3)
	require.ErrorIs(t, err, calc.ErrInvalidInput)
	_, err = calc.BlackjackBust(21)
	require.ErrorIs(t, err, calc.ErrInvalidInput)
}

func TestBankroll(t *testing.T) {
	t.Parallel()

	res, err := calc.Bankroll(calc.BankrollInput{Bankroll: 100, AvgBet: 10, HouseEdge: 0.05, Rounds: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.ExpectedLossPerRound, 1e-12)
	assert.InDelta(t, 50, res.ExpectedLossTotal, 1e-9)
	assert.InDelta(t, 50, res.BankrollAfter, 1e-9)
	assert.InDelta(t, 50, res.StdDevTotal, 1e-9)
	assert.InDelta(t, 1-math.Exp(-1), res.SurvivalProb, 1e-12)

	_, err = calc.Bankroll(calc.BankrollInput{Bankroll: 0, AvgBet: 10, HouseEdge: 2, Rounds: 1})
	require.ErrorIs(t, err, calc.ErrInvalidInput)
}

func TestMonteCarlo(t *testing.T) {
	t.Parallel()

	t.Run("summary statistics", func(t *testing.T) {
		t.Parallel()
		res, err := calc.MonteCarlo(10_000, rand.New(rand.NewPCG(1, 2)))
		require.NoError(t, err)

		assert.Equal(t, calc.WalkSteps, res.Steps)
		assert.InDelta(t, 0, res.Mean, 1)
		assert.InDelta(t, 100, res.Variance, 10)
		assert.InDelta(t, math.Sqrt(res.Variance), res.StdDev, 1e-12)
		assert.LessOrEqual(t, res.Min, res.P25)
		assert.LessOrEqual(t, res.P25, res.P50)
		assert.LessOrEqual(t, res.P50, res.P75)
		assert.LessOrEqual(t, res.P75, res.Max)
		// An even number of ±1 steps always lands on an even position.
		for _, v := range []int{res.Min, res.Max, res.P25, res.P50, res.P75} {
			assert.Zero(t, v%2)
		}
	})

	t.Run("deterministic with seeded source", func(t *testing.T) {
		t.Parallel()
		a, err := calc.MonteCarlo(500, rand.New(rand.NewPCG(7, 7)))
		require.NoError(t, err)
		b, err := calc.MonteCarlo(500, rand.New(rand.NewPCG(7, 7)))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("default source", func(t *testing.T) {
		t.Parallel()
		res, err := calc.MonteCarlo(calc.MinSimulations, nil)
		require.NoError(t, err)
		assert.Equal(t, calc.MinSimulations, res.Simulations)
	})

	t.Run("bounds", func(t *testing.T) {
		t.Parallel()
		_, err := calc.MonteCarlo(calc.MinSimulations-1, nil)
		require.ErrorIs(t, err, calc.ErrInvalidInput)
		_, err = calc.MonteCarlo(calc.MaxSimulations+1, nil)
		require.ErrorIs(t, err, calc.ErrInvalidInput)
	})
}
