package calc

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/dmitrymomot/moneylens/pkg/validator"
)

const (
	MinSimulations = 100
	MaxSimulations = 1_000_000
	// WalkSteps is the number of ±1 steps in every simulated path.
	WalkSteps = 100
)

// MonteCarloResult summarizes the final positions of all simulated walks.
type MonteCarloResult struct {
	Simulations int     `json:"simulations"`
	Steps       int     `json:"steps"`
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	StdDev      float64 `json:"stddev"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	P25         int     `json:"p25"`
	P50         int     `json:"p50"`
	P75         int     `json:"p75"`
}

// MonteCarlo runs n fair ±1 random walks of WalkSteps steps. A nil rng uses
// the package-level source.
func MonteCarlo(n int, rng *rand.Rand) (MonteCarloResult, error) {
	if err := validator.Apply(
		validator.RangeNum("simulations", n, MinSimulations, MaxSimulations),
	); err != nil {
		return MonteCarloResult{}, errors.Join(ErrInvalidInput, err)
	}

	coin := rand.IntN
	if rng != nil {
		coin = rng.IntN
	}

	finals := make([]int, n)
	var sum float64
	for i := range finals {
		pos := 0
		for range WalkSteps {
			if coin(2) == 0 {
				pos--
			} else {
				pos++
			}
		}
		finals[i] = pos
		sum += float64(pos)
	}

	mean := sum / float64(n)
	var sq float64
	for _, v := range finals {
		d := float64(v) - mean
		sq += d * d
	}
	variance := sq / float64(n)

	slices.Sort(finals)
	return MonteCarloResult{
		Simulations: n,
		Steps:       WalkSteps,
		Mean:        mean,
		Variance:    variance,
		StdDev:      math.Sqrt(variance),
		Min:         finals[0],
		Max:         finals[n-1],
		P25:         percentile(finals, 0.25),
		P50:         percentile(finals, 0.50),
		P75:         percentile(finals, 0.75),
	}, nil
}

// percentile picks sorted[floor(n*q)] without interpolation.
func percentile(sorted []int, q float64) int {
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
