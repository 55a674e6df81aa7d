package validator

import (
	"fmt"
	"math"
)

// RangeNum validates that a numeric value lies within [min, max].
func RangeNum[T Numeric](field string, value T, min T, max T) Rule {
	return Rule{
		Check: func() bool {
			return value >= min && value <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be between %v and %v", min, max),
			TranslationKey: "validation.range",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min,
				"max":   max,
			},
		},
	}
}

// Probability validates that a value is a probability in [0, 1].
func Probability(field string, value float64) Rule {
	return Rule{
		Check: func() bool {
			return !math.IsNaN(value) && value >= 0 && value <= 1
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a probability between 0 and 1",
			TranslationKey: "validation.probability",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// PositiveFinite validates that a float is finite and greater than zero.
func PositiveFinite(field string, value float64) Rule {
	return Rule{
		Check: func() bool {
			return !math.IsNaN(value) && !math.IsInf(value, 0) && value > 0
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a positive number",
			TranslationKey: "validation.positive",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
