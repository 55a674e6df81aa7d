package calc

import "errors"

var (
	ErrInvalidInput = errors.New("invalid calculator input")
	ErrUnknownBet   = errors.New("unknown roulette bet")
)
