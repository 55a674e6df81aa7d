package calc

import (
	"errors"
	"math"
	"strings"

	"github.com/dmitrymomot/moneylens/pkg/validator"
)

// RouletteBet names a European roulette bet.
type RouletteBet string

const (
	BetRed      RouletteBet = "red"
	BetBlack    RouletteBet = "black"
	BetEven     RouletteBet = "even"
	BetOdd      RouletteBet = "odd"
	BetHigh     RouletteBet = "high"
	BetLow      RouletteBet = "low"
	BetStraight RouletteBet = "straight"
	BetSplit    RouletteBet = "split"
	BetStreet   RouletteBet = "street"
)

const roulettePockets = 37

type rouletteOdds struct {
	winning int
	payout  float64
}

var rouletteTable = map[RouletteBet]rouletteOdds{
	BetRed:      {18, 1},
	BetBlack:    {18, 1},
	BetEven:     {18, 1},
	BetOdd:      {18, 1},
	BetHigh:     {18, 1},
	BetLow:      {18, 1},
	BetStraight: {1, 35},
	BetSplit:    {2, 17},
	BetStreet:   {3, 11},
}

// RouletteResult describes a single-unit roulette bet.
type RouletteResult struct {
	Bet         RouletteBet `json:"bet"`
	WinProb     float64     `json:"win_prob"`
	Payout      float64     `json:"payout"`
	EVPerUnit   float64     `json:"ev_per_unit"`
	HouseEdgePc float64     `json:"house_edge_percent"`
}

// Roulette returns the odds and expectation of a one-unit bet on a single-zero wheel.
func Roulette(bet RouletteBet) (RouletteResult, error) {
	odds, ok := rouletteTable[RouletteBet(strings.ToLower(string(bet)))]
	if !ok {
		return RouletteResult{}, errors.Join(ErrInvalidInput, ErrUnknownBet)
	}
	p := float64(odds.winning) / roulettePockets
	ev := p*odds.payout - (1 - p)
	return RouletteResult{
		Bet:         RouletteBet(strings.ToLower(string(bet))),
		WinProb:     p,
		Payout:      odds.payout,
		EVPerUnit:   ev,
		HouseEdgePc: -ev * 100,
	}, nil
}

// Card values of one suit; face cards count as ten and the ace as one.
var cardValues = [...]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10, 10}

// BlackjackResult is the chance of exceeding 21 with one more card.
type BlackjackResult struct {
	Total       int     `json:"total"`
	Probability float64 `json:"probability"`
	Percent     float64 `json:"percent"`
}

// BlackjackBust returns the chance that the next card busts a hard total.
// Cards are drawn from an infinite deck.
func BlackjackBust(total int) (BlackjackResult, error) {
	if err := validator.Apply(validator.RangeNum("total", total, 4, 20)); err != nil {
		return BlackjackResult{}, errors.Join(ErrInvalidInput, err)
	}
	needed := 22 - total
	busting := 0
	for _, v := range cardValues {
		if v >= needed {
			busting++
		}
	}
	p := float64(busting) / float64(len(cardValues))
	return BlackjackResult{Total: total, Probability: p, Percent: p * 100}, nil
}

// BankrollInput describes a flat-betting session.
type BankrollInput struct {
	Bankroll  float64 `json:"bankroll"`
	AvgBet    float64 `json:"avg_bet"`
	HouseEdge float64 `json:"house_edge"`
	Rounds    int     `json:"rounds"`
}

// BankrollResult is a rough survival estimate for a session.
type BankrollResult struct {
	ExpectedLossPerRound float64 `json:"expected_loss_per_round"`
	ExpectedLossTotal    float64 `json:"expected_loss_total"`
	BankrollAfter        float64 `json:"bankroll_after"`
	StdDevTotal          float64 `json:"stddev_total"`
	SurvivalProb         float64 `json:"survival_prob"`
}

// Bankroll estimates expected loss and a heuristic survival probability,
// modelling each bet with a variance of a quarter of the squared stake.
func Bankroll(in BankrollInput) (BankrollResult, error) {
	if err := validator.Apply(
		validator.PositiveFinite("bankroll", in.Bankroll),
		validator.PositiveFinite("avg_bet", in.AvgBet),
		validator.Probability("house_edge", in.HouseEdge),
		validator.RangeNum("rounds", in.Rounds, 1, MaxTrials),
	); err != nil {
		return BankrollResult{}, errors.Join(ErrInvalidInput, err)
	}

	rounds := float64(in.Rounds)
	lossPerRound := in.AvgBet * in.HouseEdge
	total := lossPerRound * rounds
	sd := math.Sqrt(in.AvgBet * in.AvgBet * 0.25 * rounds)
	z := in.Bankroll / sd

	return BankrollResult{
		ExpectedLossPerRound: lossPerRound,
		ExpectedLossTotal:    total,
		BankrollAfter:        in.Bankroll - total,
		StdDevTotal:          sd,
		SurvivalProb:         clamp01(1 - math.Exp(-z*0.5)),
	}, nil
}
