// Package payout computes winnings. Every function is pure: the caller
// supplies the draw and the rule snapshot it captured.
package payout

import (
	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/rules"
)

type Outcome string

const (
	Win  Outcome = "WIN"
	Lose Outcome = "LOSE"
	Push Outcome = "PUSH"
)

// Result is a settled wager. Payout is the full amount credited back,
// stake included; it is zero on a loss and equals the stake on a push.
type Result struct {
	Outcome    Outcome         `json:"outcome"`
	Payout     money.Minor     `json:"payout"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Natural    bool            `json:"natural,omitempty"`
}

func lose() Result {
	return Result{Outcome: Lose, Multiplier: decimal.Zero}
}

func win(stake money.Minor, mult decimal.Decimal) Result {
	return Result{Outcome: Win, Payout: stake.MulFloor(mult), Multiplier: mult}
}

// CoinFlip settles a coin flip.
func CoinFlip(stake money.Minor, choice, outcome coin.Side, snap *rules.Snapshot) Result {
	if choice != outcome {
		return lose()
	}

	return win(stake, snap.Multiplier(rules.CoinFlipPayout))
}

// Roulette settles a roulette bet against the winning pocket.
func Roulette(stake money.Minor, bet roulette.Bet, pocket roulette.Pocket, snap *rules.Snapshot) Result {
	if !bet.Wins(pocket) {
		return lose()
	}

	var rt rules.RuleType

	switch bet.Type {
	case roulette.BetNumber:
		rt = rules.RouletteNumberPayout
	case roulette.BetColor:
		rt = rules.RouletteColorPayout
	default:
		rt = rules.RouletteParityPayout
	}

	return win(stake, snap.Multiplier(rt))
}

// Blackjack settles finished hands.
func Blackjack(stake money.Minor, player, dealer cards.Hand, snap *rules.Snapshot) Result {
	pv, dv := player.Value(), dealer.Value()
	normal := snap.Multiplier(rules.BlackjackNormalPayout)

	switch {
	case player.IsBust():
		return lose()
	case player.IsNatural() && dealer.IsNatural():
		return Result{Outcome: Push, Payout: stake, Multiplier: decimal.NewFromInt(1), Natural: true}
	case player.IsNatural():
		r := win(stake, snap.Multiplier(rules.BlackjackPayout))
		r.Natural = true

		return r
	case dealer.IsBust():
		return win(stake, normal)
	case pv > dv:
		return win(stake, normal)
	case pv < dv:
		return lose()
	default:
		return Result{Outcome: Push, Payout: stake, Multiplier: decimal.NewFromInt(1)}
	}
}
