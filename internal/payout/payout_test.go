package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/rules"
)

func snapshot(kv map[rules.RuleType]string) *rules.Snapshot {
	rs := rules.RuleSet{ID: 1}
	for k, v := range kv {
		rs.Rules = append(rs.Rules, rules.Rule{RuleSetID: 1, Type: k, Param: decimal.RequireFromString(v)})
	}

	return rules.NewSnapshot(rs)
}

func hand(rs ...cards.Rank) cards.Hand {
	h := make(cards.Hand, 0, len(rs))
	for _, r := range rs {
		h = append(h, cards.Card{Rank: r, Suit: cards.Hearts})
	}

	return h
}

func TestCoinFlip(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[rules.RuleType]string{rules.CoinFlipPayout: "1.95"})

	got := CoinFlip(1000, coin.Heads, coin.Heads, snap)
	assert.Equal(t, Win, got.Outcome)
	assert.Equal(t, money.Minor(1950), got.Payout)
	// Net gain over a 10.00 stake is 9.50.
	assert.Equal(t, money.Minor(950), got.Payout-1000)

	got = CoinFlip(1000, coin.Heads, coin.Tails, snap)
	assert.Equal(t, Lose, got.Outcome)
	assert.Zero(t, got.Payout)
}

func TestCoinFlip_FloorsToCent(t *testing.T) {
	t.Parallel()

	got := CoinFlip(33, coin.Tails, coin.Tails, rules.Defaults())
	assert.Equal(t, money.Minor(64), got.Payout)
}

func TestRoulette(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[rules.RuleType]string{
		rules.RouletteNumberPayout: "35",
		rules.RouletteColorPayout:  "2",
		rules.RouletteParityPayout: "2",
	})

	tests := []struct {
		name    string
		bet     roulette.Bet
		pocket  roulette.Pocket
		outcome Outcome
		payout  money.Minor
	}{
		{"number hit", roulette.Bet{Type: roulette.BetNumber, Number: 17}, 17, Win, 17500},
		{"number miss", roulette.Bet{Type: roulette.BetNumber, Number: 17}, 18, Lose, 0},
		{"red hit", roulette.Bet{Type: roulette.BetColor, Color: roulette.Red}, 36, Win, 1000},
		{"red on zero", roulette.Bet{Type: roulette.BetColor, Color: roulette.Red}, 0, Lose, 0},
		{"even on zero", roulette.Bet{Type: roulette.BetParity, Parity: roulette.Even}, 0, Lose, 0},
		{"odd hit", roulette.Bet{Type: roulette.BetParity, Parity: roulette.Odd}, 35, Win, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Roulette(500, tt.bet, tt.pocket, snap)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.payout, got.Payout)
		})
	}
}

func TestBlackjack(t *testing.T) {
	t.Parallel()

	snap := rules.Defaults()

	tests := []struct {
		name    string
		player  cards.Hand
		dealer  cards.Hand
		outcome Outcome
		payout  money.Minor
		natural bool
	}{
		{"dealer bust pays normal", hand(cards.King, cards.Queen), hand(cards.Ten, cards.Six, cards.Six), Win, 2000, false},
		{"player bust loses even if dealer busts", hand(cards.King, cards.Queen, cards.Five), hand(cards.Ten, cards.Six, cards.Six), Lose, 0, false},
		{"natural pays blackjack rule", hand(cards.Ace, cards.King), hand(cards.Ten, cards.Seven), Win, 2500, true},
		{"both naturals push", hand(cards.Ace, cards.King), hand(cards.Ace, cards.Queen), Push, 1000, true},
		{"three-card 21 pushes dealer natural", hand(cards.Seven, cards.Seven, cards.Seven), hand(cards.Ace, cards.Jack), Push, 1000, false},
		{"higher total wins", hand(cards.Ten, cards.Nine), hand(cards.Ten, cards.Eight), Win, 2000, false},
		{"lower total loses", hand(cards.Ten, cards.Seven), hand(cards.Ten, cards.Eight), Lose, 0, false},
		{"equal totals push", hand(cards.Ten, cards.Eight), hand(cards.Nine, cards.Nine), Push, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Blackjack(1000, tt.player, tt.dealer, snap)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.payout, got.Payout)
			assert.Equal(t, tt.natural, got.Natural)
		})
	}
}

func TestBlackjack_ConfiguredMultipliers(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[rules.RuleType]string{
		rules.BlackjackNormalPayout: "1.9",
		rules.BlackjackPayout:       "2.2",
	})

	got := Blackjack(1000, hand(cards.Ten, cards.Ten), hand(cards.Ten, cards.Six, cards.Nine), snap)
	assert.Equal(t, money.Minor(1900), got.Payout)

	got = Blackjack(1000, hand(cards.Ace, cards.Ten), hand(cards.Ten, cards.Six), snap)
	assert.Equal(t, money.Minor(2200), got.Payout)

	// Push is fixed and ignores configuration.
	got = Blackjack(1000, hand(cards.Ten, cards.Ten), hand(cards.Ten, cards.Queen), snap)
	assert.Equal(t, Push, got.Outcome)
	assert.Equal(t, money.Minor(1000), got.Payout)
}
