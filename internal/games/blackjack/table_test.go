package blackjack

import (
	"testing"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(r cards.Rank) cards.Card {
	return cards.Card{Rank: r, Suit: cards.Spades}
}

// stacked builds a deck dealt P, D, P, D, then the rest in order.
func stacked(p1, d1, p2, d2 cards.Rank, rest ...cards.Rank) cards.Deck {
	d := cards.Deck{c(p1), c(d1), c(p2), c(d2)}
	for _, r := range rest {
		d = append(d, c(r))
	}

	return d
}

func TestDeal(t *testing.T) {
	t.Parallel()

	tb, err := Deal(stacked(cards.Ten, cards.Nine, cards.Six, cards.Seven, cards.Two))
	require.NoError(t, err)

	assert.Equal(t, Active, tb.State)
	assert.Equal(t, cards.Hand{c(cards.Ten), c(cards.Six)}, tb.Player)
	assert.Equal(t, cards.Hand{c(cards.Nine), c(cards.Seven)}, tb.Dealer)
	assert.Equal(t, c(cards.Nine), tb.UpCard())
	assert.Len(t, tb.Deck, 1)
}

func TestDeal_PlayerNaturalResolvesImmediately(t *testing.T) {
	t.Parallel()

	tb, err := Deal(stacked(cards.Ace, cards.Five, cards.King, cards.Six, cards.Ten))
	require.NoError(t, err)

	assert.Equal(t, DealerResolved, tb.State)
	assert.Len(t, tb.Dealer, 2, "dealer does not play against a natural")

	assert.ErrorIs(t, tb.Hit(), ErrNotActive)
	assert.ErrorIs(t, tb.Stand(), ErrNotActive)
}

func TestDeal_ShortDeck(t *testing.T) {
	t.Parallel()

	_, err := Deal(cards.Deck{c(cards.Two), c(cards.Three)})
	assert.ErrorIs(t, err, ErrDeckExhausted)
}

func TestHit(t *testing.T) {
	t.Parallel()

	tb, err := Deal(stacked(cards.Ten, cards.Nine, cards.Six, cards.Seven, cards.Five, cards.King))
	require.NoError(t, err)

	require.NoError(t, tb.Hit())
	assert.Equal(t, 21, tb.Player.Value())
	assert.Equal(t, Active, tb.State, "hitting to 21 keeps the hand open")

	require.NoError(t, tb.Hit())
	assert.Equal(t, PlayerBust, tb.State)
	assert.ErrorIs(t, tb.Hit(), ErrNotActive)
	assert.ErrorIs(t, tb.Stand(), ErrNotActive)
}

func TestStand_DealerBusts(t *testing.T) {
	t.Parallel()

	// Player 20, dealer 16 then draws a ten.
	tb, err := Deal(stacked(cards.King, cards.Ten, cards.Queen, cards.Six, cards.Jack))
	require.NoError(t, err)

	require.NoError(t, tb.Stand())
	assert.Equal(t, DealerResolved, tb.State)
	assert.Equal(t, 26, tb.Dealer.Value())
	assert.True(t, tb.Dealer.IsBust())
}

func TestStand_SoftSeventeenStands(t *testing.T) {
	t.Parallel()

	tb, err := Deal(stacked(cards.King, cards.Ace, cards.Queen, cards.Six, cards.Five))
	require.NoError(t, err)

	require.NoError(t, tb.Stand())
	assert.Len(t, tb.Dealer, 2)
	assert.Equal(t, 17, tb.Dealer.Value())
}

func TestDealerPolicy_AllReachableTotals(t *testing.T) {
	t.Parallel()

	ranks := cards.Ranks

	var walk func(h cards.Hand)
	walk = func(h cards.Hand) {
		v := h.Value()
		assert.Equal(t, v < 17, DealerShouldHit(h), "hand %v", h)

		if !DealerShouldHit(h) || len(h) >= 5 {
			return
		}

		for _, r := range ranks {
			walk(append(append(cards.Hand{}, h...), c(r)))
		}
	}

	for _, a := range ranks {
		for _, b := range ranks {
			walk(cards.Hand{c(a), c(b)})
		}
	}
}

func TestStand_DealerDrawsUntilSeventeen(t *testing.T) {
	t.Parallel()

	tb, err := Deal(stacked(cards.Ten, cards.Two, cards.Eight, cards.Three,
		cards.Two, cards.Four, cards.King, cards.Nine))
	require.NoError(t, err)

	require.NoError(t, tb.Stand())
	// 2+3+2+4 = 11, the king makes 21.
	assert.Equal(t, 21, tb.Dealer.Value())
	assert.Len(t, tb.Dealer, 5)
	assert.Len(t, tb.Deck, 1)
}
