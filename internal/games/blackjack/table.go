// Package blackjack is the pure blackjack hand state machine. It holds no
// money and no storage; the session service persists a Table between calls.
package blackjack

import (
	"errors"

	"github.com/fastprodman/wagerengine/internal/cards"
)

// State is the tagged session state.
type State string

const (
	Active         State = "ACTIVE"
	PlayerBust     State = "PLAYER_BUST"
	DealerResolved State = "DEALER_RESOLVED"
)

// Terminal reports whether the hand is over.
func (s State) Terminal() bool {
	return s == PlayerBust || s == DealerResolved
}

// DealerStandsOn is the lowest total the dealer stands on.
const DealerStandsOn = 17

var (
	ErrNotActive     = errors.New("hand is not active")
	ErrDeckExhausted = errors.New("deck exhausted")
)

// Table is one hand in progress.
type Table struct {
	Player cards.Hand `json:"player"`
	Dealer cards.Hand `json:"dealer"`
	Deck   cards.Deck `json:"deck"`
	State  State      `json:"state"`
}

// Deal starts a hand from deck, dealing player, dealer, player, dealer.
// A player natural ends the hand at once without a dealer turn.
func Deal(deck cards.Deck) (*Table, error) {
	t := &Table{
		Player: make(cards.Hand, 0, 2),
		Dealer: make(cards.Hand, 0, 2),
		Deck:   deck,
		State:  Active,
	}

	for i := 0; i < 2; i++ {
		if err := t.draw(&t.Player); err != nil {
			return nil, err
		}

		if err := t.draw(&t.Dealer); err != nil {
			return nil, err
		}
	}

	if t.Player.IsNatural() {
		t.State = DealerResolved
	}

	return t, nil
}

// Hit draws one card to the player. A total over 21 ends the hand.
func (t *Table) Hit() error {
	if t.State != Active {
		return ErrNotActive
	}

	if err := t.draw(&t.Player); err != nil {
		return err
	}

	if t.Player.IsBust() {
		t.State = PlayerBust
	}

	return nil
}

// Stand ends the player's turn and plays the dealer out.
func (t *Table) Stand() error {
	if t.State != Active {
		return ErrNotActive
	}

	for DealerShouldHit(t.Dealer) {
		if err := t.draw(&t.Dealer); err != nil {
			return err
		}
	}

	t.State = DealerResolved

	return nil
}

// DealerShouldHit is the fixed dealer policy: hit below 17, soft 17 stands.
func DealerShouldHit(h cards.Hand) bool {
	return h.Value() < DealerStandsOn
}

// UpCard is the dealer card shown while the hand is active.
func (t *Table) UpCard() cards.Card {
	if len(t.Dealer) == 0 {
		return cards.Card{}
	}

	return t.Dealer[0]
}

func (t *Table) draw(h *cards.Hand) error {
	c, ok := t.Deck.Draw()
	if !ok {
		return ErrDeckExhausted
	}

	*h = append(*h, c)

	return nil
}
