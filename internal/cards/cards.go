// Package cards models a standard 52-card deck and blackjack hand scoring.
package cards

import (
	"encoding/json"
	"fmt"
)

// Suit is a card suit. The zero value is invalid.
type Suit uint8

const (
	Hearts Suit = iota + 1
	Diamonds
	Clubs
	Spades
)

var suitCodes = map[Suit]string{
	Hearts:   "H",
	Diamonds: "D",
	Clubs:    "C",
	Spades:   "S",
}

// Suits lists the four suits in deck order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the single-letter code used in storage and on the wire.
func (s Suit) String() string {
	if c, ok := suitCodes[s]; ok {
		return c
	}

	return "?"
}

// ParseSuit accepts the single-letter code or the full English name.
func ParseSuit(s string) (Suit, error) {
	switch s {
	case "H", "h", "hearts", "HEARTS":
		return Hearts, nil
	case "D", "d", "diamonds", "DIAMONDS":
		return Diamonds, nil
	case "C", "c", "clubs", "CLUBS":
		return Clubs, nil
	case "S", "s", "spades", "SPADES":
		return Spades, nil
	default:
		return 0, fmt.Errorf("unknown suit %q", s)
	}
}

// Rank is a card rank, Ace=1 through King=13.
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// Ranks lists the thirteen ranks in deck order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= Two && r <= Ten {
			return fmt.Sprintf("%d", int(r))
		}

		return "?"
	}
}

// ParseRank is the inverse of Rank.String.
func ParseRank(s string) (Rank, error) {
	for _, r := range Ranks {
		if r.String() == s {
			return r, nil
		}
	}

	return 0, fmt.Errorf("unknown rank %q", s)
}

// Card is a single playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

type cardJSON struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Rank: c.Rank.String(), Suit: c.Suit.String()})
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode card: %w", err)
	}

	rank, err := ParseRank(raw.Rank)
	if err != nil {
		return err
	}

	suit, err := ParseSuit(raw.Suit)
	if err != nil {
		return err
	}

	*c = Card{Rank: rank, Suit: suit}

	return nil
}

// Deck is an ordered sequence of undealt cards; the next card is at index 0.
type Deck []Card

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// NewDeck returns an unshuffled 52-card deck.
func NewDeck() Deck {
	d := make(Deck, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			d = append(d, Card{Rank: r, Suit: s})
		}
	}

	return d
}

// Draw removes and returns the next card. ok is false when the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(*d) == 0 {
		return Card{}, false
	}

	c := (*d)[0]
	*d = (*d)[1:]

	return c, true
}
