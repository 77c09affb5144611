package cards

// Hand is an ordered sequence of dealt cards.
type Hand []Card

// pointValue counts an ace as 1; Value upgrades one ace to 11 when it fits.
func pointValue(r Rank) int {
	switch {
	case r == Ace:
		return 1
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Value returns the best blackjack total: aces count 11 unless that busts.
func (h Hand) Value() int {
	total := 0
	hasAce := false

	for _, c := range h {
		total += pointValue(c.Rank)
		if c.Rank == Ace {
			hasAce = true
		}
	}

	// At most one ace can ever count as 11 without busting.
	if hasAce && total+10 <= 21 {
		total += 10
	}

	return total
}

// IsBust reports a total over 21.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

// IsNatural reports a two-card 21.
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Value() == 21
}
