// Package coin holds the coin flip domain values.
package coin

import (
	"fmt"
	"strings"
)

// Side is one face of the coin.
type Side uint8

const (
	Heads Side = iota + 1
	Tails
)

func (s Side) String() string {
	switch s {
	case Heads:
		return "heads"
	case Tails:
		return "tails"
	default:
		return "unknown"
	}
}

// Wire vocabulary of the public API: "tura" is heads, "yazi" is tails.
const (
	wireHeads = "tura"
	wireTails = "yazi"
)

// Wire returns the API spelling of s.
func (s Side) Wire() string {
	if s == Heads {
		return wireHeads
	}

	return wireTails
}

// ParseSide accepts the API spelling or the English name.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case wireHeads, "heads":
		return Heads, nil
	case wireTails, "yazı", "tails":
		return Tails, nil
	default:
		return 0, fmt.Errorf("choice must be %q or %q", wireTails, wireHeads)
	}
}
