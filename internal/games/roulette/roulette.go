// Package roulette models a single-zero European wheel and its bets.
package roulette

import (
	"fmt"
	"strconv"
	"strings"
)

// Pockets is the number of pockets on the wheel (0..36).
const Pockets = 37

// Pocket is a wheel value in [0, 36].
type Pocket uint8

type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

type Parity string

const (
	NoParity Parity = ""
	Odd      Parity = "odd"
	Even     Parity = "even"
)

var reds = [Pockets]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Color classifies p. Zero is green.
func (p Pocket) Color() Color {
	switch {
	case p == 0:
		return Green
	case reds[p]:
		return Red
	default:
		return Black
	}
}

// Parity classifies p. Zero has no parity.
func (p Pocket) Parity() Parity {
	switch {
	case p == 0:
		return NoParity
	case p%2 == 0:
		return Even
	default:
		return Odd
	}
}

type BetType string

const (
	BetNumber BetType = "number"
	BetColor  BetType = "color"
	BetParity BetType = "parity"
)

// Bet is a validated roulette wager selection.
type Bet struct {
	Type   BetType
	Number Pocket
	Color  Color
	Parity Parity
}

// ParseBet validates a bet type and its raw value. Number bets take 0-36;
// color bets red or black; parity bets odd or even.
func ParseBet(betType, value string) (Bet, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	switch BetType(strings.ToLower(strings.TrimSpace(betType))) {
	case BetNumber:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n >= Pockets {
			return Bet{}, fmt.Errorf("number bet must be between 0 and %d", Pockets-1)
		}

		return Bet{Type: BetNumber, Number: Pocket(n)}, nil
	case BetColor:
		c := Color(value)
		if c != Red && c != Black {
			return Bet{}, fmt.Errorf("color bet must be red or black")
		}

		return Bet{Type: BetColor, Color: c}, nil
	case BetParity:
		p := Parity(value)
		if p != Odd && p != Even {
			return Bet{}, fmt.Errorf("parity bet must be odd or even")
		}

		return Bet{Type: BetParity, Parity: p}, nil
	default:
		return Bet{}, fmt.Errorf("bet type must be number, color or parity")
	}
}

// Wins reports whether the bet matches the pocket.
func (b Bet) Wins(p Pocket) bool {
	switch b.Type {
	case BetNumber:
		return b.Number == p
	case BetColor:
		return p.Color() != Green && p.Color() == b.Color
	case BetParity:
		return p.Parity() != NoParity && p.Parity() == b.Parity
	default:
		return false
	}
}

// Value returns the bet selection as it is echoed to clients.
func (b Bet) Value() string {
	switch b.Type {
	case BetNumber:
		return strconv.Itoa(int(b.Number))
	case BetColor:
		return string(b.Color)
	case BetParity:
		return string(b.Parity)
	default:
		return ""
	}
}
