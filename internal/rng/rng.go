// Package rng is the random outcome generator behind every game.
//
// Production draws come from crypto/rand. Nothing here is seeded, so no two
// sessions or processes can share an outcome sequence.
package rng

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
)

// Source yields uniform integers in [0, n).
type Source interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand with rejection sampling (via rand.Int),
// so every value is equally likely.
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: invalid bound %d", n))
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("rng: read entropy: %v", err))
	}

	return int(v.Int64())
}

// Generator draws game outcomes.
type Generator struct {
	src Source
}

// New returns a generator over src; a nil src means crypto/rand.
func New(src Source) *Generator {
	if src == nil {
		src = CryptoSource{}
	}

	return &Generator{src: src}
}

// FlipCoin returns heads or tails with equal probability.
func (g *Generator) FlipCoin() coin.Side {
	if g.src.Intn(2) == 0 {
		return coin.Heads
	}

	return coin.Tails
}

// SpinWheel returns one of the 37 pockets with equal probability.
func (g *Generator) SpinWheel() roulette.Pocket {
	return roulette.Pocket(g.src.Intn(roulette.Pockets))
}

// ShuffledDeck returns a fresh 52-card deck in Fisher-Yates order.
func (g *Generator) ShuffledDeck() cards.Deck {
	d := cards.NewDeck()
	for i := len(d) - 1; i > 0; i-- {
		j := g.src.Intn(i + 1)
		d[i], d[j] = d[j], d[i]
	}

	return d
}
