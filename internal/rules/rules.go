// Package rules defines payout rule sets and the immutable snapshot games
// resolve against.
package rules

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType names a configurable payout multiplier.
type RuleType string

const (
	CoinFlipPayout        RuleType = "coinflip_payout"
	RouletteNumberPayout  RuleType = "roulette_number_payout"
	RouletteColorPayout   RuleType = "roulette_color_payout"
	RouletteParityPayout  RuleType = "roulette_parity_payout"
	BlackjackPayout       RuleType = "blackjack_payout"
	BlackjackNormalPayout RuleType = "blackjack_normal_payout"
)

// TypeInfo describes a rule type for operators.
type TypeInfo struct {
	Type    RuleType        `json:"type"`
	Label   string          `json:"label"`
	Default decimal.Decimal `json:"default"`
}

var catalog = []TypeInfo{
	{CoinFlipPayout, "Coin flip win multiplier", decimal.RequireFromString("1.95")},
	{RouletteNumberPayout, "Roulette straight number multiplier", decimal.NewFromInt(36)},
	{RouletteColorPayout, "Roulette red/black multiplier", decimal.NewFromInt(2)},
	{RouletteParityPayout, "Roulette odd/even multiplier", decimal.NewFromInt(2)},
	{BlackjackPayout, "Blackjack natural multiplier", decimal.RequireFromString("2.5")},
	{BlackjackNormalPayout, "Blackjack regular win multiplier", decimal.NewFromInt(2)},
}

// Types returns the rule type catalog.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(catalog))
	copy(out, catalog)

	return out
}

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	for _, ti := range catalog {
		if ti.Type == t {
			return true
		}
	}

	return false
}

// Default returns the built-in multiplier for t.
func (t RuleType) Default() decimal.Decimal {
	for _, ti := range catalog {
		if ti.Type == t {
			return ti.Default
		}
	}

	return decimal.Zero
}

// Rule is one multiplier within a rule set.
type Rule struct {
	RuleSetID int64           `json:"rule_set_id"`
	Type      RuleType        `json:"rule_type"`
	Param     decimal.Decimal `json:"rule_param"`
}

// RuleSet is an operator-defined bundle of rules.
type RuleSet struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HouseEdge   decimal.Decimal `json:"house_edge"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	Rules       []Rule          `json:"rules,omitempty"`
}

// Snapshot is the multiplier view captured at one instant. It is never
// mutated after construction, so it is safe to share between goroutines.
type Snapshot struct {
	ruleSetID int64
	params    map[RuleType]decimal.Decimal
}

// Defaults is the snapshot used when no rule set is active.
func Defaults() *Snapshot {
	return &Snapshot{params: map[RuleType]decimal.Decimal{}}
}

// NewSnapshot captures rs. Rule types the set lacks fall back to defaults.
func NewSnapshot(rs RuleSet) *Snapshot {
	s := &Snapshot{
		ruleSetID: rs.ID,
		params:    make(map[RuleType]decimal.Decimal, len(rs.Rules)),
	}

	for _, r := range rs.Rules {
		s.params[r.Type] = r.Param
	}

	return s
}

// RuleSetID returns the id of the captured set, and false for defaults.
func (s *Snapshot) RuleSetID() (int64, bool) {
	return s.ruleSetID, s.ruleSetID != 0
}

// Multiplier returns the configured multiplier for t or its default.
func (s *Snapshot) Multiplier(t RuleType) decimal.Decimal {
	if p, ok := s.params[t]; ok {
		return p
	}

	return t.Default()
}
