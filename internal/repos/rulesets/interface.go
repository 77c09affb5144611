package rulesets

import (
	"context"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/rules"
)

var (
	ErrRuleSetNotFound = errs.NotFound("rule set not found")
	ErrDuplicateName   = errs.Conflict("a rule set with this name already exists")
	ErrDuplicateRule   = errs.Validation("rule type already configured for this rule set")
)

type RuleSets interface {
	// Create stores rs and returns it with its id and creation time.
	Create(ctx context.Context, rs rules.RuleSet) (rules.RuleSet, error)
	// Get returns the set with its rules.
	Get(ctx context.Context, id int64) (rules.RuleSet, error)
	// List returns every set with its rules, oldest first.
	List(ctx context.Context) ([]rules.RuleSet, error)
	AddRule(ctx context.Context, r rules.Rule) error
	// Activate makes id the only active set.
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	// Active returns the active set, or ErrRuleSetNotFound when none is.
	Active(ctx context.Context) (rules.RuleSet, error)
	// LockRegistry serializes registry writers until the transaction ends.
	LockRegistry(ctx context.Context) error
}
