// Package registry administers payout rule sets and publishes the snapshot
// games resolve against.
//
// Writers are serialized twice: by a process mutex and, inside the store
// transaction, by the registry lock. Readers never block; Active returns
// the last published immutable snapshot.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	"github.com/fastprodman/wagerengine/internal/rules"
	"github.com/fastprodman/wagerengine/internal/store"
)

const (
	maxNameLen = 100

	// paramScale matches the NUMERIC(_, 4) columns rule sets are stored in.
	paramScale = 4
)

var (
	maxHouseEdge = decimal.NewFromInt(100)
	maxRuleParam = decimal.NewFromInt(1000)
)

var (
	ErrNameRequired      = errs.Validation("rule set name is required")
	ErrNameTooLong       = errs.Newf(errs.ErrValidation, "rule set name must be at most %d characters", maxNameLen)
	ErrNegativeHouseEdge = errs.Validation("house edge must not be negative")
	ErrHouseEdgeRange    = errs.Newf(errs.ErrValidation, "house edge must be at most %s with up to %d decimals", maxHouseEdge, paramScale)
	ErrUnknownRuleType   = errs.Validation("unknown rule type")
	ErrInvalidRuleParam  = errs.Validation("rule param must be greater than zero")
	ErrRuleParamRange    = errs.Newf(errs.ErrValidation, "rule param must be at most %s with up to %d decimals", maxRuleParam, paramScale)
	ErrRulesFrozen       = errs.Conflict("rules can only be added to an inactive rule set with no recorded games")
	ErrDeleteActive      = errs.Conflict("the active rule set cannot be deleted")
	ErrDeleteReferenced  = errs.Conflict("rule set has recorded games and cannot be deleted")
)

type Service struct {
	store  store.Store
	mu     sync.Mutex
	active atomic.Pointer[rules.Snapshot]
}

// New returns a registry serving built-in defaults until the first Refresh.
func New(st store.Store) *Service {
	s := &Service{store: st}
	s.active.Store(rules.Defaults())

	return s
}

// Active returns the current snapshot. It never blocks and never fails.
func (s *Service) Active() *rules.Snapshot {
	return s.active.Load()
}

// Refresh reloads the active snapshot from the store. Other instances may
// have changed it.
func (s *Service) Refresh(ctx context.Context) error {
	// Held across read and publish so a stale read cannot overwrite the
	// snapshot of a write that committed in between.
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap *rules.Snapshot

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		snap, err = loadActive(ctx, tx)

		return err
	})
	if err != nil {
		return fmt.Errorf("refresh rule sets: %w", err)
	}

	s.active.Store(snap)

	return nil
}

// RunRefresher calls Refresh every interval until ctx is done.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "rule set refresh failed", "error", err)
			}
		}
	}
}

func (s *Service) Create(ctx context.Context, name, description string, houseEdge decimal.Decimal) (rules.RuleSet, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return rules.RuleSet{}, ErrNameRequired
	case len(name) > maxNameLen:
		return rules.RuleSet{}, ErrNameTooLong
	case houseEdge.IsNegative():
		return rules.RuleSet{}, ErrNegativeHouseEdge
	case houseEdge.GreaterThan(maxHouseEdge) || !fitsScale(houseEdge):
		return rules.RuleSet{}, ErrHouseEdgeRange
	}

	var created rules.RuleSet

	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		created, err = tx.RuleSets().Create(ctx, rules.RuleSet{
			Name:        name,
			Description: strings.TrimSpace(description),
			HouseEdge:   houseEdge,
		})

		return err
	})
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("create rule set: %w", err)
	}

	slog.InfoContext(ctx, "rule set created", "rule_set_id", created.ID, "name", created.Name)

	return created, nil
}

func (s *Service) AddRule(ctx context.Context, id int64, t rules.RuleType, param decimal.Decimal) (rules.Rule, error) {
	if !t.Valid() {
		return rules.Rule{}, ErrUnknownRuleType
	}

	if !param.IsPositive() {
		return rules.Rule{}, ErrInvalidRuleParam
	}

	if param.GreaterThan(maxRuleParam) || !fitsScale(param) {
		return rules.Rule{}, ErrRuleParamRange
	}

	rule := rules.Rule{RuleSetID: id, Type: t, Param: param}

	// Past resolutions must stay reproducible from the set they name.
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		rs, err := tx.RuleSets().Get(ctx, id)
		if err != nil {
			return err
		}

		if rs.IsActive {
			return ErrRulesFrozen
		}

		n, err := tx.Records().CountByRuleSet(ctx, id)
		if err != nil {
			return fmt.Errorf("count games: %w", err)
		}

		if n > 0 {
			return ErrRulesFrozen
		}

		return tx.RuleSets().AddRule(ctx, rule)
	})
	if err != nil {
		return rules.Rule{}, fmt.Errorf("add rule: %w", err)
	}

	slog.InfoContext(ctx, "rule added", "rule_set_id", id, "rule_type", t, "rule_param", param.String())

	return rule, nil
}

// Activate makes id the only active rule set.
func (s *Service) Activate(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.RuleSets().Activate(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("activate rule set: %w", err)
	}

	slog.InfoContext(ctx, "rule set activated", "rule_set_id", id)

	return nil
}

// Deactivate clears the active flag of id. With no active set games pay
// the built-in defaults.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.RuleSets().Deactivate(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("deactivate rule set: %w", err)
	}

	slog.InfoContext(ctx, "rule set deactivated", "rule_set_id", id)

	return nil
}

// Delete removes an inactive rule set that no game references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		rs, err := tx.RuleSets().Get(ctx, id)
		if err != nil {
			return err
		}

		if rs.IsActive {
			return ErrDeleteActive
		}

		n, err := tx.Records().CountByRuleSet(ctx, id)
		if err != nil {
			return fmt.Errorf("count games: %w", err)
		}

		if n > 0 {
			return ErrDeleteReferenced
		}

		return tx.RuleSets().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete rule set: %w", err)
	}

	slog.InfoContext(ctx, "rule set deleted", "rule_set_id", id)

	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (rules.RuleSet, error) {
	var rs rules.RuleSet

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rs, err = tx.RuleSets().Get(ctx, id)

		return err
	})
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("get rule set: %w", err)
	}

	return rs, nil
}

func (s *Service) List(ctx context.Context) ([]rules.RuleSet, error) {
	var out []rules.RuleSet

	err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.RuleSets().List(ctx)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}

	return out, nil
}

// RuleTypes returns the rule type catalog.
func (s *Service) RuleTypes() []rules.TypeInfo {
	return rules.Types()
}

// write runs fn as a registry writer and publishes the snapshot read in the
// same transaction once it commits.
func (s *Service) write(ctx context.Context, fn store.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap *rules.Snapshot

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.RuleSets().LockRegistry(ctx); err != nil {
			return fmt.Errorf("lock registry: %w", err)
		}

		if err := fn(ctx, tx); err != nil {
			return err
		}

		var err error
		snap, err = loadActive(ctx, tx)

		return err
	})
	if err != nil {
		return err
	}

	s.active.Store(snap)

	return nil
}

func fitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(paramScale))
}

func loadActive(ctx context.Context, tx store.Tx) (*rules.Snapshot, error) {
	rs, err := tx.RuleSets().Active(ctx)
	if errors.Is(err, rulesets.ErrRuleSetNotFound) {
		return rules.Defaults(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("load active rule set: %w", err)
	}

	return rules.NewSnapshot(rs), nil
}
