package rulesets

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	"github.com/fastprodman/wagerengine/internal/rules"
	"github.com/fastprodman/wagerengine/internal/store/memory/journal"
)

type Table struct {
	journal.Journal

	sets   map[int64]rules.RuleSet
	nextID int64
}

func NewTable() *Table {
	return &Table{sets: make(map[int64]rules.RuleSet), nextID: 1}
}

// save records the whole table before a write. Rule sets are few and
// registry writes rare. Rule slices are cloned on every write, so the saved
// values can be shared.
func (t *Table) save() {
	sets, nextID := maps.Clone(t.sets), t.nextID
	t.Record(func() { t.sets, t.nextID = sets, nextID })
}

var _ rulesets.RuleSets = (*ruleSetsRepo)(nil)

type ruleSetsRepo struct{ t *Table }

func New(t *Table) *ruleSetsRepo {
	return &ruleSetsRepo{t: t}
}

func (r *ruleSetsRepo) Create(_ context.Context, rs rules.RuleSet) (rules.RuleSet, error) {
	for _, existing := range r.t.sets {
		if existing.Name == rs.Name {
			return rules.RuleSet{}, rulesets.ErrDuplicateName
		}
	}

	r.t.save()

	rs.ID = r.t.nextID
	rs.IsActive = false
	rs.CreatedAt = time.Now().UTC()
	rs.Rules = nil

	r.t.nextID++
	r.t.sets[rs.ID] = rs

	return rs, nil
}

func (r *ruleSetsRepo) Get(_ context.Context, id int64) (rules.RuleSet, error) {
	rs, ok := r.t.sets[id]
	if !ok {
		return rules.RuleSet{}, rulesets.ErrRuleSetNotFound
	}

	rs.Rules = slices.Clone(rs.Rules)

	return rs, nil
}

func (r *ruleSetsRepo) List(_ context.Context) ([]rules.RuleSet, error) {
	out := make([]rules.RuleSet, 0, len(r.t.sets))
	for _, rs := range r.t.sets {
		rs.Rules = slices.Clone(rs.Rules)
		out = append(out, rs)
	}

	slices.SortFunc(out, func(a, b rules.RuleSet) int { return cmp.Compare(a.ID, b.ID) })

	return out, nil
}

func (r *ruleSetsRepo) AddRule(_ context.Context, rule rules.Rule) error {
	rs, ok := r.t.sets[rule.RuleSetID]
	if !ok {
		return rulesets.ErrRuleSetNotFound
	}

	for _, existing := range rs.Rules {
		if existing.Type == rule.Type {
			return rulesets.ErrDuplicateRule
		}
	}

	r.t.save()

	rs.Rules = append(slices.Clone(rs.Rules), rule)
	slices.SortFunc(rs.Rules, func(a, b rules.Rule) int { return cmp.Compare(a.Type, b.Type) })
	r.t.sets[rs.ID] = rs

	return nil
}

func (r *ruleSetsRepo) Activate(_ context.Context, id int64) error {
	if _, ok := r.t.sets[id]; !ok {
		return rulesets.ErrRuleSetNotFound
	}

	r.t.save()

	for sid, rs := range r.t.sets {
		rs.IsActive = sid == id
		r.t.sets[sid] = rs
	}

	return nil
}

func (r *ruleSetsRepo) Deactivate(_ context.Context, id int64) error {
	rs, ok := r.t.sets[id]
	if !ok {
		return rulesets.ErrRuleSetNotFound
	}

	r.t.save()

	rs.IsActive = false
	r.t.sets[id] = rs

	return nil
}

func (r *ruleSetsRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.t.sets[id]; !ok {
		return rulesets.ErrRuleSetNotFound
	}

	r.t.save()
	delete(r.t.sets, id)

	return nil
}

func (r *ruleSetsRepo) Active(ctx context.Context) (rules.RuleSet, error) {
	for id, rs := range r.t.sets {
		if rs.IsActive {
			return r.Get(ctx, id)
		}
	}

	return rules.RuleSet{}, rulesets.ErrRuleSetNotFound
}

// LockRegistry is a no-op: the memory store admits one writer at a time.
func (r *ruleSetsRepo) LockRegistry(context.Context) error {
	return nil
}
