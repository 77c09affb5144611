package rulesets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/rulesets"
	"github.com/fastprodman/wagerengine/internal/rules"
)

// registryLockKey is the pg_advisory_xact_lock key taken by registry writers.
const registryLockKey int64 = 0x52554c4553 // "RULES"

var _ rulesets.RuleSets = (*ruleSetsRepo)(nil)

type ruleSetsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *ruleSetsRepo {
	return &ruleSetsRepo{db: db}
}

func (r *ruleSetsRepo) Create(ctx context.Context, rs rules.RuleSet) (rules.RuleSet, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rule_sets (name, description, house_edge)
		VALUES ($1, $2, $3)
		RETURNING id, is_active, created_at
	`, rs.Name, rs.Description, rs.HouseEdge).Scan(&rs.ID, &rs.IsActive, &rs.CreatedAt)
	if err != nil {
		if pgutils.HasCode(err, pgutils.CodeUniqueViolation) {
			return rules.RuleSet{}, rulesets.ErrDuplicateName
		}

		return rules.RuleSet{}, fmt.Errorf("insert rule set: %w", err)
	}

	rs.Rules = nil

	return rs, nil
}

const selectRuleSet = `
	SELECT id, name, description, house_edge, is_active, created_at
	FROM rule_sets
`

func (r *ruleSetsRepo) Get(ctx context.Context, id int64) (rules.RuleSet, error) {
	return r.getOne(ctx, selectRuleSet+` WHERE id = $1`, id)
}

func (r *ruleSetsRepo) Active(ctx context.Context) (rules.RuleSet, error) {
	return r.getOne(ctx, selectRuleSet+` WHERE is_active`)
}

func (r *ruleSetsRepo) getOne(ctx context.Context, query string, args ...any) (rules.RuleSet, error) {
	var rs rules.RuleSet

	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&rs.ID, &rs.Name, &rs.Description, &rs.HouseEdge, &rs.IsActive, &rs.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rules.RuleSet{}, rulesets.ErrRuleSetNotFound
		}

		return rules.RuleSet{}, fmt.Errorf("get rule set: %w", err)
	}

	byID, err := r.rules(ctx, `WHERE rule_set_id = $1`, rs.ID)
	if err != nil {
		return rules.RuleSet{}, err
	}

	rs.Rules = byID[rs.ID]

	return rs, nil
}

func (r *ruleSetsRepo) List(ctx context.Context) ([]rules.RuleSet, error) {
	rows, err := r.db.QueryContext(ctx, selectRuleSet+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer rows.Close()

	var out []rules.RuleSet

	for rows.Next() {
		var rs rules.RuleSet

		err := rows.Scan(&rs.ID, &rs.Name, &rs.Description, &rs.HouseEdge, &rs.IsActive, &rs.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}

		out = append(out, rs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule sets: %w", err)
	}

	byID, err := r.rules(ctx, ``)
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Rules = byID[out[i].ID]
	}

	return out, nil
}

func (r *ruleSetsRepo) rules(ctx context.Context, where string, args ...any) (map[int64][]rules.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rule_set_id, rule_type, rule_param
		FROM rules
		`+where+`
		ORDER BY rule_set_id, rule_type
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]rules.Rule)

	for rows.Next() {
		var (
			rule rules.Rule
			typ  string
		)

		if err := rows.Scan(&rule.RuleSetID, &typ, &rule.Param); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}

		rule.Type = rules.RuleType(typ)
		out[rule.RuleSetID] = append(out[rule.RuleSetID], rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return out, nil
}

func (r *ruleSetsRepo) AddRule(ctx context.Context, rule rules.Rule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rules (rule_set_id, rule_type, rule_param)
		VALUES ($1, $2, $3)
	`, rule.RuleSetID, string(rule.Type), rule.Param)
	if err != nil {
		switch {
		case pgutils.HasCode(err, pgutils.CodeUniqueViolation):
			return rulesets.ErrDuplicateRule
		case pgutils.HasCode(err, pgutils.CodeForeignKeyViolation):
			return rulesets.ErrRuleSetNotFound
		}

		return fmt.Errorf("insert rule: %w", err)
	}

	return nil
}

func (r *ruleSetsRepo) Activate(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE rule_sets SET is_active = false WHERE is_active AND id <> $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate rule sets: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `UPDATE rule_sets SET is_active = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activate rule set: %w", err)
	}

	return nil
}

func (r *ruleSetsRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rule_sets SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate rule set: %w", err)
	}

	return expectOne(res)
}

func (r *ruleSetsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rule_sets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule set: %w", err)
	}

	return expectOne(res)
}

func (r *ruleSetsRepo) LockRegistry(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registryLockKey)
	if err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}

	return nil
}

func expectOne(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return rulesets.ErrRuleSetNotFound
	}

	return nil
}
