package deduction

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hrpay/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return querier.InTx(ctx, s.DB, func(tx querier.Querier) error {
		return fn(NewStore(tx))
	})
}

const ruleColumns = `id, name, description, percentage, deduction_type, min_salary_threshold, max_amount, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Percentage, &r.Type, &r.MinSalaryThreshold, &r.MaxAmount, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+ruleColumns+`
    FROM deduction_rules
    WHERE ($1 = '' OR deduction_type = $1)
      AND (NOT $2 OR is_active)
    ORDER BY name
  `, string(filter.Type), filter.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) GetRule(ctx context.Context, ruleID string) (Rule, error) {
	r, err := scanRule(s.DB.QueryRow(ctx, `
    SELECT `+ruleColumns+`
    FROM deduction_rules
    WHERE id = $1
  `, ruleID))
	if err != nil {
		return Rule{}, querier.MapError(err, "deduction rule")
	}
	return r, nil
}

func (s *Store) InsertRule(ctx context.Context, rule Rule) (Rule, error) {
	r, err := scanRule(s.DB.QueryRow(ctx, `
    INSERT INTO deduction_rules (name, description, percentage, deduction_type, min_salary_threshold, max_amount, is_active)
    VALUES ($1,$2,$3::numeric,$4,$5::numeric,$6::numeric,$7)
    RETURNING `+ruleColumns,
		rule.Name, rule.Description, rule.Percentage, rule.Type, rule.MinSalaryThreshold, rule.MaxAmount, rule.IsActive))
	if err != nil {
		if querier.IsUniqueViolation(err) {
			return Rule{}, ErrDuplicateRule
		}
		return Rule{}, err
	}
	return r, nil
}

func (s *Store) UpdateRule(ctx context.Context, rule Rule) (Rule, error) {
	r, err := scanRule(s.DB.QueryRow(ctx, `
    UPDATE deduction_rules
    SET name = $2, description = $3, percentage = $4::numeric, deduction_type = $5,
        min_salary_threshold = $6::numeric, max_amount = $7::numeric, is_active = $8, updated_at = now()
    WHERE id = $1
    RETURNING `+ruleColumns,
		rule.ID, rule.Name, rule.Description, rule.Percentage, rule.Type, rule.MinSalaryThreshold, rule.MaxAmount, rule.IsActive))
	if err != nil {
		if querier.IsUniqueViolation(err) {
			return Rule{}, ErrDuplicateRule
		}
		return Rule{}, querier.MapError(err, "deduction rule")
	}
	return r, nil
}

func (s *Store) CountOverridesForRule(ctx context.Context, ruleID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM contract_deductions WHERE deduction_id = $1`, ruleID).Scan(&count)
	return count, err
}

func (s *Store) ContractExists(ctx context.Context, contractID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)`, contractID).Scan(&exists)
	return exists, err
}

const overrideColumns = `id, contract_id, deduction_id, custom_percentage, fixed_amount, is_active, created_at, updated_at`

func scanOverride(row pgx.Row) (Override, error) {
	var o Override
	err := row.Scan(&o.ID, &o.ContractID, &o.RuleID, &o.CustomPercentage, &o.FixedAmount, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *Store) ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]AppliedOverride, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT o.id, o.contract_id, o.deduction_id, o.custom_percentage, o.fixed_amount, o.is_active, o.created_at, o.updated_at,
           r.id, r.name, r.description, r.percentage, r.deduction_type, r.min_salary_threshold, r.max_amount, r.is_active, r.created_at, r.updated_at
    FROM contract_deductions o
    JOIN deduction_rules r ON r.id = o.deduction_id
    WHERE o.contract_id = $1
      AND (NOT $2 OR o.is_active)
    ORDER BY r.name
  `, contractID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AppliedOverride
	for rows.Next() {
		var a AppliedOverride
		o, r := &a.Override, &a.Rule
		if err := rows.Scan(
			&o.ID, &o.ContractID, &o.RuleID, &o.CustomPercentage, &o.FixedAmount, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
			&r.ID, &r.Name, &r.Description, &r.Percentage, &r.Type, &r.MinSalaryThreshold, &r.MaxAmount, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetOverride(ctx context.Context, overrideID string) (Override, error) {
	o, err := scanOverride(s.DB.QueryRow(ctx, `
    SELECT `+overrideColumns+`
    FROM contract_deductions
    WHERE id = $1
  `, overrideID))
	if err != nil {
		return Override{}, querier.MapError(err, "contract deduction override")
	}
	return o, nil
}

func (s *Store) InsertOverride(ctx context.Context, override Override) (Override, error) {
	o, err := scanOverride(s.DB.QueryRow(ctx, `
    INSERT INTO contract_deductions (contract_id, deduction_id, custom_percentage, fixed_amount, is_active)
    VALUES ($1,$2,$3::numeric,$4::numeric,$5)
    RETURNING `+overrideColumns,
		override.ContractID, override.RuleID, override.CustomPercentage, override.FixedAmount, override.IsActive))
	if err != nil {
		if querier.IsUniqueViolation(err) {
			return Override{}, ErrDuplicateOverride
		}
		return Override{}, err
	}
	return o, nil
}

func (s *Store) UpdateOverride(ctx context.Context, override Override) (Override, error) {
	o, err := scanOverride(s.DB.QueryRow(ctx, `
    UPDATE contract_deductions
    SET custom_percentage = $2::numeric, fixed_amount = $3::numeric, is_active = $4, updated_at = now()
    WHERE id = $1
    RETURNING `+overrideColumns,
		override.ID, override.CustomPercentage, override.FixedAmount, override.IsActive))
	if err != nil {
		return Override{}, querier.MapError(err, "contract deduction override")
	}
	return o, nil
}

func (s *Store) DeleteOverride(ctx context.Context, overrideID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM contract_deductions WHERE id = $1`, overrideID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return querier.MapError(pgx.ErrNoRows, "contract deduction override")
	}
	return nil
}

// CopyOverrides duplicates the active overrides of one contract onto another.
func (s *Store) CopyOverrides(ctx context.Context, fromContractID, toContractID string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO contract_deductions (contract_id, deduction_id, custom_percentage, fixed_amount, is_active)
    SELECT $2, deduction_id, custom_percentage, fixed_amount, is_active
    FROM contract_deductions
    WHERE contract_id = $1 AND is_active
    ON CONFLICT (contract_id, deduction_id) DO NOTHING
  `, fromContractID, toContractID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

var _ Repository = (*Store)(nil)
