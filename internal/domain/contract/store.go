package contract

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/querier"
)

// Store persists contracts and reads the rules, overrides and staff records the
// lifecycle needs through the deduction and staff stores on the same connection.
type Store struct {
	DB         querier.Querier
	Deductions *deduction.Store
	Staff      *staff.Store
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db, Deductions: deduction.NewStore(db), Staff: staff.NewStore(db)}
}

func (s *Store) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return querier.InTx(ctx, s.DB, func(tx querier.Querier) error {
		return fn(NewStore(tx))
	})
}

const contractColumns = `id, staff_id, COALESCE(department_id::text, ''), job_title, contract_type, start_date, end_date,
           salary, status, renewal_reminder_sent, created_at, updated_at`

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.StaffID, &c.DepartmentID, &c.JobTitle, &c.Type, &c.StartDate, &c.EndDate,
		&c.Salary, &c.Status, &c.RenewalReminderSent, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectContracts(rows pgx.Rows) ([]Contract, error) {
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) GetContract(ctx context.Context, contractID string) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE id = $1
  `, contractID))
	if err != nil {
		return Contract{}, querier.MapError(err, "contract")
	}
	return c, nil
}

func (s *Store) LockContract(ctx context.Context, contractID string) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE id = $1
    FOR UPDATE
  `, contractID))
	if err != nil {
		return Contract{}, querier.MapError(err, "contract")
	}
	return c, nil
}

func (s *Store) ListContractsByStaff(ctx context.Context, staffID string) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE staff_id = $1
    ORDER BY start_date DESC, created_at DESC
  `, staffID)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

func (s *Store) InsertContract(ctx context.Context, c Contract) (Contract, error) {
	created, err := scanContract(s.DB.QueryRow(ctx, `
    INSERT INTO contracts (staff_id, department_id, job_title, contract_type, start_date, end_date, salary, status, renewal_reminder_sent)
    VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9)
    RETURNING `+contractColumns,
		c.StaffID, nullIfEmpty(c.DepartmentID), c.JobTitle, c.Type, c.StartDate, c.EndDate, c.Salary, c.Status, c.RenewalReminderSent))
	if err != nil {
		return Contract{}, querier.MapError(err, "contract")
	}
	return created, nil
}

func (s *Store) UpdateContract(ctx context.Context, c Contract) (Contract, error) {
	updated, err := scanContract(s.DB.QueryRow(ctx, `
    UPDATE contracts
    SET department_id = $2, job_title = $3, contract_type = $4, start_date = $5, end_date = $6,
        salary = $7::numeric, status = $8, renewal_reminder_sent = $9, updated_at = now()
    WHERE id = $1
    RETURNING `+contractColumns,
		c.ID, nullIfEmpty(c.DepartmentID), c.JobTitle, c.Type, c.StartDate, c.EndDate, c.Salary, c.Status, c.RenewalReminderSent))
	if err != nil {
		return Contract{}, querier.MapError(err, "contract")
	}
	return updated, nil
}

// DeleteContract relies on ON DELETE CASCADE to remove the contract's overrides.
func (s *Store) DeleteContract(ctx context.Context, contractID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, contractID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return querier.MapError(pgx.ErrNoRows, "contract")
	}
	return nil
}

func (s *Store) InsertRenewal(ctx context.Context, r Renewal) (Renewal, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contract_renewals (contract_id, new_contract_id, previous_end_date, new_end_date, renewed_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, renewed_at
  `, r.ContractID, r.NewContractID, r.PreviousEndDate, r.NewEndDate, r.RenewedBy).Scan(&r.ID, &r.RenewedAt)
	if err != nil {
		return Renewal{}, err
	}
	return r, nil
}

// ListRenewals returns renewals the contract took part in, as original or successor.
func (s *Store) ListRenewals(ctx context.Context, contractID string) ([]Renewal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, contract_id, new_contract_id, previous_end_date, new_end_date, renewed_by, renewed_at
    FROM contract_renewals
    WHERE contract_id = $1 OR new_contract_id = $1
    ORDER BY renewed_at DESC
  `, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Renewal
	for rows.Next() {
		var r Renewal
		if err := rows.Scan(&r.ID, &r.ContractID, &r.NewContractID, &r.PreviousEndDate, &r.NewEndDate, &r.RenewedBy, &r.RenewedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListContractsToExpire(ctx context.Context, today time.Time) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE end_date < $1
      AND status NOT IN ('EXPIRED', 'TERMINATED', 'RENEWED')
    ORDER BY end_date
  `, today)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

func (s *Store) ListContractsEndingBetween(ctx context.Context, from, to time.Time) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE end_date BETWEEN $1 AND $2
      AND status = 'ACTIVE'
      AND NOT renewal_reminder_sent
    ORDER BY end_date
  `, from, to)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

// ListContractsActiveDuring returns ACTIVE contracts overlapping [start, end].
func (s *Store) ListContractsActiveDuring(ctx context.Context, start, end time.Time) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractColumns+`
    FROM contracts
    WHERE status = 'ACTIVE'
      AND start_date <= $2
      AND (end_date IS NULL OR end_date >= $1)
    ORDER BY staff_id, start_date DESC
  `, start, end)
	if err != nil {
		return nil, err
	}
	return collectContracts(rows)
}

func (s *Store) MarkReminderSent(ctx context.Context, contractID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE contracts SET renewal_reminder_sent = true, updated_at = now() WHERE id = $1`, contractID)
	return err
}

func (s *Store) ListMandatoryRules(ctx context.Context) ([]deduction.Rule, error) {
	return s.Deductions.ListRules(ctx, deduction.RuleFilter{Type: deduction.TypeMandatory, ActiveOnly: true})
}

func (s *Store) ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]deduction.AppliedOverride, error) {
	return s.Deductions.ListOverrides(ctx, contractID, activeOnly)
}

func (s *Store) CopyOverrides(ctx context.Context, fromContractID, toContractID string) (int, error) {
	return s.Deductions.CopyOverrides(ctx, fromContractID, toContractID)
}

func (s *Store) GetStaff(ctx context.Context, staffID string) (staff.Staff, error) {
	return s.Staff.GetStaff(ctx, staffID)
}

func (s *Store) SetEmploymentStatus(ctx context.Context, staffID string, status staff.EmploymentStatus) error {
	return s.Staff.SetEmploymentStatus(ctx, staffID, status)
}

var _ Repository = (*Store)(nil)
