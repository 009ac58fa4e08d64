package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrpay/internal/domain/contract"
	"hrpay/internal/platform/querier"
)

// Store persists payrolls on top of the contract store, which supplies staff,
// contracts, rules and overrides on the same connection.
type Store struct {
	*contract.Store
}

func NewStore(db querier.Querier) *Store {
	return &Store{Store: contract.NewStore(db)}
}

func (s *Store) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return querier.InTx(ctx, s.DB, func(tx querier.Querier) error {
		return fn(NewStore(tx))
	})
}

const payrollColumns = `id, staff_id, contract_id, pay_period_start, pay_period_end, gross_salary, total_deductions, net_salary,
           breakdown_json, warnings_json, kra_pin, bank_name, bank_branch, bank_branch_code, account_no, generated_at`

func scanPayroll(row pgx.Row) (Payroll, error) {
	var p Payroll
	var breakdown, warnings []byte
	err := row.Scan(&p.ID, &p.StaffID, &p.ContractID, &p.PayPeriodStart, &p.PayPeriodEnd, &p.GrossSalary, &p.TotalDeductions, &p.NetSalary,
		&breakdown, &warnings, &p.KRAPin, &p.BankName, &p.BankBranch, &p.BankBranchCode, &p.AccountNo, &p.GeneratedAt)
	if err != nil {
		return Payroll{}, err
	}
	if err := json.Unmarshal(breakdown, &p.Breakdown); err != nil {
		return Payroll{}, err
	}
	if err := json.Unmarshal(warnings, &p.Warnings); err != nil {
		return Payroll{}, err
	}
	return p, nil
}

// InsertPayroll relies on the (staff_id, pay_period_start, pay_period_end) unique
// index so that concurrent generators cannot both insert.
func (s *Store) InsertPayroll(ctx context.Context, p Payroll) (Payroll, error) {
	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return Payroll{}, err
	}
	warnings, err := json.Marshal(p.Warnings)
	if err != nil {
		return Payroll{}, err
	}
	created, err := scanPayroll(s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (staff_id, contract_id, pay_period_start, pay_period_end, gross_salary, total_deductions, net_salary,
                          breakdown_json, warnings_json, kra_pin, bank_name, bank_branch, bank_branch_code, account_no, generated_at)
    VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8,$9,$10,$11,$12,$13,$14,$15)
    ON CONFLICT (staff_id, pay_period_start, pay_period_end) DO NOTHING
    RETURNING `+payrollColumns,
		p.StaffID, p.ContractID, p.PayPeriodStart, p.PayPeriodEnd, p.GrossSalary, p.TotalDeductions, p.NetSalary,
		breakdown, warnings, p.KRAPin, p.BankName, p.BankBranch, p.BankBranchCode, p.AccountNo, p.GeneratedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrDuplicatePayslip
	}
	if err != nil {
		return Payroll{}, err
	}
	return created, nil
}

func (s *Store) GetPayroll(ctx context.Context, payrollID string) (Payroll, error) {
	p, err := scanPayroll(s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE id = $1
  `, payrollID))
	if err != nil {
		return Payroll{}, querier.MapError(err, "payroll")
	}
	return p, nil
}

func (s *Store) ListPayrollsByStaff(ctx context.Context, staffID string) ([]Payroll, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls
    WHERE staff_id = $1
    ORDER BY pay_period_start DESC
  `, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PayrollExists(ctx context.Context, staffID string, start, end time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM payrolls
      WHERE staff_id = $1 AND pay_period_start = $2 AND pay_period_end = $3
    )
  `, staffID, start, end).Scan(&exists)
	return exists, err
}

var _ Repository = (*Store)(nil)
