package payroll

import (
	"context"
	"time"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/staff"
)

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	GetStaff(ctx context.Context, staffID string) (staff.Staff, error)
	GetContract(ctx context.Context, contractID string) (contract.Contract, error)
	ListContractsByStaff(ctx context.Context, staffID string) ([]contract.Contract, error)
	ListMandatoryRules(ctx context.Context) ([]deduction.Rule, error)
	ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]deduction.AppliedOverride, error)
	// ListContractsActiveDuring returns ACTIVE contracts overlapping [start, end].
	ListContractsActiveDuring(ctx context.Context, start, end time.Time) ([]contract.Contract, error)
	// InsertPayroll returns ErrDuplicatePayslip when the staff member already has a payslip for the period.
	InsertPayroll(ctx context.Context, p Payroll) (Payroll, error)
	GetPayroll(ctx context.Context, payrollID string) (Payroll, error)
	ListPayrollsByStaff(ctx context.Context, staffID string) ([]Payroll, error)
	PayrollExists(ctx context.Context, staffID string, start, end time.Time) (bool, error)
}
