package contract

import (
	"context"
	"time"

	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/staff"
)

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	GetContract(ctx context.Context, contractID string) (Contract, error)
	// LockContract reads the contract and holds its row until the transaction ends.
	LockContract(ctx context.Context, contractID string) (Contract, error)
	ListContractsByStaff(ctx context.Context, staffID string) ([]Contract, error)
	InsertContract(ctx context.Context, c Contract) (Contract, error)
	UpdateContract(ctx context.Context, c Contract) (Contract, error)
	DeleteContract(ctx context.Context, contractID string) error
	InsertRenewal(ctx context.Context, r Renewal) (Renewal, error)
	ListRenewals(ctx context.Context, contractID string) ([]Renewal, error)
	ListContractsToExpire(ctx context.Context, today time.Time) ([]Contract, error)
	ListContractsEndingBetween(ctx context.Context, from, to time.Time) ([]Contract, error)
	MarkReminderSent(ctx context.Context, contractID string) error

	ListMandatoryRules(ctx context.Context) ([]deduction.Rule, error)
	ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]deduction.AppliedOverride, error)
	CopyOverrides(ctx context.Context, fromContractID, toContractID string) (int, error)

	GetStaff(ctx context.Context, staffID string) (staff.Staff, error)
	SetEmploymentStatus(ctx context.Context, staffID string, status staff.EmploymentStatus) error
}
