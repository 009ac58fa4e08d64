package server

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/store/memory"
)

type AuditLog interface {
	audit.Recorder
	audit.Reader
}

// Stores is the persistence backing one App.
type Stores struct {
	Deductions deduction.Repository
	Staff      staff.Repository
	Contracts  contract.Repository
	Payrolls   payroll.Repository
	Audit      AuditLog
	Runs       jobs.RunStore
	Ping       func(ctx context.Context) error
}

func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Deductions: deduction.NewStore(pool),
		Staff:      staff.NewStore(pool),
		Contracts:  contract.NewStore(pool),
		Payrolls:   payroll.NewStore(pool),
		Audit:      audit.New(pool),
		Runs:       jobs.NewStore(pool),
		Ping:       pool.Ping,
	}
}

func MemoryStores(store *memory.Store) Stores {
	return Stores{
		Deductions: store.Deductions(),
		Staff:      store.Staff(),
		Contracts:  store.Contracts(),
		Payrolls:   store.Payrolls(),
		Audit:      store.Audit(),
		Runs:       store.Jobs(),
		Ping:       func(context.Context) error { return nil },
	}
}
