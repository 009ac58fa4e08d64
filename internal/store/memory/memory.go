// Package memory is an in-process implementation of every domain repository
// with the same uniqueness, cascade and ordering rules as the Postgres schema.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/jobs"
)

type tables struct {
	rules       map[string]deduction.Rule
	overrides   map[string]deduction.Override
	departments map[string]staff.Department
	staff       map[string]staff.Staff
	accounts    map[string]staff.Account
	contracts   map[string]contract.Contract
	renewals    []contract.Renewal
	payrolls    map[string]payroll.Payroll
	events      []audit.Event
	runs        []jobs.Run
}

func newTables() tables {
	return tables{
		rules:       map[string]deduction.Rule{},
		overrides:   map[string]deduction.Override{},
		departments: map[string]staff.Department{},
		staff:       map[string]staff.Staff{},
		accounts:    map[string]staff.Account{},
		contracts:   map[string]contract.Contract{},
		payrolls:    map[string]payroll.Payroll{},
	}
}

func (t tables) clone() tables {
	return tables{
		rules:       maps.Clone(t.rules),
		overrides:   maps.Clone(t.overrides),
		departments: maps.Clone(t.departments),
		staff:       maps.Clone(t.staff),
		accounts:    maps.Clone(t.accounts),
		contracts:   maps.Clone(t.contracts),
		renewals:    slices.Clone(t.renewals),
		payrolls:    maps.Clone(t.payrolls),
		events:      slices.Clone(t.events),
		runs:        slices.Clone(t.runs),
	}
}

// Store serialises all access behind one mutex. A transaction holds the mutex for
// its whole duration and restores a snapshot when it fails.
type Store struct {
	mu    sync.Mutex
	data  tables
	clock func() time.Time
}

func New() *Store {
	return &Store{data: newTables(), clock: time.Now}
}

// WithClock sets the time used for created and updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.clock = now
	return s
}

func (s *Store) Deductions() Deductions { return Deductions{repo{s: s}} }
func (s *Store) Staff() Staff           { return Staff{repo{s: s}} }
func (s *Store) Contracts() Contracts   { return Contracts{repo{s: s}} }
func (s *Store) Payrolls() Payrolls     { return Payrolls{repo{s: s}} }
func (s *Store) Audit() Audit           { return Audit{repo{s: s}} }
func (s *Store) Jobs() Jobs             { return Jobs{repo{s: s}} }

// repo carries whether the caller already holds the store mutex.
type repo struct {
	s    *Store
	inTx bool
}

func (r repo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r repo) tx(fn func(r repo) error) error {
	if r.inTx {
		return fn(r)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot := r.s.data.clone()
	if err := fn(repo{s: r.s, inTx: true}); err != nil {
		r.s.data = snapshot
		return err
	}
	return nil
}

func (r repo) now() time.Time {
	return r.s.clock().UTC()
}

func newID() string {
	return uuid.NewString()
}

type Deductions struct{ repo }

func (d Deductions) InTx(ctx context.Context, fn func(repo deduction.Repository) error) error {
	return d.tx(func(r repo) error { return fn(Deductions{r}) })
}

type Staff struct{ repo }

func (v Staff) InTx(ctx context.Context, fn func(repo staff.Repository) error) error {
	return v.tx(func(r repo) error { return fn(Staff{r}) })
}

type Contracts struct{ repo }

func (c Contracts) InTx(ctx context.Context, fn func(repo contract.Repository) error) error {
	return c.tx(func(r repo) error { return fn(Contracts{r}) })
}

type Payrolls struct{ repo }

func (p Payrolls) InTx(ctx context.Context, fn func(repo payroll.Repository) error) error {
	return p.tx(func(r repo) error { return fn(Payrolls{r}) })
}

var (
	_ deduction.Repository = Deductions{}
	_ staff.Repository     = Staff{}
	_ contract.Repository  = Contracts{}
	_ payroll.Repository   = Payrolls{}
	_ audit.Recorder       = Audit{}
	_ audit.Reader         = Audit{}
	_ jobs.RunStore        = Jobs{}
)
