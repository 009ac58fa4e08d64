package payroll_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
	"hrpay/internal/store/memory"
)

var (
	today       = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	periodStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

type env struct {
	store      *memory.Store
	staff      *staff.Service
	contracts  *contract.Service
	deductions *deduction.Service
	payroll    *payroll.Service
	dept       staff.Department
}

type runCounter struct{ created, skipped, failed int }

func (c *runCounter) RecordPayrollRun(created, skipped, failed int) {
	c.created, c.skipped, c.failed = created, skipped, failed
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return today.Add(10 * time.Hour) }
	e := &env{
		store:      store,
		staff:      staff.NewService(store.Staff(), nil),
		contracts:  contract.NewService(store.Contracts(), nil, nil, nil).WithClock(clock),
		deductions: deduction.NewService(store.Deductions(), nil),
		payroll:    payroll.NewService(store.Payrolls(), store.Audit(), nil, 3).WithClock(clock),
	}
	var err error
	e.dept, err = e.staff.CreateDepartment(context.Background(), staff.Department{Name: "Finance", Code: "FIN"})
	require.NoError(t, err)
	return e
}

func (e *env) hire(t *testing.T, name, nationalID string, salary int64, bank staff.BankDetails) (staff.Staff, contract.Contract) {
	t.Helper()
	ctx := context.Background()
	member, err := e.staff.Create(ctx, staff.Staff{
		FirstName: name, LastName: "Mutua", Email: nationalID + "@example.com", NationalID: nationalID,
		DepartmentID: e.dept.ID, EmploymentDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		KRAPin: "A123456789Z", BankDetails: bank,
	})
	require.NoError(t, err)
	c, err := e.contracts.Create(ctx, contract.Contract{
		StaffID: member.ID, JobTitle: "Accountant", Type: contract.TypePermanent,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Salary: decimal.NewFromInt(salary),
	})
	require.NoError(t, err)
	return member, c
}

func (e *env) rule(t *testing.T, name string, percentage int64, typ deduction.Type) deduction.Rule {
	t.Helper()
	r, err := e.deductions.CreateRule(context.Background(), deduction.Rule{Name: name, Percentage: decimal.NewFromInt(percentage), Type: typ, IsActive: true})
	require.NoError(t, err)
	return r
}

var bank = staff.BankDetails{BankName: "KCB", BankBranch: "Moi Avenue", BankBranchCode: "01100", AccountNo: "1100223344"}

func TestGenerateRejectsDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.rule(t, "NSSF", 6, deduction.TypeMandatory)
	member, c := e.hire(t, "Jane", "11112222", 40000, bank)

	first, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)
	assert.Equal(t, c.ID, first.ContractID)
	assert.Equal(t, "40000.00", first.GrossSalary.StringFixed(2))
	assert.Equal(t, "2400.00", first.TotalDeductions.StringFixed(2))
	assert.Equal(t, "37600.00", first.NetSalary.StringFixed(2))
	assert.Equal(t, "A123456789Z", first.KRAPin)
	assert.Equal(t, "1100223344", first.AccountNo)
	assert.Empty(t, first.Warnings)

	_, err = e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayslip)

	payrolls, err := e.payroll.ListByStaff(ctx, member.ID)
	require.NoError(t, err)
	assert.Len(t, payrolls, 1)
}

func TestGenerateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	member, _ := e.hire(t, "Jane", "11112222", 40000, bank)

	tests := []struct {
		name string
		req  payroll.GenerateRequest
	}{
		{"missing staff", payroll.GenerateRequest{PeriodStart: periodStart, PeriodEnd: periodEnd}},
		{"end before start", payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodEnd, PeriodEnd: periodStart}},
		{"negative gross", payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, GrossOverride: decimal.NewNullDecimal(decimal.NewFromInt(-1))}},
		{"bad kra pin", payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, KRAPin: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.payroll.Generate(ctx, tt.req)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestGenerateWithoutActiveContract(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	member, c := e.hire(t, "Jane", "11112222", 40000, bank)
	require.NoError(t, e.contracts.Delete(ctx, c.ID))

	_, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	assert.ErrorIs(t, err, payroll.ErrNoActiveContract)
}

func TestGenerateRejectsAnotherStaffMembersContract(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	jane, _ := e.hire(t, "Jane", "11112222", 40000, bank)
	_, other := e.hire(t, "Peter", "33334444", 30000, bank)

	_, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: jane.ID, ContractID: other.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestPayslipKeepsSnapshotAfterRuleChange(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	nssf := e.rule(t, "NSSF", 6, deduction.TypeMandatory)
	member, _ := e.hire(t, "Jane", "11112222", 40000, bank)

	generated, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)

	nssf.Percentage = decimal.NewFromInt(12)
	_, err = e.deductions.UpdateRule(ctx, nssf)
	require.NoError(t, err)

	stored, err := e.payroll.Get(ctx, generated.ID)
	require.NoError(t, err)
	assert.Equal(t, "2400.00", stored.TotalDeductions.StringFixed(2))
	require.Len(t, stored.Breakdown.Mandatory, 1)
	assert.Equal(t, "6", stored.Breakdown.Mandatory[0].Percentage.Decimal.String())

	july, err := e.payroll.Generate(ctx, payroll.GenerateRequest{
		StaffID: member.ID, PeriodStart: periodStart.AddDate(0, 1, 0), PeriodEnd: time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "4800.00", july.TotalDeductions.StringFixed(2))
}

func TestGenerateOverridesAndWarnings(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.rule(t, "PAYE", 30, deduction.TypeMandatory)
	loan := e.rule(t, "Salary advance", 10, deduction.TypeLoan)
	member, c := e.hire(t, "Jane", "11112222", 40000, staff.BankDetails{})
	_, err := e.deductions.CreateOverride(ctx, deduction.Override{ContractID: c.ID, RuleID: loan.ID, FixedAmount: decimal.NewNullDecimal(decimal.NewFromInt(15000)), IsActive: true})
	require.NoError(t, err)

	p, err := e.payroll.Generate(ctx, payroll.GenerateRequest{
		StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd,
		GrossOverride: decimal.NewNullDecimal(decimal.NewFromInt(20000)),
	})
	require.NoError(t, err)

	assert.Equal(t, "20000.00", p.GrossSalary.StringFixed(2))
	assert.Equal(t, "21000.00", p.TotalDeductions.StringFixed(2))
	assert.Equal(t, "-1000.00", p.NetSalary.StringFixed(2))
	assert.ElementsMatch(t, []string{payroll.WarningNegativeNet, payroll.WarningMissingBank}, p.Warnings)

	withBank, err := e.payroll.Generate(ctx, payroll.GenerateRequest{
		StaffID: member.ID, PeriodStart: periodStart.AddDate(0, 1, 0), PeriodEnd: time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		Bank: &bank, KRAPin: "P000111222Q",
	})
	require.NoError(t, err)
	assert.Equal(t, "KCB", withBank.BankName)
	assert.Equal(t, "P000111222Q", withBank.KRAPin)
	assert.NotContains(t, withBank.Warnings, payroll.WarningMissingBank)
}

func TestRunMonthly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	counter := &runCounter{}
	e.payroll.WithObserver(counter)
	e.rule(t, "NSSF", 6, deduction.TypeMandatory)
	jane, _ := e.hire(t, "Jane", "11112222", 40000, bank)
	e.hire(t, "Peter", "33334444", 30000, bank)
	e.hire(t, "Mary", "55556666", 50000, bank)

	_, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: jane.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)

	result, err := e.payroll.RunMonthly(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, periodStart, result.PeriodStart)
	assert.Equal(t, periodEnd, result.PeriodEnd)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Equal(t, runCounter{created: 2, skipped: 1}, *counter)

	again, err := e.payroll.RunMonthly(ctx, today)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 3, again.Skipped)
}

func TestRenderPDF(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.rule(t, "NSSF", 6, deduction.TypeMandatory)
	member, _ := e.hire(t, "Jane", "11112222", 40000, bank)
	p, err := e.payroll.Generate(ctx, payroll.GenerateRequest{StaffID: member.ID, PeriodStart: periodStart, PeriodEnd: periodEnd})
	require.NoError(t, err)

	slip, err := e.payroll.Payslip(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Mutua", slip.StaffName)
	assert.Equal(t, "Accountant", slip.JobTitle)
	assert.Equal(t, member.UniqueID, slip.StaffUID)

	var buf bytes.Buffer
	require.NoError(t, e.payroll.RenderPDF(ctx, p.ID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	err = e.payroll.RenderPDF(ctx, "missing", &buf)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMonthPeriod(t *testing.T) {
	start, end := payroll.MonthPeriod(time.Date(2024, 2, 17, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)
}
