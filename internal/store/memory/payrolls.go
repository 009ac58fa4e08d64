package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/apperr"
)

func (r repo) InsertPayroll(_ context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	defer r.lock()()
	for _, existing := range r.s.data.payrolls {
		if existing.StaffID == p.StaffID && existing.PayPeriodStart.Equal(p.PayPeriodStart) && existing.PayPeriodEnd.Equal(p.PayPeriodEnd) {
			return payroll.Payroll{}, payroll.ErrDuplicatePayslip
		}
	}
	p.ID = newID()
	p.Warnings = slices.Clone(p.Warnings)
	r.s.data.payrolls[p.ID] = p
	return p, nil
}

func (r repo) GetPayroll(_ context.Context, payrollID string) (payroll.Payroll, error) {
	defer r.lock()()
	p, ok := r.s.data.payrolls[payrollID]
	if !ok {
		return payroll.Payroll{}, apperr.NotFound("payroll")
	}
	return p, nil
}

func (r repo) ListPayrollsByStaff(_ context.Context, staffID string) ([]payroll.Payroll, error) {
	defer r.lock()()
	var out []payroll.Payroll
	for _, p := range r.s.data.payrolls {
		if p.StaffID == staffID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PayPeriodStart.After(out[j].PayPeriodStart) })
	return out, nil
}

func (r repo) PayrollExists(_ context.Context, staffID string, start, end time.Time) (bool, error) {
	defer r.lock()()
	for _, p := range r.s.data.payrolls {
		if p.StaffID == staffID && p.PayPeriodStart.Equal(start) && p.PayPeriodEnd.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}
