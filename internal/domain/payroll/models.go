package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/staff"
)

const (
	WarningMissingBank = "missing_bank_account"
	WarningNegativeNet = "negative_net"
)

// Payroll is an immutable payslip. Amounts and Breakdown are computed once at
// generation and never recomputed.
type Payroll struct {
	ID              string           `json:"id"`
	StaffID         string           `json:"staffId"`
	ContractID      string           `json:"contractId"`
	PayPeriodStart  time.Time        `json:"payPeriodStart"`
	PayPeriodEnd    time.Time        `json:"payPeriodEnd"`
	GrossSalary     decimal.Decimal  `json:"grossSalary"`
	TotalDeductions decimal.Decimal  `json:"totalDeductions"`
	NetSalary       decimal.Decimal  `json:"netSalary"`
	Breakdown       contract.Summary `json:"breakdown"`
	Warnings        []string         `json:"warnings"`
	KRAPin          string           `json:"kraPin,omitempty"`
	staff.BankDetails
	GeneratedAt time.Time `json:"generatedAt"`
}

type GenerateRequest struct {
	StaffID       string
	ContractID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	GrossOverride decimal.NullDecimal
	KRAPin        string
	Bank          *staff.BankDetails
}

// Payslip is what a document renderer needs for one payroll.
type Payslip struct {
	Payroll
	StaffName    string        `json:"staffName"`
	StaffUID     string        `json:"staffUniqueId"`
	JobTitle     string        `json:"jobTitle"`
	ContractType contract.Type `json:"contractType"`
}

type RunResult struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Created     int       `json:"created"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Errors      []string  `json:"errors,omitempty"`
}

// MonthPeriod returns the first and last day of the month containing t.
func MonthPeriod(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
