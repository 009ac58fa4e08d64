package contract

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/deduction"
)

type Type string

const (
	TypePermanent Type = "PERMANENT"
	TypeLocum     Type = "LOCUM"
	TypeCasual    Type = "CASUAL"
)

func (t Type) Valid() bool {
	switch t {
	case TypePermanent, TypeLocum, TypeCasual:
		return true
	}
	return false
}

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
	StatusRenewed    Status = "RENEWED"
	StatusPending    Status = "PENDING"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusTerminated, StatusRenewed, StatusPending:
		return true
	}
	return false
}

// Terminal statuses are never rewritten by date checks.
func (s Status) Terminal() bool {
	return s == StatusTerminated || s == StatusRenewed
}

type Contract struct {
	ID                  string          `json:"id"`
	StaffID             string          `json:"staffId"`
	DepartmentID        string          `json:"departmentId,omitempty"`
	JobTitle            string          `json:"jobTitle"`
	Type                Type            `json:"contractType"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             *time.Time      `json:"endDate"`
	Salary              decimal.Decimal `json:"salary"`
	Status              Status          `json:"status"`
	RenewalReminderSent bool            `json:"renewalReminderSent"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Renewal records one renewal: ContractID is the superseded contract.
type Renewal struct {
	ID              string     `json:"id"`
	ContractID      string     `json:"contractId"`
	NewContractID   string     `json:"newContractId"`
	PreviousEndDate *time.Time `json:"previousEndDate"`
	NewEndDate      *time.Time `json:"newEndDate"`
	RenewedBy       string     `json:"renewedBy"`
	RenewedAt       time.Time  `json:"renewedAt"`
}

type RenewRequest struct {
	NewEndDate *time.Time
	Salary     decimal.NullDecimal
	JobTitle   string
	ActorID    string
}

// Line is one non-zero entry of a deduction breakdown. Percentage is set for
// rule-derived lines, OverrideType for override lines.
type Line struct {
	Name         string                 `json:"name"`
	Category     deduction.Type         `json:"category"`
	Percentage   decimal.NullDecimal    `json:"percentage"`
	OverrideType deduction.OverrideType `json:"overrideType,omitempty"`
	Amount       decimal.Decimal        `json:"amount"`
}

type Summary struct {
	Salary          decimal.Decimal `json:"salary"`
	Mandatory       []Line          `json:"mandatory"`
	Optional        []Line          `json:"optional"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
	NegativeNet     bool            `json:"negativeNet"`
}

// Lines returns the mandatory lines followed by the optional ones.
func (s Summary) Lines() []Line {
	out := make([]Line, 0, len(s.Mandatory)+len(s.Optional))
	out = append(out, s.Mandatory...)
	return append(out, s.Optional...)
}

type SweepResult struct {
	Expired  int `json:"expired"`
	Reminded int `json:"reminded"`
	Failed   int `json:"failed"`
}
