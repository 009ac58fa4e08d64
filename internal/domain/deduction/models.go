package deduction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeMandatory Type = "MANDATORY"
	TypeVoluntary Type = "VOLUNTARY"
	TypeLoan      Type = "LOAN"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMandatory, TypeVoluntary, TypeLoan:
		return true
	}
	return false
}

type OverrideType string

const (
	OverridePercentage OverrideType = "PERCENTAGE"
	OverrideFixed      OverrideType = "FIXED"
)

type Rule struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Percentage         decimal.Decimal     `json:"percentage"`
	Type               Type                `json:"deductionType"`
	MinSalaryThreshold decimal.Decimal     `json:"minSalaryThreshold"`
	MaxAmount          decimal.NullDecimal `json:"maxAmount"`
	IsActive           bool                `json:"isActive"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Override replaces a voluntary or loan rule for one contract.
type Override struct {
	ID               string              `json:"id"`
	ContractID       string              `json:"contractId"`
	RuleID           string              `json:"deductionId"`
	CustomPercentage decimal.NullDecimal `json:"customPercentage"`
	FixedAmount      decimal.NullDecimal `json:"fixedAmount"`
	IsActive         bool                `json:"isActive"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func (o Override) OverrideType() OverrideType {
	if o.CustomPercentage.Valid {
		return OverridePercentage
	}
	return OverrideFixed
}

// AppliedOverride pairs an override with the rule it replaces.
type AppliedOverride struct {
	Override
	Rule Rule `json:"deduction"`
}

type RuleFilter struct {
	Type       Type
	ActiveOnly bool
}
