package deduction

import (
	"strings"

	"github.com/shopspring/decimal"

	"hrpay/internal/platform/apperr"
)

var (
	ErrOverrideBothSet    = apperr.Validation("custom_percentage", "specify either custom percentage or fixed amount, not both")
	ErrOverrideNeitherSet = apperr.Validation("custom_percentage", "must specify either custom percentage or fixed amount")
	ErrOverrideMandatory  = apperr.Validation("deduction_id", "only voluntary or loan deductions can be overridden")
	ErrDuplicateOverride  = apperr.Conflict("contract already has an override for this deduction")
	ErrDuplicateRule      = apperr.Conflict("a deduction with this name and percentage already exists")
)

func validPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && !p.GreaterThan(hundred)
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	if !r.Type.Valid() {
		return apperr.Validation("deduction_type", "must be MANDATORY, VOLUNTARY or LOAN")
	}
	if !validPercentage(r.Percentage) {
		return apperr.Validation("percentage", "must be between 0 and 100")
	}
	if r.MinSalaryThreshold.IsNegative() {
		return apperr.Validation("min_salary_threshold", "must not be negative")
	}
	if r.MaxAmount.Valid && r.MaxAmount.Decimal.IsNegative() {
		return apperr.Validation("max_amount", "must not be negative")
	}
	return nil
}

// Validate checks the override fields on their own; ValidateTarget checks the rule it points at.
func (o Override) Validate() error {
	switch {
	case o.CustomPercentage.Valid && o.FixedAmount.Valid:
		return ErrOverrideBothSet
	case !o.CustomPercentage.Valid && !o.FixedAmount.Valid:
		return ErrOverrideNeitherSet
	case o.CustomPercentage.Valid && !validPercentage(o.CustomPercentage.Decimal):
		return apperr.Validation("custom_percentage", "must be between 0 and 100")
	case o.FixedAmount.Valid && o.FixedAmount.Decimal.IsNegative():
		return apperr.Validation("fixed_amount", "must not be negative")
	}
	return nil
}

func ValidateTarget(rule Rule) error {
	if rule.Type != TypeVoluntary && rule.Type != TypeLoan {
		return ErrOverrideMandatory
	}
	return nil
}
