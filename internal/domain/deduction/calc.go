package deduction

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Money rounds to the two decimal places every stored amount carries.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func percentOf(salary, percentage decimal.Decimal) decimal.Decimal {
	return salary.Mul(percentage).Div(hundred)
}

// ResolveRuleAmount returns what rule deducts from salary. The cap applies to the
// percentage-derived amount only.
func ResolveRuleAmount(rule Rule, salary decimal.Decimal) decimal.Decimal {
	if !rule.IsActive {
		return decimal.Zero
	}
	if salary.LessThan(rule.MinSalaryThreshold) {
		return decimal.Zero
	}
	amount := percentOf(salary, rule.Percentage)
	if rule.MaxAmount.Valid {
		amount = decimal.Min(amount, rule.MaxAmount.Decimal)
	}
	return Money(amount)
}

// ResolveOverrideAmount ignores the underlying rule's percentage, cap and threshold.
func ResolveOverrideAmount(o Override, salary decimal.Decimal) decimal.Decimal {
	if !o.IsActive {
		return decimal.Zero
	}
	if o.CustomPercentage.Valid {
		return Money(percentOf(salary, o.CustomPercentage.Decimal))
	}
	if o.FixedAmount.Valid {
		return Money(o.FixedAmount.Decimal)
	}
	return decimal.Zero
}
