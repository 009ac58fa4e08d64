package contract

import (
	"sort"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/deduction"
)

func mandatoryRules(rules []deduction.Rule) []deduction.Rule {
	out := make([]deduction.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Type == deduction.TypeMandatory && r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func activeOverrides(overrides []deduction.AppliedOverride) []deduction.AppliedOverride {
	out := make([]deduction.AppliedOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.IsActive {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rule.Name < out[j].Rule.Name })
	return out
}

// TotalDeductions sums the mandatory rules and the contract's overrides for salary.
// Rules that are not active MANDATORY rules are ignored; voluntary and loan rules
// only ever apply through an override.
func TotalDeductions(salary decimal.Decimal, rules []deduction.Rule, overrides []deduction.AppliedOverride) decimal.Decimal {
	total := decimal.Zero
	for _, r := range mandatoryRules(rules) {
		total = total.Add(deduction.ResolveRuleAmount(r, salary))
	}
	for _, o := range activeOverrides(overrides) {
		total = total.Add(deduction.ResolveOverrideAmount(o.Override, salary))
	}
	return deduction.Money(total)
}

// NetSalary is the raw signed difference; a negative result is not clamped.
func NetSalary(salary decimal.Decimal, rules []deduction.Rule, overrides []deduction.AppliedOverride) decimal.Decimal {
	return deduction.Money(salary.Sub(TotalDeductions(salary, rules, overrides)))
}

func Breakdown(salary decimal.Decimal, rules []deduction.Rule, overrides []deduction.AppliedOverride) []Line {
	return Summarize(salary, rules, overrides).Lines()
}

func Summarize(salary decimal.Decimal, rules []deduction.Rule, overrides []deduction.AppliedOverride) Summary {
	sum := Summary{
		Salary:    deduction.Money(salary),
		Mandatory: []Line{},
		Optional:  []Line{},
	}
	total := decimal.Zero
	for _, r := range mandatoryRules(rules) {
		amount := deduction.ResolveRuleAmount(r, salary)
		if amount.IsZero() {
			continue
		}
		total = total.Add(amount)
		sum.Mandatory = append(sum.Mandatory, Line{
			Name:       r.Name,
			Category:   r.Type,
			Percentage: decimal.NewNullDecimal(r.Percentage),
			Amount:     amount,
		})
	}
	for _, o := range activeOverrides(overrides) {
		amount := deduction.ResolveOverrideAmount(o.Override, salary)
		if amount.IsZero() {
			continue
		}
		total = total.Add(amount)
		sum.Optional = append(sum.Optional, Line{
			Name:         o.Rule.Name,
			Category:     o.Rule.Type,
			Percentage:   o.CustomPercentage,
			OverrideType: o.OverrideType(),
			Amount:       amount,
		})
	}
	sum.TotalDeductions = deduction.Money(total)
	sum.NetSalary = deduction.Money(salary.Sub(sum.TotalDeductions))
	sum.NegativeNet = sum.NetSalary.IsNegative()
	return sum
}
