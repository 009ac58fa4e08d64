package contract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/deduction"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mandatory(name, pct string) deduction.Rule {
	return deduction.Rule{Name: name, Percentage: dec(pct), Type: deduction.TypeMandatory, IsActive: true}
}

func fixedOverride(ruleName, amount string) deduction.AppliedOverride {
	return deduction.AppliedOverride{
		Override: deduction.Override{FixedAmount: decimal.NewNullDecimal(dec(amount)), IsActive: true},
		Rule:     deduction.Rule{Name: ruleName, Type: deduction.TypeLoan, Percentage: dec("10"), IsActive: true},
	}
}

func TestMandatoryRuleWithFixedOverride(t *testing.T) {
	salary := dec("40000.00")
	rules := []deduction.Rule{mandatory("NSSF", "6.00")}
	overrides := []deduction.AppliedOverride{fixedOverride("Staff loan", "1500.00")}

	assert.Equal(t, "3900.00", TotalDeductions(salary, rules, overrides).StringFixed(2))
	assert.Equal(t, "36100.00", NetSalary(salary, rules, overrides).StringFixed(2))
}

func TestVoluntaryRulesOnlyApplyThroughOverrides(t *testing.T) {
	voluntary := deduction.Rule{Name: "Sacco", Percentage: dec("5"), Type: deduction.TypeVoluntary, IsActive: true}
	inactive := mandatory("Old levy", "3")
	inactive.IsActive = false

	total := TotalDeductions(dec("10000"), []deduction.Rule{voluntary, inactive}, nil)
	assert.True(t, total.IsZero())
}

func TestNetSalaryIsNotClamped(t *testing.T) {
	salary := dec("1000.00")
	overrides := []deduction.AppliedOverride{fixedOverride("Advance", "1500.00")}

	sum := Summarize(salary, nil, overrides)
	assert.Equal(t, "-500.00", sum.NetSalary.StringFixed(2))
	assert.True(t, sum.NegativeNet)
	assert.Equal(t, "-500.00", NetSalary(salary, nil, overrides).StringFixed(2))
}

func TestBreakdownOrderAndZeroFiltering(t *testing.T) {
	salary := dec("20000.00")
	threshold := mandatory("Housing levy", "1.5")
	threshold.MinSalaryThreshold = dec("50000")
	rules := []deduction.Rule{mandatory("PAYE", "10"), threshold, mandatory("NHIF", "2.75")}
	zero := fixedOverride("Welfare", "0")
	pct := deduction.AppliedOverride{
		Override: deduction.Override{CustomPercentage: decimal.NewNullDecimal(dec("2")), IsActive: true},
		Rule:     deduction.Rule{Name: "Pension top-up", Type: deduction.TypeVoluntary},
	}
	overrides := []deduction.AppliedOverride{fixedOverride("Staff loan", "700"), zero, pct}

	lines := Breakdown(salary, rules, overrides)
	require.Len(t, lines, 4)

	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"NHIF", "PAYE", "Pension top-up", "Staff loan"}, names)

	assert.Equal(t, deduction.TypeMandatory, lines[0].Category)
	assert.Equal(t, "550.00", lines[0].Amount.StringFixed(2))
	assert.True(t, lines[0].Percentage.Valid)

	assert.Equal(t, deduction.OverridePercentage, lines[2].OverrideType)
	assert.Equal(t, "400.00", lines[2].Amount.StringFixed(2))
	assert.Equal(t, deduction.OverrideFixed, lines[3].OverrideType)
	assert.Equal(t, deduction.TypeLoan, lines[3].Category)
}

func TestSummarizeTotalsMatchLines(t *testing.T) {
	salary := dec("33333.33")
	rules := []deduction.Rule{mandatory("A", "3.33"), mandatory("B", "7.77")}

	sum := Summarize(salary, rules, nil)
	total := decimal.Zero
	for _, l := range sum.Lines() {
		total = total.Add(l.Amount)
	}
	assert.True(t, total.Equal(sum.TotalDeductions))
	assert.True(t, sum.Salary.Sub(sum.TotalDeductions).Equal(sum.NetSalary))
	assert.Empty(t, sum.Optional)
}
