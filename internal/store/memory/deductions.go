package memory

import (
	"context"
	"errors"
	"sort"

	"hrpay/internal/domain/deduction"
	"hrpay/internal/platform/apperr"
)

func (r repo) ListRules(_ context.Context, filter deduction.RuleFilter) ([]deduction.Rule, error) {
	defer r.lock()()
	var out []deduction.Rule
	for _, rule := range r.s.data.rules {
		if filter.Type != "" && rule.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !rule.IsActive {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r repo) GetRule(_ context.Context, ruleID string) (deduction.Rule, error) {
	defer r.lock()()
	rule, ok := r.s.data.rules[ruleID]
	if !ok {
		return deduction.Rule{}, apperr.NotFound("deduction rule")
	}
	return rule, nil
}

func (r repo) duplicateRule(rule deduction.Rule) bool {
	for id, existing := range r.s.data.rules {
		if id != rule.ID && existing.Name == rule.Name && existing.Percentage.Equal(rule.Percentage) {
			return true
		}
	}
	return false
}

func (r repo) InsertRule(_ context.Context, rule deduction.Rule) (deduction.Rule, error) {
	defer r.lock()()
	rule.ID = newID()
	if r.duplicateRule(rule) {
		return deduction.Rule{}, deduction.ErrDuplicateRule
	}
	rule.CreatedAt = r.now()
	rule.UpdatedAt = rule.CreatedAt
	r.s.data.rules[rule.ID] = rule
	return rule, nil
}

func (r repo) UpdateRule(_ context.Context, rule deduction.Rule) (deduction.Rule, error) {
	defer r.lock()()
	current, ok := r.s.data.rules[rule.ID]
	if !ok {
		return deduction.Rule{}, apperr.NotFound("deduction rule")
	}
	if r.duplicateRule(rule) {
		return deduction.Rule{}, deduction.ErrDuplicateRule
	}
	rule.CreatedAt = current.CreatedAt
	rule.UpdatedAt = r.now()
	r.s.data.rules[rule.ID] = rule
	return rule, nil
}

func (r repo) CountOverridesForRule(_ context.Context, ruleID string) (int, error) {
	defer r.lock()()
	count := 0
	for _, o := range r.s.data.overrides {
		if o.RuleID == ruleID {
			count++
		}
	}
	return count, nil
}

func (r repo) ContractExists(_ context.Context, contractID string) (bool, error) {
	defer r.lock()()
	_, ok := r.s.data.contracts[contractID]
	return ok, nil
}

func (r repo) ListOverrides(_ context.Context, contractID string, activeOnly bool) ([]deduction.AppliedOverride, error) {
	defer r.lock()()
	var out []deduction.AppliedOverride
	for _, o := range r.s.data.overrides {
		if o.ContractID != contractID || (activeOnly && !o.IsActive) {
			continue
		}
		out = append(out, deduction.AppliedOverride{Override: o, Rule: r.s.data.rules[o.RuleID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule.Name < out[j].Rule.Name })
	return out, nil
}

func (r repo) GetOverride(_ context.Context, overrideID string) (deduction.Override, error) {
	defer r.lock()()
	o, ok := r.s.data.overrides[overrideID]
	if !ok {
		return deduction.Override{}, apperr.NotFound("contract deduction override")
	}
	return o, nil
}

func (r repo) insertOverrideLocked(o deduction.Override) (deduction.Override, error) {
	if _, ok := r.s.data.contracts[o.ContractID]; !ok {
		return deduction.Override{}, apperr.NotFound("contract")
	}
	if _, ok := r.s.data.rules[o.RuleID]; !ok {
		return deduction.Override{}, apperr.NotFound("deduction rule")
	}
	for _, existing := range r.s.data.overrides {
		if existing.ContractID == o.ContractID && existing.RuleID == o.RuleID {
			return deduction.Override{}, deduction.ErrDuplicateOverride
		}
	}
	o.ID = newID()
	o.CreatedAt = r.now()
	o.UpdatedAt = o.CreatedAt
	r.s.data.overrides[o.ID] = o
	return o, nil
}

func (r repo) InsertOverride(_ context.Context, o deduction.Override) (deduction.Override, error) {
	defer r.lock()()
	return r.insertOverrideLocked(o)
}

func (r repo) UpdateOverride(_ context.Context, o deduction.Override) (deduction.Override, error) {
	defer r.lock()()
	current, ok := r.s.data.overrides[o.ID]
	if !ok {
		return deduction.Override{}, apperr.NotFound("contract deduction override")
	}
	current.CustomPercentage = o.CustomPercentage
	current.FixedAmount = o.FixedAmount
	current.IsActive = o.IsActive
	current.UpdatedAt = r.now()
	r.s.data.overrides[o.ID] = current
	return current, nil
}

func (r repo) DeleteOverride(_ context.Context, overrideID string) error {
	defer r.lock()()
	if _, ok := r.s.data.overrides[overrideID]; !ok {
		return apperr.NotFound("contract deduction override")
	}
	delete(r.s.data.overrides, overrideID)
	return nil
}

func (r repo) CopyOverrides(_ context.Context, fromContractID, toContractID string) (int, error) {
	defer r.lock()()
	var source []deduction.Override
	for _, o := range r.s.data.overrides {
		if o.ContractID == fromContractID && o.IsActive {
			source = append(source, o)
		}
	}
	copied := 0
	for _, o := range source {
		o.ContractID = toContractID
		if _, err := r.insertOverrideLocked(o); err != nil {
			if errors.Is(err, deduction.ErrDuplicateOverride) {
				continue
			}
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func (r repo) ListMandatoryRules(ctx context.Context) ([]deduction.Rule, error) {
	return r.ListRules(ctx, deduction.RuleFilter{Type: deduction.TypeMandatory, ActiveOnly: true})
}
