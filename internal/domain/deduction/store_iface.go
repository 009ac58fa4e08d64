package deduction

import "context"

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error)
	GetRule(ctx context.Context, ruleID string) (Rule, error)
	InsertRule(ctx context.Context, rule Rule) (Rule, error)
	UpdateRule(ctx context.Context, rule Rule) (Rule, error)
	CountOverridesForRule(ctx context.Context, ruleID string) (int, error)
	ContractExists(ctx context.Context, contractID string) (bool, error)
	ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]AppliedOverride, error)
	GetOverride(ctx context.Context, overrideID string) (Override, error)
	InsertOverride(ctx context.Context, override Override) (Override, error)
	UpdateOverride(ctx context.Context, override Override) (Override, error)
	DeleteOverride(ctx context.Context, overrideID string) error
}
