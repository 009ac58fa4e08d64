package deduction

import (
	"context"
	"log/slog"

	"hrpay/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListRules(ctx context.Context, filter RuleFilter) ([]Rule, error) {
	return s.repo.ListRules(ctx, filter)
}

func (s *Service) GetRule(ctx context.Context, ruleID string) (Rule, error) {
	return s.repo.GetRule(ctx, ruleID)
}

func (s *Service) CreateRule(ctx context.Context, rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	created, err := s.repo.InsertRule(ctx, rule)
	if err != nil {
		return Rule{}, err
	}
	s.logger.Info("deduction rule created", "ruleId", created.ID, "name", created.Name, "type", created.Type)
	return created, nil
}

// UpdateRule only affects payslips generated afterwards; existing payslips keep their snapshot.
func (s *Service) UpdateRule(ctx context.Context, rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	var updated Rule
	err := s.repo.InTx(ctx, func(repo Repository) error {
		current, err := repo.GetRule(ctx, rule.ID)
		if err != nil {
			return err
		}
		if current.Type != rule.Type && rule.Type == TypeMandatory {
			overrides, err := repo.CountOverridesForRule(ctx, rule.ID)
			if err != nil {
				return err
			}
			if overrides > 0 {
				return apperr.Validation("deduction_type", "rule has contract overrides and cannot become mandatory")
			}
		}
		updated, err = repo.UpdateRule(ctx, rule)
		return err
	})
	if err != nil {
		return Rule{}, err
	}
	return updated, nil
}

func (s *Service) ListOverrides(ctx context.Context, contractID string) ([]AppliedOverride, error) {
	return s.repo.ListOverrides(ctx, contractID, false)
}

func (s *Service) CreateOverride(ctx context.Context, override Override) (AppliedOverride, error) {
	if err := override.Validate(); err != nil {
		return AppliedOverride{}, err
	}
	var out AppliedOverride
	err := s.repo.InTx(ctx, func(repo Repository) error {
		exists, err := repo.ContractExists(ctx, override.ContractID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("contract")
		}
		rule, err := repo.GetRule(ctx, override.RuleID)
		if err != nil {
			return err
		}
		if err := ValidateTarget(rule); err != nil {
			return err
		}
		created, err := repo.InsertOverride(ctx, override)
		if err != nil {
			return err
		}
		out = AppliedOverride{Override: created, Rule: rule}
		return nil
	})
	if err != nil {
		return AppliedOverride{}, err
	}
	return out, nil
}

// UpdateOverride replaces the amount fields and active flag; contract and rule stay fixed.
func (s *Service) UpdateOverride(ctx context.Context, override Override) (AppliedOverride, error) {
	if err := override.Validate(); err != nil {
		return AppliedOverride{}, err
	}
	var out AppliedOverride
	err := s.repo.InTx(ctx, func(repo Repository) error {
		current, err := repo.GetOverride(ctx, override.ID)
		if err != nil {
			return err
		}
		if override.ContractID != "" && override.ContractID != current.ContractID {
			return apperr.NotFound("contract deduction override")
		}
		current.CustomPercentage = override.CustomPercentage
		current.FixedAmount = override.FixedAmount
		current.IsActive = override.IsActive
		updated, err := repo.UpdateOverride(ctx, current)
		if err != nil {
			return err
		}
		rule, err := repo.GetRule(ctx, updated.RuleID)
		if err != nil {
			return err
		}
		out = AppliedOverride{Override: updated, Rule: rule}
		return nil
	})
	if err != nil {
		return AppliedOverride{}, err
	}
	return out, nil
}

func (s *Service) DeleteOverride(ctx context.Context, contractID, overrideID string) error {
	return s.repo.InTx(ctx, func(repo Repository) error {
		current, err := repo.GetOverride(ctx, overrideID)
		if err != nil {
			return err
		}
		if contractID != "" && current.ContractID != contractID {
			return apperr.NotFound("contract deduction override")
		}
		return repo.DeleteOverride(ctx, overrideID)
	})
}
