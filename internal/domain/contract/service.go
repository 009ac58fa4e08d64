package contract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
)

const entityContract = "contract"

type Service struct {
	repo     Repository
	notifier Notifier
	audit    audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, recorder audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{repo: repo, notifier: notifier, audit: recorder, logger: logger, now: time.Now}
}

// WithClock replaces the service's notion of today.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return Day(s.now())
}

func (s *Service) Get(ctx context.Context, contractID string) (Contract, error) {
	return s.repo.GetContract(ctx, contractID)
}

func (s *Service) ListByStaff(ctx context.Context, staffID string) ([]Contract, error) {
	if _, err := s.repo.GetStaff(ctx, staffID); err != nil {
		return nil, err
	}
	return s.repo.ListContractsByStaff(ctx, staffID)
}

// Current returns the staff member's current contract or a not found error.
func (s *Service) Current(ctx context.Context, staffID string) (Contract, error) {
	contracts, err := s.ListByStaff(ctx, staffID)
	if err != nil {
		return Contract{}, err
	}
	current := CurrentContract(contracts)
	if current == nil {
		return Contract{}, apperr.NotFound("active contract")
	}
	return *current, nil
}

func (s *Service) Create(ctx context.Context, c Contract) (Contract, error) {
	c.ID = ""
	c.RenewalReminderSent = false
	if err := Prepare(&c, s.today()); err != nil {
		return Contract{}, err
	}
	var created Contract
	err := s.repo.InTx(ctx, func(repo Repository) error {
		st, err := repo.GetStaff(ctx, c.StaffID)
		if err != nil {
			return err
		}
		if c.DepartmentID == "" {
			c.DepartmentID = st.DepartmentID
		}
		created, err = repo.InsertContract(ctx, c)
		if err != nil {
			return err
		}
		_, err = resync(ctx, repo, created.StaffID, &Change{Contract: created})
		return err
	})
	if err != nil {
		return Contract{}, err
	}
	audit.Best(ctx, s.audit, audit.ActionCreate, entityContract, created.ID, nil, created)
	return created, nil
}

// Update saves c over the stored contract. The owning staff member cannot change.
func (s *Service) Update(ctx context.Context, c Contract) (Contract, error) {
	var before, updated Contract
	err := s.repo.InTx(ctx, func(repo Repository) error {
		current, err := repo.LockContract(ctx, c.ID)
		if err != nil {
			return err
		}
		before = current
		if c.Status == "" {
			c.Status = current.Status
		}
		if err := CheckStatusChange(current.Status, c.Status); err != nil {
			return err
		}
		c.StaffID = current.StaffID
		c.CreatedAt = current.CreatedAt
		if c.DepartmentID == "" {
			c.DepartmentID = current.DepartmentID
		}
		if err := Prepare(&c, s.today()); err != nil {
			return err
		}
		c.RenewalReminderSent = current.RenewalReminderSent && !endsLater(c, current)
		updated, err = repo.UpdateContract(ctx, c)
		if err != nil {
			return err
		}
		_, err = resync(ctx, repo, updated.StaffID, &Change{Previous: current.Status, Contract: updated})
		return err
	})
	if err != nil {
		return Contract{}, err
	}
	audit.Best(ctx, s.audit, audit.ActionUpdate, entityContract, updated.ID, before, updated)
	return updated, nil
}

// endsLater reports whether c's end date moved past current's, which re-arms
// the renewal reminder.
func endsLater(c, current Contract) bool {
	switch {
	case c.EndDate == nil:
		return false
	case current.EndDate == nil:
		return true
	}
	return c.EndDate.After(*current.EndDate)
}

// Delete removes the contract and its overrides, then resyncs the staff member.
func (s *Service) Delete(ctx context.Context, contractID string) error {
	var before Contract
	err := s.repo.InTx(ctx, func(repo Repository) error {
		current, err := repo.LockContract(ctx, contractID)
		if err != nil {
			return err
		}
		before = current
		if err := repo.DeleteContract(ctx, contractID); err != nil {
			return err
		}
		_, err = resync(ctx, repo, current.StaffID, nil)
		return err
	})
	if err != nil {
		return err
	}
	audit.Best(ctx, s.audit, audit.ActionDelete, entityContract, contractID, before, nil)
	return nil
}

// Summary computes the contract's current deduction breakdown and net salary.
func (s *Service) Summary(ctx context.Context, contractID string) (Summary, error) {
	c, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return Summary{}, err
	}
	return LoadSummary(ctx, s.repo, c)
}

// DeductionSource supplies the inputs of the aggregation.
type DeductionSource interface {
	ListMandatoryRules(ctx context.Context) ([]deduction.Rule, error)
	ListOverrides(ctx context.Context, contractID string, activeOnly bool) ([]deduction.AppliedOverride, error)
}

// LoadSummary computes c's breakdown from the currently stored rules and overrides.
func LoadSummary(ctx context.Context, src DeductionSource, c Contract) (Summary, error) {
	rules, err := src.ListMandatoryRules(ctx)
	if err != nil {
		return Summary{}, err
	}
	overrides, err := src.ListOverrides(ctx, c.ID, true)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(c.Salary, rules, overrides), nil
}

// Renew replaces the contract with a successor starting today. The successor, the
// status flip of the original, the renewal record, the copied overrides and the
// staff resync commit together.
func (s *Service) Renew(ctx context.Context, contractID string, req RenewRequest) (Contract, Renewal, error) {
	var successor Contract
	var renewal Renewal
	err := s.repo.InTx(ctx, func(repo Repository) error {
		original, err := repo.LockContract(ctx, contractID)
		if err != nil {
			return err
		}
		next, err := Successor(original, req, s.today())
		if err != nil {
			return err
		}
		successor, err = repo.InsertContract(ctx, next)
		if err != nil {
			return err
		}

		original.Status = StatusRenewed
		if _, err := repo.UpdateContract(ctx, original); err != nil {
			return err
		}
		renewal, err = repo.InsertRenewal(ctx, Renewal{
			ContractID:      original.ID,
			NewContractID:   successor.ID,
			PreviousEndDate: original.EndDate,
			NewEndDate:      successor.EndDate,
			RenewedBy:       req.ActorID,
		})
		if err != nil {
			return err
		}
		if _, err := repo.CopyOverrides(ctx, original.ID, successor.ID); err != nil {
			return err
		}
		_, err = resync(ctx, repo, successor.StaffID, &Change{Contract: successor})
		return err
	})
	if err != nil {
		return Contract{}, Renewal{}, err
	}
	s.logger.Info("contract renewed", "contractId", contractID, "newContractId", successor.ID, "renewedBy", req.ActorID)
	audit.Best(ctx, s.audit, audit.ActionRenew, entityContract, contractID, nil, renewal)
	return successor, renewal, nil
}

func (s *Service) ListRenewals(ctx context.Context, contractID string) ([]Renewal, error) {
	if _, err := s.repo.GetContract(ctx, contractID); err != nil {
		return nil, err
	}
	return s.repo.ListRenewals(ctx, contractID)
}

// ResyncStaff recomputes the staff member's employment status from their contracts.
func (s *Service) ResyncStaff(ctx context.Context, staffID string) (staff.EmploymentStatus, error) {
	var status staff.EmploymentStatus
	err := s.repo.InTx(ctx, func(repo Repository) error {
		var err error
		status, err = resync(ctx, repo, staffID, nil)
		return err
	})
	return status, err
}

func resync(ctx context.Context, repo Repository, staffID string, change *Change) (staff.EmploymentStatus, error) {
	st, err := repo.GetStaff(ctx, staffID)
	if err != nil {
		return "", err
	}
	// Terminated and retired staff are managed by HR directly.
	if st.EmploymentStatus == staff.StatusTerminated || st.EmploymentStatus == staff.StatusRetired {
		return st.EmploymentStatus, nil
	}
	contracts, err := repo.ListContractsByStaff(ctx, staffID)
	if err != nil {
		return "", err
	}
	status := DeriveEmploymentStatus(change, contracts)
	if status == st.EmploymentStatus {
		return status, nil
	}
	return status, repo.SetEmploymentStatus(ctx, staffID, status)
}

// ExpireDue marks every contract whose end date has passed as EXPIRED, one
// transaction per contract, and resyncs the affected staff.
func (s *Service) ExpireDue(ctx context.Context) (SweepResult, error) {
	today := s.today()
	due, err := s.repo.ListContractsToExpire(ctx, today)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	var errs []error
	for _, c := range due {
		expired := false
		err := s.repo.InTx(ctx, func(repo Repository) error {
			current, err := repo.LockContract(ctx, c.ID)
			if err != nil {
				return err
			}
			previous := current.Status
			if err := Prepare(&current, today); err != nil {
				return err
			}
			if current.Status != StatusExpired {
				return nil
			}
			updated, err := repo.UpdateContract(ctx, current)
			if err != nil {
				return err
			}
			expired = true
			_, err = resync(ctx, repo, updated.StaffID, &Change{Previous: previous, Contract: updated})
			return err
		})
		if err != nil {
			result.Failed++
			errs = append(errs, err)
			s.logger.Warn("contract expiry failed", "contractId", c.ID, "err", err)
			continue
		}
		if expired {
			result.Expired++
			audit.Best(ctx, s.audit, audit.ActionExpire, entityContract, c.ID, nil, nil)
		}
	}
	return result, errors.Join(errs...)
}

// RemindExpiring notifies about ACTIVE contracts ending within days and marks them
// reminded. A contract is only marked once its notification succeeded.
func (s *Service) RemindExpiring(ctx context.Context, days int) (int, error) {
	today := s.today()
	ending, err := s.repo.ListContractsEndingBetween(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return 0, err
	}

	reminded := 0
	var errs []error
	for _, c := range ending {
		st, err := s.repo.GetStaff(ctx, c.StaffID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		remaining := int(c.EndDate.Sub(today).Hours() / 24)
		if err := s.notifier.ContractExpiring(ctx, Reminder{Contract: c, Staff: st, DaysRemaining: remaining}); err != nil {
			s.logger.Warn("renewal reminder failed", "contractId", c.ID, "err", err)
			errs = append(errs, err)
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, c.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		reminded++
	}
	return reminded, errors.Join(errs...)
}

// Sweep runs the expiry pass followed by the reminder pass.
func (s *Service) Sweep(ctx context.Context, reminderDays int) (SweepResult, error) {
	result, expireErr := s.ExpireDue(ctx)
	reminded, remindErr := s.RemindExpiring(ctx, reminderDays)
	result.Reminded = reminded
	return result, errors.Join(expireErr, remindErr)
}
