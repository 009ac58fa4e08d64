package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/apperr"
)

var (
	ErrNoActiveContract = apperr.Precondition("no active contract")
	ErrDuplicatePayslip = apperr.Conflict("a payslip already exists for this staff member and pay period")
)

const entityPayroll = "payroll"

// RunObserver receives the outcome of each batch run.
type RunObserver interface {
	RecordPayrollRun(created, skipped, failed int)
}

type Service struct {
	repo     Repository
	audit    audit.Recorder
	logger   *slog.Logger
	workers  int
	observer RunObserver
	now      func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger, workers int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{repo: repo, audit: recorder, logger: logger, workers: workers, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithObserver(o RunObserver) *Service {
	s.observer = o
	return s
}

func validateRequest(req GenerateRequest) error {
	switch {
	case strings.TrimSpace(req.StaffID) == "":
		return apperr.Validation("staff_id", "is required")
	case req.PeriodStart.IsZero():
		return apperr.Validation("pay_period_start", "is required")
	case req.PeriodEnd.IsZero():
		return apperr.Validation("pay_period_end", "is required")
	case contract.Day(req.PeriodEnd).Before(contract.Day(req.PeriodStart)):
		return apperr.Validation("pay_period_end", "must not be before pay_period_start")
	case req.GrossOverride.Valid && req.GrossOverride.Decimal.IsNegative():
		return apperr.Validation("gross_salary", "must not be negative")
	}
	return staff.ValidateKRAPin(req.KRAPin)
}

// resolveContract returns the explicitly requested contract when it is an ACTIVE
// contract of the staff member, otherwise the staff member's current contract.
func resolveContract(ctx context.Context, repo Repository, staffID, contractID string) (contract.Contract, error) {
	if contractID != "" {
		c, err := repo.GetContract(ctx, contractID)
		if err != nil {
			return contract.Contract{}, err
		}
		if c.StaffID != staffID {
			return contract.Contract{}, apperr.Validation("contract_id", "contract does not belong to this staff member")
		}
		if c.Status != contract.StatusActive {
			return contract.Contract{}, ErrNoActiveContract
		}
		return c, nil
	}
	contracts, err := repo.ListContractsByStaff(ctx, staffID)
	if err != nil {
		return contract.Contract{}, err
	}
	current := contract.CurrentContract(contracts)
	if current == nil {
		return contract.Contract{}, ErrNoActiveContract
	}
	return *current, nil
}

// Generate creates the payslip for one staff member and period. The deduction
// breakdown is computed from the rules and overrides stored at this moment.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Payroll, error) {
	if err := validateRequest(req); err != nil {
		return Payroll{}, err
	}

	var created Payroll
	err := s.repo.InTx(ctx, func(repo Repository) error {
		st, err := repo.GetStaff(ctx, req.StaffID)
		if err != nil {
			return err
		}
		c, err := resolveContract(ctx, repo, st.ID, req.ContractID)
		if err != nil {
			return err
		}
		if req.GrossOverride.Valid {
			c.Salary = req.GrossOverride.Decimal
		}
		summary, err := contract.LoadSummary(ctx, repo, c)
		if err != nil {
			return err
		}

		p := Payroll{
			StaffID:         st.ID,
			ContractID:      c.ID,
			PayPeriodStart:  contract.Day(req.PeriodStart),
			PayPeriodEnd:    contract.Day(req.PeriodEnd),
			GrossSalary:     summary.Salary,
			TotalDeductions: summary.TotalDeductions,
			NetSalary:       summary.NetSalary,
			Breakdown:       summary,
			Warnings:        []string{},
			KRAPin:          st.KRAPin,
			BankDetails:     st.BankDetails,
			GeneratedAt:     s.now().UTC(),
		}
		if req.KRAPin != "" {
			p.KRAPin = req.KRAPin
		}
		if req.Bank != nil {
			p.BankDetails = *req.Bank
		}
		if summary.NegativeNet {
			p.Warnings = append(p.Warnings, WarningNegativeNet)
		}
		if strings.TrimSpace(p.AccountNo) == "" {
			p.Warnings = append(p.Warnings, WarningMissingBank)
		}

		created, err = repo.InsertPayroll(ctx, p)
		return err
	})
	if err != nil {
		return Payroll{}, err
	}
	s.logger.Info("payslip generated",
		"payrollId", created.ID,
		"staffId", created.StaffID,
		"periodStart", created.PayPeriodStart.Format(time.DateOnly),
		"net", created.NetSalary.StringFixed(2),
		"warnings", created.Warnings,
	)
	audit.Best(ctx, s.audit, audit.ActionCreate, entityPayroll, created.ID, nil, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, payrollID string) (Payroll, error) {
	return s.repo.GetPayroll(ctx, payrollID)
}

func (s *Service) ListByStaff(ctx context.Context, staffID string) ([]Payroll, error) {
	if _, err := s.repo.GetStaff(ctx, staffID); err != nil {
		return nil, err
	}
	return s.repo.ListPayrollsByStaff(ctx, staffID)
}

// Payslip assembles the renderer-facing view of a stored payroll.
func (s *Service) Payslip(ctx context.Context, payrollID string) (Payslip, error) {
	p, err := s.repo.GetPayroll(ctx, payrollID)
	if err != nil {
		return Payslip{}, err
	}
	st, err := s.repo.GetStaff(ctx, p.StaffID)
	if err != nil {
		return Payslip{}, err
	}
	out := Payslip{Payroll: p, StaffName: st.FullName(), StaffUID: st.UniqueID}
	c, err := s.repo.GetContract(ctx, p.ContractID)
	switch {
	case err == nil:
		out.JobTitle, out.ContractType = c.JobTitle, c.Type
	case !errors.Is(err, apperr.ErrNotFound):
		return Payslip{}, err
	}
	return out, nil
}

// RunMonthly generates payslips for every staff member with an ACTIVE contract
// overlapping the month. Each payslip is created independently: existing ones are
// skipped and failures are counted without affecting the others.
func (s *Service) RunMonthly(ctx context.Context, month time.Time) (RunResult, error) {
	start, end := MonthPeriod(month)
	result := RunResult{PeriodStart: start, PeriodEnd: end}

	contracts, err := s.repo.ListContractsActiveDuring(ctx, start, end)
	if err != nil {
		return result, err
	}
	byStaff := map[string][]contract.Contract{}
	for _, c := range contracts {
		byStaff[c.StaffID] = append(byStaff[c.StaffID], c)
	}
	staffIDs := make([]string, 0, len(byStaff))
	for id := range byStaff {
		staffIDs = append(staffIDs, id)
	}
	sort.Strings(staffIDs)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, staffID := range staffIDs {
		current := contract.CurrentContract(byStaff[staffID])
		if current == nil {
			continue
		}
		contractID := current.ID
		g.Go(func() error {
			outcome, err := s.generateForRun(ctx, staffID, contractID, start, end)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeCreated:
				result.Created++
			case outcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", staffID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("monthly payroll run finished",
		"periodStart", start.Format(time.DateOnly),
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if s.observer != nil {
		s.observer.RecordPayrollRun(result.Created, result.Skipped, result.Failed)
	}
	return result, ctx.Err()
}

type runOutcome int

const (
	outcomeFailed runOutcome = iota
	outcomeCreated
	outcomeSkipped
)

func (s *Service) generateForRun(ctx context.Context, staffID, contractID string, start, end time.Time) (runOutcome, error) {
	if err := ctx.Err(); err != nil {
		return outcomeFailed, err
	}
	exists, err := s.repo.PayrollExists(ctx, staffID, start, end)
	if err != nil {
		return outcomeFailed, err
	}
	if exists {
		return outcomeSkipped, nil
	}
	_, err = s.Generate(ctx, GenerateRequest{StaffID: staffID, ContractID: contractID, PeriodStart: start, PeriodEnd: end})
	switch {
	case err == nil:
		return outcomeCreated, nil
	case errors.Is(err, ErrDuplicatePayslip):
		return outcomeSkipped, nil
	default:
		s.logger.Warn("payslip generation failed", "staffId", staffID, "contractId", contractID, "err", err)
		return outcomeFailed, err
	}
}
