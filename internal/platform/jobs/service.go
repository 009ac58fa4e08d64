package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/payroll"
)

const (
	JobPayrollMonthly = "payroll_monthly"
	JobContractSweep  = "contract_sweep"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

type PayrollRunner interface {
	RunMonthly(ctx context.Context, month time.Time) (payroll.RunResult, error)
}

type ContractSweeper interface {
	Sweep(ctx context.Context, reminderDays int) (contract.SweepResult, error)
}

type SweepObserver interface {
	RecordContractSweep(expired, reminded, failed int)
}

type Schedule struct {
	PayrollInterval     time.Duration
	SweepInterval       time.Duration
	RenewalReminderDays int
}

type Service struct {
	runs      RunStore
	payroll   PayrollRunner
	contracts ContractSweeper
	observer  SweepObserver
	schedule  Schedule
	logger    *slog.Logger
	now       func() time.Time
	queue     chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(runs RunStore, payroll PayrollRunner, contracts ContractSweeper, schedule Schedule, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runs:      runs,
		payroll:   payroll,
		contracts: contracts,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
		queue:     make(chan job, 128),
	}
}

func (s *Service) WithObserver(o SweepObserver) *Service {
	s.observer = o
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start runs the queue worker and the schedulers until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.schedule.PayrollInterval > 0 {
		go s.every(ctx, s.schedule.PayrollInterval, JobPayrollMonthly, s.PayrollJob(time.Time{}))
	}
	if s.schedule.SweepInterval > 0 {
		go s.every(ctx, s.schedule.SweepInterval, JobContractSweep, s.SweepJob())
	}
}

// Enqueue drops the job when the queue is full.
func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		s.logger.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// PayrollJob generates the payslips of the month containing month, or of the
// current month when month is zero.
func (s *Service) PayrollJob(month time.Time) RunFunc {
	return func(ctx context.Context) (any, error) {
		m := month
		if m.IsZero() {
			m = s.now().UTC()
		}
		return s.payroll.RunMonthly(ctx, m)
	}
}

func (s *Service) SweepJob() RunFunc {
	return func(ctx context.Context) (any, error) {
		result, err := s.contracts.Sweep(ctx, s.schedule.RenewalReminderDays)
		if s.observer != nil {
			s.observer.RecordContractSweep(result.Expired, result.Reminded, result.Failed)
		}
		return result, err
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.runs.StartRun(ctx, j.Type)
	if err != nil {
		s.logger.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		s.logger.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			s.logger.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	return details, err
}

func (s *Service) every(ctx context.Context, interval time.Duration, jobType string, run RunFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}

func (s *Service) ListRuns(ctx context.Context, filter RunFilter, limit, offset int) ([]Run, error) {
	return s.runs.ListRuns(ctx, filter, limit, offset)
}
