package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/store/memory"
)

type fakePayroll struct {
	months []time.Time
	err    error
}

func (f *fakePayroll) RunMonthly(_ context.Context, month time.Time) (payroll.RunResult, error) {
	f.months = append(f.months, month)
	start, end := payroll.MonthPeriod(month)
	return payroll.RunResult{PeriodStart: start, PeriodEnd: end, Created: 2}, f.err
}

type fakeSweeper struct{ days int }

func (f *fakeSweeper) Sweep(_ context.Context, reminderDays int) (contract.SweepResult, error) {
	f.days = reminderDays
	return contract.SweepResult{Expired: 1, Reminded: 3}, nil
}

type sweepCounter struct{ expired, reminded int }

func (c *sweepCounter) RecordContractSweep(expired, reminded, _ int) {
	c.expired += expired
	c.reminded += reminded
}

func TestRunNowRecordsRun(t *testing.T) {
	ctx := context.Background()
	runs := memory.New().Jobs()
	pay := &fakePayroll{}
	svc := jobs.New(runs, pay, &fakeSweeper{}, jobs.Schedule{}, nil).
		WithClock(func() time.Time { return time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC) })

	details, err := svc.RunNow(ctx, jobs.JobPayrollMonthly, svc.PayrollJob(time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, 2, details.(payroll.RunResult).Created)
	require.Len(t, pay.months, 1)
	assert.Equal(t, time.June, pay.months[0].Month())

	list, err := runs.ListRuns(ctx, jobs.RunFilter{JobType: jobs.JobPayrollMonthly}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, jobs.StatusCompleted, list[0].Status)
	require.NotNil(t, list[0].CompletedAt)

	var recorded map[string]any
	require.NoError(t, json.Unmarshal(list[0].Details, &recorded))
	assert.Equal(t, float64(2), recorded["created"])
}

func TestRunNowRecordsFailure(t *testing.T) {
	ctx := context.Background()
	runs := memory.New().Jobs()
	svc := jobs.New(runs, &fakePayroll{err: errors.New("db down")}, &fakeSweeper{}, jobs.Schedule{}, nil)

	_, err := svc.RunNow(ctx, jobs.JobPayrollMonthly, svc.PayrollJob(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
	require.Error(t, err)

	list, err := runs.ListRuns(ctx, jobs.RunFilter{Status: jobs.StatusFailed}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSweepJobUsesReminderWindow(t *testing.T) {
	sweeper := &fakeSweeper{}
	counter := &sweepCounter{}
	svc := jobs.New(memory.New().Jobs(), &fakePayroll{}, sweeper, jobs.Schedule{RenewalReminderDays: 14}, nil).WithObserver(counter)

	_, err := svc.RunNow(context.Background(), jobs.JobContractSweep, svc.SweepJob())
	require.NoError(t, err)
	assert.Equal(t, 14, sweeper.days)
	assert.Equal(t, sweepCounter{expired: 1, reminded: 3}, *counter)
}

func TestWorkerDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := memory.New().Jobs()
	svc := jobs.New(runs, &fakePayroll{}, &fakeSweeper{}, jobs.Schedule{}, nil)
	svc.Start(ctx)

	done := make(chan struct{})
	require.True(t, svc.Enqueue("custom", func(context.Context) (any, error) {
		close(done)
		return map[string]int{"ok": 1}, nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued job did not run")
	}
	assert.Eventually(t, func() bool {
		list, err := runs.ListRuns(ctx, jobs.RunFilter{Status: jobs.StatusCompleted}, 10, 0)
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
