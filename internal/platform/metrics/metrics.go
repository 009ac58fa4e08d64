package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters. All methods are safe for concurrent use.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	payrollRuns     uint64
	payslipsCreated uint64
	payslipsSkipped uint64
	payslipsFailed  uint64

	contractsExpired uint64
	remindersSent    uint64
	sweepFailures    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordPayrollRun(created, skipped, failed int) {
	atomic.AddUint64(&c.payrollRuns, 1)
	atomic.AddUint64(&c.payslipsCreated, uint64(created))
	atomic.AddUint64(&c.payslipsSkipped, uint64(skipped))
	atomic.AddUint64(&c.payslipsFailed, uint64(failed))
}

func (c *Collector) RecordContractSweep(expired, reminded, failed int) {
	atomic.AddUint64(&c.contractsExpired, uint64(expired))
	atomic.AddUint64(&c.remindersSent, uint64(reminded))
	atomic.AddUint64(&c.sweepFailures, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":      atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"payrollRunsTotal":      atomic.LoadUint64(&c.payrollRuns),
		"payslipsCreatedTotal":  atomic.LoadUint64(&c.payslipsCreated),
		"payslipsSkippedTotal":  atomic.LoadUint64(&c.payslipsSkipped),
		"payslipsFailedTotal":   atomic.LoadUint64(&c.payslipsFailed),
		"contractsExpiredTotal": atomic.LoadUint64(&c.contractsExpired),
		"remindersSentTotal":    atomic.LoadUint64(&c.remindersSent),
		"sweepFailuresTotal":    atomic.LoadUint64(&c.sweepFailures),
	}
}
